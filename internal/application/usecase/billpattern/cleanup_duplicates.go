package billpattern

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// CleanupDuplicatesInput represents the input for duplicate occurrence cleanup.
type CleanupDuplicatesInput struct {
	UserID    uuid.UUID
	PatternID *uuid.UUID // Optional, defaults to every pattern of the user
}

// CleanupResult reports the cleanup of one pattern.
type CleanupResult struct {
	PatternID uuid.UUID
	Removed   int
	Err       error
}

// CleanupDuplicatesOutput represents the output of duplicate cleanup.
type CleanupDuplicatesOutput struct {
	Results []CleanupResult
	Removed int
}

// CleanupDuplicatesUseCase restores the one-occurrence-per-date rule. Each pattern is
// cleaned atomically; a failing pattern does not stop the others.
type CleanupDuplicatesUseCase struct {
	patternRepo adapter.BillPatternRepository
	locker      adapter.PatternLocker
}

// NewCleanupDuplicatesUseCase creates a new CleanupDuplicatesUseCase instance.
func NewCleanupDuplicatesUseCase(patternRepo adapter.BillPatternRepository, locker adapter.PatternLocker) *CleanupDuplicatesUseCase {
	return &CleanupDuplicatesUseCase{
		patternRepo: patternRepo,
		locker:      locker,
	}
}

// Execute performs the cleanup.
func (uc *CleanupDuplicatesUseCase) Execute(ctx context.Context, input CleanupDuplicatesInput) (*CleanupDuplicatesOutput, error) {
	var patternIDs []uuid.UUID
	if input.PatternID != nil {
		pattern, err := uc.patternRepo.FindByID(ctx, *input.PatternID, input.UserID)
		if err != nil {
			return nil, err
		}
		patternIDs = []uuid.UUID{pattern.ID}
	} else {
		patterns, err := uc.patternRepo.FindByUserID(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		for _, p := range patterns {
			patternIDs = append(patternIDs, p.ID)
		}
	}

	output := &CleanupDuplicatesOutput{Results: make([]CleanupResult, 0, len(patternIDs))}
	for _, id := range patternIDs {
		result := uc.cleanPattern(ctx, id)
		if result.Err != nil {
			slog.Error("Duplicate cleanup failed",
				"pattern_id", id,
				"error", result.Err,
			)
		}
		output.Results = append(output.Results, result)
		output.Removed += result.Removed
	}
	return output, nil
}

func (uc *CleanupDuplicatesUseCase) cleanPattern(ctx context.Context, patternID uuid.UUID) CleanupResult {
	result := CleanupResult{PatternID: patternID}

	unlock, err := uc.locker.Lock(ctx, patternID)
	if err != nil {
		result.Err = err
		return result
	}
	defer unlock()

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, patternID)
	if err != nil {
		result.Err = err
		return result
	}

	remove, err := planDuplicateRemoval(occurrences)
	if err != nil {
		result.Err = err
		return result
	}
	if len(remove) == 0 {
		return result
	}

	changes := adapter.NewPatternChangeSet(patternID)
	changes.DeleteOccurrences = remove
	if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
		result.Err = err
		return result
	}

	result.Removed = len(remove)
	slog.Info("Duplicate occurrences removed", "pattern_id", patternID, "removed", result.Removed)
	return result
}

// planDuplicateRemoval returns the occurrences to delete so that every date keeps one.
// The keeper is the earliest-created linked occurrence, or the earliest-created one when
// none is linked. A date confirmed by two different transactions cannot be repaired.
func planDuplicateRemoval(occurrences []*entity.Occurrence) ([]*entity.Occurrence, error) {
	groups := make(map[time.Time][]*entity.Occurrence)
	for _, occ := range occurrences {
		date := valueobject.CalendarDate(occ.DueDate)
		groups[date] = append(groups[date], occ)
	}

	dates := make([]time.Time, 0, len(groups))
	for date, group := range groups {
		if len(group) > 1 {
			dates = append(dates, date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var remove []*entity.Occurrence
	for _, date := range dates {
		group := groups[date]
		sort.Slice(group, func(i, j int) bool {
			if group[i].IsLinked() != group[j].IsLinked() {
				return group[i].IsLinked()
			}
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID.String() < group[j].ID.String()
		})

		keeper := group[0]
		for _, occ := range group[1:] {
			if occ.IsLinked() && !occ.IsLinkedTo(*keeper.BankTransactionID) {
				return nil, domainerror.NewInvariantViolation(
					domainerror.ErrCodeLinkedOccurrenceWouldBeDeleted,
					fmt.Sprintf("occurrences on %s are linked to different transactions", date.Format(valueobject.DateLayout)),
					domainerror.ErrLinkedOccurrenceWouldBeDeleted,
				)
			}
			remove = append(remove, occ)
		}
	}
	return remove, nil
}
