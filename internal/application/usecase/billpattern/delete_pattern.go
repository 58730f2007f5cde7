package billpattern

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// DeleteMode selects what happens to confirmed occurrences when a pattern is deleted.
type DeleteMode string

const (
	// DeleteModeGuarded refuses to delete a pattern with linked occurrences.
	DeleteModeGuarded DeleteMode = "guarded"
	// DeleteModeReassign merges the pattern's linked occurrences into another pattern.
	DeleteModeReassign DeleteMode = "reassign"
	// DeleteModeCascade deletes everything and resets pattern-sourced classifications.
	DeleteModeCascade DeleteMode = "cascade"
)

// ParseDeleteMode parses a delete mode, defaulting to guarded.
func ParseDeleteMode(s string) (DeleteMode, bool) {
	switch DeleteMode(s) {
	case "":
		return DeleteModeGuarded, true
	case DeleteModeGuarded, DeleteModeReassign, DeleteModeCascade:
		return DeleteMode(s), true
	}
	return "", false
}

// DeletePatternInput represents the input for pattern deletion.
type DeletePatternInput struct {
	UserID     uuid.UUID
	PatternID  uuid.UUID
	Mode       DeleteMode
	ReassignTo *uuid.UUID // Required in reassign mode
}

// DeletePatternOutput represents the output of pattern deletion.
type DeletePatternOutput struct {
	Mode                  DeleteMode
	DeletedOccurrences    int
	MovedOccurrences      int
	UpdatedTransactions   int
	ReassignedToPatternID *uuid.UUID
}

// DeletePatternUseCase handles pattern deletion.
type DeletePatternUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	locker          adapter.PatternLocker
	propagator      *classification.PropagateUseCase
	cache           adapter.CandidateCache
}

// NewDeletePatternUseCase creates a new DeletePatternUseCase instance.
func NewDeletePatternUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
	propagator *classification.PropagateUseCase,
	cache adapter.CandidateCache,
) *DeletePatternUseCase {
	return &DeletePatternUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		locker:          locker,
		propagator:      propagator,
		cache:           cache,
	}
}

// Execute performs the deletion.
func (uc *DeletePatternUseCase) Execute(ctx context.Context, input DeletePatternInput) (*DeletePatternOutput, error) {
	if input.Mode == "" {
		input.Mode = DeleteModeGuarded
	}

	lockIDs := []uuid.UUID{input.PatternID}
	switch input.Mode {
	case DeleteModeGuarded, DeleteModeCascade:
	case DeleteModeReassign:
		if input.ReassignTo == nil || *input.ReassignTo == input.PatternID {
			return nil, domainerror.NewValidationError(
				domainerror.ErrCodeInvalidDeleteMode,
				"reassign mode requires a different target pattern",
				domainerror.ErrInvalidDeleteMode,
			)
		}
		lockIDs = append(lockIDs, *input.ReassignTo)
	default:
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeInvalidDeleteMode,
			fmt.Sprintf("unsupported delete mode %q", input.Mode),
			domainerror.ErrInvalidDeleteMode,
		)
	}

	output, target, err := uc.deleteLocked(ctx, input, lockIDs)
	if err != nil {
		return nil, err
	}

	if target != nil {
		if result := uc.propagator.PropagatePattern(ctx, target); result.Err != nil {
			slog.Warn("Propagation after merge failed", "pattern_id", target.ID, "error", result.Err)
		}
	}
	invalidateCandidates(ctx, uc.cache, input.UserID)

	return output, nil
}

func (uc *DeletePatternUseCase) deleteLocked(ctx context.Context, input DeletePatternInput, lockIDs []uuid.UUID) (*DeletePatternOutput, *entity.BillPattern, error) {
	unlock, err := uc.locker.Lock(ctx, lockIDs...)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	pattern, err := uc.patternRepo.FindByID(ctx, input.PatternID, input.UserID)
	if err != nil {
		return nil, nil, err
	}
	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, nil, err
	}
	transactions, err := uc.transactionRepo.FindByPatternID(ctx, pattern.ID)
	if err != nil {
		return nil, nil, err
	}

	changes := adapter.NewPatternChangeSet(pattern.ID)
	changes.DeletePattern = true
	output := &DeletePatternOutput{Mode: input.Mode}

	var target *entity.BillPattern
	switch input.Mode {
	case DeleteModeGuarded:
		if countLinked(occurrences) > 0 {
			return nil, nil, domainerror.NewInvariantViolation(
				domainerror.ErrCodePatternHasLinkedOccurrences,
				"pattern has linked occurrences; reassign or cascade to delete it",
				domainerror.ErrPatternHasLinkedOccurrences,
			)
		}
		changes.DeleteOccurrences = occurrences
		unlinkAll(transactions, changes)

	case DeleteModeCascade:
		changes.DeleteOccurrences = occurrences
		changes.AllowLinkedDeletion = true
		unlinkAll(transactions, changes)

	case DeleteModeReassign:
		target, err = uc.patternRepo.FindByID(ctx, *input.ReassignTo, input.UserID)
		if err != nil {
			return nil, nil, err
		}
		targetOccurrences, err := uc.patternRepo.FindOccurrences(ctx, target.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := planMerge(changes, target, occurrences, targetOccurrences, transactions); err != nil {
			return nil, nil, err
		}
		output.MovedOccurrences = len(changes.UpdateOccurrences)
		output.ReassignedToPatternID = &target.ID
	}

	if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
		return nil, nil, fmt.Errorf("failed to delete bill pattern: %w", err)
	}

	output.DeletedOccurrences = len(changes.DeleteOccurrences)
	output.UpdatedTransactions = len(changes.Transactions)

	slog.Info("Bill pattern deleted",
		"pattern_id", pattern.ID,
		"mode", input.Mode,
		"deleted_occurrences", output.DeletedOccurrences,
		"moved_occurrences", output.MovedOccurrences,
	)

	return output, target, nil
}

func unlinkAll(transactions []*entity.Transaction, changes *adapter.PatternChangeSet) {
	for _, tx := range transactions {
		tx.Unlink()
		changes.TouchTransaction(tx)
	}
}

// planMerge moves linked occurrences of the deleted pattern into target, one per date.
// A target placeholder on the same date gives way; a target occurrence confirmed by a
// different transaction aborts the merge.
func planMerge(
	changes *adapter.PatternChangeSet,
	target *entity.BillPattern,
	occurrences, targetOccurrences []*entity.Occurrence,
	transactions []*entity.Transaction,
) error {
	targetID := target.ID
	changes.MergeIntoID = &targetID

	byDate := make(map[time.Time]*entity.Occurrence, len(targetOccurrences))
	for _, occ := range targetOccurrences {
		date := valueobject.CalendarDate(occ.DueDate)
		if existing, ok := byDate[date]; ok && existing.IsLinked() {
			continue
		}
		byDate[date] = occ
	}

	now := time.Now().UTC()
	for _, occ := range occurrences {
		if !occ.IsLinked() {
			changes.DeleteOccurrences = append(changes.DeleteOccurrences, occ)
			continue
		}

		date := valueobject.CalendarDate(occ.DueDate)
		if existing, ok := byDate[date]; ok {
			switch {
			case existing.IsLinkedTo(*occ.BankTransactionID):
				changes.DeleteOccurrences = append(changes.DeleteOccurrences, occ)
				continue
			case existing.IsLinked():
				return domainerror.NewInvariantViolation(
					domainerror.ErrCodeLinkedOccurrenceWouldBeDeleted,
					fmt.Sprintf("target pattern already has a different transaction on %s", date.Format(valueobject.DateLayout)),
					domainerror.ErrLinkedOccurrenceWouldBeDeleted,
				)
			default:
				changes.DeleteOccurrences = append(changes.DeleteOccurrences, existing)
			}
		}

		occ.BillPatternID = targetID
		occ.UpdatedAt = now
		byDate[date] = occ
		changes.UpdateOccurrences = append(changes.UpdateOccurrences, occ)
	}

	for _, tx := range transactions {
		if tx.IsUserOneTime() {
			tx.Unlink()
		} else {
			tx.LinkToPattern(targetID, entity.SourcePatternCreation)
		}
		changes.TouchTransaction(tx)
	}
	return nil
}
