package billpattern

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// UpdatePatternInput represents the input for editing a pattern.
type UpdatePatternInput struct {
	UserID     uuid.UUID
	PatternID  uuid.UUID
	Name       *string          // Optional
	Frequency  *string          // Optional
	BaseAmount *decimal.Decimal // Optional
	StartDate  *time.Time       // Optional
	CategoryID *uuid.UUID       // Optional
}

// UpdatePatternOutput represents the output of a pattern edit.
type UpdatePatternOutput struct {
	Pattern     *entity.BillPattern
	Rescheduled bool
	// Warning is set when the edit was saved but the schedule could not be rebuilt.
	// The next sync of the pattern rebuilds it.
	Warning string
}

// UpdatePatternUseCase handles pattern edits. Edits that move the schedule drop the
// unlinked placeholders and rebuild them.
type UpdatePatternUseCase struct {
	patternRepo adapter.BillPatternRepository
	locker      adapter.PatternLocker
	syncUseCase *occurrence.SyncOccurrencesUseCase
	cache       adapter.CandidateCache
}

// NewUpdatePatternUseCase creates a new UpdatePatternUseCase instance.
func NewUpdatePatternUseCase(
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
	syncUseCase *occurrence.SyncOccurrencesUseCase,
	cache adapter.CandidateCache,
) *UpdatePatternUseCase {
	return &UpdatePatternUseCase{
		patternRepo: patternRepo,
		locker:      locker,
		syncUseCase: syncUseCase,
		cache:       cache,
	}
}

// Execute performs the edit. The edit is committed before the schedule is rebuilt,
// so a failed rebuild is reported as a warning rather than an error.
func (uc *UpdatePatternUseCase) Execute(ctx context.Context, input UpdatePatternInput) (*UpdatePatternOutput, error) {
	output, err := uc.updateLocked(ctx, input)
	if err != nil {
		return nil, err
	}

	if output.Rescheduled {
		synced, err := uc.syncUseCase.Execute(ctx, occurrence.SyncOccurrencesInput{
			UserID:    input.UserID,
			PatternID: input.PatternID,
		})
		if err != nil {
			slog.Warn("Pattern edit saved but schedule rebuild failed",
				"pattern_id", input.PatternID,
				"error", err,
			)
			output.Warning = "edit saved; upcoming occurrences will be rebuilt on the next sync"
		} else {
			output.Pattern = synced.Pattern
		}
	}

	invalidateCandidates(ctx, uc.cache, input.UserID)
	return output, nil
}

func (uc *UpdatePatternUseCase) updateLocked(ctx context.Context, input UpdatePatternInput) (*UpdatePatternOutput, error) {
	unlock, err := uc.locker.Lock(ctx, input.PatternID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pattern, err := uc.patternRepo.FindByID(ctx, input.PatternID, input.UserID)
	if err != nil {
		return nil, err
	}

	rescheduled, err := applyPatch(pattern, input)
	if err != nil {
		return nil, err
	}
	pattern.UpdatedAt = time.Now().UTC()

	changes := adapter.NewPatternChangeSet(pattern.ID)
	changes.UpdatePattern = pattern

	if rescheduled {
		occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			if !occ.IsLinked() {
				changes.DeleteOccurrences = append(changes.DeleteOccurrences, occ)
			}
		}
	}

	if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
		return nil, fmt.Errorf("failed to update bill pattern: %w", err)
	}

	slog.Info("Bill pattern updated",
		"pattern_id", pattern.ID,
		"rescheduled", rescheduled,
		"dropped_placeholders", len(changes.DeleteOccurrences),
	)

	return &UpdatePatternOutput{Pattern: pattern, Rescheduled: rescheduled}, nil
}

// applyPatch validates and applies the edit. It reports whether the schedule must be rebuilt.
func applyPatch(pattern *entity.BillPattern, input UpdatePatternInput) (bool, error) {
	rescheduled := false

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return false, domainerror.NewValidationError(domainerror.ErrCodeInvalidRequest, "name must not be empty", nil)
		}
		pattern.Name = name
	}

	if input.Frequency != nil {
		frequency, ok := valueobject.ParseFrequency(*input.Frequency)
		if !ok {
			return false, domainerror.NewValidationError(
				domainerror.ErrCodeInvalidFrequency,
				fmt.Sprintf("unsupported frequency %q", *input.Frequency),
				domainerror.ErrInvalidFrequency,
			)
		}
		if frequency != pattern.Frequency {
			pattern.Frequency = frequency
			rescheduled = true
		}
	}

	if input.BaseAmount != nil {
		if input.BaseAmount.IsZero() {
			return false, domainerror.NewValidationError(domainerror.ErrCodeInvalidAmount, "base amount must not be zero", domainerror.ErrInvalidAmount)
		}
		if !input.BaseAmount.Equal(pattern.BaseAmount) {
			pattern.BaseAmount = *input.BaseAmount
			rescheduled = true
		}
	}

	if input.StartDate != nil {
		if input.StartDate.IsZero() {
			return false, domainerror.NewValidationError(domainerror.ErrCodeInvalidDate, "start date must be set", domainerror.ErrInvalidDate)
		}
		start := valueobject.CalendarDate(*input.StartDate)
		if !start.Equal(pattern.StartDate) {
			pattern.StartDate = start
			rescheduled = true
		}
	}

	if input.CategoryID != nil {
		categoryID := *input.CategoryID
		pattern.CategoryID = &categoryID
	}

	return rescheduled, nil
}
