package occurrence

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// SyncOccurrencesInput represents the input for scheduling a pattern's occurrences.
type SyncOccurrencesInput struct {
	UserID    uuid.UUID
	PatternID uuid.UUID
	From      *time.Time // Defaults to the pattern's start date
	Through   *time.Time // Defaults to today plus one period
}

// SyncOccurrencesOutput represents the result of a scheduling pass.
type SyncOccurrencesOutput struct {
	Pattern *entity.BillPattern
	Stats   ScheduleStats
}

// SyncOccurrencesUseCase fills a pattern's schedule with placeholders and links matching transactions.
type SyncOccurrencesUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	locker          adapter.PatternLocker
	propagator      *classification.PropagateUseCase
	cache           adapter.CandidateCache
	config          valueobject.DetectionConfig
	now             func() time.Time
}

// NewSyncOccurrencesUseCase creates a new SyncOccurrencesUseCase instance.
func NewSyncOccurrencesUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
	propagator *classification.PropagateUseCase,
	cache adapter.CandidateCache,
	config valueobject.DetectionConfig,
) *SyncOccurrencesUseCase {
	return &SyncOccurrencesUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		locker:          locker,
		propagator:      propagator,
		cache:           cache,
		config:          config,
		now:             time.Now,
	}
}

// WithClock replaces the clock used for the default window end.
func (uc *SyncOccurrencesUseCase) WithClock(now func() time.Time) *SyncOccurrencesUseCase {
	uc.now = now
	return uc
}

// Execute runs one scheduling pass for a pattern.
func (uc *SyncOccurrencesUseCase) Execute(ctx context.Context, input SyncOccurrencesInput) (*SyncOccurrencesOutput, error) {
	if input.From != nil && input.Through != nil && input.From.After(*input.Through) {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeInvalidDate, "from must not be after through", domainerror.ErrInvalidDate)
	}

	output, err := uc.syncLocked(ctx, input)
	if err != nil {
		return nil, err
	}

	if output.Stats.Linked > 0 {
		if result := uc.propagator.PropagatePattern(ctx, output.Pattern); result.Err != nil {
			slog.Warn("Propagation after scheduling failed",
				"pattern_id", output.Pattern.ID,
				"error", result.Err,
			)
		}
		if err := uc.cache.Invalidate(ctx, input.UserID); err != nil {
			slog.Warn("Candidate cache invalidation failed", "user_id", input.UserID, "error", err)
		}
	}

	return output, nil
}

func (uc *SyncOccurrencesUseCase) syncLocked(ctx context.Context, input SyncOccurrencesInput) (*SyncOccurrencesOutput, error) {
	unlock, err := uc.locker.Lock(ctx, input.PatternID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pattern, err := uc.patternRepo.FindByID(ctx, input.PatternID, input.UserID)
	if err != nil {
		return nil, err
	}

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}

	transactions, err := uc.candidateTransactions(ctx, pattern)
	if err != nil {
		return nil, err
	}

	from := pattern.StartDate
	if input.From != nil {
		from = *input.From
	}
	through := uc.now().UTC().AddDate(0, 0, pattern.Frequency.NominalDays())
	if input.Through != nil {
		through = *input.Through
	}

	changes, stats := planSchedule(pattern, occurrences, transactions, from, through, uc.config)
	if !changes.IsEmpty() {
		if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
			return nil, err
		}
	}

	slog.Info("Occurrences scheduled",
		"pattern_id", pattern.ID,
		"linked", stats.Linked,
		"placeholders", stats.Placeholders,
		"removed", stats.Removed,
	)

	return &SyncOccurrencesOutput{Pattern: pattern, Stats: stats}, nil
}

// candidateTransactions returns the user's unlinked expenses plus the pattern's own transactions.
func (uc *SyncOccurrencesUseCase) candidateTransactions(ctx context.Context, pattern *entity.BillPattern) ([]*entity.Transaction, error) {
	unlinked, err := uc.transactionRepo.FindUnlinkedExpenses(ctx, pattern.UserID)
	if err != nil {
		return nil, err
	}
	own, err := uc.transactionRepo.FindByPatternID(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}
	return append(unlinked, own...), nil
}
