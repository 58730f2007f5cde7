package occurrence

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// LinkStatus is the outcome of a link request.
type LinkStatus string

const (
	LinkStatusLinked        LinkStatus = "linked"
	LinkStatusAlreadyLinked LinkStatus = "already_linked"
)

// LinkTransactionInput represents the input for linking a transaction to a pattern.
type LinkTransactionInput struct {
	UserID        uuid.UUID
	PatternID     uuid.UUID
	TransactionID uuid.UUID
	Source        entity.ClassificationSource // Defaults to user
}

// LinkTransactionOutput represents the result of a link request.
type LinkTransactionOutput struct {
	Status     LinkStatus
	Occurrence *entity.Occurrence
	Pattern    *entity.BillPattern
}

// LinkTransactionUseCase attaches one bank transaction to a pattern's schedule.
type LinkTransactionUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	locker          adapter.PatternLocker
	propagator      *classification.PropagateUseCase
	cache           adapter.CandidateCache
	config          valueobject.DetectionConfig
}

// NewLinkTransactionUseCase creates a new LinkTransactionUseCase instance.
func NewLinkTransactionUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
	propagator *classification.PropagateUseCase,
	cache adapter.CandidateCache,
	config valueobject.DetectionConfig,
) *LinkTransactionUseCase {
	return &LinkTransactionUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		locker:          locker,
		propagator:      propagator,
		cache:           cache,
		config:          config,
	}
}

// Execute links the transaction. A date already confirmed by the same transaction is a no-op;
// a date confirmed by another transaction is logged and reported as already linked.
func (uc *LinkTransactionUseCase) Execute(ctx context.Context, input LinkTransactionInput) (*LinkTransactionOutput, error) {
	if input.Source == entity.SourceNone {
		input.Source = entity.SourceUser
	}

	output, err := uc.linkLocked(ctx, input)
	if err != nil {
		return nil, err
	}

	if output.Status == LinkStatusLinked {
		if result := uc.propagator.PropagatePattern(ctx, output.Pattern); result.Err != nil {
			slog.Warn("Propagation after link failed",
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

func (uc *LinkTransactionUseCase) linkLocked(ctx context.Context, input LinkTransactionInput) (*LinkTransactionOutput, error) {
	unlock, err := uc.locker.Lock(ctx, input.PatternID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pattern, err := uc.patternRepo.FindByID(ctx, input.PatternID, input.UserID)
	if err != nil {
		return nil, err
	}

	tx, err := uc.transactionRepo.FindByID(ctx, input.TransactionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if tx.Date.IsZero() {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeInvalidDate, "transaction has no date", domainerror.ErrInvalidDate)
	}
	if tx.BillPatternID != nil && *tx.BillPatternID != pattern.ID {
		return nil, domainerror.NewConflictError(
			domainerror.ErrCodeTransactionLinkedElsewhere,
			"transaction is linked to another bill pattern",
			domainerror.ErrTransactionLinkedElsewhere,
		)
	}

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}

	s := newSchedule(pattern.ID, occurrences)
	output := &LinkTransactionOutput{Pattern: pattern}

	for _, occ := range occurrences {
		if occ.IsLinkedTo(tx.ID) {
			output.Status = LinkStatusAlreadyLinked
			output.Occurrence = occ
			if !tx.IsLinkedTo(pattern.ID) {
				tx.LinkToPattern(pattern.ID, input.Source)
				s.changes.TouchTransaction(tx)
				if err := uc.patternRepo.ApplyChanges(ctx, s.changes); err != nil {
					return nil, err
				}
			}
			return output, nil
		}
	}

	for _, occ := range occurrences {
		if occ.IsLinked() && valueobject.DaysBetween(occ.DueDate, tx.Date) == 0 {
			conflict := domainerror.NewConflictError(
				domainerror.ErrCodeOccurrenceAlreadyLinked,
				"occurrence date is already confirmed by another transaction",
				domainerror.ErrOccurrenceAlreadyLinked,
			)
			slog.Warn("Link skipped",
				"pattern_id", pattern.ID,
				"transaction_id", tx.ID,
				"linked_transaction_id", *occ.BankTransactionID,
				"error", conflict,
			)
			output.Status = LinkStatusAlreadyLinked
			output.Occurrence = occ
			return output, nil
		}
	}

	output.Occurrence = s.linkTransaction(pattern.ID, tx, uc.config.DateWindowDays)
	tx.LinkToPattern(pattern.ID, input.Source)
	s.changes.TouchTransaction(tx)

	// An explicit link lifts an earlier unlink.
	included := pattern.Include(tx.ID)
	if refreshBaseAmount(pattern, s.live, uc.config.DriftSampleSize) || included {
		s.changes.UpdatePattern = pattern
	}

	if err := uc.patternRepo.ApplyChanges(ctx, s.changes); err != nil {
		return nil, err
	}

	slog.Info("Transaction linked to bill pattern",
		"pattern_id", pattern.ID,
		"transaction_id", tx.ID,
		"occurrence_id", output.Occurrence.ID,
		"source", input.Source,
	)

	output.Status = LinkStatusLinked
	return output, nil
}
