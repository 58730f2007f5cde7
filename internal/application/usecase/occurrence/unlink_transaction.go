package occurrence

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
)

// UnlinkTransactionInput represents the input for unlinking a transaction from a pattern.
type UnlinkTransactionInput struct {
	UserID        uuid.UUID
	PatternID     uuid.UUID
	TransactionID uuid.UUID
}

// UnlinkTransactionOutput represents the result of an unlink.
type UnlinkTransactionOutput struct {
	Transaction *entity.Transaction
}

// UnlinkTransactionUseCase reverts a confirmed occurrence to a placeholder and
// excludes the transaction from later scheduling passes of the pattern.
type UnlinkTransactionUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	locker          adapter.PatternLocker
	cache           adapter.CandidateCache
}

// NewUnlinkTransactionUseCase creates a new UnlinkTransactionUseCase instance.
func NewUnlinkTransactionUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
	cache adapter.CandidateCache,
) *UnlinkTransactionUseCase {
	return &UnlinkTransactionUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		locker:          locker,
		cache:           cache,
	}
}

// Execute unlinks the transaction.
func (uc *UnlinkTransactionUseCase) Execute(ctx context.Context, input UnlinkTransactionInput) (*UnlinkTransactionOutput, error) {
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

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}

	linked := tx.IsLinkedTo(pattern.ID)
	for _, occ := range occurrences {
		if occ.IsLinkedTo(tx.ID) {
			linked = true
			break
		}
	}
	if !linked {
		return nil, domainerror.NewNotFoundError(
			domainerror.ErrCodeOccurrenceNotFound,
			"transaction is not linked to this bill pattern",
			domainerror.ErrOccurrenceNotFound,
		)
	}

	changes := adapter.NewPatternChangeSet(pattern.ID)
	classification.Detach(pattern, occurrences, tx, changes)
	if pattern.Exclude(tx.ID) {
		changes.UpdatePattern = pattern
	}

	if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
		return nil, err
	}

	if err := uc.cache.Invalidate(ctx, input.UserID); err != nil {
		slog.Warn("Candidate cache invalidation failed", "user_id", input.UserID, "error", err)
	}

	slog.Info("Transaction unlinked from bill pattern",
		"pattern_id", pattern.ID,
		"transaction_id", tx.ID,
	)

	return &UnlinkTransactionOutput{Transaction: tx}, nil
}
