package classification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

const defaultPropagationParallelism = 4

// PropagateInput represents the input for classification propagation.
type PropagateInput struct {
	UserID    uuid.UUID
	PatternID *uuid.UUID // Optional, defaults to every pattern of the user
}

// PatternPropagationResult reports the outcome for one pattern.
type PatternPropagationResult struct {
	PatternID uuid.UUID
	Updated   int
	Detached  int
	Err       error
}

// PropagateOutput represents the result of propagation.
type PropagateOutput struct {
	Results  []PatternPropagationResult
	Updated  int
	Detached int
}

// PropagateUseCase keeps transaction classifications aligned with pattern membership.
// Patterns are processed in parallel; work inside a pattern is sequential and idempotent.
type PropagateUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	locker          adapter.PatternLocker
	parallelism     int
}

// NewPropagateUseCase creates a new PropagateUseCase instance.
func NewPropagateUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
) *PropagateUseCase {
	return &PropagateUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		locker:          locker,
		parallelism:     defaultPropagationParallelism,
	}
}

// Execute propagates classifications for one pattern or all patterns of a user.
func (uc *PropagateUseCase) Execute(ctx context.Context, input PropagateInput) (*PropagateOutput, error) {
	var patterns []*entity.BillPattern
	if input.PatternID != nil {
		pattern, err := uc.patternRepo.FindByID(ctx, *input.PatternID, input.UserID)
		if err != nil {
			return nil, err
		}
		patterns = []*entity.BillPattern{pattern}
	} else {
		found, err := uc.patternRepo.FindByUserID(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		patterns = found
	}

	results := make([]PatternPropagationResult, len(patterns))

	var g errgroup.Group
	g.SetLimit(uc.parallelism)
	for i, pattern := range patterns {
		g.Go(func() error {
			results[i] = uc.PropagatePattern(ctx, pattern)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output := &PropagateOutput{Results: results}
	for _, r := range results {
		output.Updated += r.Updated
		output.Detached += r.Detached
		if r.Err != nil {
			slog.Error("Classification propagation failed",
				"user_id", input.UserID,
				"pattern_id", r.PatternID,
				"error", r.Err,
			)
		}
	}
	return output, nil
}

// PropagatePattern aligns every transaction of one pattern under the pattern lock.
func (uc *PropagateUseCase) PropagatePattern(ctx context.Context, pattern *entity.BillPattern) PatternPropagationResult {
	result := PatternPropagationResult{PatternID: pattern.ID}

	unlock, err := uc.locker.Lock(ctx, pattern.ID)
	if err != nil {
		result.Err = err
		return result
	}
	defer unlock()

	changes, updated, detached, err := uc.plan(ctx, pattern)
	if err != nil {
		result.Err = err
		return result
	}
	if changes.IsEmpty() {
		return result
	}

	if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
		result.Err = err
		return result
	}

	result.Updated = updated
	result.Detached = detached
	return result
}

func (uc *PropagateUseCase) plan(ctx context.Context, pattern *entity.BillPattern) (*adapter.PatternChangeSet, int, int, error) {
	changes := adapter.NewPatternChangeSet(pattern.ID)

	transactions, err := uc.transactionRepo.FindByPatternID(ctx, pattern.ID)
	if err != nil {
		return nil, 0, 0, err
	}
	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, 0, 0, err
	}

	// Linked occurrences whose transaction lost its back-reference
	known := make(map[uuid.UUID]struct{}, len(transactions))
	for _, tx := range transactions {
		known[tx.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, occ := range occurrences {
		if !occ.IsLinked() {
			continue
		}
		if _, ok := known[*occ.BankTransactionID]; !ok {
			missing = append(missing, *occ.BankTransactionID)
		}
	}
	if len(missing) > 0 {
		extra, err := uc.transactionRepo.FindByIDs(ctx, pattern.UserID, missing)
		if err != nil {
			return nil, 0, 0, err
		}
		for _, tx := range extra {
			if tx.BillPatternID != nil && *tx.BillPatternID != pattern.ID {
				slog.Warn("Linked transaction points at another pattern",
					"pattern_id", pattern.ID,
					"transaction_id", tx.ID,
					"other_pattern_id", *tx.BillPatternID,
				)
				continue
			}
			transactions = append(transactions, tx)
		}
	}

	updated, detached := 0, 0
	for _, tx := range transactions {
		if tx.IsUserOneTime() {
			Detach(pattern, occurrences, tx, changes)
			detached++
			continue
		}

		needsLink := !tx.IsLinkedTo(pattern.ID) ||
			tx.SecondaryType != entity.SecondaryTypeBill ||
			(!tx.IsUserClassified() && tx.ClassificationSource != entity.SourcePatternCreation)
		if needsLink {
			tx.LinkToPattern(pattern.ID, entity.SourcePatternCreation)
			changes.TouchTransaction(tx)
			updated++
		}
	}

	return changes, updated, detached, nil
}
