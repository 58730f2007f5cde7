package detection

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// ClassifyRemainingInput represents the input for classifying leftover expenses.
type ClassifyRemainingInput struct {
	UserID uuid.UUID
}

// ClassifyRemainingOutput represents the result of classifying leftover expenses.
type ClassifyRemainingOutput struct {
	MarkedBill    int
	MarkedOneTime int
	Skipped       int
}

// ClassifyRemainingUseCase marks unlinked expenses that belong to no candidate.
// Keyword matches become heuristic bills; unclassified ones become one-time expenses.
type ClassifyRemainingUseCase struct {
	transactionRepo adapter.TransactionRepository
	detector        *Detector
	policy          valueobject.BillKeywordPolicy
}

// NewClassifyRemainingUseCase creates a new ClassifyRemainingUseCase instance.
func NewClassifyRemainingUseCase(
	transactionRepo adapter.TransactionRepository,
	detector *Detector,
	policy valueobject.BillKeywordPolicy,
) *ClassifyRemainingUseCase {
	return &ClassifyRemainingUseCase{
		transactionRepo: transactionRepo,
		detector:        detector,
		policy:          policy,
	}
}

// Execute performs the classification.
func (uc *ClassifyRemainingUseCase) Execute(ctx context.Context, input ClassifyRemainingInput) (*ClassifyRemainingOutput, error) {
	transactions, err := uc.transactionRepo.FindByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	valid, _ := validateTransactions(transactions)
	inCandidate := make(map[uuid.UUID]struct{})
	for _, candidate := range uc.detector.Detect(valid) {
		for _, id := range candidate.TransactionIDs {
			inCandidate[id] = struct{}{}
		}
	}

	output := &ClassifyRemainingOutput{}
	var updates []*entity.Transaction
	for _, tx := range transactions {
		if !tx.IsExpense() || tx.BillPatternID != nil || tx.IsUserClassified() {
			continue
		}
		if _, ok := inCandidate[tx.ID]; ok {
			output.Skipped++
			continue
		}

		switch {
		case uc.policy(tx.Text()):
			if tx.SecondaryType == entity.SecondaryTypeBill || !entity.SourceHeuristic.CanOverride(tx.ClassificationSource) {
				continue
			}
			tx.SecondaryType = entity.SecondaryTypeBill
			tx.ClassificationSource = entity.SourceHeuristic
			output.MarkedBill++
		case tx.SecondaryType == entity.SecondaryTypeNone:
			tx.SecondaryType = entity.SecondaryTypeOneTime
			tx.ClassificationSource = entity.SourceHeuristic
			output.MarkedOneTime++
		default:
			continue
		}
		updates = append(updates, tx)
	}

	if len(updates) > 0 {
		if err := uc.transactionRepo.UpdateClassifications(ctx, updates); err != nil {
			return nil, err
		}
	}

	slog.Info("Remaining expenses classified",
		"user_id", input.UserID,
		"bills", output.MarkedBill,
		"one_time", output.MarkedOneTime,
		"skipped", output.Skipped,
	)

	return output, nil
}
