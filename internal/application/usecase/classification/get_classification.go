package classification

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// GetClassificationInput represents the input for reading a transaction's classification.
type GetClassificationInput struct {
	UserID        uuid.UUID
	TransactionID uuid.UUID
}

// GetClassificationOutput represents the effective classification of a transaction.
type GetClassificationOutput struct {
	Transaction    *entity.Transaction
	Classification entity.Classification
	IsBill         bool
}

// GetClassificationUseCase answers "is this transaction a bill?".
type GetClassificationUseCase struct {
	transactionRepo adapter.TransactionRepository
	policy          valueobject.BillKeywordPolicy
}

// NewGetClassificationUseCase creates a new GetClassificationUseCase instance.
func NewGetClassificationUseCase(transactionRepo adapter.TransactionRepository, policy valueobject.BillKeywordPolicy) *GetClassificationUseCase {
	return &GetClassificationUseCase{
		transactionRepo: transactionRepo,
		policy:          policy,
	}
}

// Execute resolves the classification.
func (uc *GetClassificationUseCase) Execute(ctx context.Context, input GetClassificationInput) (*GetClassificationOutput, error) {
	tx, err := uc.transactionRepo.FindByID(ctx, input.TransactionID, input.UserID)
	if err != nil {
		return nil, err
	}

	return &GetClassificationOutput{
		Transaction:    tx,
		Classification: entity.Classify(tx, uc.policy),
		IsBill:         entity.IsBill(tx, uc.policy),
	}, nil
}
