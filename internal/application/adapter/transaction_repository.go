// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// TransactionRepository defines the interface for transaction persistence operations.
// Transactions are owned by the ingestion subsystem; only classification fields are written here.
type TransactionRepository interface {
	// Create stores a transaction. Used by ingestion tooling and fixtures.
	Create(ctx context.Context, transaction *entity.Transaction) error

	// FindByID retrieves a transaction owned by the user.
	FindByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.Transaction, error)

	// FindByIDs retrieves the user's transactions with the given IDs. Missing IDs are skipped.
	FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entity.Transaction, error)

	// FindByUser retrieves all transactions of a user ordered by date.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Transaction, error)

	// FindByPatternID retrieves all transactions pointing at a bill pattern.
	FindByPatternID(ctx context.Context, patternID uuid.UUID) ([]*entity.Transaction, error)

	// FindUnlinkedExpenses retrieves the user's expenses that belong to no pattern.
	FindUnlinkedExpenses(ctx context.Context, userID uuid.UUID) ([]*entity.Transaction, error)

	// UpdateClassifications writes the classification fields and category of the given transactions atomically.
	UpdateClassifications(ctx context.Context, transactions []*entity.Transaction) error

	// ListUserIDs returns every user that owns transactions.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}
