// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/integration/persistence/model"
)

// transactionRepository implements the adapter.TransactionRepository interface.
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance.
func NewTransactionRepository(db *gorm.DB) adapter.TransactionRepository {
	return &transactionRepository{
		db: db,
	}
}

// Create creates a new transaction in the database.
func (r *transactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	transactionModel := model.TransactionFromEntity(transaction)
	result := r.db.WithContext(ctx).Create(transactionModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByID retrieves a transaction owned by the user.
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&transactionModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewNotFoundError(
				domainerror.ErrCodeTransactionNotFound,
				"transaction not found",
				domainerror.ErrTransactionNotFound,
			)
		}
		return nil, result.Error
	}
	return transactionModel.ToEntity(), nil
}

// FindByIDs retrieves the user's transactions with the given IDs.
func (r *transactionRepository) FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entity.Transaction, error) {
	if len(ids) == 0 {
		return []*entity.Transaction{}, nil
	}

	var transactionModels []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("date ASC, created_at ASC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}
	return toTransactionEntities(transactionModels), nil
}

// FindByUser retrieves all transactions for a given user.
func (r *transactionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC, created_at ASC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}
	return toTransactionEntities(transactionModels), nil
}

// FindByPatternID retrieves all transactions pointing at a bill pattern.
func (r *transactionRepository) FindByPatternID(ctx context.Context, patternID uuid.UUID) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("bill_pattern_id = ?", patternID).
		Order("date ASC, created_at ASC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}
	return toTransactionEntities(transactionModels), nil
}

// FindUnlinkedExpenses retrieves the user's expenses that belong to no pattern.
func (r *transactionRepository) FindUnlinkedExpenses(ctx context.Context, userID uuid.UUID) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND bill_pattern_id IS NULL AND amount < 0", userID).
		Order("date ASC, created_at ASC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}
	return toTransactionEntities(transactionModels), nil
}

// UpdateClassifications writes the classification columns of the given transactions atomically.
func (r *transactionRepository) UpdateClassifications(ctx context.Context, transactions []*entity.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	// Use transaction to ensure atomicity
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writeClassifications(tx, transactions)
	})
}

// ListUserIDs returns every user that owns transactions.
func (r *transactionRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	result := r.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &userIDs)
	if result.Error != nil {
		return nil, result.Error
	}
	return userIDs, nil
}

// writeClassifications updates only the columns this service owns.
func writeClassifications(tx *gorm.DB, transactions []*entity.Transaction) error {
	for _, transaction := range transactions {
		result := tx.Model(&model.TransactionModel{}).
			Where("id = ? AND user_id = ?", transaction.ID, transaction.UserID).
			Updates(model.ClassificationColumns(transaction))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.NewNotFoundError(
				domainerror.ErrCodeTransactionNotFound,
				"transaction not found",
				domainerror.ErrTransactionNotFound,
			)
		}
	}
	return nil
}

func toTransactionEntities(models []model.TransactionModel) []*entity.Transaction {
	transactions := make([]*entity.Transaction, len(models))
	for i := range models {
		transactions[i] = models[i].ToEntity()
	}
	return transactions
}
