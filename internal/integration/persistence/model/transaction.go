// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// TransactionModel represents the transactions table in the database.
// Rows are written by ingestion; this service only updates the classification columns.
type TransactionModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date        time.Time       `gorm:"type:date;not null;index"`
	Description string          `gorm:"type:varchar(255);not null"`
	Merchant    *string         `gorm:"type:varchar(255)"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"` // Soft-delete support

	// Classification fields
	SecondaryType        string     `gorm:"type:varchar(20);not null;default:''"`
	BillPatternID        *uuid.UUID `gorm:"type:uuid;index"`
	ClassificationSource string     `gorm:"type:varchar(20);not null;default:''"`
}

// TableName returns the table name for the TransactionModel.
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts a TransactionModel to a domain Transaction entity.
func (m *TransactionModel) ToEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:                   m.ID,
		UserID:               m.UserID,
		Date:                 m.Date,
		Description:          m.Description,
		Merchant:             m.Merchant,
		Amount:               m.Amount,
		CategoryID:           m.CategoryID,
		SecondaryType:        entity.SecondaryType(m.SecondaryType),
		BillPatternID:        m.BillPatternID,
		ClassificationSource: entity.ClassificationSource(m.ClassificationSource),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// TransactionFromEntity creates a TransactionModel from a domain Transaction entity.
func TransactionFromEntity(transaction *entity.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:                   transaction.ID,
		UserID:               transaction.UserID,
		Date:                 transaction.Date,
		Description:          transaction.Description,
		Merchant:             transaction.Merchant,
		Amount:               transaction.Amount,
		CategoryID:           transaction.CategoryID,
		SecondaryType:        string(transaction.SecondaryType),
		BillPatternID:        transaction.BillPatternID,
		ClassificationSource: string(transaction.ClassificationSource),
		CreatedAt:            transaction.CreatedAt,
		UpdatedAt:            transaction.UpdatedAt,
	}
}

// ClassificationColumns returns the column values this service is allowed to write.
func ClassificationColumns(transaction *entity.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"secondary_type":        string(transaction.SecondaryType),
		"bill_pattern_id":       transaction.BillPatternID,
		"classification_source": string(transaction.ClassificationSource),
		"category_id":           transaction.CategoryID,
		"updated_at":            time.Now().UTC(),
	}
}
