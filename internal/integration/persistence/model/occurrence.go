package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// OccurrenceModel represents the bill_occurrences table in the database.
// Occurrences are hard-deleted; a deleted placeholder must not block its date.
type OccurrenceModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BillPatternID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	DueDate           time.Time       `gorm:"type:date;not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Status            string          `gorm:"type:varchar(10);not null;default:'pending'"`
	BankTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the OccurrenceModel.
func (OccurrenceModel) TableName() string {
	return "bill_occurrences"
}

// ToEntity converts an OccurrenceModel to a domain Occurrence entity.
func (m *OccurrenceModel) ToEntity() *entity.Occurrence {
	return &entity.Occurrence{
		ID:                m.ID,
		BillPatternID:     m.BillPatternID,
		DueDate:           valueobject.CalendarDate(m.DueDate),
		Amount:            m.Amount,
		Status:            entity.OccurrenceStatus(m.Status),
		BankTransactionID: m.BankTransactionID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// OccurrenceFromEntity creates an OccurrenceModel from a domain Occurrence entity.
func OccurrenceFromEntity(occurrence *entity.Occurrence) *OccurrenceModel {
	return &OccurrenceModel{
		ID:                occurrence.ID,
		BillPatternID:     occurrence.BillPatternID,
		DueDate:           valueobject.CalendarDate(occurrence.DueDate),
		Amount:            occurrence.Amount,
		Status:            string(occurrence.Status),
		BankTransactionID: occurrence.BankTransactionID,
		CreatedAt:         occurrence.CreatedAt,
		UpdatedAt:         occurrence.UpdatedAt,
	}
}

// All returns every model managed by this service, for migrations.
func All() []interface{} {
	return []interface{}{
		&TransactionModel{},
		&BillPatternModel{},
		&OccurrenceModel{},
	}
}
