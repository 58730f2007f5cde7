package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// BillPatternModel represents the bill_patterns table in the database.
type BillPatternModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name                 string          `gorm:"type:varchar(255);not null"`
	MerchantKey          string          `gorm:"type:varchar(255);not null;index"`
	Frequency            string          `gorm:"type:varchar(12);not null"`
	BaseAmount           decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	StartDate            time.Time       `gorm:"type:date;not null"`
	CategoryID           *uuid.UUID      `gorm:"type:uuid;index"`
	Confidence           float64         `gorm:"not null;default:0"`
	SourceTransactionIDs   pq.StringArray `gorm:"type:text[]"`
	ExcludedTransactionIDs pq.StringArray `gorm:"type:text[]"`
	DetectionStats         datatypes.JSON
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
}

// TableName returns the table name for the BillPatternModel.
func (BillPatternModel) TableName() string {
	return "bill_patterns"
}

// ToEntity converts a BillPatternModel to a domain BillPattern entity.
func (m *BillPatternModel) ToEntity() *entity.BillPattern {
	pattern := &entity.BillPattern{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		MerchantKey: m.MerchantKey,
		Frequency:   valueobject.Frequency(m.Frequency),
		BaseAmount:  m.BaseAmount,
		StartDate:   valueobject.CalendarDate(m.StartDate),
		CategoryID:  m.CategoryID,
		Confidence:  m.Confidence,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	pattern.SourceTransactionIDs = parseIDs(m.SourceTransactionIDs)
	pattern.ExcludedTransactionIDs = parseIDs(m.ExcludedTransactionIDs)

	if len(m.DetectionStats) > 0 {
		var stats entity.DetectionStats
		if err := json.Unmarshal(m.DetectionStats, &stats); err == nil {
			pattern.DetectionStats = &stats
		}
	}

	return pattern
}

// BillPatternFromEntity creates a BillPatternModel from a domain BillPattern entity.
func BillPatternFromEntity(pattern *entity.BillPattern) *BillPatternModel {
	m := &BillPatternModel{
		ID:          pattern.ID,
		UserID:      pattern.UserID,
		Name:        pattern.Name,
		MerchantKey: pattern.MerchantKey,
		Frequency:   string(pattern.Frequency),
		BaseAmount:  pattern.BaseAmount,
		StartDate:   valueobject.CalendarDate(pattern.StartDate),
		CategoryID:  pattern.CategoryID,
		Confidence:  pattern.Confidence,
		CreatedAt:   pattern.CreatedAt,
		UpdatedAt:   pattern.UpdatedAt,
	}

	m.SourceTransactionIDs = formatIDs(pattern.SourceTransactionIDs)
	m.ExcludedTransactionIDs = formatIDs(pattern.ExcludedTransactionIDs)

	if pattern.DetectionStats != nil {
		if raw, err := json.Marshal(pattern.DetectionStats); err == nil {
			m.DetectionStats = datatypes.JSON(raw)
		}
	}

	return m
}

func parseIDs(raw pq.StringArray) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func formatIDs(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
