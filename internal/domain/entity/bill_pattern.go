package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// BillPattern is a recurring payment obligation tracked for a user.
type BillPattern struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	MerchantKey string
	Frequency   valueobject.Frequency
	BaseAmount  decimal.Decimal // Signed like the transactions it tracks
	StartDate   time.Time
	CategoryID  *uuid.UUID
	Confidence  float64

	SourceTransactionIDs []uuid.UUID
	DetectionStats       *DetectionStats

	// ExcludedTransactionIDs were unlinked by the user; scheduling never links them again.
	ExcludedTransactionIDs []uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DetectionStats keeps the statistics a pattern was detected with, for audit.
type DetectionStats struct {
	IntervalMedianDays    float64     `json:"interval_median_days"`
	IntervalCV            float64     `json:"interval_cv"`
	InBandRatio           float64     `json:"in_band_ratio"`
	AmountConsistency     float64     `json:"amount_consistency"`
	SampleSize            int         `json:"sample_size"`
	OutlierTransactionIDs []uuid.UUID `json:"outlier_transaction_ids,omitempty"`
}

// NewBillPattern creates a new BillPattern entity.
func NewBillPattern(
	userID uuid.UUID,
	name string,
	merchantKey string,
	frequency valueobject.Frequency,
	baseAmount decimal.Decimal,
	startDate time.Time,
	categoryID *uuid.UUID,
	confidence float64,
) *BillPattern {
	now := time.Now().UTC()
	return &BillPattern{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		MerchantKey: merchantKey,
		Frequency:   frequency,
		BaseAmount:  baseAmount,
		StartDate:   valueobject.CalendarDate(startDate),
		CategoryID:  categoryID,
		Confidence:  confidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Excludes reports whether the user unlinked the transaction from this pattern.
func (p *BillPattern) Excludes(transactionID uuid.UUID) bool {
	for _, id := range p.ExcludedTransactionIDs {
		if id == transactionID {
			return true
		}
	}
	return false
}

// Exclude records that the user unlinked the transaction. It reports whether the list changed.
func (p *BillPattern) Exclude(transactionID uuid.UUID) bool {
	if p.Excludes(transactionID) {
		return false
	}
	p.ExcludedTransactionIDs = append(p.ExcludedTransactionIDs, transactionID)
	p.UpdatedAt = time.Now().UTC()
	return true
}

// Include lifts an exclusion, used when the user links the transaction explicitly.
// It reports whether the list changed.
func (p *BillPattern) Include(transactionID uuid.UUID) bool {
	for i, id := range p.ExcludedTransactionIDs {
		if id == transactionID {
			p.ExcludedTransactionIDs = append(p.ExcludedTransactionIDs[:i], p.ExcludedTransactionIDs[i+1:]...)
			p.UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}
