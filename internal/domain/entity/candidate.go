package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// CandidatePattern is a detected, not yet persisted, recurring pattern.
type CandidatePattern struct {
	MerchantKey    string
	Name           string
	Frequency      valueobject.Frequency
	BaseAmount     decimal.Decimal
	StartDate      time.Time
	CategoryID     *uuid.UUID
	Confidence     float64
	ReviewStatus   valueobject.ReviewStatus
	TransactionIDs []uuid.UUID
	Stats          DetectionStats

	// Set when the merchant key already has a persisted pattern.
	AlreadyTracked    bool
	ExistingPatternID *uuid.UUID
}

// ScoreBreakdown holds the weighted components of a match score.
type ScoreBreakdown struct {
	Text       float64
	Amount     float64
	Category   float64
	Recurrence float64
}

// MatchCandidate is a scored pairing of an unlinked transaction with a pattern.
type MatchCandidate struct {
	Transaction *Transaction
	Pattern     *BillPattern
	Score       float64
	Breakdown   ScoreBreakdown
}
