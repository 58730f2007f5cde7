// Package entity defines the core business entities for the domain layer.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// SecondaryType is the persisted bill / one-time marker of a transaction.
type SecondaryType string

const (
	SecondaryTypeNone    SecondaryType = ""
	SecondaryTypeBill    SecondaryType = "bill"
	SecondaryTypeOneTime SecondaryType = "one-time expense"
)

// IsValid checks if the secondary type is a known value.
func (s SecondaryType) IsValid() bool {
	switch s {
	case SecondaryTypeNone, SecondaryTypeBill, SecondaryTypeOneTime:
		return true
	}
	return false
}

// ClassificationSource records which mechanism last set a transaction's classification.
type ClassificationSource string

const (
	SourceNone            ClassificationSource = ""
	SourceAI              ClassificationSource = "ai"
	SourceHeuristic       ClassificationSource = "heuristic"
	SourcePatternCreation ClassificationSource = "pattern-creation"
	SourceUser            ClassificationSource = "user"
)

// IsValid checks if the source is a known value.
func (s ClassificationSource) IsValid() bool {
	switch s {
	case SourceNone, SourceAI, SourceHeuristic, SourcePatternCreation, SourceUser:
		return true
	}
	return false
}

// Priority ranks sources: user > pattern link > heuristic > ai.
func (s ClassificationSource) Priority() int {
	switch s {
	case SourceUser:
		return 4
	case SourcePatternCreation:
		return 3
	case SourceHeuristic:
		return 2
	case SourceAI:
		return 1
	}
	return 0
}

// CanOverride reports whether a classification from s may replace one set by existing.
func (s ClassificationSource) CanOverride(existing ClassificationSource) bool {
	return s.Priority() >= existing.Priority()
}

// Transaction is a bank money movement owned by the ingestion subsystem.
// Only the classification fields are written by this service.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	Description string
	Merchant    *string
	Amount      decimal.Decimal // Negative for expenses, positive for income
	CategoryID  *uuid.UUID

	SecondaryType        SecondaryType
	BillPatternID        *uuid.UUID
	ClassificationSource ClassificationSource

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpense reports whether money left the account.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// MerchantKey returns the normalized grouping key of the transaction.
func (t *Transaction) MerchantKey() valueobject.MerchantKey {
	return valueobject.NormalizeMerchant(t.Description, t.Merchant)
}

// Text returns merchant and description joined, for keyword matching.
func (t *Transaction) Text() string {
	if t.Merchant == nil || *t.Merchant == "" {
		return t.Description
	}
	return strings.TrimSpace(*t.Merchant + " " + t.Description)
}

// IsUserClassified reports whether the user explicitly classified the transaction.
func (t *Transaction) IsUserClassified() bool {
	return t.ClassificationSource == SourceUser && t.SecondaryType != SecondaryTypeNone
}

// IsUserOneTime reports whether the user explicitly marked the transaction as a one-time expense.
func (t *Transaction) IsUserOneTime() bool {
	return t.ClassificationSource == SourceUser && t.SecondaryType == SecondaryTypeOneTime
}

// IsLinkedTo reports whether the transaction belongs to the given pattern.
func (t *Transaction) IsLinkedTo(patternID uuid.UUID) bool {
	return t.BillPatternID != nil && *t.BillPatternID == patternID
}

// LinkToPattern marks the transaction as a bill of the given pattern.
// A user classification keeps its source.
func (t *Transaction) LinkToPattern(patternID uuid.UUID, source ClassificationSource) {
	id := patternID
	t.BillPatternID = &id
	t.SecondaryType = SecondaryTypeBill
	if !t.IsUserClassified() || source == SourceUser {
		t.ClassificationSource = source
	}
}

// Unlink detaches the transaction from its pattern. A pattern-sourced bill
// classification is cleared so it can be re-evaluated.
func (t *Transaction) Unlink() {
	t.BillPatternID = nil
	if t.ClassificationSource == SourcePatternCreation {
		t.SecondaryType = SecondaryTypeNone
		t.ClassificationSource = SourceNone
	}
}
