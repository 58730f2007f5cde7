package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// OccurrenceStatus is the payment state of an occurrence.
type OccurrenceStatus string

const (
	OccurrenceStatusPending OccurrenceStatus = "pending"
	OccurrenceStatusPaid    OccurrenceStatus = "paid"
	OccurrenceStatusSkipped OccurrenceStatus = "skipped"
)

// Occurrence is one expected or confirmed instance of a bill pattern on a calendar date.
// At most one occurrence exists per (BillPatternID, DueDate); a linked one is authoritative.
type Occurrence struct {
	ID                uuid.UUID
	BillPatternID     uuid.UUID
	DueDate           time.Time
	Amount            decimal.Decimal
	Status            OccurrenceStatus
	BankTransactionID *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPlaceholderOccurrence creates an unlinked pending occurrence.
func NewPlaceholderOccurrence(patternID uuid.UUID, dueDate time.Time, amount decimal.Decimal) *Occurrence {
	now := time.Now().UTC()
	return &Occurrence{
		ID:            uuid.New(),
		BillPatternID: patternID,
		DueDate:       valueobject.CalendarDate(dueDate),
		Amount:        amount,
		Status:        OccurrenceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewLinkedOccurrence creates a paid occurrence confirmed by a bank transaction.
func NewLinkedOccurrence(patternID uuid.UUID, tx *Transaction) *Occurrence {
	o := NewPlaceholderOccurrence(patternID, tx.Date, tx.Amount)
	o.Link(tx)
	return o
}

// IsLinked reports whether a bank transaction confirms the occurrence.
func (o *Occurrence) IsLinked() bool {
	return o.BankTransactionID != nil
}

// IsLinkedTo reports whether the occurrence is confirmed by the given transaction.
func (o *Occurrence) IsLinkedTo(transactionID uuid.UUID) bool {
	return o.BankTransactionID != nil && *o.BankTransactionID == transactionID
}

// Link attaches a bank transaction and marks the occurrence as paid.
func (o *Occurrence) Link(tx *Transaction) {
	id := tx.ID
	o.BankTransactionID = &id
	o.Amount = tx.Amount
	o.Status = OccurrenceStatusPaid
	o.UpdatedAt = time.Now().UTC()
}

// Unlink reverts the occurrence to a pending placeholder at the given amount.
func (o *Occurrence) Unlink(amount decimal.Decimal) {
	o.BankTransactionID = nil
	o.Amount = amount
	o.Status = OccurrenceStatusPending
	o.UpdatedAt = time.Now().UTC()
}
