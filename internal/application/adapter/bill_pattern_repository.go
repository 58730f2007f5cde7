package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// PatternChangeSet is the set of writes applied for one pattern inside a single database transaction.
// Use cases plan a change set while holding the pattern lock; the repository applies it and re-checks
// the one-occurrence-per-date rule and that no confirmed occurrence is lost.
type PatternChangeSet struct {
	PatternID uuid.UUID

	// MergeIntoID is set when occurrences move to another pattern.
	MergeIntoID *uuid.UUID

	CreatePattern *entity.BillPattern
	UpdatePattern *entity.BillPattern
	DeletePattern bool

	CreateOccurrences []*entity.Occurrence
	UpdateOccurrences []*entity.Occurrence
	DeleteOccurrences []*entity.Occurrence

	// AllowLinkedDeletion permits deleting linked occurrences (explicit cascade).
	AllowLinkedDeletion bool

	// Transactions whose classification fields must be written.
	Transactions []*entity.Transaction
}

// NewPatternChangeSet creates an empty change set for a pattern.
func NewPatternChangeSet(patternID uuid.UUID) *PatternChangeSet {
	return &PatternChangeSet{PatternID: patternID}
}

// IsEmpty reports whether the change set has nothing to write.
func (c *PatternChangeSet) IsEmpty() bool {
	return c.CreatePattern == nil &&
		c.UpdatePattern == nil &&
		!c.DeletePattern &&
		len(c.CreateOccurrences) == 0 &&
		len(c.UpdateOccurrences) == 0 &&
		len(c.DeleteOccurrences) == 0 &&
		len(c.Transactions) == 0
}

// TouchTransaction records a transaction write once.
func (c *PatternChangeSet) TouchTransaction(tx *entity.Transaction) {
	for _, existing := range c.Transactions {
		if existing.ID == tx.ID {
			return
		}
	}
	c.Transactions = append(c.Transactions, tx)
}

// BillPatternRepository defines the interface for bill pattern and occurrence persistence.
type BillPatternRepository interface {
	// FindByID retrieves a pattern owned by the user.
	FindByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.BillPattern, error)

	// FindByUserID retrieves all patterns of a user ordered by name.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.BillPattern, error)

	// FindOccurrences retrieves a pattern's occurrences ordered by due date, then creation time.
	FindOccurrences(ctx context.Context, patternID uuid.UUID) ([]*entity.Occurrence, error)

	// ApplyChanges applies a change set atomically.
	ApplyChanges(ctx context.Context, changes *PatternChangeSet) error
}
