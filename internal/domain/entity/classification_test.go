package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

func newTransaction(description string) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Date:        time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      decimal.RequireFromString("-12.99"),
	}
}

func TestClassify(t *testing.T) {
	policy := valueobject.DefaultBillKeywordPolicy()
	patternID := uuid.New()

	t.Run("user choice wins over keywords", func(t *testing.T) {
		tx := newTransaction("Netflix subscription")
		tx.SecondaryType = SecondaryTypeOneTime
		tx.ClassificationSource = SourceUser

		c := Classify(tx, policy)
		assert.Equal(t, ClassificationOneTime, c.Kind)
		assert.Equal(t, SourceUser, c.Source)
	})

	t.Run("user bill keeps pattern", func(t *testing.T) {
		tx := newTransaction("Corner shop")
		tx.LinkToPattern(patternID, SourceUser)

		c := Classify(tx, policy)
		assert.True(t, c.IsBill())
		assert.Equal(t, &patternID, c.PatternID)
		assert.Equal(t, SourceUser, c.Source)
	})

	t.Run("pattern link wins over heuristic", func(t *testing.T) {
		tx := newTransaction("Corner shop")
		tx.LinkToPattern(patternID, SourcePatternCreation)

		c := Classify(tx, policy)
		assert.True(t, c.IsBill())
		assert.Equal(t, SourcePatternCreation, c.Source)
	})

	t.Run("keyword heuristic", func(t *testing.T) {
		c := Classify(newTransaction("Spotify monthly"), policy)
		assert.True(t, c.IsBill())
		assert.Nil(t, c.PatternID)
		assert.Equal(t, SourceHeuristic, c.Source)
	})

	t.Run("stored ai classification", func(t *testing.T) {
		tx := newTransaction("Corner shop")
		tx.SecondaryType = SecondaryTypeOneTime
		tx.ClassificationSource = SourceAI

		c := Classify(tx, policy)
		assert.Equal(t, ClassificationOneTime, c.Kind)
		assert.Equal(t, SourceAI, c.Source)
	})

	t.Run("nothing known", func(t *testing.T) {
		c := Classify(newTransaction("Corner shop"), policy)
		assert.Equal(t, Unclassified(), c)
		assert.Equal(t, SecondaryTypeNone, c.SecondaryType())
	})
}

func TestIsBill(t *testing.T) {
	policy := valueobject.DefaultBillKeywordPolicy()

	linked := newTransaction("Corner shop")
	linked.LinkToPattern(uuid.New(), SourcePatternCreation)
	assert.True(t, IsBill(linked, policy))

	userOneTime := newTransaction("Annual subscription")
	userOneTime.SecondaryType = SecondaryTypeOneTime
	userOneTime.ClassificationSource = SourceUser
	assert.False(t, IsBill(userOneTime, policy))

	aiOneTime := newTransaction("Gym monthly membership")
	aiOneTime.SecondaryType = SecondaryTypeOneTime
	aiOneTime.ClassificationSource = SourceAI
	assert.Equal(t, ClassificationBill, Classify(aiOneTime, policy).Kind)
	assert.True(t, IsBill(aiOneTime, policy))

	plainOneTime := newTransaction("Bookshop")
	plainOneTime.SecondaryType = SecondaryTypeOneTime
	plainOneTime.ClassificationSource = SourceAI
	assert.False(t, IsBill(plainOneTime, policy))

	assert.True(t, IsBill(newTransaction("Water bill"), policy))
	assert.False(t, IsBill(newTransaction("Water bill"), nil))
}

func TestClassificationSource_CanOverride(t *testing.T) {
	assert.True(t, SourceUser.CanOverride(SourcePatternCreation))
	assert.True(t, SourcePatternCreation.CanOverride(SourceHeuristic))
	assert.True(t, SourceHeuristic.CanOverride(SourceAI))
	assert.True(t, SourceAI.CanOverride(SourceAI))
	assert.False(t, SourceAI.CanOverride(SourceHeuristic))
	assert.False(t, SourcePatternCreation.CanOverride(SourceUser))
}

func TestTransaction_LinkAndUnlink(t *testing.T) {
	patternID := uuid.New()

	t.Run("pattern link is cleared on unlink", func(t *testing.T) {
		tx := newTransaction("Gym")
		tx.LinkToPattern(patternID, SourcePatternCreation)
		assert.True(t, tx.IsLinkedTo(patternID))

		tx.Unlink()
		assert.Nil(t, tx.BillPatternID)
		assert.Equal(t, SecondaryTypeNone, tx.SecondaryType)
		assert.Equal(t, SourceNone, tx.ClassificationSource)
	})

	t.Run("user bill keeps its source when linked by the system", func(t *testing.T) {
		tx := newTransaction("Gym")
		tx.SecondaryType = SecondaryTypeBill
		tx.ClassificationSource = SourceUser

		tx.LinkToPattern(patternID, SourcePatternCreation)
		assert.Equal(t, SourceUser, tx.ClassificationSource)

		tx.Unlink()
		assert.Equal(t, SecondaryTypeBill, tx.SecondaryType)
		assert.Equal(t, SourceUser, tx.ClassificationSource)
	})
}

func TestOccurrence_LinkAndUnlink(t *testing.T) {
	tx := newTransaction("Gym")
	occ := NewLinkedOccurrence(uuid.New(), tx)

	assert.True(t, occ.IsLinkedTo(tx.ID))
	assert.Equal(t, OccurrenceStatusPaid, occ.Status)
	assert.True(t, tx.Amount.Equal(occ.Amount))

	occ.Unlink(decimal.RequireFromString("-10"))
	assert.False(t, occ.IsLinked())
	assert.Equal(t, OccurrenceStatusPending, occ.Status)
	assert.Equal(t, "-10", occ.Amount.String())
}
