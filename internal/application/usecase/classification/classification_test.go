package classification_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/adapters"
	"github.com/finance-tracker/recurring/internal/integration/persistence"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

type fixture struct {
	db           *mock.Db
	transactions adapter.TransactionRepository
	patterns     adapter.BillPatternRepository
	propagate    *classification.PropagateUseCase
	batch        *classification.BatchUpdateUseCase
	get          *classification.GetClassificationUseCase
	userID       uuid.UUID
	pattern      *entity.BillPattern
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := mock.NewTestDb(t)
	transactions := persistence.NewTransactionRepository(db.DbConn)
	patterns := persistence.NewBillPatternRepository(db.DbConn)
	locker := adapters.NewMemoryPatternLocker()

	userID := uuid.New()
	pattern := entity.NewBillPattern(userID, "Acme Energy", "acme energy", valueobject.FrequencyMonthly,
		decimal.RequireFromString("-80"), mock.Date(2024, 1, 15), nil, 0.9)
	db.SeedPattern(t, pattern)

	return &fixture{
		db:           db,
		transactions: transactions,
		patterns:     patterns,
		propagate:    classification.NewPropagateUseCase(transactions, patterns, locker),
		batch:        classification.NewBatchUpdateUseCase(transactions, patterns, locker),
		get:          classification.NewGetClassificationUseCase(transactions, valueobject.DefaultBillKeywordPolicy()),
		userID:       userID,
		pattern:      pattern,
	}
}

// linked stores a payment of the pattern with an occurrence confirmed by it.
func (f *fixture) linked(t *testing.T, month int, edit func(tx *entity.Transaction)) *entity.Transaction {
	t.Helper()

	tx := mock.Transaction(f.userID, "Acme Energy", "-80", mock.Date(2024, time.Month(month), 15))
	tx.LinkToPattern(f.pattern.ID, entity.SourcePatternCreation)
	if edit != nil {
		edit(tx)
	}
	f.db.SeedTransactions(t, tx)
	f.db.SeedOccurrences(t, entity.NewLinkedOccurrence(f.pattern.ID, tx))
	return tx
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *entity.Transaction {
	t.Helper()
	tx, err := f.transactions.FindByID(context.Background(), id, f.userID)
	require.NoError(t, err)
	return tx
}

func (f *fixture) occurrenceOf(t *testing.T, month int) *entity.Occurrence {
	t.Helper()
	occs, err := f.patterns.FindOccurrences(context.Background(), f.pattern.ID)
	require.NoError(t, err)
	for _, occ := range occs {
		if occ.DueDate.Equal(mock.Date(2024, time.Month(month), 15)) {
			return occ
		}
	}
	t.Fatalf("no occurrence in month %d", month)
	return nil
}

func TestPropagate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lostBackReference := f.linked(t, 1, func(tx *entity.Transaction) {
		tx.BillPatternID = nil
		tx.SecondaryType = entity.SecondaryTypeNone
		tx.ClassificationSource = entity.SourceNone
	})
	unclassified := f.linked(t, 2, func(tx *entity.Transaction) {
		tx.SecondaryType = entity.SecondaryTypeNone
		tx.ClassificationSource = entity.SourceAI
	})
	userOneTime := f.linked(t, 3, func(tx *entity.Transaction) {
		tx.SecondaryType = entity.SecondaryTypeOneTime
		tx.ClassificationSource = entity.SourceUser
	})
	userBill := f.linked(t, 4, func(tx *entity.Transaction) {
		tx.ClassificationSource = entity.SourceUser
	})

	output, err := f.propagate.Execute(ctx, classification.PropagateInput{UserID: f.userID})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Updated)
	assert.Equal(t, 1, output.Detached)
	require.Len(t, output.Results, 1)
	assert.NoError(t, output.Results[0].Err)

	for _, tx := range []*entity.Transaction{lostBackReference, unclassified} {
		stored := f.reload(t, tx.ID)
		assert.True(t, stored.IsLinkedTo(f.pattern.ID))
		assert.Equal(t, entity.SecondaryTypeBill, stored.SecondaryType)
		assert.Equal(t, entity.SourcePatternCreation, stored.ClassificationSource)
	}

	detached := f.reload(t, userOneTime.ID)
	assert.Nil(t, detached.BillPatternID)
	assert.Equal(t, entity.SecondaryTypeOneTime, detached.SecondaryType)
	assert.Equal(t, entity.SourceUser, detached.ClassificationSource)
	reverted := f.occurrenceOf(t, 3)
	assert.False(t, reverted.IsLinked())
	assert.Equal(t, entity.OccurrenceStatusPending, reverted.Status)
	assert.Equal(t, "-80", reverted.Amount.String())

	assert.Equal(t, entity.SourceUser, f.reload(t, userBill.ID).ClassificationSource)

	t.Run("a second run changes nothing", func(t *testing.T) {
		again, err := f.propagate.Execute(ctx, classification.PropagateInput{UserID: f.userID, PatternID: &f.pattern.ID})

		require.NoError(t, err)
		assert.Equal(t, 0, again.Updated)
		assert.Equal(t, 0, again.Detached)
	})

	t.Run("an unknown pattern is not found", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.propagate.Execute(ctx, classification.PropagateInput{UserID: f.userID, PatternID: &missing})

		assert.True(t, domainerror.IsNotFound(err))
	})
}

func TestPropagate_ManyPatternsInParallel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	keys := []string{"water board", "gas supply", "broadband", "phone plan", "car insurance", "gym"}
	var stale []*entity.Transaction
	for _, key := range keys {
		pattern := entity.NewBillPattern(f.userID, key, key, valueobject.FrequencyMonthly,
			decimal.RequireFromString("-40"), mock.Date(2024, 1, 10), nil, 0.9)
		f.db.SeedPattern(t, pattern)
		for month := 1; month <= 2; month++ {
			tx := mock.Transaction(f.userID, key, "-40", mock.Date(2024, time.Month(month), 10))
			tx.LinkToPattern(pattern.ID, entity.SourcePatternCreation)
			tx.SecondaryType = entity.SecondaryTypeNone
			tx.ClassificationSource = entity.SourceAI
			f.db.SeedTransactions(t, tx)
			f.db.SeedOccurrences(t, entity.NewLinkedOccurrence(pattern.ID, tx))
			stale = append(stale, tx)
		}
	}

	output, err := f.propagate.Execute(ctx, classification.PropagateInput{UserID: f.userID})

	require.NoError(t, err)
	require.Len(t, output.Results, len(keys)+1)
	for _, r := range output.Results {
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, len(stale), output.Updated)
	for _, tx := range stale {
		stored := f.reload(t, tx.ID)
		assert.Equal(t, entity.SecondaryTypeBill, stored.SecondaryType)
		assert.Equal(t, entity.SourcePatternCreation, stored.ClassificationSource)
	}
}

func TestBatchUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("a user one-time mark detaches the transaction from its pattern", func(t *testing.T) {
		f := newFixture(t)
		tx := f.linked(t, 2, nil)

		output, err := f.batch.Execute(ctx, classification.BatchUpdateInput{
			UserID: f.userID,
			Items:  []classification.BatchUpdateItem{{TransactionID: tx.ID, SecondaryType: "one-time expense"}},
		})

		require.NoError(t, err)
		assert.Equal(t, classification.OutcomeUpdated, output.Outcomes[0].Status)

		stored := f.reload(t, tx.ID)
		assert.Nil(t, stored.BillPatternID)
		assert.True(t, stored.IsUserOneTime())
		assert.False(t, f.occurrenceOf(t, 2).IsLinked())
	})

	t.Run("lower priority sources cannot override", func(t *testing.T) {
		f := newFixture(t)
		linked := f.linked(t, 1, nil)
		userMarked := mock.Transaction(f.userID, "Corner Shop", "-12", mock.Date(2024, 3, 2))
		userMarked.SecondaryType = entity.SecondaryTypeOneTime
		userMarked.ClassificationSource = entity.SourceUser
		f.db.SeedTransactions(t, userMarked)

		output, err := f.batch.Execute(ctx, classification.BatchUpdateInput{
			UserID: f.userID,
			Items: []classification.BatchUpdateItem{
				{TransactionID: linked.ID, SecondaryType: "one-time expense", ClassificationSource: "heuristic"},
				{TransactionID: userMarked.ID, SecondaryType: "bill", ClassificationSource: "ai"},
			},
		})

		require.NoError(t, err)
		for _, outcome := range output.Outcomes {
			assert.Equal(t, classification.OutcomeRejected, outcome.Status)
			assert.Equal(t, string(domainerror.ErrCodeLowerPrioritySource), outcome.Code)
		}
		assert.Equal(t, 2, output.Counts[classification.OutcomeRejected])
		assert.True(t, f.reload(t, linked.ID).IsLinkedTo(f.pattern.ID))
		assert.True(t, f.reload(t, userMarked.ID).IsUserOneTime())
	})

	t.Run("partial success reports every item", func(t *testing.T) {
		f := newFixture(t)
		plain := mock.Transaction(f.userID, "Hardware Store", "-45", mock.Date(2024, 3, 2))
		f.db.SeedTransactions(t, plain)
		categoryID := uuid.New()

		output, err := f.batch.Execute(ctx, classification.BatchUpdateInput{
			UserID: f.userID,
			Items: []classification.BatchUpdateItem{
				{TransactionID: plain.ID, SecondaryType: "bill", CategoryID: &categoryID},
				{TransactionID: plain.ID, SecondaryType: "bill", CategoryID: &categoryID},
				{TransactionID: uuid.New(), SecondaryType: "bill"},
				{TransactionID: plain.ID, SecondaryType: "sometimes"},
				{TransactionID: plain.ID, SecondaryType: "bill", ClassificationSource: "pattern-creation"},
			},
		})

		require.NoError(t, err)
		statuses := make([]classification.OutcomeStatus, len(output.Outcomes))
		for i, outcome := range output.Outcomes {
			statuses[i] = outcome.Status
		}
		assert.Equal(t, []classification.OutcomeStatus{
			classification.OutcomeUpdated,
			classification.OutcomeUnchanged,
			classification.OutcomeNotFound,
			classification.OutcomeInvalid,
			classification.OutcomeInvalid,
		}, statuses)

		stored := f.reload(t, plain.ID)
		assert.Equal(t, entity.SecondaryTypeBill, stored.SecondaryType)
		assert.Equal(t, entity.SourceUser, stored.ClassificationSource)
		require.NotNil(t, stored.CategoryID)
		assert.Equal(t, categoryID, *stored.CategoryID)
	})
}

func TestGetClassification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	linked := f.linked(t, 1, nil)
	keyword := mock.Transaction(f.userID, "Gym membership fee", "-25", mock.Date(2024, 2, 1))
	plain := mock.Transaction(f.userID, "Bookshop", "-18", mock.Date(2024, 2, 3))
	f.db.SeedTransactions(t, keyword, plain)

	output, err := f.get.Execute(ctx, classification.GetClassificationInput{UserID: f.userID, TransactionID: linked.ID})
	require.NoError(t, err)
	assert.True(t, output.IsBill)
	assert.Equal(t, entity.ClassificationBill, output.Classification.Kind)
	assert.Equal(t, &f.pattern.ID, output.Classification.PatternID)

	output, err = f.get.Execute(ctx, classification.GetClassificationInput{UserID: f.userID, TransactionID: keyword.ID})
	require.NoError(t, err)
	assert.True(t, output.IsBill)
	assert.Equal(t, entity.SourceHeuristic, output.Classification.Source)

	output, err = f.get.Execute(ctx, classification.GetClassificationInput{UserID: f.userID, TransactionID: plain.ID})
	require.NoError(t, err)
	assert.False(t, output.IsBill)
	assert.Equal(t, entity.ClassificationUnclassified, output.Classification.Kind)

	_, err = f.get.Execute(ctx, classification.GetClassificationInput{UserID: uuid.New(), TransactionID: plain.ID})
	assert.True(t, domainerror.IsNotFound(err))
}
