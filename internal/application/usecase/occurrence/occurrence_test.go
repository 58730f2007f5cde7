package occurrence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/adapters"
	"github.com/finance-tracker/recurring/internal/integration/cache"
	"github.com/finance-tracker/recurring/internal/integration/persistence"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

type scheduler struct {
	db           *mock.Db
	transactions adapter.TransactionRepository
	patterns     adapter.BillPatternRepository
	sync         *occurrence.SyncOccurrencesUseCase
	link         *occurrence.LinkTransactionUseCase
	unlink       *occurrence.UnlinkTransactionUseCase
	list         *occurrence.ListOccurrencesUseCase
	userID       uuid.UUID
	pattern      *entity.BillPattern
}

func newScheduler(t *testing.T) *scheduler {
	t.Helper()

	db := mock.NewTestDb(t)
	clock := mock.NewTime(mock.Date(2024, 3, 20))
	cfg := valueobject.DefaultDetectionConfig()
	transactions := persistence.NewTransactionRepository(db.DbConn)
	patterns := persistence.NewBillPatternRepository(db.DbConn)
	locker := adapters.NewMemoryPatternLocker()
	candidates := cache.NewMemoryCandidateCache(time.Minute)
	propagator := classification.NewPropagateUseCase(transactions, patterns, locker)

	userID := uuid.New()
	pattern := entity.NewBillPattern(userID, "Spotify", "spotify", valueobject.FrequencyMonthly,
		decimal.RequireFromString("-9.99"), mock.Date(2024, 1, 12), nil, 0.9)
	db.SeedPattern(t, pattern)

	return &scheduler{
		db:           db,
		transactions: transactions,
		patterns:     patterns,
		sync:         occurrence.NewSyncOccurrencesUseCase(transactions, patterns, locker, propagator, candidates, cfg).WithClock(clock.Now),
		link:         occurrence.NewLinkTransactionUseCase(transactions, patterns, locker, propagator, candidates, cfg),
		unlink:       occurrence.NewUnlinkTransactionUseCase(transactions, patterns, locker, candidates),
		list:         occurrence.NewListOccurrencesUseCase(patterns),
		userID:       userID,
		pattern:      pattern,
	}
}

func (s *scheduler) occurrences(t *testing.T) []*entity.Occurrence {
	t.Helper()
	occs, err := s.patterns.FindOccurrences(context.Background(), s.pattern.ID)
	require.NoError(t, err)
	return occs
}

func TestSyncOccurrences(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(t)
	jan := mock.Transaction(s.userID, "SPOTIFY P1234567", "-9.99", mock.Date(2024, 1, 12))
	feb := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 2, 13))
	s.db.SeedTransactions(t, jan, feb)

	output, err := s.sync.Execute(ctx, occurrence.SyncOccurrencesInput{UserID: s.userID, PatternID: s.pattern.ID})

	require.NoError(t, err)
	assert.Equal(t, occurrence.ScheduleStats{Linked: 2, Placeholders: 2}, output.Stats)

	occs := s.occurrences(t)
	require.Len(t, occs, 4)
	assert.True(t, occs[0].IsLinkedTo(jan.ID))
	assert.Equal(t, mock.Date(2024, 2, 13), occs[1].DueDate)
	assert.Equal(t, mock.Date(2024, 3, 12), occs[2].DueDate)
	assert.Equal(t, mock.Date(2024, 4, 12), occs[3].DueDate)

	stored, err := s.transactions.FindByID(ctx, feb.ID, s.userID)
	require.NoError(t, err)
	assert.True(t, stored.IsLinkedTo(s.pattern.ID))

	t.Run("running again is a no-op", func(t *testing.T) {
		again, err := s.sync.Execute(ctx, occurrence.SyncOccurrencesInput{UserID: s.userID, PatternID: s.pattern.ID})

		require.NoError(t, err)
		assert.Equal(t, occurrence.ScheduleStats{}, again.Stats)
		assert.Len(t, s.occurrences(t), 4)
	})

	t.Run("an inverted window is rejected", func(t *testing.T) {
		from, through := mock.Date(2024, 5, 1), mock.Date(2024, 1, 1)
		_, err := s.sync.Execute(ctx, occurrence.SyncOccurrencesInput{
			UserID: s.userID, PatternID: s.pattern.ID, From: &from, Through: &through,
		})

		kind, _ := domainerror.KindOf(err)
		assert.Equal(t, domainerror.KindValidation, kind)
	})
}

func TestLinkTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("a payment replaces the placeholder of its period", func(t *testing.T) {
		s := newScheduler(t)
		s.db.SeedOccurrences(t, entity.NewPlaceholderOccurrence(s.pattern.ID, mock.Date(2024, 2, 12), s.pattern.BaseAmount))
		late := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 2, 14))
		s.db.SeedTransactions(t, late)

		output, err := s.link.Execute(ctx, occurrence.LinkTransactionInput{
			UserID: s.userID, PatternID: s.pattern.ID, TransactionID: late.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, occurrence.LinkStatusLinked, output.Status)
		occs := s.occurrences(t)
		require.Len(t, occs, 1)
		assert.Equal(t, mock.Date(2024, 2, 14), occs[0].DueDate)
		assert.True(t, occs[0].IsLinkedTo(late.ID))

		stored, err := s.transactions.FindByID(ctx, late.ID, s.userID)
		require.NoError(t, err)
		assert.Equal(t, entity.SourceUser, stored.ClassificationSource)
		assert.Equal(t, entity.SecondaryTypeBill, stored.SecondaryType)
	})

	t.Run("linking twice is idempotent", func(t *testing.T) {
		s := newScheduler(t)
		tx := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 1, 12))
		s.db.SeedTransactions(t, tx)
		input := occurrence.LinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: tx.ID}

		_, err := s.link.Execute(ctx, input)
		require.NoError(t, err)
		second, err := s.link.Execute(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, occurrence.LinkStatusAlreadyLinked, second.Status)
		assert.Len(t, s.occurrences(t), 1)
	})

	t.Run("a date confirmed by another payment stays untouched", func(t *testing.T) {
		s := newScheduler(t)
		first := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 1, 12))
		refund := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 1, 12))
		s.db.SeedTransactions(t, first, refund)

		_, err := s.link.Execute(ctx, occurrence.LinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: first.ID})
		require.NoError(t, err)
		output, err := s.link.Execute(ctx, occurrence.LinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: refund.ID})

		require.NoError(t, err)
		assert.Equal(t, occurrence.LinkStatusAlreadyLinked, output.Status)
		assert.True(t, output.Occurrence.IsLinkedTo(first.ID))
		stored, err := s.transactions.FindByID(ctx, refund.ID, s.userID)
		require.NoError(t, err)
		assert.Nil(t, stored.BillPatternID)
	})

	t.Run("a transaction of another pattern is a conflict", func(t *testing.T) {
		s := newScheduler(t)
		tx := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 1, 12))
		tx.LinkToPattern(uuid.New(), entity.SourcePatternCreation)
		s.db.SeedTransactions(t, tx)

		_, err := s.link.Execute(ctx, occurrence.LinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: tx.ID})

		assert.True(t, domainerror.IsConflict(err))
	})
}

func TestLinkTransaction_Concurrent(t *testing.T) {
	ctx := context.Background()

	link := func(s *scheduler, ids ...uuid.UUID) []*occurrence.LinkTransactionOutput {
		outputs := make([]*occurrence.LinkTransactionOutput, len(ids))
		errs := make([]error, len(ids))
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				outputs[i], errs[i] = s.link.Execute(ctx, occurrence.LinkTransactionInput{
					UserID: s.userID, PatternID: s.pattern.ID, TransactionID: id,
				})
			}()
		}
		close(start)
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}
		return outputs
	}

	statuses := func(outputs []*occurrence.LinkTransactionOutput) map[occurrence.LinkStatus]int {
		counts := make(map[occurrence.LinkStatus]int)
		for _, output := range outputs {
			counts[output.Status]++
		}
		return counts
	}

	t.Run("two payments on one date confirm it once", func(t *testing.T) {
		s := newScheduler(t)
		first := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 1, 12))
		second := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 1, 12))
		s.db.SeedTransactions(t, first, second)

		outputs := link(s, first.ID, second.ID)

		assert.Equal(t, map[occurrence.LinkStatus]int{
			occurrence.LinkStatusLinked:        1,
			occurrence.LinkStatusAlreadyLinked: 1,
		}, statuses(outputs))
		occs := s.occurrences(t)
		require.Len(t, occs, 1)
		assert.True(t, occs[0].IsLinked())

		linked, err := s.transactions.FindByPatternID(ctx, s.pattern.ID)
		require.NoError(t, err)
		require.Len(t, linked, 1)
		assert.Equal(t, *occs[0].BankTransactionID, linked[0].ID)
	})

	t.Run("the same payment linked twice at once", func(t *testing.T) {
		s := newScheduler(t)
		tx := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2024, 2, 12))
		s.db.SeedTransactions(t, tx)

		outputs := link(s, tx.ID, tx.ID, tx.ID)

		assert.Equal(t, map[occurrence.LinkStatus]int{
			occurrence.LinkStatusLinked:        1,
			occurrence.LinkStatusAlreadyLinked: 2,
		}, statuses(outputs))
		occs := s.occurrences(t)
		require.Len(t, occs, 1)
		assert.True(t, occs[0].IsLinkedTo(tx.ID))
	})
}

func TestUnlinkTransaction(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(t)
	tx := mock.Transaction(s.userID, "Spotify", "-10.49", mock.Date(2024, 1, 12))
	s.db.SeedTransactions(t, tx)
	_, err := s.link.Execute(ctx, occurrence.LinkTransactionInput{
		UserID: s.userID, PatternID: s.pattern.ID, TransactionID: tx.ID, Source: entity.SourcePatternCreation,
	})
	require.NoError(t, err)

	output, err := s.unlink.Execute(ctx, occurrence.UnlinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: tx.ID})

	require.NoError(t, err)
	assert.Nil(t, output.Transaction.BillPatternID)
	assert.Equal(t, entity.SecondaryTypeNone, output.Transaction.SecondaryType)

	occs := s.occurrences(t)
	require.Len(t, occs, 1)
	assert.False(t, occs[0].IsLinked())
	assert.Equal(t, entity.OccurrenceStatusPending, occs[0].Status)

	t.Run("an unlinked transaction is not found", func(t *testing.T) {
		_, err := s.unlink.Execute(ctx, occurrence.UnlinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: tx.ID})

		assert.True(t, domainerror.IsNotFound(err))
	})

	t.Run("a sync does not link the transaction again", func(t *testing.T) {
		output, err := s.sync.Execute(ctx, occurrence.SyncOccurrencesInput{UserID: s.userID, PatternID: s.pattern.ID})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Stats.Linked)
		stored, err := s.transactions.FindByID(ctx, tx.ID, s.userID)
		require.NoError(t, err)
		assert.Nil(t, stored.BillPatternID)
		pattern, err := s.patterns.FindByID(ctx, s.pattern.ID, s.userID)
		require.NoError(t, err)
		assert.Contains(t, pattern.ExcludedTransactionIDs, tx.ID)
		for _, occ := range s.occurrences(t) {
			assert.False(t, occ.IsLinkedTo(tx.ID))
		}
	})

	t.Run("an explicit link lifts the exclusion", func(t *testing.T) {
		output, err := s.link.Execute(ctx, occurrence.LinkTransactionInput{UserID: s.userID, PatternID: s.pattern.ID, TransactionID: tx.ID})

		require.NoError(t, err)
		assert.Equal(t, occurrence.LinkStatusLinked, output.Status)
		pattern, err := s.patterns.FindByID(ctx, s.pattern.ID, s.userID)
		require.NoError(t, err)
		assert.False(t, pattern.Excludes(tx.ID))
	})
}

func TestListOccurrences(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(t)
	old := mock.Transaction(s.userID, "Spotify", "-9.99", mock.Date(2023, 11, 12))
	s.db.SeedTransactions(t, old)
	s.db.SeedOccurrences(t,
		entity.NewLinkedOccurrence(s.pattern.ID, old),
		entity.NewPlaceholderOccurrence(s.pattern.ID, mock.Date(2024, 2, 12), s.pattern.BaseAmount),
	)
	start := mock.Date(2024, 1, 1)

	output, err := s.list.Execute(ctx, occurrence.ListOccurrencesInput{
		UserID:    s.userID,
		PatternID: s.pattern.ID,
		Range:     valueobject.NewDateRange(&start, nil),
	})

	require.NoError(t, err)
	assert.Len(t, output.View.Visible, 1)
	assert.Equal(t, 1, output.View.HiddenLinked.Total)
	assert.Equal(t,
		"1 linked transaction is outside the selected date range (1 in 2023). Widen the date filter to see them.",
		output.View.Summary)

	_, err = s.list.Execute(ctx, occurrence.ListOccurrencesInput{UserID: uuid.New(), PatternID: s.pattern.ID})
	assert.True(t, domainerror.IsNotFound(err))
}
