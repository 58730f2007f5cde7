package label_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/label"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/cache"
	"github.com/finance-tracker/recurring/internal/integration/persistence"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

type fakeLabelService struct {
	available bool
	err       error
	calls     []*adapter.LabelRequest
}

func (s *fakeLabelService) SuggestLabel(_ context.Context, request *adapter.LabelRequest) (*adapter.LabelSuggestion, error) {
	s.calls = append(s.calls, request)
	if s.err != nil {
		return nil, s.err
	}
	return &adapter.LabelSuggestion{Category: "Streaming", Confidence: 0.9, Reasoning: "video subscription"}, nil
}

func (s *fakeLabelService) IsAvailable() bool {
	return s.available
}

type labelFixture struct {
	db      *mock.Db
	service *fakeLabelService
	suggest *label.SuggestLabelUseCase
	userID  uuid.UUID
	pattern *entity.BillPattern
}

func newLabelFixture(t *testing.T, available bool) *labelFixture {
	t.Helper()

	db := mock.NewTestDb(t)
	service := &fakeLabelService{available: available}
	userID := uuid.New()
	pattern := entity.NewBillPattern(userID, "Netflix", "netflix", valueobject.FrequencyMonthly,
		decimal.RequireFromString("-15.99"), mock.Date(2024, 1, 5), nil, 0.9)
	db.SeedPattern(t, pattern)

	return &labelFixture{
		db:      db,
		service: service,
		suggest: label.NewSuggestLabelUseCase(
			persistence.NewTransactionRepository(db.DbConn),
			persistence.NewBillPatternRepository(db.DbConn),
			service,
			cache.NewMemoryLabelCache(time.Hour),
			valueobject.DefaultBillKeywordPolicy(),
		),
		userID:  userID,
		pattern: pattern,
	}
}

func TestSuggestLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("a pattern is labeled once and then served from the cache", func(t *testing.T) {
		f := newLabelFixture(t, true)
		input := label.SuggestLabelInput{UserID: f.userID, PatternID: &f.pattern.ID}

		first, err := f.suggest.Execute(ctx, input)
		require.NoError(t, err)
		assert.False(t, first.FromCache)
		assert.Equal(t, "Streaming", first.Suggestion.Category)
		assert.Equal(t, adapter.LabelSubjectBillPattern, first.Subject)
		require.Len(t, f.service.calls, 1)
		assert.Equal(t, "15.99", f.service.calls[0].Amount)
		assert.Equal(t, "MONTHLY", f.service.calls[0].Frequency)

		second, err := f.suggest.Execute(ctx, input)
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Len(t, f.service.calls, 1)

		input.Refresh = true
		refreshed, err := f.suggest.Execute(ctx, input)
		require.NoError(t, err)
		assert.False(t, refreshed.FromCache)
		assert.Len(t, f.service.calls, 2)
	})

	t.Run("a linked transaction is labeled as its pattern", func(t *testing.T) {
		f := newLabelFixture(t, true)
		tx := mock.Transaction(f.userID, "NETFLIX", "-15.99", mock.Date(2024, 2, 5))
		tx.LinkToPattern(f.pattern.ID, entity.SourcePatternCreation)
		f.db.SeedTransactions(t, tx)

		output, err := f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: f.userID, TransactionID: &tx.ID})

		require.NoError(t, err)
		assert.Equal(t, adapter.LabelSubjectBillPattern, output.Subject)
		assert.Equal(t, "Netflix", f.service.calls[0].Name)
	})

	t.Run("a user one-time expense is labeled on its own", func(t *testing.T) {
		f := newLabelFixture(t, true)
		tx := mock.Transaction(f.userID, "Bookshop", "-18.50", mock.Date(2024, 2, 3))
		tx.SecondaryType = entity.SecondaryTypeOneTime
		tx.ClassificationSource = entity.SourceUser
		f.db.SeedTransactions(t, tx)

		output, err := f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: f.userID, TransactionID: &tx.ID})

		require.NoError(t, err)
		assert.Equal(t, adapter.LabelSubjectOneTime, output.Subject)
		assert.Equal(t, "18.50", f.service.calls[0].Amount)
	})

	t.Run("an unclassified transaction is rejected", func(t *testing.T) {
		f := newLabelFixture(t, true)
		tx := mock.Transaction(f.userID, "Bookshop", "-18.50", mock.Date(2024, 2, 3))
		f.db.SeedTransactions(t, tx)

		_, err := f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: f.userID, TransactionID: &tx.ID})

		kind, ok := domainerror.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domainerror.KindValidation, kind)
		assert.Empty(t, f.service.calls)
	})

	t.Run("both or neither subject is invalid", func(t *testing.T) {
		f := newLabelFixture(t, true)
		txID := uuid.New()

		_, err := f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: f.userID})
		kind, _ := domainerror.KindOf(err)
		assert.Equal(t, domainerror.KindValidation, kind)

		_, err = f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: f.userID, PatternID: &f.pattern.ID, TransactionID: &txID})
		kind, _ = domainerror.KindOf(err)
		assert.Equal(t, domainerror.KindValidation, kind)
	})

	t.Run("an unconfigured service is unavailable", func(t *testing.T) {
		f := newLabelFixture(t, false)

		_, err := f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: f.userID, PatternID: &f.pattern.ID})

		kind, _ := domainerror.KindOf(err)
		assert.Equal(t, domainerror.KindUnavailable, kind)
		assert.Empty(t, f.service.calls)
	})

	t.Run("service failures are returned and not cached", func(t *testing.T) {
		f := newLabelFixture(t, true)
		f.service.err = errors.New("quota exceeded")
		input := label.SuggestLabelInput{UserID: f.userID, PatternID: &f.pattern.ID}

		_, err := f.suggest.Execute(ctx, input)
		require.Error(t, err)

		f.service.err = nil
		output, err := f.suggest.Execute(ctx, input)
		require.NoError(t, err)
		assert.False(t, output.FromCache)
	})

	t.Run("another user's pattern is not found", func(t *testing.T) {
		f := newLabelFixture(t, true)

		_, err := f.suggest.Execute(ctx, label.SuggestLabelInput{UserID: uuid.New(), PatternID: &f.pattern.ID})

		assert.True(t, domainerror.IsNotFound(err))
	})
}
