package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

func candidates() []*entity.CandidatePattern {
	return []*entity.CandidatePattern{{
		MerchantKey:    "netflix",
		Name:           "Netflix",
		Frequency:      valueobject.FrequencyMonthly,
		BaseAmount:     decimal.RequireFromString("-15.99"),
		StartDate:      mock.Date(2024, 1, 5),
		Confidence:     0.91,
		ReviewStatus:   valueobject.ReviewStatusAutoEligible,
		TransactionIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}}
}

func TestRedisCandidateCache(t *testing.T) {
	ctx := context.Background()
	client, server := mock.NewTestRedis(t)
	c := NewRedisCandidateCache(client, time.Minute)
	userID := uuid.New()

	_, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, userID, candidates()))
	got, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "netflix", got[0].MerchantKey)
	assert.True(t, got[0].BaseAmount.Equal(decimal.RequireFromString("-15.99")))
	assert.Len(t, got[0].TransactionIDs, 2)

	t.Run("invalidate drops the entry", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, userID))
		_, ok, err := c.Get(ctx, userID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, userID, candidates()))
		server.FastForward(2 * time.Minute)
		_, ok, err := c.Get(ctx, userID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("a corrupt entry is a miss", func(t *testing.T) {
		require.NoError(t, server.Set(candidateKey(userID), "{not json"))
		_, ok, err := c.Get(ctx, userID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRedisLabelCache(t *testing.T) {
	ctx := context.Background()
	client, server := mock.NewTestRedis(t)
	c := NewRedisLabelCache(client, time.Hour)
	suggestion := &adapter.LabelSuggestion{Category: "Utilities", Confidence: 0.8, Reasoning: "energy supplier"}

	require.NoError(t, c.Set(ctx, "bill pattern:acme energy", suggestion))
	assert.True(t, server.Exists(labelKeyPrefix+"bill pattern:acme energy"))

	got, ok, err := c.Get(ctx, "bill pattern:acme energy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, suggestion, got)

	_, ok, err = c.Get(ctx, "bill pattern:water board")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Unavailable(t *testing.T) {
	client, server := mock.NewTestRedis(t)
	c := NewRedisCandidateCache(client, time.Minute)
	server.Close()

	_, _, err := c.Get(context.Background(), uuid.New())

	assert.Error(t, err)
}

func TestMemoryCaches(t *testing.T) {
	ctx := context.Background()
	now := mock.Date(2024, 4, 20)

	candidateCache := NewMemoryCandidateCache(time.Minute).(*memoryCandidateCache)
	candidateCache.store.now = func() time.Time { return now }
	userID := uuid.New()

	require.NoError(t, candidateCache.Set(ctx, userID, candidates()))
	got, ok, err := candidateCache.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, got, 1)

	now = now.Add(2 * time.Minute)
	_, ok, _ = candidateCache.Get(ctx, userID)
	assert.False(t, ok)

	require.NoError(t, candidateCache.Set(ctx, userID, candidates()))
	require.NoError(t, candidateCache.Invalidate(ctx, userID))
	_, ok, _ = candidateCache.Get(ctx, userID)
	assert.False(t, ok)

	labels := NewMemoryLabelCache(time.Hour)
	require.NoError(t, labels.Set(ctx, "one-time expense:bookshop", &adapter.LabelSuggestion{Category: "Books"}))
	label, ok, err := labels.Get(ctx, "one-time expense:bookshop")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Books", label.Category)
}
