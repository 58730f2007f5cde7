package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBillKeywordPolicy(t *testing.T) {
	isBill := DefaultBillKeywordPolicy()

	assert.True(t, isBill("Netflix SUBSCRIPTION"))
	assert.True(t, isBill("Council billing dept"))
	assert.True(t, isBill("Monthly gym fee"))
	assert.False(t, isBill("Corner shop"))
	assert.False(t, isBill("Debillion store"))

	t.Run("extra keywords", func(t *testing.T) {
		policy := NewBillKeywordPolicy(append(DefaultBillKeywords, "insurance", " "))
		assert.True(t, policy("Car Insurance"))
	})

	t.Run("no keywords never matches", func(t *testing.T) {
		assert.False(t, NewBillKeywordPolicy(nil)("bill"))
	})
}

func TestHiddenLinkedCount_Summary(t *testing.T) {
	t.Run("nothing hidden", func(t *testing.T) {
		assert.Equal(t, "", NewHiddenLinkedCount().Summary())
	})

	t.Run("single transaction", func(t *testing.T) {
		h := NewHiddenLinkedCount()
		h.Add(2023)
		assert.Equal(t, "1 linked transaction is outside the selected date range (1 in 2023). Widen the date filter to see them.", h.Summary())
	})

	t.Run("groups by year in order", func(t *testing.T) {
		var h HiddenLinkedCount
		h.Add(2023)
		h.Add(2022)
		h.Add(2023)

		assert.Equal(t, 3, h.Total)
		assert.Equal(t, []int{2022, 2023}, h.Years())
		assert.Equal(t, "3 linked transactions are outside the selected date range (1 in 2022, 2 in 2023). Widen the date filter to see them.", h.Summary())
	})
}

func TestMedianAmount(t *testing.T) {
	d := decimal.RequireFromString

	assert.True(t, MedianAmount(nil).IsZero())
	assert.True(t, d("20").Equal(MedianAmount([]decimal.Decimal{d("10"), d("30"), d("20")})))
	assert.True(t, d("-15.5").Equal(MedianAmount([]decimal.Decimal{d("-10"), d("-21")})))
}

func TestDetectionConfig(t *testing.T) {
	cfg := DefaultDetectionConfig()
	d := decimal.RequireFromString

	t.Run("amount tolerance ignores sign", func(t *testing.T) {
		assert.True(t, cfg.IsWithinAmountTolerance(d("-10.50"), d("-10")))
		assert.True(t, cfg.IsWithinAmountTolerance(d("-11"), d("-10")))
		assert.False(t, cfg.IsWithinAmountTolerance(d("-12"), d("-10")))
		assert.True(t, cfg.IsWithinAmountTolerance(decimal.Zero, decimal.Zero))
	})

	t.Run("band lookup", func(t *testing.T) {
		band, ok := cfg.BandFor(30)
		assert.True(t, ok)
		assert.Equal(t, FrequencyMonthly, band.Frequency)

		_, ok = cfg.BandFor(45)
		assert.False(t, ok)
	})

	t.Run("review status", func(t *testing.T) {
		assert.Equal(t, ReviewStatusAutoEligible, cfg.ReviewStatusFor(0.85))
		assert.Equal(t, ReviewStatusNeedsReview, cfg.ReviewStatusFor(cfg.WeakSignalCap))
	})
}

func TestMatchingConfig_AmountCloseness(t *testing.T) {
	cfg := DefaultMatchingConfig()
	d := decimal.RequireFromString

	assert.InDelta(t, 1.0, cfg.AmountCloseness(d("-10"), d("-10")), 1e-9)
	assert.InDelta(t, 0.5, cfg.AmountCloseness(d("-10.50"), d("-10")), 1e-9)
	assert.InDelta(t, 0.0, cfg.AmountCloseness(d("-12"), d("-10")), 1e-9)

	assert.True(t, cfg.IsPlausibleBillAmount(d("-49.99")))
	assert.False(t, cfg.IsPlausibleBillAmount(d("-0.50")))
	assert.False(t, cfg.IsPlausibleBillAmount(d("-25000")))
	assert.Equal(t, 0.1235, RoundScore(0.12345678))
}
