package detection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

func TestDetector_Detect(t *testing.T) {
	detector := NewDetector(valueobject.DefaultDetectionConfig())
	userID := uuid.New()

	t.Run("regular monthly payments become an auto-eligible candidate", func(t *testing.T) {
		txs := mock.MonthlySeries(userID, "NETFLIX.COM 4821", "-15.99", mock.Date(2024, 1, 5), 4)

		candidates := detector.Detect(txs)

		require.Len(t, candidates, 1)
		c := candidates[0]
		assert.Equal(t, "netflix com", c.MerchantKey)
		assert.Equal(t, "Netflix Com", c.Name)
		assert.Equal(t, valueobject.FrequencyMonthly, c.Frequency)
		assert.Equal(t, "-15.99", c.BaseAmount.String())
		assert.Equal(t, mock.Date(2024, 1, 5), c.StartDate)
		assert.GreaterOrEqual(t, c.Confidence, 0.85)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		assert.Equal(t, valueobject.ReviewStatusAutoEligible, c.ReviewStatus)
		assert.Len(t, c.TransactionIDs, 4)
		assert.Equal(t, 4, c.Stats.SampleSize)
		assert.Empty(t, c.Stats.OutlierTransactionIDs)
	})

	t.Run("two payments are a weak signal that needs review", func(t *testing.T) {
		txs := []*entity.Transaction{
			mock.Transaction(userID, "Gym Membership", "-30.00", mock.Date(2024, 3, 1)),
			mock.Transaction(userID, "Gym Membership", "-30.00", mock.Date(2024, 3, 31)),
		}

		candidates := detector.Detect(txs)

		require.Len(t, candidates, 1)
		assert.Equal(t, 0.84, candidates[0].Confidence)
		assert.Equal(t, valueobject.ReviewStatusNeedsReview, candidates[0].ReviewStatus)
	})

	t.Run("a single payment is not a pattern", func(t *testing.T) {
		txs := []*entity.Transaction{mock.Transaction(userID, "Spotify", "-9.99", mock.Date(2024, 1, 1))}
		assert.Empty(t, detector.Detect(txs))
	})

	t.Run("income is ignored", func(t *testing.T) {
		txs := mock.MonthlySeries(userID, "ACME PAYROLL", "2500.00", mock.Date(2024, 1, 25), 6)
		assert.Empty(t, detector.Detect(txs))
	})

	t.Run("intervals outside every band are discarded", func(t *testing.T) {
		txs := []*entity.Transaction{
			mock.Transaction(userID, "Corner Shop", "-4.20", mock.Date(2024, 1, 1)),
			mock.Transaction(userID, "Corner Shop", "-4.20", mock.Date(2024, 1, 4)),
			mock.Transaction(userID, "Corner Shop", "-4.20", mock.Date(2024, 2, 13)),
			mock.Transaction(userID, "Corner Shop", "-4.20", mock.Date(2024, 5, 13)),
		}
		assert.Empty(t, detector.Detect(txs))
	})

	t.Run("amount outliers are reported and excluded from timing", func(t *testing.T) {
		txs := mock.MonthlySeries(userID, "Water Board", "-50.00", mock.Date(2024, 1, 1), 4)
		outlier := mock.Transaction(userID, "Water Board", "-200.00", mock.Date(2024, 3, 20))
		txs = append(txs, outlier)

		candidates := detector.Detect(txs)

		require.Len(t, candidates, 1)
		c := candidates[0]
		assert.Equal(t, valueobject.FrequencyMonthly, c.Frequency)
		assert.Equal(t, []uuid.UUID{outlier.ID}, c.Stats.OutlierTransactionIDs)
		assert.Equal(t, "-50", c.BaseAmount.String())
		assert.Len(t, c.TransactionIDs, 5)
	})

	t.Run("a skipped month does not read as irregular", func(t *testing.T) {
		txs := []*entity.Transaction{
			mock.Transaction(userID, "Council Tax", "-120.00", mock.Date(2024, 1, 10)),
			mock.Transaction(userID, "Council Tax", "-120.00", mock.Date(2024, 2, 10)),
			mock.Transaction(userID, "Council Tax", "-120.00", mock.Date(2024, 4, 10)),
			mock.Transaction(userID, "Council Tax", "-120.00", mock.Date(2024, 5, 10)),
		}

		candidates := detector.Detect(txs)

		require.Len(t, candidates, 1)
		assert.Equal(t, valueobject.FrequencyMonthly, candidates[0].Frequency)
		assert.Less(t, candidates[0].Stats.IntervalCV, 0.05)
	})

	t.Run("a same-day duplicate charge keeps the series", func(t *testing.T) {
		txs := mock.MonthlySeries(userID, "Netflix", "-15.99", mock.Date(2024, 1, 15), 6)
		duplicate := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 3, 15))
		txs = append(txs, duplicate)

		candidates := detector.Detect(txs)

		require.Len(t, candidates, 1)
		c := candidates[0]
		assert.Equal(t, valueobject.FrequencyMonthly, c.Frequency)
		assert.Equal(t, 1.0, c.Stats.InBandRatio)
		assert.Less(t, c.Stats.IntervalCV, 0.05)
		assert.Len(t, c.TransactionIDs, 7)
		assert.Contains(t, c.TransactionIDs, duplicate.ID)
		assert.Equal(t, 7, c.Stats.SampleSize)
	})

	t.Run("payments all on one day are not a pattern", func(t *testing.T) {
		txs := []*entity.Transaction{
			mock.Transaction(userID, "Ticket Office", "-25.00", mock.Date(2024, 6, 1)),
			mock.Transaction(userID, "Ticket Office", "-25.00", mock.Date(2024, 6, 1)),
			mock.Transaction(userID, "Ticket Office", "-25.00", mock.Date(2024, 6, 1)),
		}
		assert.Empty(t, detector.Detect(txs))
	})

	t.Run("candidates are sorted by confidence", func(t *testing.T) {
		txs := append(
			mock.MonthlySeries(userID, "Netflix", "-15.99", mock.Date(2024, 1, 5), 4),
			mock.Transaction(userID, "Gym Membership", "-30.00", mock.Date(2024, 3, 1)),
			mock.Transaction(userID, "Gym Membership", "-30.00", mock.Date(2024, 3, 31)),
		)

		candidates := detector.Detect(txs)

		require.Len(t, candidates, 2)
		assert.Equal(t, "netflix", candidates[0].MerchantKey)
		assert.Equal(t, "gym membership", candidates[1].MerchantKey)
	})

	t.Run("detection is deterministic", func(t *testing.T) {
		txs := mock.MonthlySeries(userID, "Netflix", "-15.99", mock.Date(2024, 1, 5), 5)
		reversed := make([]*entity.Transaction, len(txs))
		for i, tx := range txs {
			reversed[len(txs)-1-i] = tx
		}

		assert.Equal(t, detector.Detect(txs), detector.Detect(reversed))
	})
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, coefficientOfVariation([]float64{30, 30, 30}))
	assert.InDelta(t, 0.0311, coefficientOfVariation([]float64{31, 29, 31}), 0.0001)
	assert.Equal(t, 0.0, coefficientOfVariation(nil))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	assert.Equal(t, 10.0, quantile(sorted, 0))
	assert.Equal(t, 25.0, quantile(sorted, 0.5))
	assert.Equal(t, 40.0, quantile(sorted, 1))
	assert.Equal(t, 17.5, quantile(sorted, 0.25))
}
