package detection

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// Detector finds recurring payment patterns in a user's transactions.
// It is deterministic and never fails: insufficient evidence yields no candidate.
type Detector struct {
	config valueobject.DetectionConfig
}

// NewDetector creates a new Detector instance.
func NewDetector(config valueobject.DetectionConfig) *Detector {
	return &Detector{config: config}
}

// Config returns the detector configuration.
func (d *Detector) Config() valueobject.DetectionConfig {
	return d.config
}

// Detect groups expenses by merchant key and returns the candidates sorted by confidence.
func (d *Detector) Detect(transactions []*entity.Transaction) []*entity.CandidatePattern {
	groups := make(map[valueobject.MerchantKey][]*entity.Transaction)
	for _, tx := range transactions {
		if !tx.IsExpense() {
			continue
		}
		key := tx.MerchantKey()
		if key.IsEmpty() {
			continue
		}
		groups[key] = append(groups[key], tx)
	}

	candidates := make([]*entity.CandidatePattern, 0)
	for key, group := range groups {
		if candidate, ok := d.DetectGroup(key, group); ok {
			candidates = append(candidates, candidate)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].MerchantKey < candidates[j].MerchantKey
	})

	return candidates
}

// DetectGroup evaluates one merchant-key group.
func (d *Detector) DetectGroup(key valueobject.MerchantKey, transactions []*entity.Transaction) (*entity.CandidatePattern, bool) {
	cfg := d.config

	txs := make([]*entity.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.IsExpense() && !tx.Date.IsZero() {
			txs = append(txs, tx)
		}
	}
	sortByDate(txs)

	n := len(txs)
	if n < cfg.MinWeakSamples {
		return nil, false
	}

	inliers, outliers := d.splitOutliers(txs)
	if len(inliers) < cfg.MinWeakSamples {
		return nil, false
	}

	// Interval statistics over the distinct inlier dates. Charges posted on the
	// same day count once for timing but all stay in the contributing list.
	dates := distinctDates(inliers)
	if len(dates) < cfg.MinWeakSamples {
		return nil, false
	}
	deltas := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		deltas = append(deltas, float64(valueobject.DaysBetween(dates[i-1], dates[i])))
	}

	medianDelta := median(deltas)
	band, ok := cfg.BandFor(medianDelta)
	if !ok {
		return nil, false
	}

	inBand := 0
	for _, delta := range deltas {
		if band.Contains(delta) {
			inBand++
		}
	}
	inBandRatio := float64(inBand) / float64(len(deltas))
	if inBandRatio < cfg.MinBandRatio {
		return nil, false
	}

	intervalCV := coefficientOfVariation(periodNormalized(deltas, medianDelta))
	if intervalCV > cfg.MaxIntervalCV {
		return nil, false
	}

	// Amount consistency over inliers
	inlierAmounts := make([]decimal.Decimal, len(inliers))
	for i, tx := range inliers {
		inlierAmounts[i] = tx.Amount
	}
	inlierMedian := valueobject.MedianAmount(inlierAmounts)
	consistent := 0
	for _, amount := range inlierAmounts {
		if cfg.IsWithinAmountTolerance(amount, inlierMedian) {
			consistent++
		}
	}
	amountConsistency := float64(consistent) / float64(len(inliers))

	regularity := clamp01(inBandRatio * (1 - intervalCV))
	sampleBonus := math.Min(float64(n), float64(cfg.SampleSaturation)) / float64(cfg.SampleSaturation)

	confidence := clamp01(cfg.IntervalWeight*regularity + cfg.AmountWeight*amountConsistency + cfg.SampleWeight*sampleBonus)
	if n < cfg.MinStrongSamples {
		confidence = math.Min(confidence, cfg.WeakSignalCap)
	}
	confidence = valueobject.RoundScore(confidence)
	if confidence < cfg.DiscardThreshold {
		return nil, false
	}

	allAmounts := make([]decimal.Decimal, n)
	ids := make([]uuid.UUID, n)
	for i, tx := range txs {
		allAmounts[i] = tx.Amount
		ids[i] = tx.ID
	}
	outlierIDs := make([]uuid.UUID, len(outliers))
	for i, tx := range outliers {
		outlierIDs[i] = tx.ID
	}

	return &entity.CandidatePattern{
		MerchantKey:    key.String(),
		Name:           key.DisplayName(),
		Frequency:      band.Frequency,
		BaseAmount:     valueobject.MedianAmount(allAmounts),
		StartDate:      valueobject.CalendarDate(txs[0].Date),
		CategoryID:     dominantCategory(txs),
		Confidence:     confidence,
		ReviewStatus:   cfg.ReviewStatusFor(confidence),
		TransactionIDs: ids,
		Stats: entity.DetectionStats{
			IntervalMedianDays:    medianDelta,
			IntervalCV:            valueobject.RoundScore(intervalCV),
			InBandRatio:           valueobject.RoundScore(inBandRatio),
			AmountConsistency:     valueobject.RoundScore(amountConsistency),
			SampleSize:            n,
			OutlierTransactionIDs: outlierIDs,
		},
	}, true
}

// splitOutliers separates amount outliers using a median/IQR fence.
// Small groups are returned untouched.
func (d *Detector) splitOutliers(txs []*entity.Transaction) (inliers, outliers []*entity.Transaction) {
	if len(txs) < d.config.OutlierMinSamples {
		return txs, nil
	}

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount.Abs().InexactFloat64()
	}
	sorted := append([]float64(nil), amounts...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	med := quantile(sorted, 0.5)
	fence := math.Max(d.config.OutlierIQRMultiplier*(q3-q1), d.config.AmountTolerance.InexactFloat64()*med)

	for i, tx := range txs {
		if amounts[i] < q1-fence || amounts[i] > q3+fence {
			outliers = append(outliers, tx)
			continue
		}
		inliers = append(inliers, tx)
	}
	return inliers, outliers
}

// periodNormalized divides each delta by the number of periods it spans,
// so a skipped occurrence does not read as irregular timing.
func periodNormalized(deltas []float64, period float64) []float64 {
	normalized := make([]float64, len(deltas))
	for i, delta := range deltas {
		k := math.Round(delta / period)
		if k < 1 {
			k = 1
		}
		normalized[i] = delta / k
	}
	return normalized
}

// distinctDates returns the calendar dates of date-sorted transactions without repeats.
func distinctDates(txs []*entity.Transaction) []time.Time {
	dates := make([]time.Time, 0, len(txs))
	for _, tx := range txs {
		day := valueobject.CalendarDate(tx.Date)
		if len(dates) > 0 && dates[len(dates)-1].Equal(day) {
			continue
		}
		dates = append(dates, day)
	}
	return dates
}

func sortByDate(txs []*entity.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID.String() < txs[j].ID.String()
	})
}

// dominantCategory returns the most frequent category among the transactions.
func dominantCategory(txs []*entity.Transaction) *uuid.UUID {
	counts := make(map[uuid.UUID]int)
	var best *uuid.UUID
	for _, tx := range txs {
		if tx.CategoryID == nil {
			continue
		}
		id := *tx.CategoryID
		counts[id]++
		if best == nil || counts[id] > counts[*best] || (counts[id] == counts[*best] && id.String() < best.String()) {
			best = &id
		}
	}
	return best
}
