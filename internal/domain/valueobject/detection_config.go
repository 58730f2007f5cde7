package valueobject

import "github.com/shopspring/decimal"

// FrequencyBand is the inclusive range of day intervals accepted for a frequency.
type FrequencyBand struct {
	Frequency Frequency
	MinDays   float64
	MaxDays   float64
}

// Contains reports whether an interval in days falls within the band.
func (b FrequencyBand) Contains(days float64) bool {
	return days >= b.MinDays && days <= b.MaxDays
}

// DetectionConfig contains the tolerances and weights of the pattern detector.
type DetectionConfig struct {
	Bands []FrequencyBand

	// Sample size
	MinWeakSamples   int // 2
	MinStrongSamples int // 3
	SampleSaturation int // 4

	// Interval regularity
	MinBandRatio  float64 // share of deltas that must fall in the dominant band
	MaxIntervalCV float64

	// Amount consistency
	AmountTolerance      decimal.Decimal // 0.10 = 10% of the median
	OutlierIQRMultiplier float64
	OutlierMinSamples    int

	// Confidence weights
	IntervalWeight float64
	AmountWeight   float64
	SampleWeight   float64

	// Thresholds
	DiscardThreshold    float64
	AutoCreateThreshold float64
	WeakSignalCap       float64

	// Scheduling
	DateWindowDays  int // ±days a transaction may drift from its expected date
	DriftSampleSize int // recent linked amounts used to refresh the base amount
}

// DefaultDetectionConfig returns the default detection configuration.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		Bands: []FrequencyBand{
			{Frequency: FrequencyWeekly, MinDays: 5, MaxDays: 9},
			{Frequency: FrequencyFortnightly, MinDays: 11, MaxDays: 17},
			{Frequency: FrequencyMonthly, MinDays: 24, MaxDays: 35},
			{Frequency: FrequencyQuarterly, MinDays: 80, MaxDays: 100},
			{Frequency: FrequencyAnnual, MinDays: 350, MaxDays: 380},
		},
		MinWeakSamples:       2,
		MinStrongSamples:     3,
		SampleSaturation:     4,
		MinBandRatio:         0.5,
		MaxIntervalCV:        0.25,
		AmountTolerance:      decimal.NewFromFloat(0.10),
		OutlierIQRMultiplier: 1.5,
		OutlierMinSamples:    4,
		IntervalWeight:       0.5,
		AmountWeight:         0.3,
		SampleWeight:         0.2,
		DiscardThreshold:     0.5,
		AutoCreateThreshold:  0.85,
		WeakSignalCap:        0.84,
		DateWindowDays:       3,
		DriftSampleSize:      3,
	}
}

// BandFor returns the band containing the given interval.
func (c DetectionConfig) BandFor(days float64) (FrequencyBand, bool) {
	for _, b := range c.Bands {
		if b.Contains(days) {
			return b, true
		}
	}
	return FrequencyBand{}, false
}

// IsWithinAmountTolerance checks if amount is within the relative tolerance of base.
// Signs are ignored so expenses compare by magnitude.
func (c DetectionConfig) IsWithinAmountTolerance(amount, base decimal.Decimal) bool {
	base = base.Abs()
	if base.IsZero() {
		return amount.IsZero()
	}
	diff := amount.Abs().Sub(base).Abs()
	return diff.Div(base).LessThanOrEqual(c.AmountTolerance)
}

// ReviewStatus tells whether a detected candidate needs user confirmation.
type ReviewStatus string

const (
	ReviewStatusNeedsReview  ReviewStatus = "needs_review"
	ReviewStatusAutoEligible ReviewStatus = "auto_eligible"
)

// ReviewStatusFor maps a confidence to its review status.
func (c DetectionConfig) ReviewStatusFor(confidence float64) ReviewStatus {
	if confidence >= c.AutoCreateThreshold {
		return ReviewStatusAutoEligible
	}
	return ReviewStatusNeedsReview
}
