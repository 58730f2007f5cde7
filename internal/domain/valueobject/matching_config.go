package valueobject

import (
	"math"

	"github.com/shopspring/decimal"
)

// MatchingConfig contains the configuration for transaction-to-pattern recommendations.
// Match scores live on their own scale and are unrelated to detection confidence.
type MatchingConfig struct {
	// Score weights
	TextWeight       float64 // 0.4
	AmountWeight     float64 // 0.3
	CategoryWeight   float64 // 0.2
	RecurrenceWeight float64 // 0.1

	// Amount closeness band around the pattern's base amount
	AmountTolerance decimal.Decimal // 0.10 = 10%

	// Bill-plausible magnitude
	PlausibleMin decimal.Decimal
	PlausibleMax decimal.Decimal

	// Surfacing
	MinScore       float64 // 0.7
	MaxSuggestions int     // 10
}

// DefaultMatchingConfig returns the default matching configuration.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		TextWeight:       0.4,
		AmountWeight:     0.3,
		CategoryWeight:   0.2,
		RecurrenceWeight: 0.1,
		AmountTolerance:  decimal.NewFromFloat(0.10),
		PlausibleMin:     decimal.NewFromInt(1),
		PlausibleMax:     decimal.NewFromInt(10000),
		MinScore:         0.7,
		MaxSuggestions:   10,
	}
}

// AmountCloseness scores how close amount is to base: 1 when equal, falling linearly to 0 at the tolerance edge.
func (c MatchingConfig) AmountCloseness(amount, base decimal.Decimal) float64 {
	base = base.Abs()
	if base.IsZero() || c.AmountTolerance.IsZero() {
		if amount.Abs().Equal(base) {
			return 1
		}
		return 0
	}
	rel := amount.Abs().Sub(base).Abs().Div(base)
	score := 1 - rel.Div(c.AmountTolerance).InexactFloat64()
	return math.Max(0, score)
}

// IsPlausibleBillAmount checks if the magnitude looks like a bill payment.
func (c MatchingConfig) IsPlausibleBillAmount(amount decimal.Decimal) bool {
	abs := amount.Abs()
	return abs.GreaterThanOrEqual(c.PlausibleMin) && abs.LessThanOrEqual(c.PlausibleMax)
}

// RoundScore rounds a score to four decimal places.
func RoundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
