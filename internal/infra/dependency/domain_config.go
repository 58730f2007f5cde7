package dependency

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/config"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// DetectionConfig builds the detector configuration from the defaults and the environment overrides.
func DetectionConfig(cfg config.DetectionConfig) valueobject.DetectionConfig {
	detection := valueobject.DefaultDetectionConfig()

	if cfg.MinStrongSamples > 0 {
		detection.MinStrongSamples = cfg.MinStrongSamples
	}
	if cfg.DiscardThreshold > 0 {
		detection.DiscardThreshold = cfg.DiscardThreshold
	}
	if cfg.AutoCreateThreshold > 0 {
		detection.AutoCreateThreshold = cfg.AutoCreateThreshold
		if detection.WeakSignalCap >= cfg.AutoCreateThreshold {
			detection.WeakSignalCap = cfg.AutoCreateThreshold - 0.01
		}
	}
	if cfg.AmountTolerance != "" {
		tolerance, err := decimal.NewFromString(cfg.AmountTolerance)
		if err != nil || tolerance.IsNegative() {
			slog.Warn("Ignoring invalid detection amount tolerance", "value", cfg.AmountTolerance)
		} else {
			detection.AmountTolerance = tolerance
		}
	}
	if cfg.DateWindowDays > 0 {
		detection.DateWindowDays = cfg.DateWindowDays
	}
	if cfg.DriftSampleSize > 0 {
		detection.DriftSampleSize = cfg.DriftSampleSize
	}

	return detection
}

// MatchingConfig builds the recommendation matcher configuration.
func MatchingConfig(cfg config.RecommendationConfig) valueobject.MatchingConfig {
	matching := valueobject.DefaultMatchingConfig()
	if cfg.MinScore > 0 {
		matching.MinScore = cfg.MinScore
	}
	if cfg.MaxSuggestions > 0 {
		matching.MaxSuggestions = cfg.MaxSuggestions
	}
	return matching
}

// BillKeywordPolicy builds the keyword policy from the default keywords plus the configured extras.
func BillKeywordPolicy(cfg config.DetectionConfig) valueobject.BillKeywordPolicy {
	keywords := make([]string, 0, len(valueobject.DefaultBillKeywords)+len(cfg.ExtraBillKeywords))
	keywords = append(keywords, valueobject.DefaultBillKeywords...)
	keywords = append(keywords, cfg.ExtraBillKeywords...)
	return valueobject.NewBillKeywordPolicy(keywords)
}
