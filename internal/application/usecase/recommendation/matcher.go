// Package recommendation contains the transaction-to-pattern recommendation use cases.
package recommendation

import (
	"sort"
	"strings"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// Matcher scores unlinked transactions against a user's patterns.
type Matcher struct {
	config valueobject.MatchingConfig
	policy valueobject.BillKeywordPolicy
}

// NewMatcher creates a new Matcher.
func NewMatcher(config valueobject.MatchingConfig, policy valueobject.BillKeywordPolicy) *Matcher {
	return &Matcher{
		config: config,
		policy: policy,
	}
}

// Score computes the weighted match score of one pair.
func (m *Matcher) Score(tx *entity.Transaction, pattern *entity.BillPattern) (float64, entity.ScoreBreakdown) {
	breakdown := entity.ScoreBreakdown{
		Text:       textSimilarity(tx.MerchantKey(), valueobject.MerchantKey(pattern.MerchantKey)),
		Amount:     m.config.AmountCloseness(tx.Amount, pattern.BaseAmount),
		Category:   categoryMatch(tx, pattern),
		Recurrence: m.recurrencePlausibility(tx),
	}

	score := m.config.TextWeight*breakdown.Text +
		m.config.AmountWeight*breakdown.Amount +
		m.config.CategoryWeight*breakdown.Category +
		m.config.RecurrenceWeight*breakdown.Recurrence

	return valueobject.RoundScore(score), breakdown
}

// Match returns the pairs scoring at least the configured minimum, best first,
// capped at the configured number of suggestions.
func (m *Matcher) Match(transactions []*entity.Transaction, patterns []*entity.BillPattern) []*entity.MatchCandidate {
	var matches []*entity.MatchCandidate
	for _, tx := range transactions {
		if !tx.IsExpense() || tx.BillPatternID != nil || tx.IsUserOneTime() {
			continue
		}
		for _, pattern := range patterns {
			if pattern.Excludes(tx.ID) {
				continue
			}
			score, breakdown := m.Score(tx, pattern)
			if score < m.config.MinScore {
				continue
			}
			matches = append(matches, &entity.MatchCandidate{
				Transaction: tx,
				Pattern:     pattern,
				Score:       score,
				Breakdown:   breakdown,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Transaction.Date.Equal(b.Transaction.Date) {
			return a.Transaction.Date.After(b.Transaction.Date)
		}
		if a.Transaction.ID != b.Transaction.ID {
			return a.Transaction.ID.String() < b.Transaction.ID.String()
		}
		return a.Pattern.ID.String() < b.Pattern.ID.String()
	})

	if m.config.MaxSuggestions > 0 && len(matches) > m.config.MaxSuggestions {
		matches = matches[:m.config.MaxSuggestions]
	}
	return matches
}

func (m *Matcher) recurrencePlausibility(tx *entity.Transaction) float64 {
	if (tx.IsExpense() && m.config.IsPlausibleBillAmount(tx.Amount)) || m.policy(tx.Text()) {
		return 1
	}
	return 0
}

// textSimilarity is 1 for equal keys, 0.8 when one key contains the other, and the
// token Jaccard index otherwise.
func textSimilarity(a, b valueobject.MerchantKey) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a.String(), b.String()) || strings.Contains(b.String(), a.String()) {
		return 0.8
	}

	tokensA := make(map[string]struct{})
	for _, t := range a.Tokens() {
		tokensA[t] = struct{}{}
	}
	union := len(tokensA)
	shared := 0
	seen := make(map[string]struct{})
	for _, t := range b.Tokens() {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := tokensA[t]; ok {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func categoryMatch(tx *entity.Transaction, pattern *entity.BillPattern) float64 {
	if tx.CategoryID != nil && pattern.CategoryID != nil && *tx.CategoryID == *pattern.CategoryID {
		return 1
	}
	return 0
}
