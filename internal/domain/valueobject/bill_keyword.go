package valueobject

import (
	"regexp"
	"strings"
)

// BillKeywordPolicy decides from free text whether a transaction reads like a bill.
type BillKeywordPolicy func(text string) bool

// DefaultBillKeywords are the terms that mark a description as a recurring payment.
var DefaultBillKeywords = []string{"subscription", "membership", "monthly", "recurring", "bill", "payment"}

// NewBillKeywordPolicy builds a case-insensitive word-prefix matcher over the given keywords.
func NewBillKeywordPolicy(keywords []string) BillKeywordPolicy {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return func(string) bool { return false }
	}

	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`)
	return func(text string) bool {
		return re.MatchString(text)
	}
}

// DefaultBillKeywordPolicy returns the policy over DefaultBillKeywords.
func DefaultBillKeywordPolicy() BillKeywordPolicy {
	return NewBillKeywordPolicy(DefaultBillKeywords)
}
