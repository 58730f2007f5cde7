package valueobject

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MerchantKey is the normalized grouping identifier of a transaction's counterparty.
type MerchantKey string

// String returns the key as a plain string.
func (k MerchantKey) String() string {
	return string(k)
}

// IsEmpty reports whether normalization produced nothing usable.
func (k MerchantKey) IsEmpty() bool {
	return k == ""
}

// Tokens splits the key into its words.
func (k MerchantKey) Tokens() []string {
	return strings.Fields(string(k))
}

// DisplayName returns the key with each word capitalized.
func (k MerchantKey) DisplayName() string {
	words := k.Tokens()
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + w[size:]
	}
	return strings.Join(words, " ")
}

var (
	embeddedDateRegex = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b|\b\d{1,2}[/.]\d{1,2}(?:[/.]\d{2,4})?\b`)
	referenceRegex    = regexp.MustCompile(`\b(?:ref|reference|txn|trx|auth|id)\b[\s:.#-]*[a-z0-9-]*\d[a-z0-9-]*|[#*]\s*[a-z]*\d[a-z0-9]*`)
	punctuationRegex  = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]+`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numericTokenRegex = regexp.MustCompile(`^[a-z]{0,2}\d{3,}[a-z0-9]*$`)
)

// paymentPrefixes are leading bank-statement markers that say nothing about the merchant.
// Multi-word prefixes come first so they win over their single-word heads.
var paymentPrefixes = []string{
	"direct debit ",
	"payment to ",
	"card payment ",
	"card purchase ",
	"pos purchase ",
	"purchase ",
	"pos ",
	"card ",
	"debit ",
	"dd ",
	"visa ",
	"mastercard ",
}

// genericMerchants are merchant field values too vague to group by.
var genericMerchants = map[string]struct{}{
	"unknown":      {},
	"n a":          {},
	"na":           {},
	"payment":      {},
	"transfer":     {},
	"card payment": {},
	"pos":          {},
	"purchase":     {},
	"debit":        {},
	"online":       {},
	"merchant":     {},
}

// NormalizeMerchant derives the grouping key for a transaction.
// The merchant field wins over the description when it is present and not generic.
func NormalizeMerchant(description string, merchant *string) MerchantKey {
	if merchant != nil {
		key := normalizeText(*merchant)
		if !isGeneric(key) {
			return MerchantKey(key)
		}
	}
	key := normalizeText(description)
	if isGeneric(key) {
		return ""
	}
	return MerchantKey(key)
}

// Normalize re-applies normalization to an existing key.
func (k MerchantKey) Normalize() MerchantKey {
	return MerchantKey(normalizeText(string(k)))
}

func isGeneric(key string) bool {
	if key == "" {
		return true
	}
	_, ok := genericMerchants[key]
	return ok
}

// normalizeText runs the cleaning pass until it reaches a fixed point.
func normalizeText(s string) string {
	for i := 0; i < 4; i++ {
		next := cleanOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func cleanOnce(s string) string {
	s = strings.ToLower(s)
	s = embeddedDateRegex.ReplaceAllString(s, " ")
	s = referenceRegex.ReplaceAllString(s, " ")
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))

	for changed := true; changed; {
		changed = false
		for _, prefix := range paymentPrefixes {
			if strings.HasPrefix(s+" ", prefix) {
				rest := strings.TrimSpace(strings.TrimPrefix(s+" ", prefix))
				if rest == "" {
					break
				}
				s = rest
				changed = true
				break
			}
		}
	}

	tokens := strings.Fields(s)
	for len(tokens) > 1 && numericTokenRegex.MatchString(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
