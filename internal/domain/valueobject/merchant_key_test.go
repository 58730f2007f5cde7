package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		name        string
		description string
		merchant    *string
		expected    MerchantKey
	}{
		{
			name:        "strips punctuation and trailing reference number",
			description: "NETFLIX.COM 12345",
			expected:    "netflix com",
		},
		{
			name:        "strips payment prefix",
			description: "DIRECT DEBIT Spotify AB",
			expected:    "spotify ab",
		},
		{
			name:        "strips reference tokens",
			description: "Acme Energy REF 998877",
			expected:    "acme energy",
		},
		{
			name:        "strips embedded dates",
			description: "Gym Membership 2024-03-01",
			expected:    "gym membership",
		},
		{
			name:        "merchant field wins over description",
			description: "CARD PURCHASE 0042 LONDON",
			merchant:    strPtr("Pure Gym Ltd"),
			expected:    "pure gym ltd",
		},
		{
			name:        "generic merchant falls back to description",
			description: "Water Board",
			merchant:    strPtr("Unknown"),
			expected:    "water board",
		},
		{
			name:        "generic description yields empty key",
			description: "PAYMENT",
			expected:    "",
		},
		{
			name:        "keeps accented letters",
			description: "Müller Miete",
			expected:    "müller miete",
		},
		{
			name:        "keeps accents while stripping a trailing reference",
			description: "PÃO DE AÇÚCAR 12345",
			expected:    "pão de açúcar",
		},
		{
			name:        "keeps non-latin scripts",
			description: "ネットフリックス",
			expected:    "ネットフリックス",
		},
		{
			name:        "empty input yields empty key",
			description: "",
			expected:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMerchant(tt.description, tt.merchant))
		})
	}
}

func TestNormalizeMerchant_SameMerchantGroupsTogether(t *testing.T) {
	a := NormalizeMerchant("NETFLIX.COM 12345", nil)
	b := NormalizeMerchant("Netflix.com 67890", nil)

	assert.Equal(t, a, b)
	assert.False(t, a.IsEmpty())
}

func TestMerchantKey_NormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"DIRECT DEBIT Spotify AB",
		"Acme Energy REF 998877",
		"POS 01/02 Corner Shop #4471",
		"  Council   Tax  ",
	}

	for _, in := range inputs {
		key := NormalizeMerchant(in, nil)
		assert.Equal(t, key, key.Normalize(), "input %q", in)
	}
}

func TestNormalizeMerchant_AccentsKeepMerchantsApart(t *testing.T) {
	accented := NormalizeMerchant("Café Olé", nil)
	plain := NormalizeMerchant("Caf Ol", nil)

	assert.Equal(t, MerchantKey("café olé"), accented)
	assert.NotEqual(t, accented, plain)
}

func TestMerchantKey_DisplayName(t *testing.T) {
	assert.Equal(t, "Acme Energy", MerchantKey("acme energy").DisplayName())
	assert.Equal(t, "Água Mineral", MerchantKey("água mineral").DisplayName())
	assert.Equal(t, "", MerchantKey("").DisplayName())
}
