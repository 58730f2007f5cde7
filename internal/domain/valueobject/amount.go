package valueobject

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MedianAmount returns the median of amounts, averaging the middle pair for even counts.
func MedianAmount(amounts []decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	sorted := append([]decimal.Decimal(nil), amounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)).Round(2)
}
