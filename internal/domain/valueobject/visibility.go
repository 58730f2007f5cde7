package valueobject

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenLinkedCount counts linked occurrences that fall outside an active date filter.
type HiddenLinkedCount struct {
	Total  int
	ByYear map[int]int
}

// NewHiddenLinkedCount creates an empty count.
func NewHiddenLinkedCount() HiddenLinkedCount {
	return HiddenLinkedCount{ByYear: make(map[int]int)}
}

// Add records one hidden linked occurrence in the given year.
func (h *HiddenLinkedCount) Add(year int) {
	if h.ByYear == nil {
		h.ByYear = make(map[int]int)
	}
	h.Total++
	h.ByYear[year]++
}

// Years returns the years with hidden occurrences in ascending order.
func (h HiddenLinkedCount) Years() []int {
	years := make([]int, 0, len(h.ByYear))
	for y := range h.ByYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Summary renders the user-facing notice, or "" when nothing is hidden.
func (h HiddenLinkedCount) Summary() string {
	if h.Total == 0 {
		return ""
	}

	parts := make([]string, 0, len(h.ByYear))
	for _, y := range h.Years() {
		parts = append(parts, fmt.Sprintf("%d in %d", h.ByYear[y], y))
	}

	noun := "transactions are"
	if h.Total == 1 {
		noun = "transaction is"
	}
	return fmt.Sprintf("%d linked %s outside the selected date range (%s). Widen the date filter to see them.",
		h.Total, noun, strings.Join(parts, ", "))
}
