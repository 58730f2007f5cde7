package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	f, ok := ParseFrequency(" monthly ")
	assert.True(t, ok)
	assert.Equal(t, FrequencyMonthly, f)

	_, ok = ParseFrequency("daily")
	assert.False(t, ok)
}

func TestFrequency_OccurrenceAt(t *testing.T) {
	tests := []struct {
		name      string
		frequency Frequency
		anchor    time.Time
		n         int
		expected  time.Time
	}{
		{"monthly clamps to short month", FrequencyMonthly, date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"monthly keeps anchor day after short month", FrequencyMonthly, date(2024, time.January, 31), 2, date(2024, time.March, 31)},
		{"monthly backwards across year", FrequencyMonthly, date(2024, time.January, 15), -1, date(2023, time.December, 15)},
		{"quarterly", FrequencyQuarterly, date(2024, time.November, 30), 1, date(2025, time.February, 28)},
		{"annual leap day", FrequencyAnnual, date(2024, time.February, 29), 1, date(2025, time.February, 28)},
		{"weekly backwards", FrequencyWeekly, date(2024, time.January, 1), -1, date(2023, time.December, 25)},
		{"fortnightly", FrequencyFortnightly, date(2024, time.January, 1), 2, date(2024, time.January, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.frequency.OccurrenceAt(tt.anchor, tt.n))
		})
	}
}

func TestFrequency_ProjectDates(t *testing.T) {
	t.Run("returns dates inside the window", func(t *testing.T) {
		dates := FrequencyMonthly.ProjectDates(date(2024, time.January, 15), date(2024, time.March, 1), date(2024, time.May, 31))

		require.Len(t, dates, 3)
		assert.Equal(t, date(2024, time.March, 15), dates[0])
		assert.Equal(t, date(2024, time.April, 15), dates[1])
		assert.Equal(t, date(2024, time.May, 15), dates[2])
	})

	t.Run("includes the window bounds", func(t *testing.T) {
		dates := FrequencyWeekly.ProjectDates(date(2024, time.January, 1), date(2024, time.January, 8), date(2024, time.January, 22))

		assert.Equal(t, []time.Time{
			date(2024, time.January, 8),
			date(2024, time.January, 15),
			date(2024, time.January, 22),
		}, dates)
	})

	t.Run("projects before the anchor", func(t *testing.T) {
		dates := FrequencyQuarterly.ProjectDates(date(2024, time.July, 10), date(2024, time.January, 1), date(2024, time.June, 30))

		assert.Equal(t, []time.Time{date(2024, time.January, 10), date(2024, time.April, 10)}, dates)
	})

	t.Run("inverted window is empty", func(t *testing.T) {
		assert.Empty(t, FrequencyMonthly.ProjectDates(date(2024, time.January, 1), date(2024, time.May, 1), date(2024, time.April, 1)))
	})

	t.Run("invalid frequency projects nothing", func(t *testing.T) {
		assert.Empty(t, Frequency("DAILY").ProjectDates(date(2024, time.January, 1), date(2024, time.January, 1), date(2024, time.December, 31)))
	})
}

func TestDateRange(t *testing.T) {
	start := date(2024, time.March, 1)
	end := date(2024, time.March, 31)

	t.Run("contains is inclusive", func(t *testing.T) {
		r := NewDateRange(&start, &end)
		assert.True(t, r.Contains(start))
		assert.True(t, r.Contains(end.Add(23*time.Hour)))
		assert.False(t, r.Contains(date(2024, time.April, 1)))
		assert.False(t, r.Contains(date(2024, time.February, 29)))
	})

	t.Run("open bounds", func(t *testing.T) {
		assert.True(t, AllTime().IsAllTime())
		assert.True(t, NewDateRange(&start, nil).Contains(date(2030, time.January, 1)))
		assert.True(t, NewDateRange(nil, &end).Contains(date(1990, time.January, 1)))
	})

	t.Run("start after end is empty", func(t *testing.T) {
		r := NewDateRange(&end, &start)
		assert.True(t, r.IsEmpty())
		assert.False(t, r.Contains(date(2024, time.March, 15)))
	})
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 29, DaysBetween(date(2024, time.February, 1), date(2024, time.March, 1)))
	assert.Equal(t, -29, DaysBetween(date(2024, time.March, 1), date(2024, time.February, 1)))
	assert.Equal(t, 29, AbsDaysBetween(date(2024, time.March, 1), date(2024, time.February, 1)))
}
