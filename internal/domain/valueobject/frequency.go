// Package valueobject contains domain value objects for the bill pattern engine.
package valueobject

import (
	"strings"
	"time"
)

// Frequency is the recurrence period of a bill pattern.
type Frequency string

const (
	FrequencyWeekly      Frequency = "WEEKLY"
	FrequencyFortnightly Frequency = "FORTNIGHTLY"
	FrequencyMonthly     Frequency = "MONTHLY"
	FrequencyQuarterly   Frequency = "QUARTERLY"
	FrequencyAnnual      Frequency = "ANNUAL"
)

// IsValid checks if the frequency is one of the supported values.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return true
	}
	return false
}

// ParseFrequency parses a frequency name case-insensitively.
func ParseFrequency(s string) (Frequency, bool) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	return f, f.IsValid()
}

// NominalDays returns the approximate length of one period in days.
func (f Frequency) NominalDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyFortnightly:
		return 14
	case FrequencyMonthly:
		return 30
	case FrequencyQuarterly:
		return 91
	case FrequencyAnnual:
		return 365
	}
	return 0
}

// monthStep returns the number of calendar months per period, or 0 for day-based frequencies.
func (f Frequency) monthStep() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyAnnual:
		return 12
	}
	return 0
}

// OccurrenceAt returns the n-th expected date counted from anchor. n may be negative.
// Calendar frequencies keep the anchor's day-of-month, clamped to the month length.
func (f Frequency) OccurrenceAt(anchor time.Time, n int) time.Time {
	anchor = CalendarDate(anchor)
	if step := f.monthStep(); step > 0 {
		return addMonthsClamped(anchor, n*step)
	}
	return anchor.AddDate(0, 0, n*f.NominalDays())
}

// ProjectDates returns every expected date of the series anchored at anchor that falls in [from, through].
func (f Frequency) ProjectDates(anchor, from, through time.Time) []time.Time {
	if !f.IsValid() {
		return nil
	}
	from = CalendarDate(from)
	through = CalendarDate(through)
	if from.After(through) {
		return nil
	}

	// Start a little before the estimated first index; the series is monotonic in n.
	n := DaysBetween(anchor, from)/f.NominalDays() - 2

	var dates []time.Time
	for {
		d := f.OccurrenceAt(anchor, n)
		if d.After(through) {
			break
		}
		if !d.Before(from) {
			dates = append(dates, d)
		}
		n++
	}
	return dates
}

func addMonthsClamped(anchor time.Time, months int) time.Time {
	year, month, day := anchor.Date()
	total := int(month) - 1 + months
	year += floorDiv(total, 12)
	m := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := daysInMonth(year, m); day > last {
		day = last
	}
	return time.Date(year, m, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
