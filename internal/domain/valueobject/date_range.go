package valueobject

import "time"

// DateLayout is the calendar date format used on the API surface.
const DateLayout = "2006-01-02"

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	return int(CalendarDate(b).Sub(CalendarDate(a)).Hours() / 24)
}

// AbsDaysBetween returns the absolute number of calendar days between a and b.
func AbsDaysBetween(a, b time.Time) int {
	d := DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}

// DateRange is an inclusive calendar-date filter. A nil bound is open.
// A range whose start is after its end is the empty window.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// NewDateRange creates a date range normalized to calendar dates.
func NewDateRange(start, end *time.Time) DateRange {
	r := DateRange{}
	if start != nil {
		s := CalendarDate(*start)
		r.Start = &s
	}
	if end != nil {
		e := CalendarDate(*end)
		r.End = &e
	}
	return r
}

// AllTime returns the unbounded range.
func AllTime() DateRange {
	return DateRange{}
}

// IsAllTime reports whether neither bound is set.
func (r DateRange) IsAllTime() bool {
	return r.Start == nil && r.End == nil
}

// IsEmpty reports whether no date can fall inside the range.
func (r DateRange) IsEmpty() bool {
	return r.Start != nil && r.End != nil && r.Start.After(*r.End)
}

// Contains reports whether the calendar date of d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	if r.IsEmpty() {
		return false
	}
	d = CalendarDate(d)
	if r.Start != nil && d.Before(*r.Start) {
		return false
	}
	if r.End != nil && d.After(*r.End) {
		return false
	}
	return true
}
