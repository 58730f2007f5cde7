package mock

import (
	"sync"
	"time"
)

// Time is a settable clock. It starts frozen at the given instant.
type Time struct {
	mu      sync.Mutex
	current time.Time
}

// NewTime creates a clock frozen at current.
func NewTime(current time.Time) *Time {
	return &Time{current: current}
}

// SetCurrentTime moves the clock.
func (t *Time) SetCurrentTime(current time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = current
}

// Advance moves the clock forward by d.
func (t *Time) Advance(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = t.current.Add(d)
}

// Now returns the clock's current instant.
func (t *Time) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
