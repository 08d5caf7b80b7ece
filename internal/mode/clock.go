package mode

import (
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock returns a clock stopped at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SuppressionWindow is a deadline before which self-generated echoes are
// ignored. The zero value is closed.
type SuppressionWindow struct {
	until time.Time
}

// Open extends the window to now+d. A window never shrinks.
func (w *SuppressionWindow) Open(now time.Time, d time.Duration) {
	if until := now.Add(d); until.After(w.until) {
		w.until = until
	}
}

// Active reports whether now is still inside the window.
func (w *SuppressionWindow) Active(now time.Time) bool {
	return now.Before(w.until)
}

// Until returns the deadline.
func (w *SuppressionWindow) Until() time.Time {
	return w.until
}
