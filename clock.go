package cadence

import (
	"sync"
	"time"
)

// Clock supplies monotonic time to the scheduler.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns time.Now, which carries a monotonic reading.
func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real monotonic clock. It is the default.
func SystemClock() Clock { return systemClock{} }

// ManualClock is a Clock that only moves when told to. Use it to drive Tick
// deterministically in tests and offline rendering.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock returns a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set jumps to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
