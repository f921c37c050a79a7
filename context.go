package cadence

import "sync/atomic"

// AnimationContext is the one thing the scheduler knows about its host.
// NotifyChanged is called from the tick goroutine at most once per tick, after
// the registry lock has been released. Implementations must not block; set a
// flag or post a message to the UI loop and return.
type AnimationContext interface {
	NotifyChanged()
}

// ContextFunc adapts a plain function to AnimationContext.
type ContextFunc func()

// NotifyChanged calls f.
func (f ContextFunc) NotifyChanged() { f() }

// FlagContext is an AnimationContext for hosts that poll: the tick goroutine
// raises the flag and the render loop takes it once per frame.
type FlagContext struct {
	dirty atomic.Bool
	count atomic.Uint64
}

// NotifyChanged raises the flag.
func (c *FlagContext) NotifyChanged() {
	c.dirty.Store(true)
	c.count.Add(1)
}

// Take reports whether a change was signalled since the last Take and clears
// the flag.
func (c *FlagContext) Take() bool {
	return c.dirty.Swap(false)
}

// Notifications returns how many times NotifyChanged has been called.
func (c *FlagContext) Notifications() uint64 {
	return c.count.Load()
}
