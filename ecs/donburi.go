// Package ecs provides ECS adapters for cadence.
package ecs

import (
	"sync/atomic"

	"github.com/phanxgames/cadence"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// ChangedEvent is published once per Flush when the scheduler reported
// changes since the previous Flush.
type ChangedEvent struct {
	// Ticks is the number of change notifications folded into this event.
	Ticks uint64
}

// ChangedEventType is the Donburi event type for scheduler change
// notifications. Subscribe to this in your ECS systems to react to frames
// where animated values moved.
var ChangedEventType = events.NewEventType[ChangedEvent]()

// AnimatedData binds a spring-backed value to an entity.
type AnimatedData struct {
	Value   *cadence.SharedValue
	Current float32
}

// AnimatedValue is the component type for [AnimatedData].
var AnimatedValue = donburi.NewComponentType[AnimatedData]()

var animatedQuery = donburi.NewQuery(filter.Contains(AnimatedValue))

// Context is a [cadence.AnimationContext] that defers delivery to a Donburi
// world. NotifyChanged runs on the scheduler goroutine, so it only counts;
// Flush publishes on the goroutine that owns the world.
type Context struct {
	world   donburi.World
	pending atomic.Uint64
}

// NewContext creates a Context that publishes into world.
func NewContext(world donburi.World) *Context {
	return &Context{world: world}
}

// NotifyChanged implements [cadence.AnimationContext].
func (c *Context) NotifyChanged() {
	c.pending.Add(1)
}

// Flush publishes a single ChangedEvent if any notifications arrived since
// the last call and reports whether it did. Events are queued; call
// events.ProcessAllEvents or ChangedEventType.ProcessEvents to deliver them.
func (c *Context) Flush() bool {
	n := c.pending.Swap(0)
	if n == 0 {
		return false
	}
	ChangedEventType.Publish(c.world, ChangedEvent{Ticks: n})
	return true
}

// Animate creates an entity carrying v.
func Animate(world donburi.World, v *cadence.SharedValue) donburi.Entity {
	e := world.Create(AnimatedValue)
	AnimatedValue.SetValue(world.Entry(e), AnimatedData{Value: v, Current: v.Get()})
	return e
}

// SyncValues copies the current value of every animated entity into its
// component and returns how many entities changed.
func SyncValues(world donburi.World) int {
	changed := 0
	animatedQuery.Each(world, func(entry *donburi.Entry) {
		d := AnimatedValue.Get(entry)
		if d.Value == nil {
			return
		}
		if v := d.Value.Get(); v != d.Current {
			d.Current = v
			changed++
		}
	})
	return changed
}
