// Package ecs provides ECS adapters for cadence's scheduler.
//
// [Context] implements cadence.AnimationContext for a [Donburi] world.
// The scheduler notifies from its own goroutine; the world is only touched
// from [Context.Flush], which publishes a [ChangedEvent] to
// [ChangedEventType]. [AnimatedValue] binds a cadence.SharedValue to an
// entity and [SyncValues] copies current values into components.
//
// Usage:
//
//	ctx := ecs.NewContext(world)
//	sched, _ := cadence.New(cadence.DefaultConfig(), cadence.WithContext(ctx))
//	sched.Start()
//
//	// each frame, on the world goroutine
//	if ctx.Flush() {
//		ecs.SyncValues(world)
//		events.ProcessAllEvents(world)
//	}
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
