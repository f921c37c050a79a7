// Package cadence is an animation scheduling runtime: one background tick
// loop that drives springs, keyframe tracks and timelines on behalf of a UI,
// so the UI only ever reads values.
//
// # Quick start
//
// Create a scheduler once, start it, and hand out handles:
//
//	sched, err := cadence.Init(cadence.DefaultConfig(),
//		cadence.WithContext(cadence.ContextFunc(window.Invalidate)))
//	if err != nil { ... }
//
//	x, _ := cadence.NewSharedValue(sched, cadence.SpringSnappy, 0)
//	x.Set(240)          // from any goroutine
//	draw(x.Get())       // on the render goroutine
//
// Dropping a handle (or calling Release) is all the cleanup there is. The
// tick loop notices on its next pass and frees the slot.
//
// For tests and offline rendering, build a scheduler with [New] and a
// [ManualClock] and call [Scheduler.Tick] yourself.
//
// # Springs
//
// [Spring] integrates a damped harmonic oscillator with fourth-order
// Runge-Kutta and snaps onto its target once within the settling tolerance
// ([Epsilon]). Named presets are [SpringGentle], [SpringWobbly],
// [SpringStiff], [SpringSnappy] and [SpringMolasses].
//
// # Keyframes
//
// [KeyframeTrack] holds sorted timed values with per-segment [Easing] and a
// [Playback] policy: fill mode, direction, iteration count and delay.
// [MultiKeyframeTrack] animates several named properties from one cursor and
// [TypedTrack] interpolates any [Lerper] such as [Vec3], [Color], [LabColor]
// or [Quat]. Easing curves come from [gween].
//
// # Timelines
//
// [Timeline] places registered animations and inline [Tween] entries at
// offsets. [StaggerOffsets] and [StaggerEntries] compute cascaded offsets.
// A registered timeline positions the keyframe tracks and timelines it
// references; springs it references can be retargeted at an offset.
//
// # Ordering
//
// Within a tick springs step first, then keyframe tracks, then timelines.
// Tick callbacks and the [AnimationContext] run after the registry lock is
// released, and the context is notified at most once per tick.
//
// [gween]: https://github.com/tanema/gween
package cadence
