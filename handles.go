package cadence

import (
	"maps"
	"math"
	"sync"
	"sync/atomic"
	"weak"
)

// handle is the ownership half shared by every Shared* type: a weak
// reference to the scheduler and the only strong reference to the slot's
// lease. Dropping the handle (or calling Release) lets the next tick free
// the slot.
type handle struct {
	sched weak.Pointer[Scheduler]
	lease *lease
}

func newHandle(s *Scheduler, label string) handle {
	return handle{sched: weak.Make(s), lease: newLease(label)}
}

// scheduler returns the owning scheduler, or nil once it is gone or the
// handle was released.
func (h *handle) scheduler() *Scheduler {
	if h.lease == nil || h.lease.released.Load() {
		return nil
	}
	return h.sched.Value()
}

// Release gives up the animation. The scheduler frees the slot on its next
// tick; reads afterwards return the last known value. Release is idempotent.
func (h *handle) Release() {
	h.lease.release()
}

// Released reports whether Release has been called.
func (h *handle) Released() bool {
	return h.lease == nil || h.lease.released.Load()
}

// SharedValue is a spring-driven scalar owned by the caller. Write targets
// with Set from any goroutine and read the animated value with Get.
type SharedValue struct {
	handle
	id     SpringId
	last   atomic.Uint32
	target atomic.Uint32
}

// NewSharedValue registers a spring on s at rest at initial.
func NewSharedValue(s *Scheduler, cfg SpringConfig, initial float32) (*SharedValue, error) {
	if s == nil || !s.ready {
		return nil, ErrNotInitialized
	}
	v := &SharedValue{handle: newHandle(s, "spring")}
	id, err := s.registerSpring(cfg, initial, v.lease)
	if err != nil {
		return nil, err
	}
	v.id = id
	v.last.Store(math.Float32bits(initial))
	v.target.Store(math.Float32bits(initial))
	return v, nil
}

// ID returns the spring id.
func (v *SharedValue) ID() SpringId { return v.id }

// refresh records the spring's value and target, whoever set them.
func (v *SharedValue) refresh() (Snapshot, bool) {
	s := v.scheduler()
	if s == nil {
		return Snapshot{}, false
	}
	snap, ok := s.Snapshot(v.id)
	if ok {
		v.last.Store(math.Float32bits(snap.Value))
		v.target.Store(math.Float32bits(snap.Target))
	}
	return snap, ok
}

// Get returns the current animated value. Once the spring is gone it returns
// the last value read.
func (v *SharedValue) Get() float32 {
	if snap, ok := v.refresh(); ok {
		return snap.Value
	}
	return math.Float32frombits(v.last.Load())
}

// Target returns the spring's target, including targets set by timelines or
// through the scheduler. Once the spring is gone it returns the last target
// read.
func (v *SharedValue) Target() float32 {
	if snap, ok := v.refresh(); ok {
		return snap.Target
	}
	return math.Float32frombits(v.target.Load())
}

// Release records the final value and target, then gives up the spring.
func (v *SharedValue) Release() {
	v.refresh()
	v.handle.Release()
}

// Set animates toward target.
func (v *SharedValue) Set(target float32) error {
	s := v.scheduler()
	if s == nil {
		return staleErr(v.id)
	}
	if err := s.SetTarget(v.id, target); err != nil {
		return err
	}
	v.target.Store(math.Float32bits(target))
	return nil
}

// SetImmediate jumps to value without animating.
func (v *SharedValue) SetImmediate(value float32) error {
	s := v.scheduler()
	if s == nil {
		return staleErr(v.id)
	}
	if err := s.SetImmediate(v.id, value); err != nil {
		return err
	}
	v.last.Store(math.Float32bits(value))
	v.target.Store(math.Float32bits(value))
	return nil
}

// SetConfig swaps the spring parameters.
func (v *SharedValue) SetConfig(cfg SpringConfig) error {
	s := v.scheduler()
	if s == nil {
		return staleErr(v.id)
	}
	return s.SetSpringConfig(v.id, cfg)
}

// IsAnimating reports whether the spring is still moving.
func (v *SharedValue) IsAnimating() bool {
	snap, ok := v.refresh()
	return ok && !snap.AtRest
}

// SharedKeyframe is a caller-owned keyframe track, scalar or multi-property.
type SharedKeyframe struct {
	handle
	id KeyframeId

	mu        sync.Mutex
	lastValue float32
	lastOK    bool
	lastProps map[string]float32
}

// NewSharedKeyframe registers a scalar track on s and starts it.
func NewSharedKeyframe(s *Scheduler, track KeyframeTrack) (*SharedKeyframe, error) {
	return newSharedKeyframe(s, keyframeSlot{scalar: track})
}

// NewSharedMultiKeyframe registers a multi-property track on s and starts it.
func NewSharedMultiKeyframe(s *Scheduler, track MultiKeyframeTrack) (*SharedKeyframe, error) {
	return newSharedKeyframe(s, keyframeSlot{
		multi:   &track,
		props:   make(map[string]float32, len(track.names)),
		scratch: make(map[string]float32, len(track.names)),
	})
}

func newSharedKeyframe(s *Scheduler, slot keyframeSlot) (*SharedKeyframe, error) {
	if s == nil || !s.ready {
		return nil, ErrNotInitialized
	}
	k := &SharedKeyframe{handle: newHandle(s, "keyframe")}
	id, err := s.registerKeyframe(slot, k.lease)
	if err != nil {
		return nil, err
	}
	k.id = id
	return k, nil
}

// ID returns the track id.
func (k *SharedKeyframe) ID() KeyframeId { return k.id }

// Get returns a scalar track's value, or the last value seen once the track
// is gone.
func (k *SharedKeyframe) Get() (float32, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if s := k.scheduler(); s != nil {
		if snap, ok := s.Snapshot(k.id); ok {
			k.lastValue, k.lastOK = snap.Value, snap.Defined && snap.Properties == nil
		}
	}
	return k.lastValue, k.lastOK
}

// Properties returns a multi-property track's values, or the last seen
// values once the track is gone. Scalar tracks report nil.
func (k *SharedKeyframe) Properties() map[string]float32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if s := k.scheduler(); s != nil {
		if props, ok := s.KeyframeProperties(k.id); ok {
			k.lastProps = props
		}
	}
	return maps.Clone(k.lastProps)
}

// Start rewinds and plays the track.
func (k *SharedKeyframe) Start() error {
	if s := k.scheduler(); s != nil {
		return s.StartKeyframe(k.id)
	}
	return staleErr(k.id)
}

// Stop halts the track where it is.
func (k *SharedKeyframe) Stop() error {
	if s := k.scheduler(); s != nil {
		return s.StopKeyframe(k.id)
	}
	return staleErr(k.id)
}

// Seek jumps to elapsed seconds.
func (k *SharedKeyframe) Seek(elapsed float32) error {
	if s := k.scheduler(); s != nil {
		return s.SeekKeyframe(k.id, elapsed)
	}
	return staleErr(k.id)
}

// SharedTimeline is a caller-owned timeline.
type SharedTimeline struct {
	handle
	id       TimelineId
	progress atomic.Uint32
}

// NewSharedTimeline registers tl on s and starts it.
func NewSharedTimeline(s *Scheduler, tl Timeline) (*SharedTimeline, error) {
	if s == nil || !s.ready {
		return nil, ErrNotInitialized
	}
	t := &SharedTimeline{handle: newHandle(s, "timeline")}
	id, err := s.registerTimeline(tl, t.lease)
	if err != nil {
		return nil, err
	}
	t.id = id
	return t, nil
}

// ID returns the timeline id.
func (t *SharedTimeline) ID() TimelineId { return t.id }

// Progress returns completion in [0, 1], or the last seen progress once the
// timeline is gone.
func (t *SharedTimeline) Progress() float32 {
	if s := t.scheduler(); s != nil {
		if p, ok := s.TimelineProgress(t.id); ok {
			t.progress.Store(math.Float32bits(p))
			return p
		}
	}
	return math.Float32frombits(t.progress.Load())
}

// EntryValue returns the value of entry i.
func (t *SharedTimeline) EntryValue(i int) (float32, bool) {
	if s := t.scheduler(); s != nil {
		return s.TimelineEntryValue(t.id, i)
	}
	return 0, false
}

// Start rewinds and plays the timeline.
func (t *SharedTimeline) Start() error {
	if s := t.scheduler(); s != nil {
		return s.StartTimeline(t.id)
	}
	return staleErr(t.id)
}

// Pause freezes the timeline.
func (t *SharedTimeline) Pause() error {
	if s := t.scheduler(); s != nil {
		return s.PauseTimeline(t.id)
	}
	return staleErr(t.id)
}

// Resume continues a paused timeline.
func (t *SharedTimeline) Resume() error {
	if s := t.scheduler(); s != nil {
		return s.ResumeTimeline(t.id)
	}
	return staleErr(t.id)
}

// Seek jumps to elapsed seconds of timeline time.
func (t *SharedTimeline) Seek(elapsed float32) error {
	if s := t.scheduler(); s != nil {
		return s.SeekTimeline(t.id, elapsed)
	}
	return staleErr(t.id)
}
