package cadence

import (
	"fmt"
	"maps"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tanema/gween"
	"go.uber.org/zap"
)

// TickCallback runs on the tick goroutine after every tick, outside the
// registry lock. changed reports whether any animated value moved. Callbacks
// must not block. They may use the registry (SetTarget, Unregister and so
// on) but must not call Tick or Stop.
//
// The callbacks for a tick are collected before any of them runs, so a
// callback unregistered while a tick is in flight, including by another
// callback of the same tick, is still called for that tick and never after.
type TickCallback func(changed bool)

// maxTimelineDepth bounds timeline nesting when resolving durations and
// driving children.
const maxTimelineDepth = 32

type springSlot struct {
	spring  Spring
	resting bool
	// moving counts seconds since the spring last left rest.
	moving float32
}

type keyframeSlot struct {
	scalar  KeyframeTrack
	multi   *MultiKeyframeTrack
	elapsed float32
	playing bool
	// driven is set while a live timeline references this track; the timeline
	// then positions it and the track does not advance on its own.
	driven  bool
	value   float32
	defined bool
	props   map[string]float32
	scratch map[string]float32
}

func (k *keyframeSlot) totalDuration() float32 {
	if k.multi != nil {
		return k.multi.TotalDuration()
	}
	return k.scalar.TotalDuration()
}

func (k *keyframeSlot) wrap(elapsed float32) float32 {
	if k.multi != nil {
		return k.multi.wrap(k.multi.Duration(), elapsed)
	}
	return k.scalar.wrap(k.scalar.Duration(), elapsed)
}

// seek positions the track at elapsed and reports whether its output changed.
// An infinite track keeps elapsed within its first two traversals.
func (k *keyframeSlot) seek(elapsed float32) bool {
	elapsed = k.wrap(elapsed)
	k.elapsed = elapsed
	if k.multi != nil {
		k.multi.evaluateInto(elapsed, k.scratch)
		if maps.Equal(k.props, k.scratch) {
			return false
		}
		k.props, k.scratch = k.scratch, k.props
		return true
	}
	v, ok := k.scalar.Evaluate(elapsed)
	changed := v != k.value || ok != k.defined
	k.value, k.defined = v, ok
	return changed
}

type timelineSlot struct {
	tl        Timeline
	tweens    []*gween.Tween
	values    []float32
	fired     []bool
	iteration int
	elapsed   float32
	playing   bool
	driven    bool
	progress  float32
}

type callbackSlot struct {
	fn TickCallback
}

// Scheduler owns every registered animation and advances them on Tick. All
// methods are safe for concurrent use; each holds the registry lock for O(1)
// work only. The zero value is not usable; create schedulers with New or Init.
type Scheduler struct {
	mu        sync.Mutex
	springs   table[springSlot]
	keyframes table[keyframeSlot]
	timelines table[timelineSlot]
	callbacks table[callbackSlot]
	last      time.Time
	paused    bool

	ready bool
	cfg   Config
	clock Clock
	ctx   AnimationContext
	log   *zap.Logger
	id    uuid.UUID

	// tickMu serializes Tick so the callback scratch slice can be reused.
	tickMu  sync.Mutex
	cbBuf   []TickCallback
	pruneCt int

	needsRedraw atomic.Bool
	continuous  atomic.Bool

	lifeMu  sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	ticks    atomic.Uint64
	pruned   atomic.Uint64
	forced   atomic.Uint64
	lastTick atomic.Int64
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock, typically with a ManualClock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithContext sets the host notified when a tick changes something.
func WithContext(ctx AnimationContext) Option {
	return func(s *Scheduler) { s.ctx = ctx }
}

// New validates cfg and returns a stopped scheduler. Call Start to run the
// background tick loop, or call Tick yourself.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:   cfg,
		clock: SystemClock(),
		log:   zap.NewNop(),
		id:    uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("scheduler", s.id.String()))
	s.last = s.clock.Now()
	s.ready = true
	return s, nil
}

// ID returns the scheduler's instance id, as used in its log lines.
func (s *Scheduler) ID() uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.id
}

// Config returns the configuration the scheduler was built with.
func (s *Scheduler) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.cfg
}

// lock acquires the registry lock, or reports ErrNotInitialized for a zero or
// nil scheduler.
func (s *Scheduler) lock() error {
	if s == nil || !s.ready {
		return ErrNotInitialized
	}
	s.mu.Lock()
	return nil
}

func staleErr(id ID) error {
	return fmt.Errorf("%w: %v", ErrStaleHandle, id)
}

// --- springs ---

// RegisterSpring adds a spring at rest at initial. The spring lives until
// Unregister; use NewSharedValue for a handle that cleans up after itself.
func (s *Scheduler) RegisterSpring(cfg SpringConfig, initial float32) (SpringId, error) {
	return s.registerSpring(cfg, initial, nil)
}

func (s *Scheduler) registerSpring(cfg SpringConfig, initial float32, owner *lease) (SpringId, error) {
	if err := cfg.Validate(); err != nil {
		return SpringId{}, err
	}
	if !finite32(initial) {
		return SpringId{}, fmt.Errorf("%w: spring initial value %v", ErrInvalidConfiguration, initial)
	}
	if err := s.lock(); err != nil {
		return SpringId{}, err
	}
	defer s.mu.Unlock()
	sp := NewSpring(cfg, initial)
	sp.SetEpsilon(s.cfg.Epsilon)
	k := s.springs.insert(springSlot{spring: sp, resting: true}, owner)
	return SpringId{k}, nil
}

// SetTarget moves the spring's target. The next tick integrates toward it;
// setting the same target twice between ticks is the same as setting it once.
func (s *Scheduler) SetTarget(id SpringId, target float32) error {
	if !finite32(target) {
		return fmt.Errorf("%w: spring target %v", ErrInvalidConfiguration, target)
	}
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	sp := s.springs.get(id.k)
	if sp == nil {
		return staleErr(id)
	}
	if sp.spring.Target() != target {
		sp.spring.SetTarget(target)
		sp.moving = 0
	}
	return nil
}

// SetSpringConfig swaps the spring's parameters from the next tick on.
func (s *Scheduler) SetSpringConfig(id SpringId, cfg SpringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	sp := s.springs.get(id.k)
	if sp == nil {
		return staleErr(id)
	}
	sp.spring.SetConfig(cfg)
	return nil
}

// SetImmediate jumps the spring to value and leaves it at rest there.
func (s *Scheduler) SetImmediate(id SpringId, value float32) error {
	if !finite32(value) {
		return fmt.Errorf("%w: spring value %v", ErrInvalidConfiguration, value)
	}
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	sp := s.springs.get(id.k)
	if sp == nil {
		return staleErr(id)
	}
	if sp.spring.Value() != value {
		s.needsRedraw.Store(true)
	}
	sp.spring.SetImmediate(value)
	sp.moving = 0
	return nil
}

// SpringValue returns the spring's current value, or false when id is stale.
func (s *Scheduler) SpringValue(id SpringId) (float32, bool) {
	if s.lock() != nil {
		return 0, false
	}
	defer s.mu.Unlock()
	sp := s.springs.get(id.k)
	if sp == nil {
		return 0, false
	}
	return sp.spring.Value(), true
}

// --- keyframes ---

// RegisterKeyframe adds a scalar track and starts playing it.
func (s *Scheduler) RegisterKeyframe(track KeyframeTrack) (KeyframeId, error) {
	return s.registerKeyframe(keyframeSlot{scalar: track}, nil)
}

// RegisterMultiKeyframe adds a multi-property track and starts playing it.
func (s *Scheduler) RegisterMultiKeyframe(track MultiKeyframeTrack) (KeyframeId, error) {
	return s.registerKeyframe(keyframeSlot{
		multi:   &track,
		props:   make(map[string]float32, len(track.names)),
		scratch: make(map[string]float32, len(track.names)),
	}, nil)
}

func (s *Scheduler) registerKeyframe(slot keyframeSlot, owner *lease) (KeyframeId, error) {
	if (slot.multi == nil && len(slot.scalar.points) == 0) || (slot.multi != nil && len(slot.multi.tracks) == 0) {
		return KeyframeId{}, fmt.Errorf("%w: keyframe track has no points", ErrInvalidConfiguration)
	}
	if err := s.lock(); err != nil {
		return KeyframeId{}, err
	}
	defer s.mu.Unlock()
	slot.playing = true
	slot.seek(0)
	k := s.keyframes.insert(slot, owner)
	return KeyframeId{k}, nil
}

// StartKeyframe rewinds the track and plays it from the beginning.
func (s *Scheduler) StartKeyframe(id KeyframeId) error {
	return s.withKeyframe(id, func(k *keyframeSlot) {
		k.playing = true
		k.seek(0)
	})
}

// StopKeyframe halts the track where it is.
func (s *Scheduler) StopKeyframe(id KeyframeId) error {
	return s.withKeyframe(id, func(k *keyframeSlot) { k.playing = false })
}

// SeekKeyframe jumps the track to elapsed seconds without changing whether
// it plays.
func (s *Scheduler) SeekKeyframe(id KeyframeId, elapsed float32) error {
	if !finite32(elapsed) {
		return fmt.Errorf("%w: seek to %v", ErrInvalidConfiguration, elapsed)
	}
	return s.withKeyframe(id, func(k *keyframeSlot) {
		if k.seek(elapsed) {
			s.needsRedraw.Store(true)
		}
	})
}

func (s *Scheduler) withKeyframe(id KeyframeId, fn func(*keyframeSlot)) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	k := s.keyframes.get(id.k)
	if k == nil {
		return staleErr(id)
	}
	fn(k)
	return nil
}

// KeyframeValue returns a scalar track's value. It reports false when id is
// stale, names a multi-property track, or the fill mode leaves the value
// undefined at the current position.
func (s *Scheduler) KeyframeValue(id KeyframeId) (float32, bool) {
	if s.lock() != nil {
		return 0, false
	}
	defer s.mu.Unlock()
	k := s.keyframes.get(id.k)
	if k == nil || k.multi != nil {
		return 0, false
	}
	return k.value, k.defined
}

// KeyframeProperties returns a copy of the defined property values of a
// multi-property track. It reports false for scalar tracks; read those with
// KeyframeValue.
func (s *Scheduler) KeyframeProperties(id KeyframeId) (map[string]float32, bool) {
	if s.lock() != nil {
		return nil, false
	}
	defer s.mu.Unlock()
	k := s.keyframes.get(id.k)
	if k == nil || k.multi == nil {
		return nil, false
	}
	return maps.Clone(k.props), true
}

// --- timelines ---

// RegisterTimeline validates tl and starts playing it. Referenced keyframe
// tracks and timelines are positioned by tl from then on.
func (s *Scheduler) RegisterTimeline(tl Timeline) (TimelineId, error) {
	return s.registerTimeline(tl, nil)
}

func (s *Scheduler) registerTimeline(tl Timeline, owner *lease) (TimelineId, error) {
	if err := tl.Validate(); err != nil {
		return TimelineId{}, err
	}
	n := len(tl.Entries)
	slot := timelineSlot{
		tl:      Timeline{Entries: make([]TimelineEntry, n), Iterations: tl.Iterations, Alternate: tl.Alternate, Rate: tl.Rate},
		tweens:  make([]*gween.Tween, n),
		values:  make([]float32, n),
		fired:   make([]bool, n),
		playing: true,
	}
	for i, e := range tl.Entries {
		if e.Tween != nil {
			tw := *e.Tween
			e.Tween = &tw
			slot.tweens[i] = tw.newGween()
			slot.values[i] = tw.From
		}
		slot.tl.Entries[i] = e
	}
	if err := s.lock(); err != nil {
		return TimelineId{}, err
	}
	defer s.mu.Unlock()
	k := s.timelines.insert(slot, owner)
	return TimelineId{k}, nil
}

// StartTimeline rewinds the timeline and plays it from the beginning.
func (s *Scheduler) StartTimeline(id TimelineId) error {
	return s.withTimeline(id, func(t *timelineSlot) {
		t.elapsed = 0
		t.playing = true
		t.iteration = 0
		clear(t.fired)
	})
}

// PauseTimeline freezes the timeline at its current position.
func (s *Scheduler) PauseTimeline(id TimelineId) error {
	return s.withTimeline(id, func(t *timelineSlot) { t.playing = false })
}

// ResumeTimeline continues a paused timeline.
func (s *Scheduler) ResumeTimeline(id TimelineId) error {
	return s.withTimeline(id, func(t *timelineSlot) { t.playing = true })
}

// SeekTimeline jumps to elapsed seconds of timeline time. The children are
// repositioned on the next tick.
func (s *Scheduler) SeekTimeline(id TimelineId, elapsed float32) error {
	if !finite32(elapsed) || elapsed < 0 {
		return fmt.Errorf("%w: seek to %v", ErrInvalidConfiguration, elapsed)
	}
	return s.withTimeline(id, func(t *timelineSlot) {
		t.elapsed = t.tl.playback().wrap(s.timelineDuration(t, 0), elapsed)
		clear(t.fired)
		s.needsRedraw.Store(true)
	})
}

func (s *Scheduler) withTimeline(id TimelineId, fn func(*timelineSlot)) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	t := s.timelines.get(id.k)
	if t == nil {
		return staleErr(id)
	}
	fn(t)
	return nil
}

// TimelineEntryValue returns the last value produced by entry i of the
// timeline: a tween's sample, a spring's or keyframe track's value, or a
// nested timeline's progress.
func (s *Scheduler) TimelineEntryValue(id TimelineId, i int) (float32, bool) {
	if s.lock() != nil {
		return 0, false
	}
	defer s.mu.Unlock()
	t := s.timelines.get(id.k)
	if t == nil || i < 0 || i >= len(t.values) {
		return 0, false
	}
	return t.values[i], true
}

// TimelineProgress returns how far through its full run the timeline is, in
// [0, 1]. Infinite timelines report the progress of the current iteration.
func (s *Scheduler) TimelineProgress(id TimelineId) (float32, bool) {
	if s.lock() != nil {
		return 0, false
	}
	defer s.mu.Unlock()
	t := s.timelines.get(id.k)
	if t == nil {
		return 0, false
	}
	return t.progress, true
}

// TimelineDuration returns one iteration's length: the latest entry end,
// where springs and stale references contribute nothing.
func (s *Scheduler) TimelineDuration(id TimelineId) (float32, bool) {
	if s.lock() != nil {
		return 0, false
	}
	defer s.mu.Unlock()
	t := s.timelines.get(id.k)
	if t == nil {
		return 0, false
	}
	return s.timelineDuration(t, 0), true
}

// timelineDuration is max(offset + entry duration) over the entries.
func (s *Scheduler) timelineDuration(t *timelineSlot, depth int) float32 {
	var d float32
	for _, e := range t.tl.Entries {
		d = max(d, e.Offset+s.entryDuration(e, depth))
	}
	return d
}

func (s *Scheduler) entryDuration(e TimelineEntry, depth int) float32 {
	if e.Tween != nil {
		return e.Tween.Duration
	}
	switch id := e.Animation.(type) {
	case KeyframeId:
		if k := s.keyframes.get(id.k); k != nil {
			return k.totalDuration()
		}
	case TimelineId:
		if depth >= maxTimelineDepth {
			return 0
		}
		if t := s.timelines.get(id.k); t != nil {
			return s.timelineTotal(t, depth+1)
		}
	}
	return 0
}

// timelineTotal is the wall length of every iteration at the timeline's rate.
func (s *Scheduler) timelineTotal(t *timelineSlot, depth int) float32 {
	d := s.timelineDuration(t, depth)
	n := t.tl.playback().iterations()
	if n == 0 {
		if d <= 0 {
			return 0
		}
		return float32(math.Inf(1))
	}
	return d * float32(n) / t.tl.rate()
}

// --- tick callbacks ---

// RegisterTickCallback adds fn to the list run after every tick.
func (s *Scheduler) RegisterTickCallback(fn TickCallback) (TickCallbackId, error) {
	if fn == nil {
		return TickCallbackId{}, fmt.Errorf("%w: nil tick callback", ErrInvalidConfiguration)
	}
	if err := s.lock(); err != nil {
		return TickCallbackId{}, err
	}
	defer s.mu.Unlock()
	k := s.callbacks.insert(callbackSlot{fn: fn}, nil)
	return TickCallbackId{k}, nil
}

// --- any kind ---

// Unregister removes the animation or callback behind id. Its slot is reused
// with a new generation, so id and every copy of it become stale. A tick
// callback removed during an in-flight tick still runs once for that tick.
func (s *Scheduler) Unregister(id ID) error {
	if id == nil {
		return fmt.Errorf("%w: nil id", ErrStaleHandle)
	}
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	var ok bool
	switch id.Kind() {
	case KindSpring:
		ok = s.springs.remove(id.key())
	case KindKeyframe:
		ok = s.keyframes.remove(id.key())
	case KindTimeline:
		ok = s.timelines.remove(id.key())
	case KindTickCallback:
		ok = s.callbacks.remove(id.key())
	}
	if !ok {
		return staleErr(id)
	}
	return nil
}

// Snapshot is a point-in-time copy of one animation's state.
type Snapshot struct {
	Kind Kind
	// Value is the spring position, the scalar track value, or the timeline's
	// progress.
	Value float32
	// Defined is false when a keyframe track's fill mode leaves it without a
	// value.
	Defined bool
	// Velocity and Target are set for springs.
	Velocity float32
	Target   float32
	// AtRest is true for a settled spring and a finished track or timeline.
	AtRest bool
	// Elapsed and Playing are set for tracks and timelines. An endless track
	// or timeline reports elapsed folded into its first two traversals.
	Elapsed float32
	Playing bool
	// Properties holds a multi-property track's values.
	Properties map[string]float32
}

// Snapshot copies the state behind id, or reports false when id is stale.
func (s *Scheduler) Snapshot(id ID) (Snapshot, bool) {
	if id == nil || s.lock() != nil {
		return Snapshot{}, false
	}
	defer s.mu.Unlock()
	switch id.Kind() {
	case KindSpring:
		sp := s.springs.get(id.key())
		if sp == nil {
			return Snapshot{}, false
		}
		return Snapshot{
			Kind:     KindSpring,
			Value:    sp.spring.Value(),
			Defined:  true,
			Velocity: sp.spring.Velocity(),
			Target:   sp.spring.Target(),
			AtRest:   sp.resting && sp.spring.Value() == sp.spring.Target(),
		}, true
	case KindKeyframe:
		k := s.keyframes.get(id.key())
		if k == nil {
			return Snapshot{}, false
		}
		snap := Snapshot{
			Kind:    KindKeyframe,
			Value:   k.value,
			Defined: k.defined,
			AtRest:  k.elapsed >= k.totalDuration(),
			Elapsed: k.elapsed,
			Playing: k.playing,
		}
		if k.multi != nil {
			snap.Properties = maps.Clone(k.props)
			snap.Defined = len(k.props) > 0
		}
		return snap, true
	case KindTimeline:
		t := s.timelines.get(id.key())
		if t == nil {
			return Snapshot{}, false
		}
		return Snapshot{
			Kind:    KindTimeline,
			Value:   t.progress,
			Defined: true,
			AtRest:  t.progress >= 1,
			Elapsed: t.elapsed,
			Playing: t.playing,
		}, true
	case KindTickCallback:
		if s.callbacks.get(id.key()) == nil {
			return Snapshot{}, false
		}
		return Snapshot{Kind: KindTickCallback, Defined: true}, true
	}
	return Snapshot{}, false
}

// --- redraw signalling ---

// TakeNeedsRedraw reports whether anything changed since the last call and
// clears the flag. With continuous redraw on it always reports true.
func (s *Scheduler) TakeNeedsRedraw() bool {
	if s == nil || !s.ready {
		return false
	}
	return s.needsRedraw.Swap(false) || s.continuous.Load()
}

// RequestRedraw raises the redraw flag without any animation changing.
func (s *Scheduler) RequestRedraw() {
	if s != nil && s.ready {
		s.needsRedraw.Store(true)
	}
}

// SetContinuousRedraw makes every tick notify the host, whether or not a
// value moved. Use it while something outside the scheduler animates.
func (s *Scheduler) SetContinuousRedraw(on bool) {
	if s != nil && s.ready {
		s.continuous.Store(on)
	}
}

// --- time ---

// Pause freezes scheduler time: ticks still prune and run callbacks but pass
// a zero dt to every animation.
func (s *Scheduler) Pause() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

// Resume unfreezes time. The paused interval is not replayed.
func (s *Scheduler) Resume() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.paused = false
	s.last = s.clock.Now()
	return nil
}

// IsPaused reports whether Pause is in effect.
func (s *Scheduler) IsPaused() bool {
	if s.lock() != nil {
		return false
	}
	defer s.mu.Unlock()
	return s.paused
}
