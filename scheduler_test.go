package cadence

import (
	"errors"
	"math"
	"runtime"
	"testing"
	"time"
)

const tick120 = time.Second / 120

func newTestScheduler(t *testing.T, cfg Config, opts ...Option) (*Scheduler, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	s, err := New(cfg, append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, clock
}

// run advances the clock by d in 120Hz ticks.
func run(s *Scheduler, clock *ManualClock, d time.Duration) {
	for n := int(d / tick120); n > 0; n-- {
		clock.Advance(tick120)
		s.Tick()
	}
}

func approx(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestZeroSchedulerNotInitialized(t *testing.T) {
	var s Scheduler
	if _, err := s.RegisterSpring(SpringStiff, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("RegisterSpring err = %v, want ErrNotInitialized", err)
	}
	if err := s.SetTarget(SpringId{key{0, 1}}, 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetTarget err = %v, want ErrNotInitialized", err)
	}
	if err := s.Start(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Start err = %v, want ErrNotInitialized", err)
	}
	if s.Tick() {
		t.Error("zero scheduler ticked")
	}
	if _, ok := s.Snapshot(SpringId{key{0, 1}}); ok {
		t.Error("zero scheduler returned a snapshot")
	}

	var nilSched *Scheduler
	if _, err := nilSched.RegisterTickCallback(func(bool) {}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("nil scheduler err = %v, want ErrNotInitialized", err)
	}
	if _, err := NewSharedValue(nilSched, SpringStiff, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewSharedValue err = %v, want ErrNotInitialized", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestSchedulerSpringSettles(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	id, err := s.RegisterSpring(SpringStiff, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetTarget(id, 100); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 2*time.Second)

	snap, ok := s.Snapshot(id)
	if !ok {
		t.Fatal("spring vanished")
	}
	if snap.Value != 100 || !snap.AtRest || snap.Velocity != 0 {
		t.Errorf("snapshot = %+v, want at rest on 100", snap)
	}
	if v, ok := s.SpringValue(id); !ok || v != 100 {
		t.Errorf("SpringValue = %f, %v", v, ok)
	}
}

func TestSchedulerStaleHandle(t *testing.T) {
	s, _ := newTestScheduler(t, DefaultConfig())
	id, err := s.RegisterSpring(SpringStiff, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Unregister(id); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTarget(id, 1); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("SetTarget err = %v, want ErrStaleHandle", err)
	}
	if err := s.Unregister(id); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("second Unregister err = %v, want ErrStaleHandle", err)
	}
	if _, ok := s.SpringValue(id); ok {
		t.Error("stale SpringValue reported ok")
	}

	// The reused slot must not answer to the old id.
	fresh, err := s.RegisterSpring(SpringStiff, 5)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Raw() == id.Raw() {
		t.Fatal("fresh id equals stale id")
	}
	if _, ok := s.Snapshot(id); ok {
		t.Error("stale id resolved to the new occupant")
	}
}

func TestSchedulerEvictsReleasedHandle(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	v, err := NewSharedValue(s, SpringStiff, 0)
	if err != nil {
		t.Fatal(err)
	}
	id := v.ID()
	if err := v.Set(100); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 100*time.Millisecond)

	v.Release()
	if _, ok := s.Snapshot(id); !ok {
		t.Fatal("slot freed before the next tick")
	}
	run(s, clock, tick120)
	if _, ok := s.Snapshot(id); ok {
		t.Fatal("released spring still registered after a tick")
	}
	if got := s.Stats().Pruned; got != 1 {
		t.Errorf("Pruned = %d, want 1", got)
	}
	if got := v.Get(); got != 100 {
		t.Errorf("Get after release = %f, want last target 100", got)
	}
	if err := v.Set(5); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Set after release err = %v, want ErrStaleHandle", err)
	}
}

func registerAndDrop(t *testing.T, s *Scheduler) SpringId {
	t.Helper()
	v, err := NewSharedValue(s, SpringStiff, 0)
	if err != nil {
		t.Fatal(err)
	}
	return v.ID()
}

func TestSchedulerEvictsCollectedHandle(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	id := registerAndDrop(t, s)

	ok := true
	for i := 0; i < 10 && ok; i++ {
		runtime.GC()
		run(s, clock, tick120)
		_, ok = s.Snapshot(id)
	}
	if ok {
		t.Fatal("spring whose handle was collected is still registered")
	}
}

func TestSchedulerIdempotentSetTarget(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	once, _ := s.RegisterSpring(SpringWobbly, 0)
	twice, _ := s.RegisterSpring(SpringWobbly, 0)

	if err := s.SetTarget(once, 80); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := s.SetTarget(twice, 80); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 90; i++ {
		clock.Advance(tick120)
		s.Tick()
		a, _ := s.SpringValue(once)
		b, _ := s.SpringValue(twice)
		if a != b {
			t.Fatalf("tick %d: trajectories diverged: %f vs %f", i, a, b)
		}
	}
}

func TestTimelineObservesSameTickSpringValue(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	sp, _ := s.RegisterSpring(SpringSnappy, 0)
	tl, err := s.RegisterTimeline(NewTimeline(EntryFor(sp, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetTarget(sp, 100); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		clock.Advance(tick120)
		s.Tick()
		want, _ := s.SpringValue(sp)
		got, ok := s.TimelineEntryValue(tl, 0)
		if !ok || got != want {
			t.Fatalf("tick %d: timeline saw %f, spring is %f", i, got, want)
		}
	}
}

func TestSchedulerKeyframePlayback(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	track := linearTrack(t, Playback{Fill: FillForward})
	id, err := s.RegisterKeyframe(track)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := s.KeyframeValue(id); !ok || v != 0 {
		t.Errorf("value at registration = %f, %v", v, ok)
	}

	run(s, clock, 500*time.Millisecond)
	if v, ok := s.KeyframeValue(id); !ok || !approx(v, 5, 1e-2) {
		t.Errorf("value at 0.5s = %f, %v, want 5", v, ok)
	}

	run(s, clock, time.Second)
	snap, _ := s.Snapshot(id)
	if snap.Value != 10 || !snap.AtRest || snap.Playing {
		t.Errorf("snapshot after end = %+v", snap)
	}
}

func TestSchedulerKeyframeControl(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	id, _ := s.RegisterKeyframe(linearTrack(t, Playback{Fill: FillBoth}))

	if err := s.StopKeyframe(id); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 250*time.Millisecond)
	if v, _ := s.KeyframeValue(id); v != 0 {
		t.Errorf("stopped track moved to %f", v)
	}

	if err := s.SeekKeyframe(id, 0.75); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.KeyframeValue(id); !approx(v, 7.5, 1e-4) {
		t.Errorf("after seek = %f, want 7.5", v)
	}

	if err := s.StartKeyframe(id); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 250*time.Millisecond)
	if v, _ := s.KeyframeValue(id); !approx(v, 2.5, 1e-2) {
		t.Errorf("after restart = %f, want 2.5", v)
	}
}

func TestSchedulerMultiKeyframe(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	fade, err := FadeIn(0.5)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.RegisterMultiKeyframe(fade)
	if err != nil {
		t.Fatal(err)
	}
	run(s, clock, time.Second)
	props, ok := s.KeyframeProperties(id)
	if !ok || props[PropOpacity] != 1 {
		t.Errorf("properties = %v, %v", props, ok)
	}
	if _, ok := s.KeyframeValue(id); ok {
		t.Error("KeyframeValue on a multi-property track reported ok")
	}
}

func TestKeyframePropertiesScalarTrack(t *testing.T) {
	s, _ := newTestScheduler(t, DefaultConfig())
	id, err := s.RegisterKeyframe(linearTrack(t, Playback{Fill: FillBoth}))
	if err != nil {
		t.Fatal(err)
	}
	if props, ok := s.KeyframeProperties(id); ok || props != nil {
		t.Errorf("KeyframeProperties on a scalar track = %v, %v, want nil, false", props, ok)
	}
	if _, ok := s.KeyframeValue(id); !ok {
		t.Error("KeyframeValue on a scalar track reported not ok")
	}
}

func TestTimelineDrivesKeyframeAtOffset(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	kf, _ := s.RegisterKeyframe(linearTrack(t, Playback{Fill: FillBoth}))
	tl, err := s.RegisterTimeline(NewTimeline(EntryFor(kf, 0.5)))
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := s.TimelineDuration(tl); d != 1.5 {
		t.Errorf("TimelineDuration = %f, want 1.5", d)
	}

	run(s, clock, 250*time.Millisecond)
	if v, _ := s.KeyframeValue(kf); v != 0 {
		t.Errorf("before offset = %f, want 0", v)
	}
	run(s, clock, 750*time.Millisecond)
	if v, _ := s.KeyframeValue(kf); !approx(v, 5, 2e-2) {
		t.Errorf("at 1s = %f, want 5", v)
	}
}

func TestTimelineTweenAndProgress(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	tl, _ := s.RegisterTimeline(NewTimeline(TweenEntry(0, 1, 0, 100, Linear)))

	run(s, clock, 500*time.Millisecond)
	if v, _ := s.TimelineEntryValue(tl, 0); !approx(v, 50, 0.2) {
		t.Errorf("tween at 0.5s = %f, want 50", v)
	}
	if p, _ := s.TimelineProgress(tl); !approx(p, 0.5, 1e-2) {
		t.Errorf("progress = %f, want 0.5", p)
	}

	run(s, clock, time.Second)
	snap, _ := s.Snapshot(tl)
	if snap.Value != 1 || snap.Playing {
		t.Errorf("finished snapshot = %+v", snap)
	}
	if v, _ := s.TimelineEntryValue(tl, 0); v != 100 {
		t.Errorf("tween end = %f, want 100", v)
	}
	if _, ok := s.TimelineEntryValue(tl, 3); ok {
		t.Error("out-of-range entry reported ok")
	}
}

func TestTimelineRetargetsSpring(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	sp, _ := s.RegisterSpring(SpringStiff, 0)
	_, err := s.RegisterTimeline(NewTimeline(SpringTargetEntry(sp, 0.5, 200)))
	if err != nil {
		t.Fatal(err)
	}
	run(s, clock, 250*time.Millisecond)
	if snap, _ := s.Snapshot(sp); snap.Target != 0 {
		t.Errorf("target before offset = %f, want 0", snap.Target)
	}
	run(s, clock, 500*time.Millisecond)
	if snap, _ := s.Snapshot(sp); snap.Target != 200 {
		t.Errorf("target after offset = %f, want 200", snap.Target)
	}
}

func TestTimelinePauseResumeSeek(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	tl, _ := s.RegisterTimeline(NewTimeline(TweenEntry(0, 1, 0, 100, Linear)))
	run(s, clock, 250*time.Millisecond)

	if err := s.PauseTimeline(tl); err != nil {
		t.Fatal(err)
	}
	before, _ := s.TimelineEntryValue(tl, 0)
	run(s, clock, 250*time.Millisecond)
	if after, _ := s.TimelineEntryValue(tl, 0); after != before {
		t.Errorf("paused timeline moved from %f to %f", before, after)
	}

	if err := s.SeekTimeline(tl, 0.75); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if v, _ := s.TimelineEntryValue(tl, 0); !approx(v, 75, 1e-3) {
		t.Errorf("after seek = %f, want 75", v)
	}

	if err := s.ResumeTimeline(tl); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 100*time.Millisecond)
	if v, _ := s.TimelineEntryValue(tl, 0); v <= 75 {
		t.Errorf("resumed timeline did not advance: %f", v)
	}

	if err := s.StartTimeline(tl); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if v, _ := s.TimelineEntryValue(tl, 0); v != 0 {
		t.Errorf("restarted timeline = %f, want 0", v)
	}
	if err := s.SeekTimeline(tl, -1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("negative seek err = %v", err)
	}
}

func TestNestedTimeline(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	child, _ := s.RegisterTimeline(NewTimeline(TweenEntry(0, 1, 0, 10, Linear)))
	parent, err := s.RegisterTimeline(NewTimeline(EntryFor(child, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := s.TimelineDuration(parent); d != 2 {
		t.Errorf("parent duration = %f, want 2", d)
	}
	run(s, clock, 500*time.Millisecond)
	if v, _ := s.TimelineEntryValue(child, 0); v != 0 {
		t.Errorf("child before its offset = %f, want 0", v)
	}
	run(s, clock, time.Second)
	if v, _ := s.TimelineEntryValue(child, 0); !approx(v, 5, 0.05) {
		t.Errorf("child at parent 1.5s = %f, want 5", v)
	}
}

func TestTickCallbacks(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	sp, _ := s.RegisterSpring(SpringStiff, 0)

	var calls []bool
	cb, err := s.RegisterTickCallback(func(changed bool) {
		calls = append(calls, changed)
		// Callbacks run outside the registry lock.
		_ = s.Stats()
	})
	if err != nil {
		t.Fatal(err)
	}

	run(s, clock, tick120)
	s.SetTarget(sp, 50)
	run(s, clock, tick120)
	if len(calls) != 2 || calls[0] || !calls[1] {
		t.Fatalf("calls = %v, want [false true]", calls)
	}

	if err := s.Unregister(cb); err != nil {
		t.Fatal(err)
	}
	run(s, clock, tick120)
	if len(calls) != 2 {
		t.Errorf("unregistered callback still called: %v", calls)
	}
	if _, err := s.RegisterTickCallback(nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("nil callback err = %v", err)
	}
}

func TestContextNotifiedOncePerTick(t *testing.T) {
	ctx := &FlagContext{}
	s, clock := newTestScheduler(t, DefaultConfig(), WithContext(ctx))
	for i := range 5 {
		id, _ := s.RegisterSpring(SpringGentle, 0)
		s.SetTarget(id, float32(10*(i+1)))
	}
	run(s, clock, tick120)
	if n := ctx.Notifications(); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
	if !ctx.Take() || ctx.Take() {
		t.Error("Take should report the change exactly once")
	}
	if !s.TakeNeedsRedraw() || s.TakeNeedsRedraw() {
		t.Error("TakeNeedsRedraw should report the change exactly once")
	}
}

func TestContextQuietWhenIdle(t *testing.T) {
	ctx := &FlagContext{}
	s, clock := newTestScheduler(t, DefaultConfig(), WithContext(ctx))
	s.RegisterSpring(SpringGentle, 3)
	run(s, clock, 100*time.Millisecond)
	if n := ctx.Notifications(); n != 0 {
		t.Errorf("idle scheduler notified %d times", n)
	}

	s.SetContinuousRedraw(true)
	run(s, clock, 3*tick120)
	if n := ctx.Notifications(); n != 3 {
		t.Errorf("continuous redraw notified %d times, want 3", n)
	}
	if !s.TakeNeedsRedraw() {
		t.Error("continuous redraw should always need a redraw")
	}
	s.SetContinuousRedraw(false)

	s.RequestRedraw()
	if !s.TakeNeedsRedraw() || s.TakeNeedsRedraw() {
		t.Error("RequestRedraw should raise the flag once")
	}
}

func TestSchedulerPause(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	id, _ := s.RegisterSpring(SpringStiff, 0)
	s.SetTarget(id, 100)
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 500*time.Millisecond)
	if v, _ := s.SpringValue(id); v != 0 {
		t.Errorf("paused spring moved to %f", v)
	}
	if !s.IsPaused() || !s.Stats().Paused {
		t.Error("IsPaused = false")
	}

	clock.Advance(10 * time.Second)
	if err := s.Resume(); err != nil {
		t.Fatal(err)
	}
	clock.Advance(tick120)
	s.Tick()
	v, _ := s.SpringValue(id)
	if v <= 0 || v >= 50 {
		t.Errorf("first tick after resume = %f, want a small step", v)
	}
}

func TestMaxSpringDurationForceSettles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSpringDuration = 100 * time.Millisecond
	s, clock := newTestScheduler(t, cfg)
	id, _ := s.RegisterSpring(SpringConfig{Stiffness: 100, Damping: 0, Mass: 1}, 0)
	s.SetTarget(id, 100)
	run(s, clock, 200*time.Millisecond)

	snap, _ := s.Snapshot(id)
	if !snap.AtRest || snap.Value != 100 {
		t.Errorf("snapshot = %+v, want forced onto 100", snap)
	}
	if got := s.Stats().ForceSettled; got != 1 {
		t.Errorf("ForceSettled = %d, want 1", got)
	}
}

func TestSchedulerStats(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	s.RegisterSpring(SpringStiff, 0)
	s.RegisterSpring(SpringStiff, 0)
	s.RegisterKeyframe(linearTrack(t, Playback{}))
	s.RegisterTimeline(NewTimeline(TweenEntry(0, 1, 0, 1, Linear)))
	s.RegisterTickCallback(func(bool) {})
	run(s, clock, 3*tick120)

	st := s.Stats()
	if st.Ticks != 3 || st.Springs != 2 || st.Keyframes != 1 || st.Timelines != 1 || st.TickCallbacks != 1 {
		t.Errorf("stats = %+v", st)
	}
	if s.Count(KindSpring) != 2 || s.Count(KindTimeline) != 1 {
		t.Errorf("Count mismatch: %+v", st)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 2 * time.Millisecond
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := s.RegisterSpring(SpringSnappy, 0)
	s.SetTarget(id, 100)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !s.Running() {
		t.Fatal("Running = false after Start")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if v, _ := s.SpringValue(id); v == 100 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background loop did not settle the spring")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Stop()
	s.Stop()
	if s.Running() {
		t.Error("Running = true after Stop")
	}
	ticks := s.Stats().Ticks
	time.Sleep(20 * time.Millisecond)
	if s.Stats().Ticks != ticks {
		t.Error("ticks advanced after Stop")
	}
}

func TestGlobalInit(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	if IsInitialized() {
		t.Fatal("initialized before Init")
	}
	if _, err := Default(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Default err = %v, want ErrNotInitialized", err)
	}
	s, err := Init(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Init(DefaultConfig()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init err = %v, want ErrAlreadyInitialized", err)
	}
	got, err := Default()
	if err != nil || got != s {
		t.Errorf("Default = %p, %v, want %p", got, err, s)
	}
	if !s.Running() {
		t.Error("Init did not start the tick loop")
	}
}

func TestEndlessKeyframeKeepsAdvancing(t *testing.T) {
	tests := []struct {
		name      string
		dir       PlayDirection
		seek      float32
		after     time.Duration
		wantValue float32
	}{
		{"forward", PlayForward, 300000, 500 * time.Millisecond, 5},
		{"alternate reverse leg", PlayAlternate, 300001.5, 250 * time.Millisecond, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock := newTestScheduler(t, DefaultConfig())
			id, err := s.RegisterKeyframe(linearTrack(t, Playback{
				Fill:       FillBoth,
				Direction:  tt.dir,
				Iterations: Infinite,
			}))
			if err != nil {
				t.Fatal(err)
			}
			if err := s.SeekKeyframe(id, tt.seek); err != nil {
				t.Fatal(err)
			}
			run(s, clock, tt.after)
			if v, ok := s.KeyframeValue(id); !ok || !approx(v, tt.wantValue, 1e-2) {
				t.Errorf("value = %f, %v, want %f", v, ok, tt.wantValue)
			}
			snap, _ := s.Snapshot(id)
			if snap.Elapsed >= 2 {
				t.Errorf("elapsed = %f, want folded below two traversals", snap.Elapsed)
			}
		})
	}
}

func TestEndlessTimelineKeepsAdvancing(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	tl := NewTimeline(TweenEntry(0, 1, 0, 1, Linear))
	tl.Iterations = Infinite
	id, err := s.RegisterTimeline(tl)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SeekTimeline(id, 300000.25); err != nil {
		t.Fatal(err)
	}
	run(s, clock, 500*time.Millisecond)
	if v, ok := s.TimelineEntryValue(id, 0); !ok || !approx(v, 0.75, 1e-2) {
		t.Errorf("entry value = %f, %v, want 0.75", v, ok)
	}
	if p, _ := s.TimelineProgress(id); !approx(p, 0.75, 1e-2) {
		t.Errorf("progress = %f, want 0.75", p)
	}
	snap, _ := s.Snapshot(id)
	if snap.Elapsed >= 2 {
		t.Errorf("elapsed = %f, want folded below two loops", snap.Elapsed)
	}
}

func TestTickCallbackUnregisteredMidTick(t *testing.T) {
	s, clock := newTestScheduler(t, DefaultConfig())
	var first, second int
	var secondID TickCallbackId
	if _, err := s.RegisterTickCallback(func(bool) {
		first++
		if first == 1 {
			if err := s.Unregister(secondID); err != nil {
				t.Errorf("Unregister from callback: %v", err)
			}
		}
	}); err != nil {
		t.Fatal(err)
	}
	id, err := s.RegisterTickCallback(func(bool) { second++ })
	if err != nil {
		t.Fatal(err)
	}
	secondID = id

	clock.Advance(tick120)
	s.Tick()
	if first != 1 || second != 1 {
		t.Fatalf("first tick calls = %d, %d, want 1, 1", first, second)
	}
	run(s, clock, 3*tick120)
	if first != 4 || second != 1 {
		t.Errorf("calls after unregister = %d, %d, want 4, 1", first, second)
	}
	if s.Count(KindTickCallback) != 1 {
		t.Errorf("Count = %d, want 1", s.Count(KindTickCallback))
	}
}
