package cadence

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Tick advances every live animation by the clock time since the previous
// tick and reports whether any value changed. Springs step first, then
// keyframe tracks, then timelines, so a timeline reading a spring sees this
// tick's value. Slots whose handle was released are freed instead of
// stepped. Tick callbacks and the AnimationContext run after the registry
// lock is released.
//
// The background loop started by Start calls Tick; hosts that own their
// frame loop may call it directly instead.
func (s *Scheduler) Tick() bool {
	if s == nil || !s.ready {
		return false
	}
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	began := time.Now()

	s.mu.Lock()
	now := s.clock.Now()
	var dt float32
	if !s.paused {
		dt = max(float32(now.Sub(s.last).Seconds()), 0)
	}
	s.last = now

	pruned := s.pruneLocked()
	changed := s.stepSprings(dt)
	if s.stepKeyframes(dt) {
		changed = true
	}
	if s.stepTimelines(dt) {
		changed = true
	}
	s.cbBuf = s.cbBuf[:0]
	s.callbacks.each(func(_ key, c *callbackSlot) {
		s.cbBuf = append(s.cbBuf, c.fn)
	})
	counts := s.countsLocked()
	s.mu.Unlock()

	for _, fn := range s.cbBuf {
		fn(changed)
	}
	if changed {
		s.needsRedraw.Store(true)
	}
	if s.ctx != nil && (changed || s.continuous.Load()) {
		s.ctx.NotifyChanged()
	}

	n := s.ticks.Add(1)
	s.lastTick.Store(int64(time.Since(began)))
	s.logStats(n, counts, pruned)
	return changed
}

// pruneLocked frees every slot whose owning handle is gone.
func (s *Scheduler) pruneLocked() int {
	n := s.springs.prune(func(k key, _ *springSlot) {
		s.log.Debug("pruned", zap.Stringer("id", SpringId{k}))
	})
	n += s.keyframes.prune(func(k key, _ *keyframeSlot) {
		s.log.Debug("pruned", zap.Stringer("id", KeyframeId{k}))
	})
	n += s.timelines.prune(func(k key, _ *timelineSlot) {
		s.log.Debug("pruned", zap.Stringer("id", TimelineId{k}))
	})
	if n > 0 {
		s.pruned.Add(uint64(n))
	}
	return n
}

func (s *Scheduler) stepSprings(dt float32) bool {
	maxStep := float32(s.cfg.MaxStep.Seconds())
	maxMoving := float32(s.cfg.MaxSpringDuration.Seconds())
	changed := false
	s.springs.each(func(k key, sp *springSlot) {
		if sp.resting && sp.spring.Value() == sp.spring.Target() {
			return
		}
		before := sp.spring.Value()
		rest := sp.spring.Advance(dt, maxStep)
		if !rest {
			sp.moving += dt
			if maxMoving > 0 && sp.moving >= maxMoving {
				sp.spring.SetImmediate(sp.spring.Target())
				rest = true
				s.forced.Add(1)
				s.log.Debug("force-settled spring",
					zap.Stringer("id", SpringId{k}), zap.Float32("target", sp.spring.Target()))
			}
		}
		if sp.spring.Value() != before || rest != sp.resting {
			changed = true
		}
		sp.resting = rest
		if rest {
			sp.moving = 0
		}
	})
	return changed
}

// markDriven flags every keyframe track and timeline referenced by a live
// timeline. Driven animations are positioned by their parent.
func (s *Scheduler) markDriven() {
	s.keyframes.each(func(_ key, k *keyframeSlot) { k.driven = false })
	s.timelines.each(func(_ key, t *timelineSlot) { t.driven = false })
	s.timelines.each(func(_ key, t *timelineSlot) {
		for _, e := range t.tl.Entries {
			switch id := e.Animation.(type) {
			case KeyframeId:
				if k := s.keyframes.get(id.k); k != nil {
					k.driven = true
				}
			case TimelineId:
				if c := s.timelines.get(id.k); c != nil && c != t {
					c.driven = true
				}
			}
		}
	})
}

func (s *Scheduler) stepKeyframes(dt float32) bool {
	s.markDriven()
	changed := false
	s.keyframes.each(func(_ key, k *keyframeSlot) {
		if k.driven || !k.playing {
			return
		}
		if k.seek(k.elapsed + dt) {
			changed = true
		}
		if k.elapsed >= k.totalDuration() {
			k.playing = false
		}
	})
	return changed
}

func (s *Scheduler) stepTimelines(dt float32) bool {
	changed := false
	s.timelines.each(func(_ key, t *timelineSlot) {
		if t.driven {
			return
		}
		if t.playing {
			t.elapsed += dt * t.tl.rate()
		}
		if s.driveTimeline(t, t.elapsed, 0) {
			changed = true
		}
	})
	return changed
}

// driveTimeline positions every entry of t for timeline time elapsed and
// reports whether any entry's value changed.
func (s *Scheduler) driveTimeline(t *timelineSlot, elapsed float32, depth int) bool {
	d := s.timelineDuration(t, depth)
	pb := t.tl.playback()
	n := pb.iterations()
	if n == 0 && !math.IsInf(float64(d), 1) {
		elapsed = pb.wrap(d, elapsed)
		t.elapsed = elapsed
	}

	var pos float32
	iter := 0
	switch {
	case math.IsInf(float64(d), 1):
		pos = max(elapsed, 0)
		t.progress = 0
	case d <= 0:
		t.progress = 1
	default:
		pos, _ = pb.cursor(d, elapsed)
		iter = int(max(elapsed, 0) / d)
		if n > 0 {
			iter = min(iter, n-1)
			total := d * float32(n)
			if elapsed >= total {
				t.elapsed = min(t.elapsed, total)
				t.playing = t.playing && t.driven
			}
			t.progress = min(max(elapsed, 0)/total, 1)
		} else {
			t.progress = float32(math.Mod(float64(max(elapsed, 0)), float64(d))) / d
		}
	}
	if iter != t.iteration {
		t.iteration = iter
		clear(t.fired)
	}

	changed := false
	for i, e := range t.tl.Entries {
		local := effectiveElapsed(e.Offset, pos)
		v := t.values[i]
		if e.Tween != nil {
			v = sampleTween(*e.Tween, t.tweens[i], local)
		} else {
			switch id := e.Animation.(type) {
			case SpringId:
				sp := s.springs.get(id.k)
				if sp == nil {
					continue
				}
				if e.Retarget && pos >= e.Offset && !t.fired[i] {
					t.fired[i] = true
					if sp.spring.Target() != e.Target {
						sp.spring.SetTarget(e.Target)
						sp.moving = 0
						changed = true
					}
				}
				v = sp.spring.Value()
			case KeyframeId:
				k := s.keyframes.get(id.k)
				if k == nil {
					continue
				}
				if k.seek(local) {
					changed = true
				}
				v = k.value
			case TimelineId:
				c := s.timelines.get(id.k)
				if c == nil || c == t || depth >= maxTimelineDepth {
					continue
				}
				c.elapsed = local * c.tl.rate()
				if s.driveTimeline(c, c.elapsed, depth+1) {
					changed = true
				}
				v = c.progress
			}
		}
		if v != t.values[i] {
			t.values[i] = v
			changed = true
		}
	}
	return changed
}

// Start launches the background tick loop. Calling Start on a running
// scheduler does nothing.
func (s *Scheduler) Start() error {
	if s == nil || !s.ready {
		return ErrNotInitialized
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	s.last = s.clock.Now()
	s.mu.Unlock()

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.stopCh)
	s.log.Info("tick loop started", zap.Duration("interval", s.cfg.TickInterval))
	return nil
}

// Stop halts the tick loop and waits for an in-flight tick to finish. It
// must not be called from a tick callback.
func (s *Scheduler) Stop() {
	if s == nil || !s.ready {
		return
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("tick loop stopped", zap.Uint64("ticks", s.ticks.Load()))
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	return s != nil && s.running.Load()
}

// loop ticks on a fixed cadence measured against wall time. A late tick is
// not replayed; the next Tick sees a longer dt instead. When the loop falls
// more than two intervals behind, the schedule is reset from now.
func (s *Scheduler) loop(stop <-chan struct{}) {
	defer s.wg.Done()

	interval := s.cfg.TickInterval
	next := time.Now().Add(interval)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		s.Tick()

		now := time.Now()
		next = next.Add(interval)
		if now.Sub(next) > 2*interval {
			next = now.Add(interval)
		}
		timer.Reset(max(next.Sub(now), 0))
	}
}
