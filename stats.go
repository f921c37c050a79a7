package cadence

import (
	"time"

	"go.uber.org/zap"
)

// Stats is a point-in-time view of the scheduler's counters.
type Stats struct {
	Ticks         uint64
	Springs       int
	Keyframes     int
	Timelines     int
	TickCallbacks int
	// Pruned counts slots freed because their handle was released or
	// collected.
	Pruned uint64
	// ForceSettled counts springs snapped by Config.MaxSpringDuration.
	ForceSettled uint64
	// LastTick is how long the most recent Tick took to run.
	LastTick time.Duration
	Running  bool
	Paused   bool
}

type tableCounts struct {
	springs, keyframes, timelines, callbacks int
}

func (s *Scheduler) countsLocked() tableCounts {
	return tableCounts{
		springs:   s.springs.count(),
		keyframes: s.keyframes.count(),
		timelines: s.timelines.count(),
		callbacks: s.callbacks.count(),
	}
}

// Stats returns the current counters. A zero or nil scheduler reports zeros.
func (s *Scheduler) Stats() Stats {
	if s.lock() != nil {
		return Stats{}
	}
	c := s.countsLocked()
	paused := s.paused
	s.mu.Unlock()
	return Stats{
		Ticks:         s.ticks.Load(),
		Springs:       c.springs,
		Keyframes:     c.keyframes,
		Timelines:     c.timelines,
		TickCallbacks: c.callbacks,
		Pruned:        s.pruned.Load(),
		ForceSettled:  s.forced.Load(),
		LastTick:      time.Duration(s.lastTick.Load()),
		Running:       s.running.Load(),
		Paused:        paused,
	}
}

// Count returns how many animations of kind are registered.
func (s *Scheduler) Count(kind Kind) int {
	st := s.Stats()
	switch kind {
	case KindSpring:
		return st.Springs
	case KindKeyframe:
		return st.Keyframes
	case KindTimeline:
		return st.Timelines
	case KindTickCallback:
		return st.TickCallbacks
	}
	return 0
}

// logStats writes one debug line every Config.StatsEvery ticks.
func (s *Scheduler) logStats(tick uint64, c tableCounts, pruned int) {
	every := s.cfg.StatsEvery
	if every == 0 || tick%every != 0 {
		return
	}
	if ce := s.log.Check(zap.DebugLevel, "tick stats"); ce != nil {
		ce.Write(
			zap.Uint64("tick", tick),
			zap.Int("springs", c.springs),
			zap.Int("keyframes", c.keyframes),
			zap.Int("timelines", c.timelines),
			zap.Int("pruned", pruned),
			zap.Duration("last", time.Duration(s.lastTick.Load())),
		)
	}
}
