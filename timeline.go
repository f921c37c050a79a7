package cadence

import (
	"fmt"

	"github.com/tanema/gween"
)

// Tween is an inline from/to animation owned by a timeline entry. It needs no
// registry slot of its own.
type Tween struct {
	Duration float32
	From     float32
	To       float32
	Easing   Easing
}

func (tw Tween) newGween() *gween.Tween {
	return gween.New(tw.From, tw.To, tw.Duration, tw.Easing.Func())
}

// sampleTween evaluates tw at elapsed with g, a gween tween built from tw.
func sampleTween(tw Tween, g *gween.Tween, elapsed float32) float32 {
	if tw.Duration <= 0 || elapsed >= tw.Duration {
		return tw.To
	}
	if elapsed <= 0 {
		return tw.From
	}
	v, _ := g.Set(elapsed)
	return v
}

// Sample returns the tween value elapsed seconds after it starts.
func (tw Tween) Sample(elapsed float32) float32 {
	return sampleTween(tw, tw.newGween(), elapsed)
}

// TimelineEntry places one animation on a timeline. Exactly one of Animation
// and Tween is set.
type TimelineEntry struct {
	// Animation is a registered spring, keyframe track or nested timeline.
	Animation ID
	// Offset is the start time in seconds relative to the timeline start.
	Offset float32
	// Target and Retarget apply to springs: once the timeline reaches Offset
	// the spring is sent to Target.
	Target   float32
	Retarget bool
	// Tween is an inline animation used when Animation is nil.
	Tween *Tween
}

// EntryFor places a registered animation at offset.
func EntryFor(id ID, offset float32) TimelineEntry {
	return TimelineEntry{Animation: id, Offset: offset}
}

// SpringTargetEntry retargets spring id to target when the timeline reaches
// offset.
func SpringTargetEntry(id SpringId, offset, target float32) TimelineEntry {
	return TimelineEntry{Animation: id, Offset: offset, Target: target, Retarget: true}
}

// TweenEntry adds an inline tween from from to to over duration seconds.
func TweenEntry(offset, duration, from, to float32, easing Easing) TimelineEntry {
	return TimelineEntry{
		Offset: offset,
		Tween:  &Tween{Duration: duration, From: from, To: to, Easing: easing},
	}
}

// Timeline sequences animations with relative start offsets.
type Timeline struct {
	Entries []TimelineEntry
	// Iterations is the loop count; 0 and 1 both mean once, Infinite loops.
	Iterations int
	// Alternate plays every other loop backwards.
	Alternate bool
	// Rate scales playback speed; 0 means 1.
	Rate float32
}

// NewTimeline returns a timeline that plays entries once at normal speed.
func NewTimeline(entries ...TimelineEntry) Timeline {
	return Timeline{Entries: entries}
}

// Add appends an entry and returns its index, which is the entry handle used
// by Scheduler.TimelineEntryValue.
func (tl *Timeline) Add(e TimelineEntry) int {
	tl.Entries = append(tl.Entries, e)
	return len(tl.Entries) - 1
}

// Validate rejects negative or non-finite offsets, entries that set both or
// neither of Animation and Tween, and invalid rates.
func (tl Timeline) Validate() error {
	if !finite32(tl.Rate) || tl.Rate < 0 {
		return fmt.Errorf("%w: timeline rate %v must be finite and >= 0", ErrInvalidConfiguration, tl.Rate)
	}
	for i, e := range tl.Entries {
		if !finite32(e.Offset) || e.Offset < 0 {
			return fmt.Errorf("%w: timeline entry %d offset %v must be finite and >= 0",
				ErrInvalidConfiguration, i, e.Offset)
		}
		hasAnim := e.Animation != nil && !e.Animation.IsZero()
		switch {
		case hasAnim == (e.Tween != nil):
			return fmt.Errorf("%w: timeline entry %d must set exactly one of Animation and Tween",
				ErrInvalidConfiguration, i)
		case e.Tween != nil && (!finite32(e.Tween.Duration) || e.Tween.Duration < 0):
			return fmt.Errorf("%w: timeline entry %d tween duration %v", ErrInvalidConfiguration, i, e.Tween.Duration)
		case hasAnim && e.Animation.Kind() == KindTickCallback:
			return fmt.Errorf("%w: timeline entry %d references a tick callback", ErrInvalidConfiguration, i)
		case e.Retarget && hasAnim && e.Animation.Kind() != KindSpring:
			return fmt.Errorf("%w: timeline entry %d retargets a non-spring", ErrInvalidConfiguration, i)
		}
	}
	return nil
}

func (tl Timeline) rate() float32 {
	if tl.Rate == 0 {
		return 1
	}
	return tl.Rate
}

func (tl Timeline) playback() Playback {
	p := Playback{Fill: FillBoth, Iterations: tl.Iterations}
	if tl.Alternate {
		p.Direction = PlayAlternate
	}
	return p
}

// EffectiveElapsed returns, for every entry, how far into its own animation
// the entry is when the timeline is elapsed seconds in: max(0, elapsed-offset).
func (tl Timeline) EffectiveElapsed(elapsed float32) []float32 {
	out := make([]float32, len(tl.Entries))
	for i, e := range tl.Entries {
		out[i] = effectiveElapsed(e.Offset, elapsed)
	}
	return out
}

func effectiveElapsed(offset, elapsed float32) float32 {
	return max(0, elapsed-offset)
}
