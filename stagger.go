package cadence

import "fmt"

// StaggerOrder picks how start offsets are distributed across a group.
type StaggerOrder uint8

const (
	StaggerForward StaggerOrder = iota // first item starts first
	StaggerReverse                     // last item starts first
	StaggerCenter                      // middle items start first, edges last
)

// StaggerOffsets returns n start offsets spaced by delay. It is a pure
// function; turn the offsets into entries with StaggerEntries or EntryFor.
//
//	forward: i·delay
//	reverse: (n-1-i)·delay
//	center:  |i-(n-1)/2|·delay
func StaggerOffsets(n int, delay float32, order StaggerOrder) ([]float32, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: stagger count %d is negative", ErrInvalidConfiguration, n)
	case !finite32(delay) || delay < 0:
		return nil, fmt.Errorf("%w: stagger delay %v must be finite and >= 0", ErrInvalidConfiguration, delay)
	case n == 0 && delay != 0:
		return nil, fmt.Errorf("%w: stagger of zero items with delay %v", ErrInvalidConfiguration, delay)
	case order > StaggerCenter:
		return nil, fmt.Errorf("%w: unknown stagger order %d", ErrInvalidConfiguration, order)
	}

	offsets := make([]float32, n)
	mid := float32(n-1) / 2
	for i := range offsets {
		switch order {
		case StaggerForward:
			offsets[i] = float32(i) * delay
		case StaggerReverse:
			offsets[i] = float32(n-1-i) * delay
		case StaggerCenter:
			offsets[i] = abs32(float32(i)-mid) * delay
		}
	}
	return offsets, nil
}

// StaggerEntries places ids on a timeline with staggered offsets starting at
// base.
func StaggerEntries(ids []ID, base, delay float32, order StaggerOrder) ([]TimelineEntry, error) {
	offsets, err := StaggerOffsets(len(ids), delay, order)
	if err != nil {
		return nil, err
	}
	entries := make([]TimelineEntry, len(ids))
	for i, id := range ids {
		entries[i] = EntryFor(id, base+offsets[i])
	}
	return entries, nil
}

// StaggerTweens builds n inline tween entries from one template, staggered
// by delay.
func StaggerTweens(n int, template Tween, delay float32, order StaggerOrder) ([]TimelineEntry, error) {
	offsets, err := StaggerOffsets(n, delay, order)
	if err != nil {
		return nil, err
	}
	entries := make([]TimelineEntry, n)
	for i := range entries {
		tw := template
		entries[i] = TimelineEntry{Offset: offsets[i], Tween: &tw}
	}
	return entries, nil
}
