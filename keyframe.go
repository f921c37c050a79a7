package cadence

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// FillMode decides what a track reports outside its active interval.
type FillMode uint8

const (
	FillNone     FillMode = iota // nothing outside the active interval
	FillForward                  // hold the end value after playback finishes
	FillBackward                 // hold the start value before playback begins
	FillBoth                     // hold whichever boundary is nearer
)

func (f FillMode) holdsStart() bool { return f == FillBackward || f == FillBoth }
func (f FillMode) holdsEnd() bool   { return f == FillForward || f == FillBoth }

// PlayDirection controls how each traversal maps onto the keyframe points.
type PlayDirection uint8

const (
	PlayForward   PlayDirection = iota // first point to last
	PlayReverse                        // last point to first
	PlayAlternate                      // forward, then reverse, then forward...
)

// Infinite as an iteration count repeats a track or timeline forever.
const Infinite = -1

// Playback is the cursor policy shared by every track flavor.
type Playback struct {
	Fill      FillMode
	Direction PlayDirection
	// Iterations is the number of traversals; 0 and 1 both mean once,
	// negative means forever.
	Iterations int
	// Delay in seconds before the first traversal starts. During the delay the
	// track is "before start" for fill purposes.
	Delay float32
}

func (p Playback) iterations() int {
	switch {
	case p.Iterations < 0:
		return 0
	case p.Iterations == 0:
		return 1
	}
	return p.Iterations
}

// totalDuration returns delay plus all traversals of length d.
func (p Playback) totalDuration(d float32) float32 {
	n := p.iterations()
	if n == 0 {
		if d <= 0 {
			return p.Delay
		}
		return float32(math.Inf(1))
	}
	return p.Delay + d*float32(n)
}

// cursor maps elapsed seconds onto a position in [0, d] along the points, or
// reports false when the fill mode leaves the value undefined.
func (p Playback) cursor(d, elapsed float32) (pos float32, ok bool) {
	t := elapsed - p.Delay
	if !(t >= 0) {
		if !p.Fill.holdsStart() {
			return 0, false
		}
		return p.mapped(0, 0, d), true
	}
	n := p.iterations()
	if d <= 0 {
		if t > 0 && !p.Fill.holdsEnd() {
			return 0, false
		}
		return 0, true
	}
	if n > 0 {
		total := d * float32(n)
		if t > total && !p.Fill.holdsEnd() {
			return 0, false
		}
		if t >= total {
			return p.mapped(n-1, d, d), true
		}
	}
	i := int(t / d)
	local := min(max(t-float32(i)*d, 0), d)
	return p.mapped(i, local, d), true
}

// wrap folds elapsed of an endlessly repeating track back into its first two
// traversals. The cursor position and alternate parity are unchanged, and a
// float32 clock never grows past the point where a tick's dt rounds away.
func (p Playback) wrap(d, elapsed float32) float32 {
	if p.iterations() != 0 || !(d > 0) {
		return elapsed
	}
	period := 2 * d
	t := elapsed - p.Delay
	if t < period {
		return elapsed
	}
	return p.Delay + float32(math.Mod(float64(t), float64(period)))
}

func (p Playback) mapped(i int, local, d float32) float32 {
	switch p.Direction {
	case PlayReverse:
		return d - local
	case PlayAlternate:
		if i%2 == 1 {
			return d - local
		}
	}
	return local
}

// bracket finds the pair of points around pos. lo == hi when pos is at or
// past the last point; before reports pos lies ahead of the first point.
func bracket(n int, offset func(int) float32, pos float32) (lo, hi int, f float32, before bool) {
	idx := sort.Search(n, func(i int) bool { return offset(i) > pos })
	switch {
	case idx == 0:
		return 0, 0, 0, pos < offset(0)
	case idx == n:
		return n - 1, n - 1, 0, false
	}
	lo, hi = idx-1, idx
	span := offset(hi) - offset(lo)
	return lo, hi, (pos - offset(lo)) / span, false
}

func validateOffsets(n int, offset func(int) float32) error {
	if n == 0 {
		return fmt.Errorf("%w: keyframe track has no points", ErrInvalidConfiguration)
	}
	for i := 0; i < n; i++ {
		o := offset(i)
		if !finite32(o) || o < 0 {
			return fmt.Errorf("%w: keyframe %d offset %v must be finite and >= 0", ErrInvalidConfiguration, i, o)
		}
		if i > 0 && o <= offset(i-1) {
			return fmt.Errorf("%w: keyframe offsets must be strictly increasing (%v after %v)",
				ErrInvalidConfiguration, o, offset(i-1))
		}
	}
	return nil
}

func validatePlayback(p Playback) error {
	if !finite32(p.Delay) {
		return fmt.Errorf("%w: playback delay %v must be finite", ErrInvalidConfiguration, p.Delay)
	}
	if p.Direction > PlayAlternate || p.Fill > FillBoth {
		return fmt.Errorf("%w: unknown fill mode or direction", ErrInvalidConfiguration)
	}
	return nil
}

// KeyframePoint is one timed value. Easing shapes the segment from this point
// to the next one.
type KeyframePoint struct {
	Offset float32
	Value  float32
	Easing Easing
}

// KeyframeTrack is an immutable timed sequence of scalar keyframes with its
// playback policy. Build one with NewKeyframeTrack or KeyframeTrackBuilder.
type KeyframeTrack struct {
	Playback
	points []KeyframePoint
}

// NewKeyframeTrack validates points as given: offsets must already be strictly
// increasing. Use KeyframeTrackBuilder to have them sorted.
func NewKeyframeTrack(points []KeyframePoint, playback Playback) (KeyframeTrack, error) {
	if err := validateOffsets(len(points), func(i int) float32 { return points[i].Offset }); err != nil {
		return KeyframeTrack{}, err
	}
	if err := validatePlayback(playback); err != nil {
		return KeyframeTrack{}, err
	}
	return KeyframeTrack{Playback: playback, points: slices.Clone(points)}, nil
}

// Points returns a copy of the track's keyframes.
func (k KeyframeTrack) Points() []KeyframePoint {
	return slices.Clone(k.points)
}

// Duration is the length of one traversal: the last point's offset.
func (k KeyframeTrack) Duration() float32 {
	if len(k.points) == 0 {
		return 0
	}
	return k.points[len(k.points)-1].Offset
}

// TotalDuration covers the delay and every iteration; +Inf when infinite.
func (k KeyframeTrack) TotalDuration() float32 {
	return k.totalDuration(k.Duration())
}

// Evaluate returns the track value elapsed seconds after playback start.
// ok is false when the fill mode leaves the value undefined.
func (k KeyframeTrack) Evaluate(elapsed float32) (value float32, ok bool) {
	if len(k.points) == 0 {
		return 0, false
	}
	pos, ok := k.cursor(k.Duration(), elapsed)
	if !ok {
		return 0, false
	}
	return sampleScalar(k.points, k.Fill, pos)
}

func sampleScalar(points []KeyframePoint, fill FillMode, pos float32) (float32, bool) {
	lo, hi, f, before := bracket(len(points), func(i int) float32 { return points[i].Offset }, pos)
	if before {
		if !fill.holdsStart() {
			return 0, false
		}
		return points[0].Value, true
	}
	if lo == hi {
		return points[lo].Value, true
	}
	e := points[lo].Easing.Apply(f)
	a, b := points[lo].Value, points[hi].Value
	return a + (b-a)*e, true
}

// KeyframeTrackBuilder collects points in any order and sorts them on Build.
// Adding a second point at an existing offset replaces the first.
type KeyframeTrackBuilder struct {
	points   []KeyframePoint
	playback Playback
}

// NewKeyframeTrackBuilder returns an empty builder that plays once forward
// with FillNone.
func NewKeyframeTrackBuilder() *KeyframeTrackBuilder {
	return &KeyframeTrackBuilder{}
}

// At adds a point whose outgoing segment is linear.
func (b *KeyframeTrackBuilder) At(offset, value float32) *KeyframeTrackBuilder {
	return b.AtEased(offset, value, Linear)
}

// AtEased adds a point whose outgoing segment uses easing.
func (b *KeyframeTrackBuilder) AtEased(offset, value float32, easing Easing) *KeyframeTrackBuilder {
	for i := range b.points {
		if b.points[i].Offset == offset {
			b.points[i] = KeyframePoint{Offset: offset, Value: value, Easing: easing}
			return b
		}
	}
	b.points = append(b.points, KeyframePoint{Offset: offset, Value: value, Easing: easing})
	return b
}

// Fill sets the fill mode.
func (b *KeyframeTrackBuilder) Fill(mode FillMode) *KeyframeTrackBuilder {
	b.playback.Fill = mode
	return b
}

// Direction sets the play direction.
func (b *KeyframeTrackBuilder) Direction(dir PlayDirection) *KeyframeTrackBuilder {
	b.playback.Direction = dir
	return b
}

// Iterations sets the traversal count; Infinite loops forever.
func (b *KeyframeTrackBuilder) Iterations(n int) *KeyframeTrackBuilder {
	b.playback.Iterations = n
	return b
}

// Delay postpones the first traversal by d seconds.
func (b *KeyframeTrackBuilder) Delay(d float32) *KeyframeTrackBuilder {
	b.playback.Delay = d
	return b
}

// Build sorts the points by offset and validates the track.
func (b *KeyframeTrackBuilder) Build() (KeyframeTrack, error) {
	pts := slices.Clone(b.points)
	slices.SortStableFunc(pts, func(x, y KeyframePoint) int {
		switch {
		case x.Offset < y.Offset:
			return -1
		case x.Offset > y.Offset:
			return 1
		}
		return 0
	})
	return NewKeyframeTrack(pts, b.playback)
}

// MultiKeyframeTrack animates several named properties from one cursor, so
// e.g. position and opacity can never drift apart. Each property is sampled
// at the same position; a property whose points end early holds its last
// value until the longest property finishes.
type MultiKeyframeTrack struct {
	Playback
	names  []string
	tracks [][]KeyframePoint
}

// NewMultiKeyframeTrack validates every property's points (strictly
// increasing offsets) and bundles them under playback.
func NewMultiKeyframeTrack(playback Playback, properties map[string][]KeyframePoint) (MultiKeyframeTrack, error) {
	if len(properties) == 0 {
		return MultiKeyframeTrack{}, fmt.Errorf("%w: multi-keyframe track has no properties", ErrInvalidConfiguration)
	}
	if err := validatePlayback(playback); err != nil {
		return MultiKeyframeTrack{}, err
	}
	m := MultiKeyframeTrack{Playback: playback}
	for name := range properties {
		m.names = append(m.names, name)
	}
	slices.Sort(m.names)
	for _, name := range m.names {
		pts := properties[name]
		if err := validateOffsets(len(pts), func(i int) float32 { return pts[i].Offset }); err != nil {
			return MultiKeyframeTrack{}, fmt.Errorf("property %q: %w", name, err)
		}
		m.tracks = append(m.tracks, slices.Clone(pts))
	}
	return m, nil
}

// Names returns the property names in sorted order.
func (m MultiKeyframeTrack) Names() []string {
	return slices.Clone(m.names)
}

// Duration is the length of one traversal of the longest property.
func (m MultiKeyframeTrack) Duration() float32 {
	var d float32
	for _, pts := range m.tracks {
		d = max(d, pts[len(pts)-1].Offset)
	}
	return d
}

// TotalDuration covers the delay and every iteration; +Inf when infinite.
func (m MultiKeyframeTrack) TotalDuration() float32 {
	return m.totalDuration(m.Duration())
}

// Evaluate returns every defined property value at elapsed.
func (m MultiKeyframeTrack) Evaluate(elapsed float32) map[string]float32 {
	out := make(map[string]float32, len(m.names))
	m.evaluateInto(elapsed, out)
	return out
}

func (m MultiKeyframeTrack) evaluateInto(elapsed float32, dst map[string]float32) {
	clear(dst)
	pos, ok := m.cursor(m.Duration(), elapsed)
	if !ok {
		return
	}
	for i, pts := range m.tracks {
		if v, ok := sampleScalar(pts, m.Fill, pos); ok {
			dst[m.names[i]] = v
		}
	}
}

// Property evaluates a single property.
func (m MultiKeyframeTrack) Property(name string, elapsed float32) (float32, bool) {
	i := slices.Index(m.names, name)
	if i < 0 {
		return 0, false
	}
	pos, ok := m.cursor(m.Duration(), elapsed)
	if !ok {
		return 0, false
	}
	return sampleScalar(m.tracks[i], m.Fill, pos)
}

// TypedPoint is a keyframe carrying a structured value.
type TypedPoint[T Lerper[T]] struct {
	Offset float32
	Value  T
	Easing Easing
}

// TypedTrack is KeyframeTrack for any Lerper value: Vec3, Color, LabColor,
// Quat or a caller's own type. It is evaluated directly by the caller; the
// scheduler registers scalar tracks only.
type TypedTrack[T Lerper[T]] struct {
	Playback
	points []TypedPoint[T]
}

// NewTypedTrack validates points (strictly increasing offsets).
func NewTypedTrack[T Lerper[T]](points []TypedPoint[T], playback Playback) (TypedTrack[T], error) {
	if err := validateOffsets(len(points), func(i int) float32 { return points[i].Offset }); err != nil {
		return TypedTrack[T]{}, err
	}
	if err := validatePlayback(playback); err != nil {
		return TypedTrack[T]{}, err
	}
	return TypedTrack[T]{Playback: playback, points: slices.Clone(points)}, nil
}

// Duration is the length of one traversal.
func (k TypedTrack[T]) Duration() float32 {
	if len(k.points) == 0 {
		return 0
	}
	return k.points[len(k.points)-1].Offset
}

// TotalDuration covers the delay and every iteration; +Inf when infinite.
func (k TypedTrack[T]) TotalDuration() float32 {
	return k.totalDuration(k.Duration())
}

// Evaluate returns the interpolated value at elapsed, or false when undefined.
func (k TypedTrack[T]) Evaluate(elapsed float32) (T, bool) {
	var zero T
	if len(k.points) == 0 {
		return zero, false
	}
	pos, ok := k.cursor(k.Duration(), elapsed)
	if !ok {
		return zero, false
	}
	lo, hi, f, before := bracket(len(k.points), func(i int) float32 { return k.points[i].Offset }, pos)
	if before {
		if !k.Fill.holdsStart() {
			return zero, false
		}
		return k.points[0].Value, true
	}
	if lo == hi {
		return k.points[lo].Value, true
	}
	return k.points[lo].Value.Lerp(k.points[hi].Value, k.points[lo].Easing.Apply(f)), true
}
