package cadence

// Property names used by the preset tracks.
const (
	PropOpacity = "opacity"
	PropScale   = "scale"
	PropX       = "x"
	PropY       = "y"
)

// Edge is the side a slide preset enters from or leaves toward.
type Edge uint8

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) axis(distance float32) (string, float32) {
	switch e {
	case EdgeRight:
		return PropX, distance
	case EdgeTop:
		return PropY, -distance
	case EdgeBottom:
		return PropY, distance
	}
	return PropX, -distance
}

func ramp(d, from, to float32, easing Easing) []KeyframePoint {
	return []KeyframePoint{
		{Offset: 0, Value: from, Easing: easing},
		{Offset: d, Value: to},
	}
}

func preset(props map[string][]KeyframePoint) (MultiKeyframeTrack, error) {
	return NewMultiKeyframeTrack(Playback{Fill: FillBoth}, props)
}

// FadeIn animates opacity 0 to 1 over d seconds.
func FadeIn(d float32) (MultiKeyframeTrack, error) {
	return preset(map[string][]KeyframePoint{
		PropOpacity: ramp(d, 0, 1, EaseOut),
	})
}

// FadeOut animates opacity 1 to 0 over d seconds.
func FadeOut(d float32) (MultiKeyframeTrack, error) {
	return preset(map[string][]KeyframePoint{
		PropOpacity: ramp(d, 1, 0, EaseIn),
	})
}

// ScaleIn grows from 0.95 to full size while fading in.
func ScaleIn(d float32) (MultiKeyframeTrack, error) {
	return preset(map[string][]KeyframePoint{
		PropScale:   ramp(d, 0.95, 1, EaseOut),
		PropOpacity: ramp(d, 0, 1, EaseOut),
	})
}

// ScaleOut shrinks to 0.95 while fading out.
func ScaleOut(d float32) (MultiKeyframeTrack, error) {
	return preset(map[string][]KeyframePoint{
		PropScale:   ramp(d, 1, 0.95, EaseIn),
		PropOpacity: ramp(d, 1, 0, EaseIn),
	})
}

// SlideIn moves from distance units beyond edge to 0 while fading in.
func SlideIn(d float32, edge Edge, distance float32) (MultiKeyframeTrack, error) {
	prop, from := edge.axis(distance)
	return preset(map[string][]KeyframePoint{
		prop:        ramp(d, from, 0, EaseOut),
		PropOpacity: ramp(d, 0, 1, EaseOut),
	})
}

// SlideOut moves from 0 to distance units beyond edge while fading out.
func SlideOut(d float32, edge Edge, distance float32) (MultiKeyframeTrack, error) {
	prop, to := edge.axis(distance)
	return preset(map[string][]KeyframePoint{
		prop:        ramp(d, 0, to, EaseIn),
		PropOpacity: ramp(d, 1, 0, EaseIn),
	})
}

// Bounce scales in with an overshoot.
func Bounce(d float32) (MultiKeyframeTrack, error) {
	return preset(map[string][]KeyframePoint{
		PropScale: {
			{Offset: 0, Value: 0.3, Easing: EaseOut},
			{Offset: d * 0.5, Value: 1.05, Easing: EaseInOut},
			{Offset: d * 0.7, Value: 0.9, Easing: EaseInOut},
			{Offset: d, Value: 1},
		},
		PropOpacity: ramp(d*0.5, 0, 1, EaseOut),
	})
}

// PopIn overshoots slightly past full size.
func PopIn(d float32) (MultiKeyframeTrack, error) {
	return preset(map[string][]KeyframePoint{
		PropScale:   ramp(d, 0.5, 1, EaseOutBack),
		PropOpacity: ramp(d, 0, 1, EaseOut),
	})
}

// Pulse breathes scale and opacity forever with period d.
func Pulse(d float32) (MultiKeyframeTrack, error) {
	return NewMultiKeyframeTrack(Playback{Fill: FillBoth, Iterations: Infinite}, map[string][]KeyframePoint{
		PropScale: {
			{Offset: 0, Value: 1, Easing: EaseInOutSine},
			{Offset: d / 2, Value: 1.05, Easing: EaseInOutSine},
			{Offset: d, Value: 1},
		},
		PropOpacity: {
			{Offset: 0, Value: 1, Easing: EaseInOutSine},
			{Offset: d / 2, Value: 0.7, Easing: EaseInOutSine},
			{Offset: d, Value: 1},
		},
	})
}
