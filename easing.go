package cadence

import (
	"fmt"
	"strings"

	"github.com/tanema/gween/ease"
)

// Easing selects the curve used to shape the interpolation factor between two
// keyframes or across a tween.
type Easing uint8

const (
	Linear          Easing = iota // constant rate
	EaseIn                        // cubic acceleration from rest
	EaseOut                       // cubic deceleration to rest
	EaseInOut                     // cubic acceleration then deceleration
	EaseInQuad                    // quadratic acceleration
	EaseOutQuad                   // quadratic deceleration
	EaseInOutQuad                 // quadratic in-out
	EaseInSine                    // sinusoidal acceleration
	EaseOutSine                   // sinusoidal deceleration
	EaseInOutSine                 // sinusoidal in-out
	EaseInBack                    // pulls back before moving forward
	EaseOutBack                   // overshoots then returns
	EaseInOutBack                 // back on both ends
	EaseOutElastic                // springy overshoot at the end
	EaseOutBounce                 // bounces against the end value
	EaseInOutBounce               // bounces at both ends
	easingCount
)

var easingFuncs = [easingCount]ease.TweenFunc{
	Linear:          ease.Linear,
	EaseIn:          ease.InCubic,
	EaseOut:         ease.OutCubic,
	EaseInOut:       ease.InOutCubic,
	EaseInQuad:      ease.InQuad,
	EaseOutQuad:     ease.OutQuad,
	EaseInOutQuad:   ease.InOutQuad,
	EaseInSine:      ease.InSine,
	EaseOutSine:     ease.OutSine,
	EaseInOutSine:   ease.InOutSine,
	EaseInBack:      ease.InBack,
	EaseOutBack:     ease.OutBack,
	EaseInOutBack:   ease.InOutBack,
	EaseOutElastic:  ease.OutElastic,
	EaseOutBounce:   ease.OutBounce,
	EaseInOutBounce: ease.InOutBounce,
}

var easingNames = [easingCount]string{
	Linear:          "linear",
	EaseIn:          "ease-in",
	EaseOut:         "ease-out",
	EaseInOut:       "ease-in-out",
	EaseInQuad:      "ease-in-quad",
	EaseOutQuad:     "ease-out-quad",
	EaseInOutQuad:   "ease-in-out-quad",
	EaseInSine:      "ease-in-sine",
	EaseOutSine:     "ease-out-sine",
	EaseInOutSine:   "ease-in-out-sine",
	EaseInBack:      "ease-in-back",
	EaseOutBack:     "ease-out-back",
	EaseInOutBack:   "ease-in-out-back",
	EaseOutElastic:  "ease-out-elastic",
	EaseOutBounce:   "ease-out-bounce",
	EaseInOutBounce: "ease-in-out-bounce",
}

// Func returns the gween easing function backing e. Unknown values fall back
// to linear.
func (e Easing) Func() ease.TweenFunc {
	if e >= easingCount {
		return ease.Linear
	}
	return easingFuncs[e]
}

// Apply maps a progress factor t to the eased factor. t is clamped to [0, 1];
// the result may leave that range for back and elastic curves.
func (e Easing) Apply(t float32) float32 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	return e.Func()(t, 0, 1, 1)
}

func (e Easing) String() string {
	if e >= easingCount {
		return fmt.Sprintf("Easing(%d)", uint8(e))
	}
	return easingNames[e]
}

// ParseEasing returns the easing whose String form is name.
func ParseEasing(name string) (Easing, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range easingNames {
		if n == name {
			return Easing(i), nil
		}
	}
	return Linear, fmt.Errorf("%w: unknown easing %q", ErrInvalidConfiguration, name)
}

// UnmarshalText lets easings be written by name in config and script files.
func (e *Easing) UnmarshalText(text []byte) error {
	v, err := ParseEasing(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (e Easing) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}
