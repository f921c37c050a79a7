package cadence

import (
	"fmt"
	"math"
)

// SpringConfig describes a damped harmonic oscillator. Stiffness and Mass must
// be positive and Damping non-negative; see Validate.
type SpringConfig struct {
	Stiffness float32 `yaml:"stiffness"`
	Damping   float32 `yaml:"damping"`
	Mass      float32 `yaml:"mass"`
}

// Spring presets. They differ only in their stiffness/damping/mass tuples.
var (
	// SpringGentle is a slow spring suited to page transitions.
	SpringGentle = SpringConfig{Stiffness: 120, Damping: 14, Mass: 1}
	// SpringWobbly overshoots noticeably before settling.
	SpringWobbly = SpringConfig{Stiffness: 180, Damping: 12, Mass: 1}
	// SpringStiff is the default: quick, with a small overshoot.
	SpringStiff = SpringConfig{Stiffness: 400, Damping: 30, Mass: 1}
	// SpringSnappy is very stiff with minimal oscillation.
	SpringSnappy = SpringConfig{Stiffness: 600, Damping: 40, Mass: 1}
	// SpringMolasses is slow and critically damped (no overshoot).
	SpringMolasses = SpringConfig{Stiffness: 100, Damping: 20, Mass: 1}
)

var springPresets = map[string]SpringConfig{
	"gentle":   SpringGentle,
	"wobbly":   SpringWobbly,
	"stiff":    SpringStiff,
	"snappy":   SpringSnappy,
	"molasses": SpringMolasses,
}

// SpringPreset looks up a built-in preset by its lowercase name.
func SpringPreset(name string) (SpringConfig, bool) {
	c, ok := springPresets[name]
	return c, ok
}

// NewSpringConfig returns a SpringConfig with the given parameters.
func NewSpringConfig(stiffness, damping, mass float32) SpringConfig {
	return SpringConfig{Stiffness: stiffness, Damping: damping, Mass: mass}
}

// CriticalDamping returns 2·sqrt(stiffness·mass), the damping at which the
// spring returns to rest fastest without oscillating.
func (c SpringConfig) CriticalDamping() float32 {
	return 2 * float32(math.Sqrt(float64(c.Stiffness*c.Mass)))
}

// IsUnderdamped reports whether the spring oscillates around its target.
func (c SpringConfig) IsUnderdamped() bool {
	return c.Damping < c.CriticalDamping()
}

// IsCriticallyDamped reports whether damping is within 0.01 of critical.
func (c SpringConfig) IsCriticallyDamped() bool {
	return abs32(c.Damping-c.CriticalDamping()) < 0.01
}

// IsOverdamped reports whether the spring creeps toward its target.
func (c SpringConfig) IsOverdamped() bool {
	return c.Damping > c.CriticalDamping()
}

// Validate rejects non-finite values, non-positive stiffness or mass, and
// negative damping.
func (c SpringConfig) Validate() error {
	switch {
	case !finite32(c.Stiffness) || !finite32(c.Damping) || !finite32(c.Mass):
		return fmt.Errorf("%w: spring parameters must be finite (%+v)", ErrInvalidConfiguration, c)
	case c.Stiffness <= 0:
		return fmt.Errorf("%w: spring stiffness %v must be > 0", ErrInvalidConfiguration, c.Stiffness)
	case c.Damping < 0:
		return fmt.Errorf("%w: spring damping %v must be >= 0", ErrInvalidConfiguration, c.Damping)
	case c.Mass <= 0:
		return fmt.Errorf("%w: spring mass %v must be > 0", ErrInvalidConfiguration, c.Mass)
	}
	return nil
}

// Epsilon holds the settling tolerances: a spring is settled when it is
// closer than Position to its target and slower than Velocity units/second.
type Epsilon struct {
	Position float32 `yaml:"position"`
	Velocity float32 `yaml:"velocity"`
}

// DefaultEpsilon is imperceptible at typical UI scales: half a pixel, and
// five pixels per second.
var DefaultEpsilon = Epsilon{Position: 0.5, Velocity: 5.0}

// Spring is the integrator state for one scalar value. The zero value is not
// useful; create springs with NewSpring.
type Spring struct {
	config   SpringConfig
	value    float32
	velocity float32
	target   float32
	eps      Epsilon
}

// NewSpring returns a spring at rest at initial.
func NewSpring(config SpringConfig, initial float32) Spring {
	return Spring{
		config: config,
		value:  initial,
		target: initial,
		eps:    DefaultEpsilon,
	}
}

// Value returns the current position.
func (s *Spring) Value() float32 { return s.value }

// Velocity returns the current velocity in units per second.
func (s *Spring) Velocity() float32 { return s.velocity }

// Target returns the position the spring is pulled toward.
func (s *Spring) Target() float32 { return s.target }

// Config returns the spring's parameters.
func (s *Spring) Config() SpringConfig { return s.config }

// SetTarget moves the equilibrium point. Velocity is kept, so an interrupted
// animation carries its momentum into the new one.
func (s *Spring) SetTarget(target float32) { s.target = target }

// SetConfig replaces the spring parameters; the next Step uses them.
func (s *Spring) SetConfig(config SpringConfig) { s.config = config }

// SetEpsilon overrides the settling tolerances.
func (s *Spring) SetEpsilon(eps Epsilon) { s.eps = eps }

// SetImmediate jumps to value with no animation.
func (s *Spring) SetImmediate(value float32) {
	s.value = value
	s.target = value
	s.velocity = 0
}

// IsSettled reports whether the spring is within tolerance of its target.
func (s *Spring) IsSettled() bool {
	return abs32(s.value-s.target) < s.eps.Position && abs32(s.velocity) < s.eps.Velocity
}

// Step advances the spring by dt seconds with one RK4 step and reports whether
// the spring is at rest. A settled spring is snapped exactly onto its target
// and not integrated.
func (s *Spring) Step(dt float32) bool {
	if s.IsSettled() {
		s.value = s.target
		s.velocity = 0
		return true
	}
	if dt <= 0 {
		return false
	}

	x, v := s.value, s.velocity
	half := dt * 0.5

	k1v := s.acceleration(x, v)
	k1x := v

	k2v := s.acceleration(x+k1x*half, v+k1v*half)
	k2x := v + k1v*half

	k3v := s.acceleration(x+k2x*half, v+k2v*half)
	k3x := v + k2v*half

	k4v := s.acceleration(x+k3x*dt, v+k3v*dt)
	k4x := v + k3v*dt

	s.velocity = v + (k1v+2*k2v+2*k3v+k4v)*dt/6
	s.value = x + (k1x+2*k2x+2*k3x+k4x)*dt/6
	return false
}

// Advance steps the spring through dt seconds in sub-steps no longer than
// maxStep. A maxStep <= 0 means a single step.
func (s *Spring) Advance(dt, maxStep float32) bool {
	if maxStep <= 0 || dt <= maxStep {
		return s.Step(dt)
	}
	for dt > 0 {
		h := min(dt, maxStep)
		if s.Step(h) {
			return true
		}
		dt -= h
	}
	return s.IsSettled()
}

func (s *Spring) acceleration(x, v float32) float32 {
	springForce := -s.config.Stiffness * (x - s.target)
	dampingForce := -s.config.Damping * v
	return (springForce + dampingForce) / s.config.Mass
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
