package cadence

import (
	"encoding/json"
	"fmt"
	"time"
)

// scriptStep is a single action in a scenario script.
type scriptStep struct {
	Action     string        `json:"action"`
	Label      string        `json:"label,omitempty"`
	Preset     string        `json:"preset,omitempty"`
	Spring     *SpringConfig `json:"spring,omitempty"`
	Initial    float32       `json:"initial,omitempty"`
	Target     float32       `json:"target,omitempty"`
	Points     []scriptPoint `json:"points,omitempty"`
	Fill       string        `json:"fill,omitempty"`
	Iterations int           `json:"iterations,omitempty"`
	Ms         int           `json:"ms,omitempty"`
	Ticks      int           `json:"ticks,omitempty"`
	Value      float32       `json:"value,omitempty"`
	Tolerance  float32       `json:"tolerance,omitempty"`
	AtRest     *bool         `json:"atRest,omitempty"`
}

type scriptPoint struct {
	At     float32 `json:"at"`
	Value  float32 `json:"value"`
	Easing Easing  `json:"easing,omitempty"`
}

// script is the top-level JSON structure for a scenario script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var fillNames = map[string]FillMode{
	"":         FillNone,
	"none":     FillNone,
	"forward":  FillForward,
	"backward": FillBackward,
	"both":     FillBoth,
}

// ScriptRunner plays a JSON scenario against a scheduler on a manual clock.
// Scenarios register springs and tracks under labels, move targets, advance
// time and check values, which makes animation regressions reproducible
// without a host UI.
//
//	{"steps": [
//	  {"action": "spring", "label": "x", "preset": "stiff"},
//	  {"action": "target", "label": "x", "target": 100},
//	  {"action": "advance", "ms": 2000, "ticks": 240},
//	  {"action": "expect", "label": "x", "value": 100, "atRest": true}
//	]}
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	springs   map[string]*SharedValue
	keyframes map[string]*SharedKeyframe
	done      bool
}

// LoadScript parses a JSON scenario script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("cadence: parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("cadence: parse script: no steps")
	}
	return &ScriptRunner{
		steps:     sc.Steps,
		springs:   map[string]*SharedValue{},
		keyframes: map[string]*SharedKeyframe{},
	}, nil
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Run executes every remaining step and stops at the first failure.
func (r *ScriptRunner) Run(s *Scheduler, clock *ManualClock) error {
	for !r.done {
		if err := r.Step(s, clock); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the next step.
func (r *ScriptRunner) Step(s *Scheduler, clock *ManualClock) error {
	if r.done {
		return nil
	}
	i := r.cursor
	st := r.steps[i]
	r.cursor++
	if r.cursor >= len(r.steps) {
		r.done = true
	}
	if err := r.exec(s, clock, st); err != nil {
		return fmt.Errorf("cadence: script step %d (%s %q): %w", i, st.Action, st.Label, err)
	}
	return nil
}

func (r *ScriptRunner) exec(s *Scheduler, clock *ManualClock, st scriptStep) error {
	switch st.Action {
	case "spring":
		cfg := SpringStiff
		switch {
		case st.Spring != nil:
			cfg = *st.Spring
		case st.Preset != "":
			p, ok := s.Config().Preset(st.Preset)
			if !ok {
				return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfiguration, st.Preset)
			}
			cfg = p
		}
		v, err := NewSharedValue(s, cfg, st.Initial)
		if err != nil {
			return err
		}
		r.springs[st.Label] = v

	case "keyframe":
		fill, ok := fillNames[st.Fill]
		if !ok {
			return fmt.Errorf("%w: unknown fill %q", ErrInvalidConfiguration, st.Fill)
		}
		b := NewKeyframeTrackBuilder().Fill(fill).Iterations(st.Iterations)
		for _, p := range st.Points {
			b.AtEased(p.At, p.Value, p.Easing)
		}
		track, err := b.Build()
		if err != nil {
			return err
		}
		k, err := NewSharedKeyframe(s, track)
		if err != nil {
			return err
		}
		r.keyframes[st.Label] = k

	case "target":
		v, ok := r.springs[st.Label]
		if !ok {
			return fmt.Errorf("no spring labelled %q", st.Label)
		}
		return v.Set(st.Target)

	case "advance":
		ticks := max(st.Ticks, 1)
		step := time.Duration(st.Ms) * time.Millisecond / time.Duration(ticks)
		for range ticks {
			clock.Advance(step)
			s.Tick()
		}

	case "expect":
		return r.expect(s, st)

	case "release":
		if v, ok := r.springs[st.Label]; ok {
			v.Release()
		} else if k, ok := r.keyframes[st.Label]; ok {
			k.Release()
		} else {
			return fmt.Errorf("nothing labelled %q", st.Label)
		}

	case "expect-gone":
		id, err := r.lookup(st.Label)
		if err != nil {
			return err
		}
		if _, ok := s.Snapshot(id); ok {
			return fmt.Errorf("%v still registered", id)
		}

	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

func (r *ScriptRunner) lookup(label string) (ID, error) {
	if v, ok := r.springs[label]; ok {
		return v.ID(), nil
	}
	if k, ok := r.keyframes[label]; ok {
		return k.ID(), nil
	}
	return nil, fmt.Errorf("nothing labelled %q", label)
}

func (r *ScriptRunner) expect(s *Scheduler, st scriptStep) error {
	id, err := r.lookup(st.Label)
	if err != nil {
		return err
	}
	snap, ok := s.Snapshot(id)
	if !ok {
		return staleErr(id)
	}
	tol := st.Tolerance
	if tol == 0 {
		tol = 1e-3
	}
	if abs32(snap.Value-st.Value) > tol {
		return fmt.Errorf("value = %v, want %v (±%v)", snap.Value, st.Value, tol)
	}
	if st.AtRest != nil && snap.AtRest != *st.AtRest {
		return fmt.Errorf("at rest = %v, want %v", snap.AtRest, *st.AtRest)
	}
	return nil
}
