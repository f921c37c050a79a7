package cadence

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the scheduler's tunables. Start from DefaultConfig; the zero
// value is rejected by Validate.
type Config struct {
	// TickInterval is the cadence of the background tick loop. It is
	// independent of the display refresh rate.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Epsilon is the settling tolerance applied to every registered spring.
	Epsilon Epsilon `yaml:"epsilon"`
	// MaxStep bounds a single integration step. A merged tick (the loop fell
	// behind) is split into sub-steps of at most this length.
	MaxStep time.Duration `yaml:"max_step"`
	// MaxSpringDuration force-settles a spring that has been moving for
	// longer than this. 0 lets undamped springs oscillate until retargeted
	// or unregistered.
	MaxSpringDuration time.Duration `yaml:"max_spring_duration"`
	// StatsEvery logs a debug stats line every StatsEvery ticks; 0 disables.
	StatsEvery uint64 `yaml:"stats_every"`
	// Presets adds or overrides named spring configs.
	Presets map[string]SpringConfig `yaml:"presets"`
}

// DefaultConfig ticks at 120Hz with the default settling tolerances.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second / 120,
		Epsilon:      DefaultEpsilon,
		MaxStep:      time.Second / 120,
		StatsEvery:   120,
	}
}

// LoadConfig decodes YAML over DefaultConfig, so omitted fields keep their
// defaults. Durations are written as Go duration strings ("8ms").
//
//	tick_interval: 8ms
//	epsilon: {position: 0.25, velocity: 2}
//	presets:
//	  drawer: {stiffness: 300, damping: 28, mass: 1}
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("cadence: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and decodes a YAML config file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cadence: read config %s: %w", path, err)
	}
	return LoadConfig(data)
}

// Validate checks intervals, tolerances and every custom preset.
func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval %v must be > 0", ErrInvalidConfiguration, c.TickInterval)
	case c.MaxStep < 0:
		return fmt.Errorf("%w: max step %v must be >= 0", ErrInvalidConfiguration, c.MaxStep)
	case c.MaxSpringDuration < 0:
		return fmt.Errorf("%w: max spring duration %v must be >= 0", ErrInvalidConfiguration, c.MaxSpringDuration)
	case !finite32(c.Epsilon.Position) || c.Epsilon.Position <= 0 ||
		!finite32(c.Epsilon.Velocity) || c.Epsilon.Velocity <= 0:
		return fmt.Errorf("%w: settling epsilons %+v must be > 0", ErrInvalidConfiguration, c.Epsilon)
	}
	for name, p := range c.Presets {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return nil
}

// Preset resolves name against the custom presets first, then the built-ins.
func (c Config) Preset(name string) (SpringConfig, bool) {
	if p, ok := c.Presets[name]; ok {
		return p, true
	}
	return SpringPreset(name)
}
