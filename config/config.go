// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/dla/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Swarm      SwarmConfig      `yaml:"swarm"`
	Screen     ScreenConfig     `yaml:"screen"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Milestones MilestonesConfig `yaml:"milestones"`
	Output     OutputConfig     `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the aggregation parameters.
type SimulationConfig struct {
	Radius      int     `yaml:"radius"`       // Containment radius; grid side = 2*radius+1
	Particles   int     `yaml:"particles"`    // Spawn attempts, including escapes and exhaustions
	MaxAttempts int     `yaml:"max_attempts"` // Per-particle step cap
	Margin      float64 `yaml:"margin"`       // Release distance beyond the cluster envelope
}

// SwarmConfig holds concurrent walker parameters.
type SwarmConfig struct {
	Enabled       bool `yaml:"enabled"`
	Walkers       int  `yaml:"walkers"`
	StepsPerRound int  `yaml:"steps_per_round"`
	Workers       int  `yaml:"workers"` // 0 = GOMAXPROCS
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width             int `yaml:"width"`
	Height            int `yaml:"height"`
	TargetFPS         int `yaml:"target_fps"`
	ParticlesPerFrame int `yaml:"particles_per_frame"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	Window              int     `yaml:"window"`                // Particles per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Particles averaged for perf stats
	FractalMinRadius    float64 `yaml:"fractal_min_radius"`    // Smallest radius in the mass-radius fit
}

// MilestonesConfig holds milestone detection thresholds.
type MilestonesConfig struct {
	ClusterFractions []float64 `yaml:"cluster_fractions"`  // Fractions of the containment radius
	EscapeSpikeRatio float64   `yaml:"escape_spike_ratio"` // Window escape rate vs running mean
	EscapeSpikeMin   int       `yaml:"escape_spike_min"`   // Minimum escapes for a spike
}

// OutputConfig holds file output settings.
type OutputConfig struct {
	PNGWidthCM  float64 `yaml:"png_width_cm"`
	PNGHeightCM float64 `yaml:"png_height_cm"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridSize       int     // 2*Radius + 1
	Center         int     // GridSize / 2
	MaxSpawnRadius float64 // GridSize/2 - 1
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.GridSize = 2*c.Simulation.Radius + 1
	c.Derived.Center = c.Derived.GridSize / 2
	c.Derived.MaxSpawnRadius = systems.MaxSpawnRadius(c.Derived.GridSize)

	if c.Screen.ParticlesPerFrame < 1 {
		c.Screen.ParticlesPerFrame = 1
	}
	if c.Telemetry.Window < 1 {
		c.Telemetry.Window = 1
	}
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// Params returns the simulation parameters.
func (c *Config) Params() systems.Params {
	return systems.Params{
		Radius:      c.Simulation.Radius,
		Particles:   c.Simulation.Particles,
		MaxAttempts: c.Simulation.MaxAttempts,
		Margin:      c.Simulation.Margin,
	}
}

// SwarmParams returns the concurrent walker parameters.
func (c *Config) SwarmParams() systems.SwarmParams {
	return systems.SwarmParams{
		Walkers:       c.Swarm.Walkers,
		StepsPerRound: c.Swarm.StepsPerRound,
		Workers:       c.Swarm.Workers,
	}
}

// Validate reports configuration errors before any simulation work begins.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if c.Swarm.Enabled {
		if c.Swarm.Walkers <= 0 {
			return fmt.Errorf("swarm: walkers must be positive, got %d", c.Swarm.Walkers)
		}
		if c.Swarm.StepsPerRound <= 0 {
			return fmt.Errorf("swarm: steps_per_round must be positive, got %d", c.Swarm.StepsPerRound)
		}
	}
	for _, f := range c.Milestones.ClusterFractions {
		if f <= 0 || f >= 1 {
			return fmt.Errorf("milestones: cluster fraction %v not in (0, 1)", f)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
