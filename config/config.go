// Package config provides configuration loading and access for the growth engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sprout/organs"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Body      BodyConfig             `yaml:"body"`
	Growth    GrowthConfig           `yaml:"growth"`
	Placement PlacementConfig        `yaml:"placement"`
	Repair    RepairConfig           `yaml:"repair"`
	Colony    ColonyConfig           `yaml:"colony"`
	Genome    GenomeConfig           `yaml:"genome"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`
	Organs    map[string]organs.Spec `yaml:"organs"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BodyConfig holds body growth and wave field parameters.
type BodyConfig struct {
	InitialSize   int     `yaml:"initial_size"`   // Cells grown when a fresh organism is created
	CandidatePool int     `yaml:"candidate_pool"` // Uniform pick among the best N candidates
	TargetWeight  float64 `yaml:"target_weight"`  // Default bias weight for a single target point
	Jitter        float64 `yaml:"jitter"`         // Amplitude of the hashed per-cell tie breaker
	WaveBins      int     `yaml:"wave_bins"`      // Angular bins of the value noise
	WaveAmpBase   float64 `yaml:"wave_amp_base"`  // ampBlocks at wiggle 0
	WaveAmpWiggle float64 `yaml:"wave_amp_wiggle"`
}

// GrowthConfig holds incremental module growth parameters.
type GrowthConfig struct {
	MaxGrows          int     `yaml:"max_grows"`          // Default per-call cell budget
	UnorientedPenalty float64 `yaml:"unoriented_penalty"` // Growth chance reduction when not facing any target
	ZigzagPeriod      int     `yaml:"zigzag_period"`      // Segments between zigzag turns
	CurveChance       float64 `yaml:"curve_chance"`       // Per-step turn probability at wiggle 1
	TargetTaper       float64 `yaml:"target_taper"`       // Distance at which target ordering fades to index ordering
}

// PlacementConfig holds organ placement parameters.
type PlacementConfig struct {
	AnchorSamples    int     `yaml:"anchor_samples"`      // Random perimeter samples per attempt
	AnchorTopK       int     `yaml:"anchor_top_k"`        // Random pick among the K closest to a target
	AnchorAttempts   int     `yaml:"anchor_attempts"`     // Anchors tried before giving up
	MirrorSymmetry   float64 `yaml:"mirror_symmetry"`     // plan.symmetry must exceed this to mirror
	MirrorChance     float64 `yaml:"mirror_chance"`       // Independent draw for the twin
	TooCloseRadius   int     `yaml:"too_close_radius"`    // Chebyshev radius at placement
	NormalizeRadius  int     `yaml:"normalize_radius"`    // Chebyshev radius at migration normalization
	FaceEyeRadiusMax int     `yaml:"face_eye_radius_max"` // Cap on the face eye radius
	FaceEyeOrgan     string  `yaml:"face_eye_organ"`      // Radial organ whose body-size gates size the face eye
}

// RepairConfig holds integrity repair parameters.
type RepairConfig struct {
	MaxShift int `yaml:"max_shift"` // Integer steps tried toward the body
}

// ColonyConfig holds the per-tick scheduler parameters.
type ColonyConfig struct {
	BodyCellsPerTick int     `yaml:"body_cells_per_tick"`
	SpawnChance      float64 `yaml:"spawn_chance"`    // Probability of an organ spawn attempt per tick
	WaveStep         int     `yaml:"wave_step"`       // Wave phase steps per tick
	MaxBody          int     `yaml:"max_body"`        // Body growth stops at this size
	BudMinModules    int     `yaml:"bud_min_modules"` // Modules an organism needs before it can bud
}

// GenomeConfig holds reinstantiation parameters.
type GenomeConfig struct {
	BodyBase        int `yaml:"body_base"`
	BodyPerModule   int `yaml:"body_per_module"`
	MaxBody         int `yaml:"max_body"`
	DrainIterations int `yaml:"drain_iterations"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks per aggregated stats row
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Registry *organs.Registry // Validated organ table
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
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
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is like Load but takes the override document directly.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := cfg.merge(data); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge overlays data on c. Organ entries replace whole specs; a type that
// only appears in the override is added to the table.
func (c *Config) merge(data []byte) error {
	base := c.Organs
	c.Organs = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	overrides := c.Organs
	c.Organs = base
	if c.Organs == nil {
		c.Organs = make(map[string]organs.Spec, len(overrides))
	}
	for name, spec := range overrides {
		c.Organs[name] = spec
	}
	return nil
}

// computeDerived validates the organ table and applies fallbacks.
func (c *Config) computeDerived() error {
	if c.Body.CandidatePool <= 0 {
		c.Body.CandidatePool = 12
	}
	if c.Body.WaveBins <= 0 {
		c.Body.WaveBins = 24
	}
	if c.Growth.ZigzagPeriod <= 0 {
		c.Growth.ZigzagPeriod = 3
	}
	if c.Placement.AnchorSamples <= 0 {
		c.Placement.AnchorSamples = 60
	}
	if c.Placement.AnchorTopK <= 0 {
		c.Placement.AnchorTopK = 6
	}
	if c.Placement.AnchorAttempts <= 0 {
		c.Placement.AnchorAttempts = 1
	}
	if c.Repair.MaxShift <= 0 {
		c.Repair.MaxShift = 12
	}
	if c.Genome.DrainIterations <= 0 {
		c.Genome.DrainIterations = 256
	}

	reg, err := organs.NewRegistry(c.Organs)
	if err != nil {
		return fmt.Errorf("validating organ table: %w", err)
	}
	c.Derived.Registry = reg
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
