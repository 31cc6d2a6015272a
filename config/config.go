// Package config provides configuration loading and access for the tracer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/rng"
	"github.com/pthm-cable/flowtrace/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Validate for unusable configurations.
var ErrInvalid = errors.New("invalid config")

// Config holds all tracer configuration parameters.
type Config struct {
	Canvas     CanvasConfig     `yaml:"canvas" json:"canvas"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Field      FieldConfig      `yaml:"field" json:"field"`
	Export     ExportConfig     `yaml:"export" json:"export"`
	Render     RenderConfig     `yaml:"render" json:"render"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" json:"-"`
}

// CanvasConfig holds the drawing surface size in document units.
type CanvasConfig struct {
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	Background string `yaml:"background" json:"background"` // hex colour of the live canvas
}

// SimulationConfig holds particle simulation parameters.
type SimulationConfig struct {
	Seed           int64   `yaml:"seed" json:"seed"`
	RandomizeSeed  bool    `yaml:"randomize_seed" json:"randomize_seed"` // pick a fresh seed on every restart
	NumPoints      int     `yaml:"num_points" json:"num_points"`
	MaxSteps       int     `yaml:"max_steps" json:"max_steps"` // 0 = animate forever (live only)
	Force          float64 `yaml:"force" json:"force"`
	ForceReduction float64 `yaml:"force_reduction" json:"force_reduction"` // per-step decay, [0, 1)
	Friction       float64 `yaml:"friction" json:"friction"`               // [0, 1)
	MinPenWidth    float64 `yaml:"min_pen_width" json:"min_pen_width"`
	MaxPenWidth    float64 `yaml:"max_pen_width" json:"max_pen_width"`
	Boundary       string  `yaml:"boundary" json:"boundary"` // wrap | recreate
	Parallel       bool    `yaml:"parallel" json:"parallel"`
	Workers        int     `yaml:"workers" json:"workers"` // 0 = GOMAXPROCS
}

// FieldConfig selects and parameterises the flow field.
type FieldConfig struct {
	Strategy     string  `yaml:"strategy" json:"strategy"`
	Resolution   float64 `yaml:"resolution" json:"resolution"`
	Expression   string  `yaml:"expression" json:"expression"`
	Image        string  `yaml:"image" json:"image"` // source file for bitmap and image
	Radius       int     `yaml:"radius" json:"radius"`
	ForceScale   float64 `yaml:"force_scale" json:"force_scale"`
	ArrowSpacing float64 `yaml:"arrow_spacing" json:"arrow_spacing"`
}

// ExportConfig holds the vector export parameters.
type ExportConfig struct {
	SimplifyTolerance float64 `yaml:"simplify_tolerance" json:"simplify_tolerance"`
	MaxError          float64 `yaml:"max_error" json:"max_error"` // curve fit bound, document units
	StrokeWidth       float64 `yaml:"stroke_width" json:"stroke_width"`
	Stroke            string  `yaml:"stroke" json:"stroke"`
}

// RenderConfig holds live rendering settings.
type RenderConfig struct {
	Palette   string `yaml:"palette" json:"palette"`
	TargetFPS int    `yaml:"target_fps" json:"target_fps"`
	ShowField bool   `yaml:"show_field" json:"show_field"`
}

// TelemetryConfig holds run output settings.
type TelemetryConfig struct {
	OutputDir   string `yaml:"output_dir" json:"output_dir"`     // empty disables file output
	LogInterval int    `yaml:"log_interval" json:"log_interval"` // frames between live stat logs, 0 = off
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Width    float64          // Canvas.Width as float64
	Height   float64          // Canvas.Height as float64
	Strategy flow.Strategy    // parsed Field.Strategy
	Boundary systems.Boundary // parsed Simulation.Boundary
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

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
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
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the configuration and recomputes derived values. Call
// it after changing fields by hand.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate reports every unusable value, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	if _, err := colorful.Hex(c.Canvas.Background); err != nil {
		errs = append(errs, fmt.Errorf("canvas background %q: %w", c.Canvas.Background, err))
	}

	s := c.Simulation
	if err := rng.ValidateSeed(s.Seed); err != nil {
		errs = append(errs, err)
	}
	check(s.NumPoints >= 0, "num_points %d < 0", s.NumPoints)
	check(s.MaxSteps >= 0, "max_steps %d < 0", s.MaxSteps)
	check(s.Force >= 0, "force %g < 0", s.Force)
	check(s.ForceReduction >= 0 && s.ForceReduction < 1, "force_reduction %g outside [0, 1)", s.ForceReduction)
	check(s.Friction >= 0 && s.Friction < 1, "friction %g outside [0, 1)", s.Friction)
	check(s.MinPenWidth >= 0 && s.MinPenWidth <= s.MaxPenWidth, "pen width range [%g, %g] is empty", s.MinPenWidth, s.MaxPenWidth)
	if _, err := systems.ParseBoundary(s.Boundary); err != nil {
		errs = append(errs, err)
	}
	check(s.Workers >= 0, "workers %d < 0", s.Workers)

	f := c.Field
	strategy, err := flow.ParseStrategy(f.Strategy)
	if err != nil {
		errs = append(errs, err)
	}
	switch strategy {
	case flow.StrategyBitmap, flow.StrategyImage:
		check(f.Image != "", "field strategy %s needs field.image", strategy)
	case flow.StrategyCustom:
		check(f.Expression != "", "field strategy custom needs field.expression")
	}
	check(finite(f.Resolution), "field resolution %g must be finite", f.Resolution)
	check(f.Radius >= 0, "field radius %d < 0", f.Radius)
	// Negative force_scale selects a fixed force of 1.
	check(finite(f.ForceScale), "field force_scale %g must be finite", f.ForceScale)
	check(f.ArrowSpacing > 0, "arrow_spacing %g must be positive", f.ArrowSpacing)

	e := c.Export
	check(e.SimplifyTolerance >= 0, "simplify_tolerance %g < 0", e.SimplifyTolerance)
	check(e.MaxError > 0, "max_error %g must be positive", e.MaxError)
	check(e.StrokeWidth > 0, "stroke_width %g must be positive", e.StrokeWidth)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Width = float64(c.Canvas.Width)
	c.Derived.Height = float64(c.Canvas.Height)
	c.Derived.Strategy = flow.Strategy(c.Field.Strategy)
	c.Derived.Boundary = systems.Boundary(c.Simulation.Boundary)
}

// FieldParams returns the flow field parameters. raster is the decoded source
// image for the bitmap and image strategies and nil otherwise.
func (c *Config) FieldParams(raster *flow.Raster) flow.Params {
	return flow.Params{
		Strategy:   c.Derived.Strategy,
		Resolution: c.Field.Resolution,
		Expression: c.Field.Expression,
		Raster:     raster,
		Radius:     c.Field.Radius,
		ForceScale: c.Field.ForceScale,
	}
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
