// Package flow builds the flow fields that steer particles.
//
// A field is created in two steps. New draws every random value the strategy
// needs from the shared RNG and stores it in a Data value; Build turns a Data
// value into a Field whose Sample method is pure. Data is the only thing that
// has to travel between processes: Build on the other side recreates the same
// field.
package flow

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/flowtrace/rng"
)

// Strategy names a flow-field generation strategy.
type Strategy string

const (
	StrategyBitmap   Strategy = "bitmap"
	StrategyImage    Strategy = "image"
	StrategyPerlin   Strategy = "perlin"
	StrategySimplex  Strategy = "simplex"
	StrategyClifford Strategy = "clifford-attractor"
	StrategyDeJong   Strategy = "de-jong-attractor"
	StrategyCustom   Strategy = "custom"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{
	StrategyBitmap,
	StrategyImage,
	StrategyPerlin,
	StrategySimplex,
	StrategyClifford,
	StrategyDeJong,
	StrategyCustom,
}

// Neighbourhood defaults for the luminance-gradient strategies.
const (
	DefaultBitmapRadius     = 1
	DefaultBitmapForceScale = 20.0
	DefaultImageRadius      = 2
	DefaultImageForceScale  = 0.0 // fixed force of 1
)

// resolveForceScale maps a user force scale onto the value stored in the
// generation data: 0 picks def, a negative value means a fixed force of 1.
func resolveForceScale(v, def float64) float64 {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	}
	return v
}

var (
	// ErrUnknownStrategy is returned for strategy names that are not in Strategies.
	ErrUnknownStrategy = errors.New("unknown flow field strategy")
	// ErrInvalidParams is returned when a strategy is missing a required parameter.
	ErrInvalidParams = errors.New("invalid flow field parameters")
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Sample is the field value at a point.
type Sample struct {
	Force float64 // influence magnitude, >= 0
	Angle float64 // push direction in radians
}

// Params are the user-facing inputs of a strategy.
type Params struct {
	Strategy   Strategy
	Resolution float64 // perlin, simplex and attractors
	Expression string  // custom
	Raster     *Raster // bitmap and image
	Radius     int     // bitmap and image, 0 = strategy default
	ForceScale float64 // bitmap and image, 0 = strategy default, < 0 = fixed force of 1
}

// Field evaluates a built flow field.
type Field struct {
	data   Data
	sample func(x, y, width, height float64) (Sample, error)
}

// Data returns the generation data the field was built from.
func (f *Field) Data() Data {
	return f.data
}

// Strategy returns the strategy of the field.
func (f *Field) Strategy() Strategy {
	return f.data.Strategy()
}

// Sample evaluates the field at (x, y) on a width x height canvas.
func (f *Field) Sample(x, y, width, height float64) (Sample, error) {
	return f.sample(x, y, width, height)
}

// New draws the strategy's random values from r and builds the field.
func New(p Params, r *rng.RNG) (*Field, error) {
	d, err := Generate(p, r)
	if err != nil {
		return nil, err
	}
	return Build(d)
}

// Generate produces the generation data for p, drawing from r in a fixed order.
func Generate(p Params, r *rng.RNG) (Data, error) {
	switch p.Strategy {
	case StrategyBitmap:
		if p.Raster == nil {
			return nil, fmt.Errorf("%w: bitmap strategy needs a raster", ErrInvalidParams)
		}
		radius := p.Radius
		if radius <= 0 {
			radius = DefaultBitmapRadius
		}
		return BitmapData{Raster: p.Raster, Radius: radius, ForceScale: resolveForceScale(p.ForceScale, DefaultBitmapForceScale)}, nil

	case StrategyImage:
		if p.Raster == nil {
			return nil, fmt.Errorf("%w: image strategy needs a raster", ErrInvalidParams)
		}
		radius := p.Radius
		if radius <= 0 {
			radius = DefaultImageRadius
		}
		return ImageData{Raster: p.Raster, Radius: radius, ForceScale: resolveForceScale(p.ForceScale, DefaultImageForceScale)}, nil

	case StrategyPerlin:
		return PerlinData{Resolution: p.Resolution, NoiseSeed: r.Int63()}, nil

	case StrategySimplex:
		return SimplexData{Resolution: p.Resolution, NoiseSeed: r.Int63()}, nil

	case StrategyClifford:
		return CliffordData{
			Resolution: p.Resolution,
			A:          r.Range(-2, 2),
			B:          r.Range(-2, 2),
			C:          r.Range(-2, 2),
			D:          r.Range(-2, 2),
		}, nil

	case StrategyDeJong:
		return DeJongData{
			Resolution: p.Resolution,
			A:          r.Range(-4, 4),
			B:          r.Range(-4, 4),
			C:          r.Range(-4, 4),
			D:          r.Range(-4, 4),
		}, nil

	case StrategyCustom:
		if p.Expression == "" {
			return nil, fmt.Errorf("%w: custom strategy needs an expression", ErrInvalidParams)
		}
		return CustomData{Expression: p.Expression}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, p.Strategy)
}

// Build compiles generation data into a field. It draws no randomness.
func Build(d Data) (*Field, error) {
	var (
		sample func(x, y, width, height float64) (Sample, error)
		err    error
	)

	switch d := d.(type) {
	case BitmapData:
		sample, err = buildBitmap(d)
	case ImageData:
		sample, err = buildImage(d)
	case PerlinData:
		sample = buildPerlin(d)
	case SimplexData:
		sample = buildSimplex(d)
	case CliffordData:
		sample = buildClifford(d)
	case DeJongData:
		sample = buildDeJong(d)
	case CustomData:
		sample, err = buildCustom(d)
	case nil:
		return nil, fmt.Errorf("%w: no generation data", ErrInvalidParams)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownStrategy, d)
	}
	if err != nil {
		return nil, err
	}

	return &Field{data: d, sample: sample}, nil
}

// clampIndex floors v and clamps it to [0, n-1].
func clampIndex(v float64, n int) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= float64(n-1) {
		return n - 1
	}
	return int(math.Floor(v))
}
