// Package systems advances particles through a flow field.
package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/flowtrace/components"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/rng"
)

//go:generate go tool mockgen -destination=./mocks/flowsampler_mock.go -package=mocks . FlowSampler

// FlowSampler provides the field value at a canvas position.
// Implemented by *flow.Field.
type FlowSampler interface {
	Sample(x, y, width, height float64) (flow.Sample, error)
}

// Boundary selects what happens to a particle that leaves the canvas.
type Boundary string

const (
	BoundaryWrap     Boundary = "wrap"     // reappear at the opposite edge
	BoundaryRecreate Boundary = "recreate" // respawn at a random position
)

// ErrNoRand is returned when the recreate policy has no RNG to draw from.
var ErrNoRand = errors.New("recreate boundary needs an RNG")

// ParseBoundary validates a boundary policy name.
func ParseBoundary(name string) (Boundary, error) {
	switch b := Boundary(name); b {
	case BoundaryWrap, BoundaryRecreate:
		return b, nil
	}
	return "", fmt.Errorf("unknown boundary policy %q", name)
}

// Side is the canvas edge a particle crossed.
type Side uint8

const (
	SideNone Side = iota
	SideLeft
	SideRight
	SideTop
	SideBottom
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	}
	return "none"
}

// Step holds everything a single tick needs.
type Step struct {
	Field         FlowSampler
	Width, Height float64
	Force         float64 // effective force for this tick
	Friction      float64 // velocity loss per tick, in [0, 1)
	Boundary      Boundary
	Rand          *rng.RNG // respawn positions, recreate only
}

// Result reports whether a tick took the particle off the canvas.
type Result struct {
	OutOfBounds bool
	Side        Side
}

// Tick advances p by one step: accelerate along the field, move, apply
// friction, then enforce the boundary policy.
func Tick(p *components.Particle, s *Step) (Result, error) {
	sample, err := s.Field.Sample(p.X, p.Y, s.Width, s.Height)
	if err != nil {
		return Result{}, err
	}

	p.VX += math.Cos(sample.Angle) * sample.Force * s.Force
	p.VY += math.Sin(sample.Angle) * sample.Force * s.Force

	p.X += p.VX
	p.Y += p.VY

	p.VX *= 1 - s.Friction
	p.VY *= 1 - s.Friction

	side := boundarySide(p, s.Width, s.Height)
	if side == SideNone {
		return Result{}, nil
	}

	switch s.Boundary {
	case BoundaryRecreate:
		if s.Rand == nil {
			return Result{}, ErrNoRand
		}
		p.X = s.Rand.Float64() * s.Width
		p.Y = s.Rand.Float64() * s.Height
		p.VX, p.VY = 0, 0
	default:
		wrap(p, s.Width, s.Height)
	}

	return Result{OutOfBounds: true, Side: side}, nil
}

// boundarySide returns the first crossed edge in left, right, top, bottom
// order.
func boundarySide(p *components.Particle, w, h float64) Side {
	switch {
	case p.X < 0:
		return SideLeft
	case p.X > w:
		return SideRight
	case p.Y < 0:
		return SideTop
	case p.Y > h:
		return SideBottom
	}
	return SideNone
}

// wrap moves every out-of-range coordinate to the opposite edge. Velocity is
// kept.
func wrap(p *components.Particle, w, h float64) {
	if p.X < 0 {
		p.X = w
	} else if p.X > w {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = h
	} else if p.Y > h {
		p.Y = 0
	}
}
