// Package components defines the particle state shared by the batch runner
// and the ECS components of the live session.
package components

import "math"

// Particle is a single tracer: position and velocity in canvas units.
type Particle struct {
	X, Y   float64
	VX, VY float64
}

// Speed returns the velocity magnitude.
func (p *Particle) Speed() float64 {
	return math.Hypot(p.VX, p.VY)
}

// Tracer tags a live-session particle with its spawn order.
type Tracer struct {
	Index int
}
