package main

import (
	"github.com/pthm-cable/flowtrace/config"
)

// Param is one tunable config value and its search bounds.
type Param struct {
	Name   string
	Lo, Hi float64
	field  func(*config.Config) *float64
}

// Space is the search space CMA-ES explores. Vectors are indexed in Space order.
type Space []Param

// NewSpace returns the tracer parameters worth tuning for coverage.
func NewSpace() Space {
	return Space{
		{"simulation.force", 0.1, 5, func(c *config.Config) *float64 { return &c.Simulation.Force }},
		{"simulation.friction", 0, 0.5, func(c *config.Config) *float64 { return &c.Simulation.Friction }},
		{"simulation.force_reduction", 0, 0.02, func(c *config.Config) *float64 { return &c.Simulation.ForceReduction }},
		{"field.resolution", 0.001, 0.05, func(c *config.Config) *float64 { return &c.Field.Resolution }},
	}
}

// Normalize maps raw values onto the unit cube.
func (s Space) Normalize(raw []float64) []float64 {
	return s.mapEach(raw, func(p Param, v float64) float64 { return (v - p.Lo) / (p.Hi - p.Lo) })
}

// Denormalize maps unit-cube values back to raw values. The result may lie
// outside the bounds; Clamp it before use.
func (s Space) Denormalize(unit []float64) []float64 {
	return s.mapEach(unit, func(p Param, u float64) float64 { return p.Lo + u*(p.Hi-p.Lo) })
}

// Clamp pins each value to its bounds.
func (s Space) Clamp(raw []float64) []float64 {
	return s.mapEach(raw, func(p Param, v float64) float64 { return min(max(v, p.Lo), p.Hi) })
}

func (s Space) mapEach(in []float64, f func(Param, float64) float64) []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = f(p, in[i])
	}
	return out
}

// Apply writes the clamped values into cfg.
func (s Space) Apply(cfg *config.Config, raw []float64) {
	for i, v := range s.Clamp(raw) {
		*s[i].field(cfg) = v
	}
}

// Extract reads the current values from cfg.
func (s Space) Extract(cfg *config.Config) []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = *p.field(cfg)
	}
	return out
}
