// Package curve simplifies particle trajectories and fits them with cubic
// Bézier segments.
package curve

import "math"

// Point is a 2D point or vector in canvas units.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point   { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point   { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(s float64) Point { return Point{p.X * s, p.Y * s} }
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }
func (p Point) Hypot2() float64     { return p.Dot(p) }
func (p Point) Hypot() float64      { return math.Hypot(p.X, p.Y) }
func (p Point) Perp() Point         { return Point{-p.Y, p.X} }
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Normalize returns p scaled to unit length. The zero vector is returned
// unchanged.
func (p Point) Normalize() Point {
	l := p.Hypot()
	if l == 0 {
		return p
	}
	return Point{p.X / l, p.Y / l}
}

// CubicBez is a cubic Bézier segment.
type CubicBez struct {
	P0, P1, P2, P3 Point
}

// Eval returns the point at parameter t.
func (c CubicBez) Eval(t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return Point{
		a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Deriv returns the first derivative at t.
func (c CubicBez) Deriv(t float64) Point {
	mt := 1 - t
	d0 := c.P1.Sub(c.P0).Mul(3 * mt * mt)
	d1 := c.P2.Sub(c.P1).Mul(6 * mt * t)
	d2 := c.P3.Sub(c.P2).Mul(3 * t * t)
	return d0.Add(d1).Add(d2)
}

// Deriv2 returns the second derivative at t.
func (c CubicBez) Deriv2(t float64) Point {
	a := c.P2.Sub(c.P1.Mul(2)).Add(c.P0).Mul(6 * (1 - t))
	b := c.P3.Sub(c.P2.Mul(2)).Add(c.P1).Mul(6 * t)
	return a.Add(b)
}
