package curve

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// MaxDepth caps the number of times a polyline is split while fitting.
	// At the cap the current fit is accepted whatever its error.
	MaxDepth = 32

	maxIterations = 20
)

// Fit approximates a polyline with a chain of cubic Béziers using
// Schneider's algorithm. maxError is the largest allowed distance between an
// input point and the curve at that point's parameter. Consecutive duplicate
// points are ignored; fewer than two distinct points yield nil.
func Fit(points []Point, maxError float64) []CubicBez {
	pts := dedupe(points)
	if len(pts) < 2 {
		return nil
	}

	n := len(pts)
	leftTan := pts[1].Sub(pts[0]).Normalize()
	rightTan := pts[n-2].Sub(pts[n-1]).Normalize()
	return fitCubic(pts, leftTan, rightTan, maxError*maxError, 0)
}

func dedupe(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for i, p := range points {
		if i > 0 && p == points[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// fitCubic fits pts with end tangents leftTan and rightTan. tol is the
// squared error bound.
func fitCubic(pts []Point, leftTan, rightTan Point, tol float64, depth int) []CubicBez {
	if len(pts) == 2 {
		dist := pts[1].Sub(pts[0]).Hypot() / 3
		return []CubicBez{{
			P0: pts[0],
			P1: pts[0].Add(leftTan.Mul(dist)),
			P2: pts[1].Add(rightTan.Mul(dist)),
			P3: pts[1],
		}}
	}

	u := chordLengthParameterize(pts)
	bez := generateBezier(pts, u, leftTan, rightTan)
	maxErr, split := computeMaxError(pts, bez, u)
	if maxErr < tol {
		return []CubicBez{bez}
	}

	// Close enough that reparameterisation may pull the fit under the bound.
	if maxErr < tol*4 {
		for i := 0; i < maxIterations; i++ {
			u = reparameterize(bez, pts, u)
			bez = generateBezier(pts, u, leftTan, rightTan)
			maxErr, split = computeMaxError(pts, bez, u)
			if maxErr < tol {
				return []CubicBez{bez}
			}
		}
	}

	if depth >= MaxDepth {
		return []CubicBez{bez}
	}

	centerTan := pts[split-1].Sub(pts[split+1])
	if centerTan.Hypot2() == 0 {
		centerTan = pts[split-1].Sub(pts[split]).Perp()
	}
	centerTan = centerTan.Normalize()

	left := fitCubic(pts[:split+1], leftTan, centerTan, tol, depth+1)
	right := fitCubic(pts[split:], centerTan.Mul(-1), rightTan, tol, depth+1)
	return append(left, right...)
}

// generateBezier solves for the control arm lengths that minimise the squared
// distance between pts and the curve at parameters u.
func generateBezier(pts []Point, u []float64, leftTan, rightTan Point) CubicBez {
	first, last := pts[0], pts[len(pts)-1]

	var c00, c01, c11, x0, x1 float64
	for i, p := range pts {
		t := u[i]
		mt := 1 - t
		a0 := leftTan.Mul(3 * mt * mt * t)
		a1 := rightTan.Mul(3 * mt * t * t)

		c00 += a0.Dot(a0)
		c01 += a0.Dot(a1)
		c11 += a1.Dot(a1)

		base := CubicBez{first, first, last, last}.Eval(t)
		tmp := p.Sub(base)
		x0 += a0.Dot(tmp)
		x1 += a1.Dot(tmp)
	}

	segLength := last.Sub(first).Hypot()
	epsilon := 1e-6 * segLength

	alphaL, alphaR := segLength/3, segLength/3
	var alpha mat.VecDense
	err := alpha.SolveVec(
		mat.NewDense(2, 2, []float64{c00, c01, c01, c11}),
		mat.NewVecDense(2, []float64{x0, x1}),
	)
	if err == nil {
		l, r := alpha.AtVec(0), alpha.AtVec(1)
		if l >= epsilon && r >= epsilon && !math.IsInf(l, 0) && !math.IsInf(r, 0) {
			alphaL, alphaR = l, r
		}
	}

	return CubicBez{
		P0: first,
		P1: first.Add(leftTan.Mul(alphaL)),
		P2: last.Add(rightTan.Mul(alphaR)),
		P3: last,
	}
}

// computeMaxError returns the largest squared distance between a point and the
// curve at its parameter, and the index of that point clamped to
// [1, len(pts)-2].
func computeMaxError(pts []Point, bez CubicBez, u []float64) (float64, int) {
	maxDist := 0.0
	split := len(pts) / 2
	for i, p := range pts {
		if d := bez.Eval(u[i]).Sub(p).Hypot2(); d > maxDist {
			maxDist = d
			split = i
		}
	}
	return maxDist, min(max(split, 1), len(pts)-2)
}

func chordLengthParameterize(pts []Point) []float64 {
	u := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		u[i] = u[i-1] + pts[i].Sub(pts[i-1]).Hypot()
	}
	total := u[len(u)-1]
	for i := range u {
		u[i] /= total
	}
	return u
}

func reparameterize(bez CubicBez, pts []Point, u []float64) []float64 {
	out := make([]float64, len(u))
	for i, p := range pts {
		out[i] = newtonRaphson(bez, p, u[i])
	}
	return out
}

// newtonRaphson refines u so that bez(u) is closer to p.
func newtonRaphson(bez CubicBez, p Point, u float64) float64 {
	d := bez.Eval(u).Sub(p)
	d1 := bez.Deriv(u)
	d2 := bez.Deriv2(u)

	num := d.Dot(d1)
	den := d1.Dot(d1) + d.Dot(d2)
	if den == 0 {
		return u
	}
	return min(max(u-num/den, 0), 1)
}
