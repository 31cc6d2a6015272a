package curve

// Simplify reduces a polyline with the Douglas-Peucker algorithm. Endpoints
// are always kept and every dropped point lies within tolerance of the
// segment that replaced it. Polylines of fewer than three points are returned
// as a copy.
func Simplify(points []Point, tolerance float64) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	douglasPeucker(points, 0, len(points)-1, tolerance, keep)

	out := make([]Point, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

func douglasPeucker(points []Point, first, last int, tolerance float64, keep []bool) {
	if last-first < 2 {
		return
	}

	maxDist := 0.0
	index := -1
	for i := first + 1; i < last; i++ {
		// Strict comparison: the first point at the maximum wins.
		if d := segmentDistance(points[i], points[first], points[last]); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if index < 0 || maxDist <= tolerance {
		return
	}
	keep[index] = true
	douglasPeucker(points, first, index, tolerance, keep)
	douglasPeucker(points, index, last, tolerance, keep)
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Hypot2()
	if l2 == 0 {
		return p.Sub(a).Hypot()
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Sub(a.Add(ab.Mul(t))).Hypot()
}
