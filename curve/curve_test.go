package curve

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func polyline(t *rapid.T, maxLen int) []Point {
	n := rapid.IntRange(0, maxLen).Draw(t, "n")
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Pt(
			rapid.Float64Range(0, 100).Draw(t, "x"),
			rapid.Float64Range(0, 100).Draw(t, "y"),
		)
	}
	return pts
}

func TestSimplifyShortInput(t *testing.T) {
	tests := [][]Point{
		nil,
		{Pt(1, 2)},
		{Pt(1, 2), Pt(3, 4)},
	}
	for _, in := range tests {
		got := Simplify(in, 2)
		if len(got) != len(in) {
			t.Errorf("Simplify(%v) = %v, want unchanged", in, got)
		}
	}
}

func TestSimplifyCollinear(t *testing.T) {
	var in []Point
	for i := 0; i <= 10; i++ {
		in = append(in, Pt(float64(i), 2*float64(i)))
	}

	got := Simplify(in, 0.5)
	want := []Point{Pt(0, 0), Pt(10, 20)}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Simplify(line) = %v, want %v", got, want)
	}
}

func TestSimplifyKeepsCorner(t *testing.T) {
	in := []Point{Pt(0, 0), Pt(5, 0.1), Pt(10, 0), Pt(10, 5), Pt(10.1, 10)}
	got := Simplify(in, 1)
	want := []Point{Pt(0, 0), Pt(10, 0), Pt(10.1, 10)}
	if len(got) != len(want) {
		t.Fatalf("Simplify() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Simplify()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSimplifyProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := polyline(t, 40)
		tol := rapid.Float64Range(0, 20).Draw(t, "tolerance")

		once := Simplify(in, tol)
		if len(in) > 0 {
			if once[0] != in[0] || once[len(once)-1] != in[len(in)-1] {
				t.Fatalf("endpoints not kept: %v -> %v", in, once)
			}
		}

		// Output is an ordered subsequence of the input.
		j := 0
		for _, p := range once {
			for j < len(in) && in[j] != p {
				j++
			}
			if j == len(in) {
				t.Fatalf("%v is not a subsequence of %v", once, in)
			}
			j++
		}

		twice := Simplify(once, tol)
		if len(twice) != len(once) {
			t.Fatalf("not idempotent: %v -> %v", once, twice)
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Fatalf("not idempotent at %d: %v -> %v", i, once, twice)
			}
		}
	})
}

func TestFitDegenerate(t *testing.T) {
	tests := [][]Point{
		nil,
		{Pt(1, 1)},
		{Pt(1, 1), Pt(1, 1), Pt(1, 1)},
	}
	for _, in := range tests {
		if got := Fit(in, 1); got != nil {
			t.Errorf("Fit(%v) = %v, want nil", in, got)
		}
	}
}

func TestFitTwoPoints(t *testing.T) {
	got := Fit([]Point{Pt(0, 0), Pt(0, 0), Pt(30, 0)}, 1)
	if len(got) != 1 {
		t.Fatalf("Fit() returned %d segments, want 1", len(got))
	}
	want := CubicBez{Pt(0, 0), Pt(10, 0), Pt(20, 0), Pt(30, 0)}
	if got[0] != want {
		t.Errorf("Fit() = %v, want %v", got[0], want)
	}
}

func TestFitStraightLine(t *testing.T) {
	var in []Point
	for i := 0; i <= 20; i++ {
		in = append(in, Pt(float64(i)*5, float64(i)*2))
	}
	got := Fit(in, 0.1)
	if len(got) != 1 {
		t.Errorf("Fit(line) returned %d segments, want 1", len(got))
	}
}

func TestFitArc(t *testing.T) {
	var in []Point
	for i := 0; i <= 90; i++ {
		a := float64(i) * math.Pi / 180
		in = append(in, Pt(100*math.Cos(a), 100*math.Sin(a)))
	}
	got := Fit(in, 0.5)
	if len(got) == 0 || len(got) > 4 {
		t.Errorf("Fit(quarter circle) returned %d segments, want 1..4", len(got))
	}
}

// distanceToCurves samples every segment densely enough that consecutive
// samples are at most 0.5 apart and returns the smallest distance from p.
func distanceToCurves(p Point, curves []CubicBez) float64 {
	best := math.Inf(1)
	for _, c := range curves {
		poly := c.P1.Sub(c.P0).Hypot() + c.P2.Sub(c.P1).Hypot() + c.P3.Sub(c.P2).Hypot()
		n := max(100, int(math.Ceil(6*poly)))
		for i := 0; i <= n; i++ {
			if d := c.Eval(float64(i) / float64(n)).Sub(p).Hypot(); d < best {
				best = d
			}
		}
	}
	return best
}

func TestFitProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := polyline(t, 25)
		maxErr := rapid.Float64Range(1, 20).Draw(t, "maxError")

		got := Fit(in, maxErr)
		pts := dedupe(in)
		if len(pts) < 2 {
			if got != nil {
				t.Fatalf("Fit(%v) = %v, want nil", in, got)
			}
			return
		}
		if len(got) == 0 {
			t.Fatalf("Fit(%v) returned no segments", in)
		}

		if got[0].P0 != pts[0] || got[len(got)-1].P3 != pts[len(pts)-1] {
			t.Fatalf("curve does not start and end at the polyline endpoints")
		}
		for i := 1; i < len(got); i++ {
			if got[i].P0 != got[i-1].P3 {
				t.Fatalf("segments %d and %d are not joined", i-1, i)
			}
		}

		for _, p := range pts {
			if d := distanceToCurves(p, got); d > maxErr+0.5 {
				t.Fatalf("point %v is %v from the curve, bound %v", p, d, maxErr)
			}
		}
	})
}
