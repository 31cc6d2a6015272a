package flow

import "math"

// recentre moves the origin to the canvas centre and scales by res.
func recentre(x, y, w, h, res float64) (float64, float64) {
	return (x - w/2) * res, (y - h/2) * res
}

func buildClifford(d CliffordData) func(x, y, w, h float64) (Sample, error) {
	return func(x, y, w, h float64) (Sample, error) {
		cx, cy := recentre(x, y, w, h, d.Resolution)
		x1 := math.Sin(d.A*cy) + d.C*math.Cos(d.A*cx)
		y1 := math.Sin(d.B*cx) + d.D*math.Cos(d.B*cy)
		return Sample{Force: 1, Angle: math.Atan2(y1-cy, x1-cx)}, nil
	}
}

func buildDeJong(d DeJongData) func(x, y, w, h float64) (Sample, error) {
	return func(x, y, w, h float64) (Sample, error) {
		cx, cy := recentre(x, y, w, h, d.Resolution)
		x1 := d.D*math.Sin(d.A*cy) - math.Sin(d.B*cx)
		y1 := d.C*math.Cos(d.A*cx) + math.Cos(d.B*cy)
		dx, dy := x1-cx, y1-cy
		return Sample{Force: math.Hypot(dx, dy), Angle: math.Atan2(dy, dx)}, nil
	}
}
