package flow

import "math"

// lumaGrid caches per-pixel luminance in [0, 1].
type lumaGrid struct {
	w, h int
	l    []float64
}

func newLumaGrid(r *Raster) *lumaGrid {
	g := &lumaGrid{w: r.Width, h: r.Height, l: make([]float64, r.Width*r.Height)}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			red, green, blue := r.RGB(x, y)
			g.l[y*r.Width+x] = luminance(red, green, blue)
		}
	}
	return g
}

// luminance uses Rec. 601 weights.
func luminance(r, g, b uint8) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

func (g *lumaGrid) at(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= g.w {
		x = g.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.h {
		y = g.h - 1
	}
	return g.l[y*g.w+x]
}

// gradient accumulates (lum(center) - lum(neighbour)) * offset over the
// (2r+1)^2 neighbourhood. The result points from bright towards dark.
func (g *lumaGrid) gradient(x, y float64, radius int) (dx, dy float64) {
	cx := clampIndex(x, g.w)
	cy := clampIndex(y, g.h)
	center := g.at(cx, cy)

	for j := -radius; j <= radius; j++ {
		for i := -radius; i <= radius; i++ {
			if i == 0 && j == 0 {
				continue
			}
			d := center - g.at(cx+i, cy+j)
			dx += d * float64(i)
			dy += d * float64(j)
		}
	}
	return dx, dy
}

func gradientForce(dx, dy, scale float64) float64 {
	if scale > 0 {
		return math.Hypot(dx, dy) * scale
	}
	return 1
}

func buildBitmap(d BitmapData) (func(x, y, w, h float64) (Sample, error), error) {
	if d.Raster == nil {
		return nil, ErrInvalidParams
	}
	if err := d.Raster.validate(); err != nil {
		return nil, err
	}
	grid := newLumaGrid(d.Raster)
	radius := max(d.Radius, 1)

	return func(x, y, _, _ float64) (Sample, error) {
		dx, dy := grid.gradient(x, y, radius)
		return Sample{
			Force: gradientForce(dx, dy, d.ForceScale),
			Angle: math.Atan2(dx, -dy) - math.Pi/2,
		}, nil
	}, nil
}

func buildImage(d ImageData) (func(x, y, w, h float64) (Sample, error), error) {
	if d.Raster == nil {
		return nil, ErrInvalidParams
	}
	if err := d.Raster.validate(); err != nil {
		return nil, err
	}
	grid := newLumaGrid(d.Raster)
	radius := max(d.Radius, 1)

	return func(x, y, _, _ float64) (Sample, error) {
		dx, dy := grid.gradient(x, y, radius)
		return Sample{
			Force: gradientForce(dx, dy, d.ForceScale),
			Angle: math.Atan2(dx, dy),
		}, nil
	}, nil
}
