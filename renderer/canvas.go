package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/flow"
)

// Segment is one stroke of the live animation: a particle's move during a
// single frame.
type Segment struct {
	From, To curve.Point
	Color    color.RGBA
	Width    float64
}

// ArrowColor is the stroke colour of flow field previews.
var ArrowColor = color.RGBA{R: 0xfa, G: 0x0f, B: 0x22, A: 0xff}

// Sampler evaluates a flow field. Implemented by *flow.Field.
type Sampler interface {
	Sample(x, y, width, height float64) (flow.Sample, error)
}

// FieldArrows returns the line segments of an arrow grid over a width x
// height canvas. Each arrow starts on a grid point every spacing units, points
// along the field angle and is spacing*force long, with a 4 unit head.
func FieldArrows(field Sampler, width, height, spacing float64) ([][2]curve.Point, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("arrow spacing %g must be positive", spacing)
	}

	var lines [][2]curve.Point
	for x := 0.0; x < width; x += spacing {
		for y := 0.0; y < height; y += spacing {
			s, err := field.Sample(x, y, width, height)
			if err != nil {
				return nil, err
			}

			sin, cos := math.Sincos(s.Angle)
			local := func(lx, ly float64) curve.Point {
				return curve.Pt(x+lx*cos-ly*sin, y+lx*sin+ly*cos)
			}
			length := spacing * s.Force
			origin, tip := local(0, 0), local(length, 0)
			lines = append(lines,
				[2]curve.Point{origin, tip},
				[2]curve.Point{tip, local(length-4, -4)},
				[2]curve.Point{tip, local(length-4, 4)},
			)
		}
	}
	return lines, nil
}

// Canvas is an anti-aliased raster surface for headless rendering.
type Canvas struct {
	img *image.RGBA
	ras vector.Rasterizer
}

// NewCanvas creates a width x height canvas filled with bg.
func NewCanvas(width, height int, bg color.Color) *Canvas {
	c := &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	c.Clear(bg)
	return c
}

// Clear fills the canvas with bg.
func (c *Canvas) Clear(bg color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Line strokes a straight line of the given width.
func (c *Canvas) Line(from, to curve.Point, width float64, col color.Color) {
	d := to.Sub(from)
	if d.Hypot2() == 0 {
		return
	}
	n := d.Normalize().Perp().Mul(width / 2)

	corners := [4]curve.Point{from.Add(n), to.Add(n), to.Sub(n), from.Sub(n)}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range corners {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	// Rasterize only the bounding box of the stroke.
	box := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
	clip := box.Intersect(c.img.Bounds())
	if clip.Empty() {
		return
	}

	// Coordinates left of the clip accumulate into its first column, so
	// partially visible strokes keep their coverage.
	ox, oy := float64(clip.Min.X), float64(clip.Min.Y)
	c.ras.Reset(clip.Dx(), clip.Dy())
	c.ras.MoveTo(float32(corners[0].X-ox), float32(corners[0].Y-oy))
	for _, p := range corners[1:] {
		c.ras.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	c.ras.ClosePath()
	c.ras.Draw(c.img, clip, image.NewUniform(col), image.Point{})
}

// DrawSegments strokes every segment in order.
func (c *Canvas) DrawSegments(segments []Segment) {
	for _, s := range segments {
		c.Line(s.From, s.To, s.Width, s.Color)
	}
}

// DrawArrows strokes a flow field arrow grid.
func (c *Canvas) DrawArrows(field Sampler, spacing float64, col color.Color) error {
	b := c.img.Bounds()
	lines, err := FieldArrows(field, float64(b.Dx()), float64(b.Dy()), spacing)
	if err != nil {
		return err
	}
	for _, l := range lines {
		c.Line(l[0], l[1], 1, col)
	}
	return nil
}

// WritePNG encodes the canvas as PNG.
func (c *Canvas) WritePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
