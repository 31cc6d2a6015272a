package renderer

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Palettes lists the built-in gradients by name.
var Palettes = map[string][]string{
	"mono":    {"#000000", "#000000"},
	"ink":     {"#1b1b3a", "#693668", "#a74482"},
	"sunset":  {"#0b1d51", "#725cad", "#e26d5c", "#ffc15e"},
	"ocean":   {"#03045e", "#0077b6", "#00b4d8", "#caf0f8"},
	"forest":  {"#081c15", "#2d6a4f", "#74c69d", "#d8f3dc"},
	"fire":    {"#370617", "#9d0208", "#e85d04", "#ffba08"},
	"rainbow": {"#ff0000", "#ffa500", "#ffff00", "#008000", "#0000ff", "#4b0082", "#ee82ee"},
}

// PaletteNames returns the built-in palette names in sorted order.
func PaletteNames() []string {
	names := make([]string, 0, len(Palettes))
	for name := range Palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gradient maps t in [0, 1] to a colour, blending evenly spaced stops in
// CIE-L*a*b* space.
type Gradient struct {
	stops []colorful.Color
}

// NewGradient builds a gradient from hex colour stops.
func NewGradient(hexes ...string) (*Gradient, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("gradient needs at least one colour")
	}
	g := &Gradient{stops: make([]colorful.Color, len(hexes))}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("gradient stop %d: %w", i, err)
		}
		g.stops[i] = c
	}
	return g, nil
}

// ParseGradient returns a built-in palette by name.
func ParseGradient(name string) (*Gradient, error) {
	hexes, ok := Palettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q", name)
	}
	return NewGradient(hexes...)
}

// At returns the colour at t. t is clamped to [0, 1].
func (g *Gradient) At(t float64) color.RGBA {
	if len(g.stops) == 1 || t <= 0 {
		return toRGBA(g.stops[0])
	}
	if t >= 1 {
		return toRGBA(g.stops[len(g.stops)-1])
	}

	pos := t * float64(len(g.stops)-1)
	i := int(pos)
	return toRGBA(g.stops[i].BlendLab(g.stops[i+1], pos-float64(i)).Clamped())
}

// Hex returns the colour at t as #rrggbb.
func (g *Gradient) Hex(t float64) string {
	c := g.At(t)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses a #rgb or #rrggbb colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parsing colour %q: %w", hex, err)
	}
	return toRGBA(c), nil
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
