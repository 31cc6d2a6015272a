package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/renderer"
)

// Renderer draws HUD rows in a shared Theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a bordered panel background.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a header and returns the next row's y.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 2
}

// DrawLabelValue draws a "label: value" row and returns the next row's y.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	r.label(x, y, label)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

func (r *Renderer) label(x, y int32, text string) {
	rl.DrawText(text+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
}

// track is the bar area of a labelled row, leaving room for a value readout
// on the right.
type track struct {
	x, y, w, h int32
}

func (r *Renderer) track(x, y, width int32) track {
	return track{x: x + r.Theme.LabelWidth, y: y + 2, w: width - r.Theme.LabelWidth - 50, h: r.Theme.BarHeight}
}

func (r *Renderer) readout(t track, y int32, text string) {
	rl.DrawText(text, t.x+t.w+5, y, r.Theme.FontSize, r.Theme.ValueColor)
}

// DrawBar draws a fill bar for a fraction in [0, 1].
func (r *Renderer) DrawBar(x, y int32, label string, value float32, width int32) int32 {
	value = min(max(value, 0), 1)
	t := r.track(x, y, width)

	r.label(x, y, label)
	rl.DrawRectangle(t.x, t.y, t.w, t.h, r.Theme.BarBg)
	rl.DrawRectangle(t.x, t.y, int32(float32(t.w)*value), t.h, r.Theme.BarFill)
	r.readout(t, y, fmt.Sprintf("%.0f%%", value*100))

	return y + r.Theme.LineHeight + 2
}

// DrawCenteredBar draws a bar that fills left or right of its midpoint for
// values in [-limit, limit].
func (r *Renderer) DrawCenteredBar(x, y int32, label string, value, limit float32, width int32) int32 {
	t := r.track(x, y, width)
	mid := t.x + t.w/2

	r.label(x, y, label)
	rl.DrawRectangle(t.x, t.y, t.w, t.h, r.Theme.BarBg)
	rl.DrawLine(mid, t.y, mid, t.y+t.h, r.Theme.PanelBorder)

	frac := min(max(value/limit, -1), 1)
	if frac < 0 {
		fill := int32(float32(t.w/2) * -frac)
		rl.DrawRectangle(mid-fill, t.y, fill, t.h, r.Theme.BarFillNegative)
	} else {
		rl.DrawRectangle(mid, t.y, int32(float32(t.w/2)*frac), t.h, r.Theme.BarFillPositive)
	}
	r.readout(t, y, fmt.Sprintf("%+.2f", value))

	return y + r.Theme.LineHeight + 2
}

// DrawGradient draws the stroke palette as a strip with a marker at t.
func (r *Renderer) DrawGradient(x, y int32, label string, g *renderer.Gradient, at float32, width int32) int32 {
	t := r.track(x, y, width)
	span := float64(max(t.w-1, 1))

	r.label(x, y, label)
	for i := range t.w {
		rl.DrawLine(t.x+i, t.y, t.x+i, t.y+t.h, g.At(float64(i)/span))
	}
	mark := t.x + int32(float32(t.w-1)*min(max(at, 0), 1))
	rl.DrawLine(mark, y, mark, t.y+t.h+2, r.Theme.SectionHeader)

	return y + r.Theme.LineHeight + 2
}
