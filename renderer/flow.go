// Package renderer draws particle trajectories: SVG export, anti-aliased PNG
// canvases and the raylib window.
package renderer

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/curve"
)

// FlowRenderer accumulates frame segments in a render texture. The canvas is
// never cleared between frames, so trails build up like ink.
type FlowRenderer struct {
	target     rl.RenderTexture2D
	width      int32
	height     int32
	background rl.Color
}

// NewFlowRenderer creates the render target. Must be called after the window
// is initialised.
func NewFlowRenderer(width, height int32, background color.RGBA) *FlowRenderer {
	r := &FlowRenderer{
		target:     rl.LoadRenderTexture(width, height),
		width:      width,
		height:     height,
		background: background,
	}
	r.Clear()
	return r
}

// Clear resets the canvas to the background colour.
func (r *FlowRenderer) Clear() {
	rl.BeginTextureMode(r.target)
	rl.ClearBackground(r.background)
	rl.EndTextureMode()
}

// Draw strokes one frame's segments onto the canvas.
func (r *FlowRenderer) Draw(segments []Segment) {
	if len(segments) == 0 {
		return
	}
	rl.BeginTextureMode(r.target)
	for _, s := range segments {
		rl.DrawLineEx(vec(s.From), vec(s.To), float32(s.Width), s.Color)
	}
	rl.EndTextureMode()
}

// ScreenMapper converts canvas coordinates to screen coordinates.
type ScreenMapper func(x, y float32) (float32, float32)

// DrawArrows strokes arrow lines directly to the screen.
func DrawArrows(lines [][2]curve.Point, col color.RGBA, toScreen ScreenMapper) {
	for _, l := range lines {
		rl.DrawLineEx(screenVec(l[0], toScreen), screenVec(l[1], toScreen), 1, col)
	}
}

// Present draws the canvas into the screen rectangle (x, y, w, h).
func (r *FlowRenderer) Present(x, y, w, h float32) {
	// Render textures are stored upside down.
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.width), Height: -float32(r.height)}
	dst := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
	rl.DrawTexturePro(r.target.Texture, src, dst, rl.Vector2{}, 0, rl.White)
}

// Snapshot reads the canvas back into an image.
func (r *FlowRenderer) Snapshot() *image.RGBA {
	img := rl.LoadImageFromTexture(r.target.Texture)
	defer rl.UnloadImage(img)

	colors := rl.LoadImageColors(img)
	defer rl.UnloadImageColors(colors)

	w, h := int(r.width), int(r.height)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetRGBA(x, h-1-y, colors[y*w+x])
		}
	}
	return out
}

// Unload frees the render target.
func (r *FlowRenderer) Unload() {
	rl.UnloadRenderTexture(r.target)
}

func vec(p curve.Point) rl.Vector2 {
	return rl.Vector2{X: float32(p.X), Y: float32(p.Y)}
}

func screenVec(p curve.Point, toScreen ScreenMapper) rl.Vector2 {
	x, y := toScreen(float32(p.X), float32(p.Y))
	return rl.Vector2{X: x, Y: y}
}
