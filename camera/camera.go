// Package camera maps the drawing canvas onto the window.
package camera

// Camera shows the canvas letterboxed in the window. At zoom 1 the whole
// canvas is visible; higher zoom magnifies around the camera centre.
type Camera struct {
	// Position is the camera center in canvas coordinates
	X, Y float32

	// Zoom relative to the fitted scale (1.0 = whole canvas visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Canvas dimensions
	CanvasW, CanvasH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the canvas with the whole canvas visible.
func New(viewportW, viewportH, canvasW, canvasH float32) *Camera {
	return &Camera{
		X:         canvasW / 2,
		Y:         canvasH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		CanvasW:   canvasW,
		CanvasH:   canvasH,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// fit is the screen pixels per canvas unit at zoom 1.
func (c *Camera) fit() float32 {
	return min(c.ViewportW/c.CanvasW, c.ViewportH/c.CanvasH)
}

// Scale returns screen pixels per canvas unit.
func (c *Camera) Scale() float32 {
	return c.fit() * c.Zoom
}

// CanvasToScreen converts canvas coordinates to screen coordinates.
func (c *Camera) CanvasToScreen(cx, cy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (cx-c.X)*s
	sy = c.ViewportH/2 + (cy-c.Y)*s
	return sx, sy
}

// ScreenToCanvas converts screen coordinates to canvas coordinates.
func (c *Camera) ScreenToCanvas(sx, sy float32) (cx, cy float32) {
	s := c.Scale()
	cx = c.X + (sx-c.ViewportW/2)/s
	cy = c.Y + (sy-c.ViewportH/2)/s
	return cx, cy
}

// Contains reports whether a screen point lies over the canvas.
func (c *Camera) Contains(sx, sy float32) bool {
	cx, cy := c.ScreenToCanvas(sx, sy)
	return cx >= 0 && cx <= c.CanvasW && cy >= 0 && cy <= c.CanvasH
}

// Dest returns the screen rectangle the full canvas is drawn into.
func (c *Camera) Dest() (x, y, w, h float32) {
	x, y = c.CanvasToScreen(0, 0)
	s := c.Scale()
	return x, y, c.CanvasW * s, c.CanvasH * s
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X += dx / s
	c.Y += dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.CanvasW / 2
	c.Y = c.CanvasH / 2
	c.Zoom = 1.0
}

// VisibleBounds returns the canvas-coordinate bounds of the visible area.
func (c *Camera) VisibleBounds() (minX, minY, maxX, maxY float32) {
	minX, minY = c.ScreenToCanvas(0, 0)
	maxX, maxY = c.ScreenToCanvas(c.ViewportW, c.ViewportH)
	return
}

// clampCenter keeps the view over the canvas. An axis that fits entirely on
// screen stays centred.
func (c *Camera) clampCenter() {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	c.X = clampAxis(c.X, halfW, c.CanvasW)
	c.Y = clampAxis(c.Y, halfH, c.CanvasH)
}

func clampAxis(center, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
