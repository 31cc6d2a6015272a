package ui

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/renderer"
)

// Probe is the field value under the mouse cursor.
type Probe struct {
	X, Y  float64
	Force float64
	Angle float64
}

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Strategy  string
	Seed      int64
	Frame     int
	MaxSteps  int // 0 = unbounded
	Particles int
	Force     float64
	FPS       int32
	Paused    bool
	ShowField bool
	Gradient  *renderer.Gradient
	Probe     *Probe // nil when the cursor is off the canvas
	Status    string // last export result, may be empty
}

// Lines returns the text rows of the HUD panel, label then value.
func (d HUDData) Lines() [][2]string {
	frames := fmt.Sprintf("%d", d.Frame)
	if d.MaxSteps > 0 {
		frames = fmt.Sprintf("%d / %d", d.Frame, d.MaxSteps)
	}
	lines := [][2]string{
		{"Field", d.Strategy},
		{"Seed", fmt.Sprintf("%08d", d.Seed)},
		{"Frame", frames},
		{"Particles", fmt.Sprintf("%d", d.Particles)},
		{"Force", fmt.Sprintf("%.4f", d.Force)},
		{"FPS", fmt.Sprintf("%d", d.FPS)},
	}
	if d.Probe != nil {
		lines = append(lines,
			[2]string{"Cursor", fmt.Sprintf("%.0f, %.0f", d.Probe.X, d.Probe.Y)},
			[2]string{"Sample", fmt.Sprintf("f=%.3f a=%.1f°", d.Probe.Force, d.Probe.Angle*180/math.Pi)},
		)
	}
	return lines
}

// Progress returns the fraction of frames run, or -1 when unbounded.
func (d HUDData) Progress() float32 {
	if d.MaxSteps <= 0 {
		return -1
	}
	return float32(d.Frame) / float32(d.MaxSteps)
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
		width:    240,
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	pad := r.Theme.Padding
	lines := data.Lines()

	height := pad*2 + r.Theme.LineHeight + 2 + int32(len(lines))*r.Theme.LineHeight + 2*(r.Theme.LineHeight+2)
	if data.Status != "" {
		height += r.Theme.LineHeight
	}
	if data.Probe != nil {
		height += r.Theme.LineHeight + 2
	}
	r.DrawPanel(pad, pad, h.width, height)

	x := pad * 2
	y := r.DrawSectionHeader(x, pad*2, data.Title)
	for _, l := range lines {
		y = r.DrawLabelValue(x, y, l[0], l[1])
	}

	if data.Probe != nil {
		angle := math.Remainder(data.Probe.Angle, 2*math.Pi)
		y = r.DrawCenteredBar(x, y, "Heading", float32(angle), math.Pi, h.width-pad*2)
	}

	progress := data.Progress()
	if progress >= 0 {
		y = r.DrawBar(x, y, "Progress", progress, h.width-pad*2)
	} else {
		y = r.DrawLabelValue(x, y, "Progress", "unbounded")
	}
	if data.Gradient != nil {
		y = r.DrawGradient(x, y, "Palette", data.Gradient, max(progress, 0), h.width-pad*2)
	}
	if data.Status != "" {
		rl.DrawText(data.Status, x, y, r.Theme.FontSize, r.Theme.SectionHeader)
	}

	if data.Paused {
		rl.DrawText("PAUSED", h.width+pad*3, pad*2, 20, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds frame phase timings for display.
type PerfPanelData struct {
	PhaseAvg map[string]time.Duration
	Phases   []string // display order
	Total    time.Duration
	P95      time.Duration
	FPS      float64
}

// PerfPanel renders the frame timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s", data.Total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("p95 %s  %.0f fps", data.P95.Round(time.Microsecond), data.FPS), x, y, 12, rl.Gray)
	y += 14

	for _, name := range data.Phases {
		avg := data.PhaseAvg[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-8s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
