package game

import (
	"context"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/camera"
	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/renderer"
	"github.com/pthm-cable/flowtrace/telemetry"
	"github.com/pthm-cable/flowtrace/ui"
)

// Window background around the letterboxed canvas.
var windowBackground = rl.Color{R: 24, G: 24, B: 28, A: 255}

const controlsText = "SPACE pause | R restart | N new seed | F field | S export SVG | P snapshot | TAB perf | arrows/right-drag pan | wheel zoom | HOME reset"

// Options configures a Game beyond the loaded config.
type Options struct {
	Raster    *flow.Raster // source image of the bitmap and image strategies
	OutputDir string       // telemetry directory, empty disables output
	ExportDir string       // where S and P write files, defaults to "."
	LogStats  bool
	Headless  bool
}

// Game drives a Session either in a raylib window or onto an offscreen
// canvas.
type Game struct {
	cfg     *config.Config
	opts    Options
	session *Session

	// Window mode
	flow      *renderer.FlowRenderer
	camera    *camera.Camera
	hud       *ui.HUD
	perfPanel *ui.PerfPanel

	// Headless mode
	canvas *renderer.Canvas

	background color.RGBA
	arrows     [][2]curve.Point

	frameTimer    *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	exports       *exporter

	paused    bool
	showField bool
	showPerf  bool
	ticking   bool
	status    string

	screenWidth, screenHeight float32
}

// NewGame creates the session and its render target. In window mode the
// raylib window must already be open.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	bg, err := renderer.ParseColor(cfg.Canvas.Background)
	if err != nil {
		return nil, err
	}
	session, err := NewSession(cfg, opts.Raster)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	g := &Game{
		cfg:           cfg,
		opts:          opts,
		session:       session,
		background:    bg,
		frameTimer:    telemetry.NewPerfCollector(60),
		outputManager: om,
		exports:       newExporter(),
		showField:     cfg.Render.ShowField,
	}

	w, h := cfg.Canvas.Width, cfg.Canvas.Height
	if opts.Headless {
		g.canvas = renderer.NewCanvas(w, h, bg)
	} else {
		g.screenWidth = float32(rl.GetScreenWidth())
		g.screenHeight = float32(rl.GetScreenHeight())
		g.flow = renderer.NewFlowRenderer(int32(w), int32(h), bg)
		g.camera = camera.New(g.screenWidth, g.screenHeight, float32(w), float32(h))
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-230, 10)
	}
	g.refreshArrows()

	slog.Info("session started",
		"seed", session.Seed(),
		"strategy", session.Field().Strategy(),
		"particles", cfg.Simulation.NumPoints,
		"max_steps", cfg.Simulation.MaxSteps,
	)
	return g, nil
}

// Session returns the running session.
func (g *Game) Session() *Session {
	return g.session
}

// Output returns the telemetry output manager, nil when disabled.
func (g *Game) Output() *telemetry.OutputManager {
	return g.outputManager
}

// refreshArrows recomputes the arrow grid for the current field.
func (g *Game) refreshArrows() {
	lines, err := renderer.FieldArrows(g.session.Field(), g.cfg.Derived.Width, g.cfg.Derived.Height, g.cfg.Field.ArrowSpacing)
	if err != nil {
		slog.Warn("field arrows unavailable", "error", err)
		lines = nil
	}
	g.arrows = lines
}

// Restart begins a new run and clears the accumulated strokes.
func (g *Game) Restart() error {
	return g.reset(g.session.Restart)
}

// Reseed begins a new run from seed and clears the accumulated strokes.
func (g *Game) Reseed(seed int64) error {
	return g.reset(func() error { return g.session.SetSeed(seed) })
}

func (g *Game) reset(start func() error) error {
	if err := start(); err != nil {
		return err
	}
	if g.flow != nil {
		g.flow.Clear()
	}
	if g.canvas != nil {
		g.canvas.Clear(g.background)
	}
	g.refreshArrows()
	g.status = ""
	slog.Info("session restarted", "seed", g.session.Seed())
	return nil
}

// Update handles input and advances one frame in window mode.
func (g *Game) Update() {
	g.handleInput()
	g.pollExports()

	if g.paused || g.session.Done() {
		return
	}

	g.frameTimer.Begin()
	g.ticking = true

	g.frameTimer.Phase(telemetry.PhaseTick)
	segments, err := g.session.Update()
	if err != nil {
		slog.Error("frame failed", "frame", g.session.Frame(), "error", err)
		g.paused = true
		g.status = "field error, paused"
	}

	g.frameTimer.Phase(telemetry.PhaseDraw)
	g.flow.Draw(segments)

	if g.session.Done() {
		slog.Info("session complete", "seed", g.session.Seed(), "frames", g.session.Frame(), "crossings", g.session.Crossings())
	}
}

// Draw presents the canvas, the overlays and the HUD.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(windowBackground)

	x, y, w, h := g.camera.Dest()
	g.flow.Present(x, y, w, h)

	if g.ticking {
		g.frameTimer.Phase(telemetry.PhaseOverlay)
	}
	if g.showField {
		renderer.DrawArrows(g.arrows, renderer.ArrowColor, g.camera.CanvasToScreen)
	}
	g.hud.Draw(g.hudData())
	if g.showPerf {
		g.perfPanel.Draw(g.perfData())
	}
	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsText)

	rl.EndDrawing()

	if g.ticking {
		g.frameTimer.End()
		g.ticking = false
		g.flushTelemetry()
	}
	g.frameTimer.Present()
}

func (g *Game) hudData() ui.HUDData {
	d := ui.HUDData{
		Title:     "Flow Trace",
		Strategy:  string(g.session.Field().Strategy()),
		Seed:      g.session.Seed(),
		Frame:     g.session.Frame(),
		MaxSteps:  g.cfg.Simulation.MaxSteps,
		Particles: g.cfg.Simulation.NumPoints,
		Force:     g.session.Force(),
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		ShowField: g.showField,
		Gradient:  g.session.Gradient(),
		Status:    g.status,
	}

	m := rl.GetMousePosition()
	if g.camera.Contains(m.X, m.Y) {
		cx, cy := g.camera.ScreenToCanvas(m.X, m.Y)
		s, err := g.session.Field().Sample(float64(cx), float64(cy), g.cfg.Derived.Width, g.cfg.Derived.Height)
		if err == nil {
			d.Probe = &ui.Probe{X: float64(cx), Y: float64(cy), Force: s.Force, Angle: s.Angle}
		}
	}
	return d
}

func (g *Game) perfData() ui.PerfPanelData {
	stats := g.frameTimer.Stats()
	return ui.PerfPanelData{
		PhaseAvg: stats.PhaseAvg,
		Phases:   telemetry.Phases,
		Total:    stats.AvgTick,
		P95:      stats.P95Tick,
		FPS:      stats.FPS,
	}
}

// UpdateHeadless advances one frame onto the offscreen canvas.
func (g *Game) UpdateHeadless() error {
	if g.session.Done() {
		return nil
	}

	g.frameTimer.Begin()
	g.frameTimer.Phase(telemetry.PhaseTick)
	frame := g.session.Frame()
	segments, err := g.session.Update()
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame, err)
	}

	g.frameTimer.Phase(telemetry.PhaseDraw)
	g.canvas.DrawSegments(segments)
	g.frameTimer.End()

	g.flushTelemetry()
	return nil
}

// RunHeadless updates until the session is done or maxFrames frames have
// run. maxFrames <= 0 means no cap, which unbounded sessions reject.
func (g *Game) RunHeadless(ctx context.Context, maxFrames int) error {
	if maxFrames <= 0 && g.cfg.Simulation.MaxSteps <= 0 {
		return ErrUnbounded
	}
	for !g.session.Done() && (maxFrames <= 0 || g.session.Frame() < maxFrames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.UpdateHeadless(); err != nil {
			return err
		}
	}

	if g.showField {
		for _, l := range g.arrows {
			g.canvas.Line(l[0], l[1], 1, renderer.ArrowColor)
		}
	}
	slog.Info("headless run complete", "seed", g.session.Seed(), "frames", g.session.Frame(), "crossings", g.session.Crossings())
	return nil
}

// flushTelemetry logs and records perf stats every log_interval frames.
func (g *Game) flushTelemetry() {
	interval := g.cfg.Telemetry.LogInterval
	frame := g.session.Frame()
	if interval <= 0 || frame == 0 || frame%interval != 0 {
		return
	}

	perfStats := g.frameTimer.Stats()

	if g.opts.LogStats {
		slog.Info("progress",
			"frame", frame,
			"seed", g.session.Seed(),
			"force", g.session.Force(),
			"crossings", g.session.Crossings(),
		)
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WritePerf(perfStats, int32(frame)); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// WritePNG encodes the accumulated strokes as PNG.
func (g *Game) WritePNG(w io.Writer) error {
	if g.canvas != nil {
		return g.canvas.WritePNG(w)
	}
	if err := png.Encode(w, g.flow.Snapshot()); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// SavePNG writes the accumulated strokes to a PNG file.
func (g *Game) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating png: %w", err)
	}
	if err := g.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Unload cancels pending exports and releases the render target and output
// files.
func (g *Game) Unload() {
	g.exports.stop()
	if g.flow != nil {
		g.flow.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
