// Flow field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/fieldpreview [-config config.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/export"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/renderer"
	"github.com/pthm-cable/flowtrace/rng"
)

const (
	windowWidth  = 1040
	windowHeight = 720
	previewSize  = 600
	panelWidth   = windowWidth - previewSize - 30
	heatCells    = 128
	tracePoints  = 200
	bezierSteps  = 8
)

// PreviewParams holds the tunable field parameters.
type PreviewParams struct {
	Strategy     int // index into the available strategies
	Resolution   float32
	ArrowSpacing float32
	Seed         int64
}

type preview struct {
	cfg        *config.Config
	raster     *flow.Raster
	strategies []flow.Strategy
	gradient   *renderer.Gradient

	field  *flow.Field
	arrows [][2]curve.Point
	traces [][]curve.CubicBez
	heat   rl.Texture2D
	err    error

	// Preview rectangle the canvas is fitted into.
	x, y, scale float32
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	raster, err := flow.LoadRaster(cfg.Derived.Strategy, cfg.Field.Image, cfg.Canvas.Width, cfg.Canvas.Height)
	if err != nil {
		slog.Error("failed to load field image", "error", err)
		os.Exit(1)
	}
	gradient, err := renderer.ParseGradient(cfg.Render.Palette)
	if err != nil {
		slog.Error("invalid palette", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	p := &preview{
		cfg:        cfg,
		raster:     raster,
		strategies: availableStrategies(cfg, raster),
		gradient:   gradient,
	}
	p.fit()

	img := rl.GenImageColor(heatCells, heatCells, rl.Black)
	p.heat = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(p.heat)

	defaults := PreviewParams{
		Resolution:   float32(cfg.Field.Resolution),
		ArrowSpacing: float32(cfg.Field.ArrowSpacing),
		Seed:         cfg.Simulation.Seed,
	}
	for i, s := range p.strategies {
		if s == cfg.Derived.Strategy {
			defaults.Strategy = i
		}
	}
	params := defaults
	showHeat := true
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			p.regenerate(params)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		p.draw(showHeat)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Flow Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Strategy cycle
		rl.DrawText("Strategy", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 20), Height: 24}, string(p.strategies[params.Strategy])) {
			params.Strategy = (params.Strategy + 1) % len(p.strategies)
			needsRegen = true
		}
		panelY += 40

		// Resolution slider
		rl.DrawText("Resolution (noise and attractor zoom)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newResolution := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.001", "0.05",
			params.Resolution, 0.001, 0.05,
		)
		rl.DrawText(fmt.Sprintf("%.4f", params.Resolution), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newResolution != params.Resolution {
			params.Resolution = newResolution
			needsRegen = true
		}
		panelY += 35

		// Arrow spacing slider
		rl.DrawText("Arrow spacing (px)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSpacing := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"4", "64",
			params.ArrowSpacing, 4, 64,
		)
		rl.DrawText(fmt.Sprintf("%.0f", params.ArrowSpacing), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSpacing != params.ArrowSpacing {
			params.ArrowSpacing = newSpacing
			needsRegen = true
		}
		panelY += 35

		// Seed slider
		rl.DrawText("Seed", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSeed := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "99999",
			float32(params.Seed%100000), 0, 99999,
		)
		rl.DrawText(fmt.Sprintf("%08d", params.Seed), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 14, rl.DarkGray)
		if int64(newSeed) != params.Seed%100000 {
			params.Seed = int64(newSeed)
			needsRegen = true
		}
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = rng.NewSeed()
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, toggleText(showHeat, "Hide Heat", "Show Heat")) {
			showHeat = !showHeat
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Trace") {
			p.trace(params)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		panelY += 50

		// Field sample stats
		if p.err != nil {
			rl.DrawText(p.err.Error(), int32(panelX), int32(panelY), 14, rl.Red)
			panelY += 20
		} else if p.field != nil {
			rl.DrawText(fmt.Sprintf("Arrows: %d  Traces: %d", len(p.arrows), len(p.traces)), int32(panelX), int32(panelY), 14, rl.DarkGray)
			panelY += 20
		}
		panelY += 10

		// Output YAML
		yaml := configYAML(p.strategies[params.Strategy], params)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		// Instructions
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// availableStrategies offers an image strategy only when it is the configured
// one and its image loaded.
func availableStrategies(cfg *config.Config, raster *flow.Raster) []flow.Strategy {
	var out []flow.Strategy
	for _, s := range flow.Strategies {
		switch s {
		case flow.StrategyBitmap, flow.StrategyImage:
			if raster == nil || s != cfg.Derived.Strategy {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func configYAML(s flow.Strategy, params PreviewParams) string {
	return fmt.Sprintf(`simulation:
  seed: %d
field:
  strategy: %s
  resolution: %.4f
  arrow_spacing: %.0f`,
		params.Seed, s, params.Resolution, params.ArrowSpacing)
}

// fit centres the canvas in the preview square.
func (p *preview) fit() {
	w, h := float32(p.cfg.Canvas.Width), float32(p.cfg.Canvas.Height)
	p.scale = min(previewSize/w, previewSize/h)
	p.x = 10 + (previewSize-w*p.scale)/2
	p.y = 10 + (previewSize-h*p.scale)/2
}

func (p *preview) toScreen(x, y float32) (float32, float32) {
	return p.x + x*p.scale, p.y + y*p.scale
}

func (p *preview) fieldConfig(params PreviewParams) *config.Config {
	cfg := *p.cfg
	cfg.Field.Strategy = string(p.strategies[params.Strategy])
	cfg.Field.Resolution = float64(params.Resolution)
	cfg.Field.ArrowSpacing = float64(params.ArrowSpacing)
	cfg.Simulation.Seed = params.Seed
	return &cfg
}

// regenerate rebuilds the field, its arrow grid and the heat texture.
func (p *preview) regenerate(params PreviewParams) {
	p.traces = nil
	cfg := p.fieldConfig(params)
	if err := cfg.Finalize(); err != nil {
		p.field, p.err = nil, err
		return
	}

	r, err := rng.New(cfg.Simulation.Seed)
	if err != nil {
		p.field, p.err = nil, err
		return
	}
	field, err := flow.New(cfg.FieldParams(p.raster), r)
	if err != nil {
		p.field, p.err = nil, err
		return
	}
	arrows, err := renderer.FieldArrows(field, cfg.Derived.Width, cfg.Derived.Height, cfg.Field.ArrowSpacing)
	if err != nil {
		p.field, p.err = nil, err
		return
	}
	p.field, p.arrows, p.err = field, arrows, nil
	p.updateHeat(cfg)
}

// updateHeat paints the field force of every cell, normalised to the
// strongest cell, through the palette.
func (p *preview) updateHeat(cfg *config.Config) {
	w, h := cfg.Derived.Width, cfg.Derived.Height
	forces := make([]float64, heatCells*heatCells)
	peak := 0.0
	for j := 0; j < heatCells; j++ {
		for i := 0; i < heatCells; i++ {
			x := (float64(i) + 0.5) / heatCells * w
			y := (float64(j) + 0.5) / heatCells * h
			s, err := p.field.Sample(x, y, w, h)
			if err != nil {
				p.err = err
				return
			}
			forces[j*heatCells+i] = s.Force
			peak = max(peak, s.Force)
		}
	}

	pixels := make([]color.RGBA, len(forces))
	for i, f := range forces {
		t := 0.0
		if peak > 0 {
			t = f / peak
		}
		pixels[i] = p.gradient.At(t)
	}
	rl.UpdateTexture(p.heat, pixels)
}

// trace runs a short export of the current field and keeps its curves.
func (p *preview) trace(params PreviewParams) {
	cfg := p.fieldConfig(params)
	cfg.Simulation.NumPoints = tracePoints
	if err := cfg.Finalize(); err != nil {
		p.err = err
		return
	}
	res, err := export.Export(context.Background(), cfg, p.raster)
	if err != nil {
		p.err = err
		return
	}
	p.traces = res.Curves
	slog.Info("preview trace", "paths", len(res.Paths), "dropped", res.Dropped, "elapsed", res.Elapsed)
}

func (p *preview) draw(showHeat bool) {
	w := float32(p.cfg.Canvas.Width) * p.scale
	h := float32(p.cfg.Canvas.Height) * p.scale

	if showHeat && p.field != nil {
		rl.DrawTexturePro(
			p.heat,
			rl.Rectangle{X: 0, Y: 0, Width: heatCells, Height: heatCells},
			rl.Rectangle{X: p.x, Y: p.y, Width: w, Height: h},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
	}
	if p.field != nil {
		renderer.DrawArrows(p.arrows, renderer.ArrowColor, p.toScreen)
	}
	for _, c := range p.traces {
		for _, seg := range c {
			prev := seg.P0
			for i := 1; i <= bezierSteps; i++ {
				next := seg.Eval(float64(i) / bezierSteps)
				x0, y0 := p.toScreen(float32(prev.X), float32(prev.Y))
				x1, y1 := p.toScreen(float32(next.X), float32(next.Y))
				rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 1, rl.Black)
				prev = next
			}
		}
	}
	rl.DrawRectangleLines(int32(p.x), int32(p.y), int32(w), int32(h), rl.DarkGray)
}
