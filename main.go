package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/export"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/game"
	"github.com/pthm-cable/flowtrace/renderer"
	"github.com/pthm-cable/flowtrace/rng"
	"github.com/pthm-cable/flowtrace/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", -1, "RNG seed in [0, 99999999] (-1 = use config)")
	strategy := flag.String("strategy", "", "Flow field strategy (empty = use config)")
	width := flag.Int("width", 0, "Canvas width (0 = use config)")
	height := flag.Int("height", 0, "Canvas height (0 = use config)")
	imagePath := flag.String("image", "", "Source image for the bitmap and image strategies")
	headless := flag.Bool("headless", false, "Run the live session without a window")
	exportPath := flag.String("export", "", "Trace the seed and write the curves to this SVG file")
	pngPath := flag.String("png", "", "Write the headless canvas to this PNG file")
	fieldPNG := flag.String("field-png", "", "Write the flow field arrow grid to this PNG file")
	jobPath := flag.String("job", "", "Execute a serialized export job instead of loading config")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, job and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output progress and perf stats via slog")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = run to max_steps)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *jobPath != "" {
		if err := runJob(ctx, *jobPath, *exportPath, *outputDir); err != nil {
			slog.Error("job failed", "job", *jobPath, "error", err)
			os.Exit(1)
		}
		return
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := applyOverrides(cfg, *seed, *strategy, *imagePath, *width, *height); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}

	raster, err := flow.LoadRaster(cfg.Derived.Strategy, cfg.Field.Image, cfg.Canvas.Width, cfg.Canvas.Height)
	if err != nil {
		slog.Error("failed to load field image", "error", err)
		os.Exit(1)
	}

	batch := false
	if *fieldPNG != "" {
		batch = true
		if err := writeFieldPNG(cfg, raster, *fieldPNG); err != nil {
			slog.Error("field preview failed", "error", err)
			os.Exit(1)
		}
	}
	if *exportPath != "" {
		batch = true
		if err := runExport(ctx, cfg, raster, *exportPath, *outputDir); err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
	}

	opts := game.Options{
		Raster:    raster,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Headless:  *headless,
	}

	if *headless {
		if err := runHeadless(ctx, cfg, opts, *pngPath, *maxFrames); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}
	if batch {
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Canvas.Width), int32(cfg.Canvas.Height), "Flow Trace")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Render.TargetFPS))

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if *maxFrames > 0 && g.Session().Frame() >= *maxFrames {
			break
		}
	}
}

// applyOverrides applies CLI flags over the loaded config.
func applyOverrides(cfg *config.Config, seed int64, strategy, image string, width, height int) error {
	if seed >= 0 {
		cfg.Simulation.Seed = seed
	} else if cfg.Simulation.RandomizeSeed {
		cfg.Simulation.Seed = rng.NewSeed()
	}
	if strategy != "" {
		cfg.Field.Strategy = strategy
	}
	if image != "" {
		cfg.Field.Image = image
	}
	if width > 0 {
		cfg.Canvas.Width = width
	}
	if height > 0 {
		cfg.Canvas.Height = height
	}
	return cfg.Finalize()
}

// runExport traces the configured seed once and writes the SVG.
func runExport(ctx context.Context, cfg *config.Config, raster *flow.Raster, path, outputDir string) error {
	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer om.Close()

	job, err := export.NewJob(cfg, raster)
	if err != nil {
		return err
	}
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}
	if err := om.WriteJob(job); err != nil {
		return err
	}

	res, err := export.Export(ctx, cfg, raster)
	if err != nil {
		return err
	}
	return finishExport(om, res, path, cfg.Derived.Width, cfg.Derived.Height)
}

// runJob executes a job.json written by a previous export.
func runJob(ctx context.Context, jobPath, path, outputDir string) error {
	f, err := os.Open(jobPath)
	if err != nil {
		return fmt.Errorf("opening job: %w", err)
	}
	job, err := export.DecodeJob(f)
	f.Close()
	if err != nil {
		return err
	}
	if path == "" {
		path = fmt.Sprintf("job-%s.svg", job.ID)
	}

	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer om.Close()

	slog.Info("executing job", "id", job.ID, "seed", job.Simulation.Seed, "strategy", job.Field.Data.Strategy())
	res, err := job.Execute(ctx)
	if err != nil {
		return err
	}
	return finishExport(om, res, path, float64(job.Canvas.Width), float64(job.Canvas.Height))
}

func finishExport(om *telemetry.OutputManager, res *export.Result, path string, width, height float64) error {
	if err := game.WriteSVGFile(path, res); err != nil {
		return err
	}
	summary, err := game.RecordExport(om, res, width, height)
	if err != nil {
		return err
	}
	slog.Info("exported svg", "path", path, "summary", summary)
	return nil
}

// writeFieldPNG renders the arrow grid of the configured field.
func writeFieldPNG(cfg *config.Config, raster *flow.Raster, path string) error {
	r, err := rng.New(cfg.Simulation.Seed)
	if err != nil {
		return err
	}
	field, err := flow.New(cfg.FieldParams(raster), r)
	if err != nil {
		return err
	}
	bg, err := renderer.ParseColor(cfg.Canvas.Background)
	if err != nil {
		return err
	}

	canvas := renderer.NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height, bg)
	if err := canvas.DrawArrows(field, cfg.Field.ArrowSpacing, renderer.ArrowColor); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating png: %w", err)
	}
	if err := canvas.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	slog.Info("wrote field preview", "path", path, "strategy", field.Strategy())
	return f.Close()
}

// runHeadless animates the session offscreen and optionally saves the result.
func runHeadless(ctx context.Context, cfg *config.Config, opts game.Options, pngPath string, maxFrames int) error {
	g, err := game.NewGame(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless session",
		"seed", cfg.Simulation.Seed,
		"max_steps", cfg.Simulation.MaxSteps,
		"max_frames", maxFrames,
	)
	if err := g.RunHeadless(ctx, maxFrames); err != nil {
		return err
	}
	if pngPath == "" {
		return nil
	}
	if err := g.SavePNG(pngPath); err != nil {
		return err
	}
	slog.Info("wrote png", "path", pngPath)
	return nil
}
