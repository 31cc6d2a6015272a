// Package export turns a seeded simulation into an SVG document.
//
// The pipeline runs every particle for the configured number of steps,
// simplifies each recorded path, fits cubic Béziers through what is left and
// serializes the curves. For a fixed seed and configuration the output is
// byte-identical, whether it runs in-process or from a Job.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/renderer"
	"github.com/pthm-cable/flowtrace/rng"
	"github.com/pthm-cable/flowtrace/systems"
)

// Options controls the geometry stages that follow the simulation.
type Options struct {
	SimplifyTolerance float64
	MaxError          float64
	SVG               renderer.SVGOptions
}

// Result holds every stage's output of one pipeline run.
type Result struct {
	Seed    int64
	Paths   []systems.Path
	Curves  [][]curve.CubicBez // one entry per path, nil when dropped
	Dropped int                // paths with fewer than two distinct points after simplification
	Options Options
	Elapsed time.Duration
}

// RunConfig maps the canvas and simulation sections onto a runner config.
func RunConfig(canvas config.CanvasConfig, sim config.SimulationConfig) systems.RunConfig {
	return systems.RunConfig{
		Width:          float64(canvas.Width),
		Height:         float64(canvas.Height),
		NumPoints:      sim.NumPoints,
		MaxSteps:       sim.MaxSteps,
		Force:          sim.Force,
		ForceReduction: sim.ForceReduction,
		Friction:       sim.Friction,
		Boundary:       systems.Boundary(sim.Boundary),
		Parallel:       sim.Parallel,
		Workers:        sim.Workers,
	}
}

// OptionsFor maps the export section onto pipeline options.
func OptionsFor(canvas config.CanvasConfig, e config.ExportConfig) Options {
	svg := renderer.DefaultSVGOptions(float64(canvas.Width), float64(canvas.Height))
	if e.StrokeWidth > 0 {
		svg.StrokeWidth = e.StrokeWidth
	}
	if e.Stroke != "" {
		svg.Stroke = e.Stroke
	}
	return Options{
		SimplifyTolerance: e.SimplifyTolerance,
		MaxError:          e.MaxError,
		SVG:               svg,
	}
}

// Export creates the field from cfg's seed and runs the pipeline in-process.
// raster is the decoded source image for the bitmap and image strategies.
func Export(ctx context.Context, cfg *config.Config, raster *flow.Raster) (*Result, error) {
	r, err := rng.New(cfg.Simulation.Seed)
	if err != nil {
		return nil, err
	}
	field, err := flow.New(cfg.FieldParams(raster), r)
	if err != nil {
		return nil, fmt.Errorf("creating flow field: %w", err)
	}
	return Run(ctx, RunConfig(cfg.Canvas, cfg.Simulation), field, r, OptionsFor(cfg.Canvas, cfg.Export))
}

// Run simulates with field, drawing spawns from r where the field left off,
// then simplifies and fits every path.
func Run(ctx context.Context, rc systems.RunConfig, field systems.FlowSampler, r *rng.RNG, opts Options) (*Result, error) {
	start := time.Now()

	runner, err := systems.NewRunner(rc, field, r)
	if err != nil {
		return nil, err
	}
	paths, err := runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}

	res := &Result{
		Seed:    r.Seed(),
		Paths:   paths,
		Curves:  make([][]curve.CubicBez, len(paths)),
		Options: opts,
	}
	for i, p := range paths {
		fitted := curve.Fit(curve.Simplify(p.Points, opts.SimplifyTolerance), opts.MaxError)
		if len(fitted) == 0 {
			res.Dropped++
			continue
		}
		res.Curves[i] = fitted
	}
	res.Elapsed = time.Since(start)

	slog.Debug("export pipeline",
		"seed", res.Seed,
		"particles", rc.NumPoints,
		"paths", len(paths),
		"dropped", res.Dropped,
		"segments", res.Segments(),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}

// Segments counts the fitted Bézier segments.
func (r *Result) Segments() int {
	n := 0
	for _, c := range r.Curves {
		n += len(c)
	}
	return n
}

// WriteSVG serializes the fitted curves.
func (r *Result) WriteSVG(w io.Writer) error {
	return renderer.WriteSVG(w, r.Curves, r.Options.SVG)
}

// SVG returns the document as bytes.
func (r *Result) SVG() []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes do not fail
	_ = r.WriteSVG(&buf)
	return buf.Bytes()
}
