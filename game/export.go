package game

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/export"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/telemetry"
)

// CoverageCell is the grid size used for the coverage metric.
const CoverageCell = 16.0

type exportResult struct {
	gen  int
	path string
	res  *export.Result
	err  error
}

// exporter runs SVG exports off the render thread. Starting an export
// cancels the one in flight and only the newest result is delivered.
type exporter struct {
	gen     int
	cancel  context.CancelFunc
	results chan exportResult
}

func newExporter() *exporter {
	return &exporter{results: make(chan exportResult, 1)}
}

func (e *exporter) start(cfg config.Config, raster *flow.Raster, path string) {
	e.stop()
	e.gen++
	gen := e.gen
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go func() {
		res, err := export.Export(ctx, &cfg, raster)
		if err == nil {
			err = WriteSVGFile(path, res)
		}
		select {
		case e.results <- exportResult{gen: gen, path: path, res: res, err: err}:
		case <-ctx.Done():
		}
	}()
}

// poll returns the result of the newest export once it is ready.
func (e *exporter) poll() (exportResult, bool) {
	for {
		select {
		case r := <-e.results:
			if r.gen != e.gen {
				continue
			}
			e.stop()
			return r, true
		default:
			return exportResult{}, false
		}
	}
}

func (e *exporter) busy() bool {
	return e.cancel != nil
}

func (e *exporter) stop() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// startExport traces the current seed in the background and writes the SVG.
func (g *Game) startExport() {
	cfg := *g.cfg
	cfg.Simulation.Seed = g.session.Seed()
	cfg.Simulation.RandomizeSeed = false

	path := g.exportPath("svg")
	if g.exports.busy() {
		slog.Info("superseding running export")
	}
	g.exports.start(cfg, g.opts.Raster, path)
	g.status = "exporting " + filepath.Base(path)
}

func (g *Game) pollExports() {
	r, ok := g.exports.poll()
	if !ok {
		return
	}
	if r.err != nil {
		slog.Error("export failed", "path", r.path, "error", r.err)
		g.status = "export failed"
		return
	}

	slog.Info("exported svg",
		"path", r.path,
		"paths", len(r.res.Paths),
		"dropped", r.res.Dropped,
		"elapsed", r.res.Elapsed,
	)
	g.status = "saved " + filepath.Base(r.path)

	if _, err := RecordExport(g.outputManager, r.res, g.cfg.Derived.Width, g.cfg.Derived.Height); err != nil {
		slog.Error("failed to write export telemetry", "error", err)
	}
}

// WriteSVGFile writes the fitted curves of res to path.
func WriteSVGFile(path string, res *export.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating svg: %w", err)
	}
	if err := res.WriteSVG(f); err != nil {
		f.Close()
		return fmt.Errorf("writing svg: %w", err)
	}
	return f.Close()
}

// RecordExport summarises an export and writes paths.csv and summary.json
// when om is enabled.
func RecordExport(om *telemetry.OutputManager, res *export.Result, width, height float64) (telemetry.RunSummary, error) {
	stats := telemetry.CollectPathStats(res.Paths, res.Curves)
	summary := telemetry.Summarize(res.Seed, stats)
	summary.Coverage = telemetry.Coverage(res.Paths, width, height, CoverageCell)
	summary.ElapsedMS = res.Elapsed.Milliseconds()

	if err := om.WritePaths(stats); err != nil {
		return summary, err
	}
	if err := om.WriteSummary(summary); err != nil {
		return summary, err
	}
	return summary, nil
}
