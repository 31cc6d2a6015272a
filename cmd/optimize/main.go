// Command optimize searches tracer parameters with CMA-ES for drawings that
// cover the most canvas.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flowtrace/config"
)

// EvalRow is one line of optimize_log.csv.
type EvalRow struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	Coverage       float64 `csv:"coverage"`
	Quality        float64 `csv:"quality"`
	Force          float64 `csv:"force"`
	Friction       float64 `csv:"friction"`
	ForceReduction float64 `csv:"force_reduction"`
	Resolution     float64 `csv:"resolution"`
	ElapsedSec     float64 `csv:"elapsed_s"`
}

// progress tracks evaluations as CMA-ES requests them and appends each one
// to the CSV log.
type progress struct {
	space    Space
	eval     *FitnessEvaluator
	log      io.Writer
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	bestValues  []float64
}

func (p *progress) objective(x []float64) float64 {
	values := p.space.Clamp(p.space.Denormalize(x))
	fitness := p.eval.Evaluate(values)
	p.count++
	if p.bestValues == nil || fitness < p.bestFitness {
		p.bestFitness = fitness
		p.bestValues = values
	}

	elapsed := time.Since(p.start)
	row := EvalRow{
		Eval:           p.count,
		Fitness:        fitness,
		Coverage:       p.eval.LastCoverage(),
		Quality:        p.eval.LastQuality(),
		Force:          values[0],
		Friction:       values[1],
		ForceReduction: values[2],
		Resolution:     values[3],
		ElapsedSec:     elapsed.Seconds(),
	}
	write := gocsv.MarshalWithoutHeaders
	if p.count == 1 {
		write = gocsv.Marshal
	}
	if err := write([]EvalRow{row}, p.log); err != nil {
		slog.Error("failed to write log row", "error", err)
	}

	eta := time.Duration(p.maxEvals-p.count) * (elapsed / time.Duration(p.count))
	slog.Info("eval",
		"n", p.count,
		"of", p.maxEvals,
		"coverage", fmt.Sprintf("%.3f", row.Coverage),
		"quality", fmt.Sprintf("%.2f", row.Quality),
		"best", fmt.Sprintf("%.4f", p.bestFitness),
		"elapsed", elapsed.Round(time.Second),
		"eta", eta.Round(time.Second),
	)
	return fitness
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 3, "Seeds traced per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	points := flag.Int("points", 0, "Particles per run (0 = use config)")
	cell := flag.Float64("cell", 16, "Coverage grid cell size in pixels")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*configPath, *outputDir, *seeds, *maxEvals, *population, *points, *cell); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, seeds, maxEvals, population, points int, cell float64) error {
	if outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	base := *config.Cfg()
	if points > 0 {
		base.Simulation.NumPoints = points
	}
	if base.Simulation.MaxSteps <= 0 {
		return errors.New("simulation.max_steps must be positive to optimize")
	}

	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(42 + 1000*i)
	}

	space := NewSpace()
	evaluator := NewFitnessEvaluator(space, evalSeeds, &base, cell)

	logFile, err := os.Create(filepath.Join(outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log: %w", err)
	}
	defer logFile.Close()

	prog := &progress{
		space:    space,
		eval:     evaluator,
		log:      logFile,
		maxEvals: maxEvals,
		start:    time.Now(),
	}

	if population <= 0 {
		population = 4 + 3*len(space)/2
	}
	slog.Info("starting CMA-ES",
		"params", len(space),
		"population", population,
		"max_evals", maxEvals,
		"seeds", seeds,
		"points", base.Simulation.NumPoints,
		"steps", base.Simulation.MaxSteps,
	)

	x0 := space.Normalize(space.Clamp(space.Extract(&base)))
	result, err := optimize.Minimize(
		optimize.Problem{Func: prog.objective},
		x0,
		&optimize.Settings{FuncEvaluations: maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: population},
	)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if prog.bestValues == nil && result != nil {
		prog.bestValues = space.Clamp(space.Denormalize(result.X))
	}
	if prog.bestValues == nil {
		return errors.New("no evaluations completed")
	}

	slog.Info("optimization complete",
		"evals", prog.count,
		"elapsed", time.Since(prog.start).Round(time.Second),
		"best_fitness", prog.bestFitness,
	)
	for i, p := range space {
		slog.Info("best", "param", p.Name, "value", prog.bestValues[i])
	}

	best := base
	space.Apply(&best, prog.bestValues)
	cfgPath := filepath.Join(outputDir, "best_config.yaml")
	if err := best.WriteYAML(cfgPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best config saved", "path", cfgPath)

	summary := evaluator.BestSummary()
	if summary == nil {
		return nil
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	sumPath := filepath.Join(outputDir, "best_summary.json")
	if err := os.WriteFile(sumPath, data, 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	slog.Info("best run summary saved", "path", sumPath)
	return nil
}
