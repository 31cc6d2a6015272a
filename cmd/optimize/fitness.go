package main

import (
	"context"
	"log"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/export"
	"github.com/pthm-cable/flowtrace/telemetry"
)

// FitnessEvaluator runs batch exports and computes fitness.
type FitnessEvaluator struct {
	space      Space
	seeds      []int64
	baseConfig *config.Config
	cell       float64 // coverage grid size

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestSummary *telemetry.RunSummary
	lastQuality float64 // quality from most recent Evaluate call
	lastCover   float64 // mean coverage from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(space Space, seeds []int64, baseCfg *config.Config, cell float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		space:       space,
		seeds:       seeds,
		baseConfig:  baseCfg,
		cell:        cell,
		bestFitness: math.Inf(1),
	}
}

// BestSummary returns the run summary of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestSummary() *telemetry.RunSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSummary
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastCoverage returns the mean coverage from the most recent evaluation.
func (fe *FitnessEvaluator) LastCoverage() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastCover
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	summary telemetry.RunSummary
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative coverage: more of the canvas inked = lower fitness.
// A failed export scores 0, the worst possible value.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.space.Apply(cfg, x)
	if err := cfg.Finalize(); err != nil {
		log.Printf("invalid parameters %v: %v", x, err)
		return 0
	}

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	g, ctx := errgroup.WithContext(context.Background())
	for i, seed := range fe.seeds {
		g.Go(func() error {
			summary, err := fe.runExport(ctx, cfg, seed)
			if err != nil {
				return err
			}
			quality := computeQuality(summary)
			results[i] = seedResult{
				fitness: computeFitness(summary.Coverage, quality),
				quality: quality,
				summary: summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("evaluation failed: %v", err)
		return 0
	}

	// Aggregate results
	var totalFitness, totalQuality, totalCover float64
	best := 0
	for i, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalCover += r.summary.Coverage
		if r.fitness < results[best].fitness {
			best = i
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		summary := results[best].summary
		fe.bestSummary = &summary
	}
	fe.lastQuality = totalQuality / n
	fe.lastCover = totalCover / n
	fe.mu.Unlock()

	return avgFitness
}

// runExport traces one seed and summarises its paths.
func (fe *FitnessEvaluator) runExport(ctx context.Context, base *config.Config, seed int64) (telemetry.RunSummary, error) {
	cfg := *base
	cfg.Simulation.Seed = seed
	// Seeds already run in parallel.
	cfg.Simulation.Parallel = false

	res, err := export.Export(ctx, &cfg, nil)
	if err != nil {
		return telemetry.RunSummary{}, err
	}
	summary := telemetry.Summarize(seed, telemetry.CollectPathStats(res.Paths, res.Curves))
	summary.Coverage = telemetry.Coverage(res.Paths, cfg.Derived.Width, cfg.Derived.Height, fe.cell)
	summary.ElapsedMS = res.Elapsed.Milliseconds()
	return summary, nil
}

// copyConfig creates a copy of the base config. Config holds no reference
// fields, so a value copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(coverage × (1.0 + 0.2 × quality))
// Coverage dominates; quality adds up to 20% bonus to differentiate
// configs with similar coverage.
func computeFitness(coverage, quality float64) float64 {
	return -(coverage * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightKept     = 0.5
	qualityWeightEvenness = 0.5
)

// computeQuality computes drawing quality ∈ [0, 1]: the share of paths that
// survived curve fitting and how even their lengths are.
func computeQuality(s telemetry.RunSummary) float64 {
	if s.Paths == 0 {
		return 0
	}

	keptScore := 1 - float64(s.Dropped)/float64(s.Paths)

	evennessScore := 0.0
	if s.LenMean > 0 {
		cv := s.LenStd / s.LenMean
		evennessScore = math.Exp(-cv * cv)
	}

	return clamp01(qualityWeightKept*keptScore + qualityWeightEvenness*evennessScore)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
