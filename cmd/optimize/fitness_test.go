package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/telemetry"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Canvas.Width = 200
	cfg.Canvas.Height = 150
	cfg.Simulation.NumPoints = 30
	cfg.Simulation.MaxSteps = 40
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func TestComputeQuality(t *testing.T) {
	tests := []struct {
		name    string
		summary telemetry.RunSummary
		want    float64
	}{
		{"no paths", telemetry.RunSummary{}, 0},
		{"all kept, equal lengths", telemetry.RunSummary{Paths: 4, LenMean: 10}, 1},
		{"all dropped", telemetry.RunSummary{Paths: 4, Dropped: 4}, 0},
		{"half kept, equal lengths", telemetry.RunSummary{Paths: 4, Dropped: 2, LenMean: 10}, 0.75},
		{"uneven lengths", telemetry.RunSummary{Paths: 2, LenMean: 10, LenStd: 10}, 0.5 + 0.5*math.Exp(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeQuality(tt.summary)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComputeFitness(t *testing.T) {
	if got := computeFitness(0.5, 0); got != -0.5 {
		t.Errorf("expected -0.5, got %v", got)
	}
	if got := computeFitness(0.5, 1); math.Abs(got+0.6) > 1e-12 {
		t.Errorf("expected -0.6, got %v", got)
	}
	// More coverage must always win over quality alone.
	if computeFitness(0.6, 0) >= computeFitness(0.5, 0.4) {
		t.Error("expected higher coverage to give lower fitness")
	}
}

func TestFitnessEvaluator_Evaluate(t *testing.T) {
	cfg := smallConfig(t)
	space := NewSpace()
	fe := NewFitnessEvaluator(space, []int64{1, 2}, cfg, 16)

	x := space.Extract(cfg)
	a := fe.Evaluate(x)
	if a >= 0 || a < -1.2 {
		t.Errorf("expected fitness in [-1.2, 0), got %v", a)
	}
	if c := fe.LastCoverage(); c <= 0 || c > 1 {
		t.Errorf("expected coverage in (0, 1], got %v", c)
	}

	b := fe.Evaluate(x)
	if a != b {
		t.Errorf("expected deterministic fitness, got %v and %v", a, b)
	}

	best := fe.BestSummary()
	if best == nil {
		t.Fatal("expected a best summary")
	}
	if best.Seed != 1 && best.Seed != 2 {
		t.Errorf("expected best seed 1 or 2, got %d", best.Seed)
	}

	// Base config is untouched.
	if cfg.Simulation.Seed != 42 {
		t.Errorf("expected base seed 42, got %d", cfg.Simulation.Seed)
	}
}
