package game

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/expr"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/renderer"
	"github.com/pthm-cable/flowtrace/rng"
	"github.com/pthm-cable/flowtrace/systems"
)

func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Canvas.Width = 400
	cfg.Canvas.Height = 300
	cfg.Simulation.Seed = 42
	cfg.Simulation.NumPoints = 20
	cfg.Simulation.MaxSteps = 60
	cfg.Simulation.Force = 1
	cfg.Simulation.ForceReduction = 0
	cfg.Simulation.Friction = 0.05
	cfg.Simulation.MinPenWidth = 0.5
	cfg.Simulation.MaxPenWidth = 2
	cfg.Simulation.Boundary = "wrap"
	cfg.Simulation.RandomizeSeed = false
	cfg.Field.Strategy = "perlin"
	cfg.Field.Resolution = 0.01
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func newSession(t *testing.T, cfg *config.Config) *Session {
	t.Helper()
	s, err := NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// ---------- Spawning ----------

func TestSession_SpawnsFromSeed(t *testing.T) {
	cfg := testConfig(t, nil)
	s := newSession(t, cfg)

	// Positions are drawn x then y for every particle, after the field
	r := rng.MustNew(42)
	if _, err := flow.New(cfg.FieldParams(nil), r); err != nil {
		t.Fatalf("flow.New: %v", err)
	}
	for i, p := range s.Particles() {
		wantX := r.Float64() * 400
		wantY := r.Float64() * 300
		if p.X != wantX || p.Y != wantY {
			t.Errorf("particle %d at (%v, %v), expected (%v, %v)", i, p.X, p.Y, wantX, wantY)
		}
		if p.VX != 0 || p.VY != 0 {
			t.Errorf("particle %d: expected zero velocity, got (%v, %v)", i, p.VX, p.VY)
		}
	}
}

func TestSession_Restart(t *testing.T) {
	s := newSession(t, testConfig(t, nil))
	initial := s.Particles()

	for i := 0; i < 10; i++ {
		if _, err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}

	if s.Frame() != 0 {
		t.Errorf("expected frame 0 after restart, got %d", s.Frame())
	}
	after := s.Particles()
	for i := range initial {
		if initial[i] != after[i] {
			t.Errorf("particle %d: expected %v after restart, got %v", i, initial[i], after[i])
		}
	}
}

func TestSession_RestartRandomizedSeed(t *testing.T) {
	s := newSession(t, testConfig(t, func(c *config.Config) { c.Simulation.RandomizeSeed = true }))
	if err := s.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if err := rng.ValidateSeed(s.Seed()); err != nil {
		t.Errorf("expected a seed in range: %v", err)
	}
}

func TestSession_SetSeed(t *testing.T) {
	s := newSession(t, testConfig(t, nil))
	if err := s.SetSeed(7); err != nil {
		t.Fatalf("SetSeed: %v", err)
	}
	if s.Seed() != 7 {
		t.Errorf("expected seed 7, got %d", s.Seed())
	}
	if err := s.SetSeed(rng.MaxSeed + 1); err == nil {
		t.Error("expected error for out-of-range seed")
	}
}

// ---------- Frames ----------

func TestSession_SegmentsPerFrame(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Simulation.Force = 3 })
	s := newSession(t, cfg)

	total := 0
	for !s.Done() {
		before := s.Crossings()
		segments, err := s.Update()
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		crossed := s.Crossings() - before
		if len(segments)+crossed != cfg.Simulation.NumPoints {
			t.Fatalf("frame %d: %d segments + %d crossings, expected %d", s.Frame(), len(segments), crossed, cfg.Simulation.NumPoints)
		}
		for _, seg := range segments {
			if seg.Width < 0.5 || seg.Width > 2 {
				t.Fatalf("width %v outside [0.5, 2]", seg.Width)
			}
		}
		total += len(segments)
	}
	if total == 0 {
		t.Error("expected some segments")
	}
	if s.Frame() != cfg.Simulation.MaxSteps {
		t.Errorf("expected %d frames, got %d", cfg.Simulation.MaxSteps, s.Frame())
	}

	segments, err := s.Update()
	if err != nil || segments != nil {
		t.Errorf("expected no segments after the last frame, got %d (%v)", len(segments), err)
	}
}

func TestSession_GradientColor(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Simulation.MaxSteps = 4 })
	s := newSession(t, cfg)
	gradient, err := renderer.ParseGradient(cfg.Render.Palette)
	if err != nil {
		t.Fatalf("ParseGradient: %v", err)
	}

	for frame := 0; frame < 4; frame++ {
		segments, err := s.Update()
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		want := gradient.At(float64(frame) / 4)
		for _, seg := range segments {
			if seg.Color != want {
				t.Fatalf("frame %d: expected color %v, got %v", frame, want, seg.Color)
			}
		}
	}
}

func TestSession_Unbounded(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Simulation.MaxSteps = 0 })
	s := newSession(t, cfg)
	gradient, _ := renderer.ParseGradient(cfg.Render.Palette)

	for i := 0; i < 200; i++ {
		segments, err := s.Update()
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		for _, seg := range segments {
			if seg.Color != gradient.At(0) {
				t.Fatalf("expected the first gradient colour, got %v", seg.Color)
			}
		}
	}
	if s.Done() || s.Progress() != 0 {
		t.Errorf("unbounded session: done=%v progress=%v", s.Done(), s.Progress())
	}
	if err := s.Run(nil); !errors.Is(err, ErrUnbounded) {
		t.Errorf("expected ErrUnbounded, got %v", err)
	}
}

func TestSession_ForceDecaysPerFrame(t *testing.T) {
	s := newSession(t, testConfig(t, func(c *config.Config) {
		c.Simulation.Force = 2
		c.Simulation.ForceReduction = 0.1
	}))

	for i := 0; i < 3; i++ {
		if _, err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	want := 2 * 0.9 * 0.9 * 0.9
	if math.Abs(s.Force()-want) > 1e-12 {
		t.Errorf("expected force %v, got %v", want, s.Force())
	}
}

func TestSession_MatchesBatchRunner(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Simulation.NumPoints = 1
		c.Simulation.MaxSteps = 150
		c.Simulation.Force = 2
		c.Simulation.ForceReduction = 0.01
	})

	s := newSession(t, cfg)
	var live []curve.Point
	err := s.Run(func(_ int, segments []renderer.Segment) {
		for _, seg := range segments {
			live = append(live, seg.To)
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := rng.MustNew(cfg.Simulation.Seed)
	field, err := flow.New(cfg.FieldParams(nil), r)
	if err != nil {
		t.Fatalf("flow.New: %v", err)
	}
	runner, err := systems.NewRunner(systems.RunConfig{
		Width:          400,
		Height:         300,
		NumPoints:      1,
		MaxSteps:       150,
		Force:          2,
		ForceReduction: 0.01,
		Friction:       0.05,
		Boundary:       systems.BoundaryWrap,
	}, field, r)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	paths, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var batch []curve.Point
	for _, p := range paths {
		batch = append(batch, p.Points...)
	}

	if len(live) != len(batch) {
		t.Fatalf("expected %d live points, got %d", len(batch), len(live))
	}
	for i := range live {
		if live[i] != batch[i] {
			t.Fatalf("point %d: live %v, batch %v", i, live[i], batch[i])
		}
	}
}

func TestSession_FieldErrorStopsFrame(t *testing.T) {
	s := newSession(t, testConfig(t, func(c *config.Config) {
		c.Field.Strategy = "custom"
		c.Field.Expression = "x / (y - y)"
	}))

	_, err := s.Update()
	if !errors.Is(err, expr.ErrEvaluation) {
		t.Errorf("expected ErrEvaluation, got %v", err)
	}
	if s.Frame() != 0 {
		t.Errorf("expected frame to stay at 0, got %d", s.Frame())
	}
}

func TestPenWidth(t *testing.T) {
	tests := []struct {
		speed, want float64
	}{
		{0, 0.5},
		{1.25, 1.25},
		{10, 2},
	}
	for _, tt := range tests {
		if got := penWidth(tt.speed, 0.5, 2); got != tt.want {
			t.Errorf("penWidth(%v) = %v, want %v", tt.speed, got, tt.want)
		}
	}
}
