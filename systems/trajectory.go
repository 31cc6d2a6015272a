package systems

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/flowtrace/components"
	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/rng"
)

// RunConfig configures a batch simulation.
type RunConfig struct {
	Width, Height  float64
	NumPoints      int
	MaxSteps       int
	Force          float64
	ForceReduction float64 // per-step multiplicative decay of Force, in [0, 1)
	Friction       float64
	Boundary       Boundary
	Parallel       bool
	Workers        int // 0 = GOMAXPROCS
}

// Validate checks the configuration for values the runner cannot use.
func (c RunConfig) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas %gx%g must be positive", c.Width, c.Height))
	}
	if c.NumPoints < 0 {
		errs = append(errs, fmt.Errorf("num points %d < 0", c.NumPoints))
	}
	if c.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max steps %d < 0", c.MaxSteps))
	}
	if c.Friction < 0 || c.Friction >= 1 {
		errs = append(errs, fmt.Errorf("friction %g outside [0, 1)", c.Friction))
	}
	if c.ForceReduction < 0 || c.ForceReduction >= 1 {
		errs = append(errs, fmt.Errorf("force reduction %g outside [0, 1)", c.ForceReduction))
	}
	if _, err := ParseBoundary(string(c.Boundary)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Path is one uninterrupted stretch of a particle's trajectory.
type Path struct {
	Particle int
	Points   []curve.Point
}

// Runner simulates a batch of particles and records their trajectories.
type Runner struct {
	cfg   RunConfig
	field FlowSampler
	rand  *rng.RNG
}

// NewRunner creates a runner. r supplies start positions and respawn seeds;
// it is only used by Run on the calling goroutine.
func NewRunner(cfg RunConfig, field FlowSampler, r *rng.RNG) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	if field == nil {
		return nil, errors.New("runner needs a flow field")
	}
	if r == nil {
		return nil, errors.New("runner needs an RNG")
	}
	return &Runner{cfg: cfg, field: field, rand: r}, nil
}

// spawn is everything a particle needs from the shared RNG.
type spawn struct {
	x, y        float64
	respawnSeed int64
}

// Run simulates every particle for MaxSteps ticks. All random draws happen
// up front in particle order so sequential and parallel runs produce the
// same paths. A path ends whenever a tick leaves the canvas; the wrapped or
// respawned position starts no segment of its own.
func (r *Runner) Run(ctx context.Context) ([]Path, error) {
	spawns := make([]spawn, r.cfg.NumPoints)
	for i := range spawns {
		spawns[i].x = r.rand.Float64() * r.cfg.Width
		spawns[i].y = r.rand.Float64() * r.cfg.Height
	}
	for i := range spawns {
		spawns[i].respawnSeed = r.rand.NextSeed()
	}

	results := make([][]Path, len(spawns))

	if !r.cfg.Parallel {
		for i := range spawns {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			paths, err := r.trace(i, spawns[i])
			if err != nil {
				return nil, err
			}
			results[i] = paths
		}
		return flatten(results), nil
	}

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunkSize := (len(spawns) + workers - 1) / max(workers, 1)

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(spawns); start += chunkSize {
		end := min(start+chunkSize, len(spawns))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				paths, err := r.trace(i, spawns[i])
				if err != nil {
					return err
				}
				results[i] = paths
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(results), nil
}

// trace simulates one particle. It touches no shared mutable state.
func (r *Runner) trace(index int, sp spawn) ([]Path, error) {
	p := components.Particle{X: sp.x, Y: sp.y}
	step := Step{
		Field:    r.field,
		Width:    r.cfg.Width,
		Height:   r.cfg.Height,
		Force:    r.cfg.Force,
		Friction: r.cfg.Friction,
		Boundary: r.cfg.Boundary,
	}
	if r.cfg.Boundary == BoundaryRecreate {
		step.Rand = rng.MustNew(sp.respawnSeed)
	}

	paths := []Path{{Particle: index}}
	for s := 0; s < r.cfg.MaxSteps; s++ {
		res, err := Tick(&p, &step)
		if err != nil {
			return nil, fmt.Errorf("particle %d step %d: %w", index, s, err)
		}
		if res.OutOfBounds {
			paths = append(paths, Path{Particle: index})
		} else {
			last := &paths[len(paths)-1]
			last.Points = append(last.Points, curve.Pt(p.X, p.Y))
		}
		step.Force *= 1 - r.cfg.ForceReduction
	}
	return paths, nil
}

func flatten(results [][]Path) []Path {
	n := 0
	for _, ps := range results {
		n += len(ps)
	}
	out := make([]Path, 0, n)
	for _, ps := range results {
		out = append(out, ps...)
	}
	return out
}
