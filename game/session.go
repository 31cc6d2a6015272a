package game

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flowtrace/components"
	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/renderer"
	"github.com/pthm-cable/flowtrace/rng"
	"github.com/pthm-cable/flowtrace/systems"
)

// Session animates the particles of one seed frame by frame. Every frame
// ticks each particle once and yields the strokes it drew. It is not safe
// for concurrent use.
type Session struct {
	cfg    *config.Config
	raster *flow.Raster

	world  *ecs.World
	mapper *ecs.Map2[components.Particle, components.Tracer]
	filter *ecs.Filter2[components.Particle, components.Tracer]

	rand     *rng.RNG
	field    *flow.Field
	gradient *renderer.Gradient
	step     systems.Step

	frame    int
	crossed  int // boundary crossings since the last restart
	segments []renderer.Segment
}

// NewSession seeds the RNG from cfg, creates the field and spawns the
// particles. raster is the decoded source image for the bitmap and image
// strategies.
func NewSession(cfg *config.Config, raster *flow.Raster) (*Session, error) {
	r, err := rng.New(cfg.Simulation.Seed)
	if err != nil {
		return nil, err
	}
	gradient, err := renderer.ParseGradient(cfg.Render.Palette)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	s := &Session{
		cfg:      cfg,
		raster:   raster,
		world:    world,
		mapper:   ecs.NewMap2[components.Particle, components.Tracer](world),
		filter:   ecs.NewFilter2[components.Particle, components.Tracer](world),
		rand:     r,
		gradient: gradient,
	}
	if err := s.start(); err != nil {
		return nil, err
	}
	return s, nil
}

// Restart clears the particles and starts over, from a fresh seed when
// randomize_seed is set and from the current seed otherwise.
func (s *Session) Restart() error {
	if s.cfg.Simulation.RandomizeSeed {
		s.rand.Reseed()
	} else {
		s.rand.Reset()
	}
	return s.start()
}

// SetSeed restarts the session from seed.
func (s *Session) SetSeed(seed int64) error {
	if err := rng.ValidateSeed(seed); err != nil {
		return err
	}
	s.rand.SetSeed(seed)
	return s.start()
}

// start draws the field from the freshly seeded RNG, then the spawn
// positions, in the same order as a batch export.
func (s *Session) start() error {
	field, err := flow.New(s.cfg.FieldParams(s.raster), s.rand)
	if err != nil {
		return fmt.Errorf("creating flow field: %w", err)
	}
	s.field = field

	s.removeParticles()

	sim := s.cfg.Simulation
	w, h := s.cfg.Derived.Width, s.cfg.Derived.Height
	spawns := make([]components.Particle, sim.NumPoints)
	for i := range spawns {
		spawns[i].X = s.rand.Float64() * w
		spawns[i].Y = s.rand.Float64() * h
	}
	for i := range spawns {
		s.mapper.NewEntity(&spawns[i], &components.Tracer{Index: i})
	}

	s.step = systems.Step{
		Field:    field,
		Width:    w,
		Height:   h,
		Force:    sim.Force,
		Friction: sim.Friction,
		Boundary: s.cfg.Derived.Boundary,
		Rand:     s.rand,
	}
	s.frame = 0
	s.crossed = 0
	return nil
}

func (s *Session) removeParticles() {
	// Collect first; the world is locked while a query is open
	var toRemove []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		s.mapper.Remove(e)
	}
}

// Update advances every particle one tick and returns the strokes drawn this
// frame. A particle that crossed the canvas edge draws nothing this frame.
// The returned slice is reused by the next call. Once MaxSteps frames have
// run, Update returns nil.
func (s *Session) Update() ([]renderer.Segment, error) {
	if s.Done() {
		return nil, nil
	}

	sim := s.cfg.Simulation
	var t float64
	if sim.MaxSteps > 0 {
		t = float64(s.frame) / float64(sim.MaxSteps)
	}
	col := s.gradient.At(t)

	s.segments = s.segments[:0]
	var firstErr error

	query := s.filter.Query()
	for query.Next() {
		p, tr := query.Get()
		if firstErr != nil {
			continue
		}

		from := curve.Pt(p.X, p.Y)
		res, err := systems.Tick(p, &s.step)
		if err != nil {
			firstErr = fmt.Errorf("particle %d frame %d: %w", tr.Index, s.frame, err)
			continue
		}
		if res.OutOfBounds {
			s.crossed++
			continue
		}

		s.segments = append(s.segments, renderer.Segment{
			From:  from,
			To:    curve.Pt(p.X, p.Y),
			Color: col,
			Width: penWidth(p.Speed(), sim.MinPenWidth, sim.MaxPenWidth),
		})
	}
	if firstErr != nil {
		return nil, firstErr
	}

	s.frame++
	s.step.Force *= 1 - sim.ForceReduction
	return s.segments, nil
}

// penWidth maps particle speed onto the configured stroke width range.
func penWidth(speed, lo, hi float64) float64 {
	return min(max(speed, lo), hi)
}

// Done reports whether a bounded session has run all its frames.
func (s *Session) Done() bool {
	return s.cfg.Simulation.MaxSteps > 0 && s.frame >= s.cfg.Simulation.MaxSteps
}

// Progress returns the fraction of frames run, or 0 for unbounded sessions.
func (s *Session) Progress() float64 {
	if s.cfg.Simulation.MaxSteps <= 0 {
		return 0
	}
	return float64(s.frame) / float64(s.cfg.Simulation.MaxSteps)
}

// Frame returns the number of frames run since the last restart.
func (s *Session) Frame() int { return s.frame }

// Seed returns the seed the current run started from.
func (s *Session) Seed() int64 { return s.rand.Seed() }

// Field returns the current flow field.
func (s *Session) Field() *flow.Field { return s.field }

// Gradient returns the stroke palette.
func (s *Session) Gradient() *renderer.Gradient { return s.gradient }

// Force returns the effective force of the next frame.
func (s *Session) Force() float64 { return s.step.Force }

// Crossings returns how many ticks left the canvas since the last restart.
func (s *Session) Crossings() int { return s.crossed }

// Particles returns a copy of every particle's state in spawn order.
func (s *Session) Particles() []components.Particle {
	out := make([]components.Particle, s.cfg.Simulation.NumPoints)
	query := s.filter.Query()
	for query.Next() {
		p, tr := query.Get()
		if tr.Index < len(out) {
			out[tr.Index] = *p
		}
	}
	return out
}

// ErrUnbounded is returned by Run for sessions without a frame limit.
var ErrUnbounded = errors.New("session has no frame limit")

// Run updates until the session is done, handing each frame's strokes to
// draw. Unbounded sessions return ErrUnbounded immediately.
func (s *Session) Run(draw func(frame int, segments []renderer.Segment)) error {
	if s.cfg.Simulation.MaxSteps <= 0 {
		return ErrUnbounded
	}
	for !s.Done() {
		frame := s.frame
		segments, err := s.Update()
		if err != nil {
			return err
		}
		if draw != nil {
			draw(frame, segments)
		}
	}
	return nil
}
