package telemetry

import (
	"log/slog"
	"slices"
	"time"
)

// Phase names for one live frame.
const (
	PhaseTick    = "tick"    // particle integration and stroke styling
	PhaseDraw    = "draw"    // strokes onto the trail target
	PhaseOverlay = "overlay" // field arrows and HUD
)

// Phases lists the frame phases in execution order.
var Phases = []string{PhaseTick, PhaseDraw, PhaseOverlay}

type frameSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector times frame phases over a rolling window of frames.
// Begin opens a frame, Phase switches the running phase and End closes the
// frame. Present marks buffer swaps for the FPS estimate.
type PerfCollector struct {
	samples []frameSample
	next    int
	filled  int

	current    map[string]time.Duration
	frameStart time.Time
	phaseStart time.Time
	phase      string

	presents    []time.Duration
	nextPresent int
	lastPresent time.Time

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over window frames.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		samples:  make([]frameSample, window),
		presents: make([]time.Duration, 0, window),
		now:      time.Now,
	}
}

// Begin starts timing a frame.
func (p *PerfCollector) Begin() {
	now := p.now()
	p.frameStart = now
	p.phaseStart = now
	p.phase = ""
	p.current = make(map[string]time.Duration, len(Phases))
}

// Phase closes the running phase, if any, and starts the named one.
func (p *PerfCollector) Phase(name string) {
	now := p.now()
	p.closePhase(now)
	p.phase = name
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// End finishes the frame and stores it in the window.
func (p *PerfCollector) End() {
	now := p.now()
	p.closePhase(now)
	p.phase = ""

	p.samples[p.next] = frameSample{total: now.Sub(p.frameStart), phases: p.current}
	p.next = (p.next + 1) % len(p.samples)
	p.filled = min(p.filled+1, len(p.samples))
}

// Present records a buffer swap.
func (p *PerfCollector) Present() {
	now := p.now()
	if !p.lastPresent.IsZero() {
		d := now.Sub(p.lastPresent)
		if len(p.presents) < cap(p.presents) {
			p.presents = append(p.presents, d)
		} else {
			p.presents[p.nextPresent] = d
		}
		p.nextPresent = (p.nextPresent + 1) % cap(p.presents)
	}
	p.lastPresent = now
}

// PerfStats aggregates the frames of one window.
type PerfStats struct {
	Frames  int
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	P95Tick time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of AvgTick, 0-100

	TicksPerSecond float64
	FPS            float64 // from Present intervals, 0 when headless
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Frames:   p.filled,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}

	if len(p.presents) > 0 {
		var sum time.Duration
		for _, d := range p.presents {
			sum += d
		}
		if sum > 0 {
			s.FPS = float64(len(p.presents)) * float64(time.Second) / float64(sum)
		}
	}

	if p.filled == 0 {
		return s
	}

	totals := make([]float64, p.filled)
	var sum time.Duration
	phaseSum := make(map[string]time.Duration)
	for i, f := range p.samples[:p.filled] {
		totals[i] = float64(f.total)
		sum += f.total
		for name, d := range f.phases {
			phaseSum[name] += d
		}
	}
	slices.Sort(totals)

	n := time.Duration(p.filled)
	s.AvgTick = sum / n
	s.MinTick = time.Duration(totals[0])
	s.MaxTick = time.Duration(totals[len(totals)-1])
	s.P95Tick = time.Duration(Percentile(totals, 0.95))

	for name, d := range phaseSum {
		s.PhaseAvg[name] = d / n
		if s.AvgTick > 0 {
			s.PhasePct[name] = float64(s.PhaseAvg[name]) / float64(s.AvgTick) * 100
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"p95_tick_us", s.P95Tick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	Frame       int32   `csv:"frame"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	MinTickUS   int64   `csv:"min_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	P95TickUS   int64   `csv:"p95_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
	FPS         float64 `csv:"fps"`
	TickPct     float64 `csv:"tick_pct"`
	DrawPct     float64 `csv:"draw_pct"`
	OverlayPct  float64 `csv:"overlay_pct"`
}

// ToCSV flattens the stats into a perf.csv row for frame.
func (s PerfStats) ToCSV(frame int32) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:       frame,
		AvgTickUS:   s.AvgTick.Microseconds(),
		MinTickUS:   s.MinTick.Microseconds(),
		MaxTickUS:   s.MaxTick.Microseconds(),
		P95TickUS:   s.P95Tick.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
		FPS:         s.FPS,
		TickPct:     s.PhasePct[PhaseTick],
		DrawPct:     s.PhasePct[PhaseDraw],
		OverlayPct:  s.PhasePct[PhaseOverlay],
	}
}
