package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/systems"
)

// PathStats describes one recorded path and what the fitter made of it.
type PathStats struct {
	Particle int     `csv:"particle"`
	Points   int     `csv:"points"`
	Segments int     `csv:"segments"` // fitted Béziers, 0 when dropped
	Length   float64 `csv:"length"`
	StartX   float64 `csv:"start_x"`
	StartY   float64 `csv:"start_y"`
	EndX     float64 `csv:"end_x"`
	EndY     float64 `csv:"end_y"`
}

// CollectPathStats pairs every path with its fitted curve. curves may be
// shorter than paths; missing entries count as dropped.
func CollectPathStats(paths []systems.Path, curves [][]curve.CubicBez) []PathStats {
	out := make([]PathStats, len(paths))
	for i, p := range paths {
		s := PathStats{Particle: p.Particle, Points: len(p.Points)}
		if i < len(curves) {
			s.Segments = len(curves[i])
		}
		if n := len(p.Points); n > 0 {
			s.StartX, s.StartY = p.Points[0].X, p.Points[0].Y
			s.EndX, s.EndY = p.Points[n-1].X, p.Points[n-1].Y
		}
		s.Length = polylineLength(p.Points)
		out[i] = s
	}
	return out
}

func polylineLength(pts []curve.Point) float64 {
	var l float64
	for i := 1; i < len(pts); i++ {
		l += pts[i].Sub(pts[i-1]).Hypot()
	}
	return l
}

// RunSummary aggregates the path stats of one export.
type RunSummary struct {
	Seed      int64   `json:"seed"`
	Paths     int     `json:"paths"`
	Dropped   int     `json:"dropped"`
	Points    int     `json:"points"`
	Segments  int     `json:"segments"`
	LenMean   float64 `json:"length_mean"`
	LenStd    float64 `json:"length_std"`
	LenP10    float64 `json:"length_p10"`
	LenP50    float64 `json:"length_p50"`
	LenP90    float64 `json:"length_p90"`
	Coverage  float64 `json:"coverage"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

// Summarize computes length statistics over the paths that survived fitting.
func Summarize(seed int64, stats []PathStats) RunSummary {
	s := RunSummary{Seed: seed, Paths: len(stats)}

	lengths := make([]float64, 0, len(stats))
	for _, p := range stats {
		s.Points += p.Points
		s.Segments += p.Segments
		if p.Segments == 0 {
			s.Dropped++
			continue
		}
		lengths = append(lengths, p.Length)
	}
	if len(lengths) == 0 {
		return s
	}

	s.LenMean, s.LenStd = stat.MeanStdDev(lengths, nil)
	if math.IsNaN(s.LenStd) {
		s.LenStd = 0
	}
	sort.Float64s(lengths)
	s.LenP10 = Percentile(lengths, 0.10)
	s.LenP50 = Percentile(lengths, 0.50)
	s.LenP90 = Percentile(lengths, 0.90)
	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Coverage returns the fraction of cell x cell squares of the canvas that
// contain at least one path point.
func Coverage(paths []systems.Path, width, height, cell float64) float64 {
	if width <= 0 || height <= 0 || cell <= 0 {
		return 0
	}
	cols := int(math.Ceil(width / cell))
	rows := int(math.Ceil(height / cell))
	seen := make([]bool, cols*rows)

	hit := 0
	for _, p := range paths {
		for _, pt := range p.Points {
			cx := min(max(int(pt.X/cell), 0), cols-1)
			cy := min(max(int(pt.Y/cell), 0), rows-1)
			if i := cy*cols + cx; !seen[i] {
				seen[i] = true
				hit++
			}
		}
	}
	return float64(hit) / float64(len(seen))
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("seed", s.Seed),
		slog.Int("paths", s.Paths),
		slog.Int("dropped", s.Dropped),
		slog.Int("points", s.Points),
		slog.Int("segments", s.Segments),
		slog.Float64("length_mean", s.LenMean),
		slog.Float64("length_std", s.LenStd),
		slog.Float64("length_p50", s.LenP50),
		slog.Float64("coverage", s.Coverage),
		slog.Int64("elapsed_ms", s.ElapsedMS),
	)
}
