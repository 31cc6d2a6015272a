package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/flow"
)

type svgDoc struct {
	Paths []struct {
		D string `xml:"d,attr"`
	} `xml:"path"`
}

// scenarioConfig is the reference run: two particles for fifty steps on a
// Perlin field.
func scenarioConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Canvas.Width = 800
	cfg.Canvas.Height = 600
	cfg.Simulation.Seed = 42
	cfg.Simulation.NumPoints = 2
	cfg.Simulation.MaxSteps = 50
	cfg.Simulation.Force = 1
	cfg.Simulation.ForceReduction = 0
	cfg.Simulation.Friction = 0.05
	cfg.Simulation.Boundary = "wrap"
	cfg.Simulation.Parallel = false
	cfg.Field.Strategy = "perlin"
	cfg.Field.Resolution = 0.01
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

// endpoints returns the on-curve points of a path's d attribute: the M point
// and the final point of every C command.
func endpoints(t *testing.T, d string) [][2]float64 {
	t.Helper()
	fields := strings.Fields(strings.ReplaceAll(d, ",", " "))
	var out [][2]float64
	num := func(i int) float64 {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			t.Fatalf("bad number %q in %q", fields[i], d)
		}
		return v
	}
	for i := 0; i < len(fields); {
		switch fields[i] {
		case "M":
			out = append(out, [2]float64{num(i + 1), num(i + 2)})
			i += 3
		case "C":
			out = append(out, [2]float64{num(i + 5), num(i + 6)})
			i += 7
		default:
			t.Fatalf("unexpected token %q in %q", fields[i], d)
		}
	}
	return out
}

func parseSVG(t *testing.T, data []byte) svgDoc {
	t.Helper()
	var doc svgDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid SVG: %v\n%s", err, data)
	}
	return doc
}

// ---------- Pipeline ----------

func TestExport_Scenario(t *testing.T) {
	cfg := scenarioConfig(t)

	res, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	particles := make(map[int]bool)
	for _, p := range res.Paths {
		particles[p.Particle] = true
	}
	if len(particles) != 2 {
		t.Errorf("expected paths from 2 particles, got %d", len(particles))
	}

	doc := parseSVG(t, res.SVG())
	if len(doc.Paths) == 0 {
		t.Fatal("expected at least one <path>")
	}
	for i, p := range doc.Paths {
		for _, pt := range endpoints(t, p.D) {
			if pt[0] < 0 || pt[0] > 800 || pt[1] < 0 || pt[1] > 600 {
				t.Errorf("path %d point %v outside 800x600", i, pt)
			}
		}
	}
}

func TestExport_Deterministic(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Simulation.NumPoints = 25
	cfg.Simulation.MaxSteps = 120

	a, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	b, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(a.SVG(), b.SVG()) {
		t.Error("expected identical documents for the same seed")
	}

	cfg.Simulation.Parallel = true
	cfg.Simulation.Workers = 4
	c, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(a.SVG(), c.SVG()) {
		t.Error("expected parallel run to match sequential run")
	}
}

func TestExport_DifferentSeeds(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Simulation.NumPoints = 10

	a, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	cfg.Simulation.Seed = 43
	b, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if bytes.Equal(a.SVG(), b.SVG()) {
		t.Error("expected different documents for different seeds")
	}
}

func TestExport_DroppedMatchesCurves(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Simulation.NumPoints = 30
	cfg.Simulation.MaxSteps = 300

	res, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(res.Curves) != len(res.Paths) {
		t.Fatalf("expected one curve slot per path, got %d for %d", len(res.Curves), len(res.Paths))
	}
	empty := 0
	for _, c := range res.Curves {
		if len(c) == 0 {
			empty++
		}
	}
	if empty != res.Dropped {
		t.Errorf("expected Dropped %d, got %d", empty, res.Dropped)
	}
	if got := len(parseSVG(t, res.SVG()).Paths); got != len(res.Paths)-res.Dropped {
		t.Errorf("expected %d <path> elements, got %d", len(res.Paths)-res.Dropped, got)
	}
}

func TestExport_StrokeOptions(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Export.StrokeWidth = 0.5
	cfg.Export.Stroke = "#336699"

	res, err := Export(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	svg := string(res.SVG())
	if !strings.Contains(svg, `stroke-width="0.5"`) || !strings.Contains(svg, `stroke="#336699"`) {
		t.Errorf("expected custom stroke in document:\n%s", svg)
	}
}

func TestExport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Export(ctx, scenarioConfig(t), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ---------- Jobs ----------

func TestJob_RoundTripMatchesLocal(t *testing.T) {
	strategies := []struct {
		name string
		set  func(*config.Config)
	}{
		{"perlin", func(c *config.Config) { c.Field.Strategy = "perlin" }},
		{"simplex", func(c *config.Config) { c.Field.Strategy = "simplex" }},
		{"clifford", func(c *config.Config) { c.Field.Strategy = "clifford-attractor" }},
		{"de jong", func(c *config.Config) { c.Field.Strategy = "de-jong-attractor" }},
		{"custom", func(c *config.Config) {
			c.Field.Strategy = "custom"
			c.Field.Expression = "sin(x / 40) + cos(y / 40)"
		}},
		{"recreate", func(c *config.Config) {
			c.Field.Strategy = "clifford-attractor"
			c.Simulation.Boundary = "recreate"
		}},
	}

	for _, tt := range strategies {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scenarioConfig(t)
			cfg.Simulation.NumPoints = 12
			cfg.Simulation.MaxSteps = 150
			tt.set(cfg)
			if err := cfg.Finalize(); err != nil {
				t.Fatalf("Finalize: %v", err)
			}

			local, err := Export(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}

			job, err := NewJob(cfg, nil)
			if err != nil {
				t.Fatalf("NewJob: %v", err)
			}
			var buf bytes.Buffer
			if err := job.Encode(&buf); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := DecodeJob(&buf)
			if err != nil {
				t.Fatalf("DecodeJob: %v", err)
			}
			if decoded.ID != job.ID {
				t.Errorf("expected id %s, got %s", job.ID, decoded.ID)
			}

			remote, err := decoded.Execute(context.Background())
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !bytes.Equal(local.SVG(), remote.SVG()) {
				t.Error("expected job output to match local export byte for byte")
			}
		})
	}
}

func TestJob_RecordsFieldDraws(t *testing.T) {
	tests := []struct {
		strategy string
		want     int
	}{
		{"perlin", 1},
		{"simplex", 1},
		{"clifford-attractor", 4},
		{"de-jong-attractor", 4},
		{"custom", 0},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			cfg := scenarioConfig(t)
			cfg.Field.Strategy = tt.strategy
			cfg.Field.Expression = "x * y"
			if err := cfg.Finalize(); err != nil {
				t.Fatalf("Finalize: %v", err)
			}
			job, err := NewJob(cfg, nil)
			if err != nil {
				t.Fatalf("NewJob: %v", err)
			}
			if job.Draws != tt.want {
				t.Errorf("expected %d draws, got %d", tt.want, job.Draws)
			}
		})
	}
}

func TestJob_ImageRasterTravels(t *testing.T) {
	raster := flow.NewRaster(40, 30)
	for y := 0; y < raster.Height; y++ {
		for x := 0; x < raster.Width; x++ {
			v := uint8(x * 6)
			raster.Set(x, y, v, v, v)
		}
	}

	cfg := scenarioConfig(t)
	cfg.Canvas.Width = 40
	cfg.Canvas.Height = 30
	cfg.Simulation.NumPoints = 5
	cfg.Field.Strategy = "image"
	cfg.Field.Image = "ramp.png"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	local, err := Export(context.Background(), cfg, raster)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	job, err := NewJob(cfg, raster)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	var buf bytes.Buffer
	if err := job.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeJob(&buf)
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	remote, err := decoded.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(local.SVG(), remote.SVG()) {
		t.Error("expected job output to match local export byte for byte")
	}
}

func TestDecodeJob_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"missing field", `{"draws": 0}`, flow.ErrInvalidParams},
		{"unknown strategy", `{"field": {"strategy": "vortex", "data": {}}}`, flow.ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJob(strings.NewReader(tt.json))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestJob_ExecuteBadSeed(t *testing.T) {
	cfg := scenarioConfig(t)
	job, err := NewJob(cfg, nil)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.Simulation.Seed = -1
	if _, err := job.Execute(context.Background()); err == nil {
		t.Error("expected error for out-of-range seed")
	}
}
