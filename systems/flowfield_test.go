package systems

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/pthm-cable/flowtrace/components"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/rng"
	"github.com/pthm-cable/flowtrace/systems/mocks"
)

// ---------- Tick motion ----------

func TestTick_AcceleratesMovesAndSlows(t *testing.T) {
	ctrl := gomock.NewController(t)
	field := mocks.NewMockFlowSampler(ctrl)
	field.EXPECT().Sample(10.0, 20.0, 100.0, 100.0).Return(flow.Sample{Force: 1, Angle: math.Pi / 2}, nil)

	p := components.Particle{X: 10, Y: 20, VX: 1}
	res, err := Tick(&p, &Step{Field: field, Width: 100, Height: 100, Force: 2, Friction: 0.5, Boundary: BoundaryWrap})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OutOfBounds {
		t.Errorf("expected in-bounds tick, got %+v", res)
	}

	// vy = 2 after acceleration; position moves by the full velocity
	// before friction halves it.
	if math.Abs(p.X-11) > 1e-12 || math.Abs(p.Y-22) > 1e-12 {
		t.Errorf("expected position (11, 22), got (%v, %v)", p.X, p.Y)
	}
	if math.Abs(p.VX-0.5) > 1e-12 || math.Abs(p.VY-1) > 1e-12 {
		t.Errorf("expected velocity (0.5, 1), got (%v, %v)", p.VX, p.VY)
	}
}

func TestTick_SampleErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	field := mocks.NewMockFlowSampler(ctrl)
	boom := errors.New("boom")
	field.EXPECT().Sample(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(flow.Sample{}, boom)

	p := components.Particle{X: 1, Y: 1}
	_, err := Tick(&p, &Step{Field: field, Width: 10, Height: 10, Force: 1})
	if !errors.Is(err, boom) {
		t.Errorf("expected sampler error, got %v", err)
	}
}

// ---------- Boundary policies ----------

func TestTick_WrapSides(t *testing.T) {
	tests := []struct {
		name   string
		p      components.Particle
		side   Side
		wantX  float64
		wantY  float64
		wantOK bool
	}{
		{"inside", components.Particle{X: 50, Y: 50, VX: 1}, SideNone, 51, 50, false},
		{"edge is inside", components.Particle{X: 99, Y: 50, VX: 1}, SideNone, 100, 50, false},
		{"left", components.Particle{X: 1, Y: 50, VX: -2}, SideLeft, 100, 50, true},
		{"right", components.Particle{X: 99, Y: 50, VX: 5}, SideRight, 0, 50, true},
		{"top", components.Particle{X: 50, Y: 1, VY: -2}, SideTop, 50, 80, true},
		{"bottom", components.Particle{X: 50, Y: 79, VY: 2}, SideBottom, 50, 0, true},
		{"left wins over top", components.Particle{X: 1, Y: 1, VX: -2, VY: -2}, SideLeft, 100, 80, true},
		{"right wins over bottom", components.Particle{X: 99, Y: 79, VX: 2, VY: 2}, SideRight, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			field := mocks.NewMockFlowSampler(ctrl)
			field.EXPECT().Sample(gomock.Any(), gomock.Any(), 100.0, 80.0).Return(flow.Sample{}, nil)

			p := tt.p
			vx, vy := p.VX, p.VY
			res, err := Tick(&p, &Step{Field: field, Width: 100, Height: 80, Force: 1, Boundary: BoundaryWrap})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.OutOfBounds != tt.wantOK || res.Side != tt.side {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.wantOK, tt.side, res.OutOfBounds, res.Side)
			}
			if p.X != tt.wantX || p.Y != tt.wantY {
				t.Errorf("expected position (%v, %v), got (%v, %v)", tt.wantX, tt.wantY, p.X, p.Y)
			}
			if p.VX != vx || p.VY != vy {
				t.Errorf("wrap changed velocity: (%v, %v) -> (%v, %v)", vx, vy, p.VX, p.VY)
			}
		})
	}
}

func TestTick_Recreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	field := mocks.NewMockFlowSampler(ctrl)
	field.EXPECT().Sample(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(flow.Sample{}, nil)

	p := components.Particle{X: 5, Y: 5, VX: -10, VY: 3}
	res, err := Tick(&p, &Step{
		Field:    field,
		Width:    200,
		Height:   100,
		Force:    1,
		Boundary: BoundaryRecreate,
		Rand:     rng.MustNew(9),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OutOfBounds || res.Side != SideLeft {
		t.Errorf("expected left crossing, got %+v", res)
	}

	want := rng.MustNew(9)
	wantX, wantY := want.Float64()*200, want.Float64()*100
	if p.X != wantX || p.Y != wantY {
		t.Errorf("expected respawn at (%v, %v), got (%v, %v)", wantX, wantY, p.X, p.Y)
	}
	if p.VX != 0 || p.VY != 0 {
		t.Errorf("expected zero velocity, got (%v, %v)", p.VX, p.VY)
	}
}

func TestTick_RecreateWithoutRand(t *testing.T) {
	ctrl := gomock.NewController(t)
	field := mocks.NewMockFlowSampler(ctrl)
	field.EXPECT().Sample(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(flow.Sample{}, nil)

	p := components.Particle{X: -5, Y: 5}
	_, err := Tick(&p, &Step{Field: field, Width: 10, Height: 10, Boundary: BoundaryRecreate})
	if !errors.Is(err, ErrNoRand) {
		t.Errorf("expected ErrNoRand, got %v", err)
	}
}

func TestParseBoundary(t *testing.T) {
	for _, name := range []string{"wrap", "recreate"} {
		if b, err := ParseBoundary(name); err != nil || string(b) != name {
			t.Errorf("ParseBoundary(%q) = %q, %v", name, b, err)
		}
	}
	if _, err := ParseBoundary("bounce"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
