package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/pthm-cable/flowtrace/config"
	"github.com/pthm-cable/flowtrace/flow"
	"github.com/pthm-cable/flowtrace/rng"
)

// Job is a self-contained export request. It carries the field's generation
// data rather than the field itself, so it can be encoded, handed to another
// process and executed there with the same result as a local Export.
type Job struct {
	ID         uuid.UUID               `json:"id"`
	Canvas     config.CanvasConfig     `json:"canvas"`
	Simulation config.SimulationConfig `json:"simulation"`
	Export     config.ExportConfig     `json:"export"`
	Field      flow.Envelope           `json:"field"`

	// Draws is how many RNG values field generation consumed. Execute skips
	// them so particle spawns continue the stream where a local run would.
	Draws int `json:"draws"`
}

// NewJob generates the field data for cfg and packages the request.
func NewJob(cfg *config.Config, raster *flow.Raster) (*Job, error) {
	r, err := rng.New(cfg.Simulation.Seed)
	if err != nil {
		return nil, err
	}
	data, err := flow.Generate(cfg.FieldParams(raster), r)
	if err != nil {
		return nil, fmt.Errorf("generating flow field: %w", err)
	}
	return &Job{
		ID:         uuid.New(),
		Canvas:     cfg.Canvas,
		Simulation: cfg.Simulation,
		Export:     cfg.Export,
		Field:      flow.Envelope{Data: data},
		Draws:      r.Draws(),
	}, nil
}

// Execute rebuilds the field, resets the RNG to the job's seed and runs the
// pipeline.
func (j *Job) Execute(ctx context.Context) (*Result, error) {
	field, err := flow.Build(j.Field.Data)
	if err != nil {
		return nil, fmt.Errorf("job %s: building flow field: %w", j.ID, err)
	}
	r, err := rng.New(j.Simulation.Seed)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	r.Skip(j.Draws)

	res, err := Run(ctx, RunConfig(j.Canvas, j.Simulation), field, r, OptionsFor(j.Canvas, j.Export))
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	return res, nil
}

// Encode writes the job as JSON.
func (j *Job) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j); err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	return nil
}

// DecodeJob reads a job written by Encode.
func DecodeJob(r io.Reader) (*Job, error) {
	var j Job
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	if j.Field.Data == nil {
		return nil, fmt.Errorf("decoding job: %w", flow.ErrInvalidParams)
	}
	return &j, nil
}
