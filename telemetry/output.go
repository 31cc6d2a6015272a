// Package telemetry records what a run produced: per-path statistics, a run
// summary, frame timings and snapshots of the inputs needed to reproduce it.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/flowtrace/config"
)

// OutputManager writes the files of one run under dir. A nil manager
// discards everything, so callers need not check whether output is enabled.
type OutputManager struct {
	dir  string
	perf *csvLog[PerfStatsCSV]
}

// csvLog appends rows to a CSV file, writing the header with the first row.
type csvLog[T any] struct {
	f    *os.File
	rows int
}

func openCSVLog[T any](path string) (*csvLog[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &csvLog[T]{f: f}, nil
}

func (l *csvLog[T]) append(row T) error {
	write := gocsv.MarshalWithoutHeaders
	if l.rows == 0 {
		write = gocsv.Marshal
	}
	if err := write([]T{row}, l.f); err != nil {
		return err
	}
	l.rows++
	return nil
}

// NewOutputManager creates dir and returns a manager for it, or nil when dir
// is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// Encoder is implemented by values that serialize themselves, such as export jobs.
type Encoder interface {
	Encode(w io.Writer) error
}

// WriteJob saves a serialized export job as job.json.
func (om *OutputManager) WriteJob(job Encoder) error {
	if om == nil || job == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "job.json"))
	if err != nil {
		return fmt.Errorf("creating job.json: %w", err)
	}
	if err := job.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePaths writes one row per path to paths.csv.
func (om *OutputManager) WritePaths(stats []PathStats) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "paths.csv"))
	if err != nil {
		return fmt.Errorf("creating paths.csv: %w", err)
	}
	if err := gocsv.Marshal(stats, f); err != nil {
		f.Close()
		return fmt.Errorf("writing paths: %w", err)
	}
	return f.Close()
}

// WriteSummary saves the run summary as summary.json.
func (om *OutputManager) WriteSummary(s RunSummary) error {
	if om == nil {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// WriteFile saves raw bytes, such as the exported SVG, under the output directory.
func (om *OutputManager) WriteFile(name string, data []byte) error {
	if om == nil {
		return nil
	}
	if err := os.WriteFile(filepath.Join(om.dir, name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WritePerf appends one frame timing row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, frame int32) error {
	if om == nil {
		return nil
	}
	if om.perf == nil {
		l, err := openCSVLog[PerfStatsCSV](filepath.Join(om.dir, "perf.csv"))
		if err != nil {
			return fmt.Errorf("creating perf.csv: %w", err)
		}
		om.perf = l
	}
	if err := om.perf.append(stats.ToCSV(frame)); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes perf.csv. It is safe to call more than once.
func (om *OutputManager) Close() error {
	if om == nil || om.perf == nil {
		return nil
	}
	err := om.perf.f.Close()
	om.perf = nil
	return err
}
