package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/dla/config"
	"github.com/pthm-cable/dla/systems"
)

// csvFile is an output file whose header is written with the first record.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func writeRecords[T any](c *csvFile, records []T) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	telemetry  *csvFile
	perf       *csvFile
	milestones *csvFile
	events     *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, spec := range []struct {
		name string
		dst  **csvFile
	}{
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"milestones.csv", &om.milestones},
		{"events.csv", &om.events},
	} {
		f, err := os.Create(filepath.Join(dir, spec.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", spec.name, err)
		}
		*spec.dst = &csvFile{f: f}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.telemetry, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteMilestone writes a milestone record to milestones.csv.
func (om *OutputManager) WriteMilestone(m Milestone) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.milestones, []Milestone{m}); err != nil {
		return fmt.Errorf("writing milestone: %w", err)
	}
	return nil
}

// WriteEvents appends particle events to events.csv.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}
	if err := writeRecords(om.events, events); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WriteCells dumps every aggregated cell to cells.csv.
func (om *OutputManager) WriteCells(g systems.GridView) error {
	if om == nil {
		return nil
	}
	cells := make([]CellState, 0, g.Count())
	size := g.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if d, ok := g.At(x, y); ok {
				cells = append(cells, CellState{X: x, Y: y, Distance: d})
			}
		}
	}

	f, err := os.Create(filepath.Join(om.dir, "cells.csv"))
	if err != nil {
		return fmt.Errorf("creating cells.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(cells, f); err != nil {
		return fmt.Errorf("writing cells: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.perf, om.milestones, om.events} {
		if c == nil || c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
