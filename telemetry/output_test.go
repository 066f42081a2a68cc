package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/dla/config"
	"github.com/pthm-cable/dla/systems"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// All methods are nil-safe.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvents([]Event{{}}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager has a directory")
	}
}

func TestOutputManager_HeadersOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEnd: i * 100, Aggregated: i}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteMilestone(Milestone{Type: MilestoneSpawnSaturated, Particle: 300}); err != nil {
		t.Fatalf("WriteMilestone: %v", err)
	}
	if err := om.WriteEvents([]Event{NewEvent(0, systems.Result{Outcome: systems.OutcomeEscaped})}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 300); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "telemetry.csv"))
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Contains(lines[0], "window_start") {
		t.Error("window_start should not be exported")
	}

	lines = readLines(t, filepath.Join(dir, "milestones.csv"))
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "spawn_saturated,300") {
		t.Errorf("milestones.csv = %q", lines)
	}

	lines = readLines(t, filepath.Join(dir, "events.csv"))
	if len(lines) != 2 || !strings.Contains(lines[1], "escaped") {
		t.Errorf("events.csv = %q", lines)
	}
}

func TestOutputManager_CellsAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	g := systems.NewGrid(11)
	g.Commit(6, 5, systems.Distance(6, 5, 5, 5))
	if err := om.WriteCells(g); err != nil {
		t.Fatalf("WriteCells: %v", err)
	}
	lines := readLines(t, filepath.Join(dir, "cells.csv"))
	if len(lines) != 3 {
		t.Fatalf("cells.csv has %d lines, want header + 2", len(lines))
	}
	if lines[0] != "x,y,distance" {
		t.Errorf("header = %q", lines[0])
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml missing: %v", err)
	}
}
