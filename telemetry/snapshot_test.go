package telemetry

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pthm-cable/dla/systems"
)

func runTestSimulation(t *testing.T, particles int) *systems.Simulation {
	t.Helper()
	p := systems.Params{Radius: 15, Particles: 200, MaxAttempts: 5000, Margin: 3}
	sim, err := systems.NewSimulation(p, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	if _, err := sim.RunN(context.Background(), particles); err != nil {
		t.Fatalf("RunN: %v", err)
	}
	return sim
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	sim := runTestSimulation(t, 60)

	snap := NewSnapshot(sim, 7, &Milestone{Type: MilestoneClusterReach, Particle: 60, Description: "test"})
	if len(snap.Cells) != sim.Grid().Count() {
		t.Fatalf("snapshot holds %d cells, grid has %d", len(snap.Cells), sim.Grid().Count())
	}

	path, err := SaveSnapshot(snap, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_60_cluster_reach.json") {
		t.Errorf("path = %q", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if diff := cmp.Diff(snap, loaded); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRestore(t *testing.T) {
	sim := runTestSimulation(t, 80)
	snap := NewSnapshot(sim, 7, nil)

	restored, err := snap.Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(sim.Summary(), restored.Summary()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	want := sim.Snapshot().Cells()
	got := restored.Snapshot().Cells()
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}

	// The restored run continues to the end of its budget.
	if _, err := restored.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !restored.Done() || restored.Summary().Spawned != 200 {
		t.Errorf("restored run stopped at %d", restored.Summary().Spawned)
	}
	if restored.Grid().Count() < sim.Grid().Count() {
		t.Error("restored grid lost cells")
	}
}

func TestSnapshotRestore_Rejects(t *testing.T) {
	sim := runTestSimulation(t, 10)

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"version", func(s *Snapshot) { s.Version = 99 }},
		{"cell off grid", func(s *Snapshot) { s.Cells = append(s.Cells, CellState{X: -1, Y: 0, Distance: 1}) }},
		{"wrong distance", func(s *Snapshot) { s.Cells = append(s.Cells, CellState{X: 16, Y: 14, Distance: 9}) }},
		{"spawned past budget", func(s *Snapshot) { s.Summary.Spawned = 1000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := NewSnapshot(sim, 7, nil)
			tt.mutate(snap)
			if _, err := snap.Restore(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadSnapshot_Missing(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}
