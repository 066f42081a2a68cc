package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/dla/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the aggregate and run counters needed to resume a run.
// Only aggregated cells are stored; empty cells are implicit.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Params  systems.Params  `json:"params"`
	Summary systems.Summary `json:"summary"`

	Cells []CellState `json:"cells"`

	Milestone *Milestone `json:"milestone,omitempty"`
}

// CellState is one aggregated cell.
type CellState struct {
	X        int     `json:"x" csv:"x"`
	Y        int     `json:"y" csv:"y"`
	Distance float32 `json:"d" csv:"distance"`
}

// NewSnapshot captures the current state of sim.
func NewSnapshot(sim *systems.Simulation, seed int64, m *Milestone) *Snapshot {
	g := sim.Grid()
	cells := make([]CellState, 0, g.Count())
	size := g.Size()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if d, ok := g.At(x, y); ok {
				cells = append(cells, CellState{X: x, Y: y, Distance: d})
			}
		}
	}
	return &Snapshot{
		Version:   SnapshotVersion,
		RNGSeed:   seed,
		Params:    sim.Params(),
		Summary:   sim.Summary(),
		Cells:     cells,
		Milestone: m,
	}
}

// Grid rebuilds the lattice held by the snapshot.
func (s *Snapshot) Grid() (*systems.Grid, error) {
	size := s.Params.GridSize()
	dense := make([]float32, size*size)
	nan := float32(math.NaN())
	for i := range dense {
		dense[i] = nan
	}
	for _, c := range s.Cells {
		if c.X < 0 || c.X >= size || c.Y < 0 || c.Y >= size {
			return nil, fmt.Errorf("cell (%d, %d) outside %dx%d grid", c.X, c.Y, size, size)
		}
		dense[c.Y*size+c.X] = c.Distance
	}
	return systems.GridFromCells(size, dense)
}

// Restore resumes the simulation described by the snapshot. The random
// stream cannot be recovered exactly, so a new one is derived from the
// seed and the number of particles already spawned.
func (s *Snapshot) Restore() (*systems.Simulation, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	g, err := s.Grid()
	if err != nil {
		return nil, fmt.Errorf("restore grid: %w", err)
	}
	rng := rand.New(rand.NewSource(s.RNGSeed + int64(s.Summary.Spawned)))
	return systems.RestoreSimulation(s.Params, g, s.Summary, rng)
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Summary.Spawned)
	if snapshot.Milestone != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Milestone.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Summary.Spawned, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
