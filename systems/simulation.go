package systems

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
)

// Configuration errors reported by Params.Validate.
var (
	ErrInvalidRadius      = errors.New("radius must be positive")
	ErrInvalidParticles   = errors.New("particle budget must be positive")
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
	ErrInvalidMargin      = errors.New("spawn margin out of range")
)

// Params holds the simulation parameters.
type Params struct {
	Radius      int     // containment radius; grid side is 2*Radius+1
	Particles   int     // spawn attempts to run (aggregated + escaped + exhausted)
	MaxAttempts int     `inspect:"label,name:Max attempts"` // per-particle step cap
	Margin      float64 `inspect:"label,fmt:%.1f"`           // release distance beyond the cluster envelope
}

// GridSize returns the side of the lattice for these params.
func (p Params) GridSize() int {
	return 2*p.Radius + 1
}

// Validate reports configuration errors before any simulation work.
func (p Params) Validate() error {
	if p.Radius <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, p.Radius)
	}
	if p.Particles <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidParticles, p.Particles)
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxAttempts, p.MaxAttempts)
	}
	// A margin beyond the spawn ceiling would pin every release to the clamp.
	maxSpawn := MaxSpawnRadius(p.GridSize())
	if p.Margin < 0 || p.Margin > maxSpawn {
		return fmt.Errorf("%w: %.2f not in [0, %.0f]", ErrInvalidMargin, p.Margin, maxSpawn)
	}
	return nil
}

// Outcome is the terminal state of a particle.
type Outcome uint8

const (
	OutcomeAggregated Outcome = iota
	OutcomeEscaped
	OutcomeExhausted
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAggregated:
		return "aggregated"
	case OutcomeEscaped:
		return "escaped"
	case OutcomeExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Cell is a committed lattice cell.
type Cell struct {
	X, Y     int
	Distance float32
}

// Result describes how one particle ended.
type Result struct {
	Outcome     Outcome
	X, Y        int // final position
	Attempts    int // steps taken
	SpawnRadius float64
	Distance    float32 // set for aggregated particles
}

// Observer receives each committed cell along with a read-only grid view.
type Observer interface {
	OnAggregate(cell Cell, grid GridView)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(cell Cell, grid GridView)

// OnAggregate calls f.
func (f ObserverFunc) OnAggregate(cell Cell, grid GridView) { f(cell, grid) }

// Summary counts particle outcomes.
type Summary struct {
	Spawned    int
	Aggregated int
	Escaped    int
	Exhausted  int
	Steps      int64 `inspect:"label,name:Walk steps"` // total walk steps over all particles
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("spawned", s.Spawned),
		slog.Int("aggregated", s.Aggregated),
		slog.Int("escaped", s.Escaped),
		slog.Int("exhausted", s.Exhausted),
		slog.Int64("steps", s.Steps),
	)
}

func (s *Summary) record(r Result) {
	s.Spawned++
	s.Steps += int64(r.Attempts)
	switch r.Outcome {
	case OutcomeAggregated:
		s.Aggregated++
	case OutcomeEscaped:
		s.Escaped++
	case OutcomeExhausted:
		s.Exhausted++
	}
}

// Simulation drives particles one at a time against a grid it owns.
type Simulation struct {
	params Params
	grid   *Grid
	rng    *rand.Rand

	summary   Summary
	observers []Observer
}

// NewSimulation validates params and creates a simulation with a freshly
// seeded grid.
func NewSimulation(p Params, rng *rand.Rand) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	return &Simulation{
		params: p,
		grid:   NewGrid(p.GridSize()),
		rng:    rng,
	}, nil
}

// RestoreSimulation resumes a run from a saved grid and outcome counts.
func RestoreSimulation(p Params, grid *Grid, summary Summary, rng *rand.Rand) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	if grid.Size() != p.GridSize() {
		return nil, fmt.Errorf("grid size %d does not match radius %d", grid.Size(), p.Radius)
	}
	if summary.Spawned > p.Particles {
		return nil, fmt.Errorf("spawned %d exceeds particle budget %d", summary.Spawned, p.Particles)
	}
	return &Simulation{
		params:  p,
		grid:    grid,
		rng:     rng,
		summary: summary,
	}, nil
}

// AddObserver registers o for aggregation events.
func (s *Simulation) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Params returns the simulation parameters.
func (s *Simulation) Params() Params { return s.params }

// Grid returns a read-only view of the lattice.
func (s *Simulation) Grid() GridView { return s.grid }

// Snapshot returns a deep copy of the lattice.
func (s *Simulation) Snapshot() *Grid { return s.grid.Clone() }

// Summary returns outcome counts so far.
func (s *Simulation) Summary() Summary { return s.summary }

// Remaining returns how many particles of the budget are left.
func (s *Simulation) Remaining() int {
	return s.params.Particles - s.summary.Spawned
}

// Done reports whether the particle budget is spent.
func (s *Simulation) Done() bool { return s.Remaining() <= 0 }

// Spawn picks the release point for the next particle.
func (s *Simulation) Spawn() (x, y int, radius float64) {
	radius = EstimateSpawnRadius(s.grid, s.params.Margin)
	x, y = SpawnPosition(s.rng, s.grid.Center(), radius, s.grid.Size())
	return x, y, radius
}

// Walk runs a particle from (x, y) until it touches the cluster, leaves
// the containment circle, or uses up its attempts. The grid is not
// modified.
func (s *Simulation) Walk(x, y int) Result {
	c, r, size := s.grid.Center(), s.grid.Radius(), s.grid.Size()
	for attempts := 0; attempts < s.params.MaxAttempts; attempts++ {
		if !insideCircle(x, y, c, c, r) {
			return Result{Outcome: OutcomeEscaped, X: x, Y: y, Attempts: attempts}
		}
		if touching(s.grid, x, y) {
			return Result{Outcome: OutcomeAggregated, X: x, Y: y, Attempts: attempts}
		}
		x, y = Step(s.rng, x, y, size)
	}
	return Result{Outcome: OutcomeExhausted, X: x, Y: y, Attempts: s.params.MaxAttempts}
}

// touching is the freeze test for a walker. A particle released on top of
// the cluster cannot freeze where it is and keeps walking.
func touching(g GridView, x, y int) bool {
	return HasAggregatedNeighbor(g, x, y) && !g.IsAggregated(x, y)
}

// Commit applies a walk result: aggregated particles are written to the
// grid and observers notified. Every result counts against the budget.
func (s *Simulation) Commit(r Result) Result {
	if r.Outcome == OutcomeAggregated {
		r.Distance = Distance(r.X, r.Y, s.grid.Center(), s.grid.Center())
		s.grid.Commit(r.X, r.Y, r.Distance)
		cell := Cell{X: r.X, Y: r.Y, Distance: r.Distance}
		for _, o := range s.observers {
			o.OnAggregate(cell, s.grid)
		}
	}
	s.summary.record(r)
	return r
}

// StepParticle runs one full particle lifecycle.
func (s *Simulation) StepParticle() Result {
	x, y, radius := s.Spawn()
	r := s.Walk(x, y)
	r.SpawnRadius = radius
	return s.Commit(r)
}

// Run spends the remaining particle budget. The context is checked between
// particles only; on cancellation the grid stays valid and the run can be
// continued later.
func (s *Simulation) Run(ctx context.Context) (Summary, error) {
	return s.RunN(ctx, s.Remaining())
}

// RunN runs at most n more particles, never past the budget.
func (s *Simulation) RunN(ctx context.Context, n int) (Summary, error) {
	for i := 0; i < n && !s.Done(); i++ {
		if err := ctx.Err(); err != nil {
			return s.summary, err
		}
		s.StepParticle()
	}
	return s.summary, nil
}
