package systems

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newTestSimulation(t *testing.T, p Params, seed int64) *Simulation {
	t.Helper()
	sim, err := NewSimulation(p, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return sim
}

// checkGrid asserts the structural invariants of a finished grid.
func checkGrid(t *testing.T, g *Grid) {
	t.Helper()
	c := g.Center()

	if d, ok := g.At(c, c); !ok || d != 0 {
		t.Fatalf("seed changed: %v (aggregated=%v)", d, ok)
	}
	g.ForEachAggregated(func(x, y int, d float32) {
		want := math.Hypot(float64(x-c), float64(y-c))
		if math.Abs(float64(d)-want) > 1e-4 {
			t.Errorf("cell (%d, %d) holds %v, want %v", x, y, d, want)
		}
		if x == c && y == c {
			return
		}
		if d <= 0 {
			t.Errorf("cell (%d, %d) has non-positive distance %v", x, y, d)
		}
		if !hasOtherNeighbor(g, x, y) {
			t.Errorf("cell (%d, %d) is not attached to the cluster", x, y)
		}
	})
}

func hasOtherNeighbor(g *Grid, x, y int) bool {
	for _, d := range Directions {
		nx, ny := x+d.DX, y+d.DY
		if g.InBounds(nx, ny) && g.IsAggregated(nx, ny) {
			return true
		}
	}
	return false
}

func TestParamsValidate(t *testing.T) {
	base := Params{Radius: 10, Particles: 5, MaxAttempts: 100, Margin: 5}

	tests := []struct {
		name string
		edit func(p *Params)
		want error
	}{
		{"valid", func(p *Params) {}, nil},
		{"zero margin", func(p *Params) { p.Margin = 0 }, nil},
		{"margin at ceiling", func(p *Params) { p.Margin = 9 }, nil},
		{"zero radius", func(p *Params) { p.Radius = 0 }, ErrInvalidRadius},
		{"negative radius", func(p *Params) { p.Radius = -3 }, ErrInvalidRadius},
		{"zero particles", func(p *Params) { p.Particles = 0 }, ErrInvalidParticles},
		{"zero attempts", func(p *Params) { p.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"negative margin", func(p *Params) { p.Margin = -1 }, ErrInvalidMargin},
		{"margin past grid", func(p *Params) { p.Margin = 9.5 }, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.edit(&p)
			err := p.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewSimulationRejectsBadConfig(t *testing.T) {
	_, err := NewSimulation(Params{Radius: 10, Particles: 0, MaxAttempts: 10, Margin: 5}, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrInvalidParticles) {
		t.Errorf("expected ErrInvalidParticles, got %v", err)
	}

	_, err = NewSimulation(Params{Radius: 10, Particles: 1, MaxAttempts: 10, Margin: 5}, nil)
	if err == nil {
		t.Error("expected error for nil random source")
	}
}

func TestSingleParticleScenario(t *testing.T) {
	p := Params{Radius: 10, Particles: 1, MaxAttempts: 100000, Margin: 5}

	for seed := int64(0); seed < 20; seed++ {
		sim := newTestSimulation(t, p, seed)
		var committed []Cell
		sim.AddObserver(ObserverFunc(func(c Cell, g GridView) {
			committed = append(committed, c)
		}))

		sum, err := sim.Run(context.Background())
		if err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		if sum.Spawned != 1 {
			t.Fatalf("seed %d: expected 1 spawn, got %d", seed, sum.Spawned)
		}

		g := sim.Snapshot()
		if !g.IsAggregated(10, 10) {
			t.Fatalf("seed %d: seed missing", seed)
		}

		switch sum.Aggregated {
		case 0:
			if g.Count() != 1 {
				t.Errorf("seed %d: no aggregation but %d cells", seed, g.Count())
			}
		case 1:
			if g.Count() != 2 || len(committed) != 1 {
				t.Fatalf("seed %d: expected exactly one new cell, got count %d, events %d", seed, g.Count(), len(committed))
			}
			c := committed[0]
			cheb := max(abs(c.X-10), abs(c.Y-10))
			if cheb != 1 {
				t.Errorf("seed %d: new cell (%d, %d) at Chebyshev distance %d from seed", seed, c.X, c.Y, cheb)
			}
		default:
			t.Fatalf("seed %d: %d aggregations from one particle", seed, sum.Aggregated)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestZeroParticlesLeavesGridUnchanged(t *testing.T) {
	sim := newTestSimulation(t, Params{Radius: 10, Particles: 10, MaxAttempts: 1000, Margin: 5}, 1)
	before := sim.Snapshot().Cells()

	sum, err := sim.RunN(context.Background(), 0)
	if err != nil {
		t.Fatalf("RunN: %v", err)
	}
	if sum.Spawned != 0 {
		t.Errorf("expected no spawns, got %d", sum.Spawned)
	}
	if diff := cmp.Diff(before, sim.Snapshot().Cells(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("grid changed (-before +after):\n%s", diff)
	}
	if sim.Grid().Count() != 1 {
		t.Errorf("expected only the seed, got %d cells", sim.Grid().Count())
	}
}

func TestSingleAttemptExhausts(t *testing.T) {
	p := Params{Radius: 50, Particles: 20, MaxAttempts: 1, Margin: 40}
	sim := newTestSimulation(t, p, 3)

	sum, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Exhausted != 20 {
		t.Errorf("expected 20 exhausted, got %+v", sum)
	}
	if sim.Grid().Count() != 1 {
		t.Errorf("expected grid untouched, got %d cells", sim.Grid().Count())
	}
	if sum.Steps != 20 {
		t.Errorf("expected 20 steps, got %d", sum.Steps)
	}
}

func TestWalkOutcomes(t *testing.T) {
	sim := newTestSimulation(t, Params{Radius: 10, Particles: 1, MaxAttempts: 50, Margin: 5}, 1)

	// Next to the seed: freezes without stepping
	r := sim.Walk(11, 11)
	if r.Outcome != OutcomeAggregated || r.Attempts != 0 || r.X != 11 || r.Y != 11 {
		t.Errorf("expected immediate aggregation at (11, 11), got %+v", r)
	}

	// Corner is outside the containment circle
	r = sim.Walk(0, 0)
	if r.Outcome != OutcomeEscaped || r.Attempts != 0 {
		t.Errorf("expected immediate escape from corner, got %+v", r)
	}

	// On the circle itself counts as outside
	r = sim.Walk(0, 10)
	if r.Outcome != OutcomeEscaped {
		t.Errorf("expected escape on the containment circle, got %+v", r)
	}

	if sim.Grid().Count() != 1 {
		t.Error("Walk must not modify the grid")
	}
}

func TestWalkLeavesOccupiedSpawn(t *testing.T) {
	sim := newTestSimulation(t, Params{Radius: 10, Particles: 1, MaxAttempts: 10000, Margin: 0}, 9)

	r := sim.Walk(10, 10)
	if r.Outcome == OutcomeAggregated && r.X == 10 && r.Y == 10 {
		t.Fatal("particle froze on the seed")
	}
	if r.Attempts == 0 {
		t.Error("expected the particle to step off the seed")
	}
}

func TestRunInvariants(t *testing.T) {
	p := Params{Radius: 30, Particles: 400, MaxAttempts: 20000, Margin: 5}
	sim := newTestSimulation(t, p, 42)

	maxSpawn := MaxSpawnRadius(p.GridSize())
	sim.AddObserver(ObserverFunc(func(c Cell, g GridView) {
		if d, ok := g.At(c.X, c.Y); !ok || d != c.Distance {
			t.Errorf("observer saw (%d, %d) = %v, want committed %v", c.X, c.Y, d, c.Distance)
		}
	}))

	for !sim.Done() {
		r := sim.StepParticle()
		if r.SpawnRadius < p.Margin || r.SpawnRadius > maxSpawn {
			t.Fatalf("spawn radius %v outside [%v, %v]", r.SpawnRadius, p.Margin, maxSpawn)
		}
		if r.X < 0 || r.X >= p.GridSize() || r.Y < 0 || r.Y >= p.GridSize() {
			t.Fatalf("particle ended outside grid at (%d, %d)", r.X, r.Y)
		}
	}

	sum := sim.Summary()
	if sum.Spawned != p.Particles {
		t.Errorf("expected %d spawns, got %d", p.Particles, sum.Spawned)
	}
	if sum.Aggregated+sum.Escaped+sum.Exhausted != sum.Spawned {
		t.Errorf("outcomes do not add up: %+v", sum)
	}
	if sim.Grid().Count() != sum.Aggregated+1 {
		t.Errorf("expected %d cells, got %d", sum.Aggregated+1, sim.Grid().Count())
	}
	if sum.Aggregated == 0 {
		t.Error("expected some growth")
	}
	checkGrid(t, sim.Snapshot())
}

func TestRunIsMonotonic(t *testing.T) {
	p := Params{Radius: 25, Particles: 300, MaxAttempts: 20000, Margin: 4}
	sim := newTestSimulation(t, p, 7)
	ctx := context.Background()

	if _, err := sim.RunN(ctx, 100); err != nil {
		t.Fatalf("RunN: %v", err)
	}
	first := sim.Snapshot()

	if _, err := sim.RunN(ctx, 200); err != nil {
		t.Fatalf("RunN: %v", err)
	}
	second := sim.Snapshot()

	first.ForEachAggregated(func(x, y int, d float32) {
		got, ok := second.At(x, y)
		if !ok || got != d {
			t.Errorf("cell (%d, %d) changed from %v to %v (aggregated=%v)", x, y, d, got, ok)
		}
	})
	if second.Count() < first.Count() {
		t.Errorf("grid shrank from %d to %d", first.Count(), second.Count())
	}
}

func TestRunDeterministic(t *testing.T) {
	p := Params{Radius: 20, Particles: 200, MaxAttempts: 10000, Margin: 3}

	a := newTestSimulation(t, p, 1234)
	b := newTestSimulation(t, p, 1234)
	sa, _ := a.Run(context.Background())
	sb, _ := b.Run(context.Background())

	if diff := cmp.Diff(a.Snapshot().Cells(), b.Snapshot().Cells(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("grids differ (-a +b):\n%s", diff)
	}
	if sa != sb {
		t.Errorf("summaries differ: %+v vs %+v", sa, sb)
	}
}

func TestRunStopsBetweenParticles(t *testing.T) {
	p := Params{Radius: 20, Particles: 500, MaxAttempts: 10000, Margin: 3}
	sim := newTestSimulation(t, p, 5)

	ctx, cancel := context.WithCancel(context.Background())
	sim.AddObserver(ObserverFunc(func(c Cell, g GridView) {
		if g.Count() >= 5 {
			cancel()
		}
	}))

	sum, err := sim.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sum.Aggregated != 4 {
		t.Errorf("expected to stop right after the 4th aggregation, got %+v", sum)
	}
	if sim.Done() {
		t.Error("expected budget left after cancellation")
	}
	checkGrid(t, sim.Snapshot())

	// Resumes where it left off
	sum, err = sim.Run(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sum.Spawned != p.Particles {
		t.Errorf("expected %d spawns after resume, got %d", p.Particles, sum.Spawned)
	}
}

func TestRestoreSimulation(t *testing.T) {
	p := Params{Radius: 15, Particles: 150, MaxAttempts: 10000, Margin: 3}
	sim := newTestSimulation(t, p, 11)
	if _, err := sim.RunN(context.Background(), 60); err != nil {
		t.Fatalf("RunN: %v", err)
	}

	g, err := GridFromCells(p.GridSize(), sim.Snapshot().Cells())
	if err != nil {
		t.Fatalf("GridFromCells: %v", err)
	}
	restored, err := RestoreSimulation(p, g, sim.Summary(), rand.New(rand.NewSource(12)))
	if err != nil {
		t.Fatalf("RestoreSimulation: %v", err)
	}
	if restored.Remaining() != 90 {
		t.Errorf("expected 90 remaining, got %d", restored.Remaining())
	}

	before := restored.Snapshot()
	if _, err := restored.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	before.ForEachAggregated(func(x, y int, d float32) {
		if !restored.Grid().IsAggregated(x, y) {
			t.Errorf("restored run lost cell (%d, %d)", x, y)
		}
	})
	checkGrid(t, restored.Snapshot())

	if _, err := RestoreSimulation(Params{Radius: 16, Particles: 150, MaxAttempts: 10, Margin: 3}, g, Summary{}, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeAggregated: "aggregated",
		OutcomeEscaped:    "escaped",
		OutcomeExhausted:  "exhausted",
		Outcome(9):        "outcome(9)",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
