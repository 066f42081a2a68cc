package systems

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func runSwarm(t *testing.T, p Params, sp SwarmParams, seed int64) (*Simulation, Summary) {
	t.Helper()
	sim := newTestSimulation(t, p, seed)
	sw, err := NewSwarm(sim, sp)
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	sum, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sw.Active() != 0 {
		t.Errorf("expected no walkers left, got %d", sw.Active())
	}
	return sim, sum
}

func TestNewSwarmValidates(t *testing.T) {
	sim := newTestSimulation(t, Params{Radius: 10, Particles: 10, MaxAttempts: 100, Margin: 3}, 1)

	if _, err := NewSwarm(sim, SwarmParams{Walkers: 0, StepsPerRound: 10}); err == nil {
		t.Error("expected error for zero walkers")
	}
	if _, err := NewSwarm(sim, SwarmParams{Walkers: 4, StepsPerRound: 0}); err == nil {
		t.Error("expected error for zero steps per round")
	}
}

func TestSwarmSpendsBudget(t *testing.T) {
	p := Params{Radius: 30, Particles: 500, MaxAttempts: 20000, Margin: 5}
	sim, sum := runSwarm(t, p, SwarmParams{Walkers: 100, StepsPerRound: 50, Workers: 4}, 3)

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

func TestSwarmDeterministic(t *testing.T) {
	p := Params{Radius: 25, Particles: 300, MaxAttempts: 10000, Margin: 4}
	sp := SwarmParams{Walkers: 80, StepsPerRound: 25, Workers: 4}

	a, sa := runSwarm(t, p, sp, 99)
	b, sb := runSwarm(t, p, sp, 99)

	if diff := cmp.Diff(a.Snapshot().Cells(), b.Snapshot().Cells(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("grids differ (-a +b):\n%s", diff)
	}
	if sa != sb {
		t.Errorf("summaries differ: %+v vs %+v", sa, sb)
	}
}

func TestSwarmWorkerCountDoesNotChangeResult(t *testing.T) {
	p := Params{Radius: 20, Particles: 200, MaxAttempts: 10000, Margin: 3}

	a, _ := runSwarm(t, p, SwarmParams{Walkers: 70, StepsPerRound: 10, Workers: 1}, 5)
	b, _ := runSwarm(t, p, SwarmParams{Walkers: 70, StepsPerRound: 10, Workers: 3}, 5)

	if diff := cmp.Diff(a.Snapshot().Cells(), b.Snapshot().Cells(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("grids differ between 1 and 3 workers (-1 +3):\n%s", diff)
	}
}

func TestSwarmObserversSeeEveryCommit(t *testing.T) {
	p := Params{Radius: 20, Particles: 150, MaxAttempts: 10000, Margin: 3}
	sim := newTestSimulation(t, p, 8)

	seen := make(map[[2]int]bool)
	sim.AddObserver(ObserverFunc(func(c Cell, g GridView) {
		k := [2]int{c.X, c.Y}
		if seen[k] {
			t.Errorf("cell (%d, %d) committed twice", c.X, c.Y)
		}
		seen[k] = true
	}))

	sw, err := NewSwarm(sim, SwarmParams{Walkers: 20, StepsPerRound: 100})
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	sum, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != sum.Aggregated {
		t.Errorf("observer saw %d commits, summary has %d", len(seen), sum.Aggregated)
	}
}

func TestSwarmCancel(t *testing.T) {
	p := Params{Radius: 20, Particles: 300, MaxAttempts: 10000, Margin: 3}
	sim := newTestSimulation(t, p, 2)
	sw, err := NewSwarm(sim, SwarmParams{Walkers: 10, StepsPerRound: 20})
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sw.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if sim.Summary().Spawned != 0 {
		t.Errorf("expected no spawns, got %d", sim.Summary().Spawned)
	}
}

func TestSwarmFinishedAndWalkers(t *testing.T) {
	p := Params{Radius: 20, Particles: 150, MaxAttempts: 3000, Margin: 3}
	sim := newTestSimulation(t, p, 11)
	sw, err := NewSwarm(sim, SwarmParams{Walkers: 30, StepsPerRound: 20, Workers: 1})
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	defer sw.Close()

	var finished, aggregated int
	var walkers []WalkerPos
	for !sw.Done() {
		n := sw.Round()
		if n != len(sw.Finished()) {
			t.Fatalf("Round returned %d, Finished has %d", n, len(sw.Finished()))
		}
		for _, r := range sw.Finished() {
			if r.Outcome == OutcomeAggregated {
				aggregated++
			}
		}
		finished += n

		walkers = sw.Walkers(walkers[:0])
		if len(walkers) != sw.Active() {
			t.Fatalf("Walkers returned %d, Active is %d", len(walkers), sw.Active())
		}
		size := sim.Grid().Size()
		for _, w := range walkers {
			if w.X < 0 || w.Y < 0 || w.X >= size || w.Y >= size {
				t.Fatalf("walker off lattice at (%d, %d)", w.X, w.Y)
			}
		}
	}

	if finished != p.Particles {
		t.Errorf("finished %d walkers, want %d", finished, p.Particles)
	}
	if aggregated != sim.Summary().Aggregated {
		t.Errorf("aggregated %d in results, summary has %d", aggregated, sim.Summary().Aggregated)
	}
}

func TestSwarmDrainHandsBackToSequential(t *testing.T) {
	p := Params{Radius: 20, Particles: 300, MaxAttempts: 2000, Margin: 3}
	sim := newTestSimulation(t, p, 11)
	sw, err := NewSwarm(sim, SwarmParams{Walkers: 16, StepsPerRound: 8, Workers: 1})
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	defer sw.Close()

	sw.Round()
	sw.Drain()
	before := sim.Summary().Spawned
	for rounds := 0; !sw.Done(); rounds++ {
		if rounds > 10000 {
			t.Fatal("swarm did not drain")
		}
		sw.Round()
	}

	sum := sim.Summary()
	if sum.Spawned != before {
		t.Errorf("Spawned grew while draining: %d -> %d", before, sum.Spawned)
	}
	if got := sum.Aggregated + sum.Escaped + sum.Exhausted; got != sum.Spawned {
		t.Errorf("outcomes = %d, want %d", got, sum.Spawned)
	}
	if sim.Done() {
		t.Fatal("budget spent before sequential phase")
	}

	sum, err = sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Spawned != p.Particles {
		t.Errorf("Spawned = %d, want %d", sum.Spawned, p.Particles)
	}
}
