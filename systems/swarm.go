package systems

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/dla/components"
)

// parallelThreshold is the minimum walker count to use worker goroutines.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// SwarmParams configures concurrent walking.
type SwarmParams struct {
	Walkers       int // walkers in flight at once
	StepsPerRound int // steps each walker may take per round
	Workers       int // 0 = GOMAXPROCS
}

// walkerSnapshot captures walker state for the compute phase.
type walkerSnapshot struct {
	Entity ecs.Entity
	Pos    components.Position
	Walk   components.Walker
}

// walkIntent is what a walker wants to do after its steps this round.
type walkIntent struct {
	State    walkState
	X, Y     int
	Attempts int
}

type walkState uint8

const (
	stateWalking walkState = iota
	stateContact
	stateEscaped
	stateExhausted
)

// workChunk represents a range of walkers for a worker to process.
type workChunk struct {
	start, end int
}

// Swarm walks many particles at once against a simulation's grid.
// Each round computes walker moves in parallel while the grid is
// read-only, then applies commits single-threaded in entity order, so the
// result depends only on the seed.
type Swarm struct {
	sim    *Simulation
	params SwarmParams

	world   *ecs.World
	mapper  *ecs.Map2[components.Position, components.Walker]
	filter  *ecs.Filter2[components.Position, components.Walker]
	posMap  *ecs.Map1[components.Position]
	walkMap *ecs.Map1[components.Walker]

	snapshots []walkerSnapshot
	intents   []walkIntent
	removals  []ecs.Entity
	finished  []Result
	active    int
	nextID    uint32
	rounds    int
	draining  bool

	// Worker pool
	numWorkers int
	workChan   chan workChunk
	doneChan   chan struct{}
	stopChan   chan struct{}
	wg         sync.WaitGroup
	running    bool
}

// NewSwarm wraps sim for concurrent walking. The swarm draws spawn points
// and walker seeds from the simulation's random source and spends the
// same particle budget.
func NewSwarm(sim *Simulation, p SwarmParams) (*Swarm, error) {
	if p.Walkers <= 0 {
		return nil, errors.New("swarm: walkers must be positive")
	}
	if p.StepsPerRound <= 0 {
		return nil, errors.New("swarm: steps per round must be positive")
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	world := ecs.NewWorld()
	return &Swarm{
		sim:        sim,
		params:     p,
		world:      world,
		mapper:     ecs.NewMap2[components.Position, components.Walker](world),
		filter:     ecs.NewFilter2[components.Position, components.Walker](world),
		posMap:     ecs.NewMap1[components.Position](world),
		walkMap:    ecs.NewMap1[components.Walker](world),
		snapshots:  make([]walkerSnapshot, 0, p.Walkers),
		intents:    make([]walkIntent, 0, p.Walkers),
		numWorkers: workers,
	}, nil
}

// Active returns the number of walkers in flight.
func (s *Swarm) Active() int { return s.active }

// Rounds returns how many rounds have run.
func (s *Swarm) Rounds() int { return s.rounds }

// Done reports whether the budget is spent and no walker is left.
func (s *Swarm) Done() bool {
	return s.active == 0 && (s.draining || s.sim.Done())
}

// Drain stops releasing new walkers. Rounds keep advancing those in
// flight until Done, after which the simulation can continue sequentially.
func (s *Swarm) Drain() { s.draining = true }

// Run executes rounds until done. The context is checked between rounds.
func (s *Swarm) Run(ctx context.Context) (Summary, error) {
	defer s.Close()
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return s.sim.summary, err
		}
		s.Round()
	}
	return s.sim.summary, nil
}

// Round tops up walkers, advances them all and applies the results.
// Returns the number of walkers that terminated this round.
func (s *Swarm) Round() int {
	s.spawnWalkers()
	s.rounds++

	// Phase A: snapshot (single-threaded)
	s.snapshots = s.snapshots[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, walk := query.Get()
		s.snapshots = append(s.snapshots, walkerSnapshot{
			Entity: query.Entity(),
			Pos:    *pos,
			Walk:   *walk,
		})
	}

	n := len(s.snapshots)
	if n == 0 {
		return 0
	}
	if cap(s.intents) < n {
		s.intents = make([]walkIntent, n)
	}
	s.intents = s.intents[:n]

	// Phase B: compute against a read-only grid
	if n < parallelThreshold || s.numWorkers == 1 {
		s.computeChunk(0, n)
	} else {
		s.computeParallel(n)
	}

	// Phase C: apply in snapshot order (single-threaded, deterministic)
	return s.applyIntents()
}

// Finished returns the results of walkers that terminated in the last
// round, in apply order. The slice is reused by the next round.
func (s *Swarm) Finished() []Result { return s.finished }

// WalkerPos is the lattice position of an in-flight walker.
type WalkerPos struct {
	X, Y int
}

// Walkers appends the positions of in-flight walkers to dst.
func (s *Swarm) Walkers(dst []WalkerPos) []WalkerPos {
	query := s.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		dst = append(dst, WalkerPos{X: int(pos.X), Y: int(pos.Y)})
	}
	return dst
}

// spawnWalkers releases new walkers until the swarm is full or the budget
// is spent. Each spawn counts against the budget immediately.
func (s *Swarm) spawnWalkers() {
	for !s.draining && s.active < s.params.Walkers && !s.sim.Done() {
		x, y, radius := s.sim.Spawn()
		pos := components.Position{X: int32(x), Y: int32(y)}
		walk := components.Walker{
			ID:          s.nextID,
			SpawnRadius: float32(radius),
			RNG:         rand.New(rand.NewSource(s.sim.rng.Int63())),
		}
		s.nextID++
		s.mapper.NewEntity(&pos, &walk)
		s.sim.summary.Spawned++
		s.active++
	}
}

// computeChunk advances walkers [i0, i1). Only reads the grid.
func (s *Swarm) computeChunk(i0, i1 int) {
	g := s.sim.grid
	c, r, size := g.Center(), g.Radius(), g.Size()
	maxAttempts := s.sim.params.MaxAttempts

	for i := i0; i < i1; i++ {
		snap := &s.snapshots[i]
		x, y := int(snap.Pos.X), int(snap.Pos.Y)
		attempts := int(snap.Walk.Attempts)
		state := stateWalking

		for k := 0; k < s.params.StepsPerRound; k++ {
			if attempts >= maxAttempts {
				state = stateExhausted
				break
			}
			if !insideCircle(x, y, c, c, r) {
				state = stateEscaped
				break
			}
			if touching(g, x, y) {
				state = stateContact
				break
			}
			x, y = Step(snap.Walk.RNG, x, y, size)
			attempts++
		}
		if state == stateWalking && attempts >= maxAttempts {
			state = stateExhausted
		}

		s.intents[i] = walkIntent{State: state, X: x, Y: y, Attempts: attempts}
	}
}

// computeParallel dispatches work to the worker pool.
func (s *Swarm) computeParallel(n int) {
	if !s.running {
		s.startWorkers()
	}

	chunkSize := (n + s.numWorkers - 1) / s.numWorkers
	dispatched := 0
	for w := 0; w < s.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		s.workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-s.doneChan
	}
}

// applyIntents commits contacts, retires finished walkers and writes the
// rest back to their components.
func (s *Swarm) applyIntents() int {
	g := s.sim.grid
	c := g.Center()
	s.removals = s.removals[:0]
	s.finished = s.finished[:0]

	for i := range s.snapshots {
		snap := &s.snapshots[i]
		in := &s.intents[i]

		res := Result{
			X: in.X, Y: in.Y,
			Attempts:    in.Attempts,
			SpawnRadius: float64(snap.Walk.SpawnRadius),
		}

		switch in.State {
		case stateContact:
			res.Distance = Distance(in.X, in.Y, c, c)
			if g.TryCommit(in.X, in.Y, res.Distance) {
				res.Outcome = OutcomeAggregated
				s.finish(snap.Entity, res)
				cell := Cell{X: in.X, Y: in.Y, Distance: res.Distance}
				for _, o := range s.sim.observers {
					o.OnAggregate(cell, g)
				}
				continue
			}
			// Another walker took this cell earlier in the round.
			in.X, in.Y = Step(snap.Walk.RNG, in.X, in.Y, g.Size())
			in.Attempts++
		case stateEscaped:
			res.Outcome = OutcomeEscaped
			s.finish(snap.Entity, res)
			continue
		case stateExhausted:
			res.Outcome = OutcomeExhausted
			s.finish(snap.Entity, res)
			continue
		}

		pos := s.posMap.Get(snap.Entity)
		walk := s.walkMap.Get(snap.Entity)
		pos.X, pos.Y = int32(in.X), int32(in.Y)
		walk.Attempts = int32(in.Attempts)
	}

	for _, e := range s.removals {
		s.world.RemoveEntity(e)
	}
	s.active -= len(s.removals)
	return len(s.removals)
}

// finish records a terminal result. Spawned was already counted.
func (s *Swarm) finish(e ecs.Entity, r Result) {
	sum := &s.sim.summary
	sum.Steps += int64(r.Attempts)
	switch r.Outcome {
	case OutcomeAggregated:
		sum.Aggregated++
	case OutcomeEscaped:
		sum.Escaped++
	case OutcomeExhausted:
		sum.Exhausted++
	}
	s.removals = append(s.removals, e)
	s.finished = append(s.finished, r)
}

// startWorkers launches persistent worker goroutines.
func (s *Swarm) startWorkers() {
	if s.running {
		return
	}
	s.workChan = make(chan workChunk, s.numWorkers)
	s.doneChan = make(chan struct{}, s.numWorkers)
	s.stopChan = make(chan struct{})
	s.running = true

	for i := 0; i < s.numWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (s *Swarm) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopChan:
			return
		case chunk, ok := <-s.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end)
			s.doneChan <- struct{}{}
		}
	}
}

// Close stops the worker pool. Safe to call more than once.
func (s *Swarm) Close() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	close(s.workChan)
	close(s.doneChan)
	s.running = false
}
