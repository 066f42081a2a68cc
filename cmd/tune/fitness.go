package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/dla/config"
	"github.com/pthm-cable/dla/game"
	"github.com/pthm-cable/dla/systems"
	"github.com/pthm-cable/dla/telemetry"
)

// Fitness weights. Lower fitness is better.
const (
	targetDimension = 1.71 // mass-radius dimension of 2D DLA

	weightShape   = 2.0
	weightEscape  = 1.0
	weightExhaust = 2.0

	shapeWarmupWindows = 2  // skip early windows while the cluster is tiny
	shapeMinCells      = 50 // ignore windows with fewer cells than this
	shapeSigma         = 0.15
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64 // shape score from most recent Evaluate call
	lastCost    float64 // steps per aggregated particle from most recent call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the shape score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastCost returns the mean walk steps per aggregated particle from the
// most recent evaluation.
func (fe *FitnessEvaluator) LastCost() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastCost
}

// runResult holds the results from a single simulation run.
type runResult struct {
	summary     systems.Summary
	windowStats []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better),
// averaged over all seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality, totalCost float64
	for _, r := range results {
		totalFitness += computeFitness(r)
		totalQuality += computeShapeScore(r.windowStats)
		totalCost += stepsPerAggregate(r.summary)
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastCost = totalCost / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless run to the end of its budget.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 1000,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		// Invalid candidates score as if nothing stuck.
		result.summary = systems.Summary{Spawned: cfg.Simulation.Particles, Exhausted: cfg.Simulation.Particles}
		return result
	}
	defer g.Unload()

	for !g.Done() {
		g.UpdateHeadless()
	}
	result.summary = g.Summary()
	return result
}

// copyConfig creates a copy of the base config. The only reference field
// is the cluster fractions slice, which is never written.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: log10(1 + steps per aggregate) + shape, escape and exhaustion
// penalties. Cost dominates; a poor shape or wasted particles push it up.
func computeFitness(r *runResult) float64 {
	sum := r.summary
	if sum.Spawned == 0 {
		return math.Inf(1)
	}
	cost := math.Log10(1 + stepsPerAggregate(sum))
	shape := computeShapeScore(r.windowStats)
	escapeFrac := float64(sum.Escaped) / float64(sum.Spawned)
	exhaustFrac := float64(sum.Exhausted) / float64(sum.Spawned)
	return cost + weightShape*(1-shape) + weightEscape*escapeFrac + weightExhaust*exhaustFrac
}

// stepsPerAggregate is the mean walk length paid per stuck particle.
func stepsPerAggregate(sum systems.Summary) float64 {
	return float64(sum.Steps) / float64(max(1, sum.Aggregated))
}

// computeShapeScore rates how close the cluster's fractal dimension stays
// to the DLA value, in [0, 1].
func computeShapeScore(windows []telemetry.WindowStats) float64 {
	if len(windows) <= shapeWarmupWindows {
		return 0
	}
	var sum float64
	var n int
	for _, w := range windows[shapeWarmupWindows:] {
		if w.Cells < shapeMinCells || w.FractalDimension == 0 {
			continue
		}
		d := (w.FractalDimension - targetDimension) / shapeSigma
		sum += math.Exp(-d * d)
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n))
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
