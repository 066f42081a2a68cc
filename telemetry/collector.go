package telemetry

import (
	"time"

	"github.com/pthm-cable/dla/systems"
)

// Collector accumulates particle outcomes within windows and produces
// WindowStats.
type Collector struct {
	windowParticles  int
	fractalMinRadius float64
	start            time.Time

	// Current window tracking
	windowStart int
	particles   int

	// Event counters for current window
	aggregated int
	escaped    int
	exhausted  int
	steps      []float64
	lastRadius float64
}

// NewCollector creates a new stats collector.
// windowParticles: how many particles each stats window spans
// fractalMinRadius: smallest radius used for the mass-radius fit
func NewCollector(windowParticles int, fractalMinRadius float64) *Collector {
	if windowParticles < 1 {
		windowParticles = 1
	}
	return &Collector{
		windowParticles:  windowParticles,
		fractalMinRadius: fractalMinRadius,
		start:            time.Now(),
		steps:            make([]float64, 0, windowParticles),
	}
}

// Resume continues counting from an already-spawned particle total.
func (c *Collector) Resume(spawned int) {
	c.windowStart = spawned
	c.particles = spawned
}

// Record counts one particle's outcome.
func (c *Collector) Record(e Event) {
	c.particles++
	c.steps = append(c.steps, float64(e.Attempts))
	c.lastRadius = e.SpawnRadius

	switch e.Outcome {
	case systems.OutcomeAggregated:
		c.aggregated++
	case systems.OutcomeEscaped:
		c.escaped++
	case systems.OutcomeExhausted:
		c.exhausted++
	}
}

// Particles returns the total number of particles recorded.
func (c *Collector) Particles() int {
	return c.particles
}

// ShouldFlush returns true if the current window is full.
func (c *Collector) ShouldFlush() bool {
	return c.particles-c.windowStart >= c.windowParticles
}

// Pending reports whether any particles were recorded since the last flush.
func (c *Collector) Pending() bool {
	return c.particles > c.windowStart
}

// Flush produces a WindowStats for the current window, measures the
// cluster, and resets counters for the next window.
func (c *Collector) Flush(g systems.GridView) WindowStats {
	n := c.particles - c.windowStart

	var stickRate, escapeRate float64
	if n > 0 {
		stickRate = float64(c.aggregated) / float64(n)
		escapeRate = float64(c.escaped) / float64(n)
	}

	mean, p10, p50, p90 := ComputeStepStats(c.steps)
	cluster := MeasureCluster(g, c.fractalMinRadius)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   c.particles,
		ElapsedSec:  time.Since(c.start).Seconds(),

		Aggregated: c.aggregated,
		Escaped:    c.escaped,
		Exhausted:  c.exhausted,

		StickRate:  stickRate,
		EscapeRate: escapeRate,

		StepsMean: mean,
		StepsP10:  p10,
		StepsP50:  p50,
		StepsP90:  p90,

		SpawnRadius: c.lastRadius,

		Cells:            cluster.Cells,
		MaxRadius:        cluster.MaxRadius,
		GyrationRadius:   cluster.GyrationRadius,
		FractalDimension: cluster.FractalDimension,
	}

	// Reset for next window
	c.windowStart = c.particles
	c.aggregated = 0
	c.escaped = 0
	c.exhausted = 0
	c.steps = c.steps[:0]

	return stats
}

// WindowParticles returns the number of particles per window.
func (c *Collector) WindowParticles() int {
	return c.windowParticles
}
