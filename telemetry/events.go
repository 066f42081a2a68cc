// Package telemetry provides run statistics, milestones, snapshots and
// file output for aggregation runs.
package telemetry

import "github.com/pthm-cable/dla/systems"

// Event records how one particle ended.
type Event struct {
	Particle    int             `csv:"particle"`
	Outcome     systems.Outcome `csv:"-"`
	OutcomeName string          `csv:"outcome"`
	X           int             `csv:"x"`
	Y           int             `csv:"y"`
	Attempts    int             `csv:"attempts"`
	SpawnRadius float64         `csv:"spawn_radius"`
	Distance    float32         `csv:"distance"`
}

// NewEvent builds the event for the given particle index and result.
func NewEvent(particle int, r systems.Result) Event {
	return Event{
		Particle:    particle,
		Outcome:     r.Outcome,
		OutcomeName: r.Outcome.String(),
		X:           r.X,
		Y:           r.Y,
		Attempts:    r.Attempts,
		SpawnRadius: r.SpawnRadius,
		Distance:    r.Distance,
	}
}

// Aggregated reports whether the particle joined the cluster.
func (e Event) Aggregated() bool {
	return e.Outcome == systems.OutcomeAggregated
}
