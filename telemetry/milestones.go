package telemetry

import (
	"fmt"
	"log/slog"
	"sort"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneClusterReach   MilestoneType = "cluster_reach"
	MilestoneSpawnSaturated MilestoneType = "spawn_saturated"
	MilestoneEscapeSpike    MilestoneType = "escape_spike"
)

// Milestone is a notable moment in a run, detected at window boundaries.
type Milestone struct {
	Type        MilestoneType `csv:"type"`
	Particle    int           `csv:"particle"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"particle", m.Particle,
		"description", m.Description,
	)
}

// MilestoneThresholds configures the detector.
type MilestoneThresholds struct {
	Radius           int       // containment radius
	MaxSpawnRadius   float64   // spawn radius ceiling
	ClusterFractions []float64 // fractions of Radius that trigger cluster_reach
	EscapeSpikeRatio float64   // window escape rate vs history mean
	EscapeSpikeMin   int       // minimum escapes in the window
}

// MilestoneDetector watches window stats for milestones.
type MilestoneDetector struct {
	thresholds MilestoneThresholds
	fractions  []float64
	nextFrac   int
	saturated  bool

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool
}

// NewMilestoneDetector creates a detector with the given history size.
func NewMilestoneDetector(historySize int, th MilestoneThresholds) *MilestoneDetector {
	if historySize < 3 {
		historySize = 3
	}
	fractions := make([]float64, len(th.ClusterFractions))
	copy(fractions, th.ClusterFractions)
	sort.Float64s(fractions)

	return &MilestoneDetector{
		thresholds:  th,
		fractions:   fractions,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats WindowStats) []Milestone {
	var milestones []Milestone

	milestones = append(milestones, md.checkClusterReach(stats)...)

	if m := md.checkSpawnSaturated(stats); m != nil {
		milestones = append(milestones, *m)
	}
	if m := md.checkEscapeSpike(stats); m != nil {
		milestones = append(milestones, *m)
	}

	md.addToHistory(stats)
	return milestones
}

func (md *MilestoneDetector) addToHistory(stats WindowStats) {
	md.history[md.historyIdx] = stats
	md.historyIdx = (md.historyIdx + 1) % md.historySize
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) getHistory() []WindowStats {
	if md.historyFull {
		return md.history
	}
	return md.history[:md.historyIdx]
}

// checkClusterReach fires once per configured fraction, in ascending order.
func (md *MilestoneDetector) checkClusterReach(stats WindowStats) []Milestone {
	var out []Milestone
	r := float64(md.thresholds.Radius)
	for md.nextFrac < len(md.fractions) {
		f := md.fractions[md.nextFrac]
		if stats.MaxRadius < f*r {
			break
		}
		md.nextFrac++
		out = append(out, Milestone{
			Type:        MilestoneClusterReach,
			Particle:    stats.WindowEnd,
			Description: fmt.Sprintf("Cluster reached %.0f%% of radius (%.1f of %d)", f*100, stats.MaxRadius, md.thresholds.Radius),
		})
	}
	return out
}

func (md *MilestoneDetector) checkSpawnSaturated(stats WindowStats) *Milestone {
	if md.saturated || md.thresholds.MaxSpawnRadius <= 0 {
		return nil
	}
	if stats.SpawnRadius < md.thresholds.MaxSpawnRadius {
		return nil
	}
	md.saturated = true
	return &Milestone{
		Type:        MilestoneSpawnSaturated,
		Particle:    stats.WindowEnd,
		Description: fmt.Sprintf("Spawn radius pinned at %.0f", md.thresholds.MaxSpawnRadius),
	}
}

func (md *MilestoneDetector) checkEscapeSpike(stats WindowStats) *Milestone {
	history := md.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.EscapeRate
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.EscapeRate > avg*md.thresholds.EscapeSpikeRatio && stats.Escaped >= md.thresholds.EscapeSpikeMin {
		return &Milestone{
			Type:        MilestoneEscapeSpike,
			Particle:    stats.WindowEnd,
			Description: fmt.Sprintf("Escape rate %.2f is %.1fx average (%.2f)", stats.EscapeRate, stats.EscapeRate/avg, avg),
		}
	}
	return nil
}
