package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of particles.
type WindowStats struct {
	WindowStart int     `csv:"-"`
	WindowEnd   int     `csv:"window_end"` // particles spawned so far
	ElapsedSec  float64 `csv:"elapsed_sec"`

	// Outcomes during window
	Aggregated int `csv:"aggregated"`
	Escaped    int `csv:"escaped"`
	Exhausted  int `csv:"exhausted"`

	// Rates
	StickRate  float64 `csv:"stick_rate"`
	EscapeRate float64 `csv:"escape_rate"`

	// Walk lengths over all particles in the window
	StepsMean float64 `csv:"steps_mean"`
	StepsP10  float64 `csv:"steps_p10"`
	StepsP50  float64 `csv:"steps_p50"`
	StepsP90  float64 `csv:"steps_p90"`

	// Spawn radius at window end
	SpawnRadius float64 `csv:"spawn_radius"`

	// Cluster shape at window end
	Cells            int     `csv:"cells"`
	MaxRadius        float64 `csv:"max_radius"`
	GyrationRadius   float64 `csv:"gyration_radius"`
	FractalDimension float64 `csv:"fractal_dimension"`
}

// Percentile calculates the p-th percentile of a sorted slice using
// linear interpolation between closest ranks.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStepStats calculates mean and percentiles of walk lengths.
func ComputeStepStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Float64("elapsed_sec", s.ElapsedSec),
		slog.Int("aggregated", s.Aggregated),
		slog.Int("escaped", s.Escaped),
		slog.Int("exhausted", s.Exhausted),
		slog.Float64("stick_rate", s.StickRate),
		slog.Float64("escape_rate", s.EscapeRate),
		slog.Float64("steps_mean", s.StepsMean),
		slog.Float64("steps_p10", s.StepsP10),
		slog.Float64("steps_p50", s.StepsP50),
		slog.Float64("steps_p90", s.StepsP90),
		slog.Float64("spawn_radius", s.SpawnRadius),
		slog.Int("cells", s.Cells),
		slog.Float64("max_radius", s.MaxRadius),
		slog.Float64("gyration_radius", s.GyrationRadius),
		slog.Float64("fractal_dimension", s.FractalDimension),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
