package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one particle (or one swarm round).
const (
	PhaseSpawn     = "spawn"
	PhaseWalk      = "walk"
	PhaseCommit    = "commit"
	PhaseSwarm     = "swarm"
	PhaseTelemetry = "telemetry"
)

// PerfSample holds timing data for a single particle.
type PerfSample struct {
	Duration time.Duration
	Phases   map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	sampleStart   time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of particles to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// Start begins timing a new particle.
func (p *PerfCollector) Start() {
	p.sampleStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// End finishes timing the current particle and records the sample.
func (p *PerfCollector) End() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		Duration: now.Sub(p.sampleStart),
		Phases:   p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total sample time
	PhasePct map[string]float64

	ParticlesPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minDur, maxDur time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Duration

		if i == 0 || s.Duration < minDur {
			minDur = s.Duration
		}
		if s.Duration > maxDur {
			maxDur = s.Duration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgDuration:        avg,
		MinDuration:        minDur,
		MaxDuration:        maxDur,
		PhaseAvg:           phaseAvg,
		PhasePct:           phasePct,
		ParticlesPerSecond: perSec,
		FrameDuration:      p.frameDuration,
		FPS:                fps,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_us", s.AvgDuration.Microseconds()),
		slog.Int64("min_us", s.MinDuration.Microseconds()),
		slog.Int64("max_us", s.MaxDuration.Microseconds()),
		slog.Float64("particles_per_sec", s.ParticlesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range []string{PhaseSpawn, PhaseWalk, PhaseCommit, PhaseSwarm, PhaseTelemetry} {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int     `csv:"window_end"`
	AvgUS           int64   `csv:"avg_us"`
	MinUS           int64   `csv:"min_us"`
	MaxUS           int64   `csv:"max_us"`
	ParticlesPerSec float64 `csv:"particles_per_sec"`
	FPS             float64 `csv:"fps"`
	SpawnPct        float64 `csv:"spawn_pct"`
	WalkPct         float64 `csv:"walk_pct"`
	CommitPct       float64 `csv:"commit_pct"`
	SwarmPct        float64 `csv:"swarm_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgUS:           s.AvgDuration.Microseconds(),
		MinUS:           s.MinDuration.Microseconds(),
		MaxUS:           s.MaxDuration.Microseconds(),
		ParticlesPerSec: s.ParticlesPerSecond,
		FPS:             s.FPS,
		SpawnPct:        s.PhasePct[PhaseSpawn],
		WalkPct:         s.PhasePct[PhaseWalk],
		CommitPct:       s.PhasePct[PhaseCommit],
		SwarmPct:        s.PhasePct[PhaseSwarm],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
