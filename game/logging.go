package game

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logPerfStats prints a phase timing table for the current perf window.
func (g *Game) logPerfStats() {
	stats := g.perfCollector.Stats()
	total := stats.AvgDuration
	Logf("=== Perf @ particle %d (speed %dx) | %.0f particles/s ===",
		g.sim.Summary().Spawned, g.speed, stats.ParticlesPerSecond)
	Logf("Avg particle time: %s (min %s, max %s)",
		total.Round(time.Microsecond),
		stats.MinDuration.Round(time.Microsecond),
		stats.MaxDuration.Round(time.Microsecond))

	names := make([]string, 0, len(stats.PhaseAvg))
	for name := range stats.PhaseAvg {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return stats.PhaseAvg[names[i]] > stats.PhaseAvg[names[j]]
	})
	for _, name := range names {
		Logf("  %-10s %10s  %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), stats.PhasePct[name])
	}
}
