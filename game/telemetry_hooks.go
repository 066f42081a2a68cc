package game

import (
	"log/slog"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/dla/telemetry"
)

// flushTelemetry closes the current stats window and handles milestones.
func (g *Game) flushTelemetry() {
	stats := g.collector.Flush(g.sim.Grid())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats
	g.hasStats = true

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if g.perfLog {
		g.logPerfStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteEvents(g.events); err != nil {
			slog.Error("failed to write events", "error", err)
		}
		g.events = g.events[:0]
	}

	for _, m := range g.milestones.Check(stats) {
		if g.logStats {
			m.LogMilestone()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteMilestone(m); err != nil {
				slog.Error("failed to write milestone", "error", err)
			}
		}

		// Save snapshot on milestone
		if g.snapshotDir != "" {
			g.saveSnapshot(&m)
		}
	}
}

// saveSnapshot writes the current state to the snapshot directory.
func (g *Game) saveSnapshot(m *telemetry.Milestone) {
	dir := g.snapshotDir
	if dir == "" {
		dir = "snapshots"
	}
	path, err := telemetry.SaveSnapshot(g.createSnapshot(m), dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "particle", g.sim.Summary().Spawned)
}

// createSnapshot builds a snapshot from the current state. Swarm walkers
// still in flight are not stored; their spawns are handed back to the
// budget so a restored run releases them again.
func (g *Game) createSnapshot(m *telemetry.Milestone) *telemetry.Snapshot {
	snap := telemetry.NewSnapshot(g.sim, g.seed, m)
	sum := &snap.Summary
	sum.Spawned = sum.Aggregated + sum.Escaped + sum.Exhausted
	return snap
}

// savePNG renders the heat map to path.
func (g *Game) savePNG(path string) {
	opts := telemetry.HeatmapOptions{
		Width:  vg.Length(g.cfg.Output.PNGWidthCM) * vg.Centimeter,
		Height: vg.Length(g.cfg.Output.PNGHeightCM) * vg.Centimeter,
	}
	if err := telemetry.SaveHeatmap(g.sim.Grid(), path, opts); err != nil {
		slog.Error("failed to save heatmap", "error", err)
		return
	}
	slog.Info("heatmap saved", "path", path)
}

// finishRun writes the end-of-run outputs.
func (g *Game) finishRun() {
	if g.collector.Pending() {
		g.flushTelemetry()
	}

	sum := g.sim.Summary()
	slog.Info("Simulation complete",
		"time_taken", g.elapsed.Round(time.Millisecond).String(),
		"summary", sum,
		"cells", g.sim.Grid().Count(),
		"max_radius", g.sim.Grid().FurthestDistance(),
	)

	if err := g.outputManager.WriteCells(g.sim.Grid()); err != nil {
		slog.Error("failed to write cells", "error", err)
	}

	if g.pngPath != "" {
		g.savePNG(g.pngPath)
	}

	if g.run != nil {
		if err := g.run.Finish(sum); err != nil {
			slog.Error("failed to finish run", "error", err)
		} else {
			slog.Info("run stored", "run_id", g.run.ID())
		}
	}
}

// SaveSnapshot writes the current state without a milestone.
func (g *Game) SaveSnapshot() {
	g.saveSnapshot(nil)
}
