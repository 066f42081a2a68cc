package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dla/systems"
	"github.com/pthm-cable/dla/ui"
)

const controlsHint = "[Space] Pause  [N] Step  [< >] Speed  [M] Swarm  [Tab] Panel  [F5] Snapshot  [F6] PNG  [Wheel] Zoom  [Home] Reset"

// Draw renders the current frame.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 12, B: 16, A: 255})

	g.cluster.ShowCircles = g.overlays.IsEnabled(ui.OverlayCircles)
	g.cluster.Draw(g.camera, systems.EstimateSpawnRadius(g.sim.Grid(), g.sim.Params().Margin))

	if g.swarm != nil && g.overlays.IsEnabled(ui.OverlayWalkers) {
		g.walkers = g.swarm.Walkers(g.walkers[:0])
		g.cluster.DrawWalkers(g.camera, g.walkers)
	}

	g.drawUI()

	rl.EndDrawing()
	g.perfCollector.RecordFrame()
}

// drawUI renders HUD, panels and overlays in screen space.
func (g *Game) drawUI() {
	w, h := int32(g.screenWidth), int32(g.screenHeight)
	grid := g.sim.Grid()
	sum := g.sim.Summary()

	elapsed := g.elapsed
	if !g.finished {
		elapsed = time.Since(g.started)
	}
	walkers := 0
	if g.swarm != nil {
		walkers = g.swarm.Active()
	}

	g.hud.Draw(ui.HUDData{
		Title:        "Diffusion-Limited Aggregation",
		Spawned:      sum.Spawned,
		Budget:       g.sim.Params().Particles,
		Aggregated:   sum.Aggregated,
		Escaped:      sum.Escaped,
		Exhausted:    sum.Exhausted,
		Cells:        grid.Count(),
		SpawnRadius:  systems.EstimateSpawnRadius(grid, g.sim.Params().Margin),
		MaxRadius:    float64(grid.FurthestDistance()),
		Walkers:      walkers,
		Speed:        g.speed,
		Elapsed:      elapsed,
		FPS:          rl.GetFPS(),
		Paused:       g.paused,
		Done:         g.Done(),
		ScreenWidth:  w,
		ScreenHeight: h,
	})

	if g.overlays.IsEnabled(ui.OverlayLegend) {
		g.legend.Draw()
	}
	panelY := int32(10)
	if g.overlays.IsEnabled(ui.OverlayStats) && g.hasStats {
		panelY = g.statsPanel.Draw(g.lastStats) + 8
	}
	if g.overlays.IsEnabled(ui.OverlayParams) {
		g.drawParams(w-270, panelY)
	}
	if g.overlays.IsEnabled(ui.OverlayPerf) {
		stats := g.perfCollector.Stats()
		g.perfPanel.Draw(ui.PerfPanelData{
			PhaseAvg:        stats.PhaseAvg,
			Total:           stats.AvgDuration,
			ParticlesPerSec: stats.ParticlesPerSecond,
		})
	}
	if g.overlays.IsEnabled(ui.OverlayCursor) {
		g.drawCellProbe()
	}

	state := ui.ControlsState{Paused: g.paused, Speed: g.speed, Swarm: g.swarm != nil}
	act := g.controls.Draw(&state, g.overlays)
	g.applyControls(state, act)

	g.hud.DrawControls(w, h, controlsHint)
}

// drawParams lists the run parameters and totals.
func (g *Game) drawParams(x, y int32) {
	sections := []ui.ParamsSection{
		{Title: "Parameters", Value: g.sim.Params()},
		{Title: "Totals", Value: g.sim.Summary()},
	}
	if g.swarm != nil {
		sections = append(sections, ui.ParamsSection{Title: "Swarm", Value: g.cfg.SwarmParams()})
	}
	g.paramsPanel.SetPosition(x, y)
	g.paramsPanel.Draw(sections...)
}

// drawCellProbe shows the lattice cell under the mouse.
func (g *Game) drawCellProbe() {
	m := rl.GetMousePosition()
	x, y, ok := g.camera.CellAt(m.X, m.Y)
	if !ok {
		return
	}
	d, aggregated := g.sim.Grid().At(x, y)
	ui.DrawCellProbe(int32(m.X), int32(m.Y), x, y, d, aggregated)
}
