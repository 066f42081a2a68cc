package ui

import (
	"fmt"
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Spawned      int
	Budget       int
	Aggregated   int
	Escaped      int
	Exhausted    int
	Cells        int
	SpawnRadius  float64
	MaxRadius    float64
	Walkers      int // in-flight swarm walkers; 0 in sequential mode
	Speed        int // particles (or rounds) per frame
	Elapsed      time.Duration
	FPS          int32
	Paused       bool
	Done         bool
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer

	// Title
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	progress := float32(0)
	if data.Budget > 0 {
		progress = float32(data.Spawned) / float32(data.Budget)
	}
	y := r.DrawBar(10, 36, "Particles", progress, 320)

	rl.DrawText(
		fmt.Sprintf("%d / %d | Cells: %d | Stuck: %d | Escaped: %d | Exhausted: %d",
			data.Spawned, data.Budget, data.Cells, data.Aggregated, data.Escaped, data.Exhausted),
		10, y, 14, rl.LightGray,
	)
	y += 18

	mode := "sequential"
	if data.Walkers > 0 {
		mode = fmt.Sprintf("swarm (%d walkers)", data.Walkers)
	}
	rl.DrawText(
		fmt.Sprintf("Spawn R: %.1f | Max R: %.1f | Speed: %dx | %s | FPS: %d | %s",
			data.SpawnRadius, data.MaxRadius, data.Speed, mode, data.FPS, data.Elapsed.Round(time.Second)),
		10, y, 14, rl.LightGray,
	)
	y += 18

	// Status
	statusText, statusColor := "Running", rl.Green
	switch {
	case data.Done:
		statusText, statusColor = "Simulation complete", rl.SkyBlue
	case data.Paused:
		statusText, statusColor = "PAUSED", rl.Yellow
	}
	rl.DrawText(statusText, 10, y, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseAvg        map[string]time.Duration
	Total           time.Duration
	ParticlesPerSec float64
}

// PerfPanel renders the phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel, slowest phase first.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	rl.DrawText("Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s | %.0f particles/s", data.Total.Round(time.Microsecond), data.ParticlesPerSec), x, y, 14, rl.Yellow)
	y += 16

	names := make([]string, 0, len(data.PhaseAvg))
	for name := range data.PhaseAvg {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return data.PhaseAvg[names[i]] > data.PhaseAvg[names[j]]
	})

	for _, name := range names {
		avg := data.PhaseAvg[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// DrawCellProbe shows the cell under the cursor next to the mouse.
func DrawCellProbe(mx, my int32, x, y int, distance float32, aggregated bool) {
	text := fmt.Sprintf("(%d, %d) empty", x, y)
	if aggregated {
		text = fmt.Sprintf("(%d, %d) d=%.2f", x, y, distance)
	}
	w := rl.MeasureText(text, 12)
	rl.DrawRectangle(mx+12, my+12, w+8, 18, rl.Color{R: 20, G: 25, B: 30, A: 220})
	rl.DrawText(text, mx+16, my+15, 12, rl.White)
}
