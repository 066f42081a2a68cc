package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is the state the controls panel edits.
type ControlsState struct {
	Paused bool
	Speed  int // particles (or swarm rounds) per frame
	Swarm  bool
}

// ControlsActions reports one-shot button presses for the frame.
type ControlsActions struct {
	Step         bool
	SaveSnapshot bool
	SavePNG      bool
	ResetCamera  bool
	ToggleSwarm  bool
}

// ControlsPanel renders the left-side controls panel with raygui widgets
// and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	maxSpeed int
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32, maxSpeed int) *ControlsPanel {
	if maxSpeed < 1 {
		maxSpeed = 1
	}
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
		maxSpeed: maxSpeed,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel, applying slider edits to state.
func (c *ControlsPanel) Draw(state *ControlsState, overlays *OverlayRegistry) ControlsActions {
	var act ControlsActions
	if !c.visible {
		return act
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	totalItems := 0
	categories := overlays.Categories()
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1
	}
	panelHeight := int32(totalItems)*lineHeight + 210
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding
	w := float32(c.width - padding*2)

	rl.DrawText("Controls", c.x+padding, y, 16, rl.White)
	y += lineHeight + 6

	// Run controls
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w/2 - 4, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 4, Y: float32(y), Width: w/2 - 4, Height: 24}, "Step") {
		act.Step = true
	}
	y += 30

	rl.DrawText(fmt.Sprintf("Speed: %dx", state.Speed), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	newSpeed := gui.SliderBar(
		rl.Rectangle{X: x + 10, Y: float32(y), Width: w - 40, Height: 16},
		"1", fmt.Sprintf("%d", c.maxSpeed),
		float32(state.Speed), 1, float32(c.maxSpeed),
	)
	if s := int(newSpeed + 0.5); s != state.Speed {
		state.Speed = max(1, s)
	}
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w, Height: 24}, toggleText(state.Swarm, "Sequential mode", "Swarm mode")) {
		act.ToggleSwarm = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w/2 - 4, Height: 24}, "Snapshot") {
		act.SaveSnapshot = true
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 4, Y: float32(y), Width: w/2 - 4, Height: 24}, "Save PNG") {
		act.SavePNG = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w, Height: 24}, "Reset view") {
		act.ResetCamera = true
	}
	y += 34

	// Overlay toggles by category
	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
	}

	return act
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
