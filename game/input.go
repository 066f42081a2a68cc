package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dla/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}

	// Single particle while paused
	if rl.IsKeyPressed(rl.KeyN) && g.paused && !g.Done() {
		g.step()
	}

	// Speed control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.speed = max(1, g.speed/2)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.speed = min(maxSpeed, g.speed*2)
	}

	if rl.IsKeyPressed(rl.KeyM) {
		g.toggleSwarm()
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		g.saveSnapshot(nil)
	}
	if rl.IsKeyPressed(rl.KeyF6) {
		g.savePNG(g.pngPathOrDefault())
	}

	g.handleOverlayKeys()
	g.handleCameraInput()
}

// handleOverlayKeys toggles overlays bound to pressed keys.
func (g *Game) handleOverlayKeys() {
	for _, key := range g.overlays.Keys() {
		if rl.IsKeyPressed(key) {
			g.overlays.HandleKeyPress(key)
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.layoutPanels()
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / g.camera.Zoom

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Right-drag pans
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X/g.camera.Zoom, -d.Y/g.camera.Zoom)
	}

	// Mouse wheel zooms toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		g.camera.ZoomAt(m.X, m.Y, 1+wheel*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// applyControls applies the controls panel edits and button presses.
func (g *Game) applyControls(state ui.ControlsState, act ui.ControlsActions) {
	g.paused = state.Paused
	g.speed = state.Speed

	if act.Step && !g.Done() {
		g.step()
	}
	if act.ToggleSwarm {
		g.toggleSwarm()
	}
	if act.SaveSnapshot {
		g.saveSnapshot(nil)
	}
	if act.SavePNG {
		g.savePNG(g.pngPathOrDefault())
	}
	if act.ResetCamera {
		g.camera.Reset()
	}
}

func (g *Game) pngPathOrDefault() string {
	if g.pngPath != "" {
		return g.pngPath
	}
	return "dla.png"
}
