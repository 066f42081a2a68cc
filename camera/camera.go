// Package camera provides a 2D camera over the aggregation lattice.
package camera

import "math"

// Camera controls the viewport onto a bounded square lattice.
// World units are lattice cells; Zoom is screen pixels per cell.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level in pixels per cell
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Lattice side in cells
	WorldSize float32

	// Zoom constraints; FitZoom shows the whole lattice
	FitZoom, MinZoom, MaxZoom float32
}

// New creates a camera centered on the lattice, zoomed to fit it.
func New(viewportW, viewportH float32, gridSize int) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldSize: float32(gridSize),
	}
	c.updateLimits()
	c.Reset()
	return c
}

func (c *Camera) updateLimits() {
	fit := c.ViewportW / c.WorldSize
	if h := c.ViewportH / c.WorldSize; h < fit {
		fit = h
	}
	c.FitZoom = fit
	c.MinZoom = fit / 2
	c.MaxZoom = fit * 16
	if c.MaxZoom < 32 {
		c.MaxZoom = 32
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// CellAt returns the lattice cell under a screen point and whether it
// lies on the lattice.
func (c *Camera) CellAt(sx, sy float32) (x, y int, ok bool) {
	wx, wy := c.ScreenToWorld(sx, sy)
	x = int(math.Floor(float64(wx)))
	y = int(math.Floor(float64(wy)))
	n := int(c.WorldSize)
	return x, y, x >= 0 && y >= 0 && x < n && y < n
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	wasFit := c.Zoom == c.FitZoom
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateLimits()
	if wasFit {
		c.Zoom = c.FitZoom
	}
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays on the lattice.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, c.WorldSize)
	c.Y = clamp(c.Y+dy/c.Zoom, 0, c.WorldSize)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the world point under (sx, sy)
// fixed on screen.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, 0, c.WorldSize)
	c.Y = clamp(c.Y+wy-ny, 0, c.WorldSize)
}

// Reset centers the lattice and zooms to fit.
func (c *Camera) Reset() {
	c.X = c.WorldSize / 2
	c.Y = c.WorldSize / 2
	c.Zoom = c.FitZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// Returns (minX, minY, maxX, maxY) in world coordinates.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
