// Package renderer draws the aggregate and its overlays with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dla/camera"
	"github.com/pthm-cable/dla/colormap"
	"github.com/pthm-cable/dla/systems"
)

// ClusterRenderer keeps a GPU texture of the lattice, one texel per cell,
// updated as cells aggregate.
type ClusterRenderer struct {
	raster      *colormap.Raster
	tex         rl.Texture2D
	initialized bool

	// ShowCircles draws the containment and spawn circles.
	ShowCircles bool
}

// NewClusterRenderer creates a renderer for a size x size lattice.
func NewClusterRenderer(size int) *ClusterRenderer {
	return &ClusterRenderer{
		raster:      colormap.NewRaster(size),
		ShowCircles: true,
	}
}

// Init creates the texture (must be called after raylib window is created).
func (r *ClusterRenderer) Init() {
	if r.initialized {
		return
	}
	n := r.raster.Size
	img := rl.GenImageColor(n, n, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)
	r.initialized = true
}

// OnAggregate colors a newly committed cell. It implements systems.Observer.
func (r *ClusterRenderer) OnAggregate(cell systems.Cell, _ systems.GridView) {
	r.raster.Set(cell.X, cell.Y, cell.Distance)
}

// Sync rebuilds the texture from a grid, e.g. after a restore.
func (r *ClusterRenderer) Sync(g systems.GridView) {
	n := g.Size()
	r.raster.Clear()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if d, ok := g.At(x, y); ok {
				r.raster.Set(x, y, d)
			}
		}
	}
}

// Draw uploads pending changes and renders the lattice through the camera.
func (r *ClusterRenderer) Draw(cam *camera.Camera, spawnRadius float64) {
	if !r.initialized {
		r.Init()
	}
	if r.raster.TakeDirty() {
		rl.UpdateTexture(r.tex, r.raster.Pix)
	}

	n := float32(r.raster.Size)
	x0, y0 := cam.WorldToScreen(0, 0)
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: n, Height: n}
	dstRect := rl.Rectangle{X: x0, Y: y0, Width: n * cam.Zoom, Height: n * cam.Zoom}
	rl.DrawTexturePro(r.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)

	if !r.ShowCircles {
		return
	}
	// Cell centers sit at +0.5 in world units.
	c := float32(r.raster.Size/2) + 0.5
	cx, cy := cam.WorldToScreen(c, c)
	radius := float32(r.raster.Size / 2)
	rl.DrawCircleLines(int32(cx), int32(cy), radius*cam.Zoom, rl.Fade(rl.RayWhite, 0.35))
	if spawnRadius > 0 {
		rl.DrawCircleLines(int32(cx), int32(cy), float32(spawnRadius)*cam.Zoom, rl.Fade(rl.SkyBlue, 0.5))
	}
}

// DrawWalkers marks in-flight swarm walkers.
func (r *ClusterRenderer) DrawWalkers(cam *camera.Camera, walkers []systems.WalkerPos) {
	size := cam.Zoom
	if size < 1 {
		size = 1
	}
	for _, w := range walkers {
		sx, sy := cam.WorldToScreen(float32(w.X), float32(w.Y))
		rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: size, Y: size}, rl.Fade(rl.White, 0.6))
	}
}

// Unload frees GPU resources.
func (r *ClusterRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
