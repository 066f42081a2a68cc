package colormap

import "image/color"

// Raster is a row-major RGBA image of a square lattice, one pixel per
// cell. Empty cells are drawn in Empty.
type Raster struct {
	Size  int
	Pix   []color.RGBA
	Scale Scale
	dirty bool
}

// NewRaster creates a raster of size x size empty pixels colored on a
// [0, size/2] distance scale.
func NewRaster(size int) *Raster {
	r := &Raster{
		Size:  size,
		Pix:   make([]color.RGBA, size*size),
		Scale: Scale{Min: 0, Max: float64(size / 2)},
	}
	r.Clear()
	return r
}

// Clear resets every pixel to Empty.
func (r *Raster) Clear() {
	for i := range r.Pix {
		r.Pix[i] = Empty
	}
	r.dirty = true
}

// Set colors the pixel at (x, y) for distance d. Out-of-range cells are
// ignored.
func (r *Raster) Set(x, y int, d float32) {
	if x < 0 || y < 0 || x >= r.Size || y >= r.Size {
		return
	}
	r.Pix[y*r.Size+x] = r.Scale.Color(float64(d))
	r.dirty = true
}

// Load replaces the raster with a row-major cell slice (NaN = empty).
func (r *Raster) Load(cells []float32) {
	n := len(cells)
	if n > len(r.Pix) {
		n = len(r.Pix)
	}
	for i := 0; i < n; i++ {
		r.Pix[i] = r.Scale.Color(float64(cells[i]))
	}
	r.dirty = true
}

// TakeDirty reports whether the raster changed since the last call and
// clears the flag.
func (r *Raster) TakeDirty() bool {
	d := r.dirty
	r.dirty = false
	return d
}
