// Package systems provides the aggregation engine: lattice state, contact
// detection, spawn placement, random walks and the particle driver.
package systems

import (
	"fmt"
	"math"
)

// empty marks an unoccupied cell.
var empty = float32(math.NaN())

// GridView is read-only access to the lattice. Observers, the contact
// detector and the spawn estimator only ever see this.
type GridView interface {
	Size() int
	Center() int
	Radius() int
	IsAggregated(x, y int) bool
	At(x, y int) (float32, bool)
	FurthestDistance() float32
	Count() int
}

// Grid is a square lattice where each cell is either empty or holds the
// Euclidean distance of an aggregated cell from the centre.
// Cells are stored row-major (y*size + x).
type Grid struct {
	size   int
	center int
	radius int // containment radius

	cells []float32

	count    int
	furthest float32
}

// NewGrid allocates a size x size lattice with the seed at the centre.
func NewGrid(size int) *Grid {
	if size < 1 {
		panic(fmt.Sprintf("systems: invalid grid size %d", size))
	}
	g := &Grid{
		size:   size,
		center: size / 2,
		radius: size / 2,
		cells:  make([]float32, size*size),
	}
	for i := range g.cells {
		g.cells[i] = empty
	}
	g.cells[g.index(g.center, g.center)] = 0
	g.count = 1
	return g
}

func (g *Grid) index(x, y int) int {
	return y*g.size + x
}

// Size returns the side length of the lattice.
func (g *Grid) Size() int { return g.size }

// Center returns the coordinate of the seed along either axis.
func (g *Grid) Center() int { return g.center }

// Radius returns the containment radius (size / 2).
func (g *Grid) Radius() int { return g.radius }

// Count returns the number of aggregated cells, seed included.
func (g *Grid) Count() int { return g.count }

// InBounds reports whether (x, y) is a valid lattice coordinate.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

// IsAggregated reports whether the cell holds a distance.
func (g *Grid) IsAggregated(x, y int) bool {
	v := g.cells[g.index(x, y)]
	return v == v
}

// At returns the stored distance and whether the cell is aggregated.
func (g *Grid) At(x, y int) (float32, bool) {
	v := g.cells[g.index(x, y)]
	if v != v {
		return 0, false
	}
	return v, true
}

// FurthestDistance returns the largest distance among aggregated cells.
// With only the seed present this is 0.
func (g *Grid) FurthestDistance() float32 {
	return g.furthest
}

// Commit marks an empty cell as aggregated. Committing an occupied cell,
// or one outside the containment circle, panics.
func (g *Grid) Commit(x, y int, distance float32) {
	if !g.TryCommit(x, y, distance) {
		panic(fmt.Sprintf("systems: commit to aggregated cell (%d, %d)", x, y))
	}
}

// TryCommit commits (x, y) if it is still empty and reports whether it did.
// Exactly one caller wins any given cell. Out-of-bounds or out-of-circle
// coordinates still panic.
func (g *Grid) TryCommit(x, y int, distance float32) bool {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("systems: commit out of bounds (%d, %d) on %dx%d grid", x, y, g.size, g.size))
	}
	if !insideCircle(x, y, g.center, g.center, g.radius) {
		panic(fmt.Sprintf("systems: commit outside containment radius %d at (%d, %d)", g.radius, x, y))
	}
	if !(distance > 0) {
		panic(fmt.Sprintf("systems: non-positive distance %v at (%d, %d)", distance, x, y))
	}

	i := g.index(x, y)
	if v := g.cells[i]; v == v {
		return false
	}
	g.cells[i] = distance
	g.count++
	if distance > g.furthest {
		g.furthest = distance
	}
	return true
}

// Cells returns a copy of the backing store (row-major, NaN = empty).
func (g *Grid) Cells() []float32 {
	out := make([]float32, len(g.cells))
	copy(out, g.cells)
	return out
}

// ForEachAggregated calls fn for every aggregated cell in row-major order.
func (g *Grid) ForEachAggregated(fn func(x, y int, distance float32)) {
	for i, v := range g.cells {
		if v != v {
			continue
		}
		fn(i%g.size, i/g.size, v)
	}
}

// Clone returns an independent deep copy.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = g.Cells()
	return &c
}

// GridFromCells rebuilds a grid from a row-major cell slice such as one
// produced by Cells. The seed must be present and every other aggregated
// cell must hold its distance from the centre.
func GridFromCells(size int, cells []float32) (*Grid, error) {
	if size < 1 || len(cells) != size*size {
		return nil, fmt.Errorf("cell count %d does not match size %d", len(cells), size)
	}
	g := NewGrid(size)
	for i, v := range cells {
		x, y := i%size, i/size
		if x == g.center && y == g.center {
			if v != 0 {
				return nil, fmt.Errorf("seed cell holds %v, want 0", v)
			}
			continue
		}
		if v != v {
			continue
		}
		want := Distance(x, y, g.center, g.center)
		if math.Abs(float64(v-want)) > 1e-3 {
			return nil, fmt.Errorf("cell (%d, %d) holds %v, want %v", x, y, v, want)
		}
		if !insideCircle(x, y, g.center, g.center, g.radius) {
			return nil, fmt.Errorf("cell (%d, %d) lies outside containment radius", x, y)
		}
		g.cells[i] = v
		g.count++
		if v > g.furthest {
			g.furthest = v
		}
	}
	return g, nil
}
