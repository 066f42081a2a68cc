package systems

import (
	"math"
	"math/rand"
)

// MaxSpawnRadius is the largest radius a particle may be released at on a
// grid of the given size.
func MaxSpawnRadius(size int) float64 {
	return float64(size/2 - 1)
}

// EstimateSpawnRadius returns the release radius for the next particle:
// the current cluster envelope plus margin, capped so spawn points stay on
// the grid.
func EstimateSpawnRadius(g GridView, margin float64) float64 {
	r := float64(g.FurthestDistance()) + margin
	return math.Min(r, MaxSpawnRadius(g.Size()))
}

// SpawnPosition places a particle at a uniformly random angle on the circle
// of the given radius around (center, center), rounded to the nearest
// lattice point and clamped into the grid.
func SpawnPosition(rng *rand.Rand, center int, radius float64, size int) (int, int) {
	theta := rng.Float64() * 2 * math.Pi
	fx := float64(center) + radius*math.Cos(theta)
	fy := float64(center) + radius*math.Sin(theta)

	last := float64(size - 1)
	x := int(clampFloat(math.Round(fx), 0, last))
	y := int(clampFloat(math.Round(fy), 0, last))
	return x, y
}
