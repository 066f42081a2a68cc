package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/dla/systems"
)

// ClusterMetrics describes the shape of the aggregate.
type ClusterMetrics struct {
	Cells            int
	MaxRadius        float64 // furthest aggregated cell from the centre
	GyrationRadius   float64 // RMS distance of cells from their centroid
	FractalDimension float64 // mass-radius slope; 0 when there are too few points
}

// MeasureCluster computes shape metrics for the current grid.
// minRadius is the smallest radius used in the mass-radius fit.
func MeasureCluster(g systems.GridView, minRadius float64) ClusterMetrics {
	size := g.Size()

	var xs, ys, dists []float64
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d, ok := g.At(x, y)
			if !ok {
				continue
			}
			xs = append(xs, float64(x))
			ys = append(ys, float64(y))
			dists = append(dists, float64(d))
		}
	}

	m := ClusterMetrics{
		Cells:     len(dists),
		MaxRadius: float64(g.FurthestDistance()),
	}
	if len(dists) == 0 {
		return m
	}

	cx, cy := stat.Mean(xs, nil), stat.Mean(ys, nil)
	sq := make([]float64, len(xs))
	for i := range xs {
		dx, dy := xs[i]-cx, ys[i]-cy
		sq[i] = dx*dx + dy*dy
	}
	m.GyrationRadius = math.Sqrt(stat.Mean(sq, nil))

	m.FractalDimension = MassRadiusDimension(dists, minRadius)
	return m
}

// MassRadiusDimension estimates the fractal dimension D from N(r) ~ r^D,
// where N(r) counts cells within distance r of the centre. Radii double
// from minRadius up to the furthest cell. Returns 0 with fewer than three
// sample radii.
func MassRadiusDimension(dists []float64, minRadius float64) float64 {
	if len(dists) == 0 {
		return 0
	}
	if minRadius < 1 {
		minRadius = 1
	}
	sorted := make([]float64, len(dists))
	copy(sorted, dists)
	sort.Float64s(sorted)
	maxR := sorted[len(sorted)-1]

	var logR, logN []float64
	for r := minRadius; r <= maxR; r *= 2 {
		n := sort.Search(len(sorted), func(i int) bool { return sorted[i] > r })
		logR = append(logR, math.Log(r))
		logN = append(logN, math.Log(float64(n)))
	}
	if len(logR) < 3 {
		return 0
	}

	_, slope := stat.LinearRegression(logR, logN, nil, false)
	return slope
}
