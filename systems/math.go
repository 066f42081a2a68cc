package systems

import "math"

// Clamp functions for lattice coordinates

// clampInt clamps an int value between min and max.
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampFloat clamps a float64 value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Distance functions

// distanceSq returns the squared lattice distance between (x, y) and (cx, cy).
func distanceSq(x, y, cx, cy int) int {
	dx := x - cx
	dy := y - cy
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between (x, y) and (cx, cy).
func Distance(x, y, cx, cy int) float32 {
	return float32(math.Sqrt(float64(distanceSq(x, y, cx, cy))))
}

// insideCircle reports whether (x, y) lies strictly inside the circle of
// the given radius around (cx, cy).
func insideCircle(x, y, cx, cy, radius int) bool {
	return distanceSq(x, y, cx, cy) < radius*radius
}
