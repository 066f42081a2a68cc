package systems

import "math/rand"

// Direction is a unit lattice step.
type Direction struct {
	DX, DY int
}

// Directions holds the four axis-aligned and four diagonal steps.
var Directions = [8]Direction{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

// Step moves (x, y) one lattice step in a uniformly chosen direction.
// Each axis is clamped into [0, size-1] on its own, so a particle pushed
// against the border holds position along that axis.
func Step(rng *rand.Rand, x, y, size int) (int, int) {
	d := Directions[rng.Intn(len(Directions))]
	last := size - 1
	return clampInt(x+d.DX, 0, last), clampInt(y+d.DY, 0, last)
}
