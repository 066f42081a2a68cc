package systems

// HasAggregatedNeighbor reports whether any cell of the 3x3 block centred
// on (x, y), clipped to the grid, is aggregated. The cell itself counts.
func HasAggregatedNeighbor(g GridView, x, y int) bool {
	last := g.Size() - 1
	x0, x1 := clampInt(x-1, 0, last), clampInt(x+1, 0, last)
	y0, y1 := clampInt(y-1, 0, last), clampInt(y+1, 0, last)

	for ny := y0; ny <= y1; ny++ {
		for nx := x0; nx <= x1; nx++ {
			if g.IsAggregated(nx, ny) {
				return true
			}
		}
	}
	return false
}
