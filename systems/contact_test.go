package systems

import "testing"

// setGrid is a GridView backed by a set, used to place aggregated cells
// anywhere including the border.
type setGrid struct {
	size  int
	cells map[[2]int]bool
}

func (g *setGrid) Size() int { return g.size }
func (g *setGrid) Center() int { return g.size / 2 }
func (g *setGrid) Radius() int { return g.size / 2 }
func (g *setGrid) IsAggregated(x, y int) bool { return g.cells[[2]int{x, y}] }
func (g *setGrid) FurthestDistance() float32 { return 0 }
func (g *setGrid) Count() int { return len(g.cells) }
func (g *setGrid) At(x, y int) (float32, bool) {
	if !g.IsAggregated(x, y) {
		return 0, false
	}
	return Distance(x, y, g.Center(), g.Center()), true
}

func TestHasAggregatedNeighbor(t *testing.T) {
	g := NewGrid(21) // seed at (10, 10)

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"on seed", 10, 10, true},
		{"axis neighbour", 11, 10, true},
		{"diagonal neighbour", 9, 11, true},
		{"two away", 12, 10, false},
		{"knight move", 12, 11, false},
		{"corner", 0, 0, false},
		{"far corner", 20, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAggregatedNeighbor(g, tt.x, tt.y); got != tt.want {
				t.Errorf("HasAggregatedNeighbor(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHasAggregatedNeighborClipsAtBorder(t *testing.T) {
	g := &setGrid{size: 5, cells: map[[2]int]bool{{0, 0}: true, {4, 2}: true}}

	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{1, 1, true},
		{0, 1, true},
		{2, 2, false},
		{4, 4, false},
		{4, 3, true},
		{3, 1, true},
	}
	for _, tt := range tests {
		if got := HasAggregatedNeighbor(g, tt.x, tt.y); got != tt.want {
			t.Errorf("HasAggregatedNeighbor(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTouchingIgnoresOccupiedCell(t *testing.T) {
	g := NewGrid(21)

	if touching(g, 10, 10) {
		t.Error("a walker standing on the seed must not freeze there")
	}
	if !touching(g, 11, 11) {
		t.Error("expected walker next to the seed to freeze")
	}
}
