// Package components defines ECS components for concurrent walkers.
package components

import "math/rand"

// Position is a walker's lattice coordinate.
type Position struct {
	X, Y int32
}

// Walker holds per-particle walk state. Each walker carries its own random
// source so walkers can be advanced on different goroutines.
type Walker struct {
	ID          uint32
	Attempts    int32
	SpawnRadius float32
	RNG         *rand.Rand
}
