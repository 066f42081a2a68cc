package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayCircles OverlayID = "circles"
	OverlayWalkers OverlayID = "walkers"
	OverlayLegend  OverlayID = "legend"
	OverlayStats   OverlayID = "stats"
	OverlayPerf    OverlayID = "perf"
	OverlayCursor  OverlayID = "cursor"
	OverlayParams  OverlayID = "params"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID // Unique identifier
	Name        string    // Display name
	Description string    // What this overlay shows
	Key         int32     // Keyboard key to toggle (0 = no key)
	KeyLabel    string    // Key label for display (e.g., "S", "V")
	Category    string    // Grouping (e.g., "visual", "debug")
	Default     bool      // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayCircles,
		Name:        "Radii",
		Description: "Containment and spawn circles",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "visual",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayWalkers,
		Name:        "Walkers",
		Description: "In-flight swarm walkers",
		Key:         rl.KeyW,
		KeyLabel:    "W",
		Category:    "visual",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayLegend,
		Name:        "Legend",
		Description: "Distance colorbar",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "visual",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Run Stats",
		Description: "Window statistics and cluster shape",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "debug",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Per-phase timing",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayCursor,
		Name:        "Cell Probe",
		Description: "Distance of the cell under the cursor",
		Key:         rl.KeyX,
		KeyLabel:    "X",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayParams,
		Name:        "Parameters",
		Description: "Run parameters and totals",
		Key:         rl.KeyR,
		KeyLabel:    "R",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	r.enabled[id] = enabled
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// Keys returns the toggle keys of all overlays.
func (r *OverlayRegistry) Keys() []int32 {
	keys := make([]int32, 0, len(r.descriptors))
	for _, desc := range r.descriptors {
		if desc.Key != 0 {
			keys = append(keys, desc.Key)
		}
	}
	return keys
}
