package colormap

import (
	"image/color"
	"math"
	"testing"
)

func TestPlasmaEndpoints(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want color.RGBA
	}{
		{"zero", 0, plasmaStops[0]},
		{"below", -3, plasmaStops[0]},
		{"nan", math.NaN(), plasmaStops[0]},
		{"one", 1, plasmaStops[10]},
		{"above", 7, plasmaStops[10]},
		{"stop", 0.5, plasmaStops[5]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plasma(tt.t); got != tt.want {
				t.Errorf("Plasma(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestPlasmaBetweenStops(t *testing.T) {
	got := Plasma(0.05)
	a, b := plasmaStops[0], plasmaStops[1]
	between := func(v, lo, hi uint8) bool {
		if lo > hi {
			lo, hi = hi, lo
		}
		return v >= lo && v <= hi
	}
	if !between(got.R, a.R, b.R) || !between(got.G, a.G, b.G) || !between(got.B, a.B, b.B) {
		t.Errorf("Plasma(0.05) = %v, not between %v and %v", got, a, b)
	}
}

func TestScale(t *testing.T) {
	s := Scale{Min: 0, Max: 150}
	if got := s.Color(math.NaN()); got != Empty {
		t.Errorf("NaN color = %v, want Empty", got)
	}
	if got := s.Color(0); got != plasmaStops[0] {
		t.Errorf("Color(0) = %v, want %v", got, plasmaStops[0])
	}
	if got := s.Color(150); got != plasmaStops[10] {
		t.Errorf("Color(150) = %v, want %v", got, plasmaStops[10])
	}
	if got := (Scale{Min: 5, Max: 5}).Color(5); got != plasmaStops[0] {
		t.Errorf("degenerate scale = %v, want first stop", got)
	}
}

func TestNewPalette(t *testing.T) {
	p := NewPalette(1)
	if len(p.Colors()) != 2 {
		t.Fatalf("len = %d, want 2", len(p.Colors()))
	}
	p = NewPalette(256)
	if len(p) != 256 {
		t.Fatalf("len = %d, want 256", len(p))
	}
	if p[0] != color.Color(plasmaStops[0]) || p[255] != color.Color(plasmaStops[10]) {
		t.Errorf("palette endpoints = %v, %v", p[0], p[255])
	}
}
