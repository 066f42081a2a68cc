// Package colormap maps scalar values to colors for cluster rendering.
package colormap

import (
	"image/color"
	"math"
)

// plasmaStops samples the plasma colormap at 0, 0.1, ..., 1.
var plasmaStops = [...]color.RGBA{
	{0x0d, 0x08, 0x87, 0xff},
	{0x41, 0x04, 0x9d, 0xff},
	{0x6a, 0x00, 0xa8, 0xff},
	{0x8f, 0x0d, 0xa4, 0xff},
	{0xb1, 0x2a, 0x90, 0xff},
	{0xcc, 0x47, 0x78, 0xff},
	{0xe1, 0x64, 0x62, 0xff},
	{0xf2, 0x84, 0x4b, 0xff},
	{0xfc, 0xa6, 0x36, 0xff},
	{0xfc, 0xce, 0x25, 0xff},
	{0xf0, 0xf9, 0x21, 0xff},
}

// Empty is drawn for cells that hold no particle.
var Empty = color.RGBA{0, 0, 0, 0xff}

// Plasma returns the plasma color at t, clamped to [0, 1].
func Plasma(t float64) color.RGBA {
	if t != t || t <= 0 {
		return plasmaStops[0]
	}
	if t >= 1 {
		return plasmaStops[len(plasmaStops)-1]
	}
	pos := t * float64(len(plasmaStops)-1)
	i := int(math.Floor(pos))
	f := pos - float64(i)
	a, b := plasmaStops[i], plasmaStops[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 0xff,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Scale maps distances in [Min, Max] onto the plasma colormap.
type Scale struct {
	Min, Max float64
}

// Color returns the color for value v. NaN maps to Empty.
func (s Scale) Color(v float64) color.RGBA {
	if v != v {
		return Empty
	}
	span := s.Max - s.Min
	if span <= 0 {
		return Plasma(0)
	}
	return Plasma((v - s.Min) / span)
}

// Palette is a fixed-size sampling of plasma; it satisfies the
// gonum/plot palette.Palette interface.
type Palette []color.Color

// NewPalette samples n evenly spaced plasma colors.
func NewPalette(n int) Palette {
	if n < 2 {
		n = 2
	}
	p := make(Palette, n)
	for i := range p {
		p[i] = Plasma(float64(i) / float64(n-1))
	}
	return p
}

// Colors returns the palette colors.
func (p Palette) Colors() []color.Color { return p }
