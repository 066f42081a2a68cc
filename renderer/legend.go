package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dla/colormap"
)

// Legend draws a vertical colorbar for the distance scale.
type Legend struct {
	X, Y, W, H int32
	Max        float64
	Label      string
}

// NewLegend creates a legend for distances in [0, max].
func NewLegend(x, y, w, h int32, max float64) *Legend {
	return &Legend{X: x, Y: y, W: w, H: h, Max: max, Label: "Euclidean Distance from Center"}
}

// Draw renders the colorbar with ticks. The top of the bar is Max.
func (l *Legend) Draw() {
	const bands = 64
	bandH := float32(l.H) / bands
	for i := 0; i < bands; i++ {
		t := 1 - (float64(i)+0.5)/bands
		y := float32(l.Y) + float32(i)*bandH
		rl.DrawRectangleV(rl.Vector2{X: float32(l.X), Y: y}, rl.Vector2{X: float32(l.W), Y: bandH + 1}, colormap.Plasma(t))
	}
	rl.DrawRectangleLines(l.X, l.Y, l.W, l.H, rl.Gray)

	for i := 0; i <= 4; i++ {
		f := float64(i) / 4
		y := l.Y + l.H - int32(f*float64(l.H))
		rl.DrawLine(l.X+l.W, y, l.X+l.W+4, y, rl.LightGray)
		rl.DrawText(fmt.Sprintf("%.0f", f*l.Max), l.X+l.W+7, y-5, 10, rl.LightGray)
	}

	rl.DrawText(l.Label, l.X-4, l.Y+l.H+8, 10, rl.LightGray)
}
