package telemetry

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/dla/colormap"
	"github.com/pthm-cable/dla/systems"
)

var nan = math.NaN()

// gridXYZ adapts a grid to plotter.GridXYZ. Empty cells report NaN.
type gridXYZ struct {
	g systems.GridView
}

func (g gridXYZ) Dims() (c, r int) { return g.g.Size(), g.g.Size() }
func (g gridXYZ) X(c int) float64 { return float64(c) }
func (g gridXYZ) Y(r int) float64 { return float64(r) }

func (g gridXYZ) Z(c, r int) float64 {
	d, ok := g.g.At(c, r)
	if !ok {
		return nan
	}
	return float64(d)
}

// HeatmapOptions controls the rendered image.
type HeatmapOptions struct {
	Width, Height vg.Length
	Title         string
}

// SaveHeatmap renders the aggregate as a plasma heat map, coloured by
// distance from the seed on a fixed [0, size/2] scale with empty cells
// in black, and saves it to path. The format follows the file extension.
func SaveHeatmap(g systems.GridView, path string, opts HeatmapOptions) error {
	if opts.Width <= 0 {
		opts.Width = 16 * vg.Centimeter
	}
	if opts.Height <= 0 {
		opts.Height = 14 * vg.Centimeter
	}
	if opts.Title == "" {
		opts.Title = "Diffusion-Limited Aggregation"
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(gridXYZ{g}, colormap.NewPalette(256))
	hm.Min = 0
	hm.Max = float64(g.Size() / 2)
	hm.NaN = colormap.Empty
	hm.Rasterized = true
	p.Add(hm)

	p.Legend.Top = true
	p.Legend.Add(fmt.Sprintf("Euclidean Distance from Center (0 to %d)", g.Size()/2))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create image dir: %w", err)
		}
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}
