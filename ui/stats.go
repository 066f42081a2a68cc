package ui

import (
	"fmt"

	"github.com/pthm-cable/dla/telemetry"
)

// statsSections describes the run stats panel. Data is telemetry.WindowStats.
var statsSections = []SectionDescriptor{
	{
		ID:    "window",
		Title: "Last Window",
		Fields: []FieldDescriptor{
			{ID: "range", Label: "Particles", Widget: WidgetText, TextGetter: func(d any) string {
				s := d.(telemetry.WindowStats)
				return fmt.Sprintf("%d - %d", s.WindowStart, s.WindowEnd)
			}},
			{ID: "stick", Label: "Stick rate", Widget: WidgetBar, Getter: func(d any) float64 {
				return d.(telemetry.WindowStats).StickRate
			}},
			{ID: "escape", Label: "Escape rate", Widget: WidgetBar, Getter: func(d any) float64 {
				return d.(telemetry.WindowStats).EscapeRate
			}},
			{ID: "exhausted", Label: "Exhausted", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 {
				return float64(d.(telemetry.WindowStats).Exhausted)
			}},
		},
	},
	{
		ID:    "steps",
		Title: "Walk Length",
		Fields: []FieldDescriptor{
			{ID: "mean", Label: "Mean", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 {
				return d.(telemetry.WindowStats).StepsMean
			}},
			{ID: "p10p90", Label: "P10 / P90", Widget: WidgetText, TextGetter: func(d any) string {
				s := d.(telemetry.WindowStats)
				return fmt.Sprintf("%.0f / %.0f", s.StepsP10, s.StepsP90)
			}},
		},
	},
	{
		ID:    "cluster",
		Title: "Cluster",
		Fields: []FieldDescriptor{
			{ID: "cells", Label: "Cells", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 {
				return float64(d.(telemetry.WindowStats).Cells)
			}},
			{ID: "rg", Label: "Gyration R", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float64 {
				return d.(telemetry.WindowStats).GyrationRadius
			}},
			{ID: "dim", Label: "Fractal dim", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float64 {
				return d.(telemetry.WindowStats).FractalDimension
			}, Visible: func(d any) bool {
				return d.(telemetry.WindowStats).FractalDimension > 0
			}},
		},
	},
}

// StatsPanel renders the latest window statistics.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the Y below it.
func (p *StatsPanel) Draw(stats telemetry.WindowStats) int32 {
	r := p.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range statsSections {
		height += r.SectionHeight(sd, stats)
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + padding
	for _, sd := range statsSections {
		y = r.DrawSection(p.x+padding, y, sd, stats, p.width-padding*2)
	}
	return p.y + height
}
