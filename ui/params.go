package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dla/inspector"
)

const paramsSectionGap = 6

// ParamsSection is one titled struct shown by the params panel.
type ParamsSection struct {
	Title string
	Value any // struct or pointer to struct, read through inspect tags
}

// ParamsPanel renders structs field by field.
type ParamsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewParamsPanel creates a new params panel.
func NewParamsPanel(x, y, width int32) *ParamsPanel {
	return &ParamsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *ParamsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the sections and returns the Y below the panel.
func (p *ParamsPanel) Draw(sections ...ParamsSection) int32 {
	r := p.renderer
	padding := r.Theme.Padding

	extracted := make([][]inspector.Field, len(sections))
	height := padding * 2
	for i, s := range sections {
		extracted[i] = inspector.ExtractFields(s.Value)
		height += r.Theme.LineHeight + int32(len(extracted[i]))*(r.Theme.LineHeight+2) + paramsSectionGap
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := p.y + padding
	w := p.width - padding*2
	for i, s := range sections {
		y = r.DrawSectionHeader(x, y, s.Title)
		for _, f := range extracted[i] {
			y = p.drawField(x, y, f, w)
		}
		y = r.DrawSpacer(y, paramsSectionGap)
	}
	return p.y + height
}

func (p *ParamsPanel) drawField(x, y int32, f inspector.Field, width int32) int32 {
	r := p.renderer
	switch f.Widget {
	case inspector.WidgetBar:
		v, ok := inspector.GetFloatValue(f.Value)
		if ok {
			return r.DrawBar(x, y, f.Label(), v/inspector.GetMax(f.Options), width)
		}
	case inspector.WidgetBool:
		text, color := "off", r.Theme.LabelColor
		if on, _ := f.Value.(bool); on {
			text, color = "on", rl.Green
		}
		rl.DrawText(f.Label()+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
		rl.DrawText(text, x+r.Theme.LabelWidth, y, r.Theme.FontSize, color)
		return y + r.Theme.LineHeight + 2
	}
	return r.DrawLabelValue(x, y, f.Label(), f.Text(), width) + 2
}
