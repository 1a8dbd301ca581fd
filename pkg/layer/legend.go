package layer

import (
	"fmt"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/legend"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Legend renders a swatch legend for a color scale at a fixed viewport
// position. Its output depends only on the scale, so it does not
// implement SetProjection: projection changes re-render it unchanged.
type Legend struct {
	Base
	scale      legend.Scale
	title      string
	x, y       float64
	swatch     float64
	lineHeight float64
}

// NewLegend builds a legend layer at viewport position (x, y).
func NewLegend(id string, scale legend.Scale, title string, x, y float64, style carto.Style) *Legend {
	defaults := carto.Style{Stroke: "none"}
	return &Legend{
		Base:       newBase(id, defaults, style),
		scale:      scale,
		title:      title,
		x:          x,
		y:          y,
		swatch:     12,
		lineHeight: 18,
	}
}

// Render draws the title and one swatch row per scale entry.
func (l *Legend) Render(parent *svg.Element) error {
	g := l.begin(parent)
	g.SetAttr("font-size", "11").
		SetAttr("font-family", "sans-serif")

	y := l.y
	if l.title != "" {
		g.AppendChild(svg.NewElement("text").
			SetAttr("x", fmt.Sprintf("%.2f", l.x)).
			SetAttr("y", fmt.Sprintf("%.2f", y)).
			SetAttr("font-weight", "bold").
			SetText(l.title))
		y += l.lineHeight
	}

	for _, e := range l.scale.Entries() {
		g.AppendChild(svg.NewElement("rect").
			SetAttr("x", fmt.Sprintf("%.2f", l.x)).
			SetAttr("y", fmt.Sprintf("%.2f", y-l.swatch)).
			SetAttr("width", fmt.Sprintf("%g", l.swatch)).
			SetAttr("height", fmt.Sprintf("%g", l.swatch)).
			SetAttr("fill", e.Color))
		g.AppendChild(svg.NewElement("text").
			SetAttr("x", fmt.Sprintf("%.2f", l.x+l.swatch+6)).
			SetAttr("y", fmt.Sprintf("%.2f", y-2)).
			SetText(e.Label))
		y += l.lineHeight
	}
	return nil
}
