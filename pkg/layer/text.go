package layer

import (
	"fmt"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Label is one text annotation anchored at a lon/lat position.
type Label struct {
	Text string
	At   [2]float64
	// Dx and Dy nudge the label in pixels from its projected anchor.
	Dx, Dy float64
}

// Text renders labels at projected anchors. Labels whose anchor is
// clipped by the projection are not emitted at all, so a rotated globe
// never shows far-side labels.
type Text struct {
	Base
	labels   []Label
	fontSize float64
	proj     projection.Projection
}

// NewText builds a label layer.
func NewText(id string, labels []Label, style carto.Style) *Text {
	defaults := carto.Style{
		Fill:   "#1a1a1a",
		Stroke: "none",
	}
	return &Text{
		Base:     newBase(id, defaults, style),
		labels:   labels,
		fontSize: 10,
	}
}

// SetFontSize sets the label font size in pixels.
func (l *Text) SetFontSize(size float64) {
	if size > 0 {
		l.fontSize = size
	}
}

// SetProjection satisfies carto.ProjectionAware.
func (l *Text) SetProjection(p projection.Projection) { l.proj = p }

// Render draws one text element per visible label.
func (l *Text) Render(parent *svg.Element) error {
	g := l.begin(parent)
	g.SetAttr("font-size", fmt.Sprintf("%g", l.fontSize)).
		SetAttr("font-family", "sans-serif").
		SetAttr("text-anchor", "middle")
	for _, lb := range l.labels {
		x, y, ok := l.proj.Project(lb.At[0], lb.At[1])
		if !ok {
			continue
		}
		el := svg.NewElement("text").
			SetAttr("x", fmt.Sprintf("%.2f", x+lb.Dx)).
			SetAttr("y", fmt.Sprintf("%.2f", y+lb.Dy)).
			SetText(lb.Text)
		g.AppendChild(el)
	}
	return nil
}
