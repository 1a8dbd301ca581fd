package layer

import (
	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Graticule renders the meridian/parallel reference grid at a fixed
// degree step.
type Graticule struct {
	Base
	step float64
	proj projection.Projection
}

// NewGraticule builds a graticule layer. A non-positive step falls back
// to 10 degrees.
func NewGraticule(id string, step float64, style carto.Style) *Graticule {
	defaults := carto.Style{
		Fill:        "none",
		Stroke:      "#777",
		StrokeWidth: carto.Float(0.5),
		Opacity:     carto.Float(0.5),
	}
	return &Graticule{Base: newBase(id, defaults, style), step: step}
}

// SetProjection satisfies carto.ProjectionAware.
func (l *Graticule) SetProjection(p projection.Projection) { l.proj = p }

// Render draws the grid as a single multi-line path.
func (l *Graticule) Render(parent *svg.Element) error {
	g := l.begin(parent)
	gen := projection.NewPathGenerator(l.proj)
	d, err := gen.Path(geo.Graticule(l.step))
	if err != nil || d == "" {
		return err
	}
	g.AppendChild(svg.NewElement("path").SetAttr("d", d))
	return nil
}
