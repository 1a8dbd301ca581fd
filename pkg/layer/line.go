package layer

import (
	"github.com/go-spatial/geom"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Connection is one great-circle arc between two lon/lat endpoints.
type Connection struct {
	From [2]float64
	To   [2]float64
}

// Line renders great-circle connection arcs, the flight-route style of
// origin/destination maps. Each connection is sampled along the sphere so
// the arc bends correctly under any projection.
type Line struct {
	Base
	connections []Connection
	samples     int
	proj        projection.Projection
}

// NewLine builds a connection-arc layer.
func NewLine(id string, connections []Connection, style carto.Style) *Line {
	defaults := carto.Style{
		Fill:        "none",
		Stroke:      "#2374ab",
		StrokeWidth: carto.Float(1),
		Opacity:     carto.Float(0.7),
	}
	return &Line{
		Base:        newBase(id, defaults, style),
		connections: connections,
		samples:     32,
	}
}

// SetSamples sets the number of interpolation steps per arc.
func (l *Line) SetSamples(n int) {
	if n > 1 {
		l.samples = n
	}
}

// SetProjection satisfies carto.ProjectionAware.
func (l *Line) SetProjection(p projection.Projection) { l.proj = p }

// Render draws one path per connection; arcs entirely outside the
// projection's visible region are skipped.
func (l *Line) Render(parent *svg.Element) error {
	g := l.begin(parent)
	gen := projection.NewPathGenerator(l.proj)
	ml := make(geom.MultiLineString, 0, len(l.connections))
	for _, c := range l.connections {
		ml = append(ml, geo.GreatCircle(c.From, c.To, l.samples))
	}
	d, err := gen.Path(ml)
	if err != nil || d == "" {
		return err
	}
	g.AppendChild(svg.NewElement("path").SetAttr("d", d))
	return nil
}
