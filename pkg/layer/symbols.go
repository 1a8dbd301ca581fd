package layer

import (
	"fmt"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Circle renders point symbols at each feature's anchor, with a constant
// or per-feature radius. Non-point geometries anchor at their bounding
// box center.
type Circle struct {
	Base
	data       geojson.FeatureCollection
	radius     float64
	radiusFunc func(geojson.Feature) float64
	proj       projection.Projection
}

// NewCircle builds a circle symbol layer.
func NewCircle(id string, data any, radius float64, style carto.Style) (*Circle, error) {
	fc, err := geo.Normalize(data)
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		radius = projection.DefaultPointRadius
	}
	defaults := carto.Style{
		Fill:        "#e4572e",
		Stroke:      "#fff",
		StrokeWidth: carto.Float(0.5),
		Opacity:     carto.Float(0.8),
	}
	return &Circle{
		Base:   newBase(id, defaults, style),
		data:   fc,
		radius: radius,
	}, nil
}

// SetRadiusFunc sets a per-feature radius, overriding the constant.
func (l *Circle) SetRadiusFunc(fn func(geojson.Feature) float64) { l.radiusFunc = fn }

// SetProjection satisfies carto.ProjectionAware.
func (l *Circle) SetProjection(p projection.Projection) { l.proj = p }

// Render draws one circle per feature with a projectable anchor.
func (l *Circle) Render(parent *svg.Element) error {
	g := l.begin(parent)
	styled := l.Base.style.HasFeatureFuncs()
	for _, f := range l.data.Features {
		x, y, ok := anchor(l.proj, f)
		if !ok {
			continue
		}
		r := l.radius
		if l.radiusFunc != nil {
			r = l.radiusFunc(f)
		}
		if r <= 0 {
			continue
		}
		el := svg.NewElement("circle").
			SetAttr("cx", fmt.Sprintf("%.2f", x)).
			SetAttr("cy", fmt.Sprintf("%.2f", y)).
			SetAttr("r", fmt.Sprintf("%.2f", r))
		if styled {
			l.Base.style.Apply(el, f)
		}
		g.AppendChild(el)
	}
	return nil
}

// Spike renders a vertical triangular spike per feature whose height
// encodes a value, the classic spike-map symbol for magnitudes.
type Spike struct {
	Base
	data   geojson.FeatureCollection
	width  float64
	height func(geojson.Feature) float64
	proj   projection.Projection
}

// NewSpike builds a spike layer. height maps a feature to its spike
// height in pixels; non-positive heights are skipped.
func NewSpike(id string, data any, height func(geojson.Feature) float64, style carto.Style) (*Spike, error) {
	fc, err := geo.Normalize(data)
	if err != nil {
		return nil, err
	}
	defaults := carto.Style{
		Fill:        "#d1495b",
		Stroke:      "#d1495b",
		StrokeWidth: carto.Float(0.5),
		Opacity:     carto.Float(0.6),
	}
	return &Spike{
		Base:   newBase(id, defaults, style),
		data:   fc,
		width:  7,
		height: height,
	}, nil
}

// SetWidth sets the spike base width in pixels.
func (l *Spike) SetWidth(w float64) {
	if w > 0 {
		l.width = w
	}
}

// SetProjection satisfies carto.ProjectionAware.
func (l *Spike) SetProjection(p projection.Projection) { l.proj = p }

// Render draws one triangle per feature with a projectable anchor and a
// positive height.
func (l *Spike) Render(parent *svg.Element) error {
	g := l.begin(parent)
	styled := l.Base.style.HasFeatureFuncs()
	half := l.width / 2
	for _, f := range l.data.Features {
		x, y, ok := anchor(l.proj, f)
		if !ok {
			continue
		}
		h := 0.0
		if l.height != nil {
			h = l.height(f)
		}
		if h <= 0 {
			continue
		}
		d := fmt.Sprintf("M%.2f,%.2fL%.2f,%.2fL%.2f,%.2fZ",
			x-half, y, x, y-h, x+half, y)
		el := svg.NewElement("path").SetAttr("d", d)
		if styled {
			l.Base.style.Apply(el, f)
		}
		g.AppendChild(el)
	}
	return nil
}

// anchor projects a feature's representative point: the point itself for
// point geometries, the bounding box center otherwise. ok is false for
// boundless geometries and anchors clipped by the projection.
func anchor(p projection.Projection, f geojson.Feature) (x, y float64, ok bool) {
	if pt, isPoint := f.Geometry.Geometry.(geom.Point); isPoint {
		return p.Project(pt[0], pt[1])
	}
	b, has := geo.GeometryBounds(f.Geometry.Geometry)
	if !has {
		return 0, 0, false
	}
	lon, lat := b.Center()
	return p.Project(lon, lat)
}
