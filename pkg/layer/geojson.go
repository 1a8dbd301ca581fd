package layer

import (
	"strconv"

	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// GeoJSON renders a feature collection as one path per feature and keeps
// an R-tree over feature bounding boxes for spatial queries. It is the
// instance-layer counterpart of the legacy data layer, with data-driven
// styling through the per-feature functions of carto.Style.
type GeoJSON struct {
	Base
	data        geojson.FeatureCollection
	index       *geo.FeatureIndex
	proj        projection.Projection
	pointRadius float64
}

// NewGeoJSON builds a GeoJSON layer. data accepts anything geo.Normalize
// accepts: a feature collection, a feature slice, a single feature, or a
// bare geometry.
func NewGeoJSON(id string, data any, style carto.Style) (*GeoJSON, error) {
	fc, err := geo.Normalize(data)
	if err != nil {
		return nil, err
	}
	return &GeoJSON{
		Base:        newBase(id, carto.DefaultStyle(), style),
		data:        fc,
		index:       geo.NewFeatureIndex(fc.Features),
		pointRadius: projection.DefaultPointRadius,
	}, nil
}

// SetProjection satisfies carto.ProjectionAware.
func (l *GeoJSON) SetProjection(p projection.Projection) { l.proj = p }

// SetPointRadius sets the circle radius used for point geometries.
func (l *GeoJSON) SetPointRadius(r float64) { l.pointRadius = r }

// Features returns the layer's normalized feature collection.
func (l *GeoJSON) Features() geojson.FeatureCollection { return l.data }

// FeaturesIn returns the features whose bounding boxes intersect b, in
// collection order.
func (l *GeoJSON) FeaturesIn(b geo.Bounds) []geojson.Feature {
	return l.index.Search(b)
}

// Render draws one path per feature. Features that fail to convert are
// skipped so one malformed geometry cannot blank the layer.
func (l *GeoJSON) Render(parent *svg.Element) error {
	g := l.begin(parent)
	gen := projection.NewPathGenerator(l.proj)
	gen.SetPointRadius(l.pointRadius)

	styled := l.Base.style.HasFeatureFuncs()
	for i, f := range l.data.Features {
		d, err := gen.Path(f.Geometry.Geometry)
		if err != nil || d == "" {
			continue
		}
		el := svg.NewElement("path").
			SetAttr("d", d).
			SetAttr("data-feature", strconv.Itoa(i))
		if styled {
			l.Base.style.Apply(el, f)
		}
		g.AppendChild(el)
	}
	return nil
}

// SetStyle merges a partial style; with per-feature functions in play the
// existing paths are restyled individually, otherwise the group style is
// updated in place.
func (l *GeoJSON) SetStyle(partial carto.Style) {
	l.Base.SetStyle(partial)
	if l.el == nil || !l.Base.style.HasFeatureFuncs() {
		return
	}
	for _, el := range l.el.Children() {
		idx, ok := el.Attr("data-feature")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(l.data.Features) {
			continue
		}
		l.Base.style.Apply(el, l.data.Features[i])
	}
}
