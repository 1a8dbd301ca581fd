package carto

import (
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/geo"
)

// LayerOptions configures a legacy data layer.
type LayerOptions struct {
	// Data is the layer's geometry: a geojson.FeatureCollection (value or
	// pointer), a []geojson.Feature, a single feature, or a bare geometry.
	Data any
	// Style is merged over the default style.
	Style Style
	// Hidden starts the layer with display:none. Layers default to
	// visible.
	Hidden bool
}

func normalizeData(data any) (geojson.FeatureCollection, error) {
	return geo.Normalize(data)
}
