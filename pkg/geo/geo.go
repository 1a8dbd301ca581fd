// Package geo provides geographic helpers shared by layers and the map
// facade: bounding boxes, feature-collection normalization, graticule and
// great-circle generation, and an R-tree feature index for spatial queries.
package geo

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/errors"
)

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// FromBBox builds Bounds from a [minLon, minLat, maxLon, maxLat] array.
func FromBBox(bbox [4]float64) Bounds {
	return Bounds{MinLon: bbox[0], MinLat: bbox[1], MaxLon: bbox[2], MaxLat: bbox[3]}
}

// Valid reports whether the bounds span a positive area within the
// geographic domain.
func (b Bounds) Valid() bool {
	return b.MinLon < b.MaxLon && b.MinLat < b.MaxLat &&
		b.MinLon >= -180 && b.MaxLon <= 180 &&
		b.MinLat >= -90 && b.MaxLat <= 90
}

// Center returns the bounds' midpoint.
func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// Extend grows the bounds to include the given point.
func (b Bounds) Extend(lon, lat float64) Bounds {
	return Bounds{
		MinLon: math.Min(b.MinLon, lon),
		MinLat: math.Min(b.MinLat, lat),
		MaxLon: math.Max(b.MaxLon, lon),
		MaxLat: math.Max(b.MaxLat, lat),
	}
}

func emptyBounds() Bounds {
	return Bounds{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
}

// Normalize converts the accepted data shapes into a FeatureCollection.
// Accepted: geojson.FeatureCollection, *geojson.FeatureCollection,
// []geojson.Feature, geojson.Feature, or a bare geom.Geometry. Anything
// else fails with INVALID_GEOMETRY.
func Normalize(data any) (geojson.FeatureCollection, error) {
	switch v := data.(type) {
	case geojson.FeatureCollection:
		return v, nil
	case *geojson.FeatureCollection:
		if v == nil {
			return geojson.FeatureCollection{}, errors.New(errors.ErrCodeInvalidGeometry, "nil feature collection")
		}
		return *v, nil
	case []geojson.Feature:
		return geojson.FeatureCollection{Features: v}, nil
	case geojson.Feature:
		return geojson.FeatureCollection{Features: []geojson.Feature{v}}, nil
	case geom.Point, geom.MultiPoint, geom.LineString, geom.MultiLineString,
		geom.Polygon, geom.MultiPolygon, geom.Collection:
		return geojson.FeatureCollection{Features: []geojson.Feature{
			{Geometry: geojson.Geometry{Geometry: v}},
		}}, nil
	default:
		return geojson.FeatureCollection{}, errors.New(errors.ErrCodeInvalidGeometry,
			"unsupported layer data type %T", data)
	}
}

// GeometryBounds computes the geographic bounds of a geometry.
// ok is false for empty or unsupported geometry.
func GeometryBounds(gm geom.Geometry) (Bounds, bool) {
	b := emptyBounds()
	found := false
	walkCoords(gm, func(lon, lat float64) {
		b = b.Extend(lon, lat)
		found = true
	})
	return b, found
}

// CollectionBounds computes the combined bounds of every feature in the
// collection. ok is false when no feature contributes coordinates.
func CollectionBounds(fc geojson.FeatureCollection) (Bounds, bool) {
	b := emptyBounds()
	found := false
	for _, f := range fc.Features {
		if fb, ok := GeometryBounds(f.Geometry.Geometry); ok {
			b = b.Extend(fb.MinLon, fb.MinLat)
			b = b.Extend(fb.MaxLon, fb.MaxLat)
			found = true
		}
	}
	return b, found
}

func walkCoords(gm geom.Geometry, fn func(lon, lat float64)) {
	switch v := gm.(type) {
	case geom.Point:
		fn(v[0], v[1])
	case geom.MultiPoint:
		for _, pt := range v {
			fn(pt[0], pt[1])
		}
	case geom.LineString:
		for _, pt := range v {
			fn(pt[0], pt[1])
		}
	case geom.MultiLineString:
		for _, ls := range v {
			for _, pt := range ls {
				fn(pt[0], pt[1])
			}
		}
	case geom.Polygon:
		for _, ring := range v {
			for _, pt := range ring {
				fn(pt[0], pt[1])
			}
		}
	case geom.MultiPolygon:
		for _, poly := range v {
			for _, ring := range poly {
				for _, pt := range ring {
					fn(pt[0], pt[1])
				}
			}
		}
	case geom.Collection:
		for _, sub := range v {
			walkCoords(sub, fn)
		}
	}
}

// Graticule builds meridians and parallels at the given step in degrees.
// Meridians span latitudes +-80 to stay clear of the poles; parallels span
// the full longitude range. Step values outside (0, 90] fall back to 10.
func Graticule(step float64) geom.MultiLineString {
	if step <= 0 || step > 90 {
		step = 10
	}
	const sample = 2.5
	var lines geom.MultiLineString

	for lon := -180.0; lon <= 180.0+1e-9; lon += step {
		var line geom.LineString
		for lat := -80.0; lat <= 80.0+1e-9; lat += sample {
			line = append(line, [2]float64{lon, lat})
		}
		lines = append(lines, line)
	}
	for lat := -80.0; lat <= 80.0+1e-9; lat += step {
		var line geom.LineString
		for lon := -180.0; lon <= 180.0+1e-9; lon += sample {
			line = append(line, [2]float64{lon, lat})
		}
		lines = append(lines, line)
	}
	return lines
}

// GreatCircle samples the shortest spherical arc between two lon/lat
// points. steps is the number of segments; values below 2 become 64.
func GreatCircle(from, to [2]float64, steps int) geom.LineString {
	if steps < 2 {
		steps = 64
	}

	lambda1, phi1 := radians(from[0]), radians(from[1])
	lambda2, phi2 := radians(to[0]), radians(to[1])

	x1, y1, z1 := cartesian(lambda1, phi1)
	x2, y2, z2 := cartesian(lambda2, phi2)

	dot := x1*x2 + y1*y2 + z1*z2
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	angle := math.Acos(dot)
	if angle < 1e-12 {
		return geom.LineString{from, to}
	}
	sinAngle := math.Sin(angle)

	line := make(geom.LineString, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		a := math.Sin((1-t)*angle) / sinAngle
		b := math.Sin(t*angle) / sinAngle
		x := a*x1 + b*x2
		y := a*y1 + b*y2
		z := a*z1 + b*z2
		line = append(line, [2]float64{
			degrees(math.Atan2(y, x)),
			degrees(math.Asin(clamp1(z))),
		})
	}
	return line
}

func cartesian(lambda, phi float64) (x, y, z float64) {
	cosPhi := math.Cos(phi)
	return cosPhi * math.Cos(lambda), cosPhi * math.Sin(lambda), math.Sin(phi)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
