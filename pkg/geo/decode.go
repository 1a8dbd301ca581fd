package geo

import (
	"encoding/json"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/errors"
)

// raw containers for two-pass decoding: JSON structure first, geometry
// coordinates second, once the type tag is known.
type rawObject struct {
	Type       string            `json:"type"`
	Features   []json.RawMessage `json:"features"`
	Geometry   json.RawMessage   `json:"geometry"`
	Geometries []json.RawMessage `json:"geometries"`
	Properties map[string]any    `json:"properties"`
	Coords     json.RawMessage   `json:"coordinates"`
}

// DecodeJSON parses GeoJSON bytes into a normalized feature collection.
// The top-level object may be a FeatureCollection, a Feature, or a bare
// geometry; coordinates beyond the first two positions are dropped.
func DecodeJSON(data []byte) (geojson.FeatureCollection, error) {
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return geojson.FeatureCollection{}, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "parse geojson")
	}

	switch obj.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		for i, raw := range obj.Features {
			f, err := decodeFeature(raw)
			if err != nil {
				return geojson.FeatureCollection{}, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "feature %d", i)
			}
			fc.Features = append(fc.Features, f)
		}
		return fc, nil
	case "Feature":
		f, err := decodeFeature(data)
		if err != nil {
			return geojson.FeatureCollection{}, err
		}
		return geojson.FeatureCollection{Features: []geojson.Feature{f}}, nil
	default:
		gm, err := decodeGeometry(data)
		if err != nil {
			return geojson.FeatureCollection{}, err
		}
		return Normalize(gm)
	}
}

func decodeFeature(data []byte) (geojson.Feature, error) {
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return geojson.Feature{}, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "parse feature")
	}
	if obj.Type != "Feature" {
		return geojson.Feature{}, errors.New(errors.ErrCodeInvalidGeometry, "expected Feature, got %q", obj.Type)
	}
	f := geojson.Feature{Properties: obj.Properties}
	if len(obj.Geometry) > 0 && string(obj.Geometry) != "null" {
		gm, err := decodeGeometry(obj.Geometry)
		if err != nil {
			return geojson.Feature{}, err
		}
		f.Geometry = geojson.Geometry{Geometry: gm}
	}
	return f, nil
}

func decodeGeometry(data []byte) (geom.Geometry, error) {
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "parse geometry")
	}

	switch obj.Type {
	case "Point":
		var c []float64
		if err := json.Unmarshal(obj.Coords, &c); err != nil || len(c) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidGeometry, "malformed Point coordinates")
		}
		return geom.Point{c[0], c[1]}, nil
	case "MultiPoint":
		c, err := decodePositions(obj.Coords)
		if err != nil {
			return nil, err
		}
		return geom.MultiPoint(c), nil
	case "LineString":
		c, err := decodePositions(obj.Coords)
		if err != nil {
			return nil, err
		}
		return geom.LineString(c), nil
	case "MultiLineString":
		c, err := decodePositionLists(obj.Coords)
		if err != nil {
			return nil, err
		}
		return geom.MultiLineString(c), nil
	case "Polygon":
		c, err := decodePositionLists(obj.Coords)
		if err != nil {
			return nil, err
		}
		return geom.Polygon(c), nil
	case "MultiPolygon":
		var rings [][][][]float64
		if err := json.Unmarshal(obj.Coords, &rings); err != nil {
			return nil, errors.New(errors.ErrCodeInvalidGeometry, "malformed MultiPolygon coordinates")
		}
		mp := make(geom.MultiPolygon, len(rings))
		for i, poly := range rings {
			mp[i] = make([][][2]float64, len(poly))
			for j, ring := range poly {
				mp[i][j] = truncatePositions(ring)
			}
		}
		return mp, nil
	case "GeometryCollection":
		var col geom.Collection
		for _, raw := range obj.Geometries {
			gm, err := decodeGeometry(raw)
			if err != nil {
				return nil, err
			}
			col = append(col, gm)
		}
		return col, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "unknown geometry type %q", obj.Type)
	}
}

func decodePositions(raw json.RawMessage) ([][2]float64, error) {
	var c [][]float64
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "malformed coordinates")
	}
	return truncatePositions(c), nil
}

func decodePositionLists(raw json.RawMessage) ([][][2]float64, error) {
	var c [][][]float64
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "malformed coordinates")
	}
	out := make([][][2]float64, len(c))
	for i, line := range c {
		out[i] = truncatePositions(line)
	}
	return out, nil
}

// truncatePositions drops altitude and any further positions beyond
// lon/lat.
func truncatePositions(in [][]float64) [][2]float64 {
	out := make([][2]float64, 0, len(in))
	for _, p := range in {
		if len(p) < 2 {
			continue
		}
		out = append(out, [2]float64{p[0], p[1]})
	}
	return out
}
