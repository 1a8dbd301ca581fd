package projection

import (
	"fmt"
	"strings"

	"github.com/go-spatial/geom"

	"github.com/geodetic-io/cartograph/pkg/errors"
)

// DefaultPointRadius is the radius used when rendering point geometries
// as circular subpaths.
const DefaultPointRadius = 4.5

// PathGenerator converts geometry into SVG path data under a projection.
// It is rebuilt (or handed a new projection) whenever the projection
// changes; a generator never observes projection changes implicitly.
type PathGenerator struct {
	proj        Projection
	pointRadius float64
}

// NewPathGenerator creates a path generator for the given projection.
func NewPathGenerator(p Projection) *PathGenerator {
	return &PathGenerator{proj: p, pointRadius: DefaultPointRadius}
}

// Projection returns the generator's current projection.
func (g *PathGenerator) Projection() Projection { return g.proj }

// SetProjection replaces the generator's projection.
func (g *PathGenerator) SetProjection(p Projection) { g.proj = p }

// SetPointRadius sets the circle radius used for point geometries.
func (g *PathGenerator) SetPointRadius(r float64) { g.pointRadius = r }

// Path returns the SVG path data ("d" attribute) for a geometry.
// Vertices that are not representable under the projection (clipped
// hemisphere points) break the path into visible segments. An empty
// string with a nil error means the whole geometry is clipped away.
// Unknown geometry types fail with UNSUPPORTED_VARIANT.
func (g *PathGenerator) Path(gm geom.Geometry) (string, error) {
	var b strings.Builder
	if err := g.encode(&b, gm); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (g *PathGenerator) encode(b *strings.Builder, gm geom.Geometry) error {
	switch v := gm.(type) {
	case geom.Point:
		g.encodePoint(b, v[0], v[1])
	case geom.MultiPoint:
		for _, pt := range v {
			g.encodePoint(b, pt[0], pt[1])
		}
	case geom.LineString:
		g.encodeLine(b, v, false)
	case geom.MultiLineString:
		for _, ls := range v {
			g.encodeLine(b, ls, false)
		}
	case geom.Polygon:
		for _, ring := range v {
			g.encodeLine(b, ring, true)
		}
	case geom.MultiPolygon:
		for _, poly := range v {
			for _, ring := range poly {
				g.encodeLine(b, ring, true)
			}
		}
	case geom.Collection:
		for _, sub := range v {
			if err := g.encode(b, sub); err != nil {
				return err
			}
		}
	case nil:
		return errors.New(errors.ErrCodeInvalidGeometry, "nil geometry")
	default:
		return errors.New(errors.ErrCodeUnsupportedVariant, "unsupported geometry type %T", gm)
	}
	return nil
}

// encodePoint emits a circular subpath centered on the projected point,
// matching the conventional geo-path treatment of point geometries.
func (g *PathGenerator) encodePoint(b *strings.Builder, lon, lat float64) {
	x, y, ok := g.proj.Project(lon, lat)
	if !ok {
		return
	}
	r := g.pointRadius
	fmt.Fprintf(b, "M%s,%sm%s,0a%s,%s 0 1,1 %s,0a%s,%s 0 1,1 %s,0",
		coord(x), coord(y), coord(-r),
		coord(r), coord(r), coord(2*r),
		coord(r), coord(r), coord(-2*r))
}

func (g *PathGenerator) encodeLine(b *strings.Builder, pts [][2]float64, closed bool) {
	started := false
	clipped := false
	for _, pt := range pts {
		x, y, ok := g.proj.Project(pt[0], pt[1])
		if !ok {
			// Break the path at clipped vertices; the next visible
			// vertex starts a fresh subpath.
			started = false
			clipped = true
			continue
		}
		if !started {
			fmt.Fprintf(b, "M%s,%s", coord(x), coord(y))
			started = true
			continue
		}
		fmt.Fprintf(b, "L%s,%s", coord(x), coord(y))
	}
	if closed && started && !clipped {
		b.WriteByte('Z')
	}
}

// coord formats a projected coordinate with fixed precision so path output
// is deterministic across runs.
func coord(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-0" || s == "-" {
		return "0"
	}
	return s
}
