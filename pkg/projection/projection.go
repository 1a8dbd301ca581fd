// Package projection provides cartographic projections and the path
// generator that turns geographic geometry into SVG path data.
//
// A Projection is a value type: configuring, re-fitting, or rotating one
// produces a new value rather than mutating shared state. Consumers only
// ever observe a new projection through an explicit update, never through
// aliasing, which keeps rendered output and projection state in lockstep.
//
// The provider resolves either a projection name or an existing Projection
// value, and always applies the same deterministic default fit:
//
//	scale     = min(width, height) / 6.5
//	translate = (width/2, height/2)
//
// The default is a reasonable whole-world fit, not a tight bounding-box
// fit. Callers needing an exact fit apply FitBounds on the map afterward.
package projection

import (
	"math"
	"sort"
	"strings"

	"github.com/geodetic-io/cartograph/pkg/errors"
)

// rawFunc maps spherical coordinates (radians) to unit projected
// coordinates with y increasing upward. ok is false when the point is not
// representable (e.g. the far hemisphere of an orthographic view).
type rawFunc func(lambda, phi float64) (x, y float64, ok bool)

// Projection is a configured forward mapping from geographic coordinates
// (degrees) to pixel coordinates. The zero value is not usable - obtain
// projections from New.
type Projection struct {
	// Name is the registry name this projection was resolved from.
	Name string
	// Scale is the unit-to-pixel scale factor.
	Scale float64
	// TranslateX, TranslateY position the projection origin in pixels.
	TranslateX, TranslateY float64
	// Rotate holds the [lambda, phi] rotation in degrees applied before
	// the raw projection. Orthographic views use it to pick the visible
	// hemisphere.
	Rotate [2]float64

	raw    rawFunc
	invRaw rawFunc
}

// Valid reports whether the projection has been resolved by the provider.
func (p Projection) Valid() bool { return p.raw != nil }

// Invertible reports whether Invert is supported.
func (p Projection) Invertible() bool { return p.invRaw != nil }

// Project maps a longitude/latitude in degrees to pixel coordinates.
// ok is false when the point has no representation under this projection.
func (p Projection) Project(lon, lat float64) (x, y float64, ok bool) {
	if p.raw == nil {
		return 0, 0, false
	}
	lambda, phi := rotateForward(toRadians(lon), toRadians(lat), p.Rotate)
	ux, uy, ok := p.raw(lambda, phi)
	if !ok {
		return 0, 0, false
	}
	return p.TranslateX + p.Scale*ux, p.TranslateY - p.Scale*uy, true
}

// Invert maps pixel coordinates back to longitude/latitude in degrees.
// ok is false when the projection has no inverse or the point is outside
// the projection's domain.
func (p Projection) Invert(x, y float64) (lon, lat float64, ok bool) {
	if p.invRaw == nil || p.Scale == 0 {
		return 0, 0, false
	}
	ux := (x - p.TranslateX) / p.Scale
	uy := (p.TranslateY - y) / p.Scale
	lambda, phi, ok := p.invRaw(ux, uy)
	if !ok {
		return 0, 0, false
	}
	lambda, phi = rotateInverse(lambda, phi, p.Rotate)
	return toDegrees(lambda), toDegrees(phi), true
}

// WithScaleTranslate returns a copy with the given scale and translate.
func (p Projection) WithScaleTranslate(scale, tx, ty float64) Projection {
	p.Scale = scale
	p.TranslateX = tx
	p.TranslateY = ty
	return p
}

// WithRotation returns a copy rotated by [lambda, phi] degrees.
func (p Projection) WithRotation(lambda, phi float64) Projection {
	p.Rotate = [2]float64{lambda, phi}
	return p
}

// Reference returns a copy with unit scale and zero translate, used for
// fit computations that must be independent of the current viewport fit.
func (p Projection) Reference() Projection {
	return p.WithScaleTranslate(1, 0, 0)
}

type registryEntry struct {
	raw rawFunc
	inv rawFunc
}

var registry = map[string]registryEntry{
	"natural-earth":   {raw: naturalEarthRaw},
	"mercator":        {raw: mercatorRaw, inv: mercatorInvert},
	"orthographic":    {raw: orthographicRaw},
	"equirectangular": {raw: equirectangularRaw, inv: equirectangularInvert},
}

var aliases = map[string]string{
	"natural-earth1": "natural-earth",
	"naturalearth":   "natural-earth",
	"plate-carree":   "equirectangular",
	"globe":          "orthographic",
}

// Names returns the supported projection names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New resolves a projection spec against a viewport and applies the
// deterministic default fit.
//
// spec may be a registry name (string) or an existing Projection value.
// Passing an existing projection preserves its family and rotation while
// re-fitting scale and translate to the new viewport; this is the resize
// path. Unknown names fail with an UNKNOWN_PROJECTION error.
func New(spec any, width, height float64) (Projection, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return Projection{}, err
	}

	var p Projection
	switch v := spec.(type) {
	case nil:
		p = fromName("natural-earth")
	case string:
		name := strings.ToLower(strings.TrimSpace(v))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, ok := registry[name]; !ok {
			return Projection{}, errors.New(errors.ErrCodeUnknownProjection,
				"unknown projection %q (supported: %s)", v, strings.Join(Names(), ", "))
		}
		p = fromName(name)
	case Projection:
		if !v.Valid() {
			return Projection{}, errors.New(errors.ErrCodeUnknownProjection,
				"projection value was not resolved by this provider")
		}
		p = v
	default:
		return Projection{}, errors.New(errors.ErrCodeUnknownProjection,
			"unsupported projection spec type %T", spec)
	}

	p.Scale = math.Min(width, height) / 6.5
	p.TranslateX = width / 2
	p.TranslateY = height / 2
	return p, nil
}

func fromName(name string) Projection {
	entry := registry[name]
	return Projection{Name: name, raw: entry.raw, invRaw: entry.inv}
}

// rotateForward applies the [lambda, phi] rotation (degrees) to spherical
// coordinates in radians.
func rotateForward(lambda, phi float64, rotate [2]float64) (float64, float64) {
	if rotate[0] != 0 {
		lambda = normalizeLambda(lambda + toRadians(rotate[0]))
	}
	if rotate[1] == 0 {
		return lambda, phi
	}
	deltaPhi := toRadians(rotate[1])
	cosPhi := math.Cos(phi)
	x := math.Cos(lambda) * cosPhi
	y := math.Sin(lambda) * cosPhi
	z := math.Sin(phi)
	k := z*math.Cos(deltaPhi) + x*math.Sin(deltaPhi)
	return math.Atan2(y, x*math.Cos(deltaPhi)-z*math.Sin(deltaPhi)), math.Asin(clamp(k, -1, 1))
}

// rotateInverse undoes rotateForward.
func rotateInverse(lambda, phi float64, rotate [2]float64) (float64, float64) {
	if rotate[1] != 0 {
		deltaPhi := -toRadians(rotate[1])
		cosPhi := math.Cos(phi)
		x := math.Cos(lambda) * cosPhi
		y := math.Sin(lambda) * cosPhi
		z := math.Sin(phi)
		k := z*math.Cos(deltaPhi) + x*math.Sin(deltaPhi)
		lambda = math.Atan2(y, x*math.Cos(deltaPhi)-z*math.Sin(deltaPhi))
		phi = math.Asin(clamp(k, -1, 1))
	}
	if rotate[0] != 0 {
		lambda = normalizeLambda(lambda - toRadians(rotate[0]))
	}
	return lambda, phi
}

// mercatorLatLimit clamps latitudes so the Mercator pole singularity stays
// out of the projected output.
const mercatorLatLimit = 85.05113 * math.Pi / 180

func mercatorRaw(lambda, phi float64) (float64, float64, bool) {
	phi = clamp(phi, -mercatorLatLimit, mercatorLatLimit)
	return lambda, math.Log(math.Tan(math.Pi/4 + phi/2)), true
}

func mercatorInvert(x, y float64) (float64, float64, bool) {
	return x, 2*math.Atan(math.Exp(y)) - math.Pi/2, true
}

func equirectangularRaw(lambda, phi float64) (float64, float64, bool) {
	return lambda, phi, true
}

func equirectangularInvert(x, y float64) (float64, float64, bool) {
	if math.Abs(x) > math.Pi || math.Abs(y) > math.Pi/2 {
		return 0, 0, false
	}
	return x, y, true
}

// naturalEarthRaw is the Natural Earth I polynomial approximation.
func naturalEarthRaw(lambda, phi float64) (float64, float64, bool) {
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return x, y, true
}

func orthographicRaw(lambda, phi float64) (float64, float64, bool) {
	cosPhi := math.Cos(phi)
	// Points on the far hemisphere have no forward image.
	if cosPhi*math.Cos(lambda) < -1e-9 {
		return 0, 0, false
	}
	return cosPhi * math.Sin(lambda), math.Sin(phi), true
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeLambda(lambda float64) float64 {
	for lambda > math.Pi {
		lambda -= 2 * math.Pi
	}
	for lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	return lambda
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
