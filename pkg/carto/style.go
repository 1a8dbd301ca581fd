package carto

import (
	"fmt"

	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Style holds the paint properties applied to rendered features. Each
// property may be a constant or, for data-driven styling, a per-feature
// function; when both are set the function wins.
//
// Zero values mean "unset", so a Style literal acts as a partial style in
// Merge and in the restyle operations. Numeric properties use pointers for
// the same reason; use Float to build them inline.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth *float64
	Opacity     *float64
	Dash        string

	FillFunc        func(geojson.Feature) string
	StrokeFunc      func(geojson.Feature) string
	StrokeWidthFunc func(geojson.Feature) float64
	OpacityFunc     func(geojson.Feature) float64
}

// Float returns a pointer to v, for building partial styles inline.
func Float(v float64) *float64 { return &v }

// DefaultStyle returns the base style merged under every legacy layer's
// caller-supplied style.
func DefaultStyle() Style {
	return Style{
		Fill:        "#ccc",
		Stroke:      "#333",
		StrokeWidth: Float(0.5),
		Opacity:     Float(1),
	}
}

// Merge returns a copy of s with every set property of partial applied
// over it. s and partial are left untouched.
func (s Style) Merge(partial Style) Style {
	if partial.Fill != "" {
		s.Fill = partial.Fill
	}
	if partial.Stroke != "" {
		s.Stroke = partial.Stroke
	}
	if partial.StrokeWidth != nil {
		s.StrokeWidth = partial.StrokeWidth
	}
	if partial.Opacity != nil {
		s.Opacity = partial.Opacity
	}
	if partial.Dash != "" {
		s.Dash = partial.Dash
	}
	if partial.FillFunc != nil {
		s.FillFunc = partial.FillFunc
	}
	if partial.StrokeFunc != nil {
		s.StrokeFunc = partial.StrokeFunc
	}
	if partial.StrokeWidthFunc != nil {
		s.StrokeWidthFunc = partial.StrokeWidthFunc
	}
	if partial.OpacityFunc != nil {
		s.OpacityFunc = partial.OpacityFunc
	}
	return s
}

// Constants returns a copy of s with the per-feature functions cleared,
// for applying a style at group level where no feature is in scope.
func (s Style) Constants() Style {
	s.FillFunc, s.StrokeFunc, s.StrokeWidthFunc, s.OpacityFunc = nil, nil, nil, nil
	return s
}

// HasFeatureFuncs reports whether any per-feature style function is set.
func (s Style) HasFeatureFuncs() bool {
	return s.FillFunc != nil || s.StrokeFunc != nil || s.StrokeWidthFunc != nil || s.OpacityFunc != nil
}

// Apply writes the resolved paint attributes for a feature onto an
// element, replacing previous values in place.
func (s Style) Apply(el *svg.Element, f geojson.Feature) {
	fill := s.Fill
	if s.FillFunc != nil {
		fill = s.FillFunc(f)
	}
	if fill != "" {
		el.SetAttr("fill", fill)
	}

	stroke := s.Stroke
	if s.StrokeFunc != nil {
		stroke = s.StrokeFunc(f)
	}
	if stroke != "" {
		el.SetAttr("stroke", stroke)
	}

	if s.StrokeWidthFunc != nil {
		el.SetAttr("stroke-width", fmtFloat(s.StrokeWidthFunc(f)))
	} else if s.StrokeWidth != nil {
		el.SetAttr("stroke-width", fmtFloat(*s.StrokeWidth))
	}

	if s.OpacityFunc != nil {
		el.SetAttr("opacity", fmtFloat(s.OpacityFunc(f)))
	} else if s.Opacity != nil {
		el.SetAttr("opacity", fmtFloat(*s.Opacity))
	}

	if s.Dash != "" {
		el.SetAttr("stroke-dasharray", s.Dash)
	}
}

func fmtFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	return s
}
