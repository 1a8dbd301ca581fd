// Package legend provides the color scales that drive choropleth styling
// and legend rendering.
//
// Two scale kinds are supported: Threshold maps a continuous value into
// one of n+1 color bins split by n ascending thresholds; Ordinal maps
// discrete category values onto a color cycle. Both satisfy Scale, so a
// legend layer can render swatches for either without knowing the kind.
package legend

import (
	"fmt"
	"sort"

	"github.com/geodetic-io/cartograph/pkg/errors"
)

// FallbackColor is returned for values a scale cannot place (missing
// properties, non-numeric input to a threshold scale).
const FallbackColor = "#ccc"

// Kind names a scale variant.
type Kind string

const (
	KindThreshold Kind = "threshold"
	KindOrdinal   Kind = "ordinal"
)

// Entry is one legend row: a swatch color and its label.
type Entry struct {
	Label string
	Color string
}

// Scale maps raw feature property values to colors.
type Scale interface {
	// Color resolves a value to a color. Values outside the scale's
	// domain resolve to FallbackColor.
	Color(value any) string
	// Entries returns the legend rows in display order.
	Entries() []Entry
}

// Config declares a scale in data form, as decoded from a map definition.
type Config struct {
	Kind   Kind      `toml:"kind"`
	Domain []float64 `toml:"domain"` // threshold cut points, ascending
	Values []string  `toml:"values"` // ordinal categories
	Colors []string  `toml:"colors"`
}

// New builds a scale from its declaration. An unknown kind fails with
// UNSUPPORTED_VARIANT; mismatched domain/color lengths fail with
// INVALID_SCALE.
func New(cfg Config) (Scale, error) {
	switch cfg.Kind {
	case KindThreshold:
		return NewThreshold(cfg.Domain, cfg.Colors)
	case KindOrdinal:
		return NewOrdinal(cfg.Values, cfg.Colors)
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedVariant,
			"unknown scale kind %q (supported: threshold, ordinal)", cfg.Kind)
	}
}

// Threshold bins a continuous value by n ascending cut points into n+1
// colors: values below the first cut take the first color, values at or
// above the last cut take the last.
type Threshold struct {
	domain []float64
	colors []string
}

// NewThreshold validates and builds a threshold scale. The domain must be
// non-empty and strictly ascending, with exactly len(domain)+1 colors.
func NewThreshold(domain []float64, colors []string) (*Threshold, error) {
	if len(domain) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScale, "threshold scale needs at least one cut point")
	}
	if !sort.Float64sAreSorted(domain) {
		return nil, errors.New(errors.ErrCodeInvalidScale, "threshold domain must be ascending, got %v", domain)
	}
	for i := 1; i < len(domain); i++ {
		if domain[i] == domain[i-1] {
			return nil, errors.New(errors.ErrCodeInvalidScale, "threshold domain has duplicate cut point %g", domain[i])
		}
	}
	if len(colors) != len(domain)+1 {
		return nil, errors.New(errors.ErrCodeInvalidScale,
			"threshold scale needs %d colors for %d cut points, got %d", len(domain)+1, len(domain), len(colors))
	}
	return &Threshold{
		domain: append([]float64(nil), domain...),
		colors: append([]string(nil), colors...),
	}, nil
}

// Color bins a numeric value. Non-numeric values resolve to FallbackColor.
func (t *Threshold) Color(value any) string {
	v, ok := toFloat(value)
	if !ok {
		return FallbackColor
	}
	i := sort.SearchFloat64s(t.domain, v)
	// SearchFloat64s returns the insertion point; a value equal to a cut
	// belongs in the bin above it.
	if i < len(t.domain) && t.domain[i] == v {
		i++
	}
	return t.colors[i]
}

// Entries labels each bin by its bounding cut points.
func (t *Threshold) Entries() []Entry {
	entries := make([]Entry, len(t.colors))
	for i, c := range t.colors {
		var label string
		switch {
		case i == 0:
			label = fmt.Sprintf("< %g", t.domain[0])
		case i == len(t.colors)-1:
			label = fmt.Sprintf(">= %g", t.domain[len(t.domain)-1])
		default:
			label = fmt.Sprintf("%g - %g", t.domain[i-1], t.domain[i])
		}
		entries[i] = Entry{Label: label, Color: c}
	}
	return entries
}

// Ordinal maps discrete category values onto a fixed color list. Declared
// values bind in order, wrapping when there are more values than colors;
// undeclared values resolve to FallbackColor.
type Ordinal struct {
	order  []string
	colors map[string]string
}

// NewOrdinal validates and builds an ordinal scale.
func NewOrdinal(values, colors []string) (*Ordinal, error) {
	if len(values) == 0 || len(colors) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScale, "ordinal scale needs values and colors")
	}
	o := &Ordinal{colors: make(map[string]string, len(values))}
	for i, v := range values {
		if _, dup := o.colors[v]; dup {
			return nil, errors.New(errors.ErrCodeInvalidScale, "ordinal scale has duplicate value %q", v)
		}
		o.colors[v] = colors[i%len(colors)]
		o.order = append(o.order, v)
	}
	return o, nil
}

// Color resolves a category value. Values are matched by their string
// form, so numeric property values still bind to string-declared
// categories.
func (o *Ordinal) Color(value any) string {
	if value == nil {
		return FallbackColor
	}
	if c, ok := o.colors[fmt.Sprint(value)]; ok {
		return c
	}
	return FallbackColor
}

// Entries returns one row per declared value, in declaration order.
func (o *Ordinal) Entries() []Entry {
	entries := make([]Entry, len(o.order))
	for i, v := range o.order {
		entries[i] = Entry{Label: v, Color: o.colors[v]}
	}
	return entries
}

// toFloat coerces the numeric types a decoded GeoJSON property or map
// definition can carry.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
