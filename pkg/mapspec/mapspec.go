// Package mapspec defines the declarative TOML map definition the CLI and
// preview server consume, and builds live carto.Map values from it.
//
// A definition names the viewport, the projection, and an ordered list of
// layer declarations. Layer types map one-to-one onto the concrete layers
// of pkg/layer; GeoJSON sources are file paths resolved relative to the
// definition, or http(s) URLs fetched through a cached client.
package mapspec

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/cache"
	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/httputil"
	"github.com/geodetic-io/cartograph/pkg/layer"
	"github.com/geodetic-io/cartograph/pkg/legend"
	"github.com/geodetic-io/cartograph/pkg/observability"
)

// Spec is a parsed map definition.
type Spec struct {
	Name       string      `toml:"name"`
	Width      float64     `toml:"width"`
	Height     float64     `toml:"height"`
	Projection string      `toml:"projection"`
	Layers     []LayerSpec `toml:"layers"`
}

// LayerSpec declares one layer. Which fields apply depends on Type; the
// rest are ignored.
type LayerSpec struct {
	ID     string `toml:"id"`
	Type   string `toml:"type"`
	Source string `toml:"source"` // geojson, circle, spike
	Hidden bool   `toml:"hidden"`
	Z      *int   `toml:"z"`

	Step     float64        `toml:"step"`     // graticule
	Radius   float64        `toml:"radius"`   // circle
	Property string         `toml:"property"` // data-driven fill / radius / height
	Scale    *legend.Config `toml:"scale"`    // choropleth fill, legend
	Title    string         `toml:"title"`    // legend
	X        float64        `toml:"x"`        // legend position
	Y        float64        `toml:"y"`

	Labels      []LabelSpec  `toml:"labels"`      // text
	Connections [][4]float64 `toml:"connections"` // line: lon1, lat1, lon2, lat2

	Style StyleSpec `toml:"style"`
}

// LabelSpec declares one text annotation.
type LabelSpec struct {
	Text string  `toml:"text"`
	Lon  float64 `toml:"lon"`
	Lat  float64 `toml:"lat"`
	Dx   float64 `toml:"dx"`
	Dy   float64 `toml:"dy"`
}

// StyleSpec is the TOML form of a partial carto.Style.
type StyleSpec struct {
	Fill        string   `toml:"fill"`
	Stroke      string   `toml:"stroke"`
	StrokeWidth *float64 `toml:"stroke_width"`
	Opacity     *float64 `toml:"opacity"`
	Dash        string   `toml:"dash"`
}

func (s StyleSpec) toStyle() carto.Style {
	return carto.Style{
		Fill:        s.Fill,
		Stroke:      s.Stroke,
		StrokeWidth: s.StrokeWidth,
		Opacity:     s.Opacity,
		Dash:        s.Dash,
	}
}

// layerTypes is the set Build can construct.
var layerTypes = map[string]bool{
	"geojson":   true,
	"graticule": true,
	"outline":   true,
	"circle":    true,
	"spike":     true,
	"line":      true,
	"text":      true,
	"legend":    true,
}

// Load reads and parses a definition file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "map definition %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML definition.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMapSpec, err, "decode map definition")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the structural constraints Build relies on.
func (s *Spec) Validate() error {
	if s.Width != 0 || s.Height != 0 {
		if err := errors.ValidateDimensions(s.Width, s.Height); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMapSpec, err, "map dimensions")
		}
	}
	seen := make(map[string]bool, len(s.Layers))
	for i, ls := range s.Layers {
		if ls.ID == "" {
			return errors.New(errors.ErrCodeInvalidMapSpec, "layer %d has no id", i)
		}
		if err := errors.ValidateLayerID(ls.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMapSpec, err, "layer %d", i)
		}
		if seen[ls.ID] {
			return errors.New(errors.ErrCodeInvalidMapSpec, "duplicate layer id %q", ls.ID)
		}
		seen[ls.ID] = true
		if ls.Type == "" {
			return errors.New(errors.ErrCodeInvalidMapSpec, "layer %q has no type", ls.ID)
		}
		switch ls.Type {
		case "geojson", "circle", "spike":
			if ls.Source == "" {
				return errors.New(errors.ErrCodeInvalidMapSpec, "layer %q needs a source", ls.ID)
			}
		case "legend":
			if ls.Scale == nil {
				return errors.New(errors.ErrCodeInvalidMapSpec, "layer %q needs a scale", ls.ID)
			}
		}
	}
	return nil
}

// Hash returns a stable content hash of the definition, the cache key
// component that invalidates cached renders when the definition changes.
func (s *Spec) Hash() string {
	data, _ := json.Marshal(s)
	return cache.Hash(data)
}

// Build assembles a live map from the definition. Sources are resolved
// relative to baseDir. An unknown layer type fails with
// UNSUPPORTED_VARIANT; validation problems surface before any rendering.
func Build(s *Spec, baseDir string, logger *log.Logger) (*carto.Map, error) {
	ctx := context.Background()
	observability.Build().OnBuildStart(ctx, s.Name, len(s.Layers))
	start := time.Now()
	m, err := build(s, baseDir, logger)
	observability.Build().OnBuildComplete(ctx, s.Name, len(s.Layers), time.Since(start), err)
	return m, err
}

func build(s *Spec, baseDir string, logger *log.Logger) (*carto.Map, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	opts := carto.Options{Width: s.Width, Height: s.Height, Logger: logger}
	if s.Projection != "" {
		opts.Projection = s.Projection
	}
	m, err := carto.New(opts)
	if err != nil {
		return nil, err
	}

	for _, ls := range s.Layers {
		l, err := buildLayer(ls, baseDir)
		if err != nil {
			return nil, err
		}
		if err := m.AddLayer(l); err != nil {
			return nil, err
		}
		if ls.Z != nil {
			m.SetLayerZIndex(ls.ID, *ls.Z)
		}
		if ls.Hidden {
			m.SetLayerVisibility(ls.ID, false)
		}
	}
	return m, nil
}

func buildLayer(ls LayerSpec, baseDir string) (carto.Layer, error) {
	style := ls.Style.toStyle()

	switch ls.Type {
	case "geojson":
		fc, err := loadSource(baseDir, ls.Source)
		if err != nil {
			return nil, err
		}
		l, err := layer.NewGeoJSON(ls.ID, fc, style)
		if err != nil {
			return nil, err
		}
		if ls.Scale != nil && ls.Property != "" {
			scale, err := legend.New(*ls.Scale)
			if err != nil {
				return nil, err
			}
			prop := ls.Property
			l.SetStyle(carto.Style{FillFunc: func(f geojson.Feature) string {
				return scale.Color(propertyOf(f, prop))
			}})
		}
		return l, nil

	case "graticule":
		return layer.NewGraticule(ls.ID, ls.Step, style), nil

	case "outline":
		return layer.NewOutline(ls.ID, style), nil

	case "circle":
		fc, err := loadSource(baseDir, ls.Source)
		if err != nil {
			return nil, err
		}
		l, err := layer.NewCircle(ls.ID, fc, ls.Radius, style)
		if err != nil {
			return nil, err
		}
		if ls.Property != "" {
			prop := ls.Property
			l.SetRadiusFunc(func(f geojson.Feature) float64 {
				return floatProperty(f, prop)
			})
		}
		return l, nil

	case "spike":
		fc, err := loadSource(baseDir, ls.Source)
		if err != nil {
			return nil, err
		}
		prop := ls.Property
		l, err := layer.NewSpike(ls.ID, fc, func(f geojson.Feature) float64 {
			return floatProperty(f, prop)
		}, style)
		if err != nil {
			return nil, err
		}
		return l, nil

	case "line":
		conns := make([]layer.Connection, len(ls.Connections))
		for i, c := range ls.Connections {
			conns[i] = layer.Connection{From: [2]float64{c[0], c[1]}, To: [2]float64{c[2], c[3]}}
		}
		return layer.NewLine(ls.ID, conns, style), nil

	case "text":
		labels := make([]layer.Label, len(ls.Labels))
		for i, lb := range ls.Labels {
			labels[i] = layer.Label{Text: lb.Text, At: [2]float64{lb.Lon, lb.Lat}, Dx: lb.Dx, Dy: lb.Dy}
		}
		return layer.NewText(ls.ID, labels, style), nil

	case "legend":
		scale, err := legend.New(*ls.Scale)
		if err != nil {
			return nil, err
		}
		return layer.NewLegend(ls.ID, scale, ls.Title, ls.X, ls.Y, style), nil

	default:
		return nil, errors.New(errors.ErrCodeUnsupportedVariant,
			"unknown layer type %q", ls.Type)
	}
}

// propertyOf looks up a feature property, nil when absent.
func propertyOf(f geojson.Feature, key string) any {
	if f.Properties == nil {
		return nil
	}
	return f.Properties[key]
}

// floatProperty coerces a numeric property, 0 when absent or non-numeric.
func floatProperty(f geojson.Feature, key string) float64 {
	switch v := propertyOf(f, key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func loadSource(baseDir, source string) (any, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err := remoteClient().Fetch(context.Background(), source)
		if err != nil {
			return nil, err
		}
		return geo.DecodeJSON(data)
	}

	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "source %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	return geo.DecodeJSON(data)
}

var (
	remoteOnce sync.Once
	remote     *httputil.Client
)

// remoteClient returns the shared client for URL sources. Fetched sources
// are cached on disk for a day so repeated renders of the same definition
// do not refetch; if the user cache directory is unavailable the client
// falls back to uncached fetches.
func remoteClient() *httputil.Client {
	remoteOnce.Do(func() {
		var c cache.Cache
		if base, err := os.UserCacheDir(); err == nil {
			if fc, err := cache.NewFileCache(filepath.Join(base, "cartograph", "sources")); err == nil {
				c = fc
			}
		}
		remote = httputil.NewClient(nil, c, 24*time.Hour)
	})
	return remote
}

// SetRemoteClient overrides the client used for URL sources. Call it at
// startup, before the first Build.
func SetRemoteClient(c *httputil.Client) {
	remoteOnce.Do(func() {})
	remote = c
}
