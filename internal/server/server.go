// Package server implements the map preview server: it renders a TOML map
// definition to SVG on demand, caches the result by content hash, and
// answers spatial queries against the definition's GeoJSON layers.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/cache"
	"github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/layer"
	"github.com/geodetic-io/cartograph/pkg/mapspec"
)

// Server serves one map definition.
type Server struct {
	spec    *mapspec.Spec
	baseDir string
	cache   cache.Cache
	ttl     time.Duration
	metrics *Metrics
	logger  *log.Logger

	// queryMap is built once for the spatial query endpoint; its feature
	// indexes are immutable after construction.
	queryMap queryLayers
}

type queryLayers map[string]*layer.GeoJSON

// New builds a server for the given definition. Sources resolve relative
// to baseDir; a nil cache disables caching, a nil logger discards output.
func New(spec *mapspec.Spec, baseDir string, c cache.Cache, ttl time.Duration, logger *log.Logger) (*Server, error) {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m, err := mapspec.Build(spec, baseDir, logger)
	if err != nil {
		return nil, err
	}
	queryable := make(queryLayers)
	for _, id := range m.LayerIDs() {
		if inst, ok := m.LayerManager().Layer(id); ok {
			if gj, ok := inst.(*layer.GeoJSON); ok {
				queryable[id] = gj
			}
		}
	}

	return &Server{
		spec:     spec,
		baseDir:  baseDir,
		cache:    c,
		ttl:      ttl,
		metrics:  NewMetrics(),
		logger:   logger,
		queryMap: queryable,
	}, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/map.svg", s.handleMapSVG)
	r.Get("/query", s.handleQuery)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// handleMapSVG renders the definition, honoring optional w/h overrides
// and the render cache.
func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	spec := *s.spec
	if err := overrideDimensions(&spec, r); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	key := cache.RenderKey(spec.Hash(), spec.Width, spec.Height)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		s.metrics.IncCacheHit()
		writeSVG(w, data)
		return
	}
	s.metrics.IncCacheMiss()

	start := time.Now()
	m, err := mapspec.Build(&spec, s.baseDir, s.logger)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	data := m.Document().Render()
	s.metrics.ObserveRender(time.Since(start))

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "err", err)
	}
	writeSVG(w, data)
}

// queryResponse is the /query payload: matching features' properties, in
// collection order.
type queryResponse struct {
	Layer    string           `json:"layer"`
	Count    int              `json:"count"`
	Features []map[string]any `json:"features"`
}

// handleQuery answers bbox intersection queries against a GeoJSON layer:
// GET /query?layer=countries&bbox=minLon,minLat,maxLon,maxLat
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("layer")
	gj, ok := s.queryMap[id]
	if !ok {
		s.writeError(w, http.StatusNotFound,
			errors.New(errors.ErrCodeInvalidLayerID, "no queryable layer %q", id))
		return
	}

	bounds, err := parseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	features := gj.FeaturesIn(bounds)
	resp := queryResponse{
		Layer:    id,
		Count:    len(features),
		Features: make([]map[string]any, 0, len(features)),
	}
	for _, f := range features {
		resp.Features = append(resp.Features, featureProperties(f))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", "status", status, "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidMapSpec, errors.ErrCodeInvalidBounds, errors.ErrCodeUnknownProjection:
		return http.StatusBadRequest
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeSVG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}

func overrideDimensions(spec *mapspec.Spec, r *http.Request) error {
	q := r.URL.Query()
	for _, dim := range []struct {
		param string
		dst   *float64
	}{
		{"w", &spec.Width},
		{"h", &spec.Height},
	} {
		raw := q.Get(dim.param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidBounds, "invalid %s=%q", dim.param, raw)
		}
		*dim.dst = v
	}
	if spec.Width != 0 || spec.Height != 0 {
		if err := errors.ValidateDimensions(spec.Width, spec.Height); err != nil {
			return err
		}
	}
	return nil
}

// parseBBox parses "minLon,minLat,maxLon,maxLat".
func parseBBox(raw string) (geo.Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, errors.New(errors.ErrCodeInvalidBounds, "bbox must be minLon,minLat,maxLon,maxLat")
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Bounds{}, errors.New(errors.ErrCodeInvalidBounds, "invalid bbox component %q", p)
		}
		vals[i] = v
	}
	b := geo.FromBBox(vals)
	if !b.Valid() {
		return geo.Bounds{}, errors.New(errors.ErrCodeInvalidBounds, "invalid bbox %v", vals)
	}
	return b, nil
}

func featureProperties(f geojson.Feature) map[string]any {
	if f.Properties == nil {
		return map[string]any{}
	}
	return f.Properties
}
