package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geodetic-io/cartograph/pkg/cache"
	"github.com/geodetic-io/cartograph/pkg/mapspec"
)

const testSpec = `
name = "test"
width = 400
height = 200
projection = "equirectangular"

[[layers]]
id = "countries"
type = "geojson"
source = "countries.geojson"

[[layers]]
id = "grid"
type = "graticule"
step = 30
`

const testGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "alpha"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}
		},
		{
			"type": "Feature",
			"properties": {"name": "omega"},
			"geometry": {"type": "Point", "coordinates": [100, -40]}
		}
	]
}`

func newTestServer(t *testing.T, c cache.Cache) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "countries.geojson"), []byte(testGeoJSON), 0644); err != nil {
		t.Fatal(err)
	}
	spec, err := mapspec.Parse([]byte(testSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := New(spec, dir, c, time.Minute, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestMapSVG(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Router()

	rec := get(t, h, "/map.svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<svg") || !strings.Contains(body, `id="countries"`) {
		t.Errorf("body missing rendered layers: %.120s...", body)
	}
}

func TestMapSVGDimensionOverride(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Router()

	rec := get(t, h, "/map.svg?w=800&h=400")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `viewBox="0 0 800 400"`) {
		t.Error("override dimensions not applied")
	}

	rec = get(t, h, "/map.svg?w=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for bad override = %d, want 400", rec.Code)
	}
	rec = get(t, h, "/map.svg?w=-5")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for negative override = %d, want 400", rec.Code)
	}
}

func TestMapSVGCaching(t *testing.T) {
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, fileCache)
	h := s.Router()

	first := get(t, h, "/map.svg")
	second := get(t, h, "/map.svg")
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached response differs from rendered response")
	}

	metrics := get(t, h, "/metrics").Body.String()
	if !strings.Contains(metrics, "cartograph_cache_hits_total 1") {
		t.Errorf("metrics missing cache hit:\n%s", metrics)
	}
	if !strings.Contains(metrics, "cartograph_cache_misses_total 1") {
		t.Errorf("metrics missing cache miss")
	}
	if !strings.Contains(metrics, "cartograph_renders_total 1") {
		t.Errorf("metrics missing render count")
	}
}

func TestQuery(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Router()

	rec := get(t, h, "/query?layer=countries&bbox=-5,-5,15,15")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Layer    string           `json:"layer"`
		Count    int              `json:"count"`
		Features []map[string]any `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Layer != "countries" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Features) != 1 || resp.Features[0]["name"] != "alpha" {
		t.Errorf("features = %v", resp.Features)
	}

	// A miss box.
	rec = get(t, h, "/query?layer=countries&bbox=60,60,70,70")
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}

func TestQueryErrors(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Router()

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown layer", "/query?layer=nope&bbox=0,0,1,1", http.StatusNotFound},
		{"non-queryable layer", "/query?layer=grid&bbox=0,0,1,1", http.StatusNotFound},
		{"missing bbox", "/query?layer=countries", http.StatusBadRequest},
		{"short bbox", "/query?layer=countries&bbox=1,2,3", http.StatusBadRequest},
		{"bad bbox value", "/query?layer=countries&bbox=a,b,c,d", http.StatusBadRequest},
		{"inverted bbox", "/query?layer=countries&bbox=10,10,-10,-10", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var e struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Code == "" {
				t.Errorf("error body = %s", rec.Body)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s.Router(), "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}
}

func TestConfigOpenCache(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"null", false},
		{"", false},
		{"file", false},
		{"bolt", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := Config{CacheBackend: tt.backend, CacheDir: t.TempDir()}
			c, err := cfg.OpenCache(httptest.NewRequest(http.MethodGet, "/", nil).Context())
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenCache: %v", err)
			}
			c.Close()
		})
	}
}
