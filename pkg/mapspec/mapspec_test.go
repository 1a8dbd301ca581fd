package mapspec

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/httputil"
)

const worldSpec = `
name = "world"
width = 960
height = 500
projection = "natural-earth"

[[layers]]
id = "grid"
type = "graticule"
step = 20

[[layers]]
id = "countries"
type = "geojson"
source = "countries.geojson"
property = "density"

[layers.scale]
kind = "threshold"
domain = [10.0, 50.0]
colors = ["#fee", "#fa5", "#d22"]

[layers.style]
stroke = "#fff"
stroke_width = 0.25

[[layers]]
id = "key"
type = "legend"
title = "People per km2"
x = 20.0
y = 40.0

[layers.scale]
kind = "threshold"
domain = [10.0, 50.0]
colors = ["#fee", "#fa5", "#d22"]
`

const countriesJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"density": 80},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}
		}
	]
}`

func writeSpecDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "countries.geojson"), []byte(countriesJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(worldSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "world" || s.Width != 960 || s.Projection != "natural-earth" {
		t.Errorf("header = %+v", s)
	}
	if len(s.Layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(s.Layers))
	}
	if s.Layers[1].Scale == nil || len(s.Layers[1].Scale.Domain) != 2 {
		t.Errorf("countries scale = %+v", s.Layers[1].Scale)
	}
	if w := s.Layers[1].Style.StrokeWidth; w == nil || *w != 0.25 {
		t.Errorf("stroke_width = %v", w)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad toml", `width = "not a number"`},
		{"negative size", "width = -5\nheight = 100"},
		{"layer without id", "[[layers]]\ntype = \"outline\""},
		{"layer without type", "[[layers]]\nid = \"x\""},
		{"duplicate ids", "[[layers]]\nid = \"x\"\ntype = \"outline\"\n[[layers]]\nid = \"x\"\ntype = \"outline\""},
		{"geojson without source", "[[layers]]\nid = \"x\"\ntype = \"geojson\""},
		{"legend without scale", "[[layers]]\nid = \"x\"\ntype = \"legend\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.toml)); !errors.Is(err, errors.ErrCodeInvalidMapSpec) {
				t.Errorf("code = %v, want INVALID_MAPSPEC", errors.GetCode(err))
			}
		})
	}
}

func TestHash(t *testing.T) {
	a, err := Parse([]byte(worldSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse([]byte(worldSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Hash() != b.Hash() {
		t.Error("equal definitions hashed differently")
	}

	b.Width = 1024
	if a.Hash() == b.Hash() {
		t.Error("changed definition kept the same hash")
	}
}

func TestBuild(t *testing.T) {
	dir := writeSpecDir(t)
	s, err := Parse([]byte(worldSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m, err := Build(s, dir, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ids := m.LayerIDs()
	if len(ids) != 3 {
		t.Fatalf("layers = %v, want 3", ids)
	}
	out := string(m.Render())
	// The single feature has density 80, the top threshold bin.
	if !strings.Contains(out, `fill="#d22"`) {
		t.Error("choropleth fill missing from output")
	}
	if !strings.Contains(out, "People per km2") {
		t.Error("legend title missing from output")
	}
}

func TestBuildUnknownLayerType(t *testing.T) {
	s := &Spec{Layers: []LayerSpec{{ID: "x", Type: "hexbin"}}}
	if _, err := Build(s, ".", nil); !errors.Is(err, errors.ErrCodeUnsupportedVariant) {
		t.Errorf("code = %v, want UNSUPPORTED_VARIANT", errors.GetCode(err))
	}
}

func TestBuildMissingSource(t *testing.T) {
	s := &Spec{Layers: []LayerSpec{{ID: "x", Type: "geojson", Source: "nope.geojson"}}}
	if _, err := Build(s, t.TempDir(), nil); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := writeSpecDir(t)
	path := filepath.Join(dir, "world.toml")
	if err := os.WriteFile(path, []byte(worldSpec), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Build(s, dir, nil); err != nil {
		t.Fatalf("Build after Load: %v", err)
	}
}

func TestBuildRemoteSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/countries.geojson" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(countriesJSON))
	}))
	defer srv.Close()
	SetRemoteClient(httputil.NewClient(srv.Client(), nil, 0))

	spec := &Spec{
		Width:      400,
		Height:     200,
		Projection: "equirectangular",
		Layers: []LayerSpec{
			{ID: "countries", Type: "geojson", Source: srv.URL + "/countries.geojson"},
		},
	}
	m, err := Build(spec, "", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(string(m.Document().Render()), `id="countries"`) {
		t.Error("remote layer missing from output")
	}

	spec.Layers[0].Source = srv.URL + "/absent.geojson"
	if _, err := Build(spec, "", nil); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}
