// Package pkg provides the core libraries for Cartograph thematic mapping.
//
// # Overview
//
// Cartograph turns declarative map definitions into layered SVG maps:
// choropleths, symbol maps, connection arcs, graticules, and legends,
// drawn through a pluggable geographic projection. The pkg directory is
// organized into these areas:
//
//  1. [svg] - Retained-mode SVG document model
//  2. [projection] - Geographic projections and SVG path generation
//  3. [geo] - GeoJSON decoding, normalization, and spatial indexing
//  4. [carto] - The map: layer manager and rendering pipeline
//  5. [layer] - Concrete layer types (GeoJSON, graticule, symbols, text, legend)
//  6. [legend] - Color scales (threshold, ordinal)
//  7. [mapspec] - TOML map definitions and the map builder
//  8. [cache], [httputil], [observability] - Render caching, remote source
//     fetching, and instrumentation hooks
//
// # Architecture
//
// The typical data flow:
//
//	TOML definition / GeoJSON sources
//	         ↓
//	    [mapspec] package (parse, validate, build)
//	         ↓
//	    [carto] package (layer manager + scene renderer)
//	         ↓
//	    [layer] + [projection] packages (geometry → SVG paths)
//	         ↓
//	    SVG output
//
// # Quick Start
//
// Build a map and add a layer:
//
//	import (
//	    "github.com/geodetic-io/cartograph/pkg/carto"
//	    "github.com/geodetic-io/cartograph/pkg/layer"
//	)
//
//	m, _ := carto.New(carto.Options{Projection: "natural-earth"})
//	l, _ := layer.NewGeoJSON("countries", featureCollection, carto.Style{Fill: "#cde"})
//	_ = m.AddLayer(l)
//	svg := m.Render()
//
// Or drive everything from a definition file:
//
//	spec, _ := mapspec.Load("world.toml")
//	m, _ := mapspec.Build(spec, filepath.Dir("world.toml"), logger)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/carto/...    # Specific package
//	go test -run Example       # Examples only
//
// [svg]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/svg
// [projection]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/projection
// [geo]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/geo
// [carto]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/carto
// [layer]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/layer
// [legend]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/legend
// [mapspec]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/mapspec
// [cache]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/geodetic-io/cartograph/pkg/observability
package pkg
