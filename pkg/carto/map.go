// Package carto implements the core of the Cartograph library: the map
// facade, the layer manager, and the scene renderer.
//
// A Map composes named, independently stylable, z-ordered layers over a
// shared projection and a retained SVG scene graph. Layers come in two
// generations that share one registry: legacy data descriptors (a feature
// collection plus a style, rendered by the scene renderer) and
// self-rendering layer instances satisfying the Layer contract.
//
// The invariant the whole package is built around: every projection
// change that affects visual output flows through one canonical sequence
// - resolve the new projection value, update the scene renderer's path
// generator, broadcast to projection-aware layers, then re-render. Layers
// never observe projection changes through shared references.
//
// Example:
//
//	m, err := carto.New(carto.Options{Width: 960, Height: 500, Projection: "natural-earth"})
//	if err != nil {
//	    return err
//	}
//	m.AddDataLayer("countries", carto.LayerOptions{Data: countries})
//	m.FitBounds([4]float64{-11, 35, 32, 61}, 20)
//	os.WriteFile("map.svg", m.Render(), 0o644)
package carto

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/geo"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// DefaultWidth and DefaultHeight size maps constructed without explicit
// dimensions.
const (
	DefaultWidth  = 960.0
	DefaultHeight = 500.0
)

// Options configures a Map.
type Options struct {
	// Host is an existing document to attach to. When nil the map owns a
	// fresh document.
	Host *svg.Document
	// Container is the id of the element inside Host to render into.
	// Ignored when Host is nil; an empty value targets the host root.
	Container string
	// Width and Height set the viewport; zero values use the defaults.
	Width, Height float64
	// Projection is a projection name or an existing
	// projection.Projection value; nil selects natural-earth.
	Projection any
	// Defs populate the map's <defs> block (filters, patterns,
	// gradients) before any layer renders.
	Defs []func(defs *svg.Element)
	// Logger receives debug output; nil discards it.
	Logger *log.Logger
}

// Map is the top-level facade: it owns the SVG root, the current
// projection, and delegates all layer operations to its layer manager.
type Map struct {
	doc     *svg.Document
	root    *svg.Element // the map's <svg> element
	group   *svg.Element // main <g> all layers render into
	width   float64
	height  float64
	proj    projection.Projection
	render  *SceneRenderer
	manager *Manager
	logger  *log.Logger
}

// New constructs a map, resolves its projection, and wires the layer
// manager's context. It fails with CONTAINER_NOT_FOUND when a host
// container id does not resolve, and with UNKNOWN_PROJECTION for an
// unknown projection spec.
func New(opts Options) (*Map, error) {
	width, height := opts.Width, opts.Height
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	var (
		doc  *svg.Document
		root *svg.Element
	)
	if opts.Host == nil {
		doc = svg.NewDocument(width, height)
		root = doc.Root()
	} else {
		doc = opts.Host
		target := doc.Root()
		if opts.Container != "" {
			target = doc.FindByID(opts.Container)
			if target == nil {
				return nil, errors.New(errors.ErrCodeContainerNotFound,
					"container %q not found in host document", opts.Container)
			}
		}
		root = svg.NewElement("svg").
			SetAttr("width", fmtFloat(width)).
			SetAttr("height", fmtFloat(height)).
			SetAttr("viewBox", fmt.Sprintf("0 0 %s %s", fmtFloat(width), fmtFloat(height)))
		target.AppendChild(root)
	}

	proj, err := projection.New(opts.Projection, width, height)
	if err != nil {
		return nil, err
	}

	if len(opts.Defs) > 0 {
		defs := svg.NewElement("defs")
		for _, fn := range opts.Defs {
			if fn != nil {
				fn(defs)
			}
		}
		root.AppendChild(defs)
	}

	group := svg.NewElement("g").SetAttr("class", "carto-map")
	root.AppendChild(group)

	renderer := NewSceneRenderer(group, proj)
	manager := NewManager(renderer, opts.Logger)
	manager.SetContext(group, proj)

	m := &Map{
		doc:     doc,
		root:    root,
		group:   group,
		width:   width,
		height:  height,
		proj:    proj,
		render:  renderer,
		manager: manager,
		logger:  manager.logger,
	}
	return m, nil
}

// AddLayer registers and renders a self-rendering layer instance.
func (m *Map) AddLayer(l Layer) error {
	return m.manager.AddLayerInstance(l)
}

// AddDataLayer registers and renders a legacy data layer, returning the
// resolved layer id.
func (m *Map) AddDataLayer(id string, opts LayerOptions) (string, error) {
	return m.manager.AddLayer(id, opts)
}

// RemoveLayer removes a layer by id; unknown ids are a no-op.
func (m *Map) RemoveLayer(id string) { m.manager.RemoveLayer(id) }

// UpdateLayerStyle merges a partial style into a layer.
func (m *Map) UpdateLayerStyle(id string, partial Style) {
	m.manager.UpdateLayerStyle(id, partial)
}

// SetLayerVisibility toggles a layer's visibility.
func (m *Map) SetLayerVisibility(id string, visible bool) {
	m.manager.SetLayerVisibility(id, visible)
}

// SetLayerZIndex changes a layer's paint order.
func (m *Map) SetLayerZIndex(id string, z int) { m.manager.SetLayerZIndex(id, z) }

// ClearAllLayers destroys every layer.
func (m *Map) ClearAllLayers() { m.manager.ClearAll() }

// LayerIDs returns registered layer ids in insertion order.
func (m *Map) LayerIDs() []string { return m.manager.LayerIDs() }

// SetProjection resolves a new projection spec and runs the canonical
// projection-change sequence: update the scene renderer, broadcast to
// layers, re-render everything.
func (m *Map) SetProjection(spec any) error {
	p, err := projection.New(spec, m.width, m.height)
	if err != nil {
		return err
	}
	m.applyProjection(p)
	return nil
}

// Resize updates the viewport, re-resolves the current projection at the
// new size (preserving its family and rotation), and reconciles. A fit
// applied through FitBounds must be re-applied after a resize.
func (m *Map) Resize(width, height float64) error {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return err
	}
	m.width, m.height = width, height
	m.root.SetAttr("width", fmtFloat(width))
	m.root.SetAttr("height", fmtFloat(height))
	m.root.SetAttr("viewBox", fmt.Sprintf("0 0 %s %s", fmtFloat(width), fmtFloat(height)))

	p, err := projection.New(m.proj, width, height)
	if err != nil {
		return err
	}
	m.applyProjection(p)
	return nil
}

// FitBounds rescales and recenters the current projection so the given
// geographic bbox [minLon, minLat, maxLon, maxLat] fits the viewport with
// the given pixel padding on every side. The fit is computed against a
// unit-scale reference projection, so repeated calls with the same
// arguments are idempotent - no drift. Bounds that are empty or entirely
// unrepresentable under the projection fail with INVALID_BOUNDS.
func (m *Map) FitBounds(bbox [4]float64, padding float64) error {
	b := geo.FromBBox(bbox)
	if !b.Valid() {
		return errors.New(errors.ErrCodeInvalidBounds, "invalid bounds %v", bbox)
	}
	if padding < 0 {
		padding = 0
	}
	if 2*padding >= m.width || 2*padding >= m.height {
		return errors.New(errors.ErrCodeInvalidBounds,
			"padding %g leaves no drawable area in %gx%g viewport", padding, m.width, m.height)
	}

	// Sample the bbox boundary (corners plus edge midpoints) through a
	// unit-scale reference so the fit is independent of the current
	// scale and translate.
	ref := m.proj.Reference()
	midLon, midLat := b.Center()
	samples := [][2]float64{
		{b.MinLon, b.MinLat}, {b.MaxLon, b.MinLat},
		{b.MaxLon, b.MaxLat}, {b.MinLon, b.MaxLat},
		{midLon, b.MinLat}, {midLon, b.MaxLat},
		{b.MinLon, midLat}, {b.MaxLon, midLat},
	}

	minX, minY := 0.0, 0.0
	maxX, maxY := 0.0, 0.0
	found := false
	for _, s := range samples {
		x, y, ok := ref.Project(s[0], s[1])
		if !ok {
			continue
		}
		if !found {
			minX, maxX, minY, maxY = x, x, y, y
			found = true
			continue
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	if !found || maxX-minX <= 0 || maxY-minY <= 0 {
		return errors.New(errors.ErrCodeInvalidBounds,
			"bounds %v are not representable under projection %q", bbox, m.proj.Name)
	}

	kx := (m.width - 2*padding) / (maxX - minX)
	ky := (m.height - 2*padding) / (maxY - minY)
	k := kx
	if ky < k {
		k = ky
	}
	tx := (m.width - k*(minX+maxX)) / 2
	ty := (m.height - k*(minY+maxY)) / 2

	m.applyProjection(m.proj.WithScaleTranslate(k, tx, ty))
	return nil
}

// applyProjection is the canonical projection-change sequence. Every code
// path that changes the projection must funnel through here, in this
// order, to avoid stale path generators.
func (m *Map) applyProjection(p projection.Projection) {
	m.proj = p
	m.render.UpdateProjection(p)
	m.manager.UpdateProjection(p)
	m.manager.RerenderAll()
}

// Size returns the current viewport dimensions.
func (m *Map) Size() (width, height float64) { return m.width, m.height }

// SVG returns the map's root <svg> element.
func (m *Map) SVG() *svg.Element { return m.root }

// Document returns the document the map renders into.
func (m *Map) Document() *svg.Document { return m.doc }

// Render serializes the map's SVG subtree.
func (m *Map) Render() []byte { return m.root.Render() }

// Projection returns the current projection value.
func (m *Map) Projection() projection.Projection { return m.proj }

// LayerManager exposes the underlying manager for advanced callers.
func (m *Map) LayerManager() *Manager { return m.manager }
