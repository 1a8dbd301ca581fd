package carto

import (
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Layer is the capability contract every self-rendering layer satisfies.
//
// A layer exclusively owns the SVG subtree it renders; the layer manager
// holds only a registry entry. Destroy must be safe to call even when a
// render kicked off asynchronous work that has not resolved: a layer must
// never mutate its subtree after Destroy returns.
type Layer interface {
	// ID returns the layer's unique identifier.
	ID() string
	// ZIndex returns the current paint-order key.
	ZIndex() int
	// SetZIndex records a new paint-order key without touching the DOM;
	// reordering is the manager's job.
	SetZIndex(z int)
	// Render materializes the layer's subtree under parent. Calling
	// Render on an already-rendered layer first discards the previous
	// subtree.
	Render(parent *svg.Element) error
	// Destroy removes the layer's subtree and releases its resources.
	// Destroying an unrendered layer is a no-op.
	Destroy()
	// SetStyle merges a partial style and restyles the rendered subtree
	// in place.
	SetStyle(partial Style)
	// SetVisible toggles the subtree's CSS display without re-rendering.
	SetVisible(visible bool)
	// IsRendered reports whether the layer currently owns a rendered
	// subtree.
	IsRendered() bool
	// Element returns the layer's root element, or nil when not rendered.
	Element() *svg.Element
}

// ProjectionAware is the optional capability for layers whose rendering
// depends on a geographic projection. Layers that render from other inputs
// (a legend driven by a color scale, for instance) simply do not implement
// it. The manager checks the capability with a type assertion - never by
// probing for fields.
type ProjectionAware interface {
	// SetProjection hands the layer a new projection value. The layer
	// must not assume it observes projection changes any other way.
	SetProjection(p projection.Projection)
}

// Descriptor is the legacy, data-driven layer form: a feature collection
// plus a style, rendered on the layer's behalf by the scene renderer.
type Descriptor struct {
	ID      string
	Data    geojson.FeatureCollection
	Style   Style
	Visible bool
	ZIndex  int

	// element is the rendered group node, recorded by the scene renderer
	// for targeted removal and reordering.
	element *svg.Element
}

// Element returns the descriptor's rendered group, or nil.
func (d *Descriptor) Element() *svg.Element { return d.element }
