// Package layer provides the concrete self-rendering layers built on the
// carto.Layer contract: geographic data (GeoJSON), reference graphics
// (graticule, outline), point symbols (circles, spikes), connection arcs,
// labels, and legends.
//
// Every layer embeds Base, which owns the lifecycle boilerplate: identity,
// paint order, visibility, the rendered group, and in-place restyling.
// Layers whose output depends on the projection implement SetProjection
// and are re-rendered by the layer manager on projection changes; the
// legend layer deliberately does not, since its output is a function of
// its scale alone.
package layer

import (
	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Class tags every group an instance layer owns. It is distinct from the
// scene renderer's legacy class so the renderer's bulk operations never
// touch instance-owned subtrees.
const Class = "layer"

// Base carries the state and boilerplate shared by all concrete layers.
// It implements everything of carto.Layer except Render.
type Base struct {
	id      string
	z       int
	visible bool
	style   carto.Style
	el      *svg.Element
}

func newBase(id string, defaults, style carto.Style) Base {
	return Base{id: id, visible: true, style: defaults.Merge(style)}
}

// ID returns the layer id.
func (b *Base) ID() string { return b.id }

// ZIndex returns the paint-order key.
func (b *Base) ZIndex() int { return b.z }

// SetZIndex records a new paint-order key.
func (b *Base) SetZIndex(z int) { b.z = z }

// IsRendered reports whether the layer owns a rendered subtree.
func (b *Base) IsRendered() bool { return b.el != nil }

// Element returns the rendered group, or nil.
func (b *Base) Element() *svg.Element { return b.el }

// Style returns the layer's effective style.
func (b *Base) Style() carto.Style { return b.style }

// Destroy removes the rendered subtree. Safe to call repeatedly and on an
// unrendered layer.
func (b *Base) Destroy() {
	if b.el != nil {
		b.el.Remove()
		b.el = nil
	}
}

// SetStyle merges a partial style and restyles the rendered group in
// place. Layers that style individual children (per-feature functions)
// override this to push the change down.
func (b *Base) SetStyle(partial carto.Style) {
	b.style = b.style.Merge(partial)
	if b.el != nil {
		b.applyGroupStyle()
	}
}

// SetVisible toggles the group's CSS display.
func (b *Base) SetVisible(visible bool) {
	b.visible = visible
	if b.el == nil {
		return
	}
	if visible {
		b.el.RemoveStyle("display")
		return
	}
	b.el.SetStyle("display", "none")
}

// begin starts a render pass: the previous subtree is discarded and a
// fresh styled group is attached under parent.
func (b *Base) begin(parent *svg.Element) *svg.Element {
	b.Destroy()
	g := svg.NewElement("g").
		SetAttr("class", Class).
		SetAttr("id", b.id)
	b.el = g
	b.applyGroupStyle()
	if !b.visible {
		g.SetStyle("display", "none")
	}
	parent.AppendChild(g)
	return g
}

// applyGroupStyle writes the style's constant properties onto the group;
// children inherit them unless a per-feature attribute overrides.
func (b *Base) applyGroupStyle() {
	b.style.Constants().Apply(b.el, geojson.Feature{})
}
