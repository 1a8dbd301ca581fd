package carto

import (
	"strconv"

	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// LegacyLayerClass tags every group the scene renderer manages. Removal
// and clear operations locate legacy subtrees by this class.
const LegacyLayerClass = "carto-layer"

// featureIndexAttr links a rendered path back to its feature, so restyles
// can resolve per-feature style functions without re-rendering.
const featureIndexAttr = "data-feature"

// SceneRenderer materializes legacy layer descriptors as SVG under a
// single container. It owns the path generator derived from the current
// projection; swapping the projection rebuilds the generator but does NOT
// re-render existing layers - that is the layer manager's call.
//
// All operations are defensive: a missing container or an already-removed
// element makes the operation a no-op rather than an error, matching the
// idempotent call patterns the rest of the library follows.
type SceneRenderer struct {
	container *svg.Element
	gen       *projection.PathGenerator
}

// NewSceneRenderer creates a renderer drawing into container with the
// given projection.
func NewSceneRenderer(container *svg.Element, p projection.Projection) *SceneRenderer {
	return &SceneRenderer{
		container: container,
		gen:       projection.NewPathGenerator(p),
	}
}

// RenderLayer materializes a descriptor as a tagged group of path
// elements and records the group on the descriptor. A previous group for
// the same id is removed first, so re-rendering never duplicates nodes.
// Features whose geometry cannot be converted are skipped; one malformed
// feature does not abort the layer.
func (r *SceneRenderer) RenderLayer(d *Descriptor) {
	if r.container == nil || d == nil {
		return
	}
	r.RemoveLayer(d.ID)

	group := svg.NewElement("g").
		SetAttr("class", LegacyLayerClass).
		SetAttr("id", d.ID)
	if !d.Visible {
		group.SetStyle("display", "none")
	}

	for i, f := range d.Data.Features {
		path, err := r.gen.Path(f.Geometry.Geometry)
		if err != nil || path == "" {
			continue
		}
		el := svg.NewElement("path").
			SetAttr("d", path).
			SetAttr(featureIndexAttr, strconv.Itoa(i))
		d.Style.Apply(el, f)
		group.AppendChild(el)
	}

	d.element = group
	r.container.AppendChild(group)
}

// UpdateStyle re-applies the descriptor's style to the existing path
// elements in place, preserving node identity.
func (r *SceneRenderer) UpdateStyle(d *Descriptor) {
	if d == nil || d.element == nil {
		return
	}
	for _, el := range d.element.Children() {
		idx, ok := el.Attr(featureIndexAttr)
		if !ok {
			continue
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(d.Data.Features) {
			continue
		}
		d.Style.Apply(el, d.Data.Features[i])
	}
}

// ToggleVisibility syncs the group's CSS display with the descriptor's
// Visible flag. No re-render happens.
func (r *SceneRenderer) ToggleVisibility(d *Descriptor) {
	if d == nil || d.element == nil {
		return
	}
	if d.Visible {
		d.element.RemoveStyle("display")
		return
	}
	d.element.SetStyle("display", "none")
}

// RemoveLayer removes the group tagged with the given layer id, if any.
func (r *SceneRenderer) RemoveLayer(id string) {
	if r.container == nil {
		return
	}
	for _, el := range r.container.FindClass(LegacyLayerClass) {
		if el.ID() == id {
			el.Remove()
			return
		}
	}
}

// ClearAll removes every legacy layer group under the container.
func (r *SceneRenderer) ClearAll() {
	if r.container == nil {
		return
	}
	for _, el := range r.container.FindClass(LegacyLayerClass) {
		el.Remove()
	}
}

// UpdateProjection rebuilds the path generator for a new projection.
// Existing layers keep their stale paths until the caller re-renders.
func (r *SceneRenderer) UpdateProjection(p projection.Projection) {
	r.gen = projection.NewPathGenerator(p)
}

// PathGenerator exposes the current generator, primarily for layers that
// want to share the renderer's projection-derived state.
func (r *SceneRenderer) PathGenerator() *projection.PathGenerator {
	return r.gen
}
