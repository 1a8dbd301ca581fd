package carto

import (
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// entry is the manager's tagged registry record: exactly one of legacy or
// instance is set. A single registry with a single dispatch point per
// operation means a layer id can never exist in "two places" at once.
type entry struct {
	legacy   *Descriptor
	instance Layer
}

func (e *entry) zIndex() int {
	if e.legacy != nil {
		return e.legacy.ZIndex
	}
	return e.instance.ZIndex()
}

func (e *entry) element() *svg.Element {
	if e.legacy != nil {
		return e.legacy.element
	}
	if !e.instance.IsRendered() {
		return nil
	}
	return e.instance.Element()
}

// Manager owns the ordered layer registry and mediates every layer
// lifecycle transition: creation, projection injection, rendering,
// restyling, reordering, and destruction.
//
// Operations referencing an unknown id are silent no-ops; only wiring
// errors (missing context) and layer render failures surface as errors.
// Manager is not safe for concurrent use: the library assumes a single
// logical writer, matching its synchronous rendering model.
type Manager struct {
	renderer  *SceneRenderer
	container *svg.Element
	proj      projection.Projection
	bound     bool
	logger    *log.Logger

	order   []string
	entries map[string]*entry

	// reorders counts ReorderOptimized passes; tests assert that
	// unchanged z-index writes do not schedule one.
	reorders int
}

// NewManager creates a manager rendering legacy layers through renderer.
// A nil logger discards output.
func NewManager(renderer *SceneRenderer, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		renderer: renderer,
		logger:   logger,
		entries:  make(map[string]*entry),
	}
}

// SetContext wires the container and projection used to initialize layer
// instances. AddLayerInstance fails until this has been called.
func (m *Manager) SetContext(container *svg.Element, p projection.Projection) {
	m.container = container
	m.proj = p
	m.bound = true
}

// Projection returns the projection currently broadcast to layers.
func (m *Manager) Projection() projection.Projection { return m.proj }

// AddLayer registers and renders a legacy data layer. opts.Data accepts a
// feature collection, a bare feature slice, a single feature, or a bare
// geometry. An empty id gets a generated one; the resolved id is
// returned. Adding an id that already exists destroys the previous layer
// first - the registry never holds two entries for one id.
func (m *Manager) AddLayer(id string, opts LayerOptions) (string, error) {
	if err := errors.ValidateLayerID(id); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}

	data, err := normalizeData(opts.Data)
	if err != nil {
		return "", err
	}

	m.replaceExisting(id)

	d := &Descriptor{
		ID:      id,
		Data:    data,
		Style:   DefaultStyle().Merge(opts.Style),
		Visible: !opts.Hidden,
		ZIndex:  m.NextZIndex(),
	}
	m.store(id, &entry{legacy: d})
	if m.renderer != nil {
		m.renderer.RenderLayer(d)
	}
	m.logger.Debug("layer added", "id", id, "z", d.ZIndex, "features", len(d.Data.Features))
	return id, nil
}

// AddLayerInstance registers a self-rendering layer. The context must
// have been wired via SetContext first. Projection-aware layers receive
// the current projection before their first render; render errors
// propagate and leave the layer unregistered.
func (m *Manager) AddLayerInstance(l Layer) error {
	if !m.bound {
		return errors.New(errors.ErrCodeContextNotSet,
			"layer manager context not set; call SetContext before adding layer instances")
	}
	if l == nil {
		return errors.New(errors.ErrCodeInvalidLayerID, "nil layer instance")
	}
	id := l.ID()
	if id == "" {
		return errors.New(errors.ErrCodeInvalidLayerID, "layer instance has empty id")
	}
	if err := errors.ValidateLayerID(id); err != nil {
		return err
	}

	m.replaceExisting(id)

	if aware, ok := l.(ProjectionAware); ok {
		aware.SetProjection(m.proj)
	}
	l.SetZIndex(m.NextZIndex())
	if err := l.Render(m.container); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render layer %q", id)
	}
	m.store(id, &entry{instance: l})
	m.logger.Debug("layer instance added", "id", id, "z", l.ZIndex())
	return nil
}

// RemoveLayer destroys a layer and deletes its registry entry. Unknown
// ids are a silent no-op.
func (m *Manager) RemoveLayer(id string) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	m.destroyEntry(id, e)
	m.delete(id)
	m.logger.Debug("layer removed", "id", id)
}

// UpdateLayerStyle merges a partial style into a layer and restyles its
// rendered subtree in place. Unknown ids are a silent no-op.
func (m *Manager) UpdateLayerStyle(id string, partial Style) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	if e.instance != nil {
		e.instance.SetStyle(partial)
		return
	}
	e.legacy.Style = e.legacy.Style.Merge(partial)
	if m.renderer != nil {
		m.renderer.UpdateStyle(e.legacy)
	}
}

// SetLayerVisibility toggles a layer's visibility without re-rendering.
// Unknown ids are a silent no-op.
func (m *Manager) SetLayerVisibility(id string, visible bool) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	if e.instance != nil {
		e.instance.SetVisible(visible)
		return
	}
	e.legacy.Visible = visible
	if m.renderer != nil {
		m.renderer.ToggleVisibility(e.legacy)
	}
}

// SetLayerZIndex assigns a new paint-order key and reconciles DOM order.
// Writing the current value back is a complete no-op - no reorder pass
// runs. Unknown ids are a silent no-op.
func (m *Manager) SetLayerZIndex(id string, z int) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	if e.zIndex() == z {
		return
	}
	if e.instance != nil {
		e.instance.SetZIndex(z)
	} else {
		e.legacy.ZIndex = z
	}
	m.ReorderOptimized()
}

// LayerIDs returns every registered layer id in registry insertion order.
// This is not z-order; callers needing paint order must consult each
// layer's zIndex.
func (m *Manager) LayerIDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Len returns the number of registered layers.
func (m *Manager) Len() int { return len(m.order) }

// Layer returns the registered instance layer for id. Legacy data layers
// have no instance and report false.
func (m *Manager) Layer(id string) (Layer, bool) {
	e, ok := m.entries[id]
	if !ok || e.instance == nil {
		return nil, false
	}
	return e.instance, true
}

// NextZIndex returns max(zIndex across all layers) + 1, or 0 when the
// registry is empty.
func (m *Manager) NextZIndex() int {
	if len(m.order) == 0 {
		return 0
	}
	max := m.entries[m.order[0]].zIndex()
	for _, id := range m.order[1:] {
		if z := m.entries[id].zIndex(); z > max {
			max = z
		}
	}
	return max + 1
}

// ClearAll destroys every layer and empties the registry.
func (m *Manager) ClearAll() {
	for _, id := range m.order {
		m.destroyEntry(id, m.entries[id])
	}
	m.order = m.order[:0]
	m.entries = make(map[string]*entry)
	m.logger.Debug("all layers cleared")
}

// RerenderAll is the full-rebuild reconciliation path: every layer's DOM
// is discarded and rebuilt ascending by zIndex (ties keep insertion
// order). Instances render with whatever projection they already hold;
// delivering a new projection is UpdateProjection's job alone, so a
// projection change reaches each aware layer exactly once. A failing
// layer is logged and skipped; the pass continues.
func (m *Manager) RerenderAll() {
	if m.renderer != nil {
		m.renderer.ClearAll()
	}
	for _, id := range m.order {
		if e := m.entries[id]; e.instance != nil {
			e.instance.Destroy()
		}
	}

	for _, id := range m.sortedByZ() {
		e := m.entries[id]
		if e.legacy != nil {
			if m.renderer != nil {
				m.renderer.RenderLayer(e.legacy)
			}
			continue
		}
		if err := e.instance.Render(m.container); err != nil {
			m.logger.Error("layer render failed; skipping", "id", id, "err", err)
		}
	}
}

// UpdateProjection stores a new projection and broadcasts it to every
// projection-aware layer instance. Legacy layers' path generator belongs
// to the scene renderer and is updated separately by the facade.
func (m *Manager) UpdateProjection(p projection.Projection) {
	m.proj = p
	for _, id := range m.order {
		if e := m.entries[id]; e.instance != nil {
			if aware, ok := e.instance.(ProjectionAware); ok {
				aware.SetProjection(p)
			}
		}
	}
}

// ReorderOptimized reconciles DOM order without rebuilding anything: it
// collects every currently-rendered layer element, sorts by zIndex (ties
// keep insertion order), and re-appends each element to its own parent.
// Appending an attached node moves it to the end, so the sorted
// re-append sequence yields correct paint order while preserving every
// node's identity. With nothing rendered the call is a no-op.
func (m *Manager) ReorderOptimized() {
	m.reorders++

	type rendered struct {
		el *svg.Element
		z  int
	}
	var items []rendered
	for _, id := range m.order {
		e := m.entries[id]
		if el := e.element(); el != nil && el.Parent() != nil {
			items = append(items, rendered{el: el, z: e.zIndex()})
		}
	}
	if len(items) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].z < items[j].z })
	for _, it := range items {
		if p := it.el.Parent(); p != nil {
			p.AppendChild(it.el)
		}
	}
	m.logger.Debug("layers reordered", "count", len(items))
}

// replaceExisting destroys and removes a previous entry with the same id.
func (m *Manager) replaceExisting(id string) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	m.logger.Warn("replacing existing layer", "id", id)
	m.destroyEntry(id, e)
	m.delete(id)
}

func (m *Manager) destroyEntry(id string, e *entry) {
	if e.instance != nil {
		e.instance.Destroy()
		return
	}
	if m.renderer != nil {
		m.renderer.RemoveLayer(id)
	}
	e.legacy.element = nil
}

func (m *Manager) store(id string, e *entry) {
	m.entries[id] = e
	m.order = append(m.order, id)
}

func (m *Manager) delete(id string) {
	delete(m.entries, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// sortedByZ returns layer ids ascending by zIndex, insertion order for
// ties. The tie-break is stable so repeated passes are deterministic.
func (m *Manager) sortedByZ() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	sort.SliceStable(ids, func(i, j int) bool {
		return m.entries[ids[i]].zIndex() < m.entries[ids[j]].zIndex()
	})
	return ids
}
