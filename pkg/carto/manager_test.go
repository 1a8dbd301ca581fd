package carto

import (
	"fmt"
	"testing"

	"github.com/go-spatial/geom"

	"github.com/geodetic-io/cartograph/pkg/errors"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// fakeLayer is a minimal self-rendering layer recording every call the
// manager makes.
type fakeLayer struct {
	id        string
	z         int
	el        *svg.Element
	renderErr error
	renders   int
	destroys  int
	projCalls int
	proj      projection.Projection
}

func (f *fakeLayer) ID() string      { return f.id }
func (f *fakeLayer) ZIndex() int     { return f.z }
func (f *fakeLayer) SetZIndex(z int) { f.z = z }

func (f *fakeLayer) Render(parent *svg.Element) error {
	f.renders++
	if f.renderErr != nil {
		return f.renderErr
	}
	if f.el != nil {
		f.el.Remove()
	}
	f.el = svg.NewElement("g").SetAttr("class", "layer").SetAttr("id", f.id)
	parent.AppendChild(f.el)
	return nil
}

func (f *fakeLayer) Destroy() {
	f.destroys++
	if f.el != nil {
		f.el.Remove()
		f.el = nil
	}
}

func (f *fakeLayer) SetStyle(partial Style) {}
func (f *fakeLayer) SetVisible(visible bool) {
	if f.el == nil {
		return
	}
	if visible {
		f.el.RemoveStyle("display")
	} else {
		f.el.SetStyle("display", "none")
	}
}
func (f *fakeLayer) IsRendered() bool      { return f.el != nil }
func (f *fakeLayer) Element() *svg.Element { return f.el }

func (f *fakeLayer) SetProjection(p projection.Projection) {
	f.projCalls++
	f.proj = p
}

// unawareLayer is a fakeLayer hidden behind a type that does not satisfy
// ProjectionAware.
type unawareLayer struct {
	inner fakeLayer
}

func (u *unawareLayer) ID() string                  { return u.inner.ID() }
func (u *unawareLayer) ZIndex() int                 { return u.inner.ZIndex() }
func (u *unawareLayer) SetZIndex(z int)             { u.inner.SetZIndex(z) }
func (u *unawareLayer) Render(p *svg.Element) error { return u.inner.Render(p) }
func (u *unawareLayer) Destroy()                    { u.inner.Destroy() }
func (u *unawareLayer) SetStyle(s Style)            { u.inner.SetStyle(s) }
func (u *unawareLayer) SetVisible(v bool)           { u.inner.SetVisible(v) }
func (u *unawareLayer) IsRendered() bool            { return u.inner.IsRendered() }
func (u *unawareLayer) Element() *svg.Element       { return u.inner.Element() }

func newTestManager(t *testing.T) (*Manager, *svg.Element) {
	t.Helper()
	container := svg.NewElement("g")
	proj, err := projection.New("equirectangular", 500, 250)
	if err != nil {
		t.Fatalf("projection.New: %v", err)
	}
	m := NewManager(NewSceneRenderer(container, proj), nil)
	m.SetContext(container, proj)
	return m, container
}

func squareData() geom.Polygon {
	return geom.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
}

func TestManagerInsertionOrderZIndex(t *testing.T) {
	m, _ := newTestManager(t)

	for i, id := range []string{"a", "b", "c"} {
		got, err := m.AddLayer(id, LayerOptions{Data: squareData()})
		if err != nil {
			t.Fatalf("AddLayer(%q): %v", id, err)
		}
		if got != id {
			t.Fatalf("AddLayer(%q) returned id %q", id, got)
		}
		if z := m.entries[id].zIndex(); z != i {
			t.Errorf("layer %q zIndex = %d, want %d", id, z, i)
		}
	}
	if next := m.NextZIndex(); next != 3 {
		t.Errorf("NextZIndex = %d, want 3", next)
	}
}

func TestManagerNextZIndexAfterExplicitSet(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddLayer("a", LayerOptions{Data: squareData()})
	m.AddLayer("b", LayerOptions{Data: squareData()})

	m.SetLayerZIndex("a", 5)
	if next := m.NextZIndex(); next != 6 {
		t.Errorf("NextZIndex after SetLayerZIndex(a, 5) = %d, want 6", next)
	}

	id, err := m.AddLayer("c", LayerOptions{Data: squareData()})
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	if z := m.entries[id].zIndex(); z != 6 {
		t.Errorf("new layer zIndex = %d, want 6", z)
	}
}

func TestManagerNextZIndexEmpty(t *testing.T) {
	m, _ := newTestManager(t)
	if next := m.NextZIndex(); next != 0 {
		t.Errorf("NextZIndex on empty registry = %d, want 0", next)
	}
}

func TestManagerRemoveLayerIdempotent(t *testing.T) {
	m, container := newTestManager(t)
	m.AddLayer("a", LayerOptions{Data: squareData()})

	m.RemoveLayer("a")
	if m.Len() != 0 {
		t.Fatalf("Len after remove = %d, want 0", m.Len())
	}
	if got := len(container.FindClass(LegacyLayerClass)); got != 0 {
		t.Fatalf("rendered groups after remove = %d, want 0", got)
	}

	// Removing again, or removing an id that never existed, must not
	// panic or change anything.
	m.RemoveLayer("a")
	m.RemoveLayer("never-existed")
	if m.Len() != 0 {
		t.Errorf("Len after repeated removes = %d, want 0", m.Len())
	}
}

func TestManagerReorderMovesNodes(t *testing.T) {
	m, container := newTestManager(t)
	m.AddLayer("a", LayerOptions{Data: squareData()})
	m.AddLayer("b", LayerOptions{Data: squareData()})
	m.AddLayer("c", LayerOptions{Data: squareData()})

	before := map[string]*svg.Element{}
	for _, el := range container.FindClass(LegacyLayerClass) {
		before[el.ID()] = el
	}

	m.SetLayerZIndex("a", 10)

	var order []string
	for _, el := range container.Children() {
		if el.HasClass(LegacyLayerClass) {
			order = append(order, el.ID())
			if before[el.ID()] != el {
				t.Errorf("layer %q was rebuilt; reorder must move existing nodes", el.ID())
			}
		}
	}
	want := []string{"b", "c", "a"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("paint order after reorder = %v, want %v", order, want)
	}
}

func TestManagerSetZIndexUnchangedIsNoOp(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddLayer("a", LayerOptions{Data: squareData()})
	m.AddLayer("b", LayerOptions{Data: squareData()})

	m.SetLayerZIndex("b", 1) // already 1
	if m.reorders != 0 {
		t.Errorf("reorder passes after unchanged write = %d, want 0", m.reorders)
	}

	m.SetLayerZIndex("b", 7)
	if m.reorders != 1 {
		t.Errorf("reorder passes after real change = %d, want 1", m.reorders)
	}
}

func TestManagerDuplicateIDReplaces(t *testing.T) {
	m, container := newTestManager(t)
	m.AddLayer("a", LayerOptions{Data: squareData()})
	first := container.FindClass(LegacyLayerClass)[0]

	m.AddLayer("a", LayerOptions{Data: squareData()})

	groups := container.FindClass(LegacyLayerClass)
	if len(groups) != 1 {
		t.Fatalf("groups after duplicate add = %d, want 1", len(groups))
	}
	if groups[0] == first {
		t.Error("duplicate add kept the old subtree; want replacement")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestManagerGeneratedID(t *testing.T) {
	m, _ := newTestManager(t)
	id, err := m.AddLayer("", LayerOptions{Data: squareData()})
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	if id == "" {
		t.Fatal("AddLayer with empty id returned empty id")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestManagerInvalidID(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.AddLayer("bad\x00id", LayerOptions{Data: squareData()})
	if !errors.Is(err, errors.ErrCodeInvalidLayerID) {
		t.Errorf("AddLayer error code = %v, want INVALID_LAYER_ID", errors.GetCode(err))
	}
}

func TestManagerInstanceWithoutContext(t *testing.T) {
	m := NewManager(nil, nil)
	err := m.AddLayerInstance(&fakeLayer{id: "x"})
	if !errors.Is(err, errors.ErrCodeContextNotSet) {
		t.Errorf("error code = %v, want CONTEXT_NOT_SET", errors.GetCode(err))
	}
}

func TestManagerInstanceRenderFailureUnregisters(t *testing.T) {
	m, _ := newTestManager(t)
	l := &fakeLayer{id: "broken", renderErr: fmt.Errorf("boom")}
	err := m.AddLayerInstance(l)
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("error code = %v, want INTERNAL", errors.GetCode(err))
	}
	if m.Len() != 0 {
		t.Errorf("failed layer left registered; Len = %d, want 0", m.Len())
	}
}

func TestManagerProjectionInjection(t *testing.T) {
	m, _ := newTestManager(t)
	l := &fakeLayer{id: "aware"}
	if err := m.AddLayerInstance(l); err != nil {
		t.Fatalf("AddLayerInstance: %v", err)
	}
	if l.projCalls != 1 {
		t.Errorf("SetProjection calls on add = %d, want 1", l.projCalls)
	}
	if l.proj.Name != m.Projection().Name {
		t.Errorf("injected projection %q, want %q", l.proj.Name, m.Projection().Name)
	}
}

func TestManagerUpdateProjectionBroadcast(t *testing.T) {
	m, _ := newTestManager(t)
	aware := &fakeLayer{id: "aware"}
	unaware := &unawareLayer{inner: fakeLayer{id: "plain"}}
	m.AddLayerInstance(aware)
	m.AddLayerInstance(unaware)
	m.AddLayer("legacy", LayerOptions{Data: squareData()})
	aware.projCalls = 0

	p, err := projection.New("mercator", 500, 250)
	if err != nil {
		t.Fatalf("projection.New: %v", err)
	}
	m.UpdateProjection(p)

	if aware.projCalls != 1 {
		t.Errorf("aware layer received %d projection updates, want exactly 1", aware.projCalls)
	}
	if aware.proj.Name != "mercator" {
		t.Errorf("aware layer projection = %q, want mercator", aware.proj.Name)
	}
	if unaware.inner.projCalls != 0 {
		t.Errorf("unaware layer received %d projection updates, want 0", unaware.inner.projCalls)
	}
}

func TestManagerRerenderAllDoesNotRedeliverProjection(t *testing.T) {
	m, _ := newTestManager(t)
	aware := &fakeLayer{id: "aware"}
	m.AddLayerInstance(aware)
	aware.projCalls = 0

	m.RerenderAll()

	if aware.projCalls != 0 {
		t.Errorf("RerenderAll delivered %d projection updates, want 0 (UpdateProjection is the only delivery point)", aware.projCalls)
	}
	if aware.renders < 2 {
		t.Errorf("renders = %d, want re-render", aware.renders)
	}
}

func TestManagerRerenderAllOrderAndContainment(t *testing.T) {
	m, container := newTestManager(t)
	m.AddLayer("low", LayerOptions{Data: squareData()})
	good := &fakeLayer{id: "good"}
	bad := &fakeLayer{id: "bad", renderErr: nil}
	m.AddLayerInstance(good)
	m.AddLayerInstance(bad)
	m.SetLayerZIndex("low", 99)

	// A layer failing mid-pass must not stop the others.
	bad.renderErr = fmt.Errorf("boom")
	m.RerenderAll()

	if good.renders < 2 {
		t.Errorf("good layer renders = %d, want re-render", good.renders)
	}
	var last string
	for _, el := range container.Children() {
		if id := el.ID(); id != "" {
			last = id
		}
	}
	if last != "low" {
		t.Errorf("topmost layer after rerender = %q, want %q", last, "low")
	}
	if m.Len() != 3 {
		t.Errorf("Len after contained failure = %d, want 3", m.Len())
	}
}

func TestManagerClearAll(t *testing.T) {
	m, container := newTestManager(t)
	m.AddLayer("a", LayerOptions{Data: squareData()})
	l := &fakeLayer{id: "inst"}
	m.AddLayerInstance(l)

	m.ClearAll()

	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
	if l.destroys != 1 {
		t.Errorf("instance destroys = %d, want 1", l.destroys)
	}
	if got := len(container.Children()); got != 0 {
		t.Errorf("container children after clear = %d, want 0", got)
	}
}

func TestManagerLayerIDsInsertionOrder(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddLayer("z-last", LayerOptions{Data: squareData()})
	m.AddLayer("a-first", LayerOptions{Data: squareData()})
	m.SetLayerZIndex("z-last", 100)

	got := m.LayerIDs()
	want := []string{"z-last", "a-first"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("LayerIDs = %v, want insertion order %v", got, want)
	}
}
