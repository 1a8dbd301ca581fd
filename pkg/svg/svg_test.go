package svg

import (
	"strings"
	"testing"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument(960, 500)
	root := doc.Root()

	if root.Tag() != "svg" {
		t.Fatalf("root tag = %q, want svg", root.Tag())
	}
	if vb, _ := root.Attr("viewBox"); vb != "0 0 960 500" {
		t.Errorf("viewBox = %q, want %q", vb, "0 0 960 500")
	}
	if ns, _ := root.Attr("xmlns"); ns != Namespace {
		t.Errorf("xmlns = %q", ns)
	}
}

func TestAppendChildMovesAttachedNode(t *testing.T) {
	parent := NewElement("g")
	a := NewElement("path").SetAttr("id", "a")
	b := NewElement("path").SetAttr("id", "b")
	c := NewElement("path").SetAttr("id", "c")
	parent.AppendChild(a)
	parent.AppendChild(b)
	parent.AppendChild(c)

	// Re-appending an attached node moves it to the end, same identity.
	parent.AppendChild(a)

	order := parent.Children()
	if len(order) != 3 {
		t.Fatalf("child count = %d, want 3", len(order))
	}
	if order[0] != b || order[1] != c || order[2] != a {
		t.Errorf("order = [%s %s %s], want [b c a]", order[0].ID(), order[1].ID(), order[2].ID())
	}
	if order[2] != a {
		t.Error("moved node must keep its identity")
	}
}

func TestAppendChildReparents(t *testing.T) {
	g1 := NewElement("g")
	g2 := NewElement("g")
	child := NewElement("circle")

	g1.AppendChild(child)
	g2.AppendChild(child)

	if len(g1.Children()) != 0 {
		t.Error("child should have been detached from old parent")
	}
	if child.Parent() != g2 {
		t.Error("child parent should be new parent")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	g := NewElement("g")
	child := NewElement("rect")
	g.AppendChild(child)

	child.Remove()
	child.Remove() // second removal is a no-op

	if child.Parent() != nil {
		t.Error("removed child should be detached")
	}
	if len(g.Children()) != 0 {
		t.Error("parent should have no children")
	}
}

func TestFindByID(t *testing.T) {
	doc := NewDocument(100, 100)
	g := NewElement("g").SetAttr("id", "layers")
	p := NewElement("path").SetAttr("id", "coastline")
	g.AppendChild(p)
	doc.Root().AppendChild(g)

	if found := doc.FindByID("coastline"); found != p {
		t.Error("FindByID should locate nested element")
	}
	if found := doc.FindByID("missing"); found != nil {
		t.Error("FindByID on absent id should return nil")
	}
}

func TestFindClass(t *testing.T) {
	root := NewElement("svg")
	a := NewElement("g").SetAttr("class", "carto-layer choropleth")
	b := NewElement("g").SetAttr("class", "carto-layer")
	c := NewElement("g").SetAttr("class", "legend")
	root.AppendChild(a)
	root.AppendChild(b)
	root.AppendChild(c)

	got := root.FindClass("carto-layer")
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("FindClass returned %d elements, want [a b]", len(got))
	}
}

func TestStyleSerialization(t *testing.T) {
	el := NewElement("g")
	el.SetStyle("display", "none")
	el.SetStyle("opacity", "0.5")

	out := string(el.Render())
	if !strings.Contains(out, `style="display:none;opacity:0.5"`) {
		t.Errorf("serialized = %q, want combined style attribute", out)
	}

	el.RemoveStyle("display")
	out = string(el.Render())
	if strings.Contains(out, "display") {
		t.Errorf("serialized = %q, display should be gone", out)
	}
}

func TestAttrReplaceInPlace(t *testing.T) {
	el := NewElement("path")
	el.SetAttr("fill", "#ccc")
	el.SetAttr("stroke", "#333")
	el.SetAttr("fill", "#f00")

	out := string(el.Render())
	// Replacement keeps the original attribute position.
	fillIdx := strings.Index(out, "fill")
	strokeIdx := strings.Index(out, "stroke")
	if fillIdx == -1 || strokeIdx == -1 || fillIdx > strokeIdx {
		t.Errorf("serialized = %q, want fill before stroke", out)
	}
	if !strings.Contains(out, `fill="#f00"`) {
		t.Errorf("serialized = %q, want replaced fill value", out)
	}
}

func TestEscaping(t *testing.T) {
	el := NewElement("text").SetText(`A & B <first> "quoted"`)
	out := string(el.Render())
	if strings.ContainsAny(strings.TrimPrefix(strings.TrimSuffix(out, "</text>\n"), "<text>"), "<>") {
		t.Errorf("serialized = %q, text should be escaped", out)
	}
	if !strings.Contains(out, "&amp;") {
		t.Errorf("serialized = %q, want escaped ampersand", out)
	}
}
