package svg

import (
	"sort"
	"strings"
)

// Attr is a single named attribute. Attributes keep their insertion order
// so serialized output is deterministic.
type Attr struct {
	Key   string
	Value string
}

// Element is a node in the retained SVG tree. An Element has at most one
// parent; appending an element that is already attached somewhere moves it
// instead of copying it. The reorder optimization in the layer manager
// depends on this move semantics.
//
// The zero value is not usable - use NewElement.
type Element struct {
	tag      string
	text     string
	parent   *Element
	children []*Element
	attrs    []Attr
	attrIdx  map[string]int
	styles   []Attr
	styleIdx map[string]int
}

// NewElement creates a detached element with the given tag.
func NewElement(tag string) *Element {
	return &Element{
		tag:      tag,
		attrIdx:  make(map[string]int),
		styleIdx: make(map[string]int),
	}
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.tag }

// Parent returns the element's parent, or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the element's children in document order.
// The returned slice is the live backing slice; callers must not mutate it.
func (e *Element) Children() []*Element { return e.children }

// SetAttr sets an attribute, replacing any previous value in place.
// It returns the element for chaining.
func (e *Element) SetAttr(key, value string) *Element {
	if i, ok := e.attrIdx[key]; ok {
		e.attrs[i].Value = value
		return e
	}
	e.attrIdx[key] = len(e.attrs)
	e.attrs = append(e.attrs, Attr{Key: key, Value: value})
	return e
}

// Attr returns the value of an attribute and whether it is set.
func (e *Element) Attr(key string) (string, bool) {
	if i, ok := e.attrIdx[key]; ok {
		return e.attrs[i].Value, true
	}
	return "", false
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	i, ok := e.attrIdx[key]
	if !ok {
		return
	}
	e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
	delete(e.attrIdx, key)
	for k, j := range e.attrIdx {
		if j > i {
			e.attrIdx[k] = j - 1
		}
	}
}

// SetStyle sets a CSS style property, replacing any previous value.
// Properties serialize into a single style attribute in insertion order.
func (e *Element) SetStyle(property, value string) *Element {
	if i, ok := e.styleIdx[property]; ok {
		e.styles[i].Value = value
		return e
	}
	e.styleIdx[property] = len(e.styles)
	e.styles = append(e.styles, Attr{Key: property, Value: value})
	return e
}

// Style returns the value of a style property and whether it is set.
func (e *Element) Style(property string) (string, bool) {
	if i, ok := e.styleIdx[property]; ok {
		return e.styles[i].Value, true
	}
	return "", false
}

// RemoveStyle deletes a style property if present.
func (e *Element) RemoveStyle(property string) {
	i, ok := e.styleIdx[property]
	if !ok {
		return
	}
	e.styles = append(e.styles[:i], e.styles[i+1:]...)
	delete(e.styleIdx, property)
	for k, j := range e.styleIdx {
		if j > i {
			e.styleIdx[k] = j - 1
		}
	}
}

// SetText sets the element's text content.
func (e *Element) SetText(text string) *Element {
	e.text = text
	return e
}

// Text returns the element's text content.
func (e *Element) Text() string { return e.text }

// ID returns the element's id attribute, or "".
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// AppendChild appends child as the last child of e. If child is already
// attached anywhere in a tree (including under e itself) it is detached
// first, so appending an attached node moves it to the end. Appending nil
// or the element itself is a no-op.
func (e *Element) AppendChild(child *Element) *Element {
	if child == nil || child == e {
		return e
	}
	child.Remove()
	child.parent = e
	e.children = append(e.children, child)
	return e
}

// Remove detaches the element from its parent. Detaching an already
// detached element is a no-op.
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// FindByID returns the first element in the subtree (including e itself)
// whose id attribute equals id, or nil.
func (e *Element) FindByID(id string) *Element {
	if e.ID() == id {
		return e
	}
	for _, c := range e.children {
		if found := c.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// FindClass returns every element in the subtree (including e itself)
// whose class attribute contains the given class token, in document order.
func (e *Element) FindClass(class string) []*Element {
	var found []*Element
	e.walk(func(el *Element) {
		if el.HasClass(class) {
			found = append(found, el)
		}
	})
	return found
}

// HasClass reports whether the element's class attribute contains the
// given token.
func (e *Element) HasClass(class string) bool {
	attr, ok := e.Attr("class")
	if !ok {
		return false
	}
	for _, tok := range strings.Fields(attr) {
		if tok == class {
			return true
		}
	}
	return false
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}

// SortedAttrKeys returns the attribute keys in sorted order. Used by tests
// that want order-independent assertions.
func (e *Element) SortedAttrKeys() []string {
	keys := make([]string, 0, len(e.attrs))
	for _, a := range e.attrs {
		keys = append(keys, a.Key)
	}
	sort.Strings(keys)
	return keys
}
