// Package svg implements a small retained-mode SVG scene graph.
//
// Unlike streaming SVG writers, this package keeps a live, mutable element
// tree that can be restyled, reordered, and pruned in place after it has
// been built. The cartographic layer manager leans on two properties of
// the tree:
//
//   - Elements keep their identity across mutations, so a restyle touches
//     attributes without recreating nodes.
//   - AppendChild moves an already-attached element to the end of its new
//     parent's child list, which is enough to fix paint order without a
//     rebuild.
//
// Serialization is deterministic: attributes render in insertion order and
// children in document order.
package svg

import (
	"bytes"
	"fmt"
	"strings"
)

// Namespace is the XML namespace applied to every document root.
const Namespace = "http://www.w3.org/2000/svg"

// Document owns a root <svg> element sized to a fixed viewport.
type Document struct {
	root *Element
}

// NewDocument creates a document whose root <svg> carries width, height,
// and a matching viewBox.
func NewDocument(width, height float64) *Document {
	root := NewElement("svg")
	root.SetAttr("xmlns", Namespace)
	root.SetAttr("width", fmtNum(width))
	root.SetAttr("height", fmtNum(height))
	root.SetAttr("viewBox", fmt.Sprintf("0 0 %s %s", fmtNum(width), fmtNum(height)))
	return &Document{root: root}
}

// Root returns the document's root <svg> element.
func (d *Document) Root() *Element { return d.root }

// FindByID searches the whole document for an element id.
func (d *Document) FindByID(id string) *Element { return d.root.FindByID(id) }

// Render serializes the document to SVG bytes.
func (d *Document) Render() []byte {
	var buf bytes.Buffer
	d.root.writeTo(&buf, 0)
	return buf.Bytes()
}

// Render serializes the element and its subtree to SVG bytes.
func (e *Element) Render() []byte {
	var buf bytes.Buffer
	e.writeTo(&buf, 0)
	return buf.Bytes()
}

func (e *Element) writeTo(buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.tag)
	for _, a := range e.attrs {
		fmt.Fprintf(buf, ` %s="%s"`, a.Key, escape(a.Value))
	}
	if len(e.styles) > 0 {
		buf.WriteString(` style="`)
		for i, s := range e.styles {
			if i > 0 {
				buf.WriteByte(';')
			}
			buf.WriteString(escape(s.Key))
			buf.WriteByte(':')
			buf.WriteString(escape(s.Value))
		}
		buf.WriteByte('"')
	}

	if len(e.children) == 0 && e.text == "" {
		buf.WriteString("/>\n")
		return
	}

	buf.WriteByte('>')
	if e.text != "" {
		buf.WriteString(escape(e.text))
	}
	if len(e.children) > 0 {
		buf.WriteByte('\n')
		for _, c := range e.children {
			c.writeTo(buf, depth+1)
		}
		buf.WriteString(indent)
	}
	fmt.Fprintf(buf, "</%s>\n", e.tag)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string { return escaper.Replace(s) }

// fmtNum renders a float without a trailing ".0" for whole values.
func fmtNum(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
