// Package element builds a minimal HTML element tree and serializes it.
//
// Elements are built once and serialized; there are no selectors, no
// removal and no shared children. A child appended to a parent belongs to
// that parent only.
package element

import (
	"html"
	"io"
	"strings"
)

// Attribute is a single key/value pair. Keys may repeat within an element.
type Attribute struct {
	Key   string
	Value string
}

// Element is one HTML tag with its attributes, text and children.
type Element struct {
	tag        string
	id         string
	classList  []string
	attributes []Attribute
	text       string
	children   []*Element
}

// New creates an empty element with the given tag name.
func New(tag string) *Element {
	return &Element{tag: tag}
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.tag }

// Children returns the element's children in document order.
func (e *Element) Children() []*Element { return e.children }

// Classes returns the class list in insertion order.
func (e *Element) Classes() []string { return e.classList }

// Attributes returns the attribute list in insertion order.
func (e *Element) Attributes() []Attribute { return e.attributes }

// Text returns the element's own text content.
func (e *Element) Text() string { return e.text }

// Append adds child as the last child of e and returns e.
func (e *Element) Append(child ...*Element) *Element {
	for _, c := range child {
		if c != nil {
			e.children = append(e.children, c)
		}
	}
	return e
}

// AddClass appends every space separated name in names to the class list.
// Duplicates are kept.
func (e *Element) AddClass(names string) *Element {
	for _, name := range strings.Split(names, " ") {
		if name == "" {
			continue
		}
		e.classList = append(e.classList, name)
	}
	return e
}

// SetID replaces the element's id.
func (e *Element) SetID(id string) *Element {
	e.id = id
	return e
}

// SetAttribute appends a key/value pair. Setting the same key twice emits
// the attribute twice.
func (e *Element) SetAttribute(key, value string) *Element {
	e.attributes = append(e.attributes, Attribute{Key: key, Value: value})
	return e
}

// SetText replaces the element's text content.
func (e *Element) SetText(text string) *Element {
	e.text = text
	return e
}

// String serializes e and its subtree.
func (e *Element) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

// WriteTo serializes e to w.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	e.write(&b)
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// write emits <tag id? class? attrs?>text?children</tag>. Values are escaped,
// tag and attribute names are not.
func (e *Element) write(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.tag)
	if e.id != "" {
		writeAttr(b, "id", e.id)
	}
	if len(e.classList) > 0 {
		writeAttr(b, "class", strings.Join(e.classList, " "))
	}
	for _, a := range e.attributes {
		writeAttr(b, a.Key, a.Value)
	}
	b.WriteByte('>')
	if e.text != "" {
		b.WriteString(html.EscapeString(e.text))
	}
	for _, c := range e.children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, key, value string) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}
