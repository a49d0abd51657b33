// Package htmlenc is the escape-only HTML encoder spec.md §4.7 calls for:
// the registry's page markup is hand-assembled (there is no templating
// library in the corpus's dependency set to reach for — the rendering DSL
// itself is explicitly out of scope), but every string that lands in a
// text node or attribute value still needs `&<>'"` escaped consistently.
// Grounded on original_source's sourcemeta::registry::html::SafeOutput,
// whose text()/open() write through unescaped (a TODO in the original) and
// whose unsafe() is the one deliberate escape hatch — here made the
// default-safe behaviour instead, keeping the same raw/unsafe distinction.
package htmlenc

import "strings"

var escaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`'`, "&apos;",
	`"`, "&quot;",
)

// Escape returns s with `&<>'"` replaced by their named entities.
func Escape(s string) string { return escaper.Replace(s) }

// Attribute is one `name="value"` pair, rendered with an escaped value. A
// nil-valued attribute (empty Value and Bare true) renders as a bare flag
// like `async`/`defer`.
type Attribute struct {
	Name  string
	Value string
	Bare  bool
}

// Attr builds a normal name="value" Attribute, escaping Value.
func Attr(name, value string) Attribute { return Attribute{Name: name, Value: value} }

// BareAttr builds a valueless attribute such as `async` or `defer`.
func BareAttr(name string) Attribute { return Attribute{Name: name, Bare: true} }

// Builder accumulates an HTML document, escaping every text node and
// attribute value it is given; Raw is the only way to inject unescaped
// markup, mirroring the configuration's head/hero fields.
type Builder struct {
	sb strings.Builder
}

// Doctype writes the HTML5 doctype declaration.
func (b *Builder) Doctype() *Builder {
	b.sb.WriteString("<!DOCTYPE html>")
	return b
}

// Open writes an opening tag with the given attributes, values escaped.
func (b *Builder) Open(tag string, attrs ...Attribute) *Builder {
	b.sb.WriteByte('<')
	b.sb.WriteString(tag)
	for _, a := range attrs {
		b.sb.WriteByte(' ')
		b.sb.WriteString(a.Name)
		if !a.Bare {
			b.sb.WriteString(`="`)
			b.sb.WriteString(Escape(a.Value))
			b.sb.WriteByte('"')
		}
	}
	b.sb.WriteByte('>')
	return b
}

// Close writes a closing tag.
func (b *Builder) Close(tag string) *Builder {
	b.sb.WriteString("</")
	b.sb.WriteString(tag)
	b.sb.WriteByte('>')
	return b
}

// Text writes an escaped text node.
func (b *Builder) Text(content string) *Builder {
	b.sb.WriteString(Escape(content))
	return b
}

// Raw writes content through unescaped — the distinguished wrapper the
// configuration's head/hero HTML flows through.
func (b *Builder) Raw(content string) *Builder {
	b.sb.WriteString(content)
	return b
}

// String returns the accumulated document.
func (b *Builder) String() string { return b.sb.String() }
