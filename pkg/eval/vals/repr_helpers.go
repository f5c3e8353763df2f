package vals

import (
	"bytes"
	"strings"
)

// ListReprBuilder helps to build the Repr of list-like and record-like
// values. The zero Open and Close render with brackets.
type ListReprBuilder struct {
	Open, Close string

	indent int
	buf    bytes.Buffer
}

// NewListReprBuilder makes a new ListReprBuilder.
func NewListReprBuilder(indent int) *ListReprBuilder {
	return &ListReprBuilder{Open: "[", Close: "]", indent: indent}
}

// WriteElem writes a new element.
func (b *ListReprBuilder) WriteElem(v string) {
	if b.buf.Len() == 0 {
		b.buf.WriteString(b.Open)
	}
	if b.indent >= 0 {
		// Pretty-printing: one element per line, indented.
		b.buf.WriteByte('\n')
		b.buf.WriteString(strings.Repeat(" ", 2*(b.indent+1)))
	} else if b.buf.Len() > len(b.Open) {
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(v)
}

// String returns the representation that has been built. After it is called,
// the ListReprBuilder may no longer be used.
func (b *ListReprBuilder) String() string {
	if b.buf.Len() == 0 {
		return b.Open + b.Close
	}
	if b.indent >= 0 {
		b.buf.WriteByte('\n')
		b.buf.WriteString(strings.Repeat(" ", 2*b.indent))
	}
	b.buf.WriteString(b.Close)
	return b.buf.String()
}
