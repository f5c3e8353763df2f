package diag

import (
	"fmt"
	"strings"

	"src.sylph.sh/pkg/strutil"
)

// Error represents an error with context that can be shown.
type Error[T ErrorTag] struct {
	Message string
	Context Context

	// Indicates whether the error may be caused by partial input. More
	// precisely, this field indicates that the error may be fixed by appending
	// more input to the source code.
	Partial bool
}

// ErrorTag is used to parameterize [Error] into different concrete types. The
// ErrorTag method is called with a zero receiver, and its return value is used
// in [Error.Error] and [Error.Show].
type ErrorTag interface {
	ErrorTag() string
}

// Error returns a plain text representation of the error.
func (e *Error[T]) Error() string {
	return errorTag[T]() + ": " + e.errorNoType()
}

func (e *Error[T]) errorNoType() string {
	return fmt.Sprintf("%d-%d in %s: %s",
		e.Context.From, e.Context.To, e.Context.Name, e.Message)
}

// Range returns the range of the error.
func (e *Error[T]) Range() Ranging {
	return e.Context.Range()
}

var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

// Show shows the error.
func (e *Error[T]) Show(indent string) string {
	header := fmt.Sprintf("%s: %s%s%s\n",
		strutil.Title(errorTag[T]()), messageStart, e.Message, messageEnd)
	return header + e.Context.ShowCompact(indent+"  ")
}

func errorTag[T ErrorTag]() string {
	var t T
	return t.ErrorTag()
}

// PackErrors packs multiple instances of [Error] with the same tag into one
// error:
//
//   - If called with no errors, it returns nil.
//
//   - If called with one error, it returns that error itself.
//
//   - If called with more than one error, it returns an error that combines
//     all of them. The returned error also implements [Shower], and its Error
//     and Show methods only return the concatenation of the constituent
//     errors, without duplicating the common tag.
func PackErrors[T ErrorTag](errs []*Error[T]) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &multipleErrors[T]{errs}
	}
}

// UnpackErrors returns the constituent [Error] instances in an error if it is
// built from [PackErrors]. Otherwise it returns nil.
func UnpackErrors[T ErrorTag](e error) []*Error[T] {
	switch e := e.(type) {
	case *Error[T]:
		return []*Error[T]{e}
	case *multipleErrors[T]:
		return e.errors
	default:
		return nil
	}
}

type multipleErrors[T ErrorTag] struct {
	errors []*Error[T]
}

func (es *multipleErrors[T]) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "multiple %ss: ", errorTag[T]())
	for i, e := range es.errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.errorNoType())
	}
	return sb.String()
}

func (es *multipleErrors[T]) Show(indent string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Multiple %ss:", errorTag[T]())
	for _, e := range es.errors {
		sb.WriteString("\n" + indent + "  ")
		sb.WriteString(e.Show(indent + "  "))
	}
	return sb.String()
}
