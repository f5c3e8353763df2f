// Package vals provides standard operations on sylph values.
//
// Sylph values are of the following types:
//
//   - nil for the nothing value;
//   - bool, int64, float64 and string;
//   - []byte for binary data;
//   - time.Time for dates and time.Duration for durations;
//   - Filesize for file sizes;
//   - List (a persistent vector) for lists, and *Record for records;
//   - *Range for ranges and CellPath for cell paths;
//   - Types defined elsewhere satisfying the behavior interfaces, like
//     closures and exceptions.
//
// A table is not a distinct type: it is a List whose elements are all
// records; IsTable recognizes one.
//
// The operations are exposed as dispatch functions (Kind, Equal, Hash, Repr,
// Index and so on) that switch on the concrete type and fall back to the
// corresponding behavior interface (Kinder, Equaler, Hasher, Reprer, ...),
// so external types can participate by implementing the interfaces.
package vals

import (
	"src.elv.sh/pkg/persistent/vector"
)

// List is the type of sylph lists: a persistent vector.
type List = vector.Vector

// EmptyList is an empty list.
var EmptyList = vector.Empty

// MakeList creates a list from the given values.
func MakeList(vs ...any) List {
	l := EmptyList
	for _, v := range vs {
		l = l.Conj(v)
	}
	return l
}

// IsTable reports whether v is a table: a non-empty list whose elements are
// all records.
func IsTable(v any) bool {
	l, ok := v.(List)
	if !ok || l.Len() == 0 {
		return false
	}
	for it := l.Iterator(); it.HasElem(); it.Next() {
		if _, ok := it.Elem().(*Record); !ok {
			return false
		}
	}
	return true
}
