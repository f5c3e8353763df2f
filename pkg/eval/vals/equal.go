package vals

import (
	"bytes"
	"reflect"
	"time"
)

// Equaler wraps the Equal method.
type Equaler interface {
	// Equal compares the receiver to another value. Two equal values must
	// have the same hash code.
	Equal(other any) bool
}

// Equal returns whether two values are structurally equal. It is implemented
// for the builtin types listed in the package doc and for types satisfying
// the Equaler interface. For other types, it falls back to
// reflect.DeepEqual.
func Equal(x, y any) bool {
	switch x := x.(type) {
	case nil:
		return y == nil
	case bool:
		return x == y
	case int64:
		return x == y
	case float64:
		return x == y
	case string:
		return x == y
	case []byte:
		y, ok := y.([]byte)
		return ok && bytes.Equal(x, y)
	case time.Time:
		y, ok := y.(time.Time)
		return ok && x.Equal(y)
	case time.Duration:
		return x == y
	case Filesize:
		return x == y
	case List:
		y, ok := y.(List)
		return ok && equalList(x, y)
	case Equaler:
		return x.Equal(y)
	default:
		return reflect.DeepEqual(x, y)
	}
}

func equalList(x, y List) bool {
	if x.Len() != y.Len() {
		return false
	}
	ix, iy := x.Iterator(), y.Iterator()
	for ix.HasElem() {
		if !Equal(ix.Elem(), iy.Elem()) {
			return false
		}
		ix.Next()
		iy.Next()
	}
	return true
}
