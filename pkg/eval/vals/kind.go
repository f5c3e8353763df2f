package vals

import (
	"fmt"
	"time"
)

// Kinder wraps the Kind method.
type Kinder interface {
	Kind() string
}

// Kind returns the kind of the value: the name of its type in the data model.
// It is implemented for the builtin types listed in the package doc and for
// types satisfying the Kinder interface. For other types, it returns the Go
// type name of the argument preceded by "!!".
func Kind(v any) string {
	switch v := v.(type) {
	case nil:
		return "nothing"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []byte:
		return "binary"
	case time.Time:
		return "date"
	case time.Duration:
		return "duration"
	case Filesize:
		return "filesize"
	case List:
		return "list"
	case *Record:
		return "record"
	case *Range:
		return "range"
	case CellPath:
		return "cell-path"
	case Kinder:
		return v.Kind()
	default:
		return fmt.Sprintf("!!%T", v)
	}
}
