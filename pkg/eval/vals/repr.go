package vals

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"src.sylph.sh/pkg/parse"
)

// NoPretty can be passed to Repr to suppress pretty-printing.
const NoPretty = math.MinInt32

// Reprer wraps the Repr method.
type Reprer interface {
	// Repr returns a string that represents the value. The string is either
	// a literal that parses back to an equal value, or a string enclosed in
	// "<>" describing the kind and identity of the value, like <closure
	// 0xdeadcafe>.
	//
	// If indent is at least 0, the representation is pretty-printed with the
	// given current indentation level; the indent of the first line has
	// already been written. The returned string never ends in a newline.
	Repr(indent int) string
}

// Repr returns the representation of a value, preferably syntax that
// evaluates back to it. It is implemented for the builtin types listed in the
// package doc and for types satisfying the Reprer interface. For other types,
// it returns "<unknown ...>".
func Repr(v any, indent int) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat64(v)
	case string:
		return parse.Quote(v)
	case []byte:
		return "<binary " + base64.StdEncoding.EncodeToString(v) + ">"
	case time.Time:
		return "<date " + v.Format(time.RFC3339) + ">"
	case time.Duration:
		return parse.FormatDuration(v)
	case Filesize:
		return parse.FormatFilesize(int64(v))
	case List:
		b := NewListReprBuilder(indent)
		for it := v.Iterator(); it.HasElem(); it.Next() {
			b.WriteElem(Repr(it.Elem(), indent+1))
		}
		return b.String()
	case Reprer:
		return v.Repr(indent)
	default:
		return fmt.Sprintf("<unknown %v>", v)
	}
}

// ReprPlain is like Repr, but without pretty-printing.
func ReprPlain(v any) string {
	return Repr(v, NoPretty)
}

func formatFloat64(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep floats distinguishable from ints when reparsed.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func reprRecordKey(k string) string {
	quoted := parse.Quote(k)
	if quoted == k && !strings.Contains(k, ":") {
		return k
	}
	if strings.HasPrefix(quoted, `'`) || strings.HasPrefix(quoted, `"`) {
		return quoted
	}
	return `'` + strings.ReplaceAll(k, `'`, `''`) + `'`
}
