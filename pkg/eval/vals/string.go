package vals

import (
	"strconv"
	"strings"
	"time"

	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/parse"
)

// Stringer wraps the String method.
type Stringer interface {
	String() string
}

// ToString converts a value to its plain-text form: the form used when the
// value is written to an external command or joined into a string. Unlike
// Repr, strings stay unquoted and lists join their elements with newlines.
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
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
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return parse.FormatDuration(v)
	case Filesize:
		return parse.FormatFilesize(int64(v))
	case List:
		var sb strings.Builder
		for it := v.Iterator(); it.HasElem(); it.Next() {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(ToString(it.Elem()))
		}
		return sb.String()
	case Stringer:
		return v.String()
	default:
		return ReprPlain(v)
	}
}

// ToInt converts a value to int64, accepting ints and int-valued strings.
func ToInt(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case string:
		i, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return 0, errs.BadValue{What: "int string",
				Valid: "integer literal", Actual: ReprPlain(v)}
		}
		return i, nil
	default:
		return 0, errs.TypeMismatch{What: "value used as int",
			Valid: "int", Actual: Kind(v)}
	}
}

// ToFloat converts a value to float64, accepting ints, floats and numeric
// strings.
func ToFloat(v any) (float64, error) {
	switch v := v.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errs.BadValue{What: "float string",
				Valid: "numeric literal", Actual: ReprPlain(v)}
		}
		return f, nil
	default:
		return 0, errs.TypeMismatch{What: "value used as float",
			Valid: "number", Actual: Kind(v)}
	}
}
