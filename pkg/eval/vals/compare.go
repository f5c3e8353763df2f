package vals

import (
	"time"

	"src.sylph.sh/pkg/eval/errs"
)

// Ordering is the result of comparing two values.
type Ordering uint8

// Possible Ordering values.
const (
	CmpLess Ordering = iota
	CmpEqual
	CmpMore
	CmpUncomparable
)

// Cmp compares two values and returns whether the first is less than, equal
// to or greater than the second, or CmpUncomparable. Ints and floats compare
// with each other numerically; otherwise only values of the same kind
// compare, and there is no default ordering across kinds.
func Cmp(a, b any) Ordering {
	switch a := a.(type) {
	case int64:
		switch b := b.(type) {
		case int64:
			return cmpInt(a, b)
		case float64:
			return cmpFloat(float64(a), b)
		}
	case float64:
		switch b := b.(type) {
		case int64:
			return cmpFloat(a, float64(b))
		case float64:
			return cmpFloat(a, b)
		}
	case string:
		if b, ok := b.(string); ok {
			switch {
			case a == b:
				return CmpEqual
			case a < b:
				return CmpLess
			default:
				return CmpMore
			}
		}
	case bool:
		if b, ok := b.(bool); ok {
			switch {
			case a == b:
				return CmpEqual
			case b:
				return CmpLess
			default:
				return CmpMore
			}
		}
	case time.Time:
		if b, ok := b.(time.Time); ok {
			switch {
			case a.Equal(b):
				return CmpEqual
			case a.Before(b):
				return CmpLess
			default:
				return CmpMore
			}
		}
	case time.Duration:
		if b, ok := b.(time.Duration); ok {
			return cmpInt(int64(a), int64(b))
		}
	case Filesize:
		if b, ok := b.(Filesize); ok {
			return cmpInt(int64(a), int64(b))
		}
	case List:
		if b, ok := b.(List); ok {
			ia, ib := a.Iterator(), b.Iterator()
			for ia.HasElem() && ib.HasElem() {
				o := Cmp(ia.Elem(), ib.Elem())
				if o != CmpEqual {
					return o
				}
				ia.Next()
				ib.Next()
			}
			return cmpInt(int64(a.Len()), int64(b.Len()))
		}
	}
	return CmpUncomparable
}

// CmpErr is like Cmp, but incomparable values produce an
// errs.TypeMismatch instead of a sentinel ordering.
func CmpErr(a, b any) (Ordering, error) {
	o := Cmp(a, b)
	if o == CmpUncomparable {
		return o, errs.TypeMismatch{
			What: "value being compared with " + Kind(a),
			Valid: "comparable to " + Kind(a), Actual: Kind(b)}
	}
	return o, nil
}

func cmpInt(a, b int64) Ordering {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpMore
	default:
		return CmpEqual
	}
}

func cmpFloat(a, b float64) Ordering {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpMore
	case a == b:
		return CmpEqual
	default:
		// NaN on either side.
		return CmpUncomparable
	}
}
