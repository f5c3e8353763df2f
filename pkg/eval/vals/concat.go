package vals

import (
	"src.sylph.sh/pkg/eval/errs"
)

// Concat concatenates two values with the ++ operator: strings with strings,
// binary with binary, lists with lists.
func Concat(a, b any) (any, error) {
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return a + b, nil
		}
	case []byte:
		if b, ok := b.([]byte); ok {
			out := make([]byte, 0, len(a)+len(b))
			out = append(out, a...)
			return append(out, b...), nil
		}
	case List:
		if b, ok := b.(List); ok {
			out := a
			for it := b.Iterator(); it.HasElem(); it.Next() {
				out = out.Conj(it.Elem())
			}
			return out, nil
		}
	}
	return nil, errs.TypeMismatch{What: "right operand of ++",
		Valid: Kind(a), Actual: Kind(b)}
}
