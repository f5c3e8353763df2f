package vals

import (
	"math"

	"src.sylph.sh/pkg/eval/errs"
)

// Checked fixed-width integer arithmetic. Overflow is an error, not a silent
// wraparound; float arithmetic keeps IEEE semantics, including NaN and
// infinity propagation, and is handled by the caller.

// AddInt returns a+b, or an error on overflow.
func AddInt(a, b int64) (int64, error) {
	s := a + b
	if (s > a) == (b > 0) {
		return s, nil
	}
	return 0, errs.Overflow{What: "integer addition"}
}

// SubInt returns a-b, or an error on overflow.
func SubInt(a, b int64) (int64, error) {
	d := a - b
	if (d < a) == (b > 0) {
		return d, nil
	}
	return 0, errs.Overflow{What: "integer subtraction"}
}

// MulInt returns a*b, or an error on overflow.
func MulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b == a && !(a == -1 && b == math.MinInt64) && !(b == -1 && a == math.MinInt64) {
		return p, nil
	}
	return 0, errs.Overflow{What: "integer multiplication"}
}

// DivInt returns a/b truncated towards zero. Division by zero and
// MinInt64/-1 are errors.
func DivInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errs.DivisionByZero{}
	}
	if a == math.MinInt64 && b == -1 {
		return 0, errs.Overflow{What: "integer division"}
	}
	return a / b, nil
}

// ModInt returns a mod b, with the sign of b. Division by zero is an error.
func ModInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errs.DivisionByZero{}
	}
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m, nil
}

// PowInt returns a**b, or an error on overflow or negative exponent.
func PowInt(a, b int64) (int64, error) {
	if b < 0 {
		return 0, errs.BadValue{What: "integer exponent",
			Valid: "non-negative", Actual: Repr(b, NoPretty)}
	}
	result := int64(1)
	for ; b > 0; b-- {
		var err error
		result, err = MulInt(result, a)
		if err != nil {
			return 0, errs.Overflow{What: "integer exponentiation"}
		}
	}
	return result, nil
}
