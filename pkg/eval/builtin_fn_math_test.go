package eval_test

import (
	"testing"

	"src.sylph.sh/pkg/eval/errs"
	. "src.sylph.sh/pkg/eval/evaltest"
)

func TestMathAbs(t *testing.T) {
	Test(t,
		That("math abs 3").Puts(int64(3)),
		That("math abs (0 - 3)").Puts(int64(3)),
		That("math abs -1.5").Puts(1.5),
		// The most negative int64 has no positive counterpart; the
		// error points at the argument.
		That("math abs -9223372036854775808").Throws(
			ErrorWithMessage("overflow: integer subtraction"),
			"-9223372036854775808"),
		// A string argument fails the parse-time type check with the
		// argument's exact span.
		That("math abs 'oops'").Throws(
			ErrorWithType(errs.TypeMismatch{}), "'oops'"),
	)
}

func TestMathSum(t *testing.T) {
	Test(t,
		That("[1 2 3] | math sum").Puts(int64(6)),
		That("[] | math sum").Puts(int64(0)),
		That("[1 2.5] | math sum").Puts(3.5),
		That("1..100 | math sum").Puts(int64(5050)),
		That("[9223372036854775807 1] | math sum").Throws(
			ErrorWithMessage("overflow: integer addition"), "math sum"),
		That("['x'] | math sum").Throws(
			ErrorWithType(errs.TypeMismatch{}), "math sum"),
	)
}

func TestMathMaxMin(t *testing.T) {
	Test(t,
		That("[3 1 2] | math max").Puts(int64(3)),
		That("[3 1 2] | math min").Puts(int64(1)),
		That("[1.5 2] | math max").Puts(int64(2)),
		That("[] | math max").Throws(
			ErrorWithMessage(
				"bad value: input of math max must be non-empty, but is empty"),
			"math max"),
		That("[1 'x'] | math min").Throws(
			ErrorWithType(errs.TypeMismatch{}), "math min"),
	)
}
