package eval_test

import (
	"testing"
	"time"

	"src.sylph.sh/pkg/eval/errs"
	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/eval/vals"
)

func TestArithmetic(t *testing.T) {
	Test(t,
		That("1 + 2").Puts(int64(3)),
		That("10 - 3").Puts(int64(7)),
		That("4 * 5").Puts(int64(20)),
		That("1 + 2 * 3").Puts(int64(7)),
		That("(1 + 2) * 3").Puts(int64(9)),
		// Exact integer division stays an integer, inexact goes to float.
		That("6 / 3").Puts(int64(2)),
		That("7 / 2").Puts(3.5),
		That("7 // 2").Puts(int64(3)),
		That("-7 // 2").Puts(int64(-4)),
		That("7 mod 3").Puts(int64(1)),
		That("-7 mod 3").Puts(int64(2)),
		That("2 ** 10").Puts(int64(1024)),
		That("2 ** 3 ** 2").Puts(int64(512)),
		That("1.5 + 1").Puts(2.5),
		That("2 * 1.5").Puts(3.0),
	)
}

func TestArithmeticErrors(t *testing.T) {
	maxInt := "9223372036854775807"
	Test(t,
		That("1 / 0").Throws(ErrorWithType(errs.DivisionByZero{}), "/"),
		That("1 // 0").Throws(ErrorWithType(errs.DivisionByZero{}), "//"),
		That("1 mod 0").Throws(ErrorWithType(errs.DivisionByZero{}), "mod"),
		That(maxInt+" + 1").Throws(
			ErrorWithMessage("overflow: integer addition"), "+"),
		That(maxInt+" * 2").Throws(
			ErrorWithMessage("overflow: integer multiplication"), "*"),
		That("1 + 'x'").Throws(ErrorWithType(errs.TypeMismatch{}), "+"),
		// Division by zero is an error for floats too.
		That("1.0 / 0.0").Throws(ErrorWithType(errs.DivisionByZero{}), "/"),
	)
}

func TestUnitArithmetic(t *testing.T) {
	Test(t,
		That("10kb + 1kb").Puts(vals.Filesize(11_000)),
		That("10kb - 1kb").Puts(vals.Filesize(9_000)),
		That("10kb * 3").Puts(vals.Filesize(30_000)),
		That("3 * 10kb").Puts(vals.Filesize(30_000)),
		That("10kb / 2").Puts(vals.Filesize(5_000)),
		That("10kb / 10kb").Puts(1.0),
		That("100ms + 1s").Puts(1100*time.Millisecond),
		That("2s * 3").Puts(6*time.Second),
		That("-100ms").Puts(-100*time.Millisecond),
	)
}

func TestComparison(t *testing.T) {
	Test(t,
		That("1 < 2").Puts(true),
		That("2 <= 2").Puts(true),
		That("3 > 4").Puts(false),
		That("1 < 1.5").Puts(true),
		That("'apple' < 'banana'").Puts(true),
		That("1 == 1").Puts(true),
		That("1 == '1'").Puts(false),
		That("[1 2] == [1 2]").Puts(true),
		That("{a: 1} == {a: 1}").Puts(true),
		// Record comparison is order-sensitive.
		That("{a: 1, b: 2} == {b: 2, a: 1}").Puts(false),
		That("1 < 'x'").Throws(ErrorWithType(errs.TypeMismatch{}), "<"),
	)
}

func TestLogic(t *testing.T) {
	Test(t,
		That("true and false").Puts(false),
		That("true or false").Puts(true),
		That("not true").Puts(false),
		// Short circuit: the right operand of or is not reached.
		That("true or (1 / 0 == 0)").Puts(true),
		That("false and (1 / 0 == 0)").Puts(false),
	)
}

func TestMembershipAndMatch(t *testing.T) {
	Test(t,
		That("2 in [1 2 3]").Puts(true),
		That("5 in [1 2 3]").Puts(false),
		That("5 not-in [1 2 3]").Puts(true),
		That("'ell' in 'hello'").Puts(true),
		That("'a' in {a: 1}").Puts(true),
		That("2 in 1..5").Puts(true),
		That("'hello' =~ 'l+o'").Puts(true),
		That("'hello' !~ 'z'").Puts(true),
		That("'hello' =~ '('").Throws(
			ErrorWithType(errs.BadValue{}), "=~"),
	)
}

func TestConcat(t *testing.T) {
	Test(t,
		That("'foo' ++ 'bar'").Puts("foobar"),
		That("[1] ++ [2 3]").Puts(vals.MakeList(int64(1), int64(2), int64(3))),
		That("'a' + 'b'").Puts("ab"),
	)
}
