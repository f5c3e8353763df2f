package vals

import (
	"math"
	"testing"

	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/tt"
)

func TestCheckedArithmetic(t *testing.T) {
	tt.Test(t, tt.Fn("AddInt", AddInt), tt.Table{
		tt.Args(int64(1), int64(2)).Rets(int64(3), nil),
		tt.Args(int64(math.MaxInt64), int64(1)).Rets(
			int64(0), errs.Overflow{What: "integer addition"}),
		tt.Args(int64(math.MinInt64), int64(-1)).Rets(
			int64(0), errs.Overflow{What: "integer addition"}),
	})
	tt.Test(t, tt.Fn("SubInt", SubInt), tt.Table{
		tt.Args(int64(1), int64(2)).Rets(int64(-1), nil),
		tt.Args(int64(math.MinInt64), int64(1)).Rets(
			int64(0), errs.Overflow{What: "integer subtraction"}),
	})
	tt.Test(t, tt.Fn("MulInt", MulInt), tt.Table{
		tt.Args(int64(3), int64(-4)).Rets(int64(-12), nil),
		tt.Args(int64(0), int64(math.MaxInt64)).Rets(int64(0), nil),
		tt.Args(int64(math.MaxInt64), int64(2)).Rets(
			int64(0), errs.Overflow{What: "integer multiplication"}),
	})
	tt.Test(t, tt.Fn("DivInt", DivInt), tt.Table{
		tt.Args(int64(7), int64(2)).Rets(int64(3), nil),
		tt.Args(int64(-7), int64(2)).Rets(int64(-3), nil),
		tt.Args(int64(1), int64(0)).Rets(int64(0), errs.DivisionByZero{}),
		tt.Args(int64(math.MinInt64), int64(-1)).Rets(
			int64(0), errs.Overflow{What: "integer division"}),
	})
	tt.Test(t, tt.Fn("ModInt", ModInt), tt.Table{
		tt.Args(int64(7), int64(3)).Rets(int64(1), nil),
		tt.Args(int64(-7), int64(3)).Rets(int64(2), nil),
		tt.Args(int64(1), int64(0)).Rets(int64(0), errs.DivisionByZero{}),
	})
	tt.Test(t, tt.Fn("PowInt", PowInt), tt.Table{
		tt.Args(int64(2), int64(10)).Rets(int64(1024), nil),
		tt.Args(int64(2), int64(0)).Rets(int64(1), nil),
		tt.Args(int64(2), int64(64)).Rets(
			int64(0), errs.Overflow{What: "integer exponentiation"}),
	})
}
