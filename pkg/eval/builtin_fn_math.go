package eval

import (
	"math"

	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
)

func mathCmds() []*Decl {
	return []*Decl{
		builtin("math abs", "n: number", mathAbsCmd),
		builtin("math sum", "", mathSumCmd),
		builtin("math max", "", mathMaxCmd),
		builtin("math min", "", mathMinCmd),
	}
}

func mathAbsCmd(fm *Frame, args Args) (PipelineData, error) {
	fm.input.Close()
	switch n := args.Pos[0].(type) {
	case int64:
		if n >= 0 {
			return Value{n}, nil
		}
		abs, err := vals.SubInt(0, n)
		if err != nil {
			return Empty, fm.errorp(args.PosSpans[0], err)
		}
		return Value{abs}, nil
	default:
		return Value{math.Abs(n.(float64))}, nil
	}
}

// mathSumCmd sums the input numbers. The sum stays an integer until a float
// appears; integer overflow is an error, not a wraparound.
func mathSumCmd(fm *Frame, args Args) (PipelineData, error) {
	intSum := int64(0)
	floatSum := 0.0
	isFloat := false
	var sumErr error
	err := Elements(fm.input, func(v any) bool {
		switch v := v.(type) {
		case int64:
			if isFloat {
				floatSum += float64(v)
				return true
			}
			intSum, sumErr = vals.AddInt(intSum, v)
		case float64:
			if !isFloat {
				isFloat = true
				floatSum = float64(intSum)
			}
			floatSum += v
		default:
			sumErr = errs.TypeMismatch{What: "input of math sum",
				Valid: "number", Actual: vals.Kind(v)}
		}
		return sumErr == nil
	})
	if err == nil {
		err = sumErr
	}
	if err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	if isFloat {
		return Value{floatSum}, nil
	}
	return Value{intSum}, nil
}

func mathMaxCmd(fm *Frame, args Args) (PipelineData, error) {
	return extremum(fm, args, "math max", vals.CmpMore)
}

func mathMinCmd(fm *Frame, args Args) (PipelineData, error) {
	return extremum(fm, args, "math min", vals.CmpLess)
}

func extremum(fm *Frame, args Args, what string, want vals.Ordering) (PipelineData, error) {
	var best any
	found := false
	var cmpErr error
	err := Elements(fm.input, func(v any) bool {
		if !found {
			best, found = v, true
			return true
		}
		var ord vals.Ordering
		ord, cmpErr = vals.CmpErr(v, best)
		if cmpErr != nil {
			return false
		}
		if ord == want {
			best = v
		}
		return true
	})
	if err == nil {
		err = cmpErr
	}
	if err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	if !found {
		return Empty, fm.errorp(args.CallSpan, errs.BadValue{
			What: "input of " + what, Valid: "non-empty", Actual: "empty"})
	}
	return Value{best}, nil
}
