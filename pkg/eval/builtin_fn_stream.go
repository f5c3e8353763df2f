package eval

import (
	"sort"
	"strings"

	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/strutil"
)

func streamCmds() []*Decl {
	return []*Decl{
		builtin("sort", "--reverse (-r)", sortCmd),
		builtin("first", "n?: int", firstCmd),
		builtin("last", "n?: int", lastCmd),
		builtin("skip", "n: int", skipCmd),
		builtin("reverse", "", reverseCmd),
		builtin("length", "", lengthCmd),
		builtin("each", "fn: closure", eachCmd),
		builtin("where", "pred: closure", whereCmd),
		builtin("lines", "", linesCmd),
	}
}

// sortCmd sorts the input elements. The sort is stable; elements of
// incomparable kinds are an error.
func sortCmd(fm *Frame, args Args) (PipelineData, error) {
	var elems []any
	err := Elements(fm.input, func(v any) bool {
		elems = append(elems, v)
		return true
	})
	if err != nil {
		return Empty, err
	}
	var cmpErr error
	sort.SliceStable(elems, func(i, j int) bool {
		ord, err := vals.CmpErr(elems[i], elems[j])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return ord == vals.CmpLess
	})
	if cmpErr != nil {
		return Empty, fm.errorp(args.CallSpan, cmpErr)
	}
	if args.SetFlag("reverse") {
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
	}
	return Value{vals.MakeList(elems...)}, nil
}

// firstCmd takes the first element, or with an argument the first n as a
// list. It stops the input stream as soon as it has enough, which is what
// lets it head an infinite producer.
func firstCmd(fm *Frame, args Args) (PipelineData, error) {
	if len(args.Pos) == 0 {
		var first any
		found := false
		err := Elements(fm.input, func(v any) bool {
			first, found = v, true
			return false
		})
		if err != nil {
			return Empty, err
		}
		if !found {
			return Empty, fm.errorp(args.CallSpan, errs.BadValue{
				What: "input of first", Valid: "non-empty", Actual: "empty"})
		}
		return Value{first}, nil
	}
	n := args.Pos[0].(int64)
	taken := vals.EmptyList
	err := Elements(fm.input, func(v any) bool {
		if int64(taken.Len()) >= n {
			return false
		}
		taken = taken.Conj(v)
		return int64(taken.Len()) < n
	})
	if err != nil {
		return Empty, err
	}
	return Value{taken}, nil
}

// lastCmd takes the last element, or with an argument the last n as a list.
// It must drain the input.
func lastCmd(fm *Frame, args Args) (PipelineData, error) {
	n := int64(1)
	single := len(args.Pos) == 0
	if !single {
		n = args.Pos[0].(int64)
	}
	var ring []any
	err := Elements(fm.input, func(v any) bool {
		ring = append(ring, v)
		if int64(len(ring)) > n {
			ring = ring[1:]
		}
		return true
	})
	if err != nil {
		return Empty, err
	}
	if single {
		if len(ring) == 0 {
			return Empty, fm.errorp(args.CallSpan, errs.BadValue{
				What: "input of last", Valid: "non-empty", Actual: "empty"})
		}
		return Value{ring[0]}, nil
	}
	return Value{vals.MakeList(ring...)}, nil
}

// skipCmd drops the first n elements, lazily.
func skipCmd(fm *Frame, args Args) (PipelineData, error) {
	n := args.Pos[0].(int64)
	in := intoStream(fm.input)
	skipped := int64(0)
	return NewListStream(func() (any, bool, error) {
		for skipped < n {
			_, ok, err := in.Next()
			if !ok || err != nil {
				return nil, false, err
			}
			skipped++
		}
		return in.Next()
	}, in.Close), nil
}

func reverseCmd(fm *Frame, args Args) (PipelineData, error) {
	var elems []any
	err := Elements(fm.input, func(v any) bool {
		elems = append(elems, v)
		return true
	})
	if err != nil {
		return Empty, err
	}
	rev := vals.EmptyList
	for i := len(elems) - 1; i >= 0; i-- {
		rev = rev.Conj(elems[i])
	}
	return Value{rev}, nil
}

// lengthCmd counts the input: entries for a record, elements for everything
// else.
func lengthCmd(fm *Frame, args Args) (PipelineData, error) {
	if v, ok := fm.input.(Value); ok {
		if rec, ok := v.V.(*vals.Record); ok {
			return Value{int64(rec.Len())}, nil
		}
	}
	n := int64(0)
	err := Elements(fm.input, func(any) bool {
		n++
		return true
	})
	if err != nil {
		return Empty, err
	}
	return Value{n}, nil
}

// eachCmd applies a closure to every input element, lazily: the closure for
// an element runs when the downstream stage asks for it.
func eachCmd(fm *Frame, args Args) (PipelineData, error) {
	fn := args.Pos[0].(Command)
	in := intoStream(fm.input)
	return NewListStream(func() (any, bool, error) {
		v, ok, err := in.Next()
		if !ok || err != nil {
			return nil, false, err
		}
		out, err := callValue(fm, fn, args, v)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}, in.Close), nil
}

// whereCmd keeps the input elements for which the closure yields a true
// value.
func whereCmd(fm *Frame, args Args) (PipelineData, error) {
	pred := args.Pos[0].(Command)
	in := intoStream(fm.input)
	return NewListStream(func() (any, bool, error) {
		for {
			v, ok, err := in.Next()
			if !ok || err != nil {
				return nil, false, err
			}
			keep, err := callValue(fm, pred, args, v)
			if err != nil {
				return nil, false, err
			}
			if vals.Bool(keep) {
				return v, true, nil
			}
		}
	}, in.Close), nil
}

// callValue calls a closure on one element and materializes its output. A
// closure with a parameter receives the element as its argument; a
// parameterless closure receives it as $in.
func callValue(fm *Frame, fn Command, args Args, v any) (any, error) {
	callee := *fm
	callee.input = Empty
	callArgs := Args{CallSpan: args.CallSpan}
	if takesArg(fn) {
		callArgs.Pos = []any{v}
		callArgs.PosSpans = []diag.Ranging{args.PosSpans[0]}
	} else {
		callee.input = Value{v}
	}
	out, err := fn.Call(&callee, callArgs)
	if err != nil {
		return nil, err
	}
	return Collect(out)
}

func takesArg(fn Command) bool {
	c, ok := fn.(*Closure)
	return !ok || (c.Sig != nil && c.Sig.MaxArgs() != 0)
}

// linesCmd splits the input into lines: a byte stream streams its lines, a
// string value splits eagerly.
func linesCmd(fm *Frame, args Args) (PipelineData, error) {
	if v, ok := fm.input.(Value); ok {
		if s, ok := v.V.(string); ok {
			split := strings.Split(strutil.ChopLineEnding(s), "\n")
			lines := make([]any, len(split))
			for i, line := range split {
				lines[i] = line
			}
			return ListStreamOf(lines...), nil
		}
	}
	return intoStream(fm.input), nil
}
