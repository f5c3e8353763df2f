package eval

import (
	"src.elv.sh/pkg/persistent/hashmap"
	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

// Closure is a first-class anonymous command. It captures the value of each
// free variable at the point of its definition, plus a snapshot of the
// environment overlay at that point; later rebinding of a captured name does
// not affect the closure.
type Closure struct {
	Sig      *parse.Signature
	Body     *parse.Block
	Captured map[string]any
	Env      hashmap.Map

	// SrcMeta is the source the body was parsed from, for tracebacks.
	SrcMeta parse.Source
}

var _ Command = (*Closure)(nil)

func (c *Closure) Kind() string { return "closure" }

// Equal compares closures by identity.
func (c *Closure) Equal(rhs any) bool { return c == rhs }

func (c *Closure) Hash() uint32 { return vals.PointerHash(c) }

func (c *Closure) Repr(indent int) string { return "<closure>" }

// Call runs the closure body with arguments bound over the captured scope.
// The captured scope chains to the session globals so that closures can call
// commands and reach globals defined after them.
func (c *Closure) Call(fm *Frame, args Args) (PipelineData, error) {
	base := &scope{parent: fm.Evaler.global, vars: c.Captured}
	callee := fm.fork(base)
	callee.src = c.SrcMeta
	callee.env = c.Env
	callee.input = fm.input
	if err := checkArity(c.Sig, "arguments", len(args.Pos)); err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	if err := bindArgs(callee, c.Sig, args); err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	out, err := callee.evalChunk(c.Body.Chunk)
	return interceptReturn(fm, args.CallSpan, out, err)
}

// userCmd is a command declared with def. Unlike a closure, its body is a
// capture wall: free variables resolve against the session globals at call
// time, not against the defining scope.
type userCmd struct {
	decl *Decl
}

var _ Command = (*userCmd)(nil)

func (u *userCmd) Call(fm *Frame, args Args) (PipelineData, error) {
	body := u.decl.body
	if body == nil {
		return Empty, fm.errorpf(args.CallSpan, "command %s has no body", parse.Quote(u.decl.Name))
	}
	callee := fm.fork(fm.Evaler.global)
	callee.input = fm.input
	if err := bindArgs(callee, u.decl.Sig, args); err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	out, err := callee.evalChunk(body.Chunk)
	return interceptReturn(fm, args.CallSpan, out, err)
}

// interceptReturn handles a flow signal escaping a command body: return
// becomes the command's output, while break and continue must not cross the
// call boundary and degrade to plain errors.
func interceptReturn(fm *Frame, span diag.Ranging, out PipelineData, err error) (PipelineData, error) {
	flow, ok := err.(*FlowError)
	if !ok {
		return out, err
	}
	if flow.Flow == Return {
		if flow.Value != nil {
			return flow.Value, nil
		}
		return Empty, nil
	}
	return Empty, &Exception{Reason: flow, Traceback: fm.addTraceback(span)}
}

// bindArgs binds evaluated arguments into the callee's scope per the
// signature. Arity and argument types were already checked at the call site;
// this fills in defaults for omitted optionals and collects the rest
// parameter into a list.
func bindArgs(callee *Frame, sig *parse.Signature, args Args) error {
	if sig == nil {
		sig = &parse.Signature{}
	}
	for i, p := range sig.Positional {
		if i < len(args.Pos) {
			callee.scope.set(p.Name, args.Pos[i])
			continue
		}
		if p.Default != nil {
			v, err := callee.evalExpr(p.Default)
			if err != nil {
				return err
			}
			callee.scope.set(p.Name, v)
		} else {
			callee.scope.set(p.Name, nil)
		}
	}
	if sig.Rest != nil {
		rest := vals.EmptyList
		for _, v := range args.Pos[min(len(sig.Positional), len(args.Pos)):] {
			rest = rest.Conj(v)
		}
		callee.scope.set(sig.Rest.Name, rest)
	}
	for _, f := range sig.Flags {
		if v, ok := args.Flags[f.Long]; ok {
			callee.scope.set(f.Long, v)
		} else if f.Takes() {
			callee.scope.set(f.Long, nil)
		} else {
			callee.scope.set(f.Long, false)
		}
	}
	return nil
}

// checkArity checks an argument count against a signature, attributing the
// error to the whole call.
func checkArity(sig *parse.Signature, what string, n int) error {
	low, high := 0, 0
	if sig != nil {
		low, high = sig.RequiredArgs(), sig.MaxArgs()
	}
	if n < low || (high >= 0 && n > high) {
		return errs.ArityMismatch{
			What: what, ValidLow: low, ValidHigh: high, Actual: n,
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
