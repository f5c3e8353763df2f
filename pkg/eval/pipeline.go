package eval

import (
	"io"
	"os"

	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

func (fm *Frame) evalPipeline(p *parse.Pipeline) (PipelineData, error) {
	data := Empty
	for _, elem := range p.Elems {
		out, err := fm.evalPipeElem(elem, data)
		if err != nil {
			data.Close()
			return Empty, err
		}
		data = out
	}
	return data, nil
}

// evalPipeElem evaluates one pipeline stage with the given input. Stages run
// in the order written; laziness comes from the data, not from goroutines: a
// stage returning a stream leaves the work to whoever consumes it.
func (fm *Frame) evalPipeElem(elem *parse.PipeElem, input PipelineData) (PipelineData, error) {
	stage := *fm
	stage.input = input

	var outRedirs []*parse.Redir
	var stderrFiles []*os.File
	for _, redir := range elem.Redirs {
		switch redir.Mode {
		case parse.RedirStderr, parse.RedirStderrAppend:
			f, err := stage.openRedirFile(redir)
			if err != nil {
				return Empty, err
			}
			stderrFiles = append(stderrFiles, f)
			stage.stderrFile = f
		default:
			outRedirs = append(outRedirs, redir)
		}
	}
	defer func() {
		for _, f := range stderrFiles {
			f.Close()
		}
	}()

	var out PipelineData
	var err error
	if elem.Call != nil {
		out, err = stage.evalCall(elem.Call)
	} else {
		var v any
		v, err = stage.evalExpr(elem.Expr)
		input.Close()
		if err == nil {
			out = Value{v}
		}
	}
	if err != nil {
		return Empty, err
	}
	for _, redir := range outRedirs {
		out, err = stage.redirectOutput(redir, out)
		if err != nil {
			return Empty, err
		}
	}
	return out, nil
}

func (fm *Frame) openRedirFile(redir *parse.Redir) (*os.File, error) {
	target, err := fm.evalExpr(redir.Target)
	if err != nil {
		return nil, err
	}
	path := vals.ToString(target)
	flags := os.O_WRONLY | os.O_CREATE
	switch redir.Mode {
	case parse.RedirStdoutAppend, parse.RedirStderrAppend:
		flags |= os.O_APPEND
	default:
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fm.errorp(redir, err)
	}
	return f, nil
}

// redirectOutput writes the stage's output to the redirection target and
// consumes it. Byte streams are copied verbatim; values are written in their
// plain text form.
func (fm *Frame) redirectOutput(redir *parse.Redir, out PipelineData) (PipelineData, error) {
	f, err := fm.openRedirFile(redir)
	if err != nil {
		out.Close()
		return Empty, err
	}
	defer f.Close()
	switch out := out.(type) {
	case emptyData:
		return Empty, nil
	case *ByteStream:
		if _, err := io.Copy(f, out); err != nil {
			out.Close()
			return Empty, fm.errorp(redir, err)
		}
		return Empty, nil
	default:
		v, err := Collect(out)
		if err != nil {
			return Empty, fm.errorp(redir, err)
		}
		if v != nil {
			if _, err := io.WriteString(f, vals.ToString(v)+"\n"); err != nil {
				return Empty, fm.errorp(redir, err)
			}
		}
		return Empty, nil
	}
}

func (fm *Frame) evalCall(call *parse.Call) (PipelineData, error) {
	if call.External {
		return fm.evalExternal(call)
	}
	decl, ok := call.Spec.(*Decl)
	if !ok || decl.Cmd == nil {
		return Empty, fm.errorpf(call.HeadSpan, "command not found: %s", call.Head)
	}
	args, err := fm.evalArgs(call, decl.Sig)
	if err != nil {
		return Empty, err
	}
	out, err := decl.Cmd.Call(fm, args)
	if err != nil {
		return Empty, fm.errorp(call, err)
	}
	return out, nil
}

// evalArgs evaluates the arguments and flags of a call and checks their
// types against the signature. Arity was checked at parse time.
func (fm *Frame) evalArgs(call *parse.Call, sig *parse.Signature) (Args, error) {
	args := Args{CallSpan: call.Range()}
	for i, argExpr := range call.Args {
		param := positionalParam(sig, i)
		var v any
		var err error
		if param != nil && param.Type == "cell-path" {
			v, err = fm.cellPathArg(argExpr)
		} else {
			v, err = fm.evalExpr(argExpr)
		}
		if err != nil {
			return Args{}, err
		}
		if param != nil {
			if err := checkArgType(param.Name, param.Type, v); err != nil {
				return Args{}, fm.errorp(argExpr, err)
			}
		}
		args.Pos = append(args.Pos, v)
		args.PosSpans = append(args.PosSpans, argExpr.Range())
	}
	for _, flagArg := range call.Flags {
		f := sig.FindFlag(flagArg.Name)
		var v any
		if flagArg.Value != nil {
			var err error
			v, err = fm.evalExpr(flagArg.Value)
			if err != nil {
				return Args{}, err
			}
			if f != nil {
				if err := checkArgType("--"+f.Long, f.Type, v); err != nil {
					return Args{}, fm.errorp(flagArg, err)
				}
			}
		} else {
			v = true
		}
		if args.Flags == nil {
			args.Flags = make(map[string]any)
		}
		args.Flags[flagArg.Name] = v
	}
	return args, nil
}

func positionalParam(sig *parse.Signature, i int) *parse.Param {
	if sig == nil {
		return nil
	}
	if i < len(sig.Positional) {
		return sig.Positional[i]
	}
	return sig.Rest
}

// cellPathArg converts an argument expression to a cell path without
// evaluating bare field names as strings first, so that get name.0 reads as
// a path even though name alone would be a string.
func (fm *Frame) cellPathArg(e parse.Expr) (any, error) {
	switch e := e.(type) {
	case *parse.StringLit:
		return vals.CellPath{Members: []vals.Member{vals.NamedMember(e.Value)}}, nil
	case *parse.IntLit:
		return vals.CellPath{Members: []vals.Member{vals.IndexMember(e.Value)}}, nil
	case *parse.CellPathExpr:
		base, err := fm.cellPathArg(e.Base)
		if err != nil {
			return nil, err
		}
		cp := base.(vals.CellPath)
		for _, m := range e.Path {
			if m.IsIndex {
				cp.Members = append(cp.Members, vals.IndexMember(m.Index))
			} else {
				cp.Members = append(cp.Members, vals.NamedMember(m.Name))
			}
		}
		return cp, nil
	default:
		v, err := fm.evalExpr(e)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case vals.CellPath:
			return v, nil
		case string:
			return vals.CellPath{Members: []vals.Member{vals.NamedMember(v)}}, nil
		case int64:
			return vals.CellPath{Members: []vals.Member{vals.IndexMember(v)}}, nil
		default:
			return nil, fm.errorp(e, errs.TypeMismatch{
				What: "cell path", Valid: "cell-path", Actual: vals.Kind(v),
			})
		}
	}
}

// checkArgType checks one evaluated argument against its declared type.
func checkArgType(what, declared string, v any) error {
	if argTypeOK(declared, v) {
		return nil
	}
	return errs.TypeMismatch{What: what, Valid: declared, Actual: vals.Kind(v)}
}

func argTypeOK(declared string, v any) bool {
	switch declared {
	case "", "any":
		return true
	case "number":
		switch v.(type) {
		case int64, float64:
			return true
		}
		return false
	case "table":
		return vals.IsTable(v)
	case "closure":
		_, ok := v.(Command)
		return ok
	default:
		return vals.Kind(v) == declared
	}
}
