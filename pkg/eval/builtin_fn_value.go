package eval

import (
	"io"
	"strings"

	"src.sylph.sh/pkg/eval/vals"
)

func valueCmds() []*Decl {
	return []*Decl{
		builtin("echo", "...values", echoCmd),
		builtin("print", "...values", printCmd),
		builtin("describe", "", describeCmd),
		builtin("get", "path: cell-path", getCmd),
		builtin("collect", "", collectCmd),
	}
}

// echoCmd produces its arguments as output: one value stays a value, several
// become a stream. Without arguments it passes its input through, so echo
// can head or relay a pipeline.
func echoCmd(fm *Frame, args Args) (PipelineData, error) {
	switch len(args.Pos) {
	case 0:
		return fm.input, nil
	case 1:
		fm.input.Close()
		return Value{args.Pos[0]}, nil
	default:
		fm.input.Close()
		return ListStreamOf(args.Pos...), nil
	}
}

// printCmd writes its arguments to the session's standard output, joined by
// spaces, with a trailing newline. It produces no pipeline output.
func printCmd(fm *Frame, args Args) (PipelineData, error) {
	fm.input.Close()
	parts := make([]string, len(args.Pos))
	for i, v := range args.Pos {
		parts[i] = vals.ToString(v)
	}
	_, err := io.WriteString(fm.Evaler.Files[1], strings.Join(parts, " ")+"\n")
	return Empty, err
}

// describeCmd names the kind of its input.
func describeCmd(fm *Frame, args Args) (PipelineData, error) {
	v, err := Collect(fm.input)
	if err != nil {
		return Empty, err
	}
	if vals.IsTable(v) {
		return Value{"table"}, nil
	}
	return Value{vals.Kind(v)}, nil
}

// getCmd follows a cell path into the input value.
func getCmd(fm *Frame, args Args) (PipelineData, error) {
	path := args.Pos[0].(vals.CellPath)
	v, err := Collect(fm.input)
	if err != nil {
		return Empty, err
	}
	got, err := path.Access(v)
	if err != nil {
		return Empty, fm.errorp(args.PosSpans[0], err)
	}
	return Value{got}, nil
}

// collectCmd materializes a stream into a single value, forcing any external
// producer to completion.
func collectCmd(fm *Frame, args Args) (PipelineData, error) {
	v, err := Collect(fm.input)
	if err != nil {
		return Empty, err
	}
	return Value{v}, nil
}
