package eval

import (
	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/parse"
)

// Command is anything callable as a pipeline stage: builtins, user-defined
// commands, closures and plugin commands. The frame carries the stage's
// pipeline input; the returned PipelineData is its output.
//
// Call may return a lazy stream; the error it returns then only covers
// failures up to the point the stream was set up. Failures while the stream
// is consumed surface from the consumer.
type Command interface {
	Call(fm *Frame, args Args) (PipelineData, error)
}

// Args keeps the evaluated arguments of one call. Positional spans are
// parallel to Pos and point at the argument expressions, for precise error
// positions.
type Args struct {
	Pos      []any
	PosSpans []diag.Ranging
	Flags    map[string]any

	// CallSpan covers the whole call, head included.
	CallSpan diag.Ranging
}

// Flag returns the value of a flag, or its absence.
func (a Args) Flag(name string) (any, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

// SetFlag reports whether a flag was given, for switch flags.
func (a Args) SetFlag(name string) bool {
	_, ok := a.Flags[name]
	return ok
}

// BuiltinCmd is a command implemented in Go. Its signature is declared in
// the same syntax user-defined commands use; the call site checks arity and
// argument types against it before impl runs.
type BuiltinCmd struct {
	name string
	sig  *parse.Signature
	impl func(*Frame, Args) (PipelineData, error)
}

func (b *BuiltinCmd) Call(fm *Frame, args Args) (PipelineData, error) {
	return b.impl(fm, args)
}

// Kind identifies builtin command values.
func (b *BuiltinCmd) Kind() string { return "builtin" }

func (b *BuiltinCmd) Repr(indent int) string { return "<builtin " + b.name + ">" }
