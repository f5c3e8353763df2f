package eval

import (
	"fmt"
	"os"

	"src.elv.sh/pkg/persistent/hashmap"
	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/parse"
)

// Frame is the mutable state of one callable invocation: its local variable
// scope, its environment variable overlay, its pipeline input, and the
// plumbing for interrupts and diagnostics. A new Frame is pushed per call
// and popped when the call returns.
type Frame struct {
	Evaler *Evaler
	engine *EngineState

	src   parse.Source
	scope *scope
	// env is this frame's environment overlay. It starts as a snapshot of
	// the caller's, so let-env never propagates back to the caller.
	env hashmap.Map

	// input is the pipeline data flowing into the current stage.
	input PipelineData

	intCh <-chan struct{}
	procs *procSet

	traceback *StackTrace

	// stderrFile receives the stderr of external commands, subject to e>
	// redirections.
	stderrFile *os.File
}

// scope is one layer of local variable bindings. Layers chain lexically
// within and across frames; a frame's outermost scope links to the closure
// capture or the session globals.
type scope struct {
	parent *scope
	vars   map[string]any
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]any)}
}

func (s *scope) lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// set binds a name in this scope, shadowing any binding in outer scopes.
func (s *scope) set(name string, v any) { s.vars[name] = v }

// fork returns a child frame sharing this frame's session plumbing, with a
// fresh scope layer rooted at base and a snapshot of the environment.
func (fm *Frame) fork(base *scope) *Frame {
	child := *fm
	child.scope = newScope(base)
	child.input = Empty
	return &child
}

// IsInterrupted reports whether the evaluation has been interrupted.
func (fm *Frame) IsInterrupted() bool {
	select {
	case <-fm.intCh:
		return true
	default:
		return false
	}
}

// addTraceback pushes a source context for the given range onto the
// traceback.
func (fm *Frame) addTraceback(r diag.Ranger) *StackTrace {
	return &StackTrace{
		Head: diag.NewContext(fm.src.Name, fm.src.Code, r.Range()),
		Next: fm.traceback,
	}
}

// errorp wraps an error into an *Exception at the given source range.
// Exceptions and flow signals pass through unchanged so that the innermost
// context wins and control flow stays interceptable.
func (fm *Frame) errorp(r diag.Ranger, e error) error {
	switch e := e.(type) {
	case nil:
		return nil
	case *Exception:
		return e
	case *FlowError:
		return e
	default:
		return &Exception{Reason: e, Traceback: fm.addTraceback(r)}
	}
}

// errorpf is errorp with fmt.Errorf.
func (fm *Frame) errorpf(r diag.Ranger, format string, args ...any) error {
	return fm.errorp(r, fmt.Errorf(format, args...))
}
