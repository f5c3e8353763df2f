// Package eval implements the sylph evaluator: a tree-walking interpreter
// over the AST produced by pkg/parse, with session state in EngineState,
// per-call state in Frame, and PipelineData flowing between pipeline stages.
package eval

import (
	"io"
	"os"

	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/logutil"
	"src.sylph.sh/pkg/parse"
)

var logger = logutil.GetLogger("[eval] ")

// Evaler is a sylph evaluation session. It owns the engine state and the
// session-lived global scope, and hands out frames for individual
// evaluations.
//
// The evaluator itself is single-threaded: concurrency arises only from
// external processes running ahead of their consumer.
type Evaler struct {
	Engine *EngineState

	// Files are the session's standard input, output and error.
	Files [3]*os.File

	global *scope
}

// NewEvaler creates a new Evaler with the builtin command set registered.
func NewEvaler() *Evaler {
	return &Evaler{
		Engine: NewEngineState(),
		Files:  [3]*os.File{os.Stdin, os.Stdout, os.Stderr},
		global: newScope(nil),
	}
}

// EvalCfg keeps configuration for an Eval call.
type EvalCfg struct {
	// Interrupts is closed to interrupt the evaluation: spawned external
	// processes are terminated and the evaluation unwinds with
	// ErrInterrupted.
	Interrupts <-chan struct{}
}

// Eval parses and evaluates a piece of source code. It returns the
// PipelineData of the last statement (the output of non-final statements is
// written to the session's standard output) and any parse or evaluation
// error. Parse errors aggregate; evaluation stops at the first Exception.
//
// Top-level let bindings and let-env changes persist in the session.
func (ev *Evaler) Eval(src parse.Source, cfg EvalCfg) (PipelineData, error) {
	tree, err := parse.Parse(src, parse.Config{DeclTable: ev.Engine})
	if err != nil {
		return nil, err
	}
	return ev.evalTree(tree, cfg)
}

func (ev *Evaler) evalTree(tree parse.Tree, cfg EvalCfg) (PipelineData, error) {
	intCh := cfg.Interrupts
	if intCh == nil {
		intCh = make(chan struct{})
	}
	procs := newProcSet()
	fm := &Frame{
		Evaler:     ev,
		engine:     ev.Engine,
		src:        tree.Source,
		scope:      newScope(ev.global),
		env:        emptyEnv,
		input:      Empty,
		intCh:      intCh,
		procs:      procs,
		stderrFile: ev.Files[2],
	}

	// Kill the pipeline's processes as soon as an interrupt arrives, so
	// that a frame blocked on a child's output wakes up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-intCh:
			procs.killAll()
		case <-done:
		}
	}()

	out, err := fm.evalChunk(tree.Root)
	if err != nil {
		procs.killAll()
	}
	// Globals bound at the top level persist for the session.
	for name, v := range fm.scope.vars {
		ev.global.set(name, v)
	}
	ev.Engine.mergeSessionEnv(fm.env)
	if flow, ok := err.(*FlowError); ok {
		// A flow signal that escaped to the top level is a plain error.
		if flow.Value != nil {
			flow.Value.Close()
		}
		err = &Exception{Reason: flow, Traceback: fm.addTraceback(tree.Root)}
	}
	return out, err
}

// evalChunk evaluates the statements of a chunk in order. The value of the
// chunk is the value of its last statement; the output of earlier statements
// is drained to the session's standard output.
func (fm *Frame) evalChunk(chunk *parse.Chunk) (PipelineData, error) {
	out := Empty
	for i, stmt := range chunk.Stmts {
		if fm.IsInterrupted() {
			return Empty, fm.errorp(stmt, ErrInterrupted)
		}
		data, err := fm.evalStmt(stmt)
		if err != nil {
			return Empty, err
		}
		if i < len(chunk.Stmts)-1 {
			if err := fm.drainToStdout(data, stmt); err != nil {
				return Empty, err
			}
		} else {
			out = data
		}
	}
	return out, nil
}

// drainToStdout consumes pipeline data, writing its plain-text form to the
// session's standard output. It forces external commands in non-final
// statements to run to completion and surfaces their exit status.
func (fm *Frame) drainToStdout(data PipelineData, r parse.Node) error {
	switch data := data.(type) {
	case emptyData:
		return nil
	case *ByteStream:
		_, err := io.Copy(fm.Evaler.Files[1], data)
		return fm.errorp(r, err)
	default:
		v, err := Collect(data)
		if err != nil {
			return fm.errorp(r, err)
		}
		if v == nil {
			return nil
		}
		_, werr := io.WriteString(fm.Evaler.Files[1], vals.ToString(v)+"\n")
		return fm.errorp(r, werr)
	}
}

// collectEnvRecord builds a record of the visible environment: the frame's
// overlay over the engine's overlay stack.
func (fm *Frame) collectEnvRecord() *vals.Record {
	fm.engine.mu.RLock()
	merged := map[string]any{}
	var order []string
	for _, o := range fm.engine.overlays {
		for it := o.env.Iterator(); it.HasElem(); it.Next() {
			k, v := it.Elem()
			if _, seen := merged[k.(string)]; !seen {
				order = append(order, k.(string))
			}
			merged[k.(string)] = v
		}
	}
	fm.engine.mu.RUnlock()
	for it := fm.env.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		if _, seen := merged[k.(string)]; !seen {
			order = append(order, k.(string))
		}
		merged[k.(string)] = v
	}
	r := vals.EmptyRecord
	for _, k := range order {
		r = r.Assoc(k, merged[k])
	}
	return r
}

// getEnv resolves one environment variable: frame overlay first, then the
// engine's overlay stack.
func (fm *Frame) getEnv(name string) (any, bool) {
	if v, ok := fm.env.Index(name); ok {
		return v, true
	}
	if v, ok := fm.engine.getEnv(name); ok {
		return v, true
	}
	return nil, false
}
