package eval

import (
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

func (fm *Frame) evalStmt(stmt parse.Stmt) (PipelineData, error) {
	switch stmt := stmt.(type) {
	case *parse.Pipeline:
		return fm.evalPipeline(stmt)
	case *parse.LetStmt:
		return fm.evalLet(stmt)
	case *parse.LetEnvStmt:
		return fm.evalLetEnv(stmt)
	case *parse.DefStmt:
		// Declared at parse time; nothing to do at run time.
		return Empty, nil
	case *parse.ModuleStmt, *parse.UseStmt, *parse.OverlayStmt:
		// Same: these mutate the engine state while parsing.
		return Empty, nil
	case *parse.RegisterStmt:
		return Empty, fm.errorp(stmt, fm.engine.PersistPlugin(stmt.Path, stmt.Commands))
	case *parse.ForStmt:
		return fm.evalFor(stmt)
	case *parse.WhileStmt:
		return fm.evalWhile(stmt)
	case *parse.ReturnStmt:
		return fm.evalReturn(stmt)
	case *parse.BreakStmt:
		return Empty, &FlowError{Flow: Break}
	case *parse.ContinueStmt:
		return Empty, &FlowError{Flow: Continue}
	case *parse.BadStmt:
		return Empty, fm.errorpf(stmt, "cannot evaluate code with parse errors")
	default:
		return Empty, fm.errorpf(stmt, "bug: unknown statement type %T", stmt)
	}
}

// evalLet evaluates the right-hand side pipeline to completion and binds the
// collected value. Binding is what forces a lazy stream, so an external
// command on the right-hand side runs to completion here and its failure
// surfaces on this statement.
func (fm *Frame) evalLet(stmt *parse.LetStmt) (PipelineData, error) {
	v, err := fm.collectPipeline(stmt.RHS)
	if err != nil {
		return Empty, err
	}
	fm.scope.set(stmt.Name, v)
	return Empty, nil
}

func (fm *Frame) evalLetEnv(stmt *parse.LetEnvStmt) (PipelineData, error) {
	v, err := fm.collectPipeline(stmt.RHS)
	if err != nil {
		return Empty, err
	}
	fm.env = fm.env.Assoc(stmt.Name, vals.ToString(v))
	return Empty, nil
}

// collectPipeline evaluates a pipeline and materializes its output into a
// single value.
func (fm *Frame) collectPipeline(p *parse.Pipeline) (any, error) {
	data, err := fm.evalPipeline(p)
	if err != nil {
		return nil, err
	}
	v, err := Collect(data)
	if err != nil {
		return nil, fm.errorp(p, err)
	}
	return v, nil
}

// evalFor iterates the loop body over the elements of the iterable. The loop
// itself produces no pipeline value; the output of each iteration goes to
// the session's standard output.
func (fm *Frame) evalFor(stmt *parse.ForStmt) (PipelineData, error) {
	iterable, err := fm.evalExpr(stmt.Iter)
	if err != nil {
		return Empty, err
	}
	if !vals.CanIterate(iterable) {
		return Empty, fm.errorpf(stmt.Iter, "cannot iterate %s", vals.Kind(iterable))
	}
	var loopErr error
	vals.Iterate(iterable, func(elem any) bool {
		if fm.IsInterrupted() {
			loopErr = fm.errorp(stmt, ErrInterrupted)
			return false
		}
		body := fm.fork(fm.scope)
		body.scope.set(stmt.VarName, elem)
		out, err := body.evalChunk(stmt.Body.Chunk)
		if err == nil {
			err = fm.drainToStdout(out, stmt)
		}
		loopErr = err
		return fm.continueLoop(&loopErr)
	})
	return Empty, loopErr
}

func (fm *Frame) evalWhile(stmt *parse.WhileStmt) (PipelineData, error) {
	for {
		if fm.IsInterrupted() {
			return Empty, fm.errorp(stmt, ErrInterrupted)
		}
		cond, err := fm.evalExpr(stmt.Cond)
		if err != nil {
			return Empty, err
		}
		if !vals.Bool(cond) {
			return Empty, nil
		}
		body := fm.fork(fm.scope)
		out, err := body.evalChunk(stmt.Body.Chunk)
		if err == nil {
			err = fm.drainToStdout(out, stmt)
		}
		if !fm.continueLoop(&err) {
			return Empty, err
		}
	}
}

// continueLoop interprets the error of one loop iteration: break stops the
// loop silently, continue proceeds to the next iteration, anything else
// stops the loop and propagates.
func (fm *Frame) continueLoop(errp *error) bool {
	switch flow, ok := (*errp).(*FlowError); {
	case *errp == nil:
		return true
	case ok && flow.Flow == Break:
		*errp = nil
		return false
	case ok && flow.Flow == Continue:
		*errp = nil
		return true
	default:
		return false
	}
}

func (fm *Frame) evalReturn(stmt *parse.ReturnStmt) (PipelineData, error) {
	flow := &FlowError{Flow: Return}
	if stmt.Value != nil {
		v, err := fm.evalExpr(stmt.Value)
		if err != nil {
			return Empty, err
		}
		flow.Value = Value{v}
	}
	return Empty, flow
}
