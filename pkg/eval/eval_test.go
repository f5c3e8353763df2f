package eval_test

import (
	"testing"
	"time"

	"src.sylph.sh/pkg/eval/errs"
	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/eval/vals"
)

func TestLiterals(t *testing.T) {
	Test(t,
		That("42").Puts(int64(42)),
		That("-3").Puts(int64(-3)),
		That("2.5").Puts(2.5),
		That("'hi'").Puts("hi"),
		That(`"hi there"`).Puts("hi there"),
		That("true").Puts(true),
		That("false").Puts(false),
		That("null").Puts(nil),
		That("10kb").Puts(vals.Filesize(10_000)),
		That("100ms").Puts(100*time.Millisecond),
		That("[1 2 3]").Puts(vals.MakeList(int64(1), int64(2), int64(3))),
		That("{name: 'a', size: 1}").
			Puts(vals.MakeRecord("name", "a", "size", int64(1))),
		That("1..3").Puts(&vals.Range{From: 1, To: 3}),
		That("1..<3").Puts(&vals.Range{From: 1, To: 3, Exclusive: true}),
	)
}

func TestTableLiteral(t *testing.T) {
	Test(t,
		That("[[name size]; [a 1] [b 2]]").PutsList(
			vals.MakeRecord("name", "a", "size", int64(1)),
			vals.MakeRecord("name", "b", "size", int64(2)),
		),
	)
}

func TestStringInterpolation(t *testing.T) {
	Test(t,
		That(`let x = 5`, `$"x is ($x)"`).Puts("x is 5"),
		That(`$"two plus two is (2 + 2)"`).Puts("two plus two is 4"),
	)
}

func TestLet(t *testing.T) {
	Test(t,
		That("let x = 3", "$x").Puts(int64(3)),
		// Rebinding shadows.
		That("let x = 1", "let x = 2", "$x").Puts(int64(2)),
		// let takes a whole pipeline.
		That("let x = [3 1 2] | sort | first", "$x").Puts(int64(1)),
		That("$undefined").Throws(
			ErrorWithMessage("variable $undefined not set"), "$undefined"),
	)
}

func TestLetPersistsAcrossEvals(t *testing.T) {
	Test(t,
		That("let x = 10").Then("$x + 1").Puts(int64(11)),
	)
}

func TestVarSpecials(t *testing.T) {
	Test(t,
		That("$nothing").Puts(nil),
		That("echo 7 | $in + 1").Puts(int64(8)),
	)
}

func TestCellPath(t *testing.T) {
	Test(t,
		That("let r = {name: 'a', size: 10}", "$r.name").Puts("a"),
		That("let l = [10 20 30]", "$l.1").Puts(int64(20)),
		That("let l = [10 20 30]", "$l.9").Throws(
			ErrorWithType(errs.OutOfRange{}), "9"),
		That("let r = {name: 'a'}", "$r.oops").Throws(
			ErrorWithMessageContaining("no such key"), "oops"),
		// Column projection over a table.
		That("let t = [[name size]; [a 1] [b 2]]", "$t.name").
			Puts(vals.MakeList("a", "b")),
	)
}

func TestIfExpr(t *testing.T) {
	Test(t,
		That("if true { 1 } else { 2 }").Puts(int64(1)),
		That("if false { 1 } else { 2 }").Puts(int64(2)),
		That("if false { 1 }").Puts(nil),
		That("if false { 1 } else if true { 2 } else { 3 }").Puts(int64(2)),
	)
}

func TestSubExpr(t *testing.T) {
	Test(t,
		That("(1 + 2) * 3").Puts(int64(9)),
		That("let x = ([3 1] | sort)", "$x").
			Puts(vals.MakeList(int64(1), int64(3))),
	)
}

func TestPipelineOrder(t *testing.T) {
	Test(t,
		That("[3 1 2] | sort | first").Puts(int64(1)),
		That("[3 1 2] | sort | skip 1").PutsList(int64(2), int64(3)),
		// Order is preserved through stream transformers.
		That("[5 4 3 2 1] | where {|x| $x mod 2 == 1}").
			PutsList(int64(5), int64(3), int64(1)),
	)
}

func TestNonFinalStatementOutput(t *testing.T) {
	Test(t,
		// The output of a non-final statement goes to stdout.
		That("echo first; echo second").Puts("second").Prints("first\n"),
		That("print out; 3").Puts(int64(3)).Prints("out\n"),
	)
}

func TestFlowOutsideLoop(t *testing.T) {
	Test(t,
		That("break").Throws(ErrorWithMessage("break used outside of a loop")),
		That("continue").Throws(ErrorWithMessage("continue used outside of a loop")),
		That("return").Throws(ErrorWithMessage("return used outside of a command")),
	)
}

func TestEnvScoping(t *testing.T) {
	Test(t,
		That("let-env FOO = 'bar'", "$env.FOO").Puts("bar"),
		// A closure's env changes do not leak to the caller.
		That("let-env FOO = 'outer'",
			"[1] | each {|x| let-env FOO = 'inner'} | collect",
			"$env.FOO").Puts("outer"),
		// Top-level env changes persist across evals in a session.
		That("let-env FOO = 'kept'").Then("$env.FOO").Puts("kept"),
	)
}
