package eval_test

import (
	"testing"

	"src.sylph.sh/pkg/eval/errs"
	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/eval/vals"
)

func TestClosureLexicalCapture(t *testing.T) {
	Test(t,
		// A closure sees the value of x at its definition, not at its call.
		That("let x = 1",
			"let f = {|| $x}",
			"let x = 2",
			"[0] | each $f").PutsList(int64(1)),
		That("let x = 1",
			"let f = {|y| $x + $y}",
			"let x = 2",
			"[10] | each $f").PutsList(int64(11)),
		// The capture is per closure value, not per literal.
		That("def make-adder [n: int] { {|x| $x + $n} }",
			"let add2 = make-adder 2",
			"let add3 = make-adder 3",
			"[10] | each $add2").PutsList(int64(12)),
	)
}

func TestClosureEnvSnapshot(t *testing.T) {
	Test(t,
		// The closure snapshots the environment of its definition.
		That("let-env GREETING = 'hi'",
			"let f = {|| $env.GREETING}",
			"let-env GREETING = 'bye'",
			"[0] | each $f").PutsList("hi"),
	)
}

func TestDefBodyIsCaptureWall(t *testing.T) {
	Test(t,
		// A def body resolves globals dynamically rather than capturing.
		That("let x = 1",
			"def get-x [] { $x }",
			"let x = 2",
			"get-x").Puts(int64(2)),
		// Recursion works because the name is declared before the body is
		// parsed.
		That("def fact [n: int] { if $n <= 1 { 1 } else { $n * (fact ($n - 1)) } }",
			"fact 5").Puts(int64(120)),
	)
}

func TestDefArity(t *testing.T) {
	Test(t,
		That("def greet [name: string] { $name }", "greet").DoesNotParse(),
		That("def greet [name: string] { $name }", "greet a b").DoesNotParse(),
		That("def greet [name?: string] { $name }", "greet").Puts(nil),
		That("def sum2 [a: int, b: int = 10] { $a + $b }", "sum2 1").
			Puts(int64(11)),
		That("def all [...rest] { $rest }", "all 1 2 3").
			Puts(vals.MakeList(int64(1), int64(2), int64(3))),
	)
}

func TestDefFlags(t *testing.T) {
	Test(t,
		That("def greet [name: string, --loud (-l)] { if $loud { 'HI' } else { $name } }",
			"greet bob --loud").Puts("HI"),
		That("def greet [name: string, --loud (-l)] { if $loud { 'HI' } else { $name } }",
			"greet bob -l").Puts("HI"),
		That("def greet [name: string, --loud (-l)] { if $loud { 'HI' } else { $name } }",
			"greet bob").Puts("bob"),
		That("def pad [s: string, --width (-w): int] { $width }",
			"pad x --width 8").Puts(int64(8)),
		That("def pad [s: string] { $s }", "pad x --oops").DoesNotParse(),
	)
}

func TestArgTypeCheck(t *testing.T) {
	Test(t,
		That("def double [n: int] { $n * 2 }", "double 'oops'").Throws(
			ErrorWithType(errs.TypeMismatch{}), "'oops'"),
		That("def double [n: int] { $n * 2 }", "double 4").Puts(int64(8)),
	)
}

func TestReturn(t *testing.T) {
	Test(t,
		That("def pick [n: int] { if $n > 0 { return 'pos' }; 'other' }",
			"pick 1").Puts("pos"),
		That("def pick [n: int] { if $n > 0 { return 'pos' }; 'other' }",
			"pick 0").Puts("other"),
		That("def nothing-much [] { return }", "nothing-much").Puts(nil),
		// return unwinds through loops.
		That("def find-big [] { for x in [1 5 9] { if $x > 4 { return $x } }; 0 }",
			"find-big").Puts(int64(5)),
	)
}

func TestBreakEscapingCommandIsError(t *testing.T) {
	Test(t,
		That("def bad [] { break }", "for x in [1] { bad }").Throws(
			ErrorWithMessage("break used outside of a loop")),
	)
}
