package eval_test

import (
	"testing"

	. "src.sylph.sh/pkg/eval/evaltest"
)

func TestForLoop(t *testing.T) {
	Test(t,
		That("for x in [1 2 3] { print $x }").Prints("1\n2\n3\n"),
		That("for x in 1..3 { print $x }").Prints("1\n2\n3\n"),
		// The loop body's pipeline output is printed too.
		That("for x in [1 2] { $x * 10 }").Prints("10\n20\n"),
		That("for x in 5 { print $x }").Throws(
			ErrorWithMessage("cannot iterate int"), "5"),
	)
}

func TestWhileLoop(t *testing.T) {
	Test(t,
		That("while false { print never }; 'done'").Puts("done"),
		That("while true { print once; break }; 'done'").
			Puts("done").Prints("once\n"),
	)
}

func TestBreakContinue(t *testing.T) {
	Test(t,
		That("for x in [1 2 3 4] { if $x > 2 { break }; print $x }").
			Prints("1\n2\n"),
		That("for x in [1 2 3 4] { if $x mod 2 == 0 { continue }; print $x }").
			Prints("1\n3\n"),
		// break stops only the innermost loop.
		That("for x in [1 2] { for y in [1 2 3] { if $y == 2 { break } }; print $x }").
			Prints("1\n2\n"),
	)
}

func TestLoopVarScope(t *testing.T) {
	Test(t,
		// The loop variable does not leak out of the loop.
		That("for x in [1] { }", "$x").Throws(
			ErrorWithMessage("variable $x not set")),
	)
}
