package testutil

import (
	"testing"

	. "src.sylph.sh/pkg/tt"
)

func TestDedent(t *testing.T) {
	Test(t, Fn("Dedent", Dedent), Table{
		Args("a").Rets("a"),
		Args("\n a\n  b\n").Rets("a\n b\n"),
		Args("\n\ta\n\t\tb\n").Rets("a\n\tb\n"),
		// Lines with only whitespaces do not count towards the margin.
		Args("\n  a\n \n  b\n").Rets("a\n\nb\n"),
	})
}
