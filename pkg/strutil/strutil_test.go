package strutil

import (
	"testing"

	. "src.sylph.sh/pkg/tt"
)

func TestChopLineEnding(t *testing.T) {
	Test(t, Fn("ChopLineEnding", ChopLineEnding), Table{
		Args("").Rets(""),
		Args("text").Rets("text"),
		Args("text\n").Rets("text"),
		Args("text\r\n").Rets("text"),
		// Only chop off one line ending
		Args("text\n\n").Rets("text\n"),
		// Preserve internal line endings
		Args("text\ntext 2\n").Rets("text\ntext 2"),
	})
}

func TestTitle(t *testing.T) {
	Test(t, Fn("Title", Title), Table{
		Args("").Rets(""),
		Args("parse error").Rets("Parse error"),
		Args("已经大写").Rets("已经大写"),
	})
}

func TestCamelToDashed(t *testing.T) {
	Test(t, Fn("CamelToDashed", CamelToDashed), Table{
		Args("CamelCase").Rets("camel-case"),
		Args("camelCase").Rets("-camel-case"),
		Args("HTTP").Rets("http"),
		Args("HTTPRequest").Rets("http-request"),
	})
}

func TestJoinLines(t *testing.T) {
	Test(t, Fn("JoinLines", JoinLines), Table{
		Args([]string(nil)).Rets(""),
		Args([]string{"a"}).Rets("a\n"),
		Args([]string{"a", "b"}).Rets("a\nb\n"),
	})
}
