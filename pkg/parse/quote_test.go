package parse

import (
	"testing"

	. "src.sylph.sh/pkg/tt"
)

func TestQuote(t *testing.T) {
	Test(t, Fn("Quote", Quote), Table{
		// Words that survive as barewords are left alone.
		Args("abc").Rets("abc"),
		Args("/usr/bin").Rets("/usr/bin"),
		Args("a.b").Rets("a.b"),
		Args("日本").Rets("日本"),
		Args("echo").Rets("echo"),

		// Words that would lex as something other than a plain string.
		Args("").Rets("''"),
		Args("a b").Rets("'a b'"),
		Args("true").Rets("'true'"),
		Args("let").Rets("'let'"),
		Args("mod").Rets("'mod'"),
		Args("o>").Rets("'o>'"),
		Args("-v").Rets("'-v'"),
		Args("^up").Rets("'^up'"),
		Args(".hidden").Rets("'.hidden'"),
		Args("..").Rets("'..'"),
		Args("1.5").Rets("'1.5'"),
		Args("2kb").Rets("'2kb'"),
		Args("10sec").Rets("'10sec'"),
		Args("a,b").Rets("'a,b'"),
		Args("$x").Rets("'$x'"),

		// Single quotes double internal quotes.
		Args("a'b").Rets("'a''b'"),

		// Unprintable characters need the double-quoted form.
		Args("a\nb").Rets(`"a\nb"`),
		Args("a\tb").Rets(`"a\tb"`),
		Args("\r").Rets(`"\r"`),
		Args("\x00").Rets(`"\0"`),
		Args("\x1b[m").Rets(`"\e[m"`),
		Args("\x07").Rets(`"\x07"`),
		Args(" ").Rets(`"\u{2028}"`),
		Args("\xff").Rets(`"\xff"`),
	})
}

func TestQuoteAs(t *testing.T) {
	Test(t, Fn("QuoteAs", QuoteAs), Table{
		Args("abc", BarewordForm).Rets("abc", BarewordForm),
		Args("a b", BarewordForm).Rets("'a b'", SingleForm),
		Args("abc", SingleForm).Rets("'abc'", SingleForm),
		Args("abc", DoubleForm).Rets(`"abc"`, DoubleForm),
		// Content that the requested form cannot show upgrades it.
		Args("a\nb", SingleForm).Rets(`"a\nb"`, DoubleForm),
		Args("a\nb", BarewordForm).Rets(`"a\nb"`, DoubleForm),
	})
}
