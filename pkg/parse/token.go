package parse

import (
	"fmt"

	"src.sylph.sh/pkg/diag"
)

// TokenKind identifies the kind of a lexical token.
type TokenKind int

// Possible values for TokenKind.
const (
	// A byte sequence that is not valid in any token. The Err field of the
	// token describes the problem.
	ErrorToken TokenKind = iota
	// End of input. The last token of any token stream, with a zero-width
	// range at the end of the source.
	EOF
	// A statement separator: a newline outside ( and [ pairs, or ";".
	Sep
	// An unquoted word. Operators like + and == and flag words like --all
	// are also lexed as barewords; their meaning depends on the syntactic
	// position and is decided by the parser.
	Bareword
	// An integer literal, like 10, -2, 0x1f, 0b101 or 0o17.
	Int
	// A float literal, like 1.5 or 2e3.
	Float
	// A filesize literal, like 10kb or 2mib.
	Filesize
	// A duration literal, like 100ms or 2sec.
	Duration
	// A quoted string: single-quoted, double-quoted or raw. The Val field
	// holds the decoded value.
	String
	// The $" that begins an interpolated string.
	InterpBegin
	// A literal segment inside an interpolated string, with escapes decoded
	// into Val.
	InterpText
	// The " that ends an interpolated string.
	InterpEnd
	// A variable reference like $x. The Val field holds the name without $.
	Var
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	// The pipe character, both as pipeline separator and as the delimiter of
	// parameter lists in { |x| ... }.
	Pipe
	Comma
	// A . introducing a cell path member. Only emitted when the dot
	// immediately follows an indexable token; dots inside words like file.txt
	// stay part of the bareword.
	Dot
	// The range operators .. and ..<.
	DotDot
	DotDotLt
	// The rest-parameter marker ... in signatures.
	Ellipsis
	// A comment from # to the end of the line, excluding the newline.
	Comment
)

var tokenKindNames = [...]string{
	ErrorToken:  "error",
	EOF:         "EOF",
	Sep:         "separator",
	Bareword:    "bareword",
	Int:         "int literal",
	Float:       "float literal",
	Filesize:    "filesize literal",
	Duration:    "duration literal",
	String:      "string",
	InterpBegin: `$"`,
	InterpText:  "string segment",
	InterpEnd:   `closing "`,
	Var:         "variable",
	LParen:      "'('",
	RParen:      "')'",
	LBracket:    "'['",
	RBracket:    "']'",
	LBrace:      "'{'",
	RBrace:      "'}'",
	Pipe:        "'|'",
	Comma:       "','",
	Dot:         "'.'",
	DotDot:      "'..'",
	DotDotLt:    "'..<'",
	Ellipsis:    "'...'",
	Comment:     "comment",
}

func (k TokenKind) String() string {
	if 0 <= int(k) && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexical unit of source code. Every byte of the source is covered
// by the range of exactly one token, except for insignificant whitespace.
type Token struct {
	Kind TokenKind
	diag.Ranging
	// Text is the raw source text of the token.
	Text string
	// Val is the decoded value for String, InterpText, Var, Bareword and
	// Comment tokens. For the other kinds it equals Text.
	Val string
	// Err describes the problem for ErrorToken tokens and is empty otherwise.
	Err string
}

func (t Token) String() string {
	if t.Kind == ErrorToken {
		return fmt.Sprintf("%v %d-%d %q: %s", t.Kind, t.From, t.To, t.Text, t.Err)
	}
	return fmt.Sprintf("%v %d-%d %q", t.Kind, t.From, t.To, t.Text)
}
