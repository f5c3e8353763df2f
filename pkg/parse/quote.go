package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Quote returns a representation of s that parses back to s as a single
// string-valued word, preferring the plainest form: a bareword when the text
// survives as one, then single quotes, then double quotes when escape
// sequences are needed.
func Quote(s string) string {
	q, _ := QuoteAs(s, BarewordForm)
	return q
}

// QuoteForm identifies the lexical form of a quoted word.
type QuoteForm int

const (
	// BarewordForm is the unquoted form.
	BarewordForm QuoteForm = iota
	// SingleForm is '...', with internal quotes doubled.
	SingleForm
	// DoubleForm is "...", with backslash escapes.
	DoubleForm
)

// QuoteAs quotes s in the given form, upgrading to a stronger form when the
// requested one cannot represent s faithfully. It returns the form used.
func QuoteAs(s string, form QuoteForm) (string, QuoteForm) {
	if form != DoubleForm && needsDouble(s) {
		form = DoubleForm
	}
	switch form {
	case DoubleForm:
		return quoteDouble(s), DoubleForm
	case SingleForm:
		return quoteSingle(s), SingleForm
	default:
		if okBareword(s) {
			return s, BarewordForm
		}
		return quoteSingle(s), SingleForm
	}
}

// needsDouble reports whether s contains bytes that only the double-quoted
// form can show legibly.
func needsDouble(s string) bool {
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && w == 1 {
			return true
		}
		if !unicode.IsPrint(r) && r != ' ' {
			return true
		}
		i += w
	}
	return false
}

// Words that lex as barewords but do not parse back to a plain string.
var quoteUnsafeWords = map[string]bool{
	"true": true, "false": true, "null": true,
	"if": true, "else": true, "not": true,
	"def": true, "export": true, "let": true, "let-env": true,
	"module": true, "use": true, "overlay": true, "register": true,
	"for": true, "while": true, "return": true, "break": true,
	"continue": true, "in": true,
}

func okBareword(s string) bool {
	if s == "" || quoteUnsafeWords[s] || isBinaryOp(s) || isRedirWord(s) {
		return false
	}
	switch s[0] {
	case '-', '^', '#', '.':
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if isWordTerminator(r) {
			return false
		}
	}
	// Words that lex as numbers must be quoted to stay strings.
	return classifyWord(s) == Bareword
}

func quoteSingle(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			sb.WriteString("''")
		} else {
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func quoteDouble(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && w == 1 {
			// Not UTF-8; keep the raw byte.
			fmt.Fprintf(&sb, `\x%02x`, s[i])
			i += w
			continue
		}
		i += w
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\x1b':
			sb.WriteString(`\e`)
		case '\x00':
			sb.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				sb.WriteRune(r)
			} else if r < 0x100 {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				fmt.Fprintf(&sb, `\u{%x}`, r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
