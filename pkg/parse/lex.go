package parse

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"src.sylph.sh/pkg/diag"
)

// Tokenize splits source code into tokens. It is total: every input produces
// a stream that covers all of the input and ends with an EOF token, with
// malformed pieces represented as ErrorToken tokens. Retokenizing the same source
// always yields the same stream.
func Tokenize(src string) []Token {
	lx := &lexer{src: src}
	lx.run()
	return lx.tokens
}

type lexer struct {
	src    string
	pos    int
	tokens []Token
	states []lexState
}

// lexState is an entry in the lexer's nesting stack: an open bracket, or an
// interpolated string whose expression parts bring the lexer back to normal
// mode.
type lexState struct {
	open rune // '(', '[', '{', or '"' for an interpolated string
	pos  int
	// For '(': whether the paren was opened inside an interpolated string,
	// so that the matching ')' returns the lexer to string mode.
	fromInterp bool
}

const eof rune = -1

func (lx *lexer) run() {
	for lx.pos < len(lx.src) {
		if lx.inInterp() {
			lx.lexInterpSegment()
		} else {
			lx.lexNormal()
		}
	}
	for i := len(lx.states) - 1; i >= 0; i-- {
		st := lx.states[i]
		if st.open == '"' {
			lx.emitErrorAt(diag.Ranging{From: len(lx.src), To: len(lx.src)},
				"", "string not terminated")
		} else {
			lx.emitErrorAt(diag.Ranging{From: len(lx.src), To: len(lx.src)},
				"", "unclosed "+string(st.open))
		}
	}
	lx.emit(EOF, len(lx.src), "")
}

func (lx *lexer) inInterp() bool {
	return len(lx.states) > 0 && lx.states[len(lx.states)-1].open == '"'
}

func (lx *lexer) peek() rune {
	if lx.pos >= len(lx.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return r
}

func (lx *lexer) next() rune {
	if lx.pos >= len(lx.src) {
		return eof
	}
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += size
	return r
}

func (lx *lexer) hasPrefix(prefix string) bool {
	return strings.HasPrefix(lx.src[lx.pos:], prefix)
}

func (lx *lexer) emit(k TokenKind, from int, val string) {
	text := lx.src[from:lx.pos]
	if val == "" && k != String && k != InterpText {
		val = text
	}
	lx.tokens = append(lx.tokens,
		Token{Kind: k, Ranging: diag.Ranging{From: from, To: lx.pos}, Text: text, Val: val})
}

func (lx *lexer) emitErrorAt(r diag.Ranging, text, err string) {
	lx.tokens = append(lx.tokens, Token{Kind: ErrorToken, Ranging: r, Text: text, Err: err})
}

func (lx *lexer) lexNormal() {
	from := lx.pos
	r := lx.next()
	switch {
	case r == ' ' || r == '\t' || r == '\r':
		// Insignificant whitespace.
	case r == '\n':
		if lx.newlineIsSep() {
			lx.emit(Sep, from, "")
		}
	case r == ';':
		lx.emit(Sep, from, "")
	case r == '|':
		lx.emit(Pipe, from, "")
	case r == ',':
		lx.emit(Comma, from, "")
	case r == '#':
		for lx.peek() != '\n' && lx.peek() != eof {
			lx.next()
		}
		lx.emit(Comment, from, strings.TrimPrefix(lx.src[from:lx.pos], "#"))
	case r == '(' || r == '[' || r == '{':
		lx.states = append(lx.states, lexState{open: r, pos: from})
		lx.emit(openKind(r), from, "")
	case r == ')' || r == ']' || r == '}':
		lx.lexCloser(from, r)
	case r == '\'':
		lx.lexSingleQuoted(from)
	case r == '"':
		lx.lexDoubleQuoted(from)
	case r == '$':
		lx.lexDollar(from)
	case r == '.':
		lx.lexDot(from)
	case r == 'r' && lx.rawStringAhead():
		lx.lexRawString(from)
	default:
		lx.lexWord(from)
	}
}

func openKind(r rune) TokenKind {
	switch r {
	case '(':
		return LParen
	case '[':
		return LBracket
	default:
		return LBrace
	}
}

func closerMatches(open, close rune) bool {
	switch close {
	case ')':
		return open == '('
	case ']':
		return open == '['
	default:
		return open == '{'
	}
}

func closeKind(r rune) TokenKind {
	switch r {
	case ')':
		return RParen
	case ']':
		return RBracket
	default:
		return RBrace
	}
}

func (lx *lexer) lexCloser(from int, r rune) {
	// Popping a paren opened inside an interpolated string exposes the
	// string's own state again, so the lexer resumes in string mode by
	// itself.
	if n := len(lx.states); n > 0 && closerMatches(lx.states[n-1].open, r) {
		lx.states = lx.states[:n-1]
		lx.emit(closeKind(r), from, "")
		return
	}
	lx.emitErrorAt(diag.Ranging{From: from, To: lx.pos}, lx.src[from:lx.pos],
		"unmatched "+string(r))
}

// newlineIsSep reports whether a newline at the current nesting is a
// statement separator. Newlines nest as whitespace inside ( and [ pairs;
// inside braces they separate statements as at the top level.
func (lx *lexer) newlineIsSep() bool {
	for i := len(lx.states) - 1; i >= 0; i-- {
		switch lx.states[i].open {
		case '(', '[':
			return false
		case '{':
			return true
		}
	}
	return true
}

func (lx *lexer) lexSingleQuoted(from int) {
	var sb strings.Builder
	for {
		r := lx.next()
		switch r {
		case eof:
			lx.emitErrorAt(diag.Ranging{From: from, To: lx.pos},
				lx.src[from:lx.pos], "string not terminated")
			return
		case '\'':
			if lx.peek() == '\'' {
				// Doubled quote becomes a literal quote.
				lx.next()
				sb.WriteByte('\'')
				continue
			}
			lx.emit(String, from, sb.String())
			return
		default:
			sb.WriteRune(r)
		}
	}
}

func (lx *lexer) lexDoubleQuoted(from int) {
	var sb strings.Builder
	var escErrs []Token
	for {
		r := lx.next()
		switch r {
		case eof, '\n':
			if r == '\n' {
				lx.pos--
			}
			lx.emitErrorAt(diag.Ranging{From: from, To: lx.pos},
				lx.src[from:lx.pos], "string not terminated")
			lx.tokens = append(lx.tokens, escErrs...)
			return
		case '"':
			lx.emit(String, from, sb.String())
			lx.tokens = append(lx.tokens, escErrs...)
			return
		case '\\':
			escFrom := lx.pos - 1
			decoded, ok := lx.lexEscape(false)
			if !ok {
				escErrs = append(escErrs, Token{
					Kind:    ErrorToken,
					Ranging: diag.Ranging{From: escFrom, To: lx.pos},
					Text:    lx.src[escFrom:lx.pos],
					Err:     "invalid escape sequence",
				})
				sb.WriteRune(utf8.RuneError)
			} else {
				sb.WriteRune(decoded)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// lexEscape decodes the escape sequence after a backslash. The backslash has
// already been consumed. In interpolated strings ( and ) may also be escaped.
func (lx *lexer) lexEscape(interp bool) (rune, bool) {
	r := lx.next()
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case 'e':
		return '\033', true
	case '0':
		return '\000', true
	case '\\', '"', '\'':
		return r, true
	case '(', ')':
		if interp {
			return r, true
		}
		return 0, false
	case 'x':
		return lx.lexHexDigits(2)
	case 'u':
		if lx.peek() != '{' {
			return 0, false
		}
		lx.next()
		var v rune
		n := 0
		for {
			d := lx.peek()
			if d == '}' {
				lx.next()
				if n == 0 || !utf8.ValidRune(v) {
					return 0, false
				}
				return v, true
			}
			dv, ok := hexVal(d)
			if !ok || n >= 6 {
				return 0, false
			}
			lx.next()
			v = v*16 + dv
			n++
		}
	default:
		return 0, false
	}
}

func (lx *lexer) lexHexDigits(n int) (rune, bool) {
	var v rune
	for i := 0; i < n; i++ {
		d, ok := hexVal(lx.peek())
		if !ok {
			return 0, false
		}
		lx.next()
		v = v*16 + d
	}
	return v, true
}

func hexVal(r rune) (rune, bool) {
	switch {
	case '0' <= r && r <= '9':
		return r - '0', true
	case 'a' <= r && r <= 'f':
		return r - 'a' + 10, true
	case 'A' <= r && r <= 'F':
		return r - 'A' + 10, true
	}
	return 0, false
}

// rawStringAhead reports whether the source at the just-consumed 'r' starts a
// raw string literal: r, one or more #, then '.
func (lx *lexer) rawStringAhead() bool {
	rest := lx.src[lx.pos:]
	i := 0
	for i < len(rest) && rest[i] == '#' {
		i++
	}
	return i > 0 && i < len(rest) && rest[i] == '\''
}

func (lx *lexer) lexRawString(from int) {
	hashes := 0
	for lx.peek() == '#' {
		lx.next()
		hashes++
	}
	lx.next() // the opening quote
	closer := "'" + strings.Repeat("#", hashes)
	start := lx.pos
	end := strings.Index(lx.src[start:], closer)
	if end == -1 {
		lx.pos = len(lx.src)
		lx.emitErrorAt(diag.Ranging{From: from, To: lx.pos},
			lx.src[from:lx.pos], "string not terminated")
		return
	}
	lx.pos = start + end + len(closer)
	lx.emit(String, from, lx.src[start:start+end])
}

func (lx *lexer) lexDollar(from int) {
	r := lx.peek()
	switch {
	case r == '"':
		lx.next()
		lx.emit(InterpBegin, from, "")
		lx.states = append(lx.states, lexState{open: '"', pos: from})
	case isVarNameStart(r):
		lx.next()
		for isVarNameChar(lx.peek()) {
			lx.next()
		}
		lx.emit(Var, from, lx.src[from+1:lx.pos])
	default:
		lx.emitErrorAt(diag.Ranging{From: from, To: lx.pos}, "$",
			"should be variable name")
	}
}

func isVarNameStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isVarNameChar(r rune) bool {
	return isVarNameStart(r) || r == '-' || ('0' <= r && r <= '9')
}

func (lx *lexer) lexDot(from int) {
	switch {
	case lx.hasPrefix(".."): // three dots in total
		lx.next()
		lx.next()
		lx.emit(Ellipsis, from, "")
	case lx.hasPrefix(".<"):
		lx.next()
		lx.next()
		lx.emit(DotDotLt, from, "")
	case lx.hasPrefix("."):
		lx.next()
		lx.emit(DotDot, from, "")
	case lx.dotEligible(from):
		lx.emit(Dot, from, "")
	default:
		lx.lexWord(from)
	}
}

// dotEligible reports whether a dot at position from introduces a cell path
// member: it must immediately follow an indexable token, or follow a path
// member that itself follows a dot.
func (lx *lexer) dotEligible(from int) bool {
	n := len(lx.tokens)
	if n == 0 {
		return false
	}
	prev := lx.tokens[n-1]
	if prev.To != from {
		return false
	}
	switch prev.Kind {
	case Var, RParen, RBracket, RBrace, String, InterpEnd:
		return true
	case Bareword, Int:
		return n >= 2 && lx.tokens[n-2].Kind == Dot && lx.tokens[n-2].To == prev.From
	}
	return false
}

// Characters that terminate a word run.
func isWordTerminator(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '|', ';', ',', '(', ')', '[', ']', '{', '}',
		'\'', '"', '$', eof:
		return true
	}
	return false
}

func (lx *lexer) lexWord(from int) {
	// A dot right after a path member ends the word, so that $x.a.b lexes as
	// separate members.
	afterDot := len(lx.tokens) > 0 && lx.tokens[len(lx.tokens)-1].Kind == Dot
	for {
		r := lx.peek()
		if isWordTerminator(r) {
			break
		}
		if r == '.' {
			if afterDot || lx.hasPrefix("..") {
				break
			}
		}
		lx.next()
	}
	text := lx.src[from:lx.pos]
	lx.emit(classifyWord(text), from, "")
}

// classifyWord decides whether a word run is a number literal. Anything that
// does not match a literal form exactly is a bareword.
func classifyWord(text string) TokenKind {
	s := text
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" || s[0] < '0' || s[0] > '9' {
		return Bareword
	}
	if isIntText(s) {
		return Int
	}
	if isFloatText(s) {
		return Float
	}
	if num, unit := splitUnitSuffix(s); num != "" {
		if _, ok := filesizeUnits[strings.ToLower(unit)]; ok {
			return Filesize
		}
		if _, ok := durationUnits[unit]; ok {
			return Duration
		}
	}
	return Bareword
}

func isIntText(s string) bool {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return allDigits(s[2:], isHexDigit)
		case 'b', 'B':
			return allDigits(s[2:], func(r byte) bool { return r == '0' || r == '1' })
		case 'o', 'O':
			return allDigits(s[2:], func(r byte) bool { return '0' <= r && r <= '7' })
		}
	}
	return allDigits(s, isDecDigit)
}

func isFloatText(s string) bool {
	mantissa, exp, hasExp := cutExponent(s)
	if hasExp {
		if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
			exp = exp[1:]
		}
		if !allDigits(exp, isDecDigit) {
			return false
		}
	}
	intPart, fracPart, hasDot := strings.Cut(mantissa, ".")
	if hasDot {
		return allDigits(intPart, isDecDigit) && fracPart != "" &&
			allDigits(fracPart, isDecDigit)
	}
	return hasExp && allDigits(intPart, isDecDigit)
}

func cutExponent(s string) (mantissa, exp string, ok bool) {
	if i := strings.IndexAny(s, "eE"); i > 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// splitUnitSuffix splits a word into a numeric part and a trailing alphabetic
// unit. It returns "", "" if the split does not produce a valid decimal
// number followed by a nonempty unit.
func splitUnitSuffix(s string) (num, unit string) {
	num = strings.TrimRightFunc(s, unicode.IsLetter)
	unit = s[len(num):]
	if num == "" || unit == "" {
		return "", ""
	}
	if !isIntText(num) && !isFloatText(num) {
		return "", ""
	}
	// Prefixed forms like 0x take no unit.
	if len(num) > 1 && num[0] == '0' && !isDecDigit(num[1]) {
		return "", ""
	}
	return num, unit
}

func isDecDigit(b byte) bool { return '0' <= b && b <= '9' || b == '_' }

func isHexDigit(b byte) bool {
	return '0' <= b && b <= '9' || 'a' <= b && b <= 'f' || 'A' <= b && b <= 'F' || b == '_'
}

func allDigits(s string, pred func(byte) bool) bool {
	if s == "" {
		return false
	}
	hasDigit := false
	for i := 0; i < len(s); i++ {
		if !pred(s[i]) {
			return false
		}
		if s[i] != '_' {
			hasDigit = true
		}
	}
	return hasDigit
}

// Filesize unit multipliers, in bytes. Decimal units use powers of 1000,
// binary units powers of 1024.
var filesizeUnits = map[string]int64{
	"b":   1,
	"kb":  1000,
	"mb":  1000 * 1000,
	"gb":  1000 * 1000 * 1000,
	"tb":  1000 * 1000 * 1000 * 1000,
	"pb":  1000 * 1000 * 1000 * 1000 * 1000,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
	"pib": 1 << 50,
}

// Duration unit multipliers, in nanoseconds.
var durationUnits = map[string]int64{
	"ns":  1,
	"us":  1000,
	"µs":  1000,
	"ms":  1000 * 1000,
	"sec": 1000 * 1000 * 1000,
	"min": 60 * 1000 * 1000 * 1000,
	"hr":  60 * 60 * 1000 * 1000 * 1000,
	"day": 24 * 60 * 60 * 1000 * 1000 * 1000,
	"wk":  7 * 24 * 60 * 60 * 1000 * 1000 * 1000,
}

func (lx *lexer) lexInterpSegment() {
	from := lx.pos
	var sb strings.Builder
	var escErrs []Token
	flush := func() {
		if lx.pos > from {
			lx.emit(InterpText, from, sb.String())
		}
		lx.tokens = append(lx.tokens, escErrs...)
	}
	for {
		switch lx.peek() {
		case eof:
			// Leave the state in place; the run loop reports the
			// unterminated string at cleanup.
			flush()
			return
		case '"':
			flush()
			qFrom := lx.pos
			lx.next()
			lx.states = lx.states[:len(lx.states)-1]
			lx.emit(InterpEnd, qFrom, "")
			return
		case '(':
			flush()
			pFrom := lx.pos
			lx.next()
			lx.states = append(lx.states, lexState{open: '(', pos: pFrom, fromInterp: true})
			lx.emit(LParen, pFrom, "")
			return
		case '\\':
			escFrom := lx.pos
			lx.next()
			decoded, ok := lx.lexEscape(true)
			if !ok {
				escErrs = append(escErrs, Token{
					Kind:    ErrorToken,
					Ranging: diag.Ranging{From: escFrom, To: lx.pos},
					Text:    lx.src[escFrom:lx.pos],
					Err:     "invalid escape sequence",
				})
				sb.WriteRune(utf8.RuneError)
			} else {
				sb.WriteRune(decoded)
			}
		default:
			sb.WriteRune(lx.next())
		}
	}
}
