package parse

import (
	"fmt"
	"sort"

	"src.sylph.sh/pkg/diag"
)

// Error is a parse error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

// ErrorTag returns the error tag used by parse errors.
func (ErrorTag) ErrorTag() string { return "parse error" }

// UnpackErrors returns the constituent parse errors if the given error
// contains one or more parse errors. Otherwise it returns nil.
func UnpackErrors(e error) []*Error {
	if errs := diag.UnpackErrors[ErrorTag](e); len(errs) > 0 {
		return errs
	}
	return nil
}

// parser maintains the mutable state of parsing: a token cursor, the
// aggregated errors, the declaration table, and the variable scopes used for
// closure capture analysis.
type parser struct {
	srcName string
	src     string
	tokens  []Token
	pos     int
	errors  []*Error
	table   DeclTable
	blocks  []*blockCtx
}

// blockCtx tracks variable binding within one block for capture analysis. A
// wall block does not capture: references that are unbound inside it resolve
// dynamically at run time instead of being captured from the enclosing scope.
type blockCtx struct {
	bound map[string]bool
	free  map[string]bool
	wall  bool
}

func newParser(srcName, src string, table DeclTable) *parser {
	if table == nil {
		table = InertDeclTable()
	}
	ps := &parser{srcName: srcName, src: src, table: table}
	ps.pushBlock()
	for _, t := range Tokenize(src) {
		switch t.Kind {
		case ErrorToken:
			// Lexical problems become parse errors up front; the malformed
			// token does not enter the stream the grammar sees.
			ps.errors = append(ps.errors, &Error{
				Message: t.Err,
				Context: *diag.NewContext(srcName, src, t.Ranging),
				Partial: t.To == len(src),
			})
		case Comment:
			// Comments have spans but no grammar.
		default:
			ps.tokens = append(ps.tokens, t)
		}
	}
	return ps
}

// cur returns the token at the cursor. The stream always ends with EOF, so
// cur is total.
func (ps *parser) cur() Token {
	if ps.pos >= len(ps.tokens) {
		return ps.tokens[len(ps.tokens)-1]
	}
	return ps.tokens[ps.pos]
}

// peek returns the token n positions after the cursor, or the final EOF
// token.
func (ps *parser) peek(n int) Token {
	if ps.pos+n >= len(ps.tokens) {
		return ps.tokens[len(ps.tokens)-1]
	}
	return ps.tokens[ps.pos+n]
}

// next consumes and returns the token at the cursor.
func (ps *parser) next() Token {
	t := ps.cur()
	if ps.pos < len(ps.tokens)-1 {
		ps.pos++
	}
	return t
}

func (ps *parser) at(k TokenKind) bool { return ps.cur().Kind == k }

// atWord reports whether the cursor is at a bareword with the given text.
func (ps *parser) atWord(text string) bool {
	t := ps.cur()
	return t.Kind == Bareword && t.Val == text
}

// accept consumes the token at the cursor if it has the given kind.
func (ps *parser) accept(k TokenKind) (Token, bool) {
	if ps.at(k) {
		return ps.next(), true
	}
	return Token{}, false
}

// acceptWord consumes the token at the cursor if it is a bareword with the
// given text.
func (ps *parser) acceptWord(text string) (Token, bool) {
	if ps.atWord(text) {
		return ps.next(), true
	}
	return Token{}, false
}

// expect consumes a token of the given kind, or records an error describing
// what should be there and leaves the cursor alone.
func (ps *parser) expect(k TokenKind, shouldBe string) (Token, bool) {
	if ps.at(k) {
		return ps.next(), true
	}
	ps.errorCur("should be " + shouldBe)
	return Token{Kind: k, Ranging: diag.PointRanging(ps.cur().From)}, false
}

// skipSeps consumes any run of statement separators.
func (ps *parser) skipSeps() {
	for ps.at(Sep) {
		ps.next()
	}
}

// syncStmt skips tokens until the end of the statement: a separator, a
// closing delimiter, or EOF.
func (ps *parser) syncStmt() {
	for {
		switch ps.cur().Kind {
		case EOF, Sep, RBrace, RParen, RBracket:
			return
		}
		ps.next()
	}
}

func (ps *parser) errorp(r diag.Ranger, msg string) {
	ps.errors = append(ps.errors, &Error{
		Message: msg,
		Context: *diag.NewContext(ps.srcName, ps.src, r),
		Partial: r.Range().From == len(ps.src),
	})
}

func (ps *parser) errorpf(r diag.Ranger, format string, args ...any) {
	ps.errorp(r, fmt.Sprintf(format, args...))
}

// errorCur records an error at the token under the cursor.
func (ps *parser) errorCur(msg string) {
	ps.errorp(ps.cur().Ranging, msg)
}

func (ps *parser) assembleError() error {
	return diag.PackErrors(ps.errors)
}

// Capture analysis. Each block keeps the set of variables bound inside it and
// the set of free variables crossing into it; a closure's capture list is the
// free set of its body block.

func (ps *parser) pushBlock() {
	ps.pushBlockWall(false)
}

func (ps *parser) pushBlockWall(wall bool) {
	ps.blocks = append(ps.blocks, &blockCtx{
		bound: make(map[string]bool),
		free:  make(map[string]bool),
		wall:  wall,
	})
}

func (ps *parser) popBlock() []string {
	b := ps.blocks[len(ps.blocks)-1]
	ps.blocks = ps.blocks[:len(ps.blocks)-1]
	if len(b.free) == 0 {
		return nil
	}
	names := make([]string, 0, len(b.free))
	for name := range b.free {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bindVar marks a name as bound in the innermost block.
func (ps *parser) bindVar(name string) {
	ps.blocks[len(ps.blocks)-1].bound[name] = true
}

// refVar records a variable reference: the name is free in every block it
// crosses before reaching its binding.
func (ps *parser) refVar(name string) {
	if specialVar(name) {
		return
	}
	for i := len(ps.blocks) - 1; i >= 0; i-- {
		b := ps.blocks[i]
		if b.bound[name] {
			return
		}
		if b.wall {
			return
		}
		b.free[name] = true
	}
}

// prevEnd returns the end position of the last consumed token.
func (ps *parser) prevEnd() int {
	if ps.pos == 0 {
		return ps.cur().From
	}
	return ps.tokens[ps.pos-1].To
}

// specialVar names are provided by the evaluator in every frame and are never
// captured.
func specialVar(name string) bool {
	switch name {
	case "in", "env", "nothing":
		return true
	}
	return false
}
