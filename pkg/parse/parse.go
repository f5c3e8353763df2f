// Package parse implements the sylph parser.
//
// Parsing and name resolution are a single pass: the parser resolves command
// heads against a DeclTable while it goes, and def, module, use, overlay and
// register statements update the table incrementally, so that a command is
// callable from the statement after its declaration and from its own body.
// The token stream comes from Tokenize; every node records the byte range of
// the source it was parsed from.
//
// The parser never gives up: a malformed construct is recorded as an error
// and replaced by a placeholder node, and parsing resumes at the next
// statement separator or closing delimiter. All errors are aggregated in the
// error returned by Parse.
package parse

import (
	"math"
	"strconv"
	"strings"
	"time"

	"src.sylph.sh/pkg/diag"
)

// Tree represents a parsed source.
type Tree struct {
	Root   *Chunk
	Source Source
}

// Config keeps configuration options for parsing.
type Config struct {
	// DeclTable is used to resolve call heads and register declarations
	// while parsing. If nil, an inert table is used and every call head
	// parses as an external command.
	DeclTable DeclTable
}

// Parse parses the given source. Parsing always continues to the end of the
// source; the returned error, if not nil, aggregates every parse error found.
// Use UnpackErrors to access them individually.
func Parse(src Source, cfg Config) (Tree, error) {
	ps := newParser(src.Name, src.Code, cfg.DeclTable)
	root := ps.parseChunk(atEOF)
	return Tree{Root: root, Source: src}, ps.assembleError()
}

func atEOF(k TokenKind) bool { return k == EOF }

func atRBrace(k TokenKind) bool { return k == RBrace }

func atRParen(k TokenKind) bool { return k == RParen }

func atRBracket(k TokenKind) bool { return k == RBracket }

// Chunk = { sep } { Stmt { sep } }
func (ps *parser) parseChunk(stop func(TokenKind) bool) *Chunk {
	chunk := &Chunk{Ranging: diag.PointRanging(ps.cur().From)}
	ps.skipSeps()
	for !stop(ps.cur().Kind) && !ps.at(EOF) {
		chunk.Stmts = append(chunk.Stmts, ps.parseStmt())
		if !stop(ps.cur().Kind) && !ps.at(EOF) {
			if !ps.at(Sep) {
				ps.errorCur("should be ';', newline or end of statement")
				ps.syncStmt()
			}
			ps.skipSeps()
		}
	}
	chunk.To = ps.prevEnd()
	if chunk.To < chunk.From {
		chunk.To = chunk.From
	}
	return chunk
}

// Stmt = DefStmt | LetStmt | LetEnvStmt | ModuleStmt | UseStmt | OverlayStmt
//
//	| RegisterStmt | ForStmt | WhileStmt | ReturnStmt | BreakStmt
//	| ContinueStmt | Pipeline
func (ps *parser) parseStmt() Stmt {
	t := ps.cur()
	if t.Kind == Bareword {
		switch t.Val {
		case "def":
			return ps.parseDef(false)
		case "export":
			return ps.parseExport()
		case "let":
			return ps.parseLet()
		case "let-env":
			return ps.parseLetEnv()
		case "module":
			return ps.parseModule()
		case "use":
			return ps.parseUse()
		case "overlay":
			return ps.parseOverlay()
		case "register":
			return ps.parseRegister()
		case "for":
			return ps.parseFor()
		case "while":
			return ps.parseWhile()
		case "return":
			return ps.parseReturn()
		case "break":
			ps.next()
			return &BreakStmt{Ranging: t.Ranging}
		case "continue":
			ps.next()
			return &ContinueStmt{Ranging: t.Ranging}
		}
	}
	return ps.parsePipeline()
}

func (ps *parser) badStmt(from int) *BadStmt {
	ps.syncStmt()
	to := ps.prevEnd()
	if to < from {
		to = from
	}
	return &BadStmt{Ranging: diag.Ranging{From: from, To: to}}
}

// DefStmt = 'def' name [ '[' SignatureItems ']' ] Block
//
// The name is predeclared before the body is parsed, so the body can call the
// command recursively.
func (ps *parser) parseDef(exported bool) Stmt {
	from := ps.next().From
	nameTok, ok := ps.expectCmdName()
	if !ok {
		return ps.badStmt(from)
	}
	sig := &Signature{}
	if _, ok := ps.accept(LBracket); ok {
		sig = ps.parseSignatureItems(atRBracket)
		ps.expect(RBracket, "']'")
	}
	spec := ps.table.PredeclCmd(nameTok.Val, sig, exported)
	body := ps.parseDefBody(sigNames(sig))
	ps.table.BindCmdBody(spec, body)
	return &DefStmt{
		Ranging:  diag.Ranging{From: from, To: body.To},
		Name:     nameTok.Val,
		NameSpan: nameTok.Ranging,
		Sig:      sig,
		Body:     body,
		Exported: exported,
		Spec:     spec,
	}
}

// expectCmdName accepts a bareword or a quoted string, the latter for
// multi-word names like "str trim".
func (ps *parser) expectCmdName() (Token, bool) {
	t := ps.cur()
	if t.Kind == Bareword || t.Kind == String {
		return ps.next(), true
	}
	ps.errorCur("should be command name")
	return t, false
}

// expectVarName accepts a bareword that is a valid variable name. Operator
// words like = lex as barewords too, so the kind alone is not enough.
func (ps *parser) expectVarName(what string) (Token, bool) {
	t := ps.cur()
	if t.Kind == Bareword && isValidVarName(t.Val) {
		return ps.next(), true
	}
	ps.errorCur("should be " + what)
	return t, false
}

func isValidVarName(name string) bool {
	for i, r := range name {
		if i == 0 && !isVarNameStart(r) {
			return false
		}
		if !isVarNameChar(r) {
			return false
		}
	}
	return name != ""
}

// sigNames returns the variable names a signature binds in the body:
// positional parameters, the rest parameter, and the long names of flags.
func sigNames(sig *Signature) []string {
	var names []string
	for _, p := range sig.Positional {
		names = append(names, p.Name)
	}
	if sig.Rest != nil {
		names = append(names, sig.Rest.Name)
	}
	for _, f := range sig.Flags {
		names = append(names, f.Long)
	}
	return names
}

func (ps *parser) parseExport() Stmt {
	from := ps.cur().From
	ps.next()
	if ps.atWord("def") {
		st := ps.parseDef(true)
		if def, ok := st.(*DefStmt); ok {
			def.From = from
		}
		return st
	}
	ps.errorCur("should be 'def'")
	return ps.badStmt(from)
}

// LetStmt = 'let' name '=' Pipeline
func (ps *parser) parseLet() Stmt {
	from := ps.next().From
	nameTok, ok := ps.expectVarName("variable name")
	if !ok {
		return ps.badStmt(from)
	}
	if _, ok := ps.acceptWord("="); !ok {
		ps.errorCur("should be '='")
		return ps.badStmt(from)
	}
	rhs := ps.parsePipeline()
	ps.bindVar(nameTok.Val)
	return &LetStmt{
		Ranging:  diag.Ranging{From: from, To: rhs.To},
		Name:     nameTok.Val,
		NameSpan: nameTok.Ranging,
		RHS:      rhs,
	}
}

// LetEnvStmt = 'let-env' name '=' Pipeline
func (ps *parser) parseLetEnv() Stmt {
	from := ps.next().From
	nameTok, ok := ps.expectVarName("environment variable name")
	if !ok {
		return ps.badStmt(from)
	}
	if _, ok := ps.acceptWord("="); !ok {
		ps.errorCur("should be '='")
		return ps.badStmt(from)
	}
	rhs := ps.parsePipeline()
	return &LetEnvStmt{
		Ranging:  diag.Ranging{From: from, To: rhs.To},
		Name:     nameTok.Val,
		NameSpan: nameTok.Ranging,
		RHS:      rhs,
	}
}

// ModuleStmt = 'module' name '{' Chunk '}'
func (ps *parser) parseModule() Stmt {
	from := ps.next().From
	nameTok, ok := ps.expectCmdName()
	if !ok {
		return ps.badStmt(from)
	}
	err := ps.table.EnterModule(nameTok.Val)
	if err != nil {
		ps.errorp(nameTok.Ranging, err.Error())
		// Parse the body in a plain scope so its declarations die quietly.
		ps.table.EnterScope()
	}
	ps.expect(LBrace, "'{'")
	body := ps.parseChunk(atRBrace)
	rb, _ := ps.expect(RBrace, "'}'")
	if err != nil {
		ps.table.ExitScope()
	} else {
		ps.table.ExitModule()
	}
	return &ModuleStmt{
		Ranging:  diag.Ranging{From: from, To: rb.To},
		Name:     nameTok.Val,
		NameSpan: nameTok.Ranging,
		Body:     body,
	}
}

// UseStmt = 'use' name
func (ps *parser) parseUse() Stmt {
	from := ps.next().From
	nameTok, ok := ps.expectCmdName()
	if !ok {
		return ps.badStmt(from)
	}
	if err := ps.table.UseModule(nameTok.Val); err != nil {
		ps.errorp(nameTok.Ranging, err.Error())
	}
	return &UseStmt{
		Ranging:  diag.Ranging{From: from, To: nameTok.To},
		Name:     nameTok.Val,
		NameSpan: nameTok.Ranging,
	}
}

// OverlayStmt = 'overlay' ('use' | 'hide') name
func (ps *parser) parseOverlay() Stmt {
	from := ps.next().From
	var hide bool
	switch {
	case ps.atWord("use"):
		ps.next()
	case ps.atWord("hide"):
		ps.next()
		hide = true
	default:
		ps.errorCur("should be 'use' or 'hide'")
		return ps.badStmt(from)
	}
	nameTok, ok := ps.expectCmdName()
	if !ok {
		return ps.badStmt(from)
	}
	var err error
	if hide {
		err = ps.table.HideOverlay(nameTok.Val)
	} else {
		err = ps.table.UseOverlay(nameTok.Val)
	}
	if err != nil {
		ps.errorp(nameTok.Ranging, err.Error())
	}
	return &OverlayStmt{
		Ranging:  diag.Ranging{From: from, To: nameTok.To},
		Hide:     hide,
		Name:     nameTok.Val,
		NameSpan: nameTok.Ranging,
	}
}

// RegisterStmt = 'register' path
//
// The plugin's commands become resolvable from the next statement on.
func (ps *parser) parseRegister() Stmt {
	from := ps.next().From
	pathTok := ps.cur()
	if pathTok.Kind != Bareword && pathTok.Kind != String {
		ps.errorCur("should be plugin path")
		return ps.badStmt(from)
	}
	ps.next()
	cmds, err := ps.table.RegisterPlugin(pathTok.Val)
	if err != nil {
		ps.errorp(pathTok.Ranging, err.Error())
	}
	return &RegisterStmt{
		Ranging:  diag.Ranging{From: from, To: pathTok.To},
		Path:     pathTok.Val,
		PathSpan: pathTok.Ranging,
		Commands: cmds,
	}
}

// ForStmt = 'for' name 'in' Expr Block
func (ps *parser) parseFor() Stmt {
	from := ps.next().From
	varTok, ok := ps.expectVarName("variable name")
	if !ok {
		return ps.badStmt(from)
	}
	if _, ok := ps.acceptWord("in"); !ok {
		ps.errorCur("should be 'in'")
		return ps.badStmt(from)
	}
	iter := ps.parseExpr(0)
	body := ps.parseBlockBinding([]string{varTok.Val})
	return &ForStmt{
		Ranging: diag.Ranging{From: from, To: body.To},
		VarName: varTok.Val,
		VarSpan: varTok.Ranging,
		Iter:    iter,
		Body:    body,
	}
}

// WhileStmt = 'while' Expr Block
func (ps *parser) parseWhile() Stmt {
	from := ps.next().From
	cond := ps.parseExpr(0)
	body := ps.parseBlock()
	return &WhileStmt{
		Ranging: diag.Ranging{From: from, To: body.To},
		Cond:    cond,
		Body:    body,
	}
}

// ReturnStmt = 'return' [ Expr ]
func (ps *parser) parseReturn() Stmt {
	t := ps.next()
	st := &ReturnStmt{Ranging: t.Ranging}
	if startsExpr(ps.cur().Kind) {
		st.Value = ps.parseExpr(0)
		st.To = st.Value.Range().To
	}
	return st
}

// Pipeline = PipeElem { '|' PipeElem }
func (ps *parser) parsePipeline() *Pipeline {
	p := &Pipeline{Ranging: diag.PointRanging(ps.cur().From)}
	p.Elems = append(p.Elems, ps.parsePipeElem())
	for {
		if _, ok := ps.accept(Pipe); !ok {
			break
		}
		// A | at the end of a line continues the pipeline on the next.
		ps.skipSeps()
		p.Elems = append(p.Elems, ps.parsePipeElem())
	}
	p.To = p.Elems[len(p.Elems)-1].To
	return p
}

// PipeElem = Call | Expr, with optional redirections.
func (ps *parser) parsePipeElem() *PipeElem {
	elem := &PipeElem{Ranging: diag.PointRanging(ps.cur().From)}
	if startsCall(ps.cur()) {
		elem.Call = ps.parseCall(elem)
	} else {
		elem.Expr = ps.parseExpr(0)
		ps.parseRedirs(elem)
	}
	elem.To = ps.prevEnd()
	if elem.To < elem.From {
		elem.To = elem.From
	}
	return elem
}

// startsCall reports whether a token begins a command call rather than a bare
// expression.
func startsCall(t Token) bool {
	if t.Kind != Bareword {
		return false
	}
	switch t.Val {
	case "if", "true", "false", "null", "not":
		return false
	}
	return !isBinaryOp(t.Val) && !isRedirWord(t.Val)
}

// The longest command name the parser will try to resolve, in words.
const maxCmdWords = 3

// Call = head { Arg | Flag | Redir }
//
// The head is resolved against the DeclTable: the longest sequence of
// barewords naming a declaration wins. An unresolvable head is an external
// command, as is a head with a ^ prefix.
func (ps *parser) parseCall(elem *PipeElem) *Call {
	head := ps.cur()
	call := &Call{Ranging: diag.PointRanging(head.From)}
	if strings.HasPrefix(head.Val, "^") && len(head.Val) > 1 {
		ps.next()
		call.Head = head.Val[1:]
		call.HeadSpan = head.Ranging
		call.External = true
		ps.parseWordArgs(call, elem)
	} else {
		var words []string
		for i := 0; i < maxCmdWords && ps.peek(i).Kind == Bareword; i++ {
			words = append(words, ps.peek(i).Val)
		}
		spec, n := ps.table.ResolveCmd(words)
		if spec != nil {
			first := ps.next()
			last := first
			for i := 1; i < n; i++ {
				last = ps.next()
			}
			call.Head = strings.Join(words[:n], " ")
			call.HeadSpan = diag.MixedRanging(first, last)
			call.Spec = spec
			ps.parseSigArgs(call, spec.Signature(), elem)
		} else {
			ps.next()
			call.Head = head.Val
			call.HeadSpan = head.Ranging
			call.External = true
			ps.parseWordArgs(call, elem)
		}
	}
	call.To = ps.prevEnd()
	if call.To < call.From {
		call.To = call.From
	}
	return call
}

// stopArg reports whether a token ends an argument list.
func stopArg(k TokenKind) bool {
	switch k {
	case Sep, Pipe, EOF, RParen, RBracket, RBrace, InterpEnd, InterpText:
		return true
	}
	return false
}

func isRedirWord(word string) bool {
	switch word {
	case "o>", "e>", "o>>", "e>>":
		return true
	}
	return false
}

func redirModeOf(word string) RedirMode {
	switch word {
	case "o>":
		return RedirStdout
	case "e>":
		return RedirStderr
	case "o>>":
		return RedirStdoutAppend
	default:
		return RedirStderrAppend
	}
}

func isFlagWord(word string) bool {
	return len(word) > 1 && word[0] == '-' && word != "--" && !isRedirWord(word)
}

// parseSigArgs parses the arguments of a call whose head resolved to a
// declaration, driven by its signature: flags are matched against declared
// flags, positionals are full expressions, and the arity is checked against
// the signature with errors placed on the offending spans.
func (ps *parser) parseSigArgs(call *Call, sig *Signature, elem *PipeElem) {
	if sig == nil {
		ps.parseWordArgs(call, elem)
		return
	}
	afterDashDash := false
	for !stopArg(ps.cur().Kind) {
		t := ps.cur()
		switch {
		case t.Kind == Comma:
			ps.errorCur("unexpected ','")
			ps.next()
		case t.Kind == Bareword && isRedirWord(t.Val):
			ps.parseRedir(elem)
		case !afterDashDash && t.Kind == Bareword && t.Val == "--":
			ps.next()
			afterDashDash = true
		case !afterDashDash && t.Kind == Bareword && isFlagWord(t.Val):
			ps.parseFlag(call, sig)
		default:
			call.Args = append(call.Args, ps.parseExpr(0))
		}
	}
	ps.checkArity(call, sig)
}

func (ps *parser) parseFlag(call *Call, sig *Signature) {
	t := ps.next()
	name := strings.TrimPrefix(t.Val, "--")
	if name == t.Val {
		name = strings.TrimPrefix(t.Val, "-")
	}
	f := sig.FindFlag(name)
	if f == nil {
		ps.errorpf(t.Ranging, "unknown flag %s", t.Val)
		return
	}
	flagArg := &FlagArg{Ranging: t.Ranging, Name: f.Long}
	if f.Takes() {
		if stopArg(ps.cur().Kind) {
			ps.errorpf(t.Ranging, "flag --%s requires a value", f.Long)
		} else {
			flagArg.Value = ps.parseExpr(0)
			flagArg.To = flagArg.Value.Range().To
		}
	}
	call.Flags = append(call.Flags, flagArg)
}

func (ps *parser) checkArity(call *Call, sig *Signature) {
	n := len(call.Args)
	if max := sig.MaxArgs(); max >= 0 && n > max {
		ps.errorpf(diag.MixedRanging(call.Args[max], call.Args[n-1]),
			"too many arguments: %s accepts at most %d, got %d",
			call.Head, max, n)
	}
	if req := sig.RequiredArgs(); n < req {
		ps.errorpf(diag.PointRanging(ps.prevEnd()),
			"missing argument: %s requires at least %d, got %d",
			call.Head, req, n)
	}
}

// parseWordArgs parses the arguments of an external call: each argument is a
// word rather than an expression, so operators and numbers pass through as
// literal strings.
func (ps *parser) parseWordArgs(call *Call, elem *PipeElem) {
	for !stopArg(ps.cur().Kind) {
		t := ps.cur()
		switch {
		case t.Kind == Comma:
			ps.errorCur("unexpected ','")
			ps.next()
		case t.Kind == Bareword && isRedirWord(t.Val):
			ps.parseRedir(elem)
		default:
			call.Args = append(call.Args, ps.parseWordArg())
		}
	}
}

func (ps *parser) parseWordArg() Expr {
	t := ps.cur()
	switch t.Kind {
	case Bareword, Int, Float, Filesize, Duration:
		ps.next()
		return &StringLit{Ranging: t.Ranging, Value: t.Text}
	default:
		return ps.parsePostfix(ps.parsePrimary())
	}
}

func (ps *parser) parseRedirs(elem *PipeElem) {
	for ps.cur().Kind == Bareword && isRedirWord(ps.cur().Val) {
		ps.parseRedir(elem)
	}
}

// Redir = ('o>' | 'e>' | 'o>>' | 'e>>') word
func (ps *parser) parseRedir(elem *PipeElem) {
	t := ps.next()
	target := ps.parseWordArg()
	elem.Redirs = append(elem.Redirs, &Redir{
		Ranging: diag.MixedRanging(t, target),
		Mode:    redirModeOf(t.Val),
		Target:  target,
	})
}

// Binary operators and their binding powers.
var binOps = map[string]int{
	"or":  1,
	"and": 2,
	"==":  3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"=~": 3, "!~": 3, "in": 3, "not-in": 3,
	"++": 5,
	"+":  6, "-": 6,
	"*": 7, "/": 7, "//": 7, "mod": 7,
	"**": 8,
}

const rangeBP = 4

func isBinaryOp(word string) bool {
	_, ok := binOps[word]
	return ok
}

// startsExpr reports whether a token can begin an expression.
func startsExpr(k TokenKind) bool {
	switch k {
	case Sep, Pipe, EOF, RParen, RBracket, RBrace, Comma, InterpEnd, InterpText:
		return false
	}
	return true
}

// parseExpr parses an expression with precedence climbing. Only operators
// with binding power at least minBP are consumed.
func (ps *parser) parseExpr(minBP int) Expr {
	lhs := ps.parseUnary()
	for {
		t := ps.cur()
		if t.Kind == DotDot || t.Kind == DotDotLt {
			if rangeBP < minBP {
				break
			}
			ps.next()
			r := &RangeExpr{
				Ranging:   diag.Ranging{From: lhs.Range().From, To: t.To},
				From:      lhs,
				Exclusive: t.Kind == DotDotLt,
			}
			if startsExpr(ps.cur().Kind) {
				r.To = ps.parseExpr(rangeBP + 1)
				r.Ranging.To = r.To.Range().To
			}
			lhs = r
			continue
		}
		if t.Kind != Bareword {
			break
		}
		bp, ok := binOps[t.Val]
		if !ok || bp < minBP {
			break
		}
		ps.next()
		nextMin := bp + 1
		if t.Val == "**" {
			// Right associative.
			nextMin = bp
		}
		rhs := ps.parseExpr(nextMin)
		lhs = &BinaryExpr{
			Ranging: diag.MixedRanging(lhs, rhs),
			Op:      t.Val,
			OpSpan:  t.Ranging,
			LHS:     lhs,
			RHS:     rhs,
		}
	}
	return lhs
}

func (ps *parser) parseUnary() Expr {
	t := ps.cur()
	if t.Kind == Bareword {
		switch t.Val {
		case "not":
			ps.next()
			operand := ps.parseExpr(3)
			return &UnaryExpr{
				Ranging: diag.Ranging{From: t.From, To: operand.Range().To},
				Op:      "not",
				OpSpan:  t.Ranging,
				Operand: operand,
			}
		case "-":
			ps.next()
			operand := ps.parseUnary()
			return &UnaryExpr{
				Ranging: diag.Ranging{From: t.From, To: operand.Range().To},
				Op:      "-",
				OpSpan:  t.Ranging,
				Operand: operand,
			}
		}
	}
	return ps.parsePostfix(ps.parsePrimary())
}

// parsePostfix parses cell path members after a primary expression.
func (ps *parser) parsePostfix(base Expr) Expr {
	if !ps.at(Dot) {
		return base
	}
	cp := &CellPathExpr{Ranging: base.Range(), Base: base}
	for {
		dotTok, ok := ps.accept(Dot)
		if !ok {
			break
		}
		m, ok := ps.parsePathMember(dotTok)
		if !ok {
			break
		}
		cp.Path = append(cp.Path, m)
		cp.To = m.To
	}
	return cp
}

func (ps *parser) parsePathMember(dotTok Token) (PathMember, bool) {
	t := ps.cur()
	switch t.Kind {
	case Bareword:
		ps.next()
		return PathMember{Ranging: t.Ranging, Name: t.Val}, true
	case String:
		ps.next()
		return PathMember{Ranging: t.Ranging, Name: t.Val}, true
	case Int:
		ps.next()
		idx, err := parseIntText(t.Text)
		if err != nil {
			ps.errorp(t.Ranging, "index out of range")
		}
		return PathMember{Ranging: t.Ranging, Index: idx, IsIndex: true}, true
	default:
		ps.errorp(dotTok.Ranging, "should be field name or index")
		return PathMember{}, false
	}
}

func (ps *parser) parsePrimary() Expr {
	t := ps.cur()
	switch t.Kind {
	case Int:
		ps.next()
		v, err := parseIntText(t.Text)
		if err != nil {
			ps.errorp(t.Ranging, "integer literal out of range")
		}
		return &IntLit{Ranging: t.Ranging, Value: v}
	case Float:
		ps.next()
		v, err := parseFloatText(t.Text)
		if err != nil {
			ps.errorp(t.Ranging, "float literal out of range")
		}
		return &FloatLit{Ranging: t.Ranging, Value: v}
	case Filesize:
		ps.next()
		v, err := parseFilesizeText(t.Text)
		if err != nil {
			ps.errorp(t.Ranging, "filesize literal out of range")
		}
		return &FilesizeLit{Ranging: t.Ranging, Bytes: v}
	case Duration:
		ps.next()
		v, err := parseDurationText(t.Text)
		if err != nil {
			ps.errorp(t.Ranging, "duration literal out of range")
		}
		return &DurationLit{Ranging: t.Ranging, Value: v}
	case String:
		ps.next()
		return &StringLit{Ranging: t.Ranging, Value: t.Val}
	case Var:
		ps.next()
		ps.refVar(t.Val)
		return &VarExpr{Ranging: t.Ranging, Name: t.Val}
	case InterpBegin:
		return ps.parseInterp()
	case LParen:
		return ps.parseSubExpr()
	case LBracket:
		return ps.parseListOrTable()
	case LBrace:
		return ps.parseRecordOrClosure()
	case DotDot, DotDotLt:
		ps.next()
		r := &RangeExpr{Ranging: t.Ranging, Exclusive: t.Kind == DotDotLt}
		if startsExpr(ps.cur().Kind) {
			r.To = ps.parseExpr(rangeBP + 1)
			r.Ranging.To = r.To.Range().To
		}
		return r
	case Bareword:
		switch t.Val {
		case "true", "false":
			ps.next()
			return &BoolLit{Ranging: t.Ranging, Value: t.Val == "true"}
		case "null":
			ps.next()
			return &NullLit{Ranging: t.Ranging}
		case "if":
			return ps.parseIf()
		default:
			ps.next()
			return &StringLit{Ranging: t.Ranging, Value: t.Val}
		}
	default:
		ps.errorCur("should be expression")
		ps.next()
		return &BadExpr{Ranging: t.Ranging}
	}
}

// InterpExpr = '$"' { text | '(' Chunk ')' } '"'
func (ps *parser) parseInterp() Expr {
	begin := ps.next()
	ie := &InterpExpr{Ranging: begin.Ranging}
	for {
		t := ps.cur()
		switch t.Kind {
		case InterpText:
			ps.next()
			ie.Segs = append(ie.Segs, InterpSeg{Ranging: t.Ranging, Text: t.Val})
		case LParen:
			lp := ps.next()
			chunk := ps.parseChunk(atRParen)
			rp, _ := ps.expect(RParen, "')'")
			r := diag.Ranging{From: lp.From, To: rp.To}
			ie.Segs = append(ie.Segs, InterpSeg{
				Ranging: r,
				Expr:    &SubExpr{Ranging: r, Chunk: chunk},
			})
		case InterpEnd:
			ps.next()
			ie.To = t.To
			return ie
		default:
			// Unterminated; the lexer already reported it.
			ie.To = ps.prevEnd()
			return ie
		}
	}
}

// SubExpr = '(' Chunk ')'
func (ps *parser) parseSubExpr() Expr {
	lp := ps.next()
	chunk := ps.parseChunk(atRParen)
	_, ok := ps.expect(RParen, "')'")
	to := ps.prevEnd()
	if !ok {
		to = chunk.To
	}
	return &SubExpr{Ranging: diag.Ranging{From: lp.From, To: to}, Chunk: chunk}
}

// parseListOrTable parses [a b c] as a list and [[cols]; [row] ...] as a
// table.
func (ps *parser) parseListOrTable() Expr {
	lb := ps.next()
	if _, ok := ps.accept(RBracket); ok {
		return &ListLit{Ranging: diag.Ranging{From: lb.From, To: ps.prevEnd()}}
	}
	first := ps.parseExpr(0)
	if ps.at(Sep) {
		return ps.parseTable(lb, first)
	}
	list := &ListLit{Ranging: diag.PointRanging(lb.From), Elems: []Expr{first}}
	for {
		for ps.at(Comma) {
			ps.next()
		}
		if _, ok := ps.accept(RBracket); ok {
			break
		}
		if ps.at(EOF) {
			ps.errorCur("should be ']'")
			break
		}
		list.Elems = append(list.Elems, ps.parseExpr(0))
	}
	list.To = ps.prevEnd()
	return list
}

func (ps *parser) parseTable(lb Token, header Expr) Expr {
	tbl := &TableLit{Ranging: diag.PointRanging(lb.From)}
	headerList, ok := header.(*ListLit)
	if !ok {
		ps.errorp(header.Range(), "should be table header: a list of column names")
	} else {
		for _, col := range headerList.Elems {
			if s, ok := col.(*StringLit); ok {
				tbl.Columns = append(tbl.Columns, s)
			} else {
				ps.errorp(col.Range(), "should be column name")
			}
		}
	}
	ps.skipSeps()
	for !ps.at(RBracket) && !ps.at(EOF) {
		row := ps.parseExpr(0)
		if rowList, ok := row.(*ListLit); ok {
			if len(tbl.Columns) > 0 && len(rowList.Elems) != len(tbl.Columns) {
				ps.errorpf(row.Range(), "row has %d values, header has %d columns",
					len(rowList.Elems), len(tbl.Columns))
			}
			tbl.Rows = append(tbl.Rows, rowList.Elems)
		} else {
			ps.errorp(row.Range(), "should be table row: a list of values")
		}
		ps.skipSeps()
	}
	ps.expect(RBracket, "']'")
	tbl.To = ps.prevEnd()
	return tbl
}

// parseRecordOrClosure disambiguates { ... } by lookahead: {} and {key: ...}
// are records; {|params| ...} and anything else are closures.
func (ps *parser) parseRecordOrClosure() Expr {
	n1 := ps.peek(1)
	switch {
	case n1.Kind == RBrace:
		return ps.parseRecord()
	case n1.Kind == Bareword && len(n1.Val) > 1 && strings.HasSuffix(n1.Val, ":"):
		return ps.parseRecord()
	case n1.Kind == String && ps.peek(2).Kind == Bareword &&
		strings.HasPrefix(ps.peek(2).Val, ":"):
		return ps.parseRecord()
	default:
		return ps.parseClosure()
	}
}

// RecordLit = '{' { key ':' Expr [','] } '}'
func (ps *parser) parseRecord() Expr {
	lb := ps.next()
	rec := &RecordLit{Ranging: diag.PointRanging(lb.From)}
	for {
		for ps.at(Comma) || ps.at(Sep) {
			ps.next()
		}
		if _, ok := ps.accept(RBrace); ok {
			break
		}
		if ps.at(EOF) {
			ps.errorCur("should be '}'")
			break
		}
		entry, ok := ps.parseRecordEntry()
		if !ok {
			continue
		}
		rec.Entries = append(rec.Entries, entry)
	}
	rec.To = ps.prevEnd()
	return rec
}

func (ps *parser) parseRecordEntry() (*RecordEntry, bool) {
	t := ps.cur()
	var key string
	var keySpan diag.Ranging
	switch {
	case t.Kind == Bareword && len(t.Val) > 1 && strings.HasSuffix(t.Val, ":"):
		ps.next()
		key = strings.TrimSuffix(t.Val, ":")
		keySpan = t.Ranging
	case t.Kind == String:
		ps.next()
		key = t.Val
		keySpan = t.Ranging
		if _, ok := ps.acceptWord(":"); !ok {
			ps.errorCur("should be ':' after record key")
			return nil, false
		}
	default:
		ps.errorCur("should be record key")
		ps.next()
		return nil, false
	}
	value := ps.parseExpr(0)
	return &RecordEntry{
		Ranging: diag.Ranging{From: keySpan.From, To: value.Range().To},
		Key:     key,
		KeySpan: keySpan,
		Value:   value,
	}, true
}

// ClosureLit = '{' [ '|' SignatureItems '|' ] Chunk '}'
func (ps *parser) parseClosure() Expr {
	lb := ps.next()
	sig := &Signature{}
	if _, ok := ps.accept(Pipe); ok {
		sig = ps.parseSignatureItems(func(k TokenKind) bool { return k == Pipe })
		ps.expect(Pipe, "'|'")
	}
	block := ps.parseBlockBody(lb, sigNames(sig), false)
	return &ClosureLit{Ranging: block.Ranging, Sig: sig, Body: block}
}

// parseBlock parses a brace block with no pre-bound names.
func (ps *parser) parseBlock() *Block {
	return ps.parseBlockBinding(nil)
}

// parseBlockBinding parses a brace block with the given names bound inside
// it.
func (ps *parser) parseBlockBinding(bind []string) *Block {
	lb, ok := ps.expect(LBrace, "'{'")
	if !ok {
		return &Block{
			Ranging: diag.PointRanging(ps.cur().From),
			Chunk:   &Chunk{Ranging: diag.PointRanging(ps.cur().From)},
		}
	}
	return ps.parseBlockBody(lb, bind, false)
}

// parseDefBody parses the body of a def. Unlike closures, def bodies do not
// capture variables from the surrounding scope: a name that is not a
// parameter or bound locally is looked up dynamically at run time.
func (ps *parser) parseDefBody(bind []string) *Block {
	lb, ok := ps.expect(LBrace, "'{'")
	if !ok {
		return &Block{
			Ranging: diag.PointRanging(ps.cur().From),
			Chunk:   &Chunk{Ranging: diag.PointRanging(ps.cur().From)},
		}
	}
	return ps.parseBlockBody(lb, bind, true)
}

func (ps *parser) parseBlockBody(lb Token, bind []string, wall bool) *Block {
	ps.table.EnterScope()
	ps.pushBlockWall(wall)
	for _, name := range bind {
		ps.bindVar(name)
	}
	chunk := ps.parseChunk(atRBrace)
	ps.expect(RBrace, "'}'")
	captures := ps.popBlock()
	ps.table.ExitScope()
	return &Block{
		Ranging:  diag.Ranging{From: lb.From, To: ps.prevEnd()},
		Chunk:    chunk,
		Captures: captures,
	}
}

// IfExpr = 'if' Expr Block [ 'else' (IfExpr | Block) ]
func (ps *parser) parseIf() *IfExpr {
	ifTok := ps.next()
	cond := ps.parseExpr(0)
	then := ps.parseBlock()
	node := &IfExpr{
		Ranging: diag.Ranging{From: ifTok.From, To: then.To},
		Cond:    cond,
		Then:    then,
	}
	if _, ok := ps.acceptWord("else"); ok {
		if ps.atWord("if") {
			node.ElseIf = ps.parseIf()
			node.To = node.ElseIf.To
		} else {
			node.ElseBlock = ps.parseBlock()
			node.To = node.ElseBlock.To
		}
	}
	return node
}

// SignatureItems = { param | '...' param | flag [short] [','] }
//
// Parameter syntax: name, name: type, name?, name?: type, name = default.
// Flag syntax: --long, --long (-s), --long: type, --long (-s): type.
func (ps *parser) parseSignatureItems(stop func(TokenKind) bool) *Signature {
	sig := &Signature{}
	for !stop(ps.cur().Kind) && !ps.at(EOF) {
		t := ps.cur()
		switch {
		case t.Kind == Comma || t.Kind == Sep:
			ps.next()
		case t.Kind == Ellipsis:
			ps.next()
			p, ok := ps.parseParamWord()
			if !ok {
				continue
			}
			if sig.Rest != nil {
				ps.errorp(p.Ranging, "duplicate rest parameter")
				continue
			}
			sig.Rest = p
		case t.Kind == Bareword && strings.HasPrefix(t.Val, "--") && len(t.Val) > 2:
			sig.Flags = append(sig.Flags, ps.parseFlagDecl())
		case t.Kind == Bareword:
			p, ok := ps.parseParamWord()
			if !ok {
				continue
			}
			if _, ok := ps.acceptWord("="); ok {
				p.Default = ps.parseExpr(0)
				p.Optional = true
			}
			sig.Positional = append(sig.Positional, p)
		default:
			ps.errorCur("should be parameter")
			ps.next()
		}
	}
	return sig
}

// parseParamWord parses a parameter name with its optional marker and type
// annotation.
func (ps *parser) parseParamWord() (*Param, bool) {
	t, ok := ps.expect(Bareword, "parameter name")
	if !ok {
		return nil, false
	}
	p := &Param{Ranging: t.Ranging}
	name, typ, hasColon := strings.Cut(t.Val, ":")
	if strings.HasSuffix(name, "?") {
		p.Optional = true
		name = strings.TrimSuffix(name, "?")
	}
	p.Name = name
	if hasColon {
		if typ == "" {
			p.Type = ps.expectTypeWord()
		} else {
			p.Type = typ
		}
	}
	if p.Name == "" {
		ps.errorp(t.Ranging, "should be parameter name")
		return nil, false
	}
	return p, true
}

func (ps *parser) expectTypeWord() string {
	t, ok := ps.expect(Bareword, "type name")
	if !ok {
		return ""
	}
	return t.Val
}

// parseFlagDecl parses --long, with optional (-s) short form and type.
func (ps *parser) parseFlagDecl() *Flag {
	t := ps.next()
	f := &Flag{Ranging: t.Ranging}
	name, typ, hasColon := strings.Cut(strings.TrimPrefix(t.Val, "--"), ":")
	f.Long = name
	// Optional short form: (-s)
	if ps.at(LParen) && ps.peek(1).Kind == Bareword &&
		len(ps.peek(1).Val) == 2 && ps.peek(1).Val[0] == '-' &&
		ps.peek(2).Kind == RParen {
		ps.next()
		short := ps.next()
		rp := ps.next()
		f.Short = strings.TrimPrefix(short.Val, "-")
		f.To = rp.To
	}
	switch {
	case hasColon && typ != "":
		f.Type = typ
	case hasColon:
		f.Type = ps.expectTypeWord()
	case ps.atWord(":"):
		ps.next()
		f.Type = ps.expectTypeWord()
	case ps.cur().Kind == Bareword && strings.HasPrefix(ps.cur().Val, ":") &&
		len(ps.cur().Val) > 1:
		f.Type = strings.TrimPrefix(ps.next().Val, ":")
	}
	return f
}

// Literal value parsing. The lexer classifies literal forms; these helpers
// produce the values, reporting out-of-range problems.

func parseIntText(text string) (int64, error) {
	s := text
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var v uint64
	var err error
	if len(s) > 1 && s[0] == '0' && !isDecDigit(s[1]) {
		v, err = strconv.ParseUint(s, 0, 64)
	} else {
		v, err = strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64)
	}
	if err != nil {
		return 0, err
	}
	if neg {
		if v > uint64(math.MaxInt64)+1 {
			return 0, strconv.ErrRange
		}
		return -int64(v), nil
	}
	if v > uint64(math.MaxInt64) {
		return 0, strconv.ErrRange
	}
	return int64(v), nil
}

func parseFloatText(text string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
}

func parseFilesizeText(text string) (int64, error) {
	return parseScaled(text, func(unit string) (int64, bool) {
		mult, ok := filesizeUnits[strings.ToLower(unit)]
		return mult, ok
	})
}

func parseDurationText(text string) (time.Duration, error) {
	n, err := parseScaled(text, func(unit string) (int64, bool) {
		mult, ok := durationUnits[unit]
		return mult, ok
	})
	return time.Duration(n), err
}

func parseScaled(text string, multOf func(string) (int64, bool)) (int64, error) {
	s := text
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	num, unit := splitUnitSuffix(s)
	mult, ok := multOf(unit)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	var v int64
	if isIntText(num) {
		n, err := parseIntText(num)
		if err != nil {
			return 0, err
		}
		if n > math.MaxInt64/mult {
			return 0, strconv.ErrRange
		}
		v = n * mult
	} else {
		f, err := parseFloatText(num)
		if err != nil {
			return 0, err
		}
		scaled := f * float64(mult)
		if scaled >= math.MaxInt64 || scaled < math.MinInt64 {
			return 0, strconv.ErrRange
		}
		v = int64(scaled)
	}
	if neg {
		v = -v
	}
	return v, nil
}
