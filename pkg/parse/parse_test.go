package parse

import (
	"fmt"
	"strings"
	"testing"

	. "src.sylph.sh/pkg/tt"
)

// testDecl is the CmdSpec used by testTable.
type testDecl struct {
	name     string
	sig      *Signature
	body     *Block
	exported bool
}

func (d *testDecl) Signature() *Signature { return d.sig }

type overlayLayer struct {
	name  string
	decls map[string]*testDecl
}

// testTable implements DeclTable with real scoping, enough to drive the
// parser in tests.
type testTable struct {
	scopes   []map[string]*testDecl
	overlays []overlayLayer
	modules  map[string]map[string]*testDecl
	plugins  map[string][]NamedSignature

	collecting map[string]*testDecl
	moduleName string
}

func newTestTable() *testTable {
	tb := &testTable{
		scopes:  []map[string]*testDecl{{}},
		modules: map[string]map[string]*testDecl{},
		plugins: map[string][]NamedSignature{
			"test.plugin": {
				{Name: "from ini", Sig: MustSignature("")},
				{Name: "inc", Sig: MustSignature("n: int")},
			},
		},
	}
	for name, sigText := range map[string]string{
		"echo":       "...rest",
		"print":      "...rest",
		"sort":       "--reverse (-r)",
		"first":      "n?: int",
		"where":      "pred",
		"get":        "path",
		"str join":   "sep?: string",
		"str length": "",
	} {
		tb.declare(&testDecl{name: name, sig: MustSignature(sigText)})
	}
	return tb
}

func (tb *testTable) declare(d *testDecl) {
	tb.scopes[len(tb.scopes)-1][d.name] = d
}

func (tb *testTable) lookup(name string) *testDecl {
	for i := len(tb.overlays) - 1; i >= 0; i-- {
		if d, ok := tb.overlays[i].decls[name]; ok {
			return d
		}
	}
	for i := len(tb.scopes) - 1; i >= 0; i-- {
		if d, ok := tb.scopes[i][name]; ok {
			return d
		}
	}
	return nil
}

func (tb *testTable) ResolveCmd(words []string) (CmdSpec, int) {
	for n := len(words); n > 0; n-- {
		if d := tb.lookup(strings.Join(words[:n], " ")); d != nil {
			return d, n
		}
	}
	return nil, 0
}

func (tb *testTable) PredeclCmd(name string, sig *Signature, exported bool) CmdSpec {
	d := &testDecl{name: name, sig: sig, exported: exported}
	tb.declare(d)
	if tb.collecting != nil && exported {
		tb.collecting[name] = d
	}
	return d
}

func (tb *testTable) BindCmdBody(spec CmdSpec, body *Block) {
	spec.(*testDecl).body = body
}

func (tb *testTable) EnterScope() {
	tb.scopes = append(tb.scopes, map[string]*testDecl{})
}

func (tb *testTable) ExitScope() {
	tb.scopes = tb.scopes[:len(tb.scopes)-1]
}

func (tb *testTable) EnterModule(name string) error {
	if tb.collecting != nil {
		return fmt.Errorf("cannot nest modules")
	}
	tb.collecting = map[string]*testDecl{}
	tb.moduleName = name
	tb.EnterScope()
	return nil
}

func (tb *testTable) ExitModule() {
	tb.ExitScope()
	tb.modules[tb.moduleName] = tb.collecting
	tb.collecting = nil
}

func (tb *testTable) UseModule(name string) error {
	m, ok := tb.modules[name]
	if !ok {
		return fmt.Errorf("unknown module %s", name)
	}
	for _, d := range m {
		tb.scopes[len(tb.scopes)-1][name+" "+d.name] = d
	}
	return nil
}

func (tb *testTable) UseOverlay(name string) error {
	m, ok := tb.modules[name]
	if !ok {
		return fmt.Errorf("unknown module %s", name)
	}
	decls := map[string]*testDecl{}
	for _, d := range m {
		decls[d.name] = d
	}
	tb.overlays = append(tb.overlays, overlayLayer{name: name, decls: decls})
	return nil
}

func (tb *testTable) HideOverlay(name string) error {
	for i := len(tb.overlays) - 1; i >= 0; i-- {
		if tb.overlays[i].name == name {
			tb.overlays = append(tb.overlays[:i], tb.overlays[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("overlay %s is not active", name)
}

func (tb *testTable) RegisterPlugin(path string) ([]NamedSignature, error) {
	cmds, ok := tb.plugins[path]
	if !ok {
		return nil, fmt.Errorf("unknown plugin %s", path)
	}
	for _, c := range cmds {
		tb.declare(&testDecl{name: c.Name, sig: c.Sig})
	}
	return cmds, nil
}

// parseNormalized parses src against the test table and renders the tree
// back to source.
func parseNormalized(src string) string {
	tree, err := Parse(SourceForTest(src), Config{DeclTable: newTestTable()})
	if err != nil {
		return "error: " + UnpackErrors(err)[0].Message
	}
	return Unparse(tree.Root)
}

func TestParse(t *testing.T) {
	Test(t, Fn("parseNormalized", parseNormalized), Table{
		Args("").Rets(""),
		Args("echo hello").Rets("echo hello"),
		Args("echo hello\nprint bye").Rets("echo hello; print bye"),

		// Argument expressions of known commands.
		Args("echo 1 + 2 * 3").Rets("echo 1 + 2 * 3"),
		Args("echo (1 + 2) * 3").Rets("echo (1 + 2) * 3"),
		Args("echo 2 ** 3 ** 2").Rets("echo 2 ** 3 ** 2"),
		Args("echo true null 1.5 2kb 10sec").Rets("echo true null 1.5 2kb 10sec"),
		Args("echo 1..5 3..<9").Rets("echo 1..5 3..<9"),
		Args("echo [1 2 three]").Rets("echo [1 2 three]"),
		Args("echo {a: 1, b: [2]}").Rets("echo {a: 1, b: [2]}"),
		Args("echo {a: 1\nb: 2}").Rets("echo {a: 1, b: 2}"),
		Args("echo [[a b]; [1 2] [3 4]]").Rets("echo [[a b]; [1 2] [3 4]]"),
		Args("echo $x.name.0").Rets("echo $x.name.0"),
		Args(`echo $r.'two words'`).Rets("echo $r.'two words'"),
		Args(`echo $"hi (1 + 2)!"`).Rets(`echo $"hi (1 + 2)!"`),

		// Unresolved heads are external commands with word arguments.
		Args("git commit -m fix").Rets("^git commit '-m' fix"),
		Args("^sort by-size").Rets("^sort by-size"),
		Args("tr a-z A-Z").Rets("^tr a-z A-Z"),

		// Flags normalize to their long form.
		Args("sort --reverse").Rets("sort --reverse"),
		Args("sort -r").Rets("sort --reverse"),

		// Pipelines and redirections.
		Args("echo a | sort | first 3").Rets("echo a | sort | first 3"),
		Args("echo a |\n sort").Rets("echo a | sort"),
		Args("echo hi o> out.txt e>> err.log").Rets("echo hi o> out.txt e>> err.log"),

		// Bare expressions as pipeline elements.
		Args("1 + 2").Rets("1 + 2"),
		Args("not true").Rets("not true"),
		Args("$x | first").Rets("$x | first"),
		Args("[3 1 2] | sort").Rets("[3 1 2] | sort"),

		// A leading string stays quoted so it can't become a command head.
		Args("'a' ++ $x").Rets("'a' ++ $x"),
		Args("'x' in $list").Rets("'x' in $list"),
		Args("'abc'.0 | first").Rets("'abc'.0 | first"),
		Args("echo 'abc'.0").Rets("echo 'abc'.0"),

		// Operators and precedence.
		Args("1 + 2 == 3 and not 4 < 3").Rets("1 + 2 == 3 and not 4 < 3"),
		Args("echo a ++ b").Rets("echo a ++ b"),
		Args("echo 7 // 2 + 7 mod 2").Rets("echo 7 // 2 + 7 mod 2"),
		Args("echo x in [x y]").Rets("echo x in [x y]"),
		Args("echo - 5").Rets("echo -5"),

		// Statements.
		Args("let x = 42; echo $x").Rets("let x = 42; echo $x"),
		Args("let x = echo a | first").Rets("let x = echo a | first"),
		Args("let-env PATH = '/bin'").Rets("let-env PATH = '/bin'"),
		Args("for x in [1 2] { echo $x }").Rets("for x in [1 2] { echo $x }"),
		Args("while true { break }").Rets("while true { break }"),
		Args("while true { continue }").Rets("while true { continue }"),
		Args("if 1 < 2 { echo a } else { echo b }").
			Rets("if 1 < 2 { echo a } else { echo b }"),
		Args("if $a { echo a } else if $b { echo b } else { echo c }").
			Rets("if $a { echo a } else if $b { echo b } else { echo c }"),
		Args("let x = if $c { 1 } else { 2 }").
			Rets("let x = if $c { 1 } else { 2 }"),

		// Closures and blocks.
		Args("echo {||}").Rets("echo {||}"),
		Args("where {|x| $x > 2 }").Rets("where {|x| $x > 2 }"),
		Args("each").Rets("^each"),
		Args("{ echo hi }").Rets("{ echo hi }"),

		// Definitions; the body can refer to the command being defined.
		Args("def twice [x: int] { $x + $x }; twice 4").
			Rets("def twice [x: int] { $x + $x }; twice 4"),
		Args("def f [n: int] { f $n }").Rets("def f [n: int] { f $n }"),
		Args("export def hi [] { echo hi }").Rets("export def hi { echo hi }"),
		Args(`def "str trim" [] { }; str trim`).Rets("def 'str trim' { }; str trim"),

		// Modules, overlays, plugins.
		Args("module m { export def hi [] { } }; use m; m hi").
			Rets("module m { export def hi { } }; use m; m hi"),
		Args("module m { export def hi [] { } }; overlay use m; hi").
			Rets("module m { export def hi { } }; overlay use m; hi"),
		Args("register test.plugin; from ini; inc 3").
			Rets("register test.plugin; from ini; inc 3"),

		// Errors.
		Args("first 1 2").Rets("error: too many arguments: first accepts at most 1, got 2"),
		Args("sort --fast").Rets("error: unknown flag --fast"),
		Args("sort --reverse --reverse x y").
			Rets("error: too many arguments: sort accepts at most 0, got 2"),
		Args("let = 3").Rets("error: should be variable name"),
		Args("let x 3").Rets("error: should be '='"),
		Args("for x [1] { }").Rets("error: should be 'in'"),
		Args("use nosuch").Rets("error: unknown module nosuch"),
		Args("overlay frob m").Rets("error: should be 'use' or 'hide'"),
		Args("overlay hide m").Rets("error: overlay m is not active"),
		Args("register bogus.plugin").Rets("error: unknown plugin bogus.plugin"),
		Args("module a { module b { } }").Rets("error: cannot nest modules"),
		Args("echo 'abc").Rets("error: string not terminated"),
		Args("echo $nope, next").Rets("error: unexpected ','"),
		Args("export let x = 1").Rets("error: should be 'def'"),
	})
}

// Commands declared inside a block are not visible after it.
func TestParse_ScopedDecls(t *testing.T) {
	got := parseNormalized("if $c { def inner [] { } }; inner")
	want := "if $c { def inner { } }; ^inner"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParse_OverlayShadowsAndRestores(t *testing.T) {
	src := "module m { export def sort [] { } }\nsort\noverlay use m\nsort\noverlay hide m\nsort"
	tb := newTestTable()
	builtin := tb.lookup("sort")
	tree, err := Parse(SourceForTest(src), Config{DeclTable: tb})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	specs := make([]CmdSpec, 0, 3)
	for _, st := range tree.Root.Stmts {
		if p, ok := st.(*Pipeline); ok {
			specs = append(specs, p.Elems[0].Call.Spec)
		}
	}
	if len(specs) != 3 {
		t.Fatalf("got %d sort calls, want 3", len(specs))
	}
	if specs[0] != CmdSpec(builtin) {
		t.Errorf("before overlay: resolved to %v, want builtin", specs[0])
	}
	if specs[1] == CmdSpec(builtin) {
		t.Errorf("with overlay: still resolves to builtin")
	}
	if specs[2] != CmdSpec(builtin) {
		t.Errorf("after hide: resolved to %v, want builtin", specs[2])
	}
}

func TestParse_DefBindsOwnBody(t *testing.T) {
	tb := newTestTable()
	tree, err := Parse(SourceForTest("def f [] { f }"), Config{DeclTable: tb})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	def := tree.Root.Stmts[0].(*DefStmt)
	call := def.Body.Chunk.Stmts[0].(*Pipeline).Elems[0].Call
	if call.Spec != def.Spec {
		t.Errorf("body call resolves to %v, want the def itself", call.Spec)
	}
	if def.Spec.(*testDecl).body != def.Body {
		t.Errorf("BindCmdBody did not receive the parsed body")
	}
}

func TestParse_RegisterCarriesCommands(t *testing.T) {
	tree, err := Parse(SourceForTest("register test.plugin"),
		Config{DeclTable: newTestTable()})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	reg := tree.Root.Stmts[0].(*RegisterStmt)
	if len(reg.Commands) != 2 || reg.Commands[0].Name != "from ini" {
		t.Errorf("got commands %v, want from ini and inc", reg.Commands)
	}
}

func closureOf(t *testing.T, src string, path ...int) *ClosureLit {
	t.Helper()
	tree, err := Parse(SourceForTest(src), Config{DeclTable: newTestTable()})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	stmt := tree.Root.Stmts[path[0]]
	var expr Expr
	switch st := stmt.(type) {
	case *LetStmt:
		expr = st.RHS.Elems[0].Expr
	case *Pipeline:
		expr = st.Elems[0].Expr
	default:
		t.Fatalf("unexpected statement %T", stmt)
	}
	cl := expr.(*ClosureLit)
	for _, i := range path[1:] {
		cl = cl.Body.Chunk.Stmts[i].(*Pipeline).Elems[0].Expr.(*ClosureLit)
	}
	return cl
}

func TestParse_ClosureCaptures(t *testing.T) {
	Test(t, Fn("captures", func(src string, path ...int) []string {
		return closureOf(t, src, path...).Body.Captures
	}), Table{
		// Free names are captured.
		Args("let a = 1; let f = {|| $a + $b }", 1).Rets([]string{"a", "b"}),
		// Parameters and locals are not.
		Args("{|x| let y = 2; $x + $y }", 0).Rets([]string(nil)),
		// Special names are provided per frame, never captured.
		Args("{|| $in | first; $env.PATH; $nothing }", 0).Rets([]string(nil)),
		// A nested closure's free names cross the enclosing closure.
		Args("let x = 1; let f = {|| let y = 2; {|| $x + $y } }", 1).
			Rets([]string{"x"}),
		Args("let x = 1; let f = {|| let y = 2; {|| $x + $y } }", 1, 1).
			Rets([]string{"x", "y"}),
		// for binds its loop variable in the body.
		Args("{|| for v in [1] { echo $v } }", 0).Rets([]string(nil)),
	})
}

// def bodies do not capture; unbound names resolve at run time.
func TestParse_DefBodyDoesNotCapture(t *testing.T) {
	tree, err := Parse(SourceForTest("let a = 1; def f [] { echo $a; echo {|| $a } }"),
		Config{DeclTable: newTestTable()})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	def := tree.Root.Stmts[1].(*DefStmt)
	if len(def.Body.Captures) != 0 {
		t.Errorf("def body captures %v, want none", def.Body.Captures)
	}
	// A closure inside the def body still captures normally.
	inner := def.Body.Chunk.Stmts[1].(*Pipeline).Elems[0].Call.
		Args[0].(*ClosureLit)
	if len(inner.Body.Captures) != 1 || inner.Body.Captures[0] != "a" {
		t.Errorf("inner closure captures %v, want [a]", inner.Body.Captures)
	}
}

// isPartial reports whether every parse error of src is a partial-input
// error, meaning more input could complete the source.
func isPartial(src string) bool {
	_, err := Parse(SourceForTest(src), Config{DeclTable: newTestTable()})
	errs := UnpackErrors(err)
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if !e.Partial {
			return false
		}
	}
	return true
}

func TestParse_PartialErrors(t *testing.T) {
	Test(t, Fn("isPartial", isPartial), Table{
		Args("echo (1 + 2").Rets(true),
		Args("echo [1 2").Rets(true),
		Args("echo {|x| $x").Rets(true),
		Args("echo 'abc").Rets(true),
		Args(`echo $"abc`).Rets(true),
		Args("if $x { echo a").Rets(true),

		Args("echo hello").Rets(false),
		Args("echo )").Rets(false),
		Args("first 1 2").Rets(false),
		Args(`echo "a\qb"`).Rets(false),
	})
}

func TestParse_ErrorRecovery(t *testing.T) {
	// Both statements have problems; both are reported.
	_, err := Parse(SourceForTest("let = 1\nsort --fast"),
		Config{DeclTable: newTestTable()})
	errs := UnpackErrors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if errs[0].Message != "should be variable name" {
		t.Errorf("first error: %q", errs[0].Message)
	}
	if errs[1].Message != "unknown flag --fast" {
		t.Errorf("second error: %q", errs[1].Message)
	}
}

func TestParse_ErrorSpans(t *testing.T) {
	src := "first 1 2 3"
	_, err := Parse(SourceForTest(src), Config{DeclTable: newTestTable()})
	errs := UnpackErrors(err)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	r := errs[0].Context.Ranging
	if got := src[r.From:r.To]; got != "2 3" {
		t.Errorf("error spans %q, want the extra arguments", got)
	}
}

func TestParse_LexicalErrorBecomesParseError(t *testing.T) {
	src := `echo "a\qb"`
	tokens := Tokenize(src)
	if tokens[2].Kind != ErrorToken {
		t.Fatalf("token 2 is %v, want an error token", tokens[2].Kind)
	}
	_, err := Parse(SourceForTest(src), Config{DeclTable: newTestTable()})
	errs := UnpackErrors(err)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Message != "invalid escape sequence" {
		t.Errorf("error message: %q", errs[0].Message)
	}
	r := errs[0].Context.Ranging
	if r != tokens[2].Ranging {
		t.Errorf("error spans %v, want the error token's range %v",
			r, tokens[2].Ranging)
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("x: int y? ...rest --flag (-f): string")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if len(sig.Positional) != 2 || sig.Rest == nil || len(sig.Flags) != 1 {
		t.Fatalf("bad shape: %v", sig)
	}
	p := sig.Positional[0]
	if p.Name != "x" || p.Type != "int" || p.Optional {
		t.Errorf("positional 0: %+v", p)
	}
	if !sig.Positional[1].Optional {
		t.Errorf("positional 1 should be optional")
	}
	f := sig.Flags[0]
	if f.Long != "flag" || f.Short != "f" || f.Type != "string" || !f.Takes() {
		t.Errorf("flag: %+v", f)
	}
	if got := sig.String(); got != "x: int y? ...rest --flag (-f): string" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseSignature_Errors(t *testing.T) {
	for _, src := range []string{"x | y", "...a ...b", "?"} {
		if _, err := ParseSignature(src); err == nil {
			t.Errorf("ParseSignature(%q) succeeds, want error", src)
		}
	}
}

func TestMustSignature_PanicsOnBadInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MustSignature did not panic")
		}
	}()
	MustSignature("...a ...b")
}
