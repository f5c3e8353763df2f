package eval_test

import (
	"testing"

	"src.sylph.sh/pkg/eval"
	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

func TestModuleUse(t *testing.T) {
	Test(t,
		That("module greet { export def hello [] { 'hi' } }",
			"use greet",
			"greet hello").Puts("hi"),
		// An export can call an unexported helper of the same module.
		That("module m { def helper [] { 21 } export def pub [] { (helper) * 2 } }",
			"use m",
			"m pub").Puts(int64(42)),
		// The helper itself is not visible outside the module.
		That("module m { def helper [] { 1 } }",
			"use m",
			"helper").Throws(
			ErrorWithMessageContaining("command not found"), "helper"),
		That("use nowhere").DoesNotParse("no module named nowhere"),
		That("module outer { module inner { } }").DoesNotParse(
			"module inner declared inside module outer"),
	)
}

func TestOverlay(t *testing.T) {
	Test(t,
		// overlay use makes exports resolvable without the module prefix.
		That("module m { export def hello [] { 'from-m' } }",
			"overlay use m",
			"hello").Puts("from-m"),
		// An overlay shadows builtins of the same name until hidden.
		That("module m { export def length [] { 'custom' } }",
			"overlay use m",
			"[1 2 3] | length").Puts("custom").
			Then("[1 2 3] | length").Puts("custom").
			Then("overlay hide m", "[1 2 3] | length").Puts(int64(3)),
		That("overlay hide nope").DoesNotParse("no active overlay named nope"),
		// The builtin and session layers are pinned.
		That("overlay hide builtin").DoesNotParse(
			"no active overlay named builtin"),
		That("overlay hide session").DoesNotParse(
			"no active overlay named session"),
	)
}

func TestDefShadowing(t *testing.T) {
	Test(t,
		// Redefinition registers a new declaration that shadows the old
		// one; the old body is unaffected where already bound.
		That("def f [] { 1 }", "def f [] { 2 }", "f").Puts(int64(2)),
		// A def shadows a builtin of the same name for later statements.
		That("def length [] { 'mine' }", "[1 2] | length").Puts("mine"),
	)
}

func TestEngineStateFork(t *testing.T) {
	ev := eval.NewEvaler()
	mustEval(t, ev, "def mine [] { 'v1' }")

	forked := eval.NewEvaler()
	forked.Engine = ev.Engine.Fork()
	mustEval(t, forked, "def extra [] { 'v2' }")

	// The fork sees declarations made before the fork.
	if got := evalValue(t, forked, "mine"); !vals.Equal(got, "v1") {
		t.Errorf("fork resolves mine to %v, want v1", got)
	}
	// Declarations on the fork do not leak back.
	if _, err := ev.Eval(testSource("extra"), eval.EvalCfg{}); err == nil {
		t.Errorf("original engine resolves a declaration made on the fork")
	}
}

func testSource(code string) parse.Source {
	return parse.Source{Name: "[test]", Code: code}
}

func mustEval(t *testing.T, ev *eval.Evaler, code string) {
	t.Helper()
	out, err := ev.Eval(testSource(code), eval.EvalCfg{})
	if err != nil {
		t.Fatalf("eval %q: %v", code, err)
	}
	out.Close()
}

func evalValue(t *testing.T, ev *eval.Evaler, code string) any {
	t.Helper()
	out, err := ev.Eval(testSource(code), eval.EvalCfg{})
	if err != nil {
		t.Fatalf("eval %q: %v", code, err)
	}
	v, err := eval.Collect(out)
	if err != nil {
		t.Fatalf("collect %q: %v", code, err)
	}
	return v
}
