//go:build !windows && !plan9 && !js

package eval_test

import (
	"testing"
	"time"

	"src.sylph.sh/pkg/eval"
	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/parse"
	"src.sylph.sh/pkg/testutil"
)

func TestExternalCmd(t *testing.T) {
	Test(t,
		That("sh -c 'echo hello'").Puts("hello"),
		// Lines of the output stream become values.
		That("sh -c 'echo a; echo b' | lines | collect").PutsList("a", "b"),
		// Pipeline data feeds the child's standard input.
		That("echo 'x' | cat").Puts("x"),
		That("[1 2] | cat").Puts("1\n2"),
		// The child's stderr goes to the session's stderr, not into the
		// pipeline.
		That("sh -c 'echo oops >&2'").PrintsStderrWith("oops"),
	)
}

func TestExternalCmd_NotFound(t *testing.T) {
	Test(t,
		That("definitely-no-such-command-here").Throws(
			ErrorWithMessageContaining("command not found"),
			"definitely-no-such-command-here"),
	)
}

func TestExternalCmd_ExitStatus(t *testing.T) {
	Test(t,
		That("sh -c 'exit 3'").Throws(
			CmdExit(eval.ExternalCmdExit{CmdName: "sh", Status: 3})),
		// Output produced before a failing exit still arrives; the exit
		// status surfaces only at the end of the stream.
		That("sh -c 'echo partial; exit 2'; 'after'").
			Throws(CmdExit(eval.ExternalCmdExit{CmdName: "sh", Status: 2}),
				"sh -c 'echo partial; exit 2'").
			Prints("partial\n"),
	)
}

func TestExternalCmd_ConsumerStopKillsProducer(t *testing.T) {
	Test(t,
		// first stops reading after one line, which terminates the
		// unbounded producer instead of letting it run forever.
		That("yes | first").Puts("y"),
		That("yes | lines | first 2").PutsList("y", "y"),
	)
}

func TestExternalCmd_Redir(t *testing.T) {
	testutil.InTempDir(t)
	Test(t,
		// Raw bytes of a child's output go to the file unmodified.
		That("sh -c 'echo raw' o> raw.txt").
			Passes(func(t *testing.T) { checkFileContent(t, "raw.txt", "raw\n") }),
		That("sh -c 'echo oops >&2' e> err.txt").
			Passes(func(t *testing.T) { checkFileContent(t, "err.txt", "oops\n") }),
	)
}

func TestInterruptKillsExternal(t *testing.T) {
	ev := eval.NewEvaler()
	intCh := make(chan struct{})
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(intCh)
	}()
	start := time.Now()
	_, err := ev.Eval(
		parse.Source{Name: "[test]", Code: "sleep 100; 'after'"},
		eval.EvalCfg{Interrupts: intCh})
	if err == nil {
		t.Errorf("want an error after interrupt, got nil")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("interrupted evaluation took %v to return", elapsed)
	}
}
