package prog_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"src.sylph.sh/pkg/prog"
	"src.sylph.sh/pkg/prog/progtest"
)

type testProgram struct {
	write   string
	err     error
	flagVal string
	hasFlag bool
}

func (p *testProgram) RegisterFlags(fs *prog.FlagSet) {
	if p.hasFlag {
		fs.StringVar(&p.flagVal, "flag", "default", "a flag")
	}
}

func (p *testProgram) Run(fds [3]*os.File, args []string) error {
	if p.err != nil {
		return p.err
	}
	fds[1].WriteString(p.write)
	return nil
}

func TestRun(t *testing.T) {
	res := progtest.Run(t, &testProgram{write: "hello\n"}, "sylph")
	if res.Exit != 0 || res.Stdout != "hello\n" {
		t.Errorf("got exit %d stdout %q", res.Exit, res.Stdout)
	}
}

func TestRun_Help(t *testing.T) {
	res := progtest.Run(t, &testProgram{}, "sylph", "-help")
	if res.Exit != 0 || !strings.Contains(res.Stdout, "Usage: sylph") {
		t.Errorf("got exit %d stdout %q", res.Exit, res.Stdout)
	}
}

func TestRun_BadFlag(t *testing.T) {
	res := progtest.Run(t, &testProgram{}, "sylph", "-no-such-flag")
	if res.Exit != 2 || !strings.Contains(res.Stderr, "Usage: sylph") {
		t.Errorf("got exit %d stderr %q", res.Exit, res.Stderr)
	}
}

func TestRun_CustomFlag(t *testing.T) {
	p := &testProgram{hasFlag: true}
	res := progtest.Run(t, p, "sylph", "-flag", "custom")
	if res.Exit != 0 || p.flagVal != "custom" {
		t.Errorf("got exit %d flag %q", res.Exit, p.flagVal)
	}
}

func TestRun_Error(t *testing.T) {
	res := progtest.Run(t, &testProgram{err: errors.New("boom")}, "sylph")
	if res.Exit != 2 || !strings.Contains(res.Stderr, "boom") {
		t.Errorf("got exit %d stderr %q", res.Exit, res.Stderr)
	}
}

func TestRun_BadUsage(t *testing.T) {
	res := progtest.Run(t, &testProgram{err: prog.BadUsage("bad usage")}, "sylph")
	if res.Exit != 2 {
		t.Errorf("got exit %d", res.Exit)
	}
	if !strings.Contains(res.Stderr, "bad usage") || !strings.Contains(res.Stderr, "Usage: sylph") {
		t.Errorf("got stderr %q", res.Stderr)
	}
}

func TestRun_ExitError(t *testing.T) {
	res := progtest.Run(t, &testProgram{err: prog.Exit(3)}, "sylph")
	if res.Exit != 3 || res.Stderr != "" {
		t.Errorf("got exit %d stderr %q", res.Exit, res.Stderr)
	}
}

func TestComposite(t *testing.T) {
	skipped := &testProgram{err: prog.ErrNextProgram}
	chosen := &testProgram{write: "chosen\n"}
	unreached := &testProgram{write: "unreached\n"}
	res := progtest.Run(t, prog.Composite(skipped, chosen, unreached), "sylph")
	if res.Exit != 0 || res.Stdout != "chosen\n" {
		t.Errorf("got exit %d stdout %q", res.Exit, res.Stdout)
	}
}

func TestComposite_AllSkip(t *testing.T) {
	res := progtest.Run(t, prog.Composite(
		&testProgram{err: prog.ErrNextProgram},
		&testProgram{err: prog.ErrNextProgram}), "sylph")
	if res.Exit != 2 || !strings.Contains(res.Stderr, "no suitable subprogram") {
		t.Errorf("got exit %d stderr %q", res.Exit, res.Stderr)
	}
}

func TestComposite_Cleanup(t *testing.T) {
	skipped := &testProgram{err: prog.NextProgram(func(fds [3]*os.File) {
		fds[1].WriteString("cleanup\n")
	})}
	chosen := &testProgram{write: "chosen\n"}
	res := progtest.Run(t, prog.Composite(skipped, chosen), "sylph")
	if res.Stdout != "chosen\ncleanup\n" {
		t.Errorf("got stdout %q", res.Stdout)
	}
}
