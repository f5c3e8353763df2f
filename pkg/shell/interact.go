package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/parse"
	"src.sylph.sh/pkg/strutil"
	"src.sylph.sh/pkg/sys"
)

// Configuration for the interactive mode.
type interactCfg struct {
	RC string
}

// interact runs an interactive session: a line-at-a-time loop, with a prompt
// when standard input is a terminal. Pressing Ctrl-C while a pipeline runs
// interrupts it, killing its external processes.
func interact(ev *eval.Evaler, fds [3]*os.File, cfg *interactCfg) {
	if cfg.RC != "" {
		if err := sourceRC(ev, fds, cfg.RC); err != nil {
			diag.ShowError(fds[2], err)
		}
	}

	in := bufio.NewReader(fds[0])
	tty := sys.IsATTY(fds[0].Fd())
	var sigCh chan os.Signal
	if tty {
		sigCh = sys.NotifySignals()
	}
	cmdNum := 0
	for {
		cmdNum++
		if tty {
			wd, err := os.Getwd()
			if err != nil {
				wd = "?"
			}
			fmt.Fprintf(fds[2], "%s> ", wd)
		}

		line, err := in.ReadString('\n')
		if err == io.EOF && line == "" {
			break
		} else if err != nil && err != io.EOF {
			fmt.Fprintln(fds[2], "error reading input:", err)
			break
		}
		code := strutil.ChopLineEnding(line)

		evalErr := evalInteractive(ev, fds, sigCh,
			parse.Source{Name: fmt.Sprintf("[tty %v]", cmdNum), Code: code})
		if evalErr != nil {
			diag.ShowError(fds[2], evalErr)
		}
		if err == io.EOF {
			break
		}
	}
}

// evalInteractive evaluates one line of input, translating SIGINT into an
// interrupt of the running pipeline for the duration of the evaluation.
func evalInteractive(ev *eval.Evaler, fds [3]*os.File, sigCh <-chan os.Signal, src parse.Source) error {
	intCh := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == os.Interrupt {
					close(intCh)
					return
				}
			case <-done:
				return
			}
		}
	}()

	pd, err := ev.Eval(src, eval.EvalCfg{Interrupts: intCh})
	if err != nil {
		return err
	}
	return writeResult(fds[1], pd, true)
}

func sourceRC(ev *eval.Evaler, fds [3]*os.File, rcPath string) error {
	absPath, err := filepath.Abs(rcPath)
	if err != nil {
		return fmt.Errorf("cannot get full path of rc.syl: %v", err)
	}
	code, err := readFileUTF8(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	pd, err := ev.Eval(parse.Source{Name: absPath, Code: code, IsFile: true}, eval.EvalCfg{})
	if err != nil {
		return err
	}
	return writeResult(fds[1], pd, false)
}
