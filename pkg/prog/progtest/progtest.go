// Package progtest provides utilities for testing subprograms.
package progtest

import (
	"io"
	"os"
	"testing"

	"src.sylph.sh/pkg/prog"
)

// Result is the captured outcome of running a program.
type Result struct {
	Exit   int
	Stdout string
	Stderr string
}

// Run runs a program with the given command line and an empty standard input,
// capturing its output. The first element of the command line is the program
// name.
func Run(t *testing.T, p prog.Program, args ...string) Result {
	return RunWithInput(t, p, "", args...)
}

// RunWithInput is Run with the given standard input.
func RunWithInput(t *testing.T, p prog.Program, input string, args ...string) Result {
	t.Helper()
	stdin := capturePipe(t, func(w *os.File) {
		w.WriteString(input)
	})
	var stdout, stderr *os.File
	outDone := captureOutput(t, &stdout)
	errDone := captureOutput(t, &stderr)

	exit := prog.Run([3]*os.File{stdin, stdout, stderr}, args, p)
	stdout.Close()
	stderr.Close()
	return Result{Exit: exit, Stdout: <-outDone, Stderr: <-errDone}
}

func capturePipe(t *testing.T, write func(*os.File)) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	go func() {
		write(w)
		w.Close()
	}()
	return r
}

// captureOutput sets *f to the write end of a pipe and drains the read end
// concurrently, so that output larger than the pipe buffer does not block the
// program.
func captureOutput(t *testing.T, f **os.File) <-chan string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	*f = w
	done := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		r.Close()
		done <- string(b)
	}()
	return done
}
