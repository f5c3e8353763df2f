// Package prog provides the entry point to sylph. Its subprograms, like the
// shell and the language server, register their flags and take turns to claim
// an invocation.
package prog

import (
	"flag"
	"fmt"
	"io"
	"os"

	"src.sylph.sh/pkg/logutil"
)

// Program is a subprogram.
type Program interface {
	// RegisterFlags registers the subprogram's flags.
	RegisterFlags(fs *FlagSet)
	// Run runs the subprogram. Returning an error made by NextProgram defers
	// to the next subprogram of a Composite.
	Run(fds [3]*os.File, args []string) error
}

// FlagSet wraps a flag.FlagSet, with accessors for flags shared between
// subprograms.
type FlagSet struct {
	*flag.FlagSet
	json *bool
}

// JSON returns a pointer to the shared -json flag, registering it on first
// use.
func (fs *FlagSet) JSON() *bool {
	if fs.json == nil {
		var json bool
		fs.BoolVar(&json, "json", false,
			"Show the output from -buildinfo, -compileonly or -version in JSON")
		fs.json = &json
	}
	return fs.json
}

func usage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: sylph [flags] [script]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Run parses command-line flags and runs the program, returning the exit
// status of the process.
func Run(fds [3]*os.File, args []string, p Program) int {
	fs := flag.NewFlagSet("sylph", flag.ContinueOnError)
	// Error and usage will be printed explicitly.
	fs.SetOutput(io.Discard)

	var log string
	var help bool
	fs.StringVar(&log, "log", "", "a file to write debug log to")
	fs.BoolVar(&help, "help", false, "show usage help and quit")
	p.RegisterFlags(&FlagSet{FlagSet: fs})

	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			// (*flag.FlagSet).Parse returns ErrHelp when -h was requested but
			// not defined. This program defines -help, but not -h.
			fmt.Fprintln(fds[2], "flag provided but not defined: -h")
		} else {
			fmt.Fprintln(fds[2], err)
		}
		usage(fds[2], fs)
		return 2
	}

	if log != "" {
		if err = logutil.SetOutputFile(log); err != nil {
			fmt.Fprintln(fds[2], err)
		}
	}

	if help {
		usage(fds[1], fs)
		return 0
	}

	err = p.Run(fds, fs.Args())
	if err == nil {
		return 0
	}
	if nextErr, ok := err.(nextProgramError); ok {
		nextErr.runCleanups(fds)
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(fds[2], msg)
	}
	switch err := err.(type) {
	case badUsageError:
		usage(fds[2], fs)
	case exitError:
		return err.exit
	}
	return 2
}

// Composite returns a Program that runs the given programs in turn, stopping
// at the first one that doesn't return an error made by NextProgram.
func Composite(programs ...Program) Program {
	return compositeProgram(programs)
}

type compositeProgram []Program

func (cp compositeProgram) RegisterFlags(fs *FlagSet) {
	for _, p := range cp {
		p.RegisterFlags(fs)
	}
}

func (cp compositeProgram) Run(fds [3]*os.File, args []string) error {
	var cleanups []func([3]*os.File)
	for _, p := range cp {
		err := p.Run(fds, args)
		if nextErr, ok := err.(nextProgramError); ok {
			cleanups = append(cleanups, nextErr.cleanups...)
			continue
		}
		runCleanups(fds, cleanups)
		return err
	}
	return nextProgramError{cleanups}
}

// NextProgram returns a special error to be returned by Program.Run, which
// defers to the next subprogram of a Composite. The cleanups run, in reverse
// order, after the program that eventually claims the invocation finishes.
func NextProgram(cleanups ...func([3]*os.File)) error {
	return nextProgramError{cleanups}
}

// ErrNextProgram is NextProgram with no cleanups.
var ErrNextProgram = NextProgram()

type nextProgramError struct{ cleanups []func([3]*os.File) }

func (e nextProgramError) Error() string {
	return "internal error: no suitable subprogram"
}

func (e nextProgramError) runCleanups(fds [3]*os.File) {
	runCleanups(fds, e.cleanups)
}

func runCleanups(fds [3]*os.File, cleanups []func([3]*os.File)) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i](fds)
	}
}

// BadUsage returns a special error to be returned by Program.Run. It causes
// the main function to print the message and the usage information, and exit
// with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error to be returned by Program.Run. It causes the
// main function to exit with the given code without printing any message.
// Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }
