package eval

import (
	"os"
	"strconv"

	"src.sylph.sh/pkg/parse"
)

// ExternalCmdExit is the non-zero exit status of an external command. It is
// a data-level error: it surfaces at the end of the command's output stream,
// after output produced before the exit has been consumed.
type ExternalCmdExit struct {
	CmdName string
	Pid     int
	// Status is the exit status, or -1 if the process was killed by a
	// signal.
	Status int
	// Signal names the terminating signal when Status is -1, and is empty
	// otherwise.
	Signal string
}

// NewExternalCmdExit returns an error representing the exit of an external
// command, or nil if it exited successfully.
func NewExternalCmdExit(name string, state *os.ProcessState) error {
	if state.Success() {
		return nil
	}
	exit := ExternalCmdExit{CmdName: name, Pid: state.Pid(), Status: state.ExitCode()}
	if exit.Status == -1 {
		exit.Signal = exitSignalName(state)
	}
	return exit
}

func (exit ExternalCmdExit) Error() string {
	quotedName := parse.Quote(exit.CmdName)
	if exit.Status >= 0 {
		return quotedName + " exited with " + strconv.Itoa(exit.Status)
	}
	return quotedName + " killed by signal " + exit.Signal
}
