//go:build !windows && !plan9 && !js

package eval

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// procAttr puts each spawned command in its own process group, so that
// killing it takes its descendants along.
func procAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(p *os.Process) {
	// Signal the whole process group; fall back to the process itself if
	// the group is already gone.
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if err != nil {
		p.Kill()
	}
}

func exitSignalName(state *os.ProcessState) string {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if ok && ws.Signaled() {
		return unix.SignalName(ws.Signal())
	}
	return "unknown signal"
}
