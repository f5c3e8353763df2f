//go:build windows

package eval

import (
	"os"
	"strconv"
	"syscall"
)

func procAttr() *syscall.SysProcAttr { return nil }

func killProcess(p *os.Process) { p.Kill() }

func exitSignalName(state *os.ProcessState) string {
	return "exit code " + strconv.Itoa(state.ExitCode())
}
