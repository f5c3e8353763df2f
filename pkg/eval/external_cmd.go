package eval

import (
	"os"
	"os/exec"
	"sync"

	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

// evalExternal spawns an external command. The command runs concurrently
// with the rest of the pipeline: its standard output comes back as a
// ByteStream paced by whoever consumes it, and a non-zero exit status
// surfaces at the end of that stream.
func (fm *Frame) evalExternal(call *parse.Call) (PipelineData, error) {
	name := call.Head
	path, err := exec.LookPath(name)
	if err != nil {
		fm.input.Close()
		return Empty, fm.errorpf(call.HeadSpan, "command not found: %s", name)
	}
	argv := make([]string, 0, len(call.Args))
	for _, argExpr := range call.Args {
		v, err := fm.evalExpr(argExpr)
		if err != nil {
			fm.input.Close()
			return Empty, err
		}
		argv = append(argv, vals.ToString(v))
	}

	cmd := exec.Command(path, argv...)
	cmd.Args[0] = name
	cmd.Env = fm.engine.environSlice(fm.env)
	cmd.Stdin = reader(fm.input)
	cmd.Stderr = fm.stderrFile
	cmd.SysProcAttr = procAttr()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fm.input.Close()
		return Empty, fm.errorp(call, err)
	}
	if err := cmd.Start(); err != nil {
		fm.input.Close()
		return Empty, fm.errorp(call, err)
	}
	logger.Printf("spawned %s (pid %d)", name, cmd.Process.Pid)

	input := fm.input
	if !fm.procs.add(cmd.Process) {
		// Interrupted between the check and the spawn.
		killProcess(cmd.Process)
	}
	var reapOnce sync.Once
	wait := func() error {
		var exitErr error
		reapOnce.Do(func() {
			// Wait closes the stdout pipe; by the time wait runs the
			// stream has been drained or abandoned.
			cmd.Wait()
			fm.procs.remove(cmd.Process)
			input.Close()
			exitErr = NewExternalCmdExit(name, cmd.ProcessState)
		})
		return exitErr
	}
	kill := func() { killProcess(cmd.Process) }
	return NewByteStream(stdout, wait, kill, call.Range()), nil
}

// procSet tracks the processes spawned during one evaluation, so that an
// interrupt can terminate all of them at once.
type procSet struct {
	mu     sync.Mutex
	procs  map[*os.Process]struct{}
	killed bool
}

func newProcSet() *procSet {
	return &procSet{procs: make(map[*os.Process]struct{})}
}

// add registers a process. It reports false if the set was already killed;
// the caller then terminates the process itself.
func (ps *procSet) add(p *os.Process) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.killed {
		return false
	}
	ps.procs[p] = struct{}{}
	return true
}

func (ps *procSet) remove(p *os.Process) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.procs, p)
}

// killAll terminates every tracked process. Processes added afterwards are
// the caller's responsibility, signaled by add returning false.
func (ps *procSet) killAll() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.killed = true
	for p := range ps.procs {
		killProcess(p)
	}
}
