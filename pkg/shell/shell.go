// Package shell is the entry point for the terminal interface of sylph.
package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/logutil"
	"src.sylph.sh/pkg/plugin"
	"src.sylph.sh/pkg/prog"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram.
type Program struct {
	codeInArg   bool
	compileOnly bool
	noRC        bool
	rc          string
	db          string
	json        *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.codeInArg, "c", false, "take first argument as code to execute")
	fs.BoolVar(&p.compileOnly, "compileonly", false, "parse the script but do not execute")
	fs.BoolVar(&p.noRC, "norc", false, "run sylph without sourcing rc.syl")
	fs.StringVar(&p.rc, "rc", "", "path to rc.syl")
	fs.StringVar(&p.db, "db", "", "path to the plugin registry database")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	ev := eval.NewEvaler()
	ev.Files = fds

	cleanup := setupPlugins(ev, p.db, fds[2])
	defer cleanup()

	if len(args) > 0 {
		exit := script(ev, fds, args, &scriptCfg{
			Cmd: p.codeInArg, CompileOnly: p.compileOnly, JSON: *p.json})
		return prog.Exit(exit)
	}
	if p.codeInArg || p.compileOnly {
		return prog.BadUsage("missing an argument with the code")
	}

	rc := p.rc
	if rc == "" && !p.noRC {
		var err error
		rc, err = RCPath()
		if err != nil {
			fmt.Fprintln(fds[2], "warning:", err)
		}
	}
	interact(ev, fds, &interactCfg{RC: rc})
	return nil
}

// setupPlugins opens the plugin registry and wires plugin support into the
// engine. The shell still runs, with register statements failing cleanly,
// when the registry cannot be opened.
func setupPlugins(ev *eval.Evaler, dbOverride string, stderr *os.File) func() {
	path := dbOverride
	if path == "" {
		p, err := DBPath()
		if err != nil {
			fmt.Fprintln(stderr, "warning: cannot locate plugin registry:", err)
			plugin.Activate(ev.Engine, nil)
			return func() {}
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		fmt.Fprintln(stderr, "warning: cannot create plugin registry directory:", err)
		plugin.Activate(ev.Engine, nil)
		return func() {}
	}
	reg, err := plugin.OpenRegistry(path)
	if err != nil {
		fmt.Fprintln(stderr, "warning: cannot open plugin registry:", err)
		plugin.Activate(ev.Engine, nil)
		return func() {}
	}
	plugin.Activate(ev.Engine, reg)
	if err := plugin.LoadRegistered(ev.Engine, reg); err != nil {
		fmt.Fprintln(stderr, "warning: cannot load registered plugins:", err)
	}
	logger.Println("plugin registry at", path)
	return func() { reg.Close() }
}
