// Sylph is a shell whose pipelines carry typed, structured values. It parses
// against live session state, streams external command output lazily, and can
// be extended with plugin binaries. It is suitable for both interactive use
// and scripting.
package main

import (
	"os"

	"src.sylph.sh/pkg/buildinfo"
	"src.sylph.sh/pkg/lsp"
	"src.sylph.sh/pkg/prog"
	"src.sylph.sh/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &lsp.Program{}, &shell.Program{})))
}
