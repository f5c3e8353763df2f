package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

// Configuration for the script mode.
type scriptCfg struct {
	Cmd         bool
	CompileOnly bool
	JSON        bool
}

// Executes a shell script.
func script(ev *eval.Evaler, fds [3]*os.File, args []string, cfg *scriptCfg) int {
	arg0 := args[0]

	var name, code string
	if cfg.Cmd {
		name = "code from -c"
		code = arg0
	} else {
		var err error
		name, err = filepath.Abs(arg0)
		if err != nil {
			fmt.Fprintf(fds[2],
				"cannot get full path of script %q: %v\n", arg0, err)
			return 2
		}
		code, err = readFileUTF8(name)
		if err != nil {
			fmt.Fprintf(fds[2], "cannot read script %q: %v\n", name, err)
			return 2
		}
	}

	src := parse.Source{Name: name, Code: code, IsFile: !cfg.Cmd}
	if cfg.CompileOnly {
		// Parse against a fork so the session keeps no declarations from the
		// checked code.
		_, err := parse.Parse(src, parse.Config{DeclTable: ev.Engine.Fork()})
		if cfg.JSON {
			fmt.Fprintf(fds[1], "%s\n", errorsToJSON(err))
		} else if err != nil {
			diag.ShowError(fds[2], err)
		}
		if err != nil {
			return 2
		}
		return 0
	}

	pd, err := ev.Eval(src, eval.EvalCfg{})
	if err == nil {
		err = writeResult(fds[1], pd, false)
	}
	if err != nil {
		diag.ShowError(fds[2], err)
		return 2
	}
	return 0
}

// writeResult renders the value of a source's last statement: byte streams
// pass through unchanged; other data prints one line per value, with a "▶ "
// prefix in interactive mode.
func writeResult(out *os.File, pd eval.PipelineData, interactive bool) error {
	if bs, ok := pd.(*eval.ByteStream); ok {
		_, err := io.Copy(out, bs)
		return err
	}
	return eval.Elements(pd, func(v any) bool {
		if interactive {
			fmt.Fprintln(out, "▶ "+vals.ReprPlain(v))
		} else {
			fmt.Fprintln(out, vals.ToString(v))
		}
		return true
	})
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fname string) (string, error) {
	bytes, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}

// An auxiliary struct for converting errors with diagnostics information to JSON.
type errorInJSON struct {
	FileName string `json:"fileName"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Message  string `json:"message"`
}

// Converts parse errors into JSON.
func errorsToJSON(err error) []byte {
	converted := []errorInJSON{}
	for _, e := range parse.UnpackErrors(err) {
		converted = append(converted,
			errorInJSON{e.Context.Name, e.Context.From, e.Context.To, e.Message})
	}
	jsonError, errMarshal := json.Marshal(converted)
	if errMarshal != nil {
		return []byte(`[{"message":"Unable to convert the errors to JSON"}]`)
	}
	return jsonError
}
