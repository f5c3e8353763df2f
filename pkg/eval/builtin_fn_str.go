package eval

import (
	"strings"
	"unicode/utf8"

	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
)

func strCmds() []*Decl {
	return []*Decl{
		builtin("str join", "sep?: string", strJoinCmd),
		builtin("str length", "", strLengthCmd),
		builtin("str upcase", "", strUpcaseCmd),
	}
}

// strJoinCmd joins the input elements into one string.
func strJoinCmd(fm *Frame, args Args) (PipelineData, error) {
	sep := ""
	if len(args.Pos) > 0 {
		sep = args.Pos[0].(string)
	}
	var sb strings.Builder
	first := true
	err := Elements(fm.input, func(v any) bool {
		if !first {
			sb.WriteString(sep)
		}
		first = false
		sb.WriteString(vals.ToString(v))
		return true
	})
	if err != nil {
		return Empty, err
	}
	return Value{sb.String()}, nil
}

// strLengthCmd counts the runes of the input string.
func strLengthCmd(fm *Frame, args Args) (PipelineData, error) {
	s, err := stringInput(fm, args, "str length")
	if err != nil {
		return Empty, err
	}
	return Value{int64(utf8.RuneCountInString(s))}, nil
}

func strUpcaseCmd(fm *Frame, args Args) (PipelineData, error) {
	s, err := stringInput(fm, args, "str upcase")
	if err != nil {
		return Empty, err
	}
	return Value{strings.ToUpper(s)}, nil
}

func stringInput(fm *Frame, args Args, what string) (string, error) {
	v, err := Collect(fm.input)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fm.errorp(args.CallSpan, errs.TypeMismatch{
			What: "input of " + what, Valid: "string", Actual: vals.Kind(v)})
	}
	return s, nil
}
