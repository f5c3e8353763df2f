package eval

import (
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
)

func codecCmds() []*Decl {
	return []*Decl{
		builtin("from json", "", fromJSONCmd),
		builtin("from yaml", "", fromYAMLCmd),
		builtin("to json", "", toJSONCmd),
	}
}

// fromJSONCmd decodes JSON from the input bytes: a single document becomes
// its value, a concatenated stream of documents becomes a value stream,
// decoded document by document as the consumer asks.
func fromJSONCmd(fm *Frame, args Args) (PipelineData, error) {
	r, err := byteInput(fm, args, "from json")
	if err != nil {
		return Empty, err
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	first, err := vals.DecodeJSON(dec)
	if err == io.EOF {
		fm.input.Close()
		return Empty, nil
	}
	if err != nil {
		fm.input.Close()
		return Empty, fm.errorp(args.CallSpan, err)
	}
	if !dec.More() {
		fm.input.Close()
		return Value{first}, nil
	}
	sentFirst := false
	return NewListStream(func() (any, bool, error) {
		if !sentFirst {
			sentFirst = true
			return first, true, nil
		}
		v, err := vals.DecodeJSON(dec)
		if err == io.EOF {
			return nil, false, nil
		}
		return v, err == nil, err
	}, fm.input.Close), nil
}

// fromYAMLCmd decodes YAML from the input bytes, document by document.
func fromYAMLCmd(fm *Frame, args Args) (PipelineData, error) {
	r, err := byteInput(fm, args, "from yaml")
	if err != nil {
		return Empty, err
	}
	dec := yaml.NewDecoder(r)
	next := func() (any, error) {
		var n yaml.Node
		if err := dec.Decode(&n); err != nil {
			return nil, err
		}
		return vals.FromYAML(&n)
	}
	first, err := next()
	if err == io.EOF {
		fm.input.Close()
		return Empty, nil
	}
	if err != nil {
		fm.input.Close()
		return Empty, fm.errorp(args.CallSpan, err)
	}
	second, err := next()
	if err == io.EOF {
		fm.input.Close()
		return Value{first}, nil
	}
	if err != nil {
		fm.input.Close()
		return Empty, fm.errorp(args.CallSpan, err)
	}
	pending := []any{first, second}
	return NewListStream(func() (any, bool, error) {
		if len(pending) > 0 {
			v := pending[0]
			pending = pending[1:]
			return v, true, nil
		}
		v, err := next()
		if err == io.EOF {
			return nil, false, nil
		}
		return v, err == nil, err
	}, fm.input.Close), nil
}

// toJSONCmd encodes the input value as JSON text.
func toJSONCmd(fm *Frame, args Args) (PipelineData, error) {
	v, err := Collect(fm.input)
	if err != nil {
		return Empty, err
	}
	s, err := vals.EncodeJSON(v)
	if err != nil {
		return Empty, fm.errorp(args.CallSpan, err)
	}
	return Value{s}, nil
}

// byteInput exposes the input as a reader of raw bytes: a byte stream
// directly, a string value as its contents.
func byteInput(fm *Frame, args Args, what string) (io.Reader, error) {
	switch in := fm.input.(type) {
	case *ByteStream:
		return in, nil
	case Value:
		if s, ok := in.V.(string); ok {
			return strings.NewReader(s), nil
		}
		return nil, fm.errorp(args.CallSpan, errs.TypeMismatch{
			What: "input of " + what, Valid: "string or byte stream",
			Actual: vals.Kind(in.V)})
	case emptyData:
		return strings.NewReader(""), nil
	default:
		return nil, fm.errorp(args.CallSpan, errs.TypeMismatch{
			What: "input of " + what, Valid: "string or byte stream",
			Actual: "value stream"})
	}
}
