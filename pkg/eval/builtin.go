package eval

import (
	"io"

	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

// builtin constructs the declaration of one builtin command. The signature
// is written in the same syntax def uses; the parser checks arity against it
// and the call site checks argument types, so implementations can assume
// both.
func builtin(name, sig string, impl func(*Frame, Args) (PipelineData, error)) *Decl {
	signature := parse.MustSignature(sig)
	return &Decl{
		Name: name,
		Sig:  signature,
		Cmd:  &BuiltinCmd{name: name, sig: signature, impl: impl},
	}
}

func builtinDecls() []*Decl {
	var decls []*Decl
	decls = append(decls, valueCmds()...)
	decls = append(decls, streamCmds()...)
	decls = append(decls, strCmds()...)
	decls = append(decls, mathCmds()...)
	decls = append(decls, codecCmds()...)
	return decls
}

// intoStream adapts pipeline data into a pull stream of elements, so that
// stream transformers stay lazy over infinite producers. Byte streams yield
// lines; ranges yield their elements without materializing.
func intoStream(pd PipelineData) *ListStream {
	switch pd := pd.(type) {
	case emptyData:
		return ListStreamOf()
	case Value:
		switch v := pd.V.(type) {
		case nil:
			return ListStreamOf()
		case string:
			return ListStreamOf(v)
		case *vals.Range:
			return rangeStream(v)
		case vals.List:
			it := v.Iterator()
			return NewListStream(func() (any, bool, error) {
				if !it.HasElem() {
					return nil, false, nil
				}
				elem := it.Elem()
				it.Next()
				return elem, true, nil
			}, nil)
		default:
			if vals.CanIterate(v) {
				elems, err := vals.Collect(v)
				if err != nil {
					return NewListStream(func() (any, bool, error) {
						return nil, false, err
					}, nil)
				}
				return ListStreamOf(elems...)
			}
			return ListStreamOf(v)
		}
	case *ListStream:
		return pd
	case *ByteStream:
		return NewListStream(func() (any, bool, error) {
			line, err := pd.ReadLine()
			if err == io.EOF {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			return line, true, nil
		}, pd.Close)
	default:
		return ListStreamOf()
	}
}

func rangeStream(r *vals.Range) *ListStream {
	i := int64(0)
	desc := !r.Unbounded && r.To < r.From
	return NewListStream(func() (any, bool, error) {
		var v int64
		if desc {
			v = r.From - i
		} else {
			v = r.From + i
		}
		if !r.Unbounded {
			end := r.To
			if r.Exclusive {
				if desc {
					end++
				} else {
					end--
				}
			}
			if (desc && v < end) || (!desc && v > end) {
				return nil, false, nil
			}
		}
		i++
		return v, true, nil
	}, nil)
}
