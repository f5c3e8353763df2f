package plugin

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"src.sylph.sh/pkg/eval/vals"
)

// WireValue is the tagged JSON form of a sylph value. Scalars carry their
// canonical text in V; lists carry Elems; records carry Pairs, preserving
// field order.
type WireValue struct {
	Kind  string      `json:"k"`
	V     string      `json:"v,omitempty"`
	Elems []WireValue `json:"elems,omitempty"`
	Pairs []WirePair  `json:"pairs,omitempty"`
}

// WirePair is one record field on the wire.
type WirePair struct {
	Name  string    `json:"name"`
	Value WireValue `json:"value"`
}

// Marshal converts a sylph value to its wire form. Ranges are materialized
// into lists; values with no wire form, like closures, are an error.
func Marshal(v any) (WireValue, error) {
	switch v := v.(type) {
	case nil:
		return WireValue{Kind: "null"}, nil
	case bool:
		return WireValue{Kind: "bool", V: strconv.FormatBool(v)}, nil
	case int64:
		return WireValue{Kind: "int", V: strconv.FormatInt(v, 10)}, nil
	case float64:
		return WireValue{Kind: "float", V: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case string:
		return WireValue{Kind: "string", V: v}, nil
	case []byte:
		return WireValue{Kind: "binary", V: base64.StdEncoding.EncodeToString(v)}, nil
	case time.Time:
		return WireValue{Kind: "date", V: v.Format(time.RFC3339Nano)}, nil
	case time.Duration:
		return WireValue{Kind: "duration", V: strconv.FormatInt(int64(v), 10)}, nil
	case vals.Filesize:
		return WireValue{Kind: "filesize", V: strconv.FormatInt(int64(v), 10)}, nil
	case vals.List:
		elems := make([]WireValue, 0, v.Len())
		for it := v.Iterator(); it.HasElem(); it.Next() {
			w, err := Marshal(it.Elem())
			if err != nil {
				return WireValue{}, err
			}
			elems = append(elems, w)
		}
		return WireValue{Kind: "list", Elems: elems}, nil
	case *vals.Record:
		pairs := make([]WirePair, 0, v.Len())
		for _, k := range v.Keys() {
			fv, _ := v.Index(k)
			w, err := Marshal(fv)
			if err != nil {
				return WireValue{}, err
			}
			pairs = append(pairs, WirePair{Name: k, Value: w})
		}
		return WireValue{Kind: "record", Pairs: pairs}, nil
	case *vals.Range:
		if v.Len() < 0 {
			return WireValue{}, fmt.Errorf("unbounded range has no wire form")
		}
		l, err := vals.Collect(v)
		if err != nil {
			return WireValue{}, err
		}
		return Marshal(vals.MakeList(l...))
	default:
		return WireValue{}, fmt.Errorf("%s has no wire form", vals.Kind(v))
	}
}

// Unmarshal converts a wire value back to a sylph value.
func Unmarshal(w WireValue) (any, error) {
	switch w.Kind {
	case "null":
		return nil, nil
	case "bool":
		return strconv.ParseBool(w.V)
	case "int":
		return strconv.ParseInt(w.V, 10, 64)
	case "float":
		return strconv.ParseFloat(w.V, 64)
	case "string":
		return w.V, nil
	case "binary":
		return base64.StdEncoding.DecodeString(w.V)
	case "date":
		return time.Parse(time.RFC3339Nano, w.V)
	case "duration":
		n, err := strconv.ParseInt(w.V, 10, 64)
		return time.Duration(n), err
	case "filesize":
		n, err := strconv.ParseInt(w.V, 10, 64)
		return vals.Filesize(n), err
	case "list":
		l := vals.EmptyList
		for _, elem := range w.Elems {
			v, err := Unmarshal(elem)
			if err != nil {
				return nil, err
			}
			l = l.Conj(v)
		}
		return l, nil
	case "record":
		r := vals.EmptyRecord
		for _, pair := range w.Pairs {
			v, err := Unmarshal(pair.Value)
			if err != nil {
				return nil, err
			}
			r = r.Assoc(pair.Name, v)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown wire kind %q", w.Kind)
	}
}

func marshalSlice(vs []any) ([]WireValue, error) {
	ws := make([]WireValue, len(vs))
	for i, v := range vs {
		w, err := Marshal(v)
		if err != nil {
			return nil, err
		}
		ws[i] = w
	}
	return ws, nil
}

func unmarshalSlice(ws []WireValue) ([]any, error) {
	vs := make([]any, len(ws))
	for i, w := range ws {
		v, err := Unmarshal(w)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}
