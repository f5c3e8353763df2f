package vals

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON decodes the next JSON value from the decoder into a sylph
// value. Objects decode to records with their field order preserved, which
// is why this reads the token stream instead of letting encoding/json build
// a map. The decoder must have UseNumber set.
func DecodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch tok := tok.(type) {
	case nil:
		return nil, nil
	case bool:
		return tok, nil
	case string:
		return tok, nil
	case json.Number:
		if i, err := tok.Int64(); err == nil {
			return i, nil
		}
		f, err := tok.Float64()
		return f, err
	case json.Delim:
		switch tok {
		case '[':
			l := EmptyList
			for dec.More() {
				t, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := valueFromToken(dec, t)
				if err != nil {
					return nil, err
				}
				l = l.Conj(v)
			}
			_, err := dec.Token() // ]
			return l, err
		case '{':
			r := EmptyRecord
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("json object key is %v, not a string", kt)
				}
				vt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := valueFromToken(dec, vt)
				if err != nil {
					return nil, err
				}
				r = r.Assoc(k, v)
			}
			_, err := dec.Token() // }
			return r, err
		}
	}
	return nil, fmt.Errorf("unexpected json token %v", tok)
}

// EncodeJSON encodes a sylph value as JSON, preserving record field order.
// Values with no JSON equivalent (dates, durations, filesizes, binary)
// encode as their plain-text form; binary data is base64.
func EncodeJSON(v any) (string, error) {
	var sb strings.Builder
	err := encodeJSON(&sb, v)
	return sb.String(), err
}

func encodeJSON(sb *strings.Builder, v any) error {
	switch v := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool, int64, float64, string:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		sb.Write(b)
	case []byte:
		return encodeJSON(sb, base64.StdEncoding.EncodeToString(v))
	case List:
		sb.WriteByte('[')
		first := true
		for it := v.Iterator(); it.HasElem(); it.Next() {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			if err := encodeJSON(sb, it.Elem()); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *Record:
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(kb)
			sb.WriteByte(':')
			fv, _ := v.Index(k)
			if err := encodeJSON(sb, fv); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case *Range:
		l, err := Collect(v)
		if err != nil {
			return err
		}
		return encodeJSON(sb, MakeList(l...))
	default:
		return encodeJSON(sb, ToString(v))
	}
	return nil
}
