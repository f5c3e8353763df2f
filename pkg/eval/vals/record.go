package vals

import (
	"src.elv.sh/pkg/persistent/hash"
)

// Record is an ordered mapping from field names to values. Field names are
// unique; insertion order is preserved. A Record is immutable: Assoc and
// Dissoc return modified copies.
type Record struct {
	keys   []string
	values map[string]any
}

// EmptyRecord is a record with no fields.
var EmptyRecord = &Record{}

// MakeRecord creates a record from alternating name-value pairs.
func MakeRecord(pairs ...any) *Record {
	r := EmptyRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		r = r.Assoc(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.keys) }

// Keys returns the field names in insertion order. The returned slice must
// not be modified.
func (r *Record) Keys() []string { return r.keys }

// Index returns the value of the named field and whether it exists.
func (r *Record) Index(k any) (any, bool) {
	name, ok := k.(string)
	if !ok {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}

// Assoc returns a copy of the record with the named field set. An existing
// field keeps its position; a new field is appended.
func (r *Record) Assoc(name string, value any) *Record {
	values := make(map[string]any, len(r.values)+1)
	for k, v := range r.values {
		values[k] = v
	}
	values[name] = value
	keys := r.keys
	if _, existed := r.values[name]; !existed {
		keys = make([]string, len(r.keys)+1)
		copy(keys, r.keys)
		keys[len(r.keys)] = name
	}
	return &Record{keys, values}
}

// Dissoc returns a copy of the record without the named field.
func (r *Record) Dissoc(name string) *Record {
	if _, ok := r.values[name]; !ok {
		return r
	}
	keys := make([]string, 0, len(r.keys)-1)
	values := make(map[string]any, len(r.values)-1)
	for _, k := range r.keys {
		if k != name {
			keys = append(keys, k)
			values[k] = r.values[k]
		}
	}
	return &Record{keys, values}
}

// Kind returns "record".
func (*Record) Kind() string { return "record" }

// Equal compares the receiver to another record, field by field in order.
func (r *Record) Equal(other any) bool {
	q, ok := other.(*Record)
	if !ok || len(r.keys) != len(q.keys) {
		return false
	}
	for i, k := range r.keys {
		if q.keys[i] != k || !Equal(r.values[k], q.values[k]) {
			return false
		}
	}
	return true
}

// Hash returns the hash of the record.
func (r *Record) Hash() uint32 {
	h := hash.DJBInit
	for _, k := range r.keys {
		h = hash.DJBCombine(h, hash.String(k))
		h = hash.DJBCombine(h, Hash(r.values[k]))
	}
	return h
}

// Repr returns the record literal syntax.
func (r *Record) Repr(indent int) string {
	b := NewListReprBuilder(indent)
	b.Open, b.Close = "{", "}"
	if len(r.keys) == 0 {
		return "{}"
	}
	for _, k := range r.keys {
		b.WriteElem(reprRecordKey(k) + ": " + Repr(r.values[k], indent+1))
	}
	return b.String()
}
