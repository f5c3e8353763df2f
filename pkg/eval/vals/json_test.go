package vals

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func decodeOneJSON(t *testing.T, src string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	v, err := DecodeJSON(dec)
	if err != nil {
		t.Fatalf("DecodeJSON(%q): %v", src, err)
	}
	return v
}

func TestDecodeJSON_PreservesObjectOrder(t *testing.T) {
	v := decodeOneJSON(t, `{"z": 1, "a": [true, null, 1.5]}`)
	r, ok := v.(*Record)
	if !ok {
		t.Fatalf("got %T, want *Record", v)
	}
	if got := r.Keys(); got[0] != "z" || got[1] != "a" {
		t.Errorf("keys %v, want [z a]", got)
	}
	want := MakeRecord("z", int64(1), "a", MakeList(true, nil, 1.5))
	if !Equal(v, want) {
		t.Errorf("got %s, want %s", ReprPlain(v), ReprPlain(want))
	}
}

func TestEncodeJSON_RoundTrip(t *testing.T) {
	orig := MakeRecord(
		"name", "sylph",
		"tags", MakeList("a", "b"),
		"size", int64(3))
	s, err := EncodeJSON(orig)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if !Equal(decodeOneJSON(t, s), orig) {
		t.Errorf("round trip through %q lost structure", s)
	}
}

func TestFromYAML(t *testing.T) {
	var n yaml.Node
	src := "z: 1\na:\n  - true\n  - text\n"
	if err := yaml.Unmarshal([]byte(src), &n); err != nil {
		t.Fatal(err)
	}
	v, err := FromYAML(&n)
	if err != nil {
		t.Fatal(err)
	}
	r, ok := v.(*Record)
	if !ok {
		t.Fatalf("got %T, want *Record", v)
	}
	if got := r.Keys(); got[0] != "z" || got[1] != "a" {
		t.Errorf("keys %v, want [z a]", got)
	}
	want := MakeRecord("z", int64(1), "a", MakeList(true, "text"))
	if !Equal(v, want) {
		t.Errorf("got %s, want %s", ReprPlain(v), ReprPlain(want))
	}
}

func TestTableString(t *testing.T) {
	table := MakeList(
		MakeRecord("name", "a", "size", int64(10)),
		MakeRecord("name", "bee", "size", int64(2)))
	got := TableString(table)
	want := "name  size\na     10\nbee   2"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
