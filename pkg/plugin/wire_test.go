package plugin

import (
	"strings"
	"testing"
	"time"

	"src.sylph.sh/pkg/eval/vals"
)

var roundTripTests = []any{
	nil,
	true,
	false,
	int64(42),
	int64(-9223372036854775808),
	3.14,
	"hello",
	"",
	"two\nlines",
	[]byte{0, 1, 255},
	time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.UTC),
	1500 * time.Millisecond,
	vals.Filesize(10000),
	vals.EmptyList,
	vals.MakeList(int64(1), "two", vals.MakeList(true)),
	vals.EmptyRecord,
	vals.MakeRecord("z", int64(1), "a", vals.MakeRecord("nested", nil)),
}

func TestRoundTrip(t *testing.T) {
	for _, v := range roundTripTests {
		w, err := Marshal(v)
		if err != nil {
			t.Errorf("Marshal(%s) -> error %v", vals.ReprPlain(v), err)
			continue
		}
		got, err := Unmarshal(w)
		if err != nil {
			t.Errorf("Unmarshal(Marshal(%s)) -> error %v", vals.ReprPlain(v), err)
			continue
		}
		if !vals.Equal(got, v) {
			t.Errorf("round trip of %s -> %s", vals.ReprPlain(v), vals.ReprPlain(got))
		}
	}
}

func TestRoundTrip_RecordKeepsFieldOrder(t *testing.T) {
	v, err := Unmarshal(mustMarshal(t, vals.MakeRecord("z", int64(1), "a", int64(2))))
	if err != nil {
		t.Fatal(err)
	}
	gotKeys := v.(*vals.Record).Keys()
	wantKeys := []string{"z", "a"}
	if len(gotKeys) != 2 || gotKeys[0] != wantKeys[0] || gotKeys[1] != wantKeys[1] {
		t.Errorf("got keys %v, want %v", gotKeys, wantKeys)
	}
}

func TestMarshal_RangeBecomesList(t *testing.T) {
	w := mustMarshal(t, &vals.Range{From: 1, To: 4})
	v, err := Unmarshal(w)
	if err != nil {
		t.Fatal(err)
	}
	want := vals.MakeList(int64(1), int64(2), int64(3), int64(4))
	if !vals.Equal(v, want) {
		t.Errorf("got %s, want %s", vals.ReprPlain(v), vals.ReprPlain(want))
	}
}

func TestMarshal_UnboundedRangeErrors(t *testing.T) {
	_, err := Marshal(&vals.Range{From: 1, Unbounded: true})
	if err == nil {
		t.Error("want error, got nil")
	}
}

func TestMarshal_NoWireForm(t *testing.T) {
	_, err := Marshal(struct{}{})
	if err == nil || !strings.Contains(err.Error(), "no wire form") {
		t.Errorf("want a no wire form error, got %v", err)
	}
}

func TestUnmarshal_UnknownKind(t *testing.T) {
	_, err := Unmarshal(WireValue{Kind: "frob"})
	if err == nil {
		t.Error("want error, got nil")
	}
}

func mustMarshal(t *testing.T, v any) WireValue {
	t.Helper()
	w, err := Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return w
}
