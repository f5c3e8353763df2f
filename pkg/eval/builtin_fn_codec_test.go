package eval_test

import (
	"testing"

	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/eval/vals"
)

func TestFromJSON(t *testing.T) {
	Test(t,
		That(`'{"a": 1, "b": [true, null]}' | from json`).Puts(
			vals.MakeRecord(
				"a", int64(1),
				"b", vals.MakeList(true, nil))),
		That("'2.5' | from json").Puts(2.5),
		That(`'"text"' | from json`).Puts("text"),
		// Object field order survives decoding.
		That(`'{"z": 1, "a": 2}' | from json | to json`).
			Puts(`{"z":1,"a":2}`),
		// Concatenated documents become a stream.
		That("'1 2 3' | from json | collect").
			PutsList(int64(1), int64(2), int64(3)),
		That("'' | from json").Puts(nil),
		That("'{' | from json").Throws(AnyError, "from json"),
	)
}

func TestFromYAML(t *testing.T) {
	Test(t,
		That("'a: 1\nb: hi' | from yaml").Puts(
			vals.MakeRecord("a", int64(1), "b", "hi")),
		That("'- 1\n- 2' | from yaml").
			Puts(vals.MakeList(int64(1), int64(2))),
		// Multiple documents become a stream.
		That("'1\n---\n2\n---\n3' | from yaml | collect").
			PutsList(int64(1), int64(2), int64(3)),
		That("'' | from yaml").Puts(nil),
	)
}

func TestToJSON(t *testing.T) {
	Test(t,
		That("[1 2 3] | to json").Puts("[1,2,3]"),
		That("{a: 1, b: 'x'} | to json").Puts(`{"a":1,"b":"x"}`),
		That("null | to json").Puts("null"),
		// A stream materializes into a list before encoding.
		That("1..3 | each {|x| $x} | to json").Puts("[1,2,3]"),
		// Values with no JSON form encode as text.
		That("10kb | to json").Puts(`"10kb"`),
	)
}
