package parse

import "testing"

func FuzzParse(f *testing.F) {
	f.Add("echo hello | sort --reverse | first 3")
	f.Add("def f [x: int y? ...rest --verbose (-v)] { print $x }")
	f.Add(`echo $"hi (1 + 2)" {a: 1, b: [2]} {|x| $x > 2 }`)
	f.Add("module m { export def hi { print hi } }; use m; m hi")
	f.Add("let x = 'a' ++ $x; echo - -5 1..<9")
	f.Fuzz(func(t *testing.T, code string) {
		tree, err := Parse(SourceForTest(code), Config{DeclTable: newTestTable()})
		for _, e := range UnpackErrors(err) {
			if e.Context.From < 0 || e.Context.To > len(code) || e.Context.From > e.Context.To {
				t.Errorf("error %q has range [%d, %d) out of bounds for source %q",
					e.Message, e.Context.From, e.Context.To, code)
			}
		}
		if err != nil {
			return
		}
		// An error-free tree renders to a fixed point.
		rendered := Unparse(tree.Root)
		tree2, err := Parse(SourceForTest(rendered), Config{DeclTable: newTestTable()})
		if err != nil {
			t.Fatalf("rendering %q of %q does not reparse: %v", rendered, code, err)
		}
		if again := Unparse(tree2.Root); again != rendered {
			t.Errorf("rendering of %q is not a fixed point: %q, then %q",
				code, rendered, again)
		}
	})
}
