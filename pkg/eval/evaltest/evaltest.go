// Package evaltest provides a framework for testing sylph script.
//
// The entry point for the framework is the Test function, which accepts a
// *testing.T and any number of test cases. Test cases are constructed with
// the That function, followed by method calls that add expectations:
//
//	Test(t,
//		That("echo x").Puts("x"),
//		That("print x").Prints("x\n"))
package evaltest

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

// Case is a test case that can be used in Test.
type Case struct {
	codes  []string
	setup  func(ev *eval.Evaler)
	verify func(t *testing.T)
	want   result
}

type result struct {
	Value     any
	hasValue  bool
	BytesOut  []byte
	StderrOut []byte

	ParseError error
	Exception  error
}

// That returns a new Case with the specified source code. Multiple arguments
// are joined with newlines. To specify pieces of code that are evaluated
// separately on the same Evaler, use the Then method.
func That(lines ...string) Case {
	return Case{codes: []string{strings.Join(lines, "\n")}}
}

// Then returns a new Case that evaluates the given code in addition, in the
// same session.
func (c Case) Then(lines ...string) Case {
	c.codes = append(c.codes, strings.Join(lines, "\n"))
	return c
}

// WithSetup returns a new Case with the given setup function executed on the
// Evaler before the code is evaluated.
func (c Case) WithSetup(f func(*eval.Evaler)) Case {
	c.setup = f
	return c
}

// DoesNothing returns c unchanged. It marks tests that only check for the
// absence of errors and output.
func (c Case) DoesNothing() Case {
	return c
}

// Passes returns an altered Case that runs an additional verification
// function.
func (c Case) Passes(f func(t *testing.T)) Case {
	c.verify = f
	return c
}

// Puts returns an altered Case that requires the last piece of code to
// produce the given value as its collected pipeline output.
func (c Case) Puts(v any) Case {
	c.want.Value = v
	c.want.hasValue = true
	return c
}

// PutsList is Puts with the arguments collected into a list, for stream
// results.
func (c Case) PutsList(vs ...any) Case {
	return c.Puts(vals.MakeList(vs...))
}

// Prints returns an altered Case that requires the evaluation to write the
// given text to the session's standard output.
func (c Case) Prints(s string) Case {
	c.want.BytesOut = []byte(s)
	return c
}

// PrintsStderrWith returns an altered Case that requires the stderr output
// to contain the given text.
func (c Case) PrintsStderrWith(s string) Case {
	c.want.StderrOut = []byte(s)
	return c
}

// Throws returns an altered Case that requires the evaluation to throw an
// exception with the given reason. The reason supports matcher values
// constructed by functions like ErrorWithMessage.
//
// If at least one stack string is given, the exception must also have a
// stack trace matching the given source fragments, innermost frame first.
func (c Case) Throws(reason error, stacks ...string) Case {
	c.want.Exception = exc{reason, stacks}
	return c
}

// DoesNotParse returns an altered Case that requires the code to fail
// parsing with exactly the given error messages, in source order. With no
// arguments any parse error matches.
func (c Case) DoesNotParse(msgs ...string) Case {
	if len(msgs) == 0 {
		c.want.ParseError = AnyParseError
	} else {
		c.want.ParseError = parseError{msgs}
	}
	return c
}

// Test runs test cases. A new Evaler is created for each test case.
func Test(t *testing.T, tests ...Case) {
	t.Helper()
	TestWithSetup(t, func(*eval.Evaler) {}, tests...)
}

// TestWithSetup runs test cases. For each test case, a new Evaler is created
// with NewEvaler and passed to the setup function.
func TestWithSetup(t *testing.T, setup func(*eval.Evaler), tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(strings.Join(tc.codes, "\n"), func(t *testing.T) {
			t.Helper()
			ev := eval.NewEvaler()
			setup(ev)
			if tc.setup != nil {
				tc.setup(ev)
			}

			r := evalAndCollect(t, ev, tc.codes)

			if tc.verify != nil {
				tc.verify(t)
			}
			if tc.want.hasValue && !match(r.Value, tc.want.Value) {
				t.Errorf("got value %s, want %s",
					vals.Repr(r.Value, vals.NoPretty), vals.Repr(tc.want.Value, vals.NoPretty))
			}
			if tc.want.BytesOut != nil && !bytes.Equal(tc.want.BytesOut, r.BytesOut) {
				t.Errorf("got bytes out %q, want %q", r.BytesOut, tc.want.BytesOut)
			}
			if tc.want.StderrOut == nil {
				if len(r.StderrOut) > 0 {
					t.Errorf("got stderr out %q, want empty", r.StderrOut)
				}
			} else if !bytes.Contains(r.StderrOut, tc.want.StderrOut) {
				t.Errorf("got stderr out %q, want output containing %q",
					r.StderrOut, tc.want.StderrOut)
			}
			if !matchErr(tc.want.ParseError, r.ParseError) {
				t.Errorf("got parse error %v, want %v", r.ParseError, tc.want.ParseError)
			}
			if !matchErr(tc.want.Exception, r.Exception) {
				t.Errorf("unexpected exception")
				if exc, ok := r.Exception.(*eval.Exception); ok {
					t.Logf("got: %T: %v", exc.Reason, exc)
					t.Logf("stack trace: %#v", stackTexts(exc.Traceback))
				} else {
					t.Logf("got: %T: %v", r.Exception, r.Exception)
				}
				t.Errorf("want: %v", tc.want.Exception)
			}
		})
	}
}

func evalAndCollect(t *testing.T, ev *eval.Evaler, texts []string) result {
	t.Helper()
	var r result

	stdout, collectStdout := capturePipe(t)
	stderr, collectStderr := capturePipe(t)
	ev.Files[1] = stdout
	ev.Files[2] = stderr

	for i, text := range texts {
		out, err := ev.Eval(parse.Source{Name: "[test]", Code: text}, eval.EvalCfg{})
		if parse.UnpackErrors(err) != nil {
			r.ParseError = err
			continue
		}
		if err != nil {
			r.Exception = err
			continue
		}
		if i == len(texts)-1 {
			v, err := eval.Collect(out)
			if err != nil {
				r.Exception = err
			} else {
				r.Value, r.hasValue = v, true
			}
		} else {
			out.Close()
		}
	}

	r.BytesOut = collectStdout()
	r.StderrOut = collectStderr()
	return r
}

// capturePipe redirects one of the session's files to a pipe and returns a
// function that closes the write end and collects everything written.
func capturePipe(t *testing.T) (*os.File, func() []byte) {
	t.Helper()
	rf, wf, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(rf)
		rf.Close()
		done <- b
	}()
	return wf, func() []byte {
		wf.Close()
		return <-done
	}
}

func match(got, want any) bool {
	if matcher, ok := want.(ValueMatcher); ok {
		return matcher.matchValue(got)
	}
	return vals.Equal(got, want)
}

func matchErr(want, got error) bool {
	if want == nil {
		return got == nil
	}
	if matcher, ok := want.(errorMatcher); ok {
		return matcher.matchError(got)
	}
	return reflect.DeepEqual(want, got)
}

func stackTexts(tb *eval.StackTrace) []string {
	texts := []string{}
	for tb != nil {
		ctx := tb.Head
		texts = append(texts, ctx.Source[ctx.From:ctx.To])
		tb = tb.Next
	}
	return texts
}
