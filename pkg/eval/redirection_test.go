package eval_test

import (
	"os"
	"testing"

	. "src.sylph.sh/pkg/eval/evaltest"
	"src.sylph.sh/pkg/testutil"
)

func TestStdoutRedir(t *testing.T) {
	testutil.InTempDir(t)
	Test(t,
		That("echo 'hi' o> out.txt").
			Passes(func(t *testing.T) { checkFileContent(t, "out.txt", "hi\n") }),
		// o>> appends, o> truncates.
		That("echo 'a' o> f.txt; echo 'b' o>> f.txt").
			Passes(func(t *testing.T) { checkFileContent(t, "f.txt", "a\nb\n") }),
		That("echo 'x' o> g.txt; echo 'y' o> g.txt").
			Passes(func(t *testing.T) { checkFileContent(t, "g.txt", "y\n") }),
		// A redirected statement produces no pipeline output.
		That("echo 'z' o> h.txt").Puts(nil),
	)
}

func checkFileContent(t *testing.T, name, want string) {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	if string(b) != want {
		t.Errorf("%s contains %q, want %q", name, b, want)
	}
}
