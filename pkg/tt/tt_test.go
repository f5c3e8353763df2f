package tt

import (
	"fmt"
	"testing"
)

// testT implements the T interface and records errors.
type testT []string

func (t *testT) Helper() {}

func (t *testT) Errorf(format string, args ...any) {
	*t = append(*t, fmt.Sprintf(format, args...))
}

func add(x, y int) int { return x + y }

func divmod(x, y int) (int, int) { return x / y, x % y }

func TestPass(t *testing.T) {
	var mockT testT
	Test(&mockT, Fn("add", add), Table{
		Args(1, 2).Rets(3),
	})
	if len(mockT) != 0 {
		t.Errorf("Test errors when test passes")
	}
}

func TestMultiReturnPass(t *testing.T) {
	var mockT testT
	Test(&mockT, Fn("divmod", divmod), Table{
		Args(7, 3).Rets(2, 1),
	})
	if len(mockT) != 0 {
		t.Errorf("Test errors when test passes")
	}
}

func TestFail(t *testing.T) {
	var mockT testT
	Test(&mockT, Fn("add", add), Table{
		Args(1, 2).Rets(4),
	})
	if len(mockT) != 1 {
		t.Fatalf("Test called Errorf %d times, want once", len(mockT))
	}
	if mockT[0] != "add(1, 2) -> 3, want 4" {
		t.Errorf("Test wrote message %q", mockT[0])
	}
}

func TestAnyMatcher(t *testing.T) {
	var mockT testT
	Test(&mockT, Fn("add", add), Table{
		Args(1, 2).Rets(Any),
	})
	if len(mockT) != 0 {
		t.Errorf("Test errors with Any matcher")
	}
}
