package plugin

import (
	"testing"

	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/parse"
)

func TestLoadRegistered(t *testing.T) {
	reg := testRegistry(t)
	err := reg.Put("/opt/plugins/demo", []parse.NamedSignature{
		{Name: "demo double", Sig: parse.MustSignature("n: int")},
	})
	if err != nil {
		t.Fatal(err)
	}

	st := eval.NewEngineState()
	Activate(st, reg)
	if err := LoadRegistered(st, reg); err != nil {
		t.Fatal(err)
	}

	// The command resolves from the registry record alone; no plugin binary
	// exists at the recorded path.
	spec, n := st.ResolveCmd([]string{"demo", "double", "3"})
	if spec == nil || n != 2 {
		t.Fatalf("demo double does not resolve; got n=%d", n)
	}
	if got := spec.Signature().String(); got != "n: int" {
		t.Errorf("got signature %q, want %q", got, "n: int")
	}
}
