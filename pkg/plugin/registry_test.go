package plugin

import (
	"path/filepath"
	"testing"

	"src.sylph.sh/pkg/parse"
	"src.sylph.sh/pkg/testutil"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := testutil.TempDir(t)
	reg, err := OpenRegistry(filepath.Join(dir, "plugins.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegistry(t *testing.T) {
	reg := testRegistry(t)

	cmds := []parse.NamedSignature{
		{Name: "demo double", Sig: parse.MustSignature("n: int")},
		{Name: "demo greet", Sig: parse.MustSignature("name?: string --shout (-s)")},
	}
	if err := reg.Put("/opt/plugins/demo", cmds); err != nil {
		t.Fatal(err)
	}

	got, ok, err := reg.Get("/opt/plugins/demo")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("plugin not found after Put")
	}
	if len(got) != 2 {
		t.Fatalf("got %d commands, want 2", len(got))
	}
	for i := range cmds {
		if got[i].Name != cmds[i].Name {
			t.Errorf("command %d: got name %q, want %q", i, got[i].Name, cmds[i].Name)
		}
		if got[i].Sig.String() != cmds[i].Sig.String() {
			t.Errorf("command %d: got signature %q, want %q",
				i, got[i].Sig.String(), cmds[i].Sig.String())
		}
	}
}

func TestRegistry_Missing(t *testing.T) {
	reg := testRegistry(t)
	_, ok, err := reg.Get("/nowhere")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("found a record for an unregistered path")
	}
}

func TestRegistry_PutReplaces(t *testing.T) {
	reg := testRegistry(t)
	path := "/opt/plugins/demo"
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(reg.Put(path, []parse.NamedSignature{
		{Name: "demo old", Sig: parse.MustSignature("")},
	}))
	must(reg.Put(path, []parse.NamedSignature{
		{Name: "demo new", Sig: parse.MustSignature("")},
	}))
	got, ok, err := reg.Get(path)
	must(err)
	if !ok || len(got) != 1 || got[0].Name != "demo new" {
		t.Errorf("got %v, want the replacement record", got)
	}
}

func TestRegistry_Del(t *testing.T) {
	reg := testRegistry(t)
	path := "/opt/plugins/demo"
	if err := reg.Put(path, []parse.NamedSignature{
		{Name: "demo x", Sig: parse.MustSignature("")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Del(path); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := reg.Get(path); ok {
		t.Error("record still present after Del")
	}
}
