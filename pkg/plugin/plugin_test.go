package plugin

import (
	"context"
	"errors"
	"net"
	"testing"

	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/eval/vals"
)

var testPlugin = Plugin{
	Name:    "demo",
	Version: "1.0.0",
	Commands: []Command{
		{
			Name:      "demo double",
			Signature: "n: int",
			Run: func(c Call) (any, error) {
				return c.Args[0].(int64) * 2, nil
			},
		},
		{
			Name:      "demo spread",
			Signature: "...values",
			RunStream: func(c Call, emit func(any) error) error {
				for _, v := range c.Args {
					if err := emit(v); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:      "demo reject",
			Signature: "",
			Run: func(c Call) (any, error) {
				return nil, &SpanError{From: 3, To: 7, Err: errors.New("rejected")}
			},
		},
		{
			Name:      "demo in",
			Signature: "",
			Run: func(c Call) (any, error) {
				return c.Input, nil
			},
		},
	},
}

// dialTestSession serves testPlugin over one end of an in-memory pipe and
// returns a connected, handshaken session over the other.
func dialTestSession(t *testing.T) *session {
	t.Helper()
	srv, cli := net.Pipe()
	go ServeConn(context.Background(), srv, testPlugin)
	s := dialSession(context.Background(), cli, nil)
	t.Cleanup(s.shutdown)
	if _, err := s.handshake(context.Background()); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	return s
}

func TestHandshake(t *testing.T) {
	srv, cli := net.Pipe()
	go ServeConn(context.Background(), srv, testPlugin)
	s := dialSession(context.Background(), cli, nil)
	defer s.shutdown()

	hs, err := s.handshake(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if hs.Name != "demo" || hs.Version != "1.0.0" {
		t.Errorf("got identity %s %s", hs.Name, hs.Version)
	}
	cmds, err := parseSpecs(hs.Commands)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 4 || cmds[0].Name != "demo double" {
		t.Errorf("got commands %v", cmds)
	}
	if cmds[0].Sig.String() != "n: int" {
		t.Errorf("got signature %q, want %q", cmds[0].Sig.String(), "n: int")
	}
}

func TestHandshake_BadProtocol(t *testing.T) {
	srv, cli := net.Pipe()
	go ServeConn(context.Background(), srv, testPlugin)
	s := dialSession(context.Background(), cli, nil)
	defer s.shutdown()

	var res HandshakeResult
	err := s.conn.Call(context.Background(), methodHandshake,
		HandshakeParams{Protocol: ProtocolName, Version: ProtocolVersion + 1}, &res)
	if err == nil {
		t.Error("want error, got nil")
	}
}

func TestCall_SingleValue(t *testing.T) {
	s := dialTestSession(t)
	pd, err := s.call(context.Background(), "demo double", []any{int64(21)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := pd.(eval.Value)
	if !ok {
		t.Fatalf("got %T, want eval.Value", pd)
	}
	if v.V != int64(42) {
		t.Errorf("got %v, want 42", v.V)
	}
}

func TestCall_Stream(t *testing.T) {
	s := dialTestSession(t)
	pd, err := s.call(context.Background(), "demo spread",
		[]any{int64(1), "two", true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	stream, ok := pd.(*eval.ListStream)
	if !ok {
		t.Fatalf("got %T, want *eval.ListStream", pd)
	}
	var got []any
	for {
		v, ok, err := stream.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	want := []any{int64(1), "two", true}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if !vals.Equal(got[i], want[i]) {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCall_Input(t *testing.T) {
	s := dialTestSession(t)
	input := vals.MakeList(int64(1), int64(2))
	pd, err := s.call(context.Background(), "demo in", nil, nil, input)
	if err != nil {
		t.Fatal(err)
	}
	if v := pd.(eval.Value); !vals.Equal(v.V, input) {
		t.Errorf("got %s", vals.ReprPlain(v.V))
	}
}

func TestCall_Error(t *testing.T) {
	s := dialTestSession(t)
	_, err := s.call(context.Background(), "demo reject", nil, nil, nil)
	callErr, ok := err.(*CallError)
	if !ok {
		t.Fatalf("got %T %v, want *CallError", err, err)
	}
	if callErr.Message != "rejected" {
		t.Errorf("got message %q", callErr.Message)
	}
	if callErr.Span == nil || callErr.Span.From != 3 || callErr.Span.To != 7 {
		t.Errorf("got span %v, want 3..7", callErr.Span)
	}
}

func TestCall_NoSuchCommand(t *testing.T) {
	s := dialTestSession(t)
	_, err := s.call(context.Background(), "demo missing", nil, nil, nil)
	if err == nil {
		t.Error("want error, got nil")
	}
}
