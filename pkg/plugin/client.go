package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/parse"
)

// Fetch spawns the plugin binary at path, performs the handshake and returns
// the commands it declares. The process exits when Fetch returns.
func Fetch(path string) ([]parse.NamedSignature, error) {
	s, err := spawn(path)
	if err != nil {
		return nil, err
	}
	defer s.shutdown()
	hs, err := s.handshake(context.Background())
	if err != nil {
		return nil, err
	}
	return parseSpecs(hs.Commands)
}

// CallCommand spawns the plugin binary at path, performs the handshake and
// invokes one command. Streamed output is fully received before it returns;
// the process exits once the call completes. It has the signature of
// eval.PluginCaller.
func CallCommand(path, name string, args []any, flags map[string]any, input any) (eval.PipelineData, error) {
	s, err := spawn(path)
	if err != nil {
		return nil, err
	}
	defer s.shutdown()
	ctx := context.Background()
	if _, err := s.handshake(ctx); err != nil {
		return nil, err
	}
	return s.call(ctx, name, args, flags, input)
}

// parseSpecs converts wire command specs, whose signatures use source syntax,
// into parsed signatures.
func parseSpecs(specs []CommandSpec) ([]parse.NamedSignature, error) {
	cmds := make([]parse.NamedSignature, len(specs))
	for i, spec := range specs {
		sig, err := parse.ParseSignature(spec.Signature)
		if err != nil {
			return nil, fmt.Errorf("command %s: %w", spec.Name, err)
		}
		cmds[i] = parse.NamedSignature{Name: spec.Name, Sig: sig}
	}
	return cmds, nil
}

// session is one live connection to a plugin, either a spawned process or an
// in-memory pipe.
type session struct {
	conn *jsonrpc2.Conn
	// close tears down the transport underneath the connection.
	close func()

	mu     sync.Mutex
	chunks []WireValue
}

// dialSession establishes the JSON-RPC connection over rwc. The caller still
// needs to perform the handshake.
func dialSession(ctx context.Context, rwc io.ReadWriteCloser, close func()) *session {
	s := &session{close: close}
	s.conn = jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(s.handle))
	return s
}

// spawn starts the plugin binary and connects to it over its standard input
// and output. Its standard error passes through to the engine's.
func spawn(path string) (*session, error) {
	cmd := exec.Command(path)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn plugin %s: %w", path, err)
	}
	rwc := pipeRWC{ReadCloser: stdout, WriteCloser: stdin}
	return dialSession(context.Background(), rwc, func() {
		cmd.Process.Kill()
		cmd.Wait()
	}), nil
}

func (s *session) shutdown() {
	s.conn.Close()
	if s.close != nil {
		s.close()
	}
}

// handle receives stream notifications from the plugin. Only one call is in
// flight per session, so chunks need no correlation beyond arrival order.
func (s *session) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if req.Method != methodStream || !req.Notif {
		return nil, errMethodNotFound
	}
	var chunk StreamChunk
	if req.Params == nil || json.Unmarshal(*req.Params, &chunk) != nil {
		return nil, errInvalidParams
	}
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk.Chunk...)
	s.mu.Unlock()
	return nil, nil
}

func (s *session) handshake(ctx context.Context) (HandshakeResult, error) {
	var res HandshakeResult
	err := s.conn.Call(ctx, methodHandshake,
		HandshakeParams{Protocol: ProtocolName, Version: ProtocolVersion}, &res)
	return res, err
}

func (s *session) call(ctx context.Context, name string, args []any, flags map[string]any, input any) (eval.PipelineData, error) {
	params, err := encodeCall(name, args, flags, input)
	if err != nil {
		return nil, err
	}
	var res CallResult
	if err := s.conn.Call(ctx, methodCall, params, &res); err != nil {
		return nil, decodeCallError(err)
	}
	if res.Stream {
		// All chunk notifications precede the response on the wire and are
		// dispatched in order, so the buffer is complete by now. Values still
		// decode one at a time as the stream is pulled.
		s.mu.Lock()
		chunks := s.chunks
		s.chunks = nil
		s.mu.Unlock()
		i := 0
		return eval.NewListStream(func() (any, bool, error) {
			if i >= len(chunks) {
				return nil, false, nil
			}
			v, err := Unmarshal(chunks[i])
			i++
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		}, nil), nil
	}
	if res.Value == nil {
		return eval.Empty, nil
	}
	v, err := Unmarshal(*res.Value)
	if err != nil {
		return nil, err
	}
	return eval.Value{V: v}, nil
}

func encodeCall(name string, args []any, flags map[string]any, input any) (CallParams, error) {
	wireArgs, err := marshalSlice(args)
	if err != nil {
		return CallParams{}, err
	}
	var wireFlags map[string]WireValue
	if len(flags) > 0 {
		wireFlags = make(map[string]WireValue, len(flags))
		for name, v := range flags {
			w, err := Marshal(v)
			if err != nil {
				return CallParams{}, err
			}
			wireFlags[name] = w
		}
	}
	var wireInput *WireValue
	if input != nil {
		w, err := Marshal(input)
		if err != nil {
			return CallParams{}, err
		}
		wireInput = &w
	}
	return CallParams{Name: name, Args: wireArgs, Flags: wireFlags, Input: wireInput}, nil
}

// CallError is an error reported by a plugin command, optionally attributed
// to a byte span of the call.
type CallError struct {
	Message string
	Span    *ErrorData
}

func (e *CallError) Error() string { return e.Message }

func decodeCallError(err error) error {
	rpcErr, ok := err.(*jsonrpc2.Error)
	if !ok {
		return err
	}
	callErr := &CallError{Message: rpcErr.Message}
	if rpcErr.Data != nil {
		var span ErrorData
		if json.Unmarshal(*rpcErr.Data, &span) == nil {
			callErr.Span = &span
		}
	}
	return callErr
}

// pipeRWC joins the two halves of a process's pipes into one connection.
type pipeRWC struct {
	io.ReadCloser
	io.WriteCloser
}

func (p pipeRWC) Read(b []byte) (int, error)  { return p.ReadCloser.Read(b) }
func (p pipeRWC) Write(b []byte) (int, error) { return p.WriteCloser.Write(b) }

func (p pipeRWC) Close() error {
	err := p.WriteCloser.Close()
	if err2 := p.ReadCloser.Close(); err == nil {
		err = err2
	}
	return err
}
