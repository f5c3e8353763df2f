package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

// Plugin describes the plugin side of the protocol: an identity and the
// commands it serves.
type Plugin struct {
	Name     string
	Version  string
	Commands []Command
}

// Command is one command served by a plugin. Exactly one of Run and RunStream
// should be set; RunStream wins when both are.
type Command struct {
	Name string
	// Signature uses the source syntax of command signatures, like
	// "n: int --verbose (-v)".
	Signature string
	// Run produces the command's single output value.
	Run func(c Call) (any, error)
	// RunStream produces the command's output incrementally: each emit
	// delivers one value to the engine ahead of the call's response.
	RunStream func(c Call, emit func(any) error) error
}

// Call carries the decoded arguments of one invocation.
type Call struct {
	Args  []any
	Flags map[string]any
	// Input is the collected pipeline input, or nil when the pipeline was
	// empty.
	Input any
}

// SpanError attributes a command error to a byte span, which the engine
// surfaces in its diagnostics.
type SpanError struct {
	From, To int
	Err      error
}

func (e *SpanError) Error() string { return e.Err.Error() }
func (e *SpanError) Unwrap() error { return e.Err }

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

// Serve runs the plugin protocol over standard input and output, returning
// when the engine disconnects. It is the main loop of a plugin binary.
func Serve(p Plugin) {
	ServeConn(context.Background(), stdio{}, p)
}

// ServeConn runs the plugin protocol over an arbitrary connection.
func ServeConn(ctx context.Context, rwc io.ReadWriteCloser, p Plugin) {
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		serveHandler(p))
	<-conn.DisconnectNotify()
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		os.Stdout.Close()
		return err
	}
	return os.Stdout.Close()
}

func serveHandler(p Plugin) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		switch req.Method {
		case methodHandshake:
			var params HandshakeParams
			if req.Params == nil || json.Unmarshal(*req.Params, &params) != nil {
				return nil, errInvalidParams
			}
			if params.Protocol != ProtocolName || params.Version != ProtocolVersion {
				return nil, &jsonrpc2.Error{
					Code: jsonrpc2.CodeInvalidRequest,
					Message: fmt.Sprintf("unsupported protocol %s version %d",
						params.Protocol, params.Version),
				}
			}
			specs := make([]CommandSpec, len(p.Commands))
			for i, cmd := range p.Commands {
				specs[i] = CommandSpec{Name: cmd.Name, Signature: cmd.Signature}
			}
			return HandshakeResult{Name: p.Name, Version: p.Version, Commands: specs}, nil
		case methodCall:
			var params CallParams
			if req.Params == nil || json.Unmarshal(*req.Params, &params) != nil {
				return nil, errInvalidParams
			}
			return p.dispatch(ctx, conn, req, params)
		default:
			return nil, errMethodNotFound
		}
	})
}

func (p Plugin) dispatch(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, params CallParams) (any, error) {
	var cmd *Command
	for i := range p.Commands {
		if p.Commands[i].Name == params.Name {
			cmd = &p.Commands[i]
			break
		}
	}
	if cmd == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("no command named %q", params.Name)}
	}

	call, err := decodeCall(params)
	if err != nil {
		return nil, callError(err)
	}

	if cmd.RunStream != nil {
		// Chunks are notifications correlated with the call's request id;
		// they are all written before the response below.
		emit := func(v any) error {
			w, err := Marshal(v)
			if err != nil {
				return err
			}
			return conn.Notify(ctx, methodStream,
				StreamChunk{ID: req.ID.Num, Chunk: []WireValue{w}})
		}
		if err := cmd.RunStream(call, emit); err != nil {
			return nil, callError(err)
		}
		return CallResult{Stream: true}, nil
	}

	v, err := cmd.Run(call)
	if err != nil {
		return nil, callError(err)
	}
	w, err := Marshal(v)
	if err != nil {
		return nil, callError(err)
	}
	return CallResult{Value: &w}, nil
}

func decodeCall(params CallParams) (Call, error) {
	args, err := unmarshalSlice(params.Args)
	if err != nil {
		return Call{}, err
	}
	var flags map[string]any
	if len(params.Flags) > 0 {
		flags = make(map[string]any, len(params.Flags))
		for name, w := range params.Flags {
			v, err := Unmarshal(w)
			if err != nil {
				return Call{}, err
			}
			flags[name] = v
		}
	}
	var input any
	if params.Input != nil {
		input, err = Unmarshal(*params.Input)
		if err != nil {
			return Call{}, err
		}
	}
	return Call{Args: args, Flags: flags, Input: input}, nil
}

// callError converts a command error into a JSON-RPC error, attaching the
// span of a SpanError as error data.
func callError(err error) *jsonrpc2.Error {
	rpcErr := &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	if spanned, ok := err.(*SpanError); ok {
		rpcErr.SetError(ErrorData{From: spanned.From, To: spanned.To})
	}
	return rpcErr
}
