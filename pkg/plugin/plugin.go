// Package plugin implements the sylph plugin protocol: JSON-RPC 2.0 over the
// plugin process's standard input and output, with Content-Length framing.
//
// The engine spawns the plugin binary per call: spawn, handshake, call, exit.
// The handshake announces the plugin's commands and their signatures; a call
// either returns one value or streams chunks of values ahead of its response.
// Registrations are persisted in a bbolt registry so that later sessions
// resolve plugin commands without spawning the plugin.
package plugin

// Protocol identification, exchanged in the handshake.
const (
	ProtocolName    = "sylph-plugin"
	ProtocolVersion = 1
)

// JSON-RPC method names.
const (
	methodHandshake = "handshake"
	methodCall      = "call"
	methodStream    = "stream"
)

// HandshakeParams is the request of the handshake method, sent by the engine.
type HandshakeParams struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

// HandshakeResult is the response of the handshake method: the plugin
// identifies itself and declares its commands.
type HandshakeResult struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Commands []CommandSpec `json:"commands"`
}

// CommandSpec declares one plugin command. The signature uses the source
// syntax of command signatures, like "n: int --verbose (-v)".
type CommandSpec struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// CallParams is the request of the call method.
type CallParams struct {
	Name  string               `json:"name"`
	Args  []WireValue          `json:"args"`
	Flags map[string]WireValue `json:"flags,omitempty"`
	Input *WireValue           `json:"input,omitempty"`
}

// CallResult is the response of the call method. Stream is true when the
// command's output was already delivered in stream notifications; otherwise
// Value holds the single output value.
type CallResult struct {
	Value  *WireValue `json:"value,omitempty"`
	Stream bool       `json:"stream,omitempty"`
}

// StreamChunk is the parameter of a stream notification, sent by the plugin
// before the response of the call it belongs to.
type StreamChunk struct {
	// ID is the numeric JSON-RPC id of the call being answered.
	ID    uint64      `json:"id"`
	Chunk []WireValue `json:"chunk"`
}

// ErrorData is attached to JSON-RPC errors raised by a command, carrying the
// byte span the plugin attributes the error to (relative to its argument
// rendering; may be zero).
type ErrorData struct {
	From int `json:"from"`
	To   int `json:"to"`
}
