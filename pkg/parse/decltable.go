package parse

import "errors"

// CmdSpec describes a resolved command declaration to the parser. The
// concrete type is owned by whoever implements DeclTable; the parser only
// needs the signature.
type CmdSpec interface {
	// Signature returns the command's signature, used to parse its
	// arguments. A nil signature means the command takes word arguments.
	Signature() *Signature
}

// DeclTable is the parser's view of the engine's declaration state. The
// parser resolves command heads and registers declarations through it while
// parsing, so that earlier statements in a chunk are visible to later ones
// and to the bodies of nested blocks.
type DeclTable interface {
	// ResolveCmd resolves the longest command name formed by joining a
	// prefix of words with single spaces. It returns the matched declaration
	// and the number of words consumed, or nil and 0 if no prefix matches.
	ResolveCmd(words []string) (CmdSpec, int)

	// PredeclCmd registers a declaration before its body is known, so that
	// the body of a def can call itself and later statements can call it.
	// BindCmdBody completes the declaration with its parsed body.
	PredeclCmd(name string, sig *Signature, exported bool) CmdSpec
	BindCmdBody(spec CmdSpec, body *Block)

	// EnterScope and ExitScope bracket the parsing of a block body.
	// Declarations made inside the scope are dropped when it exits.
	EnterScope()
	ExitScope()

	// EnterModule and ExitModule bracket the parsing of a module body. The
	// exported declarations made in between become the module's content.
	EnterModule(name string) error
	ExitModule()

	// UseModule makes the exports of a registered module resolvable as
	// "module export" commands.
	UseModule(name string) error

	// UseOverlay activates the overlay built from a named module, making its
	// exports resolvable unprefixed. HideOverlay deactivates the most recent
	// activation of the named overlay.
	UseOverlay(name string) error
	HideOverlay(name string) error

	// RegisterPlugin makes the commands of the plugin binary at path
	// resolvable, fetching signatures through the plugin handshake or a
	// previously persisted registration. It returns the registered commands.
	RegisterPlugin(path string) ([]NamedSignature, error)
}

// InertDeclTable returns a DeclTable that resolves nothing and registers
// nothing. Parsing against it treats every call head as an external command;
// it is suitable for purely syntactic consumers.
func InertDeclTable() DeclTable { return inertDeclTable{} }

type inertDeclTable struct{}

type inertSpec struct{ sig *Signature }

func (s inertSpec) Signature() *Signature { return s.sig }

var errNoModules = errors.New("no modules in this context")

func (inertDeclTable) ResolveCmd([]string) (CmdSpec, int) { return nil, 0 }

func (inertDeclTable) PredeclCmd(name string, sig *Signature, exported bool) CmdSpec {
	return inertSpec{sig}
}

func (inertDeclTable) BindCmdBody(CmdSpec, *Block) {}

func (inertDeclTable) EnterScope() {}
func (inertDeclTable) ExitScope()  {}

func (inertDeclTable) EnterModule(string) error { return nil }
func (inertDeclTable) ExitModule()              {}

func (inertDeclTable) UseModule(string) error   { return errNoModules }
func (inertDeclTable) UseOverlay(string) error  { return errNoModules }
func (inertDeclTable) HideOverlay(string) error { return errNoModules }

func (inertDeclTable) RegisterPlugin(string) ([]NamedSignature, error) {
	return nil, errors.New("no plugins in this context")
}
