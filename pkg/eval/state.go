package eval

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"src.elv.sh/pkg/persistent/hashmap"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/parse"
)

// EngineState is the session-lived registry of declarations, overlays and
// environment variables. It is mutated from two directions: parsing registers
// declarations (def, module, use, overlay, register statements take effect
// while the source is parsed, so that later statements can call them), and
// evaluation changes environment variables.
//
// EngineState implements parse.DeclTable: the parser receives it explicitly
// and resolves command heads through it as it goes.
type EngineState struct {
	mu sync.RWMutex
	// overlays is the overlay stack, bottom first. overlays[0] holds the
	// builtin declarations and overlays[1] the session layer; name
	// resolution searches top-down.
	overlays []*Overlay
	// scopes is the parse-time scope stack for block bodies. Declarations in
	// a scope die when the scope exits.
	scopes []map[string]*Decl
	// modules maps module names to registered modules.
	modules map[string]*Module
	// collecting is the module currently being parsed, if any.
	collecting *Module

	// pluginSigs resolves a plugin path to its command signatures, either
	// from the persisted registry or via a live handshake. Nil disables
	// register statements.
	pluginSigs func(path string) ([]parse.NamedSignature, error)
	// pluginPersist persists a successful registration.
	pluginPersist func(path string, cmds []parse.NamedSignature) error
	// pluginCall invokes a command of a registered plugin.
	pluginCall PluginCaller
}

// Overlay is a named, stackable layer of declarations and environment
// variables. Pushing an overlay makes its declarations visible without
// erasing the layers beneath; popping removes exactly that layer.
type Overlay struct {
	Name  string
	decls map[string]*Decl
	env   hashmap.Map
}

// Module is a named set of exported declarations, registered at parse time
// by a module statement.
type Module struct {
	Name    string
	exports map[string]*Decl
	order   []string
}

// Decl is a registered declaration: a name, a signature and an
// implementation. A Decl is immutable once its body is bound; redefinition
// registers a new Decl that shadows the old one in the active overlay.
type Decl struct {
	Name     string
	Sig      *parse.Signature
	Cmd      Command
	exported bool

	// body is the definition body for user-defined commands. It is bound
	// once, when the parser finishes parsing the def statement.
	body *parse.Block
}

// Signature implements parse.CmdSpec.
func (d *Decl) Signature() *parse.Signature { return d.Sig }

// emptyEnv is the zero environment overlay.
var emptyEnv = hashmap.New(vals.Equal, vals.Hash)

// NewEngineState creates an EngineState with a builtin overlay holding the
// builtin command set and a session overlay seeded with the process
// environment.
func NewEngineState() *EngineState {
	st := &EngineState{modules: make(map[string]*Module)}
	builtin := &Overlay{Name: "builtin", decls: make(map[string]*Decl), env: emptyEnv}
	for _, d := range builtinDecls() {
		builtin.decls[d.Name] = d
	}
	session := &Overlay{Name: "session", decls: make(map[string]*Decl), env: osEnv()}
	st.overlays = []*Overlay{builtin, session}
	return st
}

func osEnv() hashmap.Map {
	env := emptyEnv
	for _, entry := range os.Environ() {
		if i := strings.IndexByte(entry, '='); i > 0 {
			env = env.Assoc(entry[:i], entry[i+1:])
		}
	}
	return env
}

// Fork returns a read-shared, copy-on-modify view of the engine state for an
// isolated concurrent evaluation. The overlay stack and declaration maps are
// copied; declarations themselves are immutable and shared, as are modules.
func (st *EngineState) Fork() *EngineState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	fork := &EngineState{
		modules:       make(map[string]*Module, len(st.modules)),
		pluginSigs:    st.pluginSigs,
		pluginPersist: st.pluginPersist,
		pluginCall:    st.pluginCall,
	}
	for name, m := range st.modules {
		fork.modules[name] = m
	}
	fork.overlays = make([]*Overlay, len(st.overlays))
	for i, o := range st.overlays {
		decls := make(map[string]*Decl, len(o.decls))
		for name, d := range o.decls {
			decls[name] = d
		}
		fork.overlays[i] = &Overlay{Name: o.Name, decls: decls, env: o.env}
	}
	return fork
}

// SetPluginHandlers wires the engine to a plugin loader: sigs resolves a
// plugin path to command signatures, persist records a registration, and
// caller invokes plugin commands.
func (st *EngineState) SetPluginHandlers(
	sigs func(string) ([]parse.NamedSignature, error),
	persist func(string, []parse.NamedSignature) error,
	caller PluginCaller) {
	st.pluginSigs = sigs
	st.pluginPersist = persist
	st.pluginCall = caller
}

// resolve looks up a declaration by name: parse-time scopes innermost first,
// then overlays top-down.
func (st *EngineState) resolve(name string) *Decl {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if d, ok := st.scopes[i][name]; ok {
			return d
		}
	}
	for i := len(st.overlays) - 1; i >= 0; i-- {
		if d, ok := st.overlays[i].decls[name]; ok {
			return d
		}
	}
	return nil
}

// CmdNames returns the names of all visible declarations, sorted.
func (st *EngineState) CmdNames() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	seen := make(map[string]bool)
	for _, o := range st.overlays {
		for name := range o.decls {
			seen[name] = true
		}
	}
	for _, sc := range st.scopes {
		for name := range sc {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveCmd implements parse.DeclTable. The longest multi-word prefix wins.
func (st *EngineState) ResolveCmd(words []string) (parse.CmdSpec, int) {
	max := len(words)
	if max > maxNameWords {
		max = maxNameWords
	}
	for n := max; n >= 1; n-- {
		name := strings.Join(words[:n], " ")
		if d := st.resolve(name); d != nil {
			return d, n
		}
	}
	return nil, 0
}

// maxNameWords bounds multi-word command name resolution.
const maxNameWords = 3

// PredeclCmd implements parse.DeclTable. The declaration is visible
// immediately, so a def body can call itself; the body is bound later by
// BindCmdBody.
func (st *EngineState) PredeclCmd(name string, sig *parse.Signature, exported bool) parse.CmdSpec {
	d := &Decl{Name: name, Sig: sig, exported: exported}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.scopes) > 0 {
		st.scopes[len(st.scopes)-1][name] = d
	} else {
		st.overlays[len(st.overlays)-1].decls[name] = d
	}
	if exported && st.collecting != nil {
		if _, seen := st.collecting.exports[name]; !seen {
			st.collecting.order = append(st.collecting.order, name)
		}
		st.collecting.exports[name] = d
	}
	return d
}

// BindCmdBody implements parse.DeclTable.
func (st *EngineState) BindCmdBody(spec parse.CmdSpec, body *parse.Block) {
	d := spec.(*Decl)
	d.body = body
	d.Cmd = &userCmd{d}
}

// EnterScope implements parse.DeclTable.
func (st *EngineState) EnterScope() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.scopes = append(st.scopes, make(map[string]*Decl))
}

// ExitScope implements parse.DeclTable.
func (st *EngineState) ExitScope() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// EnterModule implements parse.DeclTable.
func (st *EngineState) EnterModule(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.collecting != nil {
		return fmt.Errorf("module %s declared inside module %s", name, st.collecting.Name)
	}
	st.collecting = &Module{Name: name, exports: make(map[string]*Decl)}
	st.scopes = append(st.scopes, make(map[string]*Decl))
	return nil
}

// ExitModule implements parse.DeclTable.
func (st *EngineState) ExitModule() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.collecting == nil {
		return
	}
	st.modules[st.collecting.Name] = st.collecting
	st.collecting = nil
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// UseModule implements parse.DeclTable: the exports of the module become
// resolvable as "module export" commands in the active layer.
func (st *EngineState) UseModule(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	m, ok := st.modules[name]
	if !ok {
		return fmt.Errorf("no module named %s", name)
	}
	for _, exportName := range m.order {
		d := m.exports[exportName]
		prefixed := &Decl{Name: name + " " + exportName, Sig: d.Sig, Cmd: d.Cmd, body: d.body}
		if prefixed.Cmd == nil && prefixed.body != nil {
			prefixed.Cmd = &userCmd{prefixed}
		}
		st.addDeclLocked(prefixed)
	}
	return nil
}

func (st *EngineState) addDeclLocked(d *Decl) {
	if len(st.scopes) > 0 {
		st.scopes[len(st.scopes)-1][d.Name] = d
	} else {
		st.overlays[len(st.overlays)-1].decls[d.Name] = d
	}
}

// UseOverlay implements parse.DeclTable: pushes an overlay built from the
// named module, making its exports resolvable unprefixed.
func (st *EngineState) UseOverlay(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	m, ok := st.modules[name]
	if !ok {
		return fmt.Errorf("no module named %s", name)
	}
	decls := make(map[string]*Decl, len(m.exports))
	for exportName, d := range m.exports {
		decls[exportName] = d
	}
	st.overlays = append(st.overlays, &Overlay{Name: name, decls: decls, env: emptyEnv})
	return nil
}

// HideOverlay implements parse.DeclTable: pops the most recent activation of
// the named overlay. The builtin and session layers cannot be hidden.
func (st *EngineState) HideOverlay(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := len(st.overlays) - 1; i >= 2; i-- {
		if st.overlays[i].Name == name {
			st.overlays = append(st.overlays[:i], st.overlays[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no active overlay named %s", name)
}

// RegisterPlugin implements parse.DeclTable: the plugin's commands become
// resolvable, with signatures from the persisted registry or a live
// handshake.
func (st *EngineState) RegisterPlugin(path string) ([]parse.NamedSignature, error) {
	if st.pluginSigs == nil {
		return nil, fmt.Errorf("plugins are not enabled")
	}
	cmds, err := st.pluginSigs(path)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, cmd := range cmds {
		st.addDeclLocked(&Decl{
			Name: cmd.Name,
			Sig:  cmd.Sig,
			Cmd:  &pluginCmd{path: path, name: cmd.Name, call: st.pluginCall},
		})
	}
	return cmds, nil
}

// PersistPlugin records a plugin registration in the persistent registry, so
// that later sessions resolve its commands without spawning the plugin.
func (st *EngineState) PersistPlugin(path string, cmds []parse.NamedSignature) error {
	if st.pluginPersist == nil {
		return nil
	}
	return st.pluginPersist(path, cmds)
}

// getEnv resolves an environment variable through the overlay stack,
// top-down.
func (st *EngineState) getEnv(name string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for i := len(st.overlays) - 1; i >= 0; i-- {
		if v, ok := st.overlays[i].env.Index(name); ok {
			return v.(string), true
		}
	}
	return "", false
}

// mergeSessionEnv merges an environment delta into the session overlay.
// It backs the persistence of top-level let-env across evaluations.
func (st *EngineState) mergeSessionEnv(delta hashmap.Map) {
	st.mu.Lock()
	defer st.mu.Unlock()
	session := st.overlays[1]
	for it := delta.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		session.env = session.env.Assoc(k, vals.ToString(v))
	}
}

// environSlice renders the merged environment (frame delta over overlays) in
// os.Environ form for spawning external commands.
func (st *EngineState) environSlice(frameEnv hashmap.Map) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	merged := map[string]string{}
	for _, o := range st.overlays {
		for it := o.env.Iterator(); it.HasElem(); it.Next() {
			k, v := it.Elem()
			merged[k.(string)] = v.(string)
		}
	}
	for it := frameEnv.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		merged[k.(string)] = vals.ToString(v)
	}
	environ := make([]string, 0, len(merged))
	for k, v := range merged {
		environ = append(environ, k+"="+v)
	}
	return environ
}

var _ parse.DeclTable = (*EngineState)(nil)
