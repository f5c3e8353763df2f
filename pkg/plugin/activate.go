package plugin

import (
	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/parse"
)

// Activate enables plugin support on an engine. Register statements resolve
// signatures from the registry first and fall back to a live handshake;
// successful registrations persist in the registry; command calls spawn the
// plugin process. A nil registry disables persistence.
func Activate(st *eval.EngineState, reg *Registry) {
	sigs := func(path string) ([]parse.NamedSignature, error) {
		if reg != nil {
			if cmds, ok, err := reg.Get(path); err != nil {
				return nil, err
			} else if ok {
				return cmds, nil
			}
		}
		return Fetch(path)
	}
	persist := func(path string, cmds []parse.NamedSignature) error {
		if reg == nil {
			return nil
		}
		return reg.Put(path, cmds)
	}
	st.SetPluginHandlers(sigs, persist, CallCommand)
}

// LoadRegistered makes every plugin recorded in the registry resolvable in
// the engine, without spawning the plugins. The engine must have been
// activated with the same registry.
func LoadRegistered(st *eval.EngineState, reg *Registry) error {
	paths, err := reg.Paths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if _, err := st.RegisterPlugin(path); err != nil {
			return err
		}
	}
	return nil
}
