package plugin

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"src.sylph.sh/pkg/parse"
)

var bucketSig = []byte("plugin-sig")

// Registry persists the declared signatures of registered plugins, keyed by
// plugin path, so that later sessions can resolve plugin commands at parse
// time without spawning the plugin.
type Registry struct {
	db *bolt.DB
}

// OpenRegistry opens or creates the registry database at path.
func OpenRegistry(path string) (*Registry, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSig)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Registry{db}, nil
}

func (r *Registry) Close() error { return r.db.Close() }

// Put records the commands of the plugin at path, replacing any previous
// record. Signatures are stored in source syntax.
func (r *Registry) Put(path string, cmds []parse.NamedSignature) error {
	specs := make([]CommandSpec, len(cmds))
	for i, cmd := range cmds {
		specs[i] = CommandSpec{Name: cmd.Name, Signature: cmd.Sig.String()}
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSig).Put([]byte(path), data)
	})
}

// Get looks up the recorded commands of the plugin at path. The second return
// value indicates whether the plugin has a record.
func (r *Registry) Get(path string) ([]parse.NamedSignature, bool, error) {
	var data []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSig).Get([]byte(path)); v != nil {
			data = append(data, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	var specs []CommandSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, false, fmt.Errorf("corrupt record for %s: %w", path, err)
	}
	cmds, err := parseSpecs(specs)
	if err != nil {
		return nil, false, err
	}
	return cmds, true, nil
}

// Paths returns every registered plugin path.
func (r *Registry) Paths() ([]string, error) {
	var paths []string
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSig).ForEach(func(k, _ []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	return paths, err
}

// Del removes the record of the plugin at path.
func (r *Registry) Del(path string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSig).Delete([]byte(path))
	})
}
