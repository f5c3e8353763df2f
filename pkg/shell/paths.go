package shell

import (
	"os"
	"path/filepath"
)

// RCPath returns the path of rc.syl, sourced in interactive mode.
func RCPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sylph", "rc.syl"), nil
}

// DBPath returns the default path of the plugin registry database.
func DBPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sylph", "plugins.db"), nil
}
