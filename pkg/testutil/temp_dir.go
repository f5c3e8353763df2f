package testutil

import (
	"fmt"
	"os"
)

// TempDir creates a temporary directory for the test to use, and arranges for
// it to be removed when the test finishes. It panics if the directory cannot
// be created.
//
// It is useful in tests that only need a temporary directory; for tests that
// should run in a temporary working directory, use InTempDir.
func TempDir(c Cleanuper) string {
	dir, err := os.MkdirTemp("", "sylph-test")
	if err != nil {
		panic(fmt.Sprintf("create temp dir: %v", err))
	}
	c.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// InTempDir is like TempDir, but also changes into the temporary directory,
// changing back when the test finishes.
func InTempDir(c Cleanuper) string {
	dir := TempDir(c)
	oldWd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("get working directory: %v", err))
	}
	mustChdir(dir)
	c.Cleanup(func() { mustChdir(oldWd) })
	return dir
}

func mustChdir(dir string) {
	if err := os.Chdir(dir); err != nil {
		panic(fmt.Sprintf("chdir to %v: %v", dir, err))
	}
}
