package testutil

import (
	"os"
)

// Must panics if the error value is not nil. It is typically used like this:
//
//	testutil.Must(aFunction())
//
// where aFunction returns a single error value. This is useful with functions
// like os.Mkdir to succinctly ensure the test fails to proceed if a "can't
// happen" failure does, in fact, happen.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// MustPipe calls os.Pipe and panics if it fails.
func MustPipe() (*os.File, *os.File) {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	return r, w
}

// MustWriteFile writes data to a file, panicking if it fails.
func MustWriteFile(filename, data string) {
	err := os.WriteFile(filename, []byte(data), 0600)
	if err != nil {
		panic(err)
	}
}
