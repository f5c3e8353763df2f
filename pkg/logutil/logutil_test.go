package logutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetLoggerSetOutput(t *testing.T) {
	logger := GetLogger("[test] ")
	var sb strings.Builder
	SetOutput(&sb)
	defer SetOutput(io.Discard)

	logger.Println("out")
	if !strings.Contains(sb.String(), "[test] ") {
		t.Errorf("log output %q misses prefix", sb.String())
	}
	if !strings.Contains(sb.String(), "out") {
		t.Errorf("log output %q misses message", sb.String())
	}
}

func TestSetOutputFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "log")
	if err := SetOutputFile(fname); err != nil {
		t.Fatal(err)
	}
	defer SetOutput(io.Discard)

	logger := GetLogger("[file] ")
	logger.Println("written")

	content, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "written") {
		t.Errorf("log file content %q misses message", content)
	}
}

func TestSetOutputFile_Empty(t *testing.T) {
	if err := SetOutputFile(""); err != nil {
		t.Errorf("SetOutputFile(\"\") -> %v, want nil", err)
	}
}
