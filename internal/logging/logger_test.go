package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestErrorsLandInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	l, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Errorf("boom %d", 42)
	l.Infof("just info")
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "boom 42") {
		t.Fatalf("error message missing from file: %q", out)
	}
	if strings.Contains(out, "just info") {
		t.Fatalf("info must not land in the errors file: %q", out)
	}
}

func TestNewTruncatesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	if err := os.WriteFile(path, []byte("stale error\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "stale error") {
		t.Fatal("previous run's errors should be cleared")
	}
}

func TestDiscardLoggerIsSafe(t *testing.T) {
	l := NewDiscard()
	l.Infof("a")
	l.Warnf("b")
	l.Errorf("c")
	l.Error(nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
