package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestSavePreservesExtension(t *testing.T) {
	m := newTestManager(t)

	path, err := m.Save(strings.NewReader("hello"), "Report.PDF")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(path) != ".pdf" {
		t.Fatalf("expected .pdf extension, got %q", path)
	}
	if filepath.Dir(path) != m.Dir() {
		t.Fatalf("expected file under %q, got %q", m.Dir(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected contents: %q", data)
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	m := newTestManager(t)

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		path, err := m.Save(strings.NewReader("x"), "same.txt")
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if _, dup := seen[path]; dup {
			t.Fatalf("duplicate stored path %q", path)
		}
		seen[path] = struct{}{}
	}
}

func TestRemove(t *testing.T) {
	m := newTestManager(t)

	path, err := m.Save(strings.NewReader("x"), "a.txt")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := m.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Exists(path) {
		t.Fatal("file should be gone after remove")
	}

	// A second remove and an empty path are both no-ops.
	if err := m.Remove(path); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if err := m.Remove(""); err != nil {
		t.Fatalf("remove empty path: %v", err)
	}
}

func TestExists(t *testing.T) {
	m := newTestManager(t)

	if m.Exists("") {
		t.Fatal("empty path should not exist")
	}
	if m.Exists(filepath.Join(m.Dir(), "missing.txt")) {
		t.Fatal("missing file should not exist")
	}
	if m.Exists(m.Dir()) {
		t.Fatal("a directory should not count as a stored file")
	}

	path, err := m.Save(strings.NewReader("x"), "a.txt")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !m.Exists(path) {
		t.Fatal("saved file should exist")
	}
}
