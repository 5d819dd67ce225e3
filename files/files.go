// Package files stores task attachments in a flat uploads directory.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Manager saves, removes and serves uploaded attachment files. Stored names
// are random, preserving only the upload's extension, so concurrent saves
// never collide and nothing about the client name reaches the filesystem.
type Manager struct {
	dir string
}

// NewManager creates the uploads directory if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the uploads directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// Save writes the upload to a generated unique name preserving the original
// extension and returns the stored path.
func (m *Manager) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(m.dir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}

	return path, nil
}

// Remove deletes the stored file. Empty paths and already-missing targets are
// no-ops; any other failure is returned so the caller can report it, though
// record mutations proceed regardless (orphaned files are accepted).
func (m *Manager) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// Exists reports whether the stored file is present on disk.
func (m *Manager) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
