package files

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager provides file management operations under a root directory
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the directory every relative path resolves against
func (m *Manager) Root() string {
	return m.root
}

// Path resolves path against the root
func (m *Manager) Path(path ...string) string {
	return m.resolvePath(filepath.Join(path...))
}

// FileExists checks if a regular file exists at the given path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(m.resolvePath(path))
	return err == nil && !info.IsDir()
}

// EnsureDirectory creates a directory and its parents if missing
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.resolvePath(path)

	m.logger.Debug("Ensuring directory exists",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return os.MkdirAll(fullPath, 0755)
}

// DeleteFile deletes a file. Deleting a missing file is not an error.
func (m *Manager) DeleteFile(path string) error {
	fullPath := m.resolvePath(path)

	m.logger.Debug("Deleting file", slog.String("full_path", fullPath))

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll removes path and everything below it
func (m *Manager) RemoveAll(path string) error {
	fullPath := m.resolvePath(path)

	m.logger.Info("Removing directory tree", slog.String("full_path", fullPath))

	return os.RemoveAll(fullPath)
}

func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.root, path)
}
