package localstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store manages the process-wide directory downloaded artifacts land
// in. Artifacts are not tracked after they are written; the directory
// is the only registry.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Ensure creates the directory if needed. Safe to call repeatedly.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create download directory %s: %w", s.dir, err)
	}
	return nil
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Resolve maps a bare artifact filename to its on-disk path. Only
// basenames of regular files are accepted; anything that could escape
// the directory is rejected.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a file: %s", name)
	}
	return path, nil
}
