// Package upload persists uploaded customer files on local disk.
package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage writes uploaded files under a dedicated directory, one file per
// analysis, named {analysisID}_{original filename} so repeated uploads of the
// same filename never collide.
type Storage struct {
	dir string
}

// NewStorage creates the upload directory if needed and returns a Storage.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes content to disk and returns the stored path.
func (s *Storage) Save(analysisID, filename string, content []byte) (string, error) {
	// Strip any client-supplied directory components before joining.
	name := fmt.Sprintf("%s_%s", analysisID, filepath.Base(filename))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// Read returns the stored file content.
func (s *Storage) Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return content, nil
}

// Remove deletes a stored file. A file that is already gone is not an error;
// deletion of the analysis record must proceed regardless.
func (s *Storage) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
