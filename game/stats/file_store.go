package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps Totals in a single JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store at path, creating its directory if needed
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the totals. A missing file yields zero totals.
func (fs *FileStore) Load(ctx context.Context) (Totals, error) {
	var totals Totals
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return totals, nil
		}
		return totals, fmt.Errorf("failed to read stats file: %w", err)
	}
	if err := json.Unmarshal(data, &totals); err != nil {
		return totals, fmt.Errorf("failed to parse stats file %s: %w", fs.path, err)
	}
	return totals, nil
}

// Save replaces the file contents
func (fs *FileStore) Save(ctx context.Context, totals Totals) error {
	data, err := json.MarshalIndent(totals, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
