package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists image files and returns the path they are stored under.
type Storage interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// LocalStorage writes files below Root.
type LocalStorage struct {
	Root string
}

// Put implements Storage. name is a slash-separated path relative to Root;
// the returned path is name itself.
func (s LocalStorage) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return name, nil
}
