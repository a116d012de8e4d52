package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileStore serves objects from a directory tree. Keys are slash paths
// relative to the root; anything escaping the root is treated as absent.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat store root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", abs)
	}
	return &FileStore{root: abs}, nil
}

// Get implements ObjectStore.
func (s *FileStore) Get(ctx context.Context, key string) (*ObjectHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := path.Clean("/" + key)
	if clean == "/" {
		return nil, ErrNotFound
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return nil, ErrNotFound
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return NewObjectHandle(key, contentType, info.Size(), f), nil
}

var _ ObjectStore = (*FileStore)(nil)
