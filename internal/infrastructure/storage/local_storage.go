package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalObjectStorage keeps objects as files under a root directory
type LocalObjectStorage struct {
	root string
}

// NewLocalObjectStorage creates the root directory if needed
func NewLocalObjectStorage(root string) (*LocalObjectStorage, error) {
	if root == "" {
		return nil, errors.New("local storage directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalObjectStorage{root: abs}, nil
}

// Put writes data atomically: a temp file is renamed over the target
func (s *LocalObjectStorage) Put(ctx context.Context, key string, data []byte, _ string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Object{}, fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return Object{}, fmt.Errorf("failed to store object: %w", err)
	}

	return Object{Key: key, Location: target, Size: int64(len(data))}, nil
}

// Exists reports whether key is stored
func (s *LocalObjectStorage) Exists(_ context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Root returns the absolute storage directory
func (s *LocalObjectStorage) Root() string {
	return s.root
}

var _ ObjectStorage = (*LocalObjectStorage)(nil)
