// Package storage writes generated files (ledger exports, receipts) to a
// local directory or an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	infraconfig "github.com/waterbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage backend names accepted in configuration
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// ErrInvalidKey is returned for an empty key or one escaping the storage root
var ErrInvalidKey = errors.New("storage: invalid object key")

// Object describes a stored file
type Object struct {
	Key      string
	Location string // file path for local storage, presigned URL for S3
	Size     int64
}

// ObjectStorage stores whole objects under a key
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the backend selected by cfg.Type
func New(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	switch cfg.Type {
	case "", TypeLocal:
		return NewLocalObjectStorage(cfg.LocalDir)
	case TypeS3:
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// cleanKey normalizes key to a relative slash path and rejects traversal
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
