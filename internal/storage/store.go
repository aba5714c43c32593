// Package storage persists opaque documents under hierarchical keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/meterbill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the filesystem-backed document store.
var Module = fx.Module("storage",
	fx.Provide(NewFileStore),
)

var ErrInvalidKey = errors.New("invalid_storage_key")

// Store writes document bytes at a path-like key, creating missing
// intermediate containers.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

type FileStore struct {
	base string
	log  *zap.Logger
}

func NewFileStore(cfg config.Config, log *zap.Logger) Store {
	return &FileStore{
		base: cfg.DataDir,
		log:  log.Named("storage.file"),
	}
}

func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	path := filepath.Join(s.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	s.log.Debug("document written", zap.String("key", key), zap.Int("bytes", len(data)))
	return path, nil
}
