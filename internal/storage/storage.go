// Package storage stores uploaded files on the local filesystem or in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/inhahackathon/foodmarket/config"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Backend is implemented by each storage provider. Keys are slash-separated
// and relative, e.g. "board/3/1700000000_x.jpg".
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Name() string
}

// Storage normalizes public paths into backend keys.
type Storage struct {
	backend Backend
}

func New(backend Backend) *Storage {
	return &Storage{backend: backend}
}

// Open builds the backend selected in cfg.Storage and makes sure its bucket exists.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "", config.StorageLocal:
		backend, err = NewLocalBackend(cfg.Resource.FilePath)
	case config.StorageMinio:
		backend, err = NewMinioClient(cfg.Storage.Minio)
	case config.StorageGCS:
		backend, err = NewGCSClient(ctx, cfg.Storage.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure %s bucket: %w", backend.Name(), err)
	}
	return New(backend), nil
}

// Key converts a public path such as "/board/3/a.jpg" into a backend key.
// Paths that escape the root are rejected.
func Key(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" || strings.ContainsRune(p, 0) {
		return "", ErrInvalidKey
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", ErrInvalidKey
		}
	}
	key := strings.TrimPrefix(path.Clean("/"+p), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	return key, nil
}

func (s *Storage) Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) error {
	key, err := Key(p)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

func (s *Storage) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := Key(p)
	if err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, key)
}

func (s *Storage) Delete(ctx context.Context, p string) error {
	key, err := Key(p)
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, key)
}

// DeletePrefix removes every object below the directory p.
func (s *Storage) DeletePrefix(ctx context.Context, p string) error {
	key, err := Key(p)
	if err != nil {
		return err
	}
	return s.backend.DeletePrefix(ctx, key+"/")
}

// Backend returns the provider name, e.g. "local".
func (s *Storage) Backend() string {
	return s.backend.Name()
}
