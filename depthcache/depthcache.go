// Package depthcache stores generated RGBD images keyed by the content of
// their source image, so depth inference runs once per input.
package depthcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/stevecastle/quiltpainter/appconfig"
)

// ErrNotFound is returned by Get when the key has no cached entry.
var ErrNotFound = errors.New("depthcache: not found")

// Store holds encoded RGBD images.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Key derives the cache key for an input image processed by the named depth
// source: the hex SHA-256 of the input bytes followed by the source name.
func Key(input []byte, source string) string {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// New returns the store selected by cfg.Cache.
func New(ctx context.Context, cfg appconfig.Config) (Store, error) {
	switch cfg.Cache {
	case appconfig.CacheFile, "":
		return NewFileStore(cfg.CacheDir)
	case appconfig.CacheS3:
		return NewS3Store(ctx, cfg.S3)
	case appconfig.CacheNone:
		return NullStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}
}

// NullStore caches nothing.
type NullStore struct{}

func (NullStore) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }

func (NullStore) Put(context.Context, string, []byte) error { return nil }
