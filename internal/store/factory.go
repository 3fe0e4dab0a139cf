// Package store publishes submitted files, repacks and attachments to a
// storage sink and reports the URL each file can be downloaded from.
package store

import (
	"context"
	"fmt"

	"github.com/richardsondev/unreal-archive/internal/config"
	"github.com/richardsondev/unreal-archive/internal/ua"
)

// NewStoreFromConfig creates a Store implementation based on the store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig) (ua.Store, error) {
	switch cfg.Type {
	case "", "nop":
		return NopStore{}, nil
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.FSRoot, cfg.FSBaseURL)
	case "s3":
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// NopStore stores nothing. Its empty URLs tell the indexer to skip check-in.
type NopStore struct{}

func (NopStore) Store(context.Context, string, string) (string, error) { return "", nil }
func (NopStore) Name() string                                          { return "nop" }
