package store

import (
	"context"
	"fmt"

	"cfbak/internal/cfbak"
	"cfbak/internal/config"
)

// NewStoreFromConfig creates a SnapshotStore implementation based on the
// store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig, logger cfbak.Logger) (cfbak.SnapshotStore, error) {
	switch cfg.Type {
	case "github":
		if cfg.Owner == "" || cfg.Repo == "" {
			return nil, fmt.Errorf("github store requires owner and repo to be set")
		}
		return NewGitHubStore(cfg.Owner, cfg.Repo, cfg.Token, logger), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
		}
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, logger)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
