package store_test

import (
	"context"
	"testing"

	"cfbak/internal/cfbak"
	"cfbak/internal/config"
	"cfbak/internal/store"
)

func TestNewStoreFromConfig(t *testing.T) {
	ctx := context.Background()
	log := cfbak.NewNopLogger()

	t.Run("github", func(t *testing.T) {
		s, err := store.NewStoreFromConfig(ctx, config.StoreConfig{
			Type: "github", Owner: "alice", Repo: "backups", Token: "tok",
		}, log)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if _, ok := s.(*store.GitHubStore); !ok {
			t.Errorf("store type = %T", s)
		}
	})

	t.Run("github requires repo identity", func(t *testing.T) {
		_, err := store.NewStoreFromConfig(ctx, config.StoreConfig{Type: "github"}, log)
		if err == nil {
			t.Error("NewStoreFromConfig() expected error")
		}
	})

	t.Run("memory", func(t *testing.T) {
		s, err := store.NewStoreFromConfig(ctx, config.StoreConfig{Type: "memory"}, log)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		if _, ok := s.(*store.MemoryStore); !ok {
			t.Errorf("store type = %T", s)
		}
	})

	t.Run("s3 requires a bucket", func(t *testing.T) {
		_, err := store.NewStoreFromConfig(ctx, config.StoreConfig{Type: "s3"}, log)
		if err == nil {
			t.Error("NewStoreFromConfig() expected error")
		}
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := store.NewStoreFromConfig(ctx, config.StoreConfig{Type: "ftp"}, log)
		if err == nil {
			t.Error("NewStoreFromConfig() expected error")
		}
	})
}
