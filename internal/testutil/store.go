package testutil

import (
	"context"

	"cfbak/internal/store"
)

// NewTestStore creates a new in-memory snapshot store with no repository.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// NewTestStoreWithRepo creates an in-memory store whose repository already
// exists.
func NewTestStoreWithRepo() *store.MemoryStore {
	s := store.NewMemoryStore()
	if err := s.CreateRepo(context.Background(), "", true); err != nil {
		panic(err)
	}
	return s
}
