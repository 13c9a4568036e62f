package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cfbak/internal/cfbak"
)

// MemoryStore is an in-memory implementation of the SnapshotStore interface,
// useful for tests and dry runs. It mimics the hosting service's semantics:
// path-absence is a NotFoundError and updates must carry the current version
// token. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	repo  bool
	files map[string]memoryFile // path -> file
}

type memoryFile struct {
	content []byte
	sha     string
}

// NewMemoryStore creates an empty in-memory store with no repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]memoryFile)}
}

// GetRepo reports whether CreateRepo has been called.
func (m *MemoryStore) GetRepo(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.repo {
		return &cfbak.NotFoundError{Resource: "repository"}
	}
	return nil
}

// CreateRepo marks the repository as existing.
func (m *MemoryStore) CreateRepo(_ context.Context, _ string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.repo {
		return fmt.Errorf("repository already exists")
	}
	m.repo = true
	return nil
}

// GetFile reads a stored file descriptor.
func (m *MemoryStore) GetFile(_ context.Context, path string) (*cfbak.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[path]
	if !ok {
		return nil, &cfbak.NotFoundError{Resource: "file", Key: path}
	}
	content := make([]byte, len(f.content))
	copy(content, f.content)
	return &cfbak.FileInfo{Content: content, SHA: f.sha}, nil
}

// PutFile writes a file, enforcing the version-token contract: creates must
// carry no token, updates must carry the current one.
func (m *MemoryStore) PutFile(_ context.Context, path string, content []byte, _ string, sha string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.files[path]
	if ok && existing.sha != sha {
		return fmt.Errorf("sha mismatch for %s: expected %s, got %s", path, existing.sha, sha)
	}
	if !ok && sha != "" {
		return fmt.Errorf("sha given for new file %s", path)
	}

	stored := make([]byte, len(content))
	copy(stored, content)
	m.files[path] = memoryFile{content: stored, sha: contentSHA(path, content)}
	return nil
}

// ListDir derives the immediate entries under path from the stored flat
// paths, the way a tree listing would.
func (m *MemoryStore) ListDir(_ context.Context, path string) ([]cfbak.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := strings.TrimSuffix(path, "/") + "/"
	seen := make(map[string]cfbak.DirEntry)
	for p := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		name, entryType := rest, "file"
		if i := strings.Index(rest, "/"); i >= 0 {
			name, entryType = rest[:i], "dir"
		}
		seen[name] = cfbak.DirEntry{
			Name:    name,
			Type:    entryType,
			Path:    prefix + name,
			HTMLURL: "memory://" + prefix + name,
		}
	}

	if len(seen) == 0 {
		return nil, &cfbak.NotFoundError{Resource: "path", Key: path}
	}

	entries := make([]cfbak.DirEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// contentSHA derives a fresh version token for a write.
func contentSHA(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

var _ cfbak.SnapshotStore = (*MemoryStore)(nil)
