package cfbak

import "context"

// FileInfo describes an existing file in the snapshot store.
// SHA is the store's version token for that path; updates must carry it so
// the store can reject lost updates.
type FileInfo struct {
	Content []byte
	SHA     string
}

// DirEntry is one entry of a directory listing in the snapshot store.
type DirEntry struct {
	Name    string
	Type    string // "file" or "dir"
	Path    string
	HTMLURL string
}

// SnapshotStore is the destination holding all snapshots. The canonical
// implementation is a Git hosting repository; alternate backends (S3,
// in-memory) satisfy the same contract.
//
// Path-absence is signaled with a NotFoundError so callers can distinguish
// "does not exist yet" from transport failures.
type SnapshotStore interface {
	// GetRepo probes for the destination repository. A NotFoundError means
	// it has not been created yet.
	GetRepo(ctx context.Context) error

	// CreateRepo creates the destination repository.
	CreateRepo(ctx context.Context, description string, private bool) error

	// GetFile reads the file descriptor at path on the main branch.
	GetFile(ctx context.Context, path string) (*FileInfo, error)

	// PutFile writes content at path. sha must be the current version token
	// when updating an existing file, or empty when creating a new one.
	PutFile(ctx context.Context, path string, content []byte, message, sha string) error

	// ListDir lists the immediate entries under path.
	ListDir(ctx context.Context, path string) ([]DirEntry, error)
}
