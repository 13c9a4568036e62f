package cfbak

import (
	"context"
	"fmt"
)

// UpsertFile ensures content exists at path in the snapshot store,
// creating or updating as needed. After a successful call the path's
// content equals the given content regardless of prior state.
//
// The store requires the current version token on updates, so the write is
// preceded by a read. A not-found read means create; any other read failure
// is surfaced, not swallowed.
func (s *Service) UpsertFile(ctx context.Context, path string, content []byte, message string) error {
	if path == "" {
		return NewValidationError("file path must not be empty")
	}
	if message == "" {
		message = defaultCommitMessage
	}

	sha := ""
	existing, err := s.store.GetFile(ctx, path)
	switch {
	case err == nil:
		sha = existing.SHA
	case IsNotFound(err):
		// New file: create with no version token.
	default:
		return fmt.Errorf("reading %s before write: %w", path, err)
	}

	if err := s.store.PutFile(ctx, path, content, message, sha); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	s.logger.Debug("file written", "path", path, "created", sha == "")
	return nil
}
