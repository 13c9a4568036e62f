package cfbak

import (
	"strings"
	"time"
)

const (
	// RootPrefix is the single top-level folder holding every snapshot.
	// Its zone-name/timestamp structure is the only layout the index and
	// restore paths assume.
	RootPrefix = "cloudflare_backup"

	// RepoDescription is used when the destination repository has to be
	// created on first backup.
	RepoDescription = "Cloudflare zone configuration backups"

	// defaultCommitMessage is used when a write does not supply its own.
	defaultCommitMessage = "cfbak: update backup"

	// timestampLayout renders UTC time as ISO-8601 with ":" replaced by "-"
	// so folder names are path-safe and sort lexically in time order.
	timestampLayout = "2006-01-02T15-04-05.000Z"
)

// Service is the orchestration layer coordinating the zone-management
// service and the snapshot store to perform backup, list and restore.
type Service struct {
	zones    ZoneAPI
	store    SnapshotStore
	handlers map[string]RestoreHandler
	logger   Logger
	clock    Clock
}

// NewService creates a Service with the provided collaborators and the
// default restore handler table.
func NewService(zones ZoneAPI, store SnapshotStore, logger Logger, clock Clock) *Service {
	return &Service{
		zones:    zones,
		store:    store,
		handlers: defaultHandlers(),
		logger:   logger,
		clock:    clock,
	}
}

// SetRestoreHandler replaces the handler for one snapshot file name (or for
// WorkersDir to handle the script subdirectory).
func (s *Service) SetRestoreHandler(name string, h RestoreHandler) {
	s.handlers[name] = h
}

// snapshotTimestamp renders t as a snapshot folder name.
func snapshotTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// zoneFolder returns the snapshot root for one zone.
func zoneFolder(zoneName string) string {
	return RootPrefix + "/" + zoneName
}

// joinPath joins POSIX-style path segments, skipping empties.
func joinPath(segments ...string) string {
	parts := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			parts = append(parts, strings.Trim(s, "/"))
		}
	}
	return strings.Join(parts, "/")
}
