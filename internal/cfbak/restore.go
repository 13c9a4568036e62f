package cfbak

import (
	"context"
	"fmt"
)

// RestoreStatus tells apart entries that were written back to the remote
// service, entries whose handler is not implemented, and entries nothing
// dispatched on.
type RestoreStatus string

const (
	StatusRestored       RestoreStatus = "restored"
	StatusNotImplemented RestoreStatus = "not_implemented"
	StatusSkipped        RestoreStatus = "skipped"
)

// RestoreRequest carries everything a handler needs to push one snapshot
// entry back to the zone-management service.
type RestoreRequest struct {
	ZoneID  string
	Path    string // full store path of the file, or of the workers directory
	Content []byte // nil for the workers directory
	Store   SnapshotStore
	API     ZoneAPI
}

// RestoreHandler writes one snapshot entry back to the remote service so the
// zone's live configuration matches the snapshot.
type RestoreHandler func(ctx context.Context, req *RestoreRequest) (RestoreStatus, error)

// notImplemented is the default handler: it performs no remote mutation and
// reports a status distinct from success so callers can tell "restored"
// from "nothing happened".
func notImplemented(_ context.Context, _ *RestoreRequest) (RestoreStatus, error) {
	return StatusNotImplemented, nil
}

// defaultHandlers maps snapshot file names (and the workers directory) to
// their restore handlers. Every default is a placeholder; real handlers are
// installed with SetRestoreHandler.
func defaultHandlers() map[string]RestoreHandler {
	return map[string]RestoreHandler{
		DNSRecordsFile:  notImplemented,
		PageRulesFile:   notImplemented,
		CustomPagesFile: notImplemented,
		SSLSettingsFile: notImplemented,
		FirewallFile:    notImplemented,
		AccessRulesFile: notImplemented,
		RateLimitsFile:  notImplemented,
		WorkersDir:      notImplemented,
	}
}

// RestoreEntry reports what happened to one snapshot file during restore.
type RestoreEntry struct {
	Name   string        `json:"name"`
	Status RestoreStatus `json:"status"`
}

// RestoreResult is the outcome of one restore operation.
type RestoreResult struct {
	ZoneID    string         `json:"zoneId"`
	ZoneName  string         `json:"zoneName"`
	Timestamp string         `json:"timestamp"`
	Entries   []RestoreEntry `json:"entries"`
}

// Restore selects a snapshot for the zone — the given timestamp, which must
// match an existing snapshot exactly, or the newest when timestamp is empty —
// and dispatches each of its files to the handler table. File names without
// a handler are silently skipped. No remote mutation happens when the
// snapshot cannot be found.
func (s *Service) Restore(ctx context.Context, zoneID, timestamp string) (*RestoreResult, error) {
	if zoneID == "" {
		return nil, NewValidationError("zone identifier is required")
	}

	zone, err := s.zones.GetZone(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("resolving zone %s: %w", zoneID, err)
	}

	snapshots, err := s.listBackups(ctx, zone)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, &NotFoundError{Resource: "backups", Key: zone.Name}
	}

	selected, err := selectSnapshot(snapshots, timestamp)
	if err != nil {
		return nil, err
	}

	folder := joinPath(zoneFolder(zone.Name), selected.Timestamp)
	entries, err := s.store.ListDir(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot %s for zone %s: %w", selected.Timestamp, zone.Name, err)
	}

	s.logger.Info("restore started", "zone", zone.Name, "timestamp", selected.Timestamp)

	result := &RestoreResult{ZoneID: zone.ID, ZoneName: zone.Name, Timestamp: selected.Timestamp}
	for _, e := range entries {
		status, err := s.restoreEntry(ctx, zone.ID, e)
		if err != nil {
			return nil, fmt.Errorf("restoring %s from snapshot %s: %w", e.Name, selected.Timestamp, err)
		}
		result.Entries = append(result.Entries, RestoreEntry{Name: e.Name, Status: status})
		if status != StatusSkipped {
			s.logger.Info("snapshot entry dispatched", "name", e.Name, "status", string(status))
		}
	}

	return result, nil
}

// restoreEntry dispatches one directory listing entry to its handler.
func (s *Service) restoreEntry(ctx context.Context, zoneID string, e DirEntry) (RestoreStatus, error) {
	if e.Type == "dir" {
		handler, ok := s.handlers[e.Name]
		if !ok {
			return StatusSkipped, nil
		}
		return handler(ctx, &RestoreRequest{
			ZoneID: zoneID,
			Path:   e.Path,
			Store:  s.store,
			API:    s.zones,
		})
	}

	handler, ok := s.handlers[e.Name]
	if !ok {
		return StatusSkipped, nil
	}

	file, err := s.store.GetFile(ctx, e.Path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", e.Path, err)
	}

	return handler(ctx, &RestoreRequest{
		ZoneID:  zoneID,
		Path:    e.Path,
		Content: file.Content,
		Store:   s.store,
		API:     s.zones,
	})
}

// selectSnapshot picks the snapshot for an explicit timestamp, or the newest
// one (first after the descending sort) when timestamp is empty.
func selectSnapshot(snapshots []Snapshot, timestamp string) (Snapshot, error) {
	if timestamp == "" {
		return snapshots[0], nil
	}
	for _, snap := range snapshots {
		if snap.Timestamp == timestamp {
			return snap, nil
		}
	}
	return Snapshot{}, &NotFoundError{Resource: "snapshot", Key: timestamp}
}
