package cfbak

import (
	"context"
	"fmt"
	"sort"
)

// Snapshot identifies one backup of one zone.
type Snapshot struct {
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
}

// ListBackups returns the snapshots available for a zone, newest first.
// A zone with no snapshot folder (or no repository at all) yields an empty
// list, not an error. This is a pure read with no side effects.
func (s *Service) ListBackups(ctx context.Context, zoneID string) ([]Snapshot, error) {
	if zoneID == "" {
		return nil, NewValidationError("zone identifier is required")
	}

	zone, err := s.zones.GetZone(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("resolving zone %s: %w", zoneID, err)
	}

	return s.listBackups(ctx, zone)
}

// listBackups lists snapshots for an already-resolved zone. Restore calls
// this directly so the zone is not resolved twice.
func (s *Service) listBackups(ctx context.Context, zone *Zone) ([]Snapshot, error) {
	entries, err := s.store.ListDir(ctx, zoneFolder(zone.Name))
	if err != nil {
		if IsNotFound(err) {
			return []Snapshot{}, nil
		}
		return nil, fmt.Errorf("listing backups for zone %s: %w", zone.Name, err)
	}

	snapshots := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		if e.Type != "dir" {
			continue
		}
		snapshots = append(snapshots, Snapshot{Timestamp: e.Name, URL: e.HTMLURL})
	}

	// ISO-8601-with-dashes timestamps sort chronologically as plain strings,
	// so a descending name sort is newest-first.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp > snapshots[j].Timestamp
	})

	return snapshots, nil
}
