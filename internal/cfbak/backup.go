package cfbak

import (
	"context"
	"fmt"
)

// ZoneBackup describes one completed zone snapshot.
type ZoneBackup struct {
	ZoneID    string `json:"zoneId"`
	ZoneName  string `json:"zoneName"`
	Timestamp string `json:"timestamp"`
	Files     int    `json:"files"`
}

// BackupResult is the outcome of a backup run. Missing lists requested zone
// identifiers that matched no zone; they are a warning, never a failure.
type BackupResult struct {
	Zones   []ZoneBackup `json:"zones"`
	Missing []string     `json:"missing,omitempty"`
}

// Backup snapshots every zone returned by the zone-management service, or
// only the requested subset when zoneIDs is non-empty. Each zone gets a
// fresh timestamped folder; zones are processed sequentially and the first
// failing zone aborts the run. Snapshots already written stay written —
// they are self-contained per zone and timestamp.
func (s *Service) Backup(ctx context.Context, zoneIDs []string) (*BackupResult, error) {
	all, err := s.zones.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}

	selected, missing := selectZones(all, zoneIDs)
	if len(missing) > 0 {
		s.logger.Warn("requested zones not found", "zones", missing)
	}

	if err := s.ensureRepo(ctx); err != nil {
		return nil, err
	}

	result := &BackupResult{Missing: missing}
	for i := range selected {
		zone := &selected[i]
		ts := snapshotTimestamp(s.clock.Now())

		entries, err := s.Collect(ctx, zone)
		if err != nil {
			return nil, fmt.Errorf("backing up zone %s: %w", zone.Name, err)
		}

		folder := joinPath(zoneFolder(zone.Name), ts)
		message := fmt.Sprintf("cfbak: backup %s %s", zone.Name, ts)
		for _, e := range entries {
			if err := s.UpsertFile(ctx, joinPath(folder, e.Path), e.Content, message); err != nil {
				return nil, fmt.Errorf("backing up zone %s: %w", zone.Name, err)
			}
		}

		s.logger.Info("zone backed up", "zone", zone.Name, "timestamp", ts, "files", len(entries))
		result.Zones = append(result.Zones, ZoneBackup{
			ZoneID:    zone.ID,
			ZoneName:  zone.Name,
			Timestamp: ts,
			Files:     len(entries),
		})
	}

	return result, nil
}

// ensureRepo probes for the destination repository and creates it on first
// use. Existence is checked once per run, before any zone is processed.
func (s *Service) ensureRepo(ctx context.Context) error {
	err := s.store.GetRepo(ctx)
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return fmt.Errorf("checking destination repository: %w", err)
	}

	s.logger.Info("destination repository absent, creating")
	if err := s.store.CreateRepo(ctx, RepoDescription, true); err != nil {
		return fmt.Errorf("creating destination repository: %w", err)
	}
	return nil
}

// selectZones filters zones to the requested identifiers, reporting
// identifiers that matched nothing. An empty request selects every zone.
func selectZones(all []Zone, zoneIDs []string) (selected []Zone, missing []string) {
	if len(zoneIDs) == 0 {
		return all, nil
	}

	byID := make(map[string]Zone, len(all))
	for _, z := range all {
		byID[z.ID] = z
	}

	for _, id := range zoneIDs {
		z, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		selected = append(selected, z)
	}
	return selected, missing
}
