package cfbak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Snapshot file names. Restore dispatches on these exact names.
const (
	MetadataFile     = "metadata.json"
	DNSRecordsFile   = "dns_records.json"
	PageRulesFile    = "page_rules.json"
	CustomPagesFile  = "custom_pages.json"
	SSLSettingsFile  = "ssl_tls_settings.json"
	FirewallFile     = "firewall_rules.json"
	AccessRulesFile  = "access_rules.json"
	RateLimitsFile   = "rate_limit_rules.json"
	WorkersDir       = "workers"
	WorkerRoutesFile = "routes.json"
)

// Entry is one artifact inside a snapshot: a relative path and its content.
type Entry struct {
	Path    string
	Content []byte
}

// Collect produces the full set of snapshot entries for one zone: the zone
// metadata record, one file per configuration category, the worker route
// list and one source file per unique worker script.
//
// A failing category read aborts the collection with an error naming the
// category. A failing script fetch does not: the script file is written with
// a placeholder body recording the error and collection continues.
func (s *Service) Collect(ctx context.Context, zone *Zone) ([]Entry, error) {
	var entries []Entry

	meta, err := json.MarshalIndent(zone, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding zone metadata: %w", err)
	}
	entries = append(entries, Entry{Path: MetadataFile, Content: meta})

	categories := []struct {
		name string
		file string
		read func(context.Context, string) (json.RawMessage, error)
	}{
		{"dns records", DNSRecordsFile, s.zones.ListDNSRecords},
		{"page rules", PageRulesFile, s.zones.ListPageRules},
		{"custom pages", CustomPagesFile, s.zones.ListCustomPages},
		{"firewall rules", FirewallFile, s.zones.ListFirewallRules},
		{"access rules", AccessRulesFile, s.zones.ListAccessRules},
		{"rate limit rules", RateLimitsFile, s.zones.ListRateLimits},
	}

	for _, c := range categories {
		raw, err := c.read(ctx, zone.ID)
		if err != nil {
			return nil, fmt.Errorf("collecting %s for zone %s: %w", c.name, zone.Name, err)
		}
		pretty, err := prettyJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("encoding %s for zone %s: %w", c.name, zone.Name, err)
		}
		entries = append(entries, Entry{Path: c.file, Content: pretty})
	}

	ssl, err := s.collectSSLSettings(ctx, zone)
	if err != nil {
		return nil, err
	}
	entries = append(entries, ssl)

	workers, err := s.collectWorkers(ctx, zone)
	if err != nil {
		return nil, err
	}
	entries = append(entries, workers...)

	return entries, nil
}

// collectSSLSettings keeps only settings whose identifier starts with "ssl"
// or "tls" out of the full zone settings list.
func (s *Service) collectSSLSettings(ctx context.Context, zone *Zone) (Entry, error) {
	settings, err := s.zones.ListSettings(ctx, zone.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("collecting settings for zone %s: %w", zone.Name, err)
	}

	kept := make([]json.RawMessage, 0, len(settings))
	for _, st := range settings {
		if strings.HasPrefix(st.ID, "ssl") || strings.HasPrefix(st.ID, "tls") {
			kept = append(kept, st.Raw)
		}
	}

	content, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("encoding ssl/tls settings for zone %s: %w", zone.Name, err)
	}
	return Entry{Path: SSLSettingsFile, Content: content}, nil
}

// collectWorkers does the two-phase script collection: list routes, dedupe
// script names, fetch each script once. All bound route patterns are
// preserved verbatim in the routes file, so deduplication loses nothing.
func (s *Service) collectWorkers(ctx context.Context, zone *Zone) ([]Entry, error) {
	routes, err := s.zones.ListWorkerRoutes(ctx, zone.ID)
	if err != nil {
		return nil, fmt.Errorf("collecting worker routes for zone %s: %w", zone.Name, err)
	}
	if len(routes) == 0 {
		return nil, nil
	}

	routesJSON, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding worker routes for zone %s: %w", zone.Name, err)
	}
	entries := []Entry{{Path: joinPath(WorkersDir, WorkerRoutesFile), Content: routesJSON}}

	var names []string
	seen := make(map[string]bool)
	for _, r := range routes {
		if r.Script == "" || seen[r.Script] {
			continue
		}
		seen[r.Script] = true
		names = append(names, r.Script)
	}

	for _, name := range names {
		source, err := s.zones.GetWorkerScript(ctx, zone.ID, name)
		if err != nil {
			// Script fetch failure is isolated: keep a placeholder so the
			// snapshot records which script existed and why it is missing.
			s.logger.Warn("worker script fetch failed", "zone", zone.Name, "script", name, "error", err)
			source = fmt.Sprintf("// cfbak: failed to fetch script %q: %v\n", name, err)
		}
		entries = append(entries, Entry{
			Path:    joinPath(WorkersDir, name+".js"),
			Content: []byte(source),
		})
	}

	return entries, nil
}

// prettyJSON re-indents a raw remote payload without altering its values.
// An empty payload becomes an empty JSON array.
func prettyJSON(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
