package cfbak

import (
	"context"
	"encoding/json"
)

// Zone is a managed domain on the zone-management service.
// Zones are owned by the remote service and read-only here.
type Zone struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Paused     bool   `json:"paused"`
	Type       string `json:"type"`
	CreatedOn  string `json:"created_on"`
	ModifiedOn string `json:"modified_on"`
}

// Setting is one zone setting. Raw carries the remote object verbatim so
// snapshots preserve whatever fields the service returns.
type Setting struct {
	ID  string
	Raw json.RawMessage
}

// WorkerRoute binds a route pattern to an edge script.
type WorkerRoute struct {
	ID      string `json:"id"`
	Pattern string `json:"pattern"`
	Script  string `json:"script"`
}

// ZoneAPI provides read access to one zone's configuration on the
// zone-management service. Category reads return the remote result list
// verbatim as raw JSON; no transformation happens at this layer.
type ZoneAPI interface {
	ListZones(ctx context.Context) ([]Zone, error)
	GetZone(ctx context.Context, zoneID string) (*Zone, error)

	ListDNSRecords(ctx context.Context, zoneID string) (json.RawMessage, error)
	ListPageRules(ctx context.Context, zoneID string) (json.RawMessage, error)
	ListCustomPages(ctx context.Context, zoneID string) (json.RawMessage, error)
	ListFirewallRules(ctx context.Context, zoneID string) (json.RawMessage, error)
	ListAccessRules(ctx context.Context, zoneID string) (json.RawMessage, error)
	ListRateLimits(ctx context.Context, zoneID string) (json.RawMessage, error)
	ListSettings(ctx context.Context, zoneID string) ([]Setting, error)

	ListWorkerRoutes(ctx context.Context, zoneID string) ([]WorkerRoute, error)
	GetWorkerScript(ctx context.Context, zoneID, scriptName string) (string, error)
}
