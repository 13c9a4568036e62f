package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cfbak/internal/cfbak"
)

// FakeZoneAPI is an in-memory ZoneAPI with canned payloads per category and
// failure injection. Safe for concurrent use.
type FakeZoneAPI struct {
	mu sync.Mutex

	Zones []cfbak.Zone

	DNSRecords    json.RawMessage
	PageRules     json.RawMessage
	CustomPages   json.RawMessage
	FirewallRules json.RawMessage
	AccessRules   json.RawMessage
	RateLimits    json.RawMessage
	Settings      []cfbak.Setting
	Routes        []cfbak.WorkerRoute
	Scripts       map[string]string

	// FailCategory makes the named category read fail:
	// one of "dns", "pagerules", "custompages", "firewall", "access",
	// "ratelimits", "settings", "routes".
	FailCategory string

	// ScriptErrs makes individual script fetches fail.
	ScriptErrs map[string]error

	// ScriptFetches counts GetWorkerScript calls per script name.
	ScriptFetches map[string]int
}

// NewFakeZoneAPI returns a fake with one zone and empty payloads for every
// category.
func NewFakeZoneAPI(zones ...cfbak.Zone) *FakeZoneAPI {
	if len(zones) == 0 {
		zones = []cfbak.Zone{{ID: "abc123", Name: "example.com", Status: "active", Type: "full"}}
	}
	return &FakeZoneAPI{
		Zones:         zones,
		DNSRecords:    json.RawMessage(`[]`),
		PageRules:     json.RawMessage(`[]`),
		CustomPages:   json.RawMessage(`[]`),
		FirewallRules: json.RawMessage(`[]`),
		AccessRules:   json.RawMessage(`[]`),
		RateLimits:    json.RawMessage(`[]`),
		Scripts:       make(map[string]string),
		ScriptErrs:    make(map[string]error),
		ScriptFetches: make(map[string]int),
	}
}

func (f *FakeZoneAPI) ListZones(_ context.Context) ([]cfbak.Zone, error) {
	return f.Zones, nil
}

func (f *FakeZoneAPI) GetZone(_ context.Context, zoneID string) (*cfbak.Zone, error) {
	for i := range f.Zones {
		if f.Zones[i].ID == zoneID {
			return &f.Zones[i], nil
		}
	}
	return nil, &cfbak.NotFoundError{Resource: "zone", Key: zoneID}
}

func (f *FakeZoneAPI) category(name string, payload json.RawMessage) (json.RawMessage, error) {
	if f.FailCategory == name {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: name, Err: fmt.Errorf("injected failure")}
	}
	return payload, nil
}

func (f *FakeZoneAPI) ListDNSRecords(_ context.Context, _ string) (json.RawMessage, error) {
	return f.category("dns", f.DNSRecords)
}

func (f *FakeZoneAPI) ListPageRules(_ context.Context, _ string) (json.RawMessage, error) {
	return f.category("pagerules", f.PageRules)
}

func (f *FakeZoneAPI) ListCustomPages(_ context.Context, _ string) (json.RawMessage, error) {
	return f.category("custompages", f.CustomPages)
}

func (f *FakeZoneAPI) ListFirewallRules(_ context.Context, _ string) (json.RawMessage, error) {
	return f.category("firewall", f.FirewallRules)
}

func (f *FakeZoneAPI) ListAccessRules(_ context.Context, _ string) (json.RawMessage, error) {
	return f.category("access", f.AccessRules)
}

func (f *FakeZoneAPI) ListRateLimits(_ context.Context, _ string) (json.RawMessage, error) {
	return f.category("ratelimits", f.RateLimits)
}

func (f *FakeZoneAPI) ListSettings(_ context.Context, _ string) ([]cfbak.Setting, error) {
	if f.FailCategory == "settings" {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "settings", Err: fmt.Errorf("injected failure")}
	}
	return f.Settings, nil
}

func (f *FakeZoneAPI) ListWorkerRoutes(_ context.Context, _ string) ([]cfbak.WorkerRoute, error) {
	if f.FailCategory == "routes" {
		return nil, &cfbak.RemoteError{Service: "cloudflare", Op: "routes", Err: fmt.Errorf("injected failure")}
	}
	return f.Routes, nil
}

func (f *FakeZoneAPI) GetWorkerScript(_ context.Context, _ string, name string) (string, error) {
	f.mu.Lock()
	f.ScriptFetches[name]++
	f.mu.Unlock()

	if err := f.ScriptErrs[name]; err != nil {
		return "", err
	}
	source, ok := f.Scripts[name]
	if !ok {
		return "", &cfbak.NotFoundError{Resource: "worker script", Key: name}
	}
	return source, nil
}

var _ cfbak.ZoneAPI = (*FakeZoneAPI)(nil)
