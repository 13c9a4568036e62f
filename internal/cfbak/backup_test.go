package cfbak_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"cfbak/internal/cfbak"
	"cfbak/internal/testutil"
)

// failingDNSZoneAPI fails DNS record listing for one zone only.
type failingDNSZoneAPI struct {
	*testutil.FakeZoneAPI
	failZoneID string
}

func (f *failingDNSZoneAPI) ListDNSRecords(ctx context.Context, zoneID string) (json.RawMessage, error) {
	if zoneID == f.failZoneID {
		return nil, fmt.Errorf("injected failure")
	}
	return f.FakeZoneAPI.ListDNSRecords(ctx, zoneID)
}

func TestService_Backup(t *testing.T) {
	twoZones := []cfbak.Zone{
		{ID: "abc123", Name: "example.com", Status: "active", Type: "full"},
		{ID: "def456", Name: "example.org", Status: "active", Type: "full"},
	}

	t.Run("snapshots every zone when no filter given", func(t *testing.T) {
		api := testutil.NewFakeZoneAPI(twoZones...)
		st := testutil.NewTestStoreWithRepo()
		svc := cfbak.NewService(api, st, cfbak.NewNopLogger(), testutil.FixedClock())

		result, err := svc.Backup(context.Background(), nil)
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if len(result.Zones) != 2 {
			t.Fatalf("backed up %d zones, want 2", len(result.Zones))
		}
		if len(result.Missing) != 0 {
			t.Errorf("unexpected missing zones: %v", result.Missing)
		}

		for _, name := range []string{"example.com", "example.org"} {
			path := "cloudflare_backup/" + name + "/2024-01-01T00-00-00.000Z/dns_records.json"
			if _, err := st.GetFile(context.Background(), path); err != nil {
				t.Errorf("GetFile(%s) error = %v", path, err)
			}
		}
	})

	t.Run("writes the snapshot under zone name and timestamp", func(t *testing.T) {
		api := testutil.NewFakeZoneAPI()
		api.DNSRecords = json.RawMessage(`[{"type":"A","name":"example.com","content":"1.2.3.4"}]`)
		st := testutil.NewTestStoreWithRepo()
		svc := cfbak.NewService(api, st, cfbak.NewNopLogger(), testutil.FixedClock())

		result, err := svc.Backup(context.Background(), []string{"abc123"})
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if got := result.Zones[0].Timestamp; got != "2024-01-01T00-00-00.000Z" {
			t.Errorf("timestamp = %s", got)
		}

		file, err := st.GetFile(context.Background(), "cloudflare_backup/example.com/2024-01-01T00-00-00.000Z/dns_records.json")
		if err != nil {
			t.Fatalf("GetFile() error = %v", err)
		}
		if !strings.Contains(string(file.Content), `"content": "1.2.3.4"`) {
			t.Errorf("snapshot content = %s", file.Content)
		}
	})

	t.Run("reports unknown zone identifiers without failing", func(t *testing.T) {
		api := testutil.NewFakeZoneAPI(twoZones...)
		svc := cfbak.NewService(api, testutil.NewTestStoreWithRepo(), cfbak.NewNopLogger(), testutil.FixedClock())

		result, err := svc.Backup(context.Background(), []string{"def456", "nope"})
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if len(result.Zones) != 1 || result.Zones[0].ZoneID != "def456" {
			t.Errorf("zones = %+v", result.Zones)
		}
		if len(result.Missing) != 1 || result.Missing[0] != "nope" {
			t.Errorf("missing = %v", result.Missing)
		}
	})

	t.Run("creates the destination repository on first backup", func(t *testing.T) {
		api := testutil.NewFakeZoneAPI()
		st := testutil.NewTestStore()
		svc := cfbak.NewService(api, st, cfbak.NewNopLogger(), testutil.FixedClock())

		if err := st.GetRepo(context.Background()); !cfbak.IsNotFound(err) {
			t.Fatalf("precondition: repo should not exist, got %v", err)
		}
		if _, err := svc.Backup(context.Background(), nil); err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		if err := st.GetRepo(context.Background()); err != nil {
			t.Errorf("repository still absent after backup: %v", err)
		}
	})

	t.Run("failing zone aborts but completed snapshots stay", func(t *testing.T) {
		api := &failingDNSZoneAPI{FakeZoneAPI: testutil.NewFakeZoneAPI(twoZones...), failZoneID: "def456"}
		st := testutil.NewTestStoreWithRepo()
		svc := cfbak.NewService(api, st, cfbak.NewNopLogger(), testutil.FixedClock())

		_, err := svc.Backup(context.Background(), nil)
		if err == nil {
			t.Fatal("Backup() expected error")
		}
		if !strings.Contains(err.Error(), "example.org") {
			t.Errorf("error does not name the failing zone: %v", err)
		}

		path := "cloudflare_backup/example.com/2024-01-01T00-00-00.000Z/metadata.json"
		if _, err := st.GetFile(context.Background(), path); err != nil {
			t.Errorf("first zone snapshot lost: %v", err)
		}
	})

	t.Run("two runs of the same zone produce two snapshots", func(t *testing.T) {
		api := testutil.NewFakeZoneAPI()
		st := testutil.NewTestStoreWithRepo()
		clock := testutil.FixedClock()
		svc := cfbak.NewService(api, st, cfbak.NewNopLogger(), clock)

		if _, err := svc.Backup(context.Background(), nil); err != nil {
			t.Fatalf("first Backup() error = %v", err)
		}
		clock.Advance(90 * time.Second)
		if _, err := svc.Backup(context.Background(), nil); err != nil {
			t.Fatalf("second Backup() error = %v", err)
		}

		snaps, err := svc.ListBackups(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}
		if len(snaps) != 2 {
			t.Fatalf("got %d snapshots, want 2", len(snaps))
		}
	})
}
