package cfbak_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"cfbak/internal/cfbak"
	"cfbak/internal/testutil"
)

var testMCPImpl = &mcp.Implementation{Name: "cfbak-test", Version: "0.1.0"}

func mcpSession(t *testing.T, svc *cfbak.Service) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	cfbak.RegisterMCP(srv, svc)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool invokes one tool and fails the test only on protocol errors;
// tool-level failures come back inside the result.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", tc.Text)
	}
	return tc.Text
}

func assertToolError(t *testing.T, result *mcp.CallToolResult, category string) {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected an error-flagged result")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	if !strings.HasPrefix(tc.Text, "["+category+"]") {
		t.Errorf("error = %q, want %q prefix", tc.Text, "["+category+"]")
	}
}

func TestMCP_BackupAndList(t *testing.T) {
	api := testutil.NewFakeZoneAPI()
	svc := cfbak.NewService(api, testutil.NewTestStoreWithRepo(), cfbak.NewNopLogger(), testutil.FixedClock())
	session := mcpSession(t, svc)

	text := toolText(t, callTool(t, session, "backup_projects", map[string]any{}))

	var backup cfbak.BackupResult
	if err := json.Unmarshal([]byte(text), &backup); err != nil {
		t.Fatalf("unmarshal backup result: %v", err)
	}
	if len(backup.Zones) != 1 || backup.Zones[0].ZoneName != "example.com" {
		t.Errorf("zones = %+v", backup.Zones)
	}
	if backup.Zones[0].Timestamp != "2024-01-01T00-00-00.000Z" {
		t.Errorf("timestamp = %s", backup.Zones[0].Timestamp)
	}

	text = toolText(t, callTool(t, session, "list_backups", map[string]any{"projectId": "abc123"}))

	var snapshots []cfbak.Snapshot
	if err := json.Unmarshal([]byte(text), &snapshots); err != nil {
		t.Fatalf("unmarshal snapshots: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].Timestamp != "2024-01-01T00-00-00.000Z" {
		t.Errorf("snapshots = %+v", snapshots)
	}
}

func TestMCP_ErrorCategories(t *testing.T) {
	t.Run("missing project id is invalid-params", func(t *testing.T) {
		svc, _ := newTestService(nil)
		session := mcpSession(t, svc)

		result := callTool(t, session, "list_backups", map[string]any{})
		assertToolError(t, result, "invalid-params")
	})

	t.Run("restore without backups is not-found", func(t *testing.T) {
		svc, _ := newTestService(nil)
		session := mcpSession(t, svc)

		result := callTool(t, session, "restore_project", map[string]any{"projectId": "abc123"})
		assertToolError(t, result, "not-found")
	})

	t.Run("unknown zone is not-found", func(t *testing.T) {
		svc, _ := newTestService(nil)
		session := mcpSession(t, svc)

		result := callTool(t, session, "list_backups", map[string]any{"projectId": "nope"})
		assertToolError(t, result, "not-found")
	})

	t.Run("remote failure is internal-error", func(t *testing.T) {
		svc, api := newTestService(nil)
		api.FailCategory = "dns"
		session := mcpSession(t, svc)

		result := callTool(t, session, "backup_projects", map[string]any{})
		assertToolError(t, result, "internal-error")
	})
}
