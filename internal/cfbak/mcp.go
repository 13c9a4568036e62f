package cfbak

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Operations is the boundary surface the tool server exposes. Service
// implements it; callers may wrap it (the app layer does, to record run
// history).
type Operations interface {
	Backup(ctx context.Context, zoneIDs []string) (*BackupResult, error)
	ListBackups(ctx context.Context, zoneID string) ([]Snapshot, error)
	Restore(ctx context.Context, zoneID, timestamp string) (*RestoreResult, error)
}

// RegisterMCP registers the backup, list and restore tools on an MCP server.
func RegisterMCP(srv *mcp.Server, ops Operations) {
	registerBackupTool(srv, ops)
	registerListTool(srv, ops)
	registerRestoreTool(srv, ops)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// errorCategory maps a domain error to its machine-checkable boundary
// category.
func errorCategory(err error) string {
	switch {
	case IsValidation(err):
		return "invalid-params"
	case IsNotFound(err):
		return "not-found"
	default:
		return "internal-error"
	}
}

// registerTool wires an operation as an MCP tool. Failures never cross the
// boundary as protocol errors: they become tool results carrying the error
// flag, a category and a human-readable message.
func registerTool(srv *mcp.Server, tool *mcp.Tool, run func(ctx context.Context, args json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := run(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("[%s] %v", errorCategory(err), err))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("[internal-error] marshal: %v", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- backup_projects ---

type backupReq struct {
	ProjectIDs []string `json:"projectIds"`
}

func registerBackupTool(srv *mcp.Server, ops Operations) {
	tool := &mcp.Tool{
		Name:        "backup_projects",
		Description: "Back up Cloudflare zone configuration into a timestamped snapshot. Backs up all zones unless projectIds narrows the set.",
		InputSchema: inputSchema(map[string]any{
			"projectIds": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Zone identifiers to back up; omit for all zones",
			},
		}, nil),
	}

	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r backupReq
		if len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, NewValidationError("invalid arguments: %v", err)
			}
		}
		return ops.Backup(ctx, r.ProjectIDs)
	})
}

// --- list_backups ---

type listReq struct {
	ProjectID string `json:"projectId"`
}

func registerListTool(srv *mcp.Server, ops Operations) {
	tool := &mcp.Tool{
		Name:        "list_backups",
		Description: "List available backup snapshots for one zone, newest first.",
		InputSchema: inputSchema(map[string]any{
			"projectId": map[string]any{"type": "string", "description": "Zone identifier"},
		}, []string{"projectId"}),
	}

	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r listReq
		if len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, NewValidationError("invalid arguments: %v", err)
			}
		}
		return ops.ListBackups(ctx, r.ProjectID)
	})
}

// --- restore_project ---

type restoreReq struct {
	ProjectID string `json:"projectId"`
	Timestamp string `json:"timestamp"`
}

func registerRestoreTool(srv *mcp.Server, ops Operations) {
	tool := &mcp.Tool{
		Name:        "restore_project",
		Description: "Restore a zone's configuration from a backup snapshot. Uses the newest snapshot unless timestamp selects one.",
		InputSchema: inputSchema(map[string]any{
			"projectId": map[string]any{"type": "string", "description": "Zone identifier"},
			"timestamp": map[string]any{"type": "string", "description": "Snapshot timestamp; omit for the newest"},
		}, []string{"projectId"}),
	}

	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r restoreReq
		if len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, NewValidationError("invalid arguments: %v", err)
			}
		}
		return ops.Restore(ctx, r.ProjectID, r.Timestamp)
	})
}

var _ Operations = (*Service)(nil)
