package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"cfbak/internal/cfbak"
	"cfbak/internal/cloudflare"
	"cfbak/internal/config"
	"cfbak/internal/history"
	"cfbak/internal/store"
)

// App is the application layer between the CLI (or MCP server) and the
// orchestration Service. It constructs all dependencies from config,
// records each operation in the local run history, and manages resource
// lifecycle on Close.
type App struct {
	cfg     *config.Config
	service *cfbak.Service
	runs    *history.Store
	logFile *os.File
}

// New creates a fully wired App from the given config. The caller applies
// environment credentials and validates the config first, and must call
// Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	zones := cloudflare.NewClient(cfg.Cloudflare.APIToken, log)

	st, err := store.NewStoreFromConfig(ctx, cfg.Store, log)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	runs, err := history.NewStoreFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	svc := cfbak.NewService(zones, st, log, cfbak.RealClock{})

	return &App{
		cfg:     cfg,
		service: svc,
		runs:    runs,
		logFile: logFile,
	}, nil
}

// record writes one run to the local history. A history failure is reported
// on stderr but never fails the operation itself.
func (a *App) record(op, zoneID, snapshot string, opErr error) {
	run := &history.Run{
		Operation: op,
		ZoneID:    zoneID,
		Snapshot:  snapshot,
		Status:    "success",
	}
	if opErr != nil {
		run.Status = "error"
		run.Error = opErr.Error()
	}
	if err := a.runs.Record(run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run history: %v\n", err)
	}
}

// Backup runs a backup for every zone, or for the given subset.
func (a *App) Backup(ctx context.Context, zoneIDs []string) (*cfbak.BackupResult, error) {
	result, err := a.service.Backup(ctx, zoneIDs)
	a.record("backup", strings.Join(zoneIDs, ","), "", err)
	return result, err
}

// ListBackups lists the snapshots available for one zone, newest first.
func (a *App) ListBackups(ctx context.Context, zoneID string) ([]cfbak.Snapshot, error) {
	snapshots, err := a.service.ListBackups(ctx, zoneID)
	a.record("list", zoneID, "", err)
	return snapshots, err
}

// Restore restores one zone from a snapshot (the newest when timestamp is
// empty).
func (a *App) Restore(ctx context.Context, zoneID, timestamp string) (*cfbak.RestoreResult, error) {
	result, err := a.service.Restore(ctx, zoneID, timestamp)
	restored := timestamp
	if err == nil {
		restored = result.Timestamp
	}
	a.record("restore", zoneID, restored, err)
	return result, err
}

// History returns the most recent recorded runs, newest first.
func (a *App) History(limit int) ([]*history.Run, error) {
	return a.runs.List(limit)
}

// Close releases the run history database and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.runs.Close(); err != nil {
		firstErr = err
	}
	if err := a.logFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

var _ cfbak.Operations = (*App)(nil)
