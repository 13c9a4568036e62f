package history_test

import (
	"testing"
	"time"

	"cfbak/internal/config"
	"cfbak/internal/history"
)

func openTestStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, op := range []string{"backup", "list", "restore"} {
		run := &history.Run{
			Operation: op,
			ZoneID:    "abc123",
			Status:    "success",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if op == "restore" {
			run.Snapshot = "2024-01-01T00-00-00.000Z"
		}
		if err := s.Record(run); err != nil {
			t.Fatalf("Record(%s) error = %v", op, err)
		}
		if run.ID == "" {
			t.Errorf("Record(%s) did not assign an id", op)
		}
	}

	runs, err := s.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].Operation != "restore" || runs[2].Operation != "backup" {
		t.Errorf("runs out of order: %s, %s, %s", runs[0].Operation, runs[1].Operation, runs[2].Operation)
	}
	if runs[0].Snapshot != "2024-01-01T00-00-00.000Z" {
		t.Errorf("snapshot = %s", runs[0].Snapshot)
	}
}

func TestStore_ListLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.Record(&history.Run{Operation: "backup", Status: "success"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	runs, err := s.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestStore_RecordsErrors(t *testing.T) {
	s := openTestStore(t)

	if err := s.Record(&history.Run{
		Operation: "restore",
		ZoneID:    "abc123",
		Status:    "error",
		Error:     "snapshot not found: 2030-01-01T00-00-00.000Z",
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	runs, err := s.List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if runs[0].Status != "error" || runs[0].Error == "" {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := history.NewStoreFromConfig(config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer s.Close()

		if err := s.Record(&history.Run{Operation: "backup", Status: "success"}); err != nil {
			t.Errorf("Record() error = %v", err)
		}
	})

	t.Run("sqlite creates the data directory", func(t *testing.T) {
		dir := t.TempDir() + "/nested/db"
		s, err := history.NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		defer s.Close()
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		if _, err := history.NewStoreFromConfig(config.DatabaseConfig{Type: "postgres"}); err == nil {
			t.Error("NewStoreFromConfig() expected error")
		}
	})

	t.Run("sqlite requires a data dir", func(t *testing.T) {
		if _, err := history.NewStoreFromConfig(config.DatabaseConfig{Type: "sqlite"}); err == nil {
			t.Error("NewStoreFromConfig() expected error")
		}
	})
}
