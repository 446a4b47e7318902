package history

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the fod_events table.
func setupTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	repo := NewSQLiteRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	return repo
}

// insertEventRow inserts an event row with a specific timestamp.
func insertEventRow(t *testing.T, repo *SQLiteRepository, eventID, eventType string, createdAt time.Time) {
	t.Helper()

	_, err := repo.db.Exec(
		"INSERT INTO fod_events (event_id, type, detail, created_at) VALUES (?, ?, '{}', ?)",
		eventID,
		eventType,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert event row: %v", err)
	}
}

func TestInit_Idempotent(t *testing.T) {
	repo := setupTestDB(t)

	// A second Init against an existing schema must not fail.
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
}

func TestRecordEvent(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	detail := map[string]any{"saved_brightness": "151"}
	if err := repo.RecordEvent(ctx, "evt-1", "press", detail); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}

	entries, err := repo.GetEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.EventID != "evt-1" {
		t.Errorf("EventID = %q, want %q", entry.EventID, "evt-1")
	}
	if entry.Type != "press" {
		t.Errorf("Type = %q, want %q", entry.Type, "press")
	}
	if got := entry.Detail["saved_brightness"]; got != "151" {
		t.Errorf("Detail[saved_brightness] = %v, want %q", got, "151")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestRecordEvent_Validation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	if err := repo.RecordEvent(ctx, "", "press", nil); err == nil {
		t.Error("expected error for empty event id")
	}
	if err := repo.RecordEvent(ctx, "evt-1", "", nil); err == nil {
		t.Error("expected error for empty event type")
	}
}

func TestRecordEvent_NilDetail(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	if err := repo.RecordEvent(ctx, "evt-1", "release", nil); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}

	entries, err := repo.GetEvents(ctx, 1)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(entries[0].Detail) != 0 {
		t.Errorf("Detail = %v, want empty", entries[0].Detail)
	}
}

func TestGetEvents_NewestFirst(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	insertEventRow(t, repo, "evt-1", "press", base)
	insertEventRow(t, repo, "evt-2", "release", base.Add(time.Minute))
	insertEventRow(t, repo, "evt-3", "press", base.Add(2*time.Minute))

	entries, err := repo.GetEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries length = %d, want 3", len(entries))
	}

	want := []string{"evt-3", "evt-2", "evt-1"}
	for i, entry := range entries {
		if entry.EventID != want[i] {
			t.Errorf("entry[%d].EventID = %q, want %q", i, entry.EventID, want[i])
		}
	}
}

func TestGetEvents_LimitClamping(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 60; i++ {
		insertEventRow(t, repo, fmt.Sprintf("evt-%d", i), "press", base.Add(time.Duration(i)*time.Second))
	}

	// Zero limit falls back to the default.
	entries, err := repo.GetEvents(ctx, 0)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(entries) != defaultEventLimit {
		t.Errorf("entries length = %d, want default %d", len(entries), defaultEventLimit)
	}

	// Oversized limits are clamped; with 60 rows a clamp to 200 returns all.
	entries, err = repo.GetEvents(ctx, 10000)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(entries) != 60 {
		t.Errorf("entries length = %d, want 60", len(entries))
	}
}

func TestPrune(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	insertEventRow(t, repo, "evt-old", "press", time.Now().UTC().Add(-48*time.Hour))
	insertEventRow(t, repo, "evt-new", "release", time.Now().UTC())

	deleted, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.GetEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(entries) != 1 || entries[0].EventID != "evt-new" {
		t.Errorf("remaining entries = %+v, want only evt-new", entries)
	}
}

func TestPrune_InvalidDuration(t *testing.T) {
	repo := setupTestDB(t)

	if _, err := repo.Prune(context.Background(), 0); err == nil {
		t.Error("expected error for non-positive duration")
	}
}
