package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// createEventsTable is the idempotent schema for the event history store.
// fodhald owns a single table, so schema setup happens at startup instead
// of through a migration chain.
const createEventsTable = `
CREATE TABLE IF NOT EXISTS fod_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fod_events_created_at ON fod_events(created_at);
`

// SQLiteRepository implements Repository using SQLite.
//
// It stores event details as JSON in the fod_events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite event history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Init creates the event table if it does not exist.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createEventsTable); err != nil {
		return fmt.Errorf("creating fod_events table: %w", err)
	}
	return nil
}

// RecordEvent inserts a new event history entry.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - eventID: Unique event identifier
//   - eventType: Event classification
//   - detail: Event-specific fields (nil is stored as an empty object)
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) RecordEvent(ctx context.Context, eventID, eventType string, detail map[string]any) error {
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}
	if detail == nil {
		detail = map[string]any{}
	}

	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshalling event detail: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO fod_events (event_id, type, detail, created_at) VALUES (?, ?, ?, ?)",
		eventID,
		eventType,
		string(detailJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// GetEvents returns recent events, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Entry: Entries ordered by created_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) GetEvents(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, type, detail, created_at
		 FROM fod_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var detailJSON string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.Type, &detailJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		if err := json.Unmarshal([]byte(detailJSON), &entry.Detail); err != nil {
			return nil, fmt.Errorf("unmarshalling event detail: %w", err)
		}

		timestamp, err := parseEventTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return entries, nil
}

// Prune deletes events older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM fod_events WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseEventTimestamp parses a timestamp stored in SQLite.
func parseEventTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}

	return timestamp, nil
}
