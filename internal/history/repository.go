package history

import (
	"context"
	"time"
)

// Entry represents a single recorded fingerprint event.
//
// Each entry is a full snapshot of what the controller reported, so the
// local audit trail stays useful even when the time-series database is
// disabled or unreachable.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// EventID is the unique identifier assigned when the event was
	// recorded, used to correlate with acks and telemetry.
	EventID string `json:"event_id"`

	// Type classifies the event (press, release, finger_down, ...).
	Type string `json:"type"`

	// Detail holds event-specific fields (saved brightness, vendor codes).
	Detail map[string]any `json:"detail"`

	// CreatedAt is the timestamp of the event (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves fingerprint event history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordEvent persists an event.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - eventID: Unique event identifier
	//   - eventType: Event classification
	//   - detail: Event-specific fields (may be nil)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordEvent(ctx context.Context, eventID, eventType string, detail map[string]any) error

	// GetEvents returns recent events, ordered newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Entry: Ordered newest-first entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetEvents(ctx context.Context, limit int) ([]Entry, error)
}
