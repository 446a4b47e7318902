package fod

import "time"

// EventType classifies a controller event.
type EventType string

// Controller event types.
const (
	EventPress           EventType = "press"
	EventRelease         EventType = "release"
	EventShow            EventType = "show"
	EventHide            EventType = "hide"
	EventEnrollStart     EventType = "enroll_start"
	EventEnrollFinish    EventType = "enroll_finish"
	EventFingerDown      EventType = "finger_down"
	EventFingerUp        EventType = "finger_up"
	EventAcquiredIgnored EventType = "acquired_ignored"
)

// Event describes a controller lifecycle or classification outcome.
//
// Events are observational: history, telemetry and the diagnostics stream
// consume them, but emission never changes an operation's result.
type Event struct {
	// Type classifies the event.
	Type EventType `json:"type"`

	// AcquiredInfo and VendorCode are set for acquisition events
	// (EventFingerDown, EventFingerUp, EventAcquiredIgnored).
	AcquiredInfo int32 `json:"acquired_info,omitempty"`
	VendorCode   int32 `json:"vendor_code,omitempty"`

	// SavedBrightness is the brightness captured before the boost
	// (EventPress only; empty if the register was unreadable).
	SavedBrightness string `json:"saved_brightness,omitempty"`

	// Timestamp is when the event was emitted (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives controller events.
//
// Implementations must not block: HandleEvent is called synchronously on
// the lifecycle path.
type EventSink interface {
	HandleEvent(ev Event)
}
