package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/maldini03/device-sm7125-common/internal/fod"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/mqtt"
)

// fingerEventTopic is the event name downstream consumers subscribe to for
// translated finger notifications.
const fingerEventTopic = "finger"

// fingerNotification is the payload published on finger down/up callbacks.
type fingerNotification struct {
	Direction string    `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// streamEvent is the JSON shape fanned out to history consumers, the
// websocket hub and the event topics.
type streamEvent struct {
	EventID string         `json:"event_id"`
	Type    string         `json:"type"`
	Detail  map[string]any `json:"detail,omitempty"`
	Time    time.Time      `json:"timestamp"`
}

// OnFingerDown publishes the finger-down notification.
// Part of the controller callback contract; the returned error is logged
// by the controller, never retried.
func (b *Bridge) OnFingerDown() error {
	return b.publishFinger("down")
}

// OnFingerUp publishes the finger-up notification.
func (b *Bridge) OnFingerUp() error {
	return b.publishFinger("up")
}

func (b *Bridge) publishFinger(direction string) error {
	payload, err := json.Marshal(fingerNotification{
		Direction: direction,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshalling finger notification: %w", err)
	}

	topic := mqtt.Topics{}.Event(fingerEventTopic)
	if err := b.mqtt.Publish(topic, payload, b.qos, false); err != nil {
		return fmt.Errorf("publishing finger notification: %w", err)
	}
	return nil
}

// HandleEvent fans a controller event out to every observer: the local
// history store, telemetry, the websocket hub and the per-type event topic.
//
// Observation failures are logged and never affect the controller: a dead
// database or broker must not break fingerprint operation.
func (b *Bridge) HandleEvent(ev fod.Event) {
	eventID := uuid.NewString()
	detail := eventDetail(ev)
	model := string(b.controller.Profile().Model)

	if b.recorder != nil {
		ctx, cancel := context.WithTimeout(b.ctx, recordTimeout)
		if err := b.recorder.RecordEvent(ctx, eventID, string(ev.Type), detail); err != nil {
			b.getLogger().Warn("recording event", "type", ev.Type, "error", err)
		}
		cancel()
	}

	if b.telemetry != nil {
		b.telemetry.WriteFingerEvent(model, string(ev.Type))
		if ev.Type == fod.EventPress {
			saved, _ := strconv.Atoi(ev.SavedBrightness) //nolint:errcheck // 0 for unreadable
			b.telemetry.WriteBrightnessOverride(model, saved, b.boosted)
		}
	}

	payload, err := json.Marshal(streamEvent{
		EventID: eventID,
		Type:    string(ev.Type),
		Detail:  detail,
		Time:    ev.Timestamp,
	})
	if err != nil {
		b.getLogger().Error("marshalling event", "type", ev.Type, "error", err)
		return
	}

	if b.hub != nil {
		b.hub.Broadcast(payload)
	}

	topic := mqtt.Topics{}.Event(string(ev.Type))
	if err := b.mqtt.Publish(topic, payload, b.qos, false); err != nil {
		b.getLogger().Warn("publishing event", "type", ev.Type, "error", err)
	}
}

// eventDetail extracts the type-specific fields of an event.
func eventDetail(ev fod.Event) map[string]any {
	detail := map[string]any{}

	switch ev.Type {
	case fod.EventPress:
		detail["saved_brightness"] = ev.SavedBrightness
	case fod.EventFingerDown, fod.EventFingerUp, fod.EventAcquiredIgnored:
		detail["acquired_info"] = ev.AcquiredInfo
		detail["vendor_code"] = ev.VendorCode
	}

	return detail
}
