package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maldini03/device-sm7125-common/internal/infrastructure/mqtt"
)

// Lifecycle command names, as they appear in fodhal/command/{name}.
const (
	CommandPress        = "press"
	CommandRelease      = "release"
	CommandShow         = "show"
	CommandHide         = "hide"
	CommandEnrollStart  = "enroll_start"
	CommandEnrollFinish = "enroll_finish"
	CommandLongPress    = "long_press"
	CommandAcquired     = "acquired"
	CommandError        = "error"
)

// minTopicParts is the minimum number of parts in a valid command topic.
const minTopicParts = 3

// command is a queued lifecycle command awaiting dispatch.
type command struct {
	name    string
	id      string
	payload []byte
}

// commandEnvelope is the optional JSON body of a command message.
//
// Every field is optional: bare lifecycle commands carry an empty payload
// and get a generated correlation ID.
type commandEnvelope struct {
	// ID correlates the command with its ack. Generated when absent.
	ID string `json:"id,omitempty"`

	// Enabled is used by long_press.
	Enabled bool `json:"enabled,omitempty"`

	// AcquiredInfo and VendorCode are used by acquired.
	AcquiredInfo int32 `json:"acquired_info,omitempty"`
	VendorCode   int32 `json:"vendor_code,omitempty"`

	// ErrorCode is used by error.
	ErrorCode int32 `json:"error_code,omitempty"`
}

// ack is the acknowledgement published for every dispatched command.
type ack struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Handled   bool      `json:"handled"`
	Timestamp time.Time `json:"timestamp"`
}

// handleCommandMessage enqueues an incoming command for ordered dispatch.
//
// The handler runs on a paho goroutine; actual controller calls happen on
// the dispatch worker so lifecycle ordering matches arrival order.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicParts {
		return fmt.Errorf("malformed command topic: %q", topic)
	}
	name := parts[len(parts)-1]

	var envelope commandEnvelope
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return fmt.Errorf("parsing command payload on %q: %w", topic, err)
		}
	}
	if envelope.ID == "" {
		envelope.ID = uuid.NewString()
	}

	cmd := command{name: name, id: envelope.ID, payload: payload}

	select {
	case b.queue <- cmd:
		return nil
	case <-b.done:
		return fmt.Errorf("bridge is shutting down")
	default:
		return fmt.Errorf("command queue full, dropping %q", name)
	}
}

// dispatchLoop drains the command queue until Stop is called.
func (b *Bridge) dispatchLoop() {
	defer b.wg.Done()

	for {
		select {
		case cmd := <-b.queue:
			handled := b.dispatch(cmd)
			b.publishAck(cmd, handled)
		case <-b.done:
			return
		}
	}
}

// dispatch executes a single command against the controller and reports
// whether it was handled.
func (b *Bridge) dispatch(cmd command) bool {
	var envelope commandEnvelope
	if len(cmd.payload) > 0 {
		// Already validated in handleCommandMessage.
		_ = json.Unmarshal(cmd.payload, &envelope) //nolint:errcheck
	}

	switch cmd.name {
	case CommandPress:
		b.controller.OnPress()
	case CommandRelease:
		b.controller.OnRelease()
	case CommandShow:
		b.controller.OnShowFODView()
	case CommandHide:
		b.controller.OnHideFODView()
	case CommandEnrollStart:
		b.controller.OnStartEnroll()
	case CommandEnrollFinish:
		b.controller.OnFinishEnroll()
	case CommandLongPress:
		b.controller.SetLongPressEnabled(envelope.Enabled)
	case CommandAcquired:
		return b.controller.HandleAcquired(envelope.AcquiredInfo, envelope.VendorCode)
	case CommandError:
		return b.controller.HandleError(envelope.ErrorCode, envelope.VendorCode)
	default:
		b.getLogger().Warn("unknown command", "command", cmd.name)
		return false
	}

	return true
}

// publishAck publishes the command outcome to the ack topic.
func (b *Bridge) publishAck(cmd command, handled bool) {
	payload, err := json.Marshal(ack{
		ID:        cmd.id,
		Command:   cmd.name,
		Handled:   handled,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		b.getLogger().Error("marshalling ack", "command", cmd.name, "error", err)
		return
	}

	topic := mqtt.Topics{}.Ack(cmd.name)
	if err := b.mqtt.Publish(topic, payload, b.qos, false); err != nil {
		b.getLogger().Warn("publishing ack", "command", cmd.name, "error", err)
	}
}
