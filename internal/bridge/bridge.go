package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/maldini03/device-sm7125-common/internal/fod"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// commandQueueSize bounds the number of commands waiting for dispatch.
	commandQueueSize = 32

	// recordTimeout is the per-event deadline for history writes.
	recordTimeout = 2 * time.Second
)

// Bridge connects the fingerprint controller to the MQTT surface.
// It handles:
//   - Receiving lifecycle commands over MQTT and dispatching them to the
//     controller, in arrival order, one at a time
//   - Acknowledging every command with its handled outcome
//   - Fanning controller events out to history, telemetry, the websocket
//     hub and the event topics
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt       MQTTClient
	controller Controller
	recorder   Recorder
	telemetry  Telemetry
	hub        Broadcaster

	qos     byte
	boosted int

	// queue serializes command dispatch: MQTT handlers enqueue, a single
	// worker goroutine drains. Lifecycle ordering depends on this.
	queue chan command

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Controller is the fingerprint controller surface the bridge drives.
// Satisfied by *fod.Controller.
type Controller interface {
	OnPress()
	OnRelease()
	OnShowFODView()
	OnHideFODView()
	OnStartEnroll()
	OnFinishEnroll()
	HandleAcquired(acquiredInfo, vendorCode int32) bool
	HandleError(errorCode, vendorCode int32) bool
	SetLongPressEnabled(enabled bool)
	SetCallback(callback fod.Callback)
	SetEventSink(sink fod.EventSink)
	Profile() fod.Profile
}

// Recorder persists events to the local history store.
// This is optional - if nil, the bridge operates without persistence.
type Recorder interface {
	RecordEvent(ctx context.Context, eventID, eventType string, detail map[string]any) error
}

// Telemetry writes event metrics to the time-series database.
// This is optional - if nil, the bridge operates without telemetry.
type Telemetry interface {
	WriteFingerEvent(model string, eventType string)
	WriteBrightnessOverride(model string, saved int, boosted int)
}

// Broadcaster pushes event JSON to connected diagnostics clients.
// This is optional - if nil, the bridge operates without streaming.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Controller is the fingerprint controller to drive.
	Controller Controller

	// QoS is the MQTT quality of service level for bridge traffic.
	QoS byte

	// BoostedBrightness is the configured boost value, reported in
	// brightness telemetry.
	BoostedBrightness string

	// Recorder is optional history persistence. If nil, events are not
	// recorded locally.
	Recorder Recorder

	// Telemetry is optional time-series output. If nil, no metrics are
	// written.
	Telemetry Telemetry

	// Hub is optional websocket fan-out. If nil, no streaming occurs.
	Hub Broadcaster

	// Logger is optional structured logger.
	Logger Logger
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	boosted, err := strconv.Atoi(opts.BoostedBrightness)
	if err != nil {
		boosted = 0
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		mqtt:       opts.MQTTClient,
		controller: opts.Controller,
		recorder:   opts.Recorder,
		telemetry:  opts.Telemetry,
		hub:        opts.Hub,
		qos:        opts.QoS,
		boosted:    boosted,
		queue:      make(chan command, commandQueueSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}, nil
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Start begins bridge operation.
// This registers the bridge as the controller's callback and event sink,
// subscribes to the command topics, publishes the retained geometry state
// and starts the dispatch worker.
func (b *Bridge) Start() error {
	b.controller.SetCallback(b)
	b.controller.SetEventSink(b)

	if err := b.mqtt.Subscribe(mqtt.Topics{}.CommandWildcard(), b.qos, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}

	b.publishGeometry()

	b.wg.Add(1)
	go b.dispatchLoop()

	b.getLogger().Info("bridge started",
		"model", string(b.controller.Profile().Model),
	)
	return nil
}

// Stop shuts the bridge down.
// In-flight commands are abandoned; the controller's callback and sink
// registrations are cleared so no further events are produced.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.controller.SetCallback(nil)
		b.controller.SetEventSink(nil)

		b.ctxCancel()
		close(b.done)
		b.wg.Wait()

		b.getLogger().Info("bridge stopped")
	})
}

// publishGeometry publishes the resolved sensor geometry as retained state,
// so late subscribers learn the device layout without a round trip.
func (b *Bridge) publishGeometry() {
	profile := b.controller.Profile()

	payload, err := json.Marshal(profile)
	if err != nil {
		b.getLogger().Error("marshalling geometry state", "error", err)
		return
	}

	topic := mqtt.Topics{}.State("geometry")
	if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
		b.getLogger().Warn("publishing geometry state", "error", err)
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}
