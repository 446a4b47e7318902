package fod

import (
	"sync"
	"time"

	"github.com/maldini03/device-sm7125-common/internal/seh"
	"github.com/maldini03/device-sm7125-common/internal/sysfs"
)

// Vendor acquisition event constants.
const (
	// acquiredVendor is the sentinel acquiredInfo value marking a
	// vendor-specific acquisition event.
	acquiredVendor int32 = 6

	// vendorCodeFingerDown and vendorCodeFingerUp are the only two
	// recognised vendor codes under the sentinel.
	vendorCodeFingerDown int32 = 10002
	vendorCodeFingerUp   int32 = 10001
)

// Touch-panel driver commands.
const (
	fodEnableCmd  = "fod_enable,1,1,0"
	fodDisableCmd = "fod_enable,0"
)

// defaultBoostedBrightness is the panel brightness forced while a finger
// is pressed, calibrated for optical sensing on this panel.
const defaultBoostedBrightness = "331"

// Callback receives finger down/up notifications translated from vendor
// acquisition events. A returned error is logged, never propagated.
type Callback interface {
	OnFingerDown() error
	OnFingerUp() error
}

// SignalChannel forwards raw press/release signals to the vendor
// biometrics daemon. Calls are fire-and-forget: the returned error is
// logged and otherwise ignored.
type SignalChannel interface {
	Request(state, param int32, payload []byte) error
}

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds configuration for creating a Controller.
type Options struct {
	// Bootloader is the bootloader identifier used to resolve the
	// device profile.
	Bootloader string

	// TSPCmdPath is the touch-panel driver command file.
	TSPCmdPath string

	// BrightnessPath is the panel backlight brightness file.
	BrightnessPath string

	// BoostedBrightness overrides the brightness forced during a press.
	// Empty selects the calibrated default.
	BoostedBrightness string

	// Channel is the vendor daemon signal channel. May be nil, in which
	// case press/release forwarding is a no-op.
	Channel SignalChannel

	// Logger is optional; a no-op logger is used when nil.
	Logger Logger
}

// Controller is the in-display fingerprint controller for the sm7125
// platform. It owns the resolved device profile, the pending-brightness
// state and the registered finger event callback, and drives the
// touch-panel FOD mode through sysfs.
//
// Lifecycle operations (press/release/show/hide/enroll) must be
// serialized by the caller — the bridge dispatches commands one at a
// time. HandleAcquired and SetCallback are safe to call concurrently
// with each other and with lifecycle operations.
type Controller struct {
	profile Profile

	tspPath        string
	brightnessPath string
	boosted        string

	channel SignalChannel
	logger  Logger

	// callbackMu guards callback. A strong reference is captured under
	// the lock and invoked outside it, so a slow listener never blocks
	// SetCallback.
	callbackMu sync.Mutex
	callback   Callback

	// stateMu guards prevBrightness so the diagnostics API can observe
	// it without racing the lifecycle path.
	stateMu sync.RWMutex
	// prevBrightness is the brightness saved by the last press, empty
	// when nothing is pending. At most one value is outstanding; a
	// second press overwrites rather than stacks.
	prevBrightness string

	sinkMu sync.RWMutex
	sink   EventSink

	// write and read are the sysfs accessors, swappable in tests.
	write func(path, value string) error
	read  func(path, def string) string
}

// NewController creates the controller and programs the touch panel.
//
// Construction resolves the device profile from the bootloader
// identifier, writes the sensor rectangle command for matched models
// (skipped with an error log otherwise), and unconditionally enables
// FOD detection mode. Construction never fails: every degradation is
// logged and absorbed.
//
// Parameters:
//   - opts: Controller options (paths, bootloader identifier, channel)
//
// Returns:
//   - *Controller: Ready controller
func NewController(opts Options) *Controller {
	return newController(opts, sysfs.WriteString, sysfs.ReadStringDefault)
}

func newController(opts Options, write func(string, string) error, read func(string, string) string) *Controller {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.BoostedBrightness == "" {
		opts.BoostedBrightness = defaultBoostedBrightness
	}

	c := &Controller{
		profile:        ResolveProfile(opts.Bootloader),
		tspPath:        opts.TSPCmdPath,
		brightnessPath: opts.BrightnessPath,
		boosted:        opts.BoostedBrightness,
		channel:        opts.Channel,
		logger:         opts.Logger,
		write:          write,
		read:           read,
	}

	if c.profile.Model == ModelUnknown {
		c.logger.Error("device is not an A52 or A72, not setting set_fod_rect",
			"bootloader", opts.Bootloader,
		)
	} else {
		c.logger.Info("device profile resolved", "model", c.profile.Model)
		c.writeTSP(c.profile.Rect.Command())
	}

	c.writeTSP(fodEnableCmd)

	return c
}

// Profile returns the resolved device profile.
func (c *Controller) Profile() Profile {
	return c.profile
}

// PositionX returns the reported sensor X position (0 for unknown devices).
func (c *Controller) PositionX() int32 {
	return c.profile.PositionX
}

// PositionY returns the reported sensor Y position (0 for unknown devices).
func (c *Controller) PositionY() int32 {
	return c.profile.PositionY
}

// Size returns the reported sensor size (0 for unknown devices).
func (c *Controller) Size() int32 {
	return c.profile.Size
}

// OnStartEnroll is reserved for enrollment-specific UI coordination.
func (c *Controller) OnStartEnroll() {
	c.emit(Event{Type: EventEnrollStart})
}

// OnFinishEnroll is reserved for enrollment-specific UI coordination.
func (c *Controller) OnFinishEnroll() {
	c.emit(Event{Type: EventEnrollFinish})
}

// OnPress handles a finger touching the sensor area.
//
// It saves the current brightness (overwriting any stale value from an
// unpaired press), forces the boosted brightness for optical sensing,
// and forwards the pressed signal to the vendor daemon.
func (c *Controller) OnPress() {
	saved := c.read(c.brightnessPath, "")

	c.stateMu.Lock()
	c.prevBrightness = saved
	c.stateMu.Unlock()

	c.writeBrightness(c.boosted)
	c.forwardSignal(true)

	c.emit(Event{Type: EventPress, SavedBrightness: saved})
}

// OnRelease handles the finger leaving the sensor area.
//
// It forwards the released signal, disables FOD detection mode and
// restores the saved brightness if one is pending.
func (c *Controller) OnRelease() {
	c.forwardSignal(false)
	c.writeTSP(fodDisableCmd)
	c.restoreBrightness()

	c.emit(Event{Type: EventRelease})
}

// OnShowFODView is a no-op; overlay presentation is handled outside
// this controller.
func (c *Controller) OnShowFODView() {
	c.emit(Event{Type: EventShow})
}

// OnHideFODView disables FOD detection mode and restores any pending
// brightness. The restore logic is the same as OnRelease because
// show/hide and press/release are independent call pairs that may
// interleave.
func (c *Controller) OnHideFODView() {
	c.writeTSP(fodDisableCmd)
	c.restoreBrightness()

	c.emit(Event{Type: EventHide})
}

// HandleAcquired classifies a raw sensor acquisition event.
//
// Only events where acquiredInfo equals the vendor sentinel and
// vendorCode is one of the two recognised codes are translated into
// callback notifications. Everything else is logged and reported as
// not handled. With no callback registered nothing is handled,
// regardless of the codes supplied.
//
// Parameters:
//   - acquiredInfo: Raw acquisition class from the sensor HAL
//   - vendorCode: Vendor-specific event code
//
// Returns:
//   - bool: true if the event was translated and delivered
func (c *Controller) HandleAcquired(acquiredInfo, vendorCode int32) bool {
	c.callbackMu.Lock()
	callback := c.callback
	c.callbackMu.Unlock()

	if callback == nil {
		return false
	}

	if acquiredInfo == acquiredVendor {
		switch vendorCode {
		case vendorCodeFingerDown:
			if err := callback.OnFingerDown(); err != nil {
				c.logger.Error("finger down callback failed", "error", err)
			}
			c.emit(Event{Type: EventFingerDown, AcquiredInfo: acquiredInfo, VendorCode: vendorCode})
			return true
		case vendorCodeFingerUp:
			if err := callback.OnFingerUp(); err != nil {
				c.logger.Error("finger up callback failed", "error", err)
			}
			c.emit(Event{Type: EventFingerUp, AcquiredInfo: acquiredInfo, VendorCode: vendorCode})
			return true
		}
	}

	c.logger.Error("unrecognised acquisition event",
		"acquired_info", acquiredInfo,
		"vendor_code", vendorCode,
	)
	c.emit(Event{Type: EventAcquiredIgnored, AcquiredInfo: acquiredInfo, VendorCode: vendorCode})
	return false
}

// HandleError reports sensor errors as not handled; no error categories
// are currently recognised on this device.
func (c *Controller) HandleError(_, _ int32) bool {
	return false
}

// SetLongPressEnabled is accepted for interface compatibility; the
// panel has no long-press mode.
func (c *Controller) SetLongPressEnabled(bool) {}

// GetDimAmount returns 0: no dimming curve is implemented for this panel.
func (c *Controller) GetDimAmount(_ int32) int32 {
	return 0
}

// ShouldBoostBrightness returns false: brightness boosting is handled by
// the fixed OnPress override, not a separate boost path.
func (c *Controller) ShouldBoostBrightness() bool {
	return false
}

// SetCallback replaces the registered finger event callback.
// A nil callback deregisters the listener.
func (c *Controller) SetCallback(callback Callback) {
	c.callbackMu.Lock()
	c.callback = callback
	c.callbackMu.Unlock()
}

// CallbackRegistered reports whether a callback is currently registered.
func (c *Controller) CallbackRegistered() bool {
	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	return c.callback != nil
}

// PendingBrightness returns the brightness saved by the last press,
// empty when nothing is pending.
func (c *Controller) PendingBrightness() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.prevBrightness
}

// SetEventSink sets the observer for controller events. A nil sink
// disables emission.
func (c *Controller) SetEventSink(sink EventSink) {
	c.sinkMu.Lock()
	c.sink = sink
	c.sinkMu.Unlock()
}

// restoreBrightness writes back the saved brightness and clears it.
// A pending empty value (unreadable register at press time) means no
// restore write occurs.
func (c *Controller) restoreBrightness() {
	c.stateMu.Lock()
	saved := c.prevBrightness
	c.prevBrightness = ""
	c.stateMu.Unlock()

	if saved == "" {
		return
	}
	c.writeBrightness(saved)
}

// forwardSignal sends the pressed/released signal to the vendor daemon.
// Fire-and-forget: failures are logged and absorbed.
func (c *Controller) forwardSignal(pressed bool) {
	if c.channel == nil {
		return
	}

	param := seh.ParamReleased
	if pressed {
		param = seh.ParamPressed
	}
	if err := c.channel.Request(seh.FingerState, param, seh.FingerStatePayload()); err != nil {
		c.logger.Warn("signal forward failed", "pressed", pressed, "error", err)
	}
}

// writeTSP issues a touch-panel driver command.
func (c *Controller) writeTSP(cmd string) {
	if err := c.write(c.tspPath, cmd); err != nil {
		c.logger.Warn("touch panel command failed", "cmd", cmd, "error", err)
	}
}

// writeBrightness sets the panel backlight brightness.
func (c *Controller) writeBrightness(value string) {
	if err := c.write(c.brightnessPath, value); err != nil {
		c.logger.Warn("brightness write failed", "value", value, "error", err)
	}
}

// emit delivers an event to the sink, if one is set.
func (c *Controller) emit(ev Event) {
	c.sinkMu.RLock()
	sink := c.sink
	c.sinkMu.RUnlock()

	if sink == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	sink.HandleEvent(ev)
}
