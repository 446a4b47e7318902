package fod

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/maldini03/device-sm7125-common/internal/seh"
)

const (
	testTSPPath        = "/test/tsp/cmd"
	testBrightnessPath = "/test/backlight/brightness"
)

// sysfsWrite records a single write issued by the controller.
type sysfsWrite struct {
	path  string
	value string
}

// fakeSysfs records writes and serves reads from an in-memory register map.
// Writes update the map, so a press followed by another press observes the
// boosted value, the same way the real backlight register behaves.
type fakeSysfs struct {
	writes   []sysfsWrite
	values   map[string]string
	writeErr error
}

func newFakeSysfs() *fakeSysfs {
	return &fakeSysfs{values: make(map[string]string)}
}

func (f *fakeSysfs) write(path, value string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, sysfsWrite{path: path, value: value})
	f.values[path] = value
	return nil
}

func (f *fakeSysfs) read(path, def string) string {
	value, ok := f.values[path]
	if !ok {
		return def
	}
	return value
}

// writesTo filters the recorded writes down to a single path.
func (f *fakeSysfs) writesTo(path string) []string {
	var values []string
	for _, w := range f.writes {
		if w.path == path {
			values = append(values, w.value)
		}
	}
	return values
}

// signalRequest records one vendor daemon request.
type signalRequest struct {
	state   int32
	param   int32
	payload []byte
}

type fakeChannel struct {
	requests []signalRequest
	err      error
}

func (f *fakeChannel) Request(state, param int32, payload []byte) error {
	f.requests = append(f.requests, signalRequest{state: state, param: param, payload: payload})
	return f.err
}

type fakeCallback struct {
	downs int
	ups   int
	err   error
}

func (f *fakeCallback) OnFingerDown() error { f.downs++; return f.err }
func (f *fakeCallback) OnFingerUp() error   { f.ups++; return f.err }

// recordingSink captures emitted events.
type recordingSink struct {
	events []Event
}

func (r *recordingSink) HandleEvent(ev Event) {
	r.events = append(r.events, ev)
}

func newTestController(t *testing.T, bootloader string, fs *fakeSysfs, channel SignalChannel) *Controller {
	t.Helper()

	return newController(Options{
		Bootloader:     bootloader,
		TSPCmdPath:     testTSPPath,
		BrightnessPath: testBrightnessPath,
		Channel:        channel,
	}, fs.write, fs.read)
}

func TestNewController_KnownModelProgramsPanel(t *testing.T) {
	tests := []struct {
		name       string
		bootloader string
		wantRect   string
	}{
		{
			name:       "a525",
			bootloader: "A525FXXS4BVG1",
			wantRect:   "set_fod_rect,421,2018,659,2256",
		},
		{
			name:       "a725",
			bootloader: "A725FXXU4BVF1",
			wantRect:   "set_fod_rect,426,2031,654,2259",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeSysfs()
			newTestController(t, tt.bootloader, fs, nil)

			got := fs.writesTo(testTSPPath)
			want := []string{tt.wantRect, "fod_enable,1,1,0"}
			if len(got) != len(want) {
				t.Fatalf("tsp writes = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("tsp write[%d] = %q, want %q", i, got[i], want[i])
				}
			}
		})
	}
}

func TestNewController_UnknownModelSkipsRect(t *testing.T) {
	fs := newFakeSysfs()
	c := newTestController(t, "G780FXXU6DVF5", fs, nil)

	got := fs.writesTo(testTSPPath)
	if len(got) != 1 || got[0] != "fod_enable,1,1,0" {
		t.Fatalf("tsp writes = %v, want only fod_enable,1,1,0", got)
	}

	if c.PositionX() != 0 || c.PositionY() != 0 || c.Size() != 0 {
		t.Errorf("unknown device geometry = (%d, %d, %d), want all zero",
			c.PositionX(), c.PositionY(), c.Size())
	}
}

func TestController_GeometryAccessors(t *testing.T) {
	fs := newFakeSysfs()
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	if c.PositionX() != 421 {
		t.Errorf("PositionX() = %d, want 421", c.PositionX())
	}
	if c.PositionY() != 2018 {
		t.Errorf("PositionY() = %d, want 2018", c.PositionY())
	}
	if c.Size() != 238 {
		t.Errorf("Size() = %d, want 238", c.Size())
	}
	if c.Profile().Model != ModelA525 {
		t.Errorf("Profile().Model = %q, want %q", c.Profile().Model, ModelA525)
	}
}

func TestOnPress_BoostsAndForwards(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	channel := &fakeChannel{}
	c := newTestController(t, "A525FXXS4BVG1", fs, channel)

	c.OnPress()

	if got := fs.writesTo(testBrightnessPath); len(got) != 1 || got[0] != "331" {
		t.Errorf("brightness writes = %v, want [331]", got)
	}
	if got := c.PendingBrightness(); got != "151" {
		t.Errorf("PendingBrightness() = %q, want %q", got, "151")
	}

	if len(channel.requests) != 1 {
		t.Fatalf("channel requests = %d, want 1", len(channel.requests))
	}
	req := channel.requests[0]
	if req.state != seh.FingerState || req.param != seh.ParamPressed {
		t.Errorf("request = (%d, %d), want (%d, %d)",
			req.state, req.param, seh.FingerState, seh.ParamPressed)
	}
	if !bytes.Equal(req.payload, seh.FingerStatePayload()) {
		t.Error("request payload does not match finger state payload")
	}
}

func TestOnRelease_DisablesAndRestores(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	channel := &fakeChannel{}
	c := newTestController(t, "A525FXXS4BVG1", fs, channel)

	c.OnPress()
	c.OnRelease()

	if got := fs.writesTo(testBrightnessPath); len(got) != 2 || got[1] != "151" {
		t.Errorf("brightness writes = %v, want boost then restore to 151", got)
	}
	if got := c.PendingBrightness(); got != "" {
		t.Errorf("PendingBrightness() after release = %q, want empty", got)
	}

	tspWrites := fs.writesTo(testTSPPath)
	if tspWrites[len(tspWrites)-1] != "fod_enable,0" {
		t.Errorf("last tsp write = %q, want fod_enable,0", tspWrites[len(tspWrites)-1])
	}

	if len(channel.requests) != 2 {
		t.Fatalf("channel requests = %d, want 2", len(channel.requests))
	}
	if channel.requests[1].param != seh.ParamReleased {
		t.Errorf("release param = %d, want %d", channel.requests[1].param, seh.ParamReleased)
	}
}

func TestOnRelease_WithoutPress_NoRestore(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	c.OnRelease()

	if got := fs.writesTo(testBrightnessPath); len(got) != 0 {
		t.Errorf("brightness writes = %v, want none", got)
	}
}

func TestOnHideFODView_Restores(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "204"
	c := newTestController(t, "A725FXXU4BVF1", fs, nil)

	c.OnPress()
	c.OnHideFODView()

	got := fs.writesTo(testBrightnessPath)
	if len(got) != 2 || got[1] != "204" {
		t.Errorf("brightness writes = %v, want boost then restore to 204", got)
	}

	tspWrites := fs.writesTo(testTSPPath)
	if tspWrites[len(tspWrites)-1] != "fod_enable,0" {
		t.Errorf("last tsp write = %q, want fod_enable,0", tspWrites[len(tspWrites)-1])
	}
}

func TestReleaseThenHide_RestoresOnce(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	c.OnPress()
	c.OnRelease()
	c.OnHideFODView()

	// One boost write, one restore write; the hide must not restore again.
	if got := fs.writesTo(testBrightnessPath); len(got) != 2 {
		t.Errorf("brightness writes = %v, want exactly boost and one restore", got)
	}
}

func TestDoublePress_SecondSaveWins(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "100"
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	c.OnPress()
	// The register now holds the boosted value; an unpaired second press
	// saves that, discarding the original 100.
	c.OnPress()

	if got := c.PendingBrightness(); got != "331" {
		t.Errorf("PendingBrightness() after double press = %q, want %q", got, "331")
	}

	c.OnRelease()
	got := fs.writesTo(testBrightnessPath)
	if got[len(got)-1] != "331" {
		t.Errorf("restore write = %q, want %q", got[len(got)-1], "331")
	}
}

func TestOnPress_UnreadableBrightness(t *testing.T) {
	fs := newFakeSysfs()
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	c.OnPress()

	if got := c.PendingBrightness(); got != "" {
		t.Errorf("PendingBrightness() = %q, want empty for unreadable register", got)
	}

	c.OnRelease()

	// The boost was written, but nothing is restored over it.
	if got := fs.writesTo(testBrightnessPath); len(got) != 1 || got[0] != "331" {
		t.Errorf("brightness writes = %v, want only the boost", got)
	}
}

func TestOnPress_WriteFailureAbsorbed(t *testing.T) {
	fs := newFakeSysfs()
	fs.writeErr = errors.New("permission denied")
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	// Must not panic or propagate the failure.
	c.OnPress()
	c.OnRelease()
}

func TestHandleAcquired(t *testing.T) {
	tests := []struct {
		name         string
		acquiredInfo int32
		vendorCode   int32
		wantHandled  bool
		wantDowns    int
		wantUps      int
	}{
		{name: "finger down", acquiredInfo: 6, vendorCode: 10002, wantHandled: true, wantDowns: 1},
		{name: "finger up", acquiredInfo: 6, vendorCode: 10001, wantHandled: true, wantUps: 1},
		{name: "sentinel with unknown code", acquiredInfo: 6, vendorCode: 10003, wantHandled: false},
		{name: "wrong sentinel with down code", acquiredInfo: 0, vendorCode: 10002, wantHandled: false},
		{name: "good acquisition", acquiredInfo: 0, vendorCode: 0, wantHandled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)
			callback := &fakeCallback{}
			c.SetCallback(callback)

			if got := c.HandleAcquired(tt.acquiredInfo, tt.vendorCode); got != tt.wantHandled {
				t.Errorf("HandleAcquired(%d, %d) = %v, want %v",
					tt.acquiredInfo, tt.vendorCode, got, tt.wantHandled)
			}
			if callback.downs != tt.wantDowns {
				t.Errorf("OnFingerDown calls = %d, want %d", callback.downs, tt.wantDowns)
			}
			if callback.ups != tt.wantUps {
				t.Errorf("OnFingerUp calls = %d, want %d", callback.ups, tt.wantUps)
			}
		})
	}
}

func TestHandleAcquired_NoCallback(t *testing.T) {
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)

	if c.HandleAcquired(6, 10002) {
		t.Error("HandleAcquired() = true without a registered callback")
	}
}

func TestHandleAcquired_CallbackErrorStillHandled(t *testing.T) {
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)
	callback := &fakeCallback{err: fmt.Errorf("listener gone")}
	c.SetCallback(callback)

	if !c.HandleAcquired(6, 10002) {
		t.Error("HandleAcquired() = false, want true even when the callback errors")
	}
}

func TestSetCallback_NilDeregisters(t *testing.T) {
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)

	if c.CallbackRegistered() {
		t.Error("new controller should have no callback")
	}

	c.SetCallback(&fakeCallback{})
	if !c.CallbackRegistered() {
		t.Error("callback should be registered")
	}

	c.SetCallback(nil)
	if c.CallbackRegistered() {
		t.Error("nil callback should deregister")
	}
	if c.HandleAcquired(6, 10002) {
		t.Error("HandleAcquired() = true after deregistration")
	}
}

func TestHandleError_NeverHandled(t *testing.T) {
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)
	c.SetCallback(&fakeCallback{})

	for _, code := range []int32{0, 1, 8, 1000} {
		if c.HandleError(code, 0) {
			t.Errorf("HandleError(%d, 0) = true, want false", code)
		}
	}
}

func TestConstantResponses(t *testing.T) {
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)

	if got := c.GetDimAmount(255); got != 0 {
		t.Errorf("GetDimAmount(255) = %d, want 0", got)
	}
	if c.ShouldBoostBrightness() {
		t.Error("ShouldBoostBrightness() = true, want false")
	}

	// Accepted but inert.
	c.SetLongPressEnabled(true)
	c.SetLongPressEnabled(false)
}

func TestNilChannel_ForwardingSkipped(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	// Must not panic with no daemon channel wired.
	c.OnPress()
	c.OnRelease()
}

func TestChannelFailure_Absorbed(t *testing.T) {
	channel := &fakeChannel{err: errors.New("daemon gone")}
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), channel)

	c.OnPress()
	c.OnRelease()

	if len(channel.requests) != 2 {
		t.Errorf("channel requests = %d, want 2 despite failures", len(channel.requests))
	}
}

func TestEventSink_ReceivesLifecycleEvents(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	c := newTestController(t, "A525FXXS4BVG1", fs, nil)

	sink := &recordingSink{}
	c.SetEventSink(sink)

	c.OnShowFODView()
	c.OnPress()
	c.OnRelease()
	c.OnHideFODView()
	c.OnStartEnroll()
	c.OnFinishEnroll()

	want := []EventType{EventShow, EventPress, EventRelease, EventHide, EventEnrollStart, EventEnrollFinish}
	if len(sink.events) != len(want) {
		t.Fatalf("events = %d, want %d", len(sink.events), len(want))
	}
	for i, ev := range sink.events {
		if ev.Type != want[i] {
			t.Errorf("event[%d].Type = %q, want %q", i, ev.Type, want[i])
		}
		if ev.Timestamp.IsZero() {
			t.Errorf("event[%d] has zero timestamp", i)
		}
	}

	if sink.events[1].SavedBrightness != "151" {
		t.Errorf("press event SavedBrightness = %q, want %q", sink.events[1].SavedBrightness, "151")
	}
}

func TestEventSink_AcquisitionEvents(t *testing.T) {
	c := newTestController(t, "A525FXXS4BVG1", newFakeSysfs(), nil)
	c.SetCallback(&fakeCallback{})

	sink := &recordingSink{}
	c.SetEventSink(sink)

	c.HandleAcquired(6, 10002)
	c.HandleAcquired(6, 10001)
	c.HandleAcquired(6, 42)

	want := []EventType{EventFingerDown, EventFingerUp, EventAcquiredIgnored}
	if len(sink.events) != len(want) {
		t.Fatalf("events = %d, want %d", len(sink.events), len(want))
	}
	for i, ev := range sink.events {
		if ev.Type != want[i] {
			t.Errorf("event[%d].Type = %q, want %q", i, ev.Type, want[i])
		}
	}
	if sink.events[2].VendorCode != 42 {
		t.Errorf("ignored event VendorCode = %d, want 42", sink.events[2].VendorCode)
	}
}

func TestBoostedBrightnessOverride(t *testing.T) {
	fs := newFakeSysfs()
	fs.values[testBrightnessPath] = "151"
	c := newController(Options{
		Bootloader:        "A525FXXS4BVG1",
		TSPCmdPath:        testTSPPath,
		BrightnessPath:    testBrightnessPath,
		BoostedBrightness: "400",
	}, fs.write, fs.read)

	c.OnPress()

	if got := fs.writesTo(testBrightnessPath); len(got) != 1 || got[0] != "400" {
		t.Errorf("brightness writes = %v, want [400]", got)
	}
}
