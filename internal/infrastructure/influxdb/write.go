package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteFingerEvent records a single fingerprint lifecycle event.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - model: Resolved device model (e.g., "A525", "A725", or "" for unknown)
//   - eventType: Lifecycle event name (press, release, finger_down, ...)
func (c *Client) WriteFingerEvent(model string, eventType string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"fod_events",
		map[string]string{
			"model": model,
			"event": eventType,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBrightnessOverride records a brightness override cycle.
//
// Written on press (saved -> boosted) so the dashboards can track how
// often the optical boost kicks in and what the panel brightness was
// before each capture.
//
// Parameters:
//   - model: Resolved device model
//   - saved: Brightness read before the boost (0 if unreadable)
//   - boosted: Brightness written for optical sensing
func (c *Client) WriteBrightnessOverride(model string, saved int, boosted int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"brightness_override",
		map[string]string{
			"model": model,
		},
		map[string]interface{}{
			"saved":   saved,
			"boosted": boosted,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
