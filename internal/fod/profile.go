package fod

import (
	"fmt"
	"strings"
)

// Model identifies a supported device model.
type Model string

// Supported models. The zero value means the bootloader identifier
// matched neither.
const (
	ModelA525    Model = "A525"
	ModelA725    Model = "A725"
	ModelUnknown Model = ""
)

// Rect is the fingerprint sensor rectangle programmed into the touch panel.
type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// Command renders the touch-panel driver command for this rectangle.
//
// Example: "set_fod_rect,421,2018,659,2256"
func (r Rect) Command() string {
	return fmt.Sprintf("set_fod_rect,%d,%d,%d,%d", r.Left, r.Top, r.Right, r.Bottom)
}

// Profile carries the per-model sensor geometry. It is resolved once at
// controller construction and immutable thereafter.
type Profile struct {
	// Model is the matched device model, or ModelUnknown.
	Model Model `json:"model"`

	// Rect is the sensor rectangle programmed into the touch panel.
	Rect Rect `json:"rect"`

	// PositionX and PositionY are the sensor position reported to callers.
	PositionX int32 `json:"position_x"`
	PositionY int32 `json:"position_y"`

	// Size is the reported sensor size.
	Size int32 `json:"size"`
}

// Known device profiles, calibrated per panel.
var (
	profileA525 = Profile{
		Model:     ModelA525,
		Rect:      Rect{Left: 421, Top: 2018, Right: 659, Bottom: 2256},
		PositionX: 421,
		PositionY: 2018,
		Size:      238,
	}

	profileA725 = Profile{
		Model:     ModelA725,
		Rect:      Rect{Left: 426, Top: 2031, Right: 654, Bottom: 2259},
		PositionX: 426,
		PositionY: 2031,
		Size:      228,
	}
)

// ResolveProfile matches a bootloader identifier against the known models.
//
// The match is a substring check, A525 first, then A725; first match wins.
// An unmatched identifier yields a Profile with ModelUnknown and all-zero
// geometry — callers log the miss but carry on degraded.
//
// Parameters:
//   - bootloader: Bootloader identifier string (e.g., "A525FXXS4BVG1")
//
// Returns:
//   - Profile: Resolved profile, zero-valued for unknown devices
func ResolveProfile(bootloader string) Profile {
	switch {
	case strings.Contains(bootloader, string(ModelA525)):
		return profileA525
	case strings.Contains(bootloader, string(ModelA725)):
		return profileA725
	default:
		return Profile{}
	}
}
