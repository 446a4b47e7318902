package seh

import "errors"

// Sentinel errors for vendor daemon operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when the channel to the daemon is down.
	ErrNotConnected = errors.New("seh: daemon not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("seh: connection failed")

	// ErrRequestFailed is returned when a request write fails.
	ErrRequestFailed = errors.New("seh: request failed")
)
