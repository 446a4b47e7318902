// Package fod implements the in-display fingerprint controller for the
// sm7125 platform (Galaxy A52 / A72).
//
// The controller translates fingerprint lifecycle calls into touch-panel
// driver commands, a brightness override for optical sensing, and signals
// to the vendor biometrics daemon. Device geometry is resolved once at
// construction from the bootloader identifier and is immutable afterwards.
//
// Key behaviours:
//   - Construction programs the sensor rectangle (known models only) and
//     always enables FOD detection mode
//   - A press saves the current panel brightness and forces the boosted
//     value; release and hide restore it at most once
//   - Vendor acquisition events are classified into finger down/up
//     callback notifications; everything else is reported unhandled
//   - Every hardware interaction failure is logged and absorbed — the
//     controller never propagates driver errors to callers
//
// The package is hardware-facing but fully testable: sysfs paths are
// injected, and the vendor daemon sits behind the SignalChannel interface.
package fod
