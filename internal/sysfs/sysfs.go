// Package sysfs provides read/write helpers for kernel sysfs control files.
//
// The fingerprint controller treats two sysfs files as device registers:
// the touch-panel command file (write-only text commands) and the panel
// backlight brightness file (integer-as-text, read/write). Values are
// plain text; reads are trimmed of trailing whitespace since the kernel
// appends a newline.
package sysfs

import (
	"fmt"
	"os"
	"strings"
)

// filePermissions is used when a write creates the file (test fixtures;
// real sysfs nodes always exist).
const filePermissions = 0644

// WriteString writes value to the sysfs file at path.
//
// The write is a single open-write-close cycle, matching how the kernel
// expects command files to be driven.
//
// Parameters:
//   - path: Sysfs file path
//   - value: Text value to write (no newline is appended)
//
// Returns:
//   - error: nil on success, otherwise the underlying file error
func WriteString(path, value string) error {
	if err := os.WriteFile(path, []byte(value), filePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadString reads the sysfs file at path and returns its content with
// surrounding whitespace trimmed.
//
// Returns:
//   - string: Trimmed file content
//   - error: nil on success, otherwise the underlying file error
func ReadString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadStringDefault reads the sysfs file at path, returning def if the
// read fails. Used where an unreadable register degrades rather than
// errors (e.g., brightness save before a press).
func ReadStringDefault(path, def string) string {
	value, err := ReadString(path)
	if err != nil {
		return def
	}
	return value
}
