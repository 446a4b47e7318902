package fod

import (
	"fmt"
	"os"
	"strings"
)

// bootloaderParam is the kernel command line token carrying the
// bootloader identifier on this platform.
const bootloaderParam = "androidboot.bootloader="

// ReadBootloader parses the bootloader identifier from the kernel command
// line file at path (normally /proc/cmdline).
//
// A missing token is not an error: the identifier is returned empty and
// profile resolution degrades to ModelUnknown, matching the behaviour of
// an empty platform property.
//
// Parameters:
//   - path: Kernel command line file
//
// Returns:
//   - string: Bootloader identifier, empty if the token is absent
//   - error: If the file cannot be read
func ReadBootloader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading kernel cmdline: %w", err)
	}

	for _, field := range strings.Fields(string(data)) {
		if value, ok := strings.CutPrefix(field, bootloaderParam); ok {
			return value, nil
		}
	}

	return "", nil
}
