// Package device defines a unified line interface for the rover link and the
// implementations behind it: a real serial port, an in-memory stream pair,
// the protocol client that drives the rover, and a simulated rover.
package device

import (
	"errors"
	"time"
)

// Device defines an abstract line-oriented link to the rover firmware.
type Device interface {
	// ReadLine reads a single line terminated by '\n'.
	// If timeout > 0, it must return after timeout even if no data available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}

var (
	ErrNotOpen     = errors.New("device not open")
	ErrReadTimeout = errors.New("read timeout")
)
