// Package serial opens the telemetry port of a leadscrew controller on the
// host. The firmware enumerates as a USB CDC device, so the baud rate only
// matters for UART bridges.
package serial

import (
	"errors"
	"io"
	"time"
)

// DefaultBaud matches the firmware UART console
const DefaultBaud = 115200

// Port is an open serial connection
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config describes the port to open
type Config struct {
	Device      string        // e.g. /dev/ttyACM0 or COM3
	Baud        int           // ignored by USB CDC
	ReadTimeout time.Duration // 0 blocks until data arrives
}

// DefaultConfig returns the usual settings for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Validate checks cfg before opening
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("serial device is required")
	}
	if c.Baud <= 0 {
		return errors.New("serial baud rate must be positive")
	}
	if c.ReadTimeout < 0 {
		return errors.New("serial read timeout must not be negative")
	}
	return nil
}
