// Package serial opens the serial link to the touch screen.
package serial

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// DefaultBaud is the OpenP4 screen's baud rate
const DefaultBaud = 115200

// Port is an open serial port
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyS1")
	Device string
	// Baud rate
	Baud int
}

// DefaultConfig returns the configuration for the OpenP4 screen on device
func DefaultConfig(device string) *Config {
	return &Config{Device: device, Baud: DefaultBaud}
}

// Open opens the port. Reads block until data arrives, which is what the
// display transport's frame scanner expects.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device is required")
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}
