//go:build !linux

package gpio

import (
	"context"
	"errors"
)

// RealDevice is not available on non-Linux platforms.
type RealDevice struct{}

// NewRealDevice returns an error on non-Linux platforms.
func NewRealDevice(chipName string, pinPIR, pinLamp int) (*RealDevice, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Active is not implemented on non-Linux platforms.
func (d *RealDevice) Active() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Wait is not implemented on non-Linux platforms.
func (d *RealDevice) Wait(ctx context.Context) error {
	return errors.New("gpio: not supported")
}

// Set is not implemented on non-Linux platforms.
func (d *RealDevice) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *RealDevice) Close() error {
	return nil
}
