// Package gpio provides the PIR trigger input and the flash lamp output with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "context"

// Trigger is the external wake input (PIR sensor).
type Trigger interface {
	// Active reports whether the line is currently asserted.
	Active() (bool, error)

	// Wait blocks until the line is asserted or ctx is done.
	// It returns immediately when the line is already asserted.
	Wait(ctx context.Context) error

	// Close releases GPIO resources.
	Close() error
}

// Lamp is the flash output.
type Lamp interface {
	Set(on bool) error
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinPIR  = 12 // PIR sensor, active high
	PinLamp = 4  // flash LED
)
