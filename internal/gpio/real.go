//go:build linux

package gpio

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealDevice drives the PIR input and lamp output through the Linux GPIO
// character device.
type RealDevice struct {
	chip  *gpiocdev.Chip
	pir   *gpiocdev.Line
	lamp  *gpiocdev.Line
	edges chan struct{}
}

// NewRealDevice requests both lines on chipName (e.g. "gpiochip0").
func NewRealDevice(chipName string, pinPIR, pinLamp int) (*RealDevice, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	d := &RealDevice{chip: chip, edges: make(chan struct{}, 1)}

	// Pull-down matches the Pi boot default and the PIR's idle-low output.
	pir, err := chip.RequestLine(pinPIR,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(d.onEdge))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request PIR pin %d: %w", pinPIR, err)
	}
	d.pir = pir

	lamp, err := chip.RequestLine(pinLamp, gpiocdev.AsOutput(0))
	if err != nil {
		pir.Close()
		chip.Close()
		return nil, fmt.Errorf("request lamp pin %d: %w", pinLamp, err)
	}
	d.lamp = lamp

	return d, nil
}

// onEdge runs on the gpiocdev event goroutine.
func (d *RealDevice) onEdge(gpiocdev.LineEvent) {
	select {
	case d.edges <- struct{}{}:
	default:
	}
}

// Active returns the PIR level.
func (d *RealDevice) Active() (bool, error) {
	v, err := d.pir.Value()
	if err != nil {
		return false, fmt.Errorf("read PIR pin: %w", err)
	}
	return v == 1, nil
}

// Wait blocks until a rising edge or ctx is done.
func (d *RealDevice) Wait(ctx context.Context) error {
	// Drop edges from before the wait started.
	select {
	case <-d.edges:
	default:
	}
	if on, err := d.Active(); err != nil {
		return err
	} else if on {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.edges:
		return nil
	}
}

// Set switches the lamp.
func (d *RealDevice) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := d.lamp.SetValue(v); err != nil {
		return fmt.Errorf("set lamp: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing so the lamp is off and nothing floats across a restart.
func (d *RealDevice) Close() error {
	var errs []error

	for name, line := range map[string]*gpiocdev.Line{"PIR": d.pir, "lamp": d.lamp} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
