package gpio

import (
	"context"
	"sync"
)

// FakeDevice is a test double for the PIR input and the lamp.
type FakeDevice struct {
	mu sync.Mutex

	// Level is the current PIR level returned by Active.
	Level bool

	// LampOn is the current lamp state; LampHistory records every Set.
	LampOn      bool
	LampHistory []bool

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Active and Wait.
	ReadError error

	edges chan struct{}
}

// NewFakeDevice creates a FakeDevice with the PIR idle.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{edges: make(chan struct{}, 1)}
}

// Fire simulates a rising edge on the PIR line.
func (f *FakeDevice) Fire() {
	select {
	case f.edges <- struct{}{}:
	default:
	}
}

// Active returns the scripted level.
func (f *FakeDevice) Active() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Level, nil
}

// Wait returns on Level, a Fire call, or ctx expiry.
func (f *FakeDevice) Wait(ctx context.Context) error {
	if on, err := f.Active(); err != nil {
		return err
	} else if on {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.edges:
		return nil
	}
}

// Set records the lamp state.
func (f *FakeDevice) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LampOn = on
	f.LampHistory = append(f.LampHistory, on)
	return nil
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
