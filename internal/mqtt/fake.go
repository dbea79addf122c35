package mqtt

import (
	"context"
	"sync"
)

// FakeMessenger records outbound traffic and replays scripted commands.
type FakeMessenger struct {
	mu sync.Mutex

	// Commands are returned by Receive in order. Once exhausted, Receive
	// blocks until ctx is done.
	Commands []Command

	// Messages contains all text messages that were sent.
	Messages []string

	// Photos contains all photos that were sent.
	Photos []Photo

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// SendError, if set, will be returned by SendMessage.
	SendError error

	// PhotoError, if set, will be returned by SendPhoto.
	PhotoError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakeMessenger creates a connected FakeMessenger with queued commands.
func NewFakeMessenger(cmds ...Command) *FakeMessenger {
	return &FakeMessenger{Commands: cmds, Connected: true}
}

// Receive pops the next scripted command.
func (f *FakeMessenger) Receive(ctx context.Context) (Command, error) {
	f.mu.Lock()
	if f.Closed {
		f.mu.Unlock()
		return Command{}, ErrClosed
	}
	if len(f.Commands) > 0 {
		cmd := f.Commands[0]
		f.Commands = f.Commands[1:]
		f.mu.Unlock()
		return cmd, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return Command{}, ctx.Err()
}

// SendMessage records the message.
func (f *FakeMessenger) SendMessage(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendError != nil {
		return f.SendError
	}
	f.Messages = append(f.Messages, text)
	return nil
}

// SendPhoto records the photo.
func (f *FakeMessenger) SendPhoto(p Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PhotoError != nil {
		return f.PhotoError
	}
	f.Photos = append(f.Photos, p)
	return nil
}

// PublishSystem records the system event.
func (f *FakeMessenger) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// IsConnected reports whether the fake messenger is "connected".
func (f *FakeMessenger) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the messenger as closed.
func (f *FakeMessenger) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	f.Connected = false
	return nil
}

// Reset clears recorded traffic and errors.
func (f *FakeMessenger) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = nil
	f.Photos = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.SendError = nil
	f.PhotoError = nil
	f.PublishSystemError = nil
	f.Closed = false
	f.Connected = true
}

// Sent returns a snapshot of the recorded messages.
func (f *FakeMessenger) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Messages...)
}
