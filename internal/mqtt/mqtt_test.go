package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// Compile-time interface checks
var (
	_ Messenger = (*FakeMessenger)(nil)
	_ Messenger = (*RealMessenger)(nil)
)

var testTime = time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)

func TestNewTopics(t *testing.T) {
	topics := NewTopics("cam1", "garden")

	if topics.Command != "alarmguard/cam1/command" {
		t.Errorf("unexpected command topic: %s", topics.Command)
	}
	if topics.GroupCommand != "alarmguard/garden/command" {
		t.Errorf("unexpected group topic: %s", topics.GroupCommand)
	}
	if topics.Photos != "alarmguard/cam1/photos" {
		t.Errorf("unexpected photos topic: %s", topics.Photos)
	}
	if len(topics.Subscriptions()) != 2 {
		t.Errorf("expected 2 subscriptions, got %v", topics.Subscriptions())
	}
}

func TestNewTopicsWithoutGroup(t *testing.T) {
	for _, group := range []string{"", "CAM1"} {
		topics := NewTopics("cam1", group)
		if topics.GroupCommand != "" {
			t.Errorf("group %q: expected no group topic, got %s", group, topics.GroupCommand)
		}
		if len(topics.Subscriptions()) != 1 {
			t.Errorf("group %q: expected 1 subscription", group)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"id": 42, "text": "/photo"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.ID != 42 || cmd.Text != "/photo" {
		t.Errorf("unexpected command: %+v", cmd)
	}

	for _, bad := range []string{``, `not json`, `{"id": 1}`, `{"id": 1, "text": "  "}`} {
		if _, err := ParseCommand([]byte(bad)); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	payload, err := FormatMessage("cam1", "MOTION DETECTED", testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed MessagePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Message.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Message.Timestamp)
	}
	if parsed.Message.Camera != "cam1" || parsed.Message.Text != "MOTION DETECTED" {
		t.Errorf("unexpected message: %+v", parsed.Message)
	}
}

func TestFormatPhotoEncodesJPEG(t *testing.T) {
	data := []byte{0xff, 0xd8, 0x00, 0xff, 0xd9}
	payload, err := FormatPhoto("cam1", Photo{Name: "photo3.jpg", Caption: "alarm", Data: data}, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if raw["photo"]["jpeg"] != "/9gA/9k=" {
		t.Errorf("expected base64 body, got %v", raw["photo"]["jpeg"])
	}

	var parsed PhotoPayload
	json.Unmarshal(payload, &parsed)
	if parsed.Photo.Name != "photo3.jpg" || string(parsed.Photo.JPEG) != string(data) {
		t.Errorf("unexpected photo: %+v", parsed.Photo)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: "OFFLINE", Reason: "connection lost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "OFFLINE" || parsed.System.Reason != "connection lost" {
		t.Errorf("unexpected payload: %+v", parsed.System)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"boot":true}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "BOOT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakeMessengerReceive(t *testing.T) {
	f := NewFakeMessenger(Command{ID: 1, Text: "/start"}, Command{ID: 2, Text: "/stop"})
	ctx := context.Background()

	for _, want := range []int64{1, 2} {
		cmd, err := f.Receive(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.ID != want {
			t.Errorf("expected id %d, got %d", want, cmd.ID)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := f.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestFakeMessengerRecordsAndFails(t *testing.T) {
	f := NewFakeMessenger()

	f.SendMessage("hello")
	f.SendPhoto(Photo{Name: "photo1.jpg"})
	f.PublishSystem(SystemEvent{Event: "BOOT", Timestamp: testTime})

	if len(f.Sent()) != 1 || len(f.Photos) != 1 || len(f.SystemEvents) != 1 || len(f.SystemPayloads) != 1 {
		t.Errorf("unexpected recordings: %d messages, %d photos, %d events", len(f.Messages), len(f.Photos), len(f.SystemEvents))
	}

	f.SendError = errors.New("offline")
	f.PhotoError = errors.New("offline")
	if err := f.SendMessage("x"); err == nil {
		t.Error("expected send error")
	}
	if err := f.SendPhoto(Photo{}); err == nil {
		t.Error("expected photo error")
	}

	f.Reset()
	if len(f.Messages) != 0 || f.SendError != nil || !f.IsConnected() {
		t.Error("reset did not clear the fake")
	}
}

func TestFakeMessengerClosed(t *testing.T) {
	f := NewFakeMessenger(Command{ID: 1, Text: "/start"})
	f.Close()

	if f.IsConnected() {
		t.Error("closed messenger reports connected")
	}
	if _, err := f.Receive(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
