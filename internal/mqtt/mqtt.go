// Package mqtt is the operator link: inbound commands, outbound alerts,
// photos and system events, with abstraction for testing.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TopicBase prefixes every topic.
const TopicBase = "alarmguard"

// ErrClosed is returned by Receive once the messenger is closed.
var ErrClosed = errors.New("messenger closed")

// Topics holds the per-camera topic names.
type Topics struct {
	Command      string
	GroupCommand string
	Messages     string
	Photos       string
	System       string
}

// NewTopics builds the topic set for camID. groupID may be empty.
func NewTopics(camID, groupID string) Topics {
	t := Topics{
		Command:  fmt.Sprintf("%s/%s/command", TopicBase, camID),
		Messages: fmt.Sprintf("%s/%s/messages", TopicBase, camID),
		Photos:   fmt.Sprintf("%s/%s/photos", TopicBase, camID),
		System:   fmt.Sprintf("%s/%s/system", TopicBase, camID),
	}
	if groupID != "" && !strings.EqualFold(groupID, camID) {
		t.GroupCommand = fmt.Sprintf("%s/%s/command", TopicBase, groupID)
	}
	return t
}

// Subscriptions returns the inbound topics.
func (t Topics) Subscriptions() []string {
	subs := []string{t.Command}
	if t.GroupCommand != "" {
		subs = append(subs, t.GroupCommand)
	}
	return subs
}

// Messenger talks to the operator.
type Messenger interface {
	// Receive blocks until a command arrives or ctx is done.
	Receive(ctx context.Context) (Command, error)

	// SendMessage delivers a text message.
	SendMessage(text string) error

	// SendPhoto delivers a stored photo.
	SendPhoto(photo Photo) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// Command is one inbound operator message. IDs increase monotonically per operator.
type Command struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ParseCommand decodes an inbound payload.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if strings.TrimSpace(cmd.Text) == "" {
		return Command{}, errors.New("decode command: empty text")
	}
	return cmd, nil
}

// Photo is an outbound JPEG with its slot name.
type Photo struct {
	Name    string
	Caption string
	Data    []byte
}

// SystemEvent represents a system lifecycle event (e.g., BOOT, OFFLINE).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "BOOT", "OFFLINE"
	Reason     string // e.g., wake cause
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// MessagePayload is the outbound text message structure.
type MessagePayload struct {
	Message MessagePayloadInner `json:"message"`
}

// MessagePayloadInner contains the message details.
type MessagePayloadInner struct {
	Timestamp string `json:"timestamp"`
	Camera    string `json:"camera"`
	Text      string `json:"text"`
}

// FormatMessage creates the JSON payload for a text message.
func FormatMessage(camID, text string, now time.Time) ([]byte, error) {
	return json.Marshal(MessagePayload{
		Message: MessagePayloadInner{
			Timestamp: now.UTC().Format(time.RFC3339),
			Camera:    camID,
			Text:      text,
		},
	})
}

// PhotoPayload is the outbound photo structure. JPEG is base64 in JSON.
type PhotoPayload struct {
	Photo PhotoPayloadInner `json:"photo"`
}

// PhotoPayloadInner contains the photo details.
type PhotoPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Camera    string `json:"camera"`
	Name      string `json:"name"`
	Caption   string `json:"caption,omitempty"`
	JPEG      []byte `json:"jpeg"`
}

// FormatPhoto creates the JSON payload for a photo.
func FormatPhoto(camID string, p Photo, now time.Time) ([]byte, error) {
	return json.Marshal(PhotoPayload{
		Photo: PhotoPayloadInner{
			Timestamp: now.UTC().Format(time.RFC3339),
			Camera:    camID,
			Name:      p.Name,
			Caption:   p.Caption,
			JPEG:      p.Data,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (OFFLINE) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
