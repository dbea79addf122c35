package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
	inboxSize      = 8
)

var errConnectTimeout = errors.New("connection timeout")

// Options configures a RealMessenger.
type Options struct {
	Broker  string
	CamID   string
	GroupID string
	// ConnectTries bounds connection attempts; 0 means 3.
	ConnectTries uint
}

// RealMessenger talks to an actual MQTT broker.
type RealMessenger struct {
	client paho.Client
	camID  string
	topics Topics
	logger *slog.Logger
	now    func() time.Time

	inbox     chan Command
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the broker and subscribes to the command topics.
// Connection attempts back off exponentially until ctx is done.
func Dial(ctx context.Context, opts Options, logger *slog.Logger) (*RealMessenger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &RealMessenger{
		camID:  opts.CamID,
		topics: NewTopics(opts.CamID, opts.GroupID),
		logger: logger,
		now:    time.Now,
		inbox:  make(chan Command, inboxSize),
		done:   make(chan struct{}),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "connection lost"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	popts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID("alarmguard-" + opts.CamID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetBinaryWill(m.topics.System, will, 1, true).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})
	m.client = paho.NewClient(popts)

	tries := opts.ConnectTries
	if tries == 0 {
		tries = 3
	}
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		token := m.client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			return struct{}{}, errConnectTimeout
		}
		return struct{}{}, token.Error()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(tries))
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return m, nil
}

// onConnect (re)subscribes; paho calls it after every successful connect.
func (m *RealMessenger) onConnect(c paho.Client) {
	for _, topic := range m.topics.Subscriptions() {
		token := c.Subscribe(topic, 1, m.onMessage)
		if !token.WaitTimeout(connectTimeout) {
			m.logger.Error("mqtt subscribe timeout", "topic", topic)
			continue
		}
		if err := token.Error(); err != nil {
			m.logger.Error("mqtt subscribe failed", "topic", topic, "error", err)
			continue
		}
		m.logger.Info("subscribed to commands", "topic", topic)
	}
}

func (m *RealMessenger) onMessage(_ paho.Client, msg paho.Message) {
	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		m.logger.Warn("dropping malformed command", "topic", msg.Topic(), "error", err)
		return
	}
	select {
	case m.inbox <- cmd:
	default:
		m.logger.Warn("command queue full, dropping command", "id", cmd.ID)
	}
}

// Receive returns the next queued command.
func (m *RealMessenger) Receive(ctx context.Context) (Command, error) {
	select {
	case cmd := <-m.inbox:
		return cmd, nil
	case <-m.done:
		return Command{}, ErrClosed
	case <-ctx.Done():
		return Command{}, ctx.Err()
	}
}

func (m *RealMessenger) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// SendMessage publishes a text message.
func (m *RealMessenger) SendMessage(text string) error {
	payload, err := FormatMessage(m.camID, text, m.now())
	if err != nil {
		return fmt.Errorf("format message: %w", err)
	}
	return m.publish(m.topics.Messages, 1, false, payload)
}

// SendPhoto publishes a photo.
func (m *RealMessenger) SendPhoto(p Photo) error {
	payload, err := FormatPhoto(m.camID, p, m.now())
	if err != nil {
		return fmt.Errorf("format photo: %w", err)
	}
	return m.publish(m.topics.Photos, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (m *RealMessenger) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return m.publish(m.topics.System, 1, event.Retained, payload)
}

// IsConnected reports whether the client is connected.
func (m *RealMessenger) IsConnected() bool {
	return m.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (m *RealMessenger) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.client.Disconnect(250)
	})
	return nil
}
