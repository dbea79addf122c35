// Package camera provides the frame source: one JPEG per Capture call.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoFrame is returned when the source produced no usable frame.
var ErrNoFrame = errors.New("no frame")

// Source produces JPEG frames.
type Source interface {
	Capture(ctx context.Context) ([]byte, error)
	// Reset reinitializes the source after repeated failures.
	Reset(ctx context.Context) error
	Close() error
}

// Illuminator drives the flash lamp.
type Illuminator interface {
	Set(on bool) error
}

const (
	flashWarmup   = 100 * time.Millisecond
	flashCooldown = 50 * time.Millisecond
)

// Capture takes one frame, lighting the lamp around it when flash is set.
// A failed capture is retried once immediately. The lamp is always switched off.
func Capture(ctx context.Context, src Source, lamp Illuminator, flash bool) ([]byte, error) {
	if flash && lamp != nil {
		if err := lamp.Set(true); err != nil {
			return nil, fmt.Errorf("lamp on: %w", err)
		}
		defer lamp.Set(false)
		if err := sleep(ctx, flashWarmup); err != nil {
			return nil, err
		}
	}

	data, err := src.Capture(ctx)
	if err != nil && ctx.Err() == nil {
		data, err = src.Capture(ctx)
	}
	if err != nil {
		return nil, err
	}
	if flash && lamp != nil {
		_ = sleep(ctx, flashCooldown)
	}
	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HTTPSource fetches frames from a JPEG snapshot endpoint.
type HTTPSource struct {
	SnapshotURL string
	// ResetURL, when set, is requested by Reset.
	ResetURL string
	Client   *http.Client
	// MaxFrameSize bounds a snapshot; larger bodies are refused.
	MaxFrameSize int64
}

// NewHTTPSource returns a source with a bounded client timeout.
func NewHTTPSource(snapshotURL, resetURL string) *HTTPSource {
	return &HTTPSource{
		SnapshotURL:  snapshotURL,
		ResetURL:     resetURL,
		Client:       &http.Client{Timeout: 5 * time.Second},
		MaxFrameSize: DefaultMaxFrameSize,
	}
}

// DefaultMaxFrameSize bounds a single snapshot.
const DefaultMaxFrameSize = 8 << 20

func (h *HTTPSource) Capture(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.SnapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: snapshot status %d", ErrNoFrame, resp.StatusCode)
	}
	limit := h.MaxFrameSize
	if limit <= 0 {
		limit = DefaultMaxFrameSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: frame too large (over %d bytes)", ErrNoFrame, limit)
	}
	if len(data) == 0 {
		return nil, ErrNoFrame
	}
	return data, nil
}

func (h *HTTPSource) Reset(ctx context.Context) error {
	if h.ResetURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.ResetURL, nil)
	if err != nil {
		return fmt.Errorf("reset request: %w", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("reset camera: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("reset camera: status %d", resp.StatusCode)
	}
	return nil
}

func (h *HTTPSource) Close() error {
	h.Client.CloseIdleConnections()
	return nil
}
