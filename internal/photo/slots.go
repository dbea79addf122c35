// Package photo stores captured JPEGs in a fixed ring of slot files.
package photo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sweeney/alarmguard/internal/logic"
)

// ErrInvalidSlot is returned for a slot outside the ring or an unparseable reference.
var ErrInvalidSlot = errors.New("invalid photo slot")

// DefaultRetryDelay is the pause before the single write retry.
const DefaultRetryDelay = 300 * time.Millisecond

// Slots manages photoK.jpg files under one directory.
type Slots struct {
	dir        string
	retryDelay time.Duration
	logger     *slog.Logger
	sleep      func(time.Duration)
}

// NewSlots creates dir if needed.
func NewSlots(dir string, logger *slog.Logger) (*Slots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Slots{dir: dir, retryDelay: DefaultRetryDelay, logger: logger, sleep: time.Sleep}, nil
}

// Dir returns the slot directory.
func (s *Slots) Dir() string { return s.dir }

// Path returns the file path of slot k.
func (s *Slots) Path(k int) string {
	return filepath.Join(s.dir, logic.SlotName(k))
}

func validSlot(k int) error {
	if k < 0 || k >= logic.PhotoSlotCount {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, k)
	}
	return nil
}

// Write replaces slot k with data, retrying once after a short delay.
func (s *Slots) Write(k int, data []byte) error {
	if err := validSlot(k); err != nil {
		return err
	}
	err := s.write(k, data)
	if err == nil {
		return nil
	}
	s.logger.Warn("photo write failed, retrying", "slot", k, "error", err)
	s.sleep(s.retryDelay)
	if err := s.write(k, data); err != nil {
		return fmt.Errorf("write %s: %w", logic.SlotName(k), err)
	}
	return nil
}

func (s *Slots) write(k int, data []byte) error {
	path := s.Path(k)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old photo: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".photo-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read returns the contents of slot k.
func (s *Slots) Read(k int) ([]byte, error) {
	if err := validSlot(k); err != nil {
		return nil, err
	}
	return os.ReadFile(s.Path(k))
}

// ReadRef reads the slot named by a PendingPhotoRef.
func (s *Slots) ReadRef(ref string) ([]byte, int, error) {
	k, ok := logic.ParseSlotName(ref)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidSlot, ref)
	}
	data, err := s.Read(k)
	return data, k, err
}

// Exists reports whether slot k holds a file.
func (s *Slots) Exists(k int) bool {
	if validSlot(k) != nil {
		return false
	}
	_, err := os.Stat(s.Path(k))
	return err == nil
}

// Store writes data into the next slot and advances LastPhotoIndex only when
// the write succeeded.
func (s *Slots) Store(st *logic.State, data []byte) (int, error) {
	k := st.NextSlot()
	if err := s.Write(k, data); err != nil {
		return 0, err
	}
	st.LastPhotoIndex = k
	return k, nil
}

// Usage returns the number of stored photos and their total size.
func (s *Slots) Usage() (count int, bytes int64) {
	for k := 0; k < logic.PhotoSlotCount; k++ {
		fi, err := os.Stat(s.Path(k))
		if err != nil {
			continue
		}
		count++
		bytes += fi.Size()
	}
	return count, bytes
}
