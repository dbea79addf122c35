package photo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/alarmguard/internal/logic"
)

func newTestSlots(t *testing.T) *Slots {
	t.Helper()
	s, err := NewSlots(filepath.Join(t.TempDir(), "photos"), nil)
	if err != nil {
		t.Fatalf("new slots: %v", err)
	}
	s.sleep = func(time.Duration) {}
	return s
}

func TestWriteRead(t *testing.T) {
	s := newTestSlots(t)
	if err := s.Write(3, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(3, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(3)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("expected overwrite, got %q", got)
	}
	if filepath.Base(s.Path(3)) != "photo3.jpg" {
		t.Errorf("unexpected file name %s", s.Path(3))
	}

	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 1 {
		t.Errorf("expected only the slot file, found %d entries", len(entries))
	}
}

func TestInvalidSlot(t *testing.T) {
	s := newTestSlots(t)
	for _, k := range []int{-1, logic.PhotoSlotCount} {
		if err := s.Write(k, []byte("x")); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("write %d: expected ErrInvalidSlot, got %v", k, err)
		}
		if _, err := s.Read(k); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("read %d: expected ErrInvalidSlot, got %v", k, err)
		}
	}
	if _, _, err := s.ReadRef("capture"); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("ref: expected ErrInvalidSlot, got %v", err)
	}
}

func TestStoreWrapsAround(t *testing.T) {
	s := newTestSlots(t)
	st := logic.DefaultState()

	var last int
	for i := 0; i < logic.PhotoSlotCount+1; i++ {
		k, err := s.Store(&st, []byte{byte(i)})
		if err != nil {
			t.Fatalf("store %d: %v", i, err)
		}
		last = k
	}
	// Index starts at 0, so writes go to 1..9, 0, 1.
	if last != 1 || st.LastPhotoIndex != 1 {
		t.Errorf("expected slot 1 after N+1 writes, got %d (index %d)", last, st.LastPhotoIndex)
	}
	data, _ := s.Read(1)
	if !bytes.Equal(data, []byte{byte(logic.PhotoSlotCount)}) {
		t.Errorf("slot 1 not overwritten by the last write: %v", data)
	}
	if n, size := s.Usage(); n != logic.PhotoSlotCount || size != int64(logic.PhotoSlotCount) {
		t.Errorf("usage: %d files, %d bytes", n, size)
	}
}

func TestStoreFailureKeepsIndex(t *testing.T) {
	s := newTestSlots(t)
	var retried bool
	s.sleep = func(time.Duration) { retried = true }

	// A directory in place of the slot file cannot be removed or replaced.
	st := logic.DefaultState()
	blocker := s.Path(st.NextSlot())
	if err := os.MkdirAll(filepath.Join(blocker, "x"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Store(&st, []byte("img")); err == nil {
		t.Fatal("expected write failure")
	}
	if !retried {
		t.Error("expected one retry")
	}
	if st.LastPhotoIndex != 0 {
		t.Errorf("failed write advanced index to %d", st.LastPhotoIndex)
	}
}

func TestReadRefAndExists(t *testing.T) {
	s := newTestSlots(t)
	if s.Exists(4) {
		t.Error("empty slot reported as existing")
	}
	if err := s.Write(4, []byte("jpg")); err != nil {
		t.Fatal(err)
	}
	data, k, err := s.ReadRef("photo4.jpg")
	if err != nil || k != 4 || string(data) != "jpg" {
		t.Errorf("read ref: %q %d %v", data, k, err)
	}
	if _, _, err := s.ReadRef("photo5.jpg"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist for an empty slot, got %v", err)
	}
}
