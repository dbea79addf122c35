// Package logic contains the pure decision logic of the camera node: boot modes,
// wake causes, the persisted record, the mode controller, the alarm debouncer and
// the operator intent vocabulary.
// This package has NO external dependencies (no camera, GPIO, MQTT, storage or time.Sleep).
// Durations are plain values; nothing here blocks.
package logic

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BootMode is the operating mode for one boot cycle. Exactly one is active per boot.
type BootMode string

const (
	// ModeMonitoring: camera armed, watching for motion, radio off.
	ModeMonitoring BootMode = "MONITORING"
	// ModePhoto: a single on-demand capture, radio off.
	ModePhoto BootMode = "PHOTO"
	// ModeTelegram: radio on, camera off, operator commands and delivery.
	ModeTelegram BootMode = "TELEGRAM"
)

// Valid reports whether m is one of the three modes.
func (m BootMode) Valid() bool {
	switch m {
	case ModeMonitoring, ModePhoto, ModeTelegram:
		return true
	}
	return false
}

// WakeCause is the classified reason the process resumed execution.
type WakeCause string

const (
	// WakeExternalTrigger: the sleep ended because the PIR line fired.
	WakeExternalTrigger WakeCause = "EXTERNAL_TRIGGER"
	// WakeTimerExpiry: the sleep ended because its timer elapsed.
	WakeTimerExpiry WakeCause = "TIMER"
	// WakeCommandPending: software restart carrying queued operator work.
	WakeCommandPending WakeCause = "COMMAND_PENDING"
	// WakeColdStart: power-on or plain software restart, not woken from sleep.
	WakeColdStart WakeCause = "COLD_START"
)

// ParseWakeCause maps a stored/handed-over value to a WakeCause.
// Anything unknown is a cold start.
func ParseWakeCause(s string) WakeCause {
	switch c := WakeCause(strings.ToUpper(strings.TrimSpace(s))); c {
	case WakeExternalTrigger, WakeTimerExpiry, WakeCommandPending, WakeColdStart:
		return c
	}
	return WakeColdStart
}

const (
	// PhotoSlotCount is the number of circularly reused photo slots.
	PhotoSlotCount = 10

	// DefaultThresholdPercent is the default share of changed samples that counts as motion.
	DefaultThresholdPercent = 5.0

	// PhotoRequestRef marks PendingPhotoRef when a capture was requested but has not completed.
	PhotoRequestRef = "capture"
)

// State is the single durable record. It is loaded once per boot, mutated in
// memory through the helpers in this package, and saved before every restart.
type State struct {
	Mode                      BootMode
	DetectionEnabled          bool
	NightModeEnabled          bool
	FlashRequested            bool
	PendingPhotoRef           string
	LastPhotoIndex            int
	LastProcessedCommandID    int64
	MotionEventCount          int
	MinChangeThresholdPercent float64
	DebugEnabled              bool
	TimeOfDayMarker           int64 // unix seconds
	CaptureAttempts           int   // failed PHOTO attempts for the current request
}

// DefaultState returns the record used on first boot or when storage is unreadable.
func DefaultState() State {
	return State{
		Mode:                      ModeTelegram,
		LastProcessedCommandID:    -1,
		MinChangeThresholdPercent: DefaultThresholdPercent,
	}
}

// Normalize clamps a loaded record into its invariants.
func (s *State) Normalize() {
	if !s.Mode.Valid() {
		s.Mode = ModeTelegram
	}
	s.LastPhotoIndex %= PhotoSlotCount
	if s.LastPhotoIndex < 0 {
		s.LastPhotoIndex += PhotoSlotCount
	}
	if s.MotionEventCount < 0 {
		s.MotionEventCount = 0
	}
	if s.CaptureAttempts < 0 {
		s.CaptureAttempts = 0
	}
	if math.IsNaN(s.MinChangeThresholdPercent) {
		s.MinChangeThresholdPercent = DefaultThresholdPercent
	}
	if s.MinChangeThresholdPercent < 0 {
		s.MinChangeThresholdPercent = 0
	}
	if s.MinChangeThresholdPercent > 100 {
		s.MinChangeThresholdPercent = 100
	}
	if s.PendingPhotoRef != "" && s.PendingPhotoRef != PhotoRequestRef {
		if _, ok := ParseSlotName(s.PendingPhotoRef); !ok {
			s.PendingPhotoRef = ""
		}
	}
}

// PhotoRequested reports whether a capture was requested and has not completed yet.
func (s State) PhotoRequested() bool {
	return s.PendingPhotoRef == PhotoRequestRef
}

// PendingSlot returns the slot of a stored photo awaiting delivery.
func (s State) PendingSlot() (int, bool) {
	return ParseSlotName(s.PendingPhotoRef)
}

// NextSlot returns the slot the next successful write goes to.
func (s State) NextSlot() int {
	return (s.LastPhotoIndex + 1) % PhotoSlotCount
}

// SlotName returns the file name of slot k.
func SlotName(k int) string {
	return fmt.Sprintf("photo%d.jpg", k)
}

// ParseSlotName is the inverse of SlotName. A leading slash is tolerated.
func ParseSlotName(name string) (int, bool) {
	name = strings.TrimPrefix(name, "/")
	if !strings.HasPrefix(name, "photo") || !strings.HasSuffix(name, ".jpg") {
		return 0, false
	}
	k, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "photo"), ".jpg"))
	if err != nil || k < 0 || k >= PhotoSlotCount || SlotName(k) != name {
		return 0, false
	}
	return k, true
}
