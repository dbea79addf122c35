package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/alarmguard/internal/logic"
)

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := logic.DefaultState()
	st.DetectionEnabled = true
	st.MotionEventCount = 2
	st.LastPhotoIndex = 4
	st.PendingPhotoRef = "photo4.jpg"
	st.LastProcessedCommandID = 77
	st.TimeOfDayMarker = start.Add(-time.Hour).Unix()
	return Snapshot{
		BootID:        "boot-1",
		Cause:         logic.WakeTimerExpiry,
		Mode:          logic.ModeTelegram,
		State:         st,
		StartTime:     start,
		Now:           start.Add(15 * time.Second),
		MQTTConnected: true,
		Photos:        PhotoUsage{Count: 3, Bytes: 1234},
		Config:        Config{CamID: "CAM1", GroupID: "garden", Broker: "tcp://localhost:1883", Version: "1.2.0"},
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{CamID: "CAM1", Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Mode != "" {
		t.Errorf("expected no mode initially, got %s", snap.Mode)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	st := logic.DefaultState()
	st.DetectionEnabled = true

	tr.SetBoot("abc", logic.WakeExternalTrigger)
	tr.Update(logic.ModeMonitoring, st)
	tr.SetPhotos(2, 2048)
	tr.SetMQTTConnected(true)

	snap := tr.Snapshot()
	if snap.Mode != logic.ModeMonitoring {
		t.Errorf("Mode: got %s, want MONITORING", snap.Mode)
	}
	if !snap.State.DetectionEnabled {
		t.Error("expected record copied into snapshot")
	}
	if snap.BootID != "abc" || snap.Cause != logic.WakeExternalTrigger {
		t.Errorf("boot: got %s %s", snap.BootID, snap.Cause)
	}
	if snap.Photos.Count != 2 || snap.Photos.Bytes != 2048 {
		t.Errorf("photos: got %+v", snap.Photos)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.ModeTelegram, logic.DefaultState())

	snap1 := tr.Snapshot()

	st := logic.DefaultState()
	st.DetectionEnabled = true
	tr.Update(logic.ModeMonitoring, st)

	// snap1 should still reflect old state
	if snap1.Mode != logic.ModeTelegram || snap1.State.DetectionEnabled {
		t.Error("snapshot should be a copy; it was modified")
	}
}

func TestSnapshotUptime(t *testing.T) {
	if got := testSnapshot().Uptime(); got != 15*time.Second {
		t.Errorf("Uptime: got %v, want 15s", got)
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Mode != "TELEGRAM" || s.WakeCause != "TIMER" {
		t.Errorf("mode/cause: got %q %q", s.Mode, s.WakeCause)
	}
	if s.Camera != "CAM1" || s.Group != "garden" {
		t.Errorf("camera: got %q %q", s.Camera, s.Group)
	}
	if s.UptimeSeconds != 15 {
		t.Errorf("UptimeSeconds: got %d, want 15", s.UptimeSeconds)
	}
	if !s.Detection.Enabled || s.Detection.MotionEvents != 2 || s.Detection.LastCommandID != 77 {
		t.Errorf("detection: got %+v", s.Detection)
	}
	if s.Photos.Stored != 3 || s.Photos.LastSlot != 4 || s.Photos.Pending != "photo4.jpg" {
		t.Errorf("photos: got %+v", s.Photos)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.LastOnline != "2025-12-31T23:00:00Z" {
		t.Errorf("LastOnline: got %q", s.LastOnline)
	}
	// Event and Reason should be omitted
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected empty event/reason for web format, got %q %q", s.Event, s.Reason)
	}
}

func TestFormatJSONUnknownMode(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Mode != "UNKNOWN" {
		t.Errorf("Mode: got %q, want UNKNOWN", parsed.Status.Mode)
	}
	if parsed.Status.LastOnline != "" {
		t.Errorf("LastOnline: got %q, want empty before the first TELEGRAM", parsed.Status.LastOnline)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "BOOT", "TIMER")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "BOOT" {
		t.Errorf("Event: got %q, want BOOT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "TIMER" {
		t.Errorf("Reason: got %q, want TIMER", parsed.Status.Reason)
	}
	if parsed.Status.BootID != "boot-1" {
		t.Errorf("BootID: got %q", parsed.Status.BootID)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "BOOT", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "BOOT" {
		t.Errorf("event: got %v, want BOOT", status["event"])
	}
}

func TestFormatReport(t *testing.T) {
	snap := testSnapshot()
	got := FormatReport(snap)
	want := "Intrusion detection started. Normal mode. Sensitivity: 5%. Photos: 3 (1.2 kB). SW Ver: 1.2.0"
	if got != want {
		t.Errorf("report:\n got %q\nwant %q", got, want)
	}

	snap.State.DetectionEnabled = false
	snap.State.NightModeEnabled = true
	snap.State.DebugEnabled = true
	got = FormatReport(snap)
	for _, part := range []string{"Intrusion detection stopped.", "Night mode.", "Debug on."} {
		if !strings.Contains(got, part) {
			t.Errorf("report %q missing %q", got, part)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			st := logic.DefaultState()
			st.MotionEventCount = i
			tr.Update(logic.ModeMonitoring, st)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetPhotos(i, int64(i))
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
