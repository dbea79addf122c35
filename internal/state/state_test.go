package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sweeney/alarmguard/internal/logic"
)

func sampleState() logic.State {
	st := logic.DefaultState()
	st.Mode = logic.ModeMonitoring
	st.DetectionEnabled = true
	st.NightModeEnabled = true
	st.FlashRequested = true
	st.PendingPhotoRef = "photo7.jpg"
	st.LastPhotoIndex = 7
	st.LastProcessedCommandID = 123456789012
	st.MotionEventCount = 2
	st.MinChangeThresholdPercent = 12.5
	st.DebugEnabled = true
	st.TimeOfDayMarker = 1700000000
	st.CaptureAttempts = 1
	return st
}

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSQLite(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteEmptyLoadsDefaults(t *testing.T) {
	s, _ := openTestStore(t)
	if got := s.Load(context.Background()); got != logic.DefaultState() {
		t.Errorf("expected default record, got %+v", got)
	}
}

func TestSQLiteLoadSaveLoadIdentical(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	want := sampleState()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	first := s.Load(ctx)
	if first != want {
		t.Fatalf("expected %+v, got %+v", want, first)
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if second := s.Load(ctx); second != first {
		t.Errorf("second load differs: %+v vs %+v", second, first)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if got := s.Load(ctx); got != sampleState() {
		t.Errorf("expected record to survive reopen, got %+v", got)
	}
}

func TestSQLiteCorruptValuesFallBack(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	if err := s.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Undecodable value, kind mismatch and an invalid mode.
	if err := s.writeRow(ctx, "minChange", KindFloat, "lots"); err != nil {
		t.Fatal(err)
	}
	if err := s.writeRow(ctx, "detection", KindString, "yes"); err != nil {
		t.Fatal(err)
	}
	if err := s.writeRow(ctx, "mode", KindString, "HIBERNATE"); err != nil {
		t.Fatal(err)
	}

	got := s.Load(ctx)
	if got.MinChangeThresholdPercent != logic.DefaultThresholdPercent {
		t.Errorf("threshold: expected default, got %v", got.MinChangeThresholdPercent)
	}
	if got.DetectionEnabled {
		t.Error("detection: expected default false")
	}
	if got.Mode != logic.ModeTelegram {
		t.Errorf("mode: expected TELEGRAM, got %s", got.Mode)
	}
	if got.LastProcessedCommandID != 123456789012 {
		t.Errorf("unrelated field lost: %d", got.LastProcessedCommandID)
	}
}

func TestSQLiteCorruptFileRecreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	if err := os.WriteFile(path, []byte("this is not a database file at all, not even close......"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := OpenSQLite(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	defer s.Close()

	if got := s.Load(context.Background()); got != logic.DefaultState() {
		t.Errorf("expected defaults after recovery, got %+v", got)
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("expected corrupt file kept aside: %v", err)
	}
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	if got := m.Load(ctx); got != logic.DefaultState() {
		t.Errorf("expected defaults, got %+v", got)
	}

	if err := m.Save(ctx, sampleState()); err != nil {
		t.Fatal(err)
	}
	if got := m.Load(ctx); got != sampleState() {
		t.Errorf("expected saved record, got %+v", got)
	}

	m.SaveErr = errors.New("disk gone")
	changed := sampleState()
	changed.DetectionEnabled = false
	if err := m.Save(ctx, changed); err == nil {
		t.Error("expected injected save error")
	}
	if !m.Load(ctx).DetectionEnabled {
		t.Error("failed save must not change the record")
	}
	if m.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", m.Saves())
	}
}

func TestMemStoreRawRow(t *testing.T) {
	m := NewMemStoreWith(sampleState())
	m.SetRow("photoLastID", KindInt, "x")
	if got := m.Load(context.Background()).LastPhotoIndex; got != 0 {
		t.Errorf("expected default index, got %d", got)
	}
}

func TestSchemaCoversEveryField(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Schema {
		if seen[f.Key] {
			t.Errorf("duplicate key %s", f.Key)
		}
		seen[f.Key] = true
		if v := f.Get(sampleState()); v.Kind != f.Kind {
			t.Errorf("%s: getter kind %s, schema kind %s", f.Key, v.Kind, f.Kind)
		}
	}
	// Every non-default field of sampleState must survive a row round trip.
	got, skipped := FromRows(ToRows(sampleState()))
	if len(skipped) != 0 || got != sampleState() {
		t.Errorf("row round trip: %+v skipped %v", got, skipped)
	}
}

func TestDecodeValueUnknownKind(t *testing.T) {
	if _, err := DecodeValue("blob", "x"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
