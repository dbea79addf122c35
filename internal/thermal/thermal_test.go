package thermal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeZone(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temp")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSysfsSensor(t *testing.T) {
	tests := []struct {
		content string
		want    float64
	}{
		{"81234\n", 81.234},
		{"45000", 45},
		{"-5000\n", -5},
	}
	for _, tt := range tests {
		s := SysfsSensor{Path: writeZone(t, tt.content)}
		got, err := s.Celsius()
		if err != nil {
			t.Fatalf("%q: %v", tt.content, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestSysfsSensorErrors(t *testing.T) {
	if _, err := (SysfsSensor{Path: writeZone(t, "hot\n")}).Celsius(); err == nil {
		t.Error("expected parse error")
	}
	if _, err := (SysfsSensor{Path: filepath.Join(t.TempDir(), "missing")}).Celsius(); err == nil {
		t.Error("expected read error")
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(""); !errors.Is(err, ErrNoSensor) {
		t.Errorf("empty path: expected ErrNoSensor, got %v", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing zone")
	}
	s, err := Open(writeZone(t, "50000\n"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c, _ := s.Celsius(); c != 50 {
		t.Errorf("got %v, want 50", c)
	}
}

func TestFakeSensor(t *testing.T) {
	f := &FakeSensor{Value: 80}
	if c, err := f.Celsius(); err != nil || c != 80 {
		t.Errorf("got %v, %v", c, err)
	}
	f.Err = errors.New("boom")
	if _, err := f.Celsius(); err == nil {
		t.Error("expected scripted error")
	}
	if f.Reads != 2 {
		t.Errorf("Reads: got %d, want 2", f.Reads)
	}
}
