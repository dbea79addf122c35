package night

import (
	"testing"
	"time"
)

func TestHourGateWrapsMidnight(t *testing.T) {
	g := HourGate{Start: 20, End: 7}
	tests := map[int]bool{0: true, 6: true, 7: false, 12: false, 19: false, 20: true, 23: true}
	for hour, want := range tests {
		at := time.Date(2026, 6, 1, hour, 30, 0, 0, time.UTC)
		if got := g.IsNight(at); got != want {
			t.Errorf("hour %d: expected %v, got %v", hour, want, got)
		}
	}
}

func TestHourGateSameDay(t *testing.T) {
	g := HourGate{Start: 1, End: 5}
	if !g.IsNight(time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)) {
		t.Error("expected 03:00 inside [1,5)")
	}
	if g.IsNight(time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)) {
		t.Error("expected 05:00 outside [1,5)")
	}
	if (HourGate{Start: 4, End: 4}).IsNight(time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC)) {
		t.Error("empty window matched")
	}
}

func TestSunGate(t *testing.T) {
	// Graz, midsummer: midnight is dark, noon is light.
	g := SunGate{Latitude: 47.065554, Longitude: 15.450435}
	loc := time.FixedZone("CEST", 2*3600)

	if !g.IsNight(time.Date(2026, 6, 21, 0, 30, 0, 0, loc)) {
		t.Error("expected night at 00:30")
	}
	if g.IsNight(time.Date(2026, 6, 21, 13, 0, 0, 0, loc)) {
		t.Error("expected day at 13:00")
	}
}

func TestNewGate(t *testing.T) {
	if _, ok := NewGate(0, 0, DefaultStartHour, DefaultEndHour).(HourGate); !ok {
		t.Error("expected hour gate without a location")
	}
	if _, ok := NewGate(47, 15, DefaultStartHour, DefaultEndHour).(SunGate); !ok {
		t.Error("expected sun gate with a location")
	}
}
