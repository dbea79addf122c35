// Package night decides whether it is currently night at the node's location.
package night

import (
	"time"

	"github.com/btittelbach/astrotime"
)

// Gate reports whether t falls into the night window.
type Gate interface {
	IsNight(t time.Time) bool
}

// SunGate uses sunrise and sunset at a fixed location.
type SunGate struct {
	Latitude  float64
	Longitude float64 // east positive
}

// IsNight is true when the next sunrise comes before the next sunset.
func (g SunGate) IsNight(t time.Time) bool {
	sunrise := astrotime.NextDawn(t, g.Latitude, g.Longitude, astrotime.SUNRISE)
	sunset := astrotime.NextDusk(t, g.Latitude, g.Longitude, astrotime.SUNSET)
	return sunrise.Before(sunset)
}

// HourGate is a fixed local-time window [Start, End). Start > End wraps
// past midnight; Start == End never matches.
type HourGate struct {
	Start int
	End   int
}

func (g HourGate) IsNight(t time.Time) bool {
	h := t.Hour()
	if g.Start == g.End {
		return false
	}
	if g.Start < g.End {
		return h >= g.Start && h < g.End
	}
	return h >= g.Start || h < g.End
}

// DefaultStartHour and DefaultEndHour bound the fallback window.
const (
	DefaultStartHour = 20
	DefaultEndHour   = 7
)

// NewGate picks the sun-based gate when a location is configured,
// otherwise the hour window.
func NewGate(lat, lon float64, startHour, endHour int) Gate {
	if lat != 0 || lon != 0 {
		return SunGate{Latitude: lat, Longitude: lon}
	}
	return HourGate{Start: startHour, End: endHour}
}
