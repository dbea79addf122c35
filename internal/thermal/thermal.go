// Package thermal reads the SoC temperature so a hot node can cool down
// before it keeps the radio on.
package thermal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultPath is the first thermal zone of the Linux thermal sysfs.
	DefaultPath = "/sys/class/thermal/thermal_zone0/temp"
	// DefaultLimit is the temperature in °C above which the node cools down.
	DefaultLimit = 78.0
)

// Sensor reports the current temperature in degrees Celsius.
type Sensor interface {
	Celsius() (float64, error)
}

// SysfsSensor reads a thermal zone file holding millidegrees Celsius.
type SysfsSensor struct {
	Path string
}

func (s SysfsSensor) Celsius() (float64, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse temperature: %w", err)
	}
	return float64(milli) / 1000, nil
}

// FakeSensor returns a scripted reading.
type FakeSensor struct {
	Value float64
	Err   error
	Reads int
}

func (f *FakeSensor) Celsius() (float64, error) {
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Value, nil
}

// ErrNoSensor is returned by Open for an empty path.
var ErrNoSensor = errors.New("no thermal sensor configured")

// Open returns a sensor for path after checking it can be read.
func Open(path string) (SysfsSensor, error) {
	if path == "" {
		return SysfsSensor{}, ErrNoSensor
	}
	s := SysfsSensor{Path: path}
	if _, err := s.Celsius(); err != nil {
		return SysfsSensor{}, err
	}
	return s, nil
}
