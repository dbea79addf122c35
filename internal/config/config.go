// Package config loads node settings: built-in defaults, then an optional
// YAML file, then ALARMGUARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/alarmguard/internal/gpio"
	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/logtail"
	"github.com/sweeney/alarmguard/internal/night"
	"github.com/sweeney/alarmguard/internal/thermal"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ALARMGUARD_"

// Config is the complete node configuration.
type Config struct {
	CamID   string `yaml:"cam_id" env:"CAM_ID"`
	GroupID string `yaml:"group_id" env:"GROUP_ID"`

	// DataDir holds the record, the photo slots and the log tail unless
	// their paths are set explicitly.
	DataDir   string `yaml:"data_dir" env:"DATA_DIR"`
	StatePath string `yaml:"state_path" env:"STATE_PATH"`
	PhotoDir  string `yaml:"photo_dir" env:"PHOTO_DIR"`
	LogPath   string `yaml:"log_path" env:"LOG_PATH"`
	LogLines  int    `yaml:"log_lines" env:"LOG_LINES"`

	Broker       string `yaml:"broker" env:"BROKER"`
	ConnectTries uint   `yaml:"connect_tries" env:"CONNECT_TRIES"`
	HTTPAddr     string `yaml:"http_addr" env:"HTTP_ADDR"`

	SnapshotURL string `yaml:"snapshot_url" env:"SNAPSHOT_URL"`
	ResetURL    string `yaml:"reset_url" env:"RESET_URL"`

	GPIOChip string `yaml:"gpio_chip" env:"GPIO_CHIP"`
	PinPIR   int    `yaml:"pin_pir" env:"PIN_PIR"`
	PinLamp  int    `yaml:"pin_lamp" env:"PIN_LAMP"`

	Latitude       float64 `yaml:"latitude" env:"LATITUDE"`
	Longitude      float64 `yaml:"longitude" env:"LONGITUDE"`
	NightStartHour int     `yaml:"night_start_hour" env:"NIGHT_START_HOUR"`
	NightEndHour   int     `yaml:"night_end_hour" env:"NIGHT_END_HOUR"`

	// ThermalPath is the SoC temperature file; empty disables the overheat guard.
	ThermalPath    string  `yaml:"thermal_path" env:"THERMAL_PATH"`
	MaxTemperature float64 `yaml:"max_temperature" env:"MAX_TEMPERATURE"`

	Debounce           int `yaml:"debounce" env:"DEBOUNCE"`
	MaxCaptureAttempts int `yaml:"max_capture_attempts" env:"MAX_CAPTURE_ATTEMPTS"`

	MonitoringDwell     time.Duration `yaml:"monitoring_dwell" env:"MONITORING_DWELL"`
	PhotoDwell          time.Duration `yaml:"photo_dwell" env:"PHOTO_DWELL"`
	TelegramActiveDwell time.Duration `yaml:"telegram_active_dwell" env:"TELEGRAM_ACTIVE_DWELL"`
	TelegramIdleDwell   time.Duration `yaml:"telegram_idle_dwell" env:"TELEGRAM_IDLE_DWELL"`
	SleepInterval       time.Duration `yaml:"sleep_interval" env:"SLEEP_INTERVAL"`
	CooldownSleep       time.Duration `yaml:"cooldown_sleep" env:"COOLDOWN_SLEEP"`
	PollInterval        time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// Default returns the stock configuration.
func Default() Config {
	t := logic.DefaultTiming()
	return Config{
		CamID:               "CAM1",
		DataDir:             "/var/lib/alarmguard",
		LogLines:            logtail.DefaultLines,
		Broker:              "tcp://192.168.1.200:1883",
		ConnectTries:        3,
		HTTPAddr:            ":80",
		SnapshotURL:         "http://127.0.0.1:8080/snapshot.jpg",
		GPIOChip:            "gpiochip0",
		PinPIR:              gpio.PinPIR,
		PinLamp:             gpio.PinLamp,
		NightStartHour:      night.DefaultStartHour,
		NightEndHour:        night.DefaultEndHour,
		ThermalPath:         thermal.DefaultPath,
		MaxTemperature:      thermal.DefaultLimit,
		Debounce:            logic.DefaultDebounceThreshold,
		MaxCaptureAttempts:  3,
		MonitoringDwell:     t.MonitoringDwell,
		PhotoDwell:          t.PhotoDwell,
		TelegramActiveDwell: t.TelegramActiveDwell,
		TelegramIdleDwell:   t.TelegramIdleDwell,
		SleepInterval:       t.SleepInterval,
		CooldownSleep:       t.CooldownSleep,
		PollInterval:        500 * time.Millisecond,
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.derivePaths()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) derivePaths() {
	if c.StatePath == "" {
		c.StatePath = filepath.Join(c.DataDir, "state.db")
	}
	if c.PhotoDir == "" {
		c.PhotoDir = filepath.Join(c.DataDir, "photos")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.DataDir, "logs.txt")
	}
}

// Validate checks the configuration for values the node cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CamID) == "" {
		errs = append(errs, errors.New("cam_id is required"))
	}
	if strings.ContainsAny(c.CamID+c.GroupID, "/+#:") {
		errs = append(errs, errors.New("cam_id and group_id must not contain / + # or :"))
	}
	if c.DataDir == "" && (c.StatePath == "" || c.PhotoDir == "" || c.LogPath == "") {
		errs = append(errs, errors.New("data_dir is required unless every path is set"))
	}
	if c.SnapshotURL == "" {
		errs = append(errs, errors.New("snapshot_url is required"))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must be >= 0, got %d", c.Debounce))
	}
	if c.MaxCaptureAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_capture_attempts must be >= 1, got %d", c.MaxCaptureAttempts))
	}
	if c.ConnectTries < 1 {
		errs = append(errs, fmt.Errorf("connect_tries must be >= 1, got %d", c.ConnectTries))
	}
	if c.LogLines < 1 {
		errs = append(errs, fmt.Errorf("log_lines must be >= 1, got %d", c.LogLines))
	}
	for name, h := range map[string]int{"night_start_hour": c.NightStartHour, "night_end_hour": c.NightEndHour} {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("%s must be 0..23, got %d", name, h))
		}
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		errs = append(errs, fmt.Errorf("invalid coordinates %g,%g", c.Latitude, c.Longitude))
	}
	if c.MaxTemperature < 0 {
		errs = append(errs, fmt.Errorf("max_temperature must be >= 0, got %g", c.MaxTemperature))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be > 0"))
	}
	for name, d := range map[string]time.Duration{
		"monitoring_dwell":      c.MonitoringDwell,
		"photo_dwell":           c.PhotoDwell,
		"telegram_active_dwell": c.TelegramActiveDwell,
		"telegram_idle_dwell":   c.TelegramIdleDwell,
		"sleep_interval":        c.SleepInterval,
		"cooldown_sleep":        c.CooldownSleep,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", name, d))
		}
	}
	return errors.Join(errs...)
}

// Timing returns the controller timing.
func (c Config) Timing() logic.Timing {
	return logic.Timing{
		MonitoringDwell:     c.MonitoringDwell,
		PhotoDwell:          c.PhotoDwell,
		TelegramActiveDwell: c.TelegramActiveDwell,
		TelegramIdleDwell:   c.TelegramIdleDwell,
		SleepInterval:       c.SleepInterval,
		CooldownSleep:       c.CooldownSleep,
	}
}

// NightGate returns the gate selected by the coordinates and hour window.
func (c Config) NightGate() night.Gate {
	return night.NewGate(c.Latitude, c.Longitude, c.NightStartHour, c.NightEndHour)
}
