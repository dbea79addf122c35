// Command alarmguard runs one boot cycle of a battery camera node, then sleeps
// or re-executes itself for the next cycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/sweeney/alarmguard/internal/camera"
	"github.com/sweeney/alarmguard/internal/config"
	"github.com/sweeney/alarmguard/internal/gpio"
	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/logtail"
	"github.com/sweeney/alarmguard/internal/motion"
	"github.com/sweeney/alarmguard/internal/mqtt"
	"github.com/sweeney/alarmguard/internal/node"
	"github.com/sweeney/alarmguard/internal/photo"
	"github.com/sweeney/alarmguard/internal/power"
	"github.com/sweeney/alarmguard/internal/state"
	"github.com/sweeney/alarmguard/internal/status"
	"github.com/sweeney/alarmguard/internal/thermal"
	"github.com/sweeney/alarmguard/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	printState := flag.Bool("print-state", false, "Print the persisted record and exit")
	wake := flag.String("wake", "", "Override the wake cause (EXTERNAL_TRIGGER, TIMER, COMMAND_PENDING, COLD_START)")

	flag.Parse()

	if err := run(*configPath, *printState, *wake, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, printState bool, wake string, stdout io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	for _, dir := range []string{filepath.Dir(cfg.StatePath), filepath.Dir(cfg.LogPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tail, tailErr := logtail.Open(cfg.LogPath, cfg.LogLines)
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, tail), nil))
	slog.SetDefault(logger)
	if tailErr != nil {
		logger.Warn("log tail not restored", "error", tailErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg.StatePath, logger)

	if printState {
		defer store.Close()
		return printRecord(stdout, store.Load(ctx))
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}
	defer closeAll()
	closers = append(closers, store.Close)

	photos, err := photo.NewSlots(cfg.PhotoDir, logger)
	if err != nil {
		return fmt.Errorf("init photo storage: %w", err)
	}

	// Without GPIO the node still works: sleeps end on the timer and
	// captures go without flash.
	var (
		trigger power.Waiter
		lamp    camera.Illuminator
	)
	dev, err := gpio.NewRealDevice(cfg.GPIOChip, cfg.PinPIR, cfg.PinLamp)
	if err != nil {
		logger.Warn("gpio unavailable", "error", err)
	} else {
		trigger, lamp = dev, dev
		closers = append(closers, dev.Close)
	}

	var sensor thermal.Sensor
	if zone, err := thermal.Open(cfg.ThermalPath); err == nil {
		sensor = zone
	} else if !errors.Is(err, thermal.ErrNoSensor) {
		logger.Warn("temperature sensor unavailable", "path", cfg.ThermalPath, "error", err)
	}

	cam := camera.NewHTTPSource(cfg.SnapshotURL, cfg.ResetURL)
	closers = append(closers, cam.Close)

	tracker := status.NewTracker(time.Now(), status.Config{
		CamID:    cfg.CamID,
		GroupID:  cfg.GroupID,
		Broker:   cfg.Broker,
		HTTPAddr: cfg.HTTPAddr,
		Version:  version,
	})

	n := node.New(node.Deps{
		Store:     store,
		Camera:    cam,
		Lamp:      lamp,
		Photos:    photos,
		Detector:  motion.NewDetector(motion.DefaultWidth, motion.DefaultHeight, motion.DefaultStride),
		Gate:      cfg.NightGate(),
		Tracker:   tracker,
		Tail:      tail,
		Thermal:   sensor,
		Dial:      dialer(cfg, logger),
		StartHTTP: httpStarter(cfg.HTTPAddr, tracker, photos, logger),
		Logger:    logger,
	}, node.Settings{
		CamID:              cfg.CamID,
		GroupID:            cfg.GroupID,
		Timing:             cfg.Timing(),
		Debouncer:          logic.NewDebouncer(cfg.Debounce),
		MaxCaptureAttempts: cfg.MaxCaptureAttempts,
		PollInterval:       cfg.PollInterval,
		MaxTemperature:     cfg.MaxTemperature,
	})

	cause := resolveCause(wake)
	exit := n.RunCycle(ctx, cause)

	if ctx.Err() != nil {
		logger.Info("interrupted, not restarting")
		return nil
	}

	restarter := power.ExecRestarter{Before: func() {
		if err := tail.Flush(); err != nil {
			logger.Warn("failed to flush log tail", "error", err)
		}
		closeAll()
	}}
	if err := power.Perform(ctx, exit, trigger, restarter, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted while sleeping")
			return nil
		}
		return err
	}
	return nil
}

// openStore opens the durable record, falling back to memory so a broken
// medium never stops the cycle.
func openStore(ctx context.Context, path string, logger *slog.Logger) state.Store {
	store, err := state.OpenSQLite(ctx, path, logger)
	if err != nil {
		logger.Error("state storage unavailable, using defaults", "path", path, "error", err)
		return state.NewMemStore()
	}
	return store
}

func dialer(cfg config.Config, logger *slog.Logger) func(context.Context) (mqtt.Messenger, error) {
	opts := mqtt.Options{
		Broker:       cfg.Broker,
		CamID:        cfg.CamID,
		GroupID:      cfg.GroupID,
		ConnectTries: cfg.ConnectTries,
	}
	return func(ctx context.Context) (mqtt.Messenger, error) {
		m, err := mqtt.Dial(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func httpStarter(addr string, tracker *status.Tracker, photos web.PhotoReader, logger *slog.Logger) func() func() {
	if addr == "" {
		return nil
	}
	return func() func() {
		srv := web.New(addr, tracker, photos)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("http server error", "error", err)
			}
		}()
		logger.Info("http status server listening", "addr", addr)
		return func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}
	}
}

// resolveCause prefers an explicit -wake value over the handed-over cause.
func resolveCause(wake string) logic.WakeCause {
	if wake != "" {
		return logic.ParseWakeCause(wake)
	}
	return power.WakeCauseFromEnv()
}

func printRecord(w io.Writer, st logic.State) error {
	rows := state.ToRows(st)
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, rows[k].Text); err != nil {
			return err
		}
	}
	return nil
}
