// Package node runs one boot cycle of the camera node: load the record,
// pick the mode, run its body under a deadline, save, and report how the
// cycle must end.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/alarmguard/internal/camera"
	"github.com/sweeney/alarmguard/internal/command"
	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/logtail"
	"github.com/sweeney/alarmguard/internal/motion"
	"github.com/sweeney/alarmguard/internal/mqtt"
	"github.com/sweeney/alarmguard/internal/night"
	"github.com/sweeney/alarmguard/internal/photo"
	"github.com/sweeney/alarmguard/internal/state"
	"github.com/sweeney/alarmguard/internal/status"
	"github.com/sweeney/alarmguard/internal/thermal"
)

// Deps are the adapters a cycle drives.
type Deps struct {
	Store    state.Store
	Camera   camera.Source
	Lamp     camera.Illuminator // may be nil
	Photos   *photo.Slots
	Detector *motion.Detector
	Gate     night.Gate
	Tracker  *status.Tracker
	Tail     *logtail.Tail  // may be nil
	Thermal  thermal.Sensor // may be nil

	// Dial opens the operator link. It is only called in TELEGRAM.
	Dial func(ctx context.Context) (mqtt.Messenger, error)

	// StartHTTP starts the status server and returns its stop function.
	// It is only called in TELEGRAM; nil disables it.
	StartHTTP func() (stop func())

	Logger *slog.Logger
	Now    func() time.Time
}

// Settings are the tunables of a cycle.
type Settings struct {
	CamID              string
	GroupID            string
	Timing             logic.Timing
	Debouncer          logic.Debouncer
	MaxCaptureAttempts int
	PollInterval       time.Duration

	// MaxTemperature in °C ends TELEGRAM with a cooldown sleep; 0 disables it.
	MaxTemperature float64
}

// Node executes boot cycles.
type Node struct {
	Deps
	Settings
	router command.Router
}

// New creates a Node.
func New(d Deps, s Settings) *Node {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if s.PollInterval <= 0 {
		s.PollInterval = 500 * time.Millisecond
	}
	if s.MaxCaptureAttempts < 1 {
		s.MaxCaptureAttempts = 1
	}
	return &Node{
		Deps:     d,
		Settings: s,
		router:   command.Router{CamID: s.CamID, GroupID: s.GroupID},
	}
}

// cycle is the mutable context of one boot.
type cycle struct {
	id     string
	cause  logic.WakeCause
	mode   logic.BootMode
	st     *logic.State
	logger *slog.Logger

	// cooldown is set when the node overheated during this boot.
	cooldown bool
}

// RunCycle runs one boot and returns the terminal action. The record is
// saved before RunCycle returns, also when a mode body panics.
func (n *Node) RunCycle(ctx context.Context, cause logic.WakeCause) logic.Exit {
	st := n.Store.Load(ctx)
	dec := logic.Decide(cause, st, n.Timing)

	c := &cycle{
		id:    uuid.NewString(),
		cause: cause,
		mode:  dec.Mode,
		st:    &st,
	}
	c.logger = n.Logger.With("boot", c.id, "mode", dec.Mode, "cause", cause)
	c.logger.Info("boot", "deadline", dec.Deadline, "detection", st.DetectionEnabled, "events", st.MotionEventCount)

	if n.Tracker != nil {
		n.Tracker.SetBoot(c.id, cause)
		n.Tracker.Update(dec.Mode, st)
	}

	exit := n.runBody(ctx, c, dec.Deadline)

	if err := n.Store.Save(context.WithoutCancel(ctx), st); err != nil {
		c.logger.Error("failed to save state", "error", err)
	}
	if n.Tracker != nil {
		n.Tracker.Update(dec.Mode, st)
	}
	c.logger.Info("cycle done", "next", st.Mode, "action", exit.Action, "exit_cause", exit.Cause, "fatal", exit.Fatal)
	if n.Tail != nil {
		if err := n.Tail.Flush(); err != nil {
			c.logger.Warn("failed to flush log tail", "error", err)
		}
	}
	return exit
}

func (n *Node) runBody(ctx context.Context, c *cycle, deadline time.Duration) (exit logic.Exit) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("mode body panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			exit = logic.FatalExit()
		}
	}()

	bctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var fatal bool
	switch c.mode {
	case logic.ModeMonitoring:
		n.monitor(bctx, c)
	case logic.ModePhoto:
		fatal = n.photo(bctx, c)
	default:
		n.telegram(bctx, c)
	}
	if fatal {
		return logic.FatalExit()
	}
	if c.cooldown {
		return logic.CooldownExit(n.Timing)
	}
	return logic.NextExit(c.mode, *c.st, n.Timing, n.Debouncer)
}

// gateNight applies night gating and logs a change.
func (n *Node) gateNight(c *cycle) {
	if n.Gate == nil {
		return
	}
	isNight := n.Gate.IsNight(n.Now())
	if logic.ApplyNightGate(c.st, isNight) {
		c.logger.Info("night gate changed detection", "night", isNight, "detection", c.st.DetectionEnabled)
	}
}

func (n *Node) updatePhotoUsage() {
	if n.Tracker == nil || n.Photos == nil {
		return
	}
	count, bytes := n.Photos.Usage()
	n.Tracker.SetPhotos(count, bytes)
}
