// Package power performs the terminal action of a boot cycle: a low-power
// wait followed by a restart, or an immediate restart. The wake cause is
// handed to the next process image through the environment.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sweeney/alarmguard/internal/logic"
)

// EnvWakeCause carries the wake cause across a restart.
const EnvWakeCause = "ALARMGUARD_WAKE_CAUSE"

// WakeCauseFromEnv reads and parses the handed-over cause.
// Absent or unknown values are a cold start.
func WakeCauseFromEnv() logic.WakeCause {
	return logic.ParseWakeCause(os.Getenv(EnvWakeCause))
}

// Waiter blocks until the external trigger fires.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Sleep waits for d or the trigger, whichever comes first, and classifies
// the wake. A nil waiter or a failing trigger leaves only the timer.
func Sleep(ctx context.Context, d time.Duration, w Waiter, logger *slog.Logger) logic.WakeCause {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	if w != nil {
		err := w.Wait(ctx)
		if err == nil {
			return logic.WakeExternalTrigger
		}
		if ctx.Err() == nil {
			if logger != nil {
				logger.Warn("trigger wait failed, sleeping on timer only", "error", err)
			}
			<-ctx.Done()
		}
		return logic.WakeTimerExpiry
	}
	<-ctx.Done()
	return logic.WakeTimerExpiry
}

// Restarter replaces the running process with a fresh boot.
type Restarter interface {
	// Restart does not return on success.
	Restart(cause logic.WakeCause) error
}

// Perform carries out exit. It only returns when the restart failed or ctx
// was cancelled during the sleep.
func Perform(ctx context.Context, exit logic.Exit, w Waiter, r Restarter, logger *slog.Logger) error {
	cause := exit.Cause
	if exit.Action == logic.ActionSleep {
		if exit.TimerOnly {
			w = nil
		}
		if logger != nil {
			logger.Info("sleeping", "interval", exit.Sleep, "timer_only", exit.TimerOnly)
		}
		cause = Sleep(ctx, exit.Sleep, w, logger)
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sleep interrupted: %w", err)
		}
	}
	if logger != nil {
		logger.Info("restarting", "cause", cause, "fatal", exit.Fatal)
	}
	if err := r.Restart(cause); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	return nil
}

// ErrUnsupported is returned where a process image cannot be replaced.
var ErrUnsupported = errors.New("restart not supported on this platform")

// environWith returns env with key set to value, replacing any previous entry.
func environWith(env []string, key, value string) []string {
	out := make([]string, 0, len(env)+1)
	prefix := key + "="
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

// FakeRestarter records restarts instead of performing them.
type FakeRestarter struct {
	Causes []logic.WakeCause
	Err    error
}

func (f *FakeRestarter) Restart(cause logic.WakeCause) error {
	if f.Err != nil {
		return f.Err
	}
	f.Causes = append(f.Causes, cause)
	return nil
}
