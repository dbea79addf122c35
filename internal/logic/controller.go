package logic

import "time"

// Timing holds the per-mode dwell bounds and the sleep interval.
type Timing struct {
	MonitoringDwell     time.Duration
	PhotoDwell          time.Duration
	TelegramActiveDwell time.Duration // detection enabled
	TelegramIdleDwell   time.Duration // detection disabled
	SleepInterval       time.Duration
	// CooldownSleep is the timer-only sleep after an overheat.
	CooldownSleep time.Duration
}

// DefaultTiming returns the stock dwell bounds.
func DefaultTiming() Timing {
	return Timing{
		MonitoringDwell:     8 * time.Second,
		PhotoDwell:          10 * time.Second,
		TelegramActiveDwell: 5 * time.Second,
		TelegramIdleDwell:   20 * time.Second,
		SleepInterval:       15 * time.Second,
		CooldownSleep:       10 * time.Minute,
	}
}

// Decision is the controller's output for one boot: the mode to run and the
// upper bound on how long its body may take.
type Decision struct {
	Mode     BootMode
	Deadline time.Duration
}

// DecideMode picks the mode for this boot. It is a pure function of the wake
// cause, the stored mode, DetectionEnabled and PendingPhotoRef.
// Rules are evaluated in priority order; the first match wins.
func DecideMode(cause WakeCause, st State) BootMode {
	// An external trigger always means "go observe now".
	if cause == WakeExternalTrigger && st.DetectionEnabled {
		return ModeMonitoring
	}
	if st.Mode == ModeMonitoring && (cause == WakeTimerExpiry || !st.DetectionEnabled) {
		return ModeTelegram
	}
	if st.PhotoRequested() {
		return ModePhoto
	}
	if !st.Mode.Valid() {
		return ModeTelegram
	}
	return st.Mode
}

// Deadline returns the dwell bound for mode given the current record.
func Deadline(mode BootMode, st State, t Timing) time.Duration {
	switch mode {
	case ModeMonitoring:
		if !st.DetectionEnabled {
			return 0
		}
		return t.MonitoringDwell
	case ModePhoto:
		return t.PhotoDwell
	default:
		if st.DetectionEnabled {
			return t.TelegramActiveDwell
		}
		return t.TelegramIdleDwell
	}
}

// Decide combines DecideMode and Deadline.
func Decide(cause WakeCause, st State, t Timing) Decision {
	mode := DecideMode(cause, st)
	return Decision{Mode: mode, Deadline: Deadline(mode, st, t)}
}

// NextModeAfterMonitoring returns the mode to resume into after a MONITORING body.
// Anything pending for the operator hands over to TELEGRAM.
func NextModeAfterMonitoring(st State, d Debouncer) BootMode {
	if !st.DetectionEnabled || d.Due(st.MotionEventCount) || st.PendingPhotoRef != "" {
		return ModeTelegram
	}
	return ModeMonitoring
}

// NextModeAfterTelegram returns the mode to resume into after a TELEGRAM body.
// An explicit transition requested by a command wins.
func NextModeAfterTelegram(st State, requested BootMode) BootMode {
	if requested.Valid() {
		return requested
	}
	if st.PhotoRequested() {
		return ModePhoto
	}
	if st.DetectionEnabled {
		return ModeMonitoring
	}
	return ModeTelegram
}

// Action is the terminal action of a boot cycle.
type Action string

const (
	ActionRestart Action = "RESTART"
	ActionSleep   Action = "SLEEP"
)

// Exit describes how a boot cycle ends.
type Exit struct {
	Action Action
	// Cause is handed to the next boot when Action is ActionRestart.
	Cause WakeCause
	// Sleep is the timer for ActionSleep; the external trigger may end it earlier.
	Sleep time.Duration
	// Fatal marks a restart outside the state machine (unrecoverable failure).
	Fatal bool
	// TimerOnly makes a sleep ignore the external trigger.
	TimerOnly bool
}

// NextExit decides the terminal action once the body of ran has finished and
// st holds the record about to be saved. Sleeping is only allowed out of
// MONITORING with nothing pending.
func NextExit(ran BootMode, st State, t Timing, d Debouncer) Exit {
	if ran == ModeMonitoring && st.Mode == ModeMonitoring && st.DetectionEnabled &&
		st.PendingPhotoRef == "" && !d.Due(st.MotionEventCount) && t.SleepInterval > 0 {
		return Exit{Action: ActionSleep, Sleep: t.SleepInterval}
	}
	if st.PhotoRequested() {
		return Exit{Action: ActionRestart, Cause: WakeCommandPending}
	}
	return Exit{Action: ActionRestart, Cause: WakeColdStart}
}

// FatalExit is the universal fallback: restart outside the state machine.
func FatalExit() Exit {
	return Exit{Action: ActionRestart, Cause: WakeColdStart, Fatal: true}
}

// CooldownExit ends an overheated cycle with a timer-only sleep. Without a
// cooldown interval it falls back to a plain restart.
func CooldownExit(t Timing) Exit {
	if t.CooldownSleep <= 0 {
		return Exit{Action: ActionRestart, Cause: WakeColdStart}
	}
	return Exit{Action: ActionSleep, Sleep: t.CooldownSleep, TimerOnly: true}
}

// Overheated reports whether celsius exceeds limit. A non-positive limit disables the check.
func Overheated(celsius, limit float64) bool {
	return limit > 0 && celsius > limit
}
