package logic

import (
	"fmt"
	"math"
)

// IntentKind names an operator intent, independent of transport.
type IntentKind string

const (
	IntentRequestPhoto        IntentKind = "REQUEST_PHOTO"
	IntentFetchPhoto          IntentKind = "FETCH_PHOTO"
	IntentStartDetection      IntentKind = "START_DETECTION"
	IntentStartNightDetection IntentKind = "START_NIGHT_DETECTION"
	IntentStopDetection       IntentKind = "STOP_DETECTION"
	IntentSetNightMode        IntentKind = "SET_NIGHT_MODE"
	IntentSetSensitivity      IntentKind = "SET_SENSITIVITY"
	IntentToggleDebug         IntentKind = "TOGGLE_DEBUG"
	IntentRequestStatus       IntentKind = "REQUEST_STATUS"
	IntentRequestLogs         IntentKind = "REQUEST_LOGS"
	IntentReboot              IntentKind = "REBOOT"
)

// Intent is a decoded operator command. Only the fields relevant to Kind are set.
type Intent struct {
	Kind    IntentKind
	Flash   bool    // RequestPhoto
	Index   int     // FetchPhoto
	Enabled bool    // SetNightMode
	Percent float64 // SetSensitivity
}

// Report is an out-of-band report an intent asks for.
type Report string

const (
	ReportNone   Report = ""
	ReportStatus Report = "STATUS"
	ReportLogs   Report = "LOGS"
)

// Effect is what applying an intent asks the caller to do beyond the state mutation.
type Effect struct {
	// Transition is the mode to resume into; empty means "no explicit transition".
	Transition BootMode
	// Reply is a text acknowledgement for the operator.
	Reply string
	Report Report
	// FetchSlot is the slot to deliver, or -1.
	FetchSlot int
	// Rejected is set when the intent was refused; the state is untouched.
	Rejected string
}

// AcceptCommand records id as processed and reports whether it is new.
// Delivering the same (or an older) id again is a no-op.
func AcceptCommand(st *State, id int64) bool {
	if id <= st.LastProcessedCommandID {
		return false
	}
	st.LastProcessedCommandID = id
	return true
}

// Apply mutates st according to in. It is the only path from operator
// commands to the persisted record.
func Apply(st *State, in Intent) Effect {
	eff := Effect{FetchSlot: -1}
	switch in.Kind {
	case IntentRequestPhoto:
		st.FlashRequested = in.Flash
		st.PendingPhotoRef = PhotoRequestRef
		st.CaptureAttempts = 0
		eff.Transition = ModePhoto
		eff.Reply = "capture requested"
		if in.Flash {
			eff.Reply = "capture with flash requested"
		}
	case IntentFetchPhoto:
		if in.Index < 0 || in.Index >= PhotoSlotCount {
			eff.Rejected = fmt.Sprintf("%s not found", SlotName(in.Index))
			return eff
		}
		eff.FetchSlot = in.Index
	case IntentStartDetection:
		st.DetectionEnabled = true
		st.NightModeEnabled = false
		eff.Transition = ModeMonitoring
		eff.Reply = "intrusion detection started"
	case IntentStartNightDetection:
		st.DetectionEnabled = true
		st.NightModeEnabled = true
		eff.Reply = "intrusion detection started into night mode"
	case IntentSetNightMode:
		st.NightModeEnabled = in.Enabled
		if in.Enabled {
			eff.Reply = "intrusion detection set to night mode"
		} else {
			eff.Reply = "intrusion detection set to normal mode"
		}
	case IntentStopDetection:
		st.DetectionEnabled = false
		st.NightModeEnabled = false
		eff.Reply = "intrusion detection stopped"
	case IntentSetSensitivity:
		if !ValidThreshold(in.Percent) {
			eff.Rejected = fmt.Sprintf("sensitivity must be between 0 and 100, got %g", in.Percent)
			return eff
		}
		st.MinChangeThresholdPercent = in.Percent
		eff.Reply = fmt.Sprintf("sensitivity set to %g%%", in.Percent)
	case IntentToggleDebug:
		st.DebugEnabled = !st.DebugEnabled
		eff.Reply = fmt.Sprintf("setting debug to %t", st.DebugEnabled)
	case IntentRequestStatus:
		eff.Report = ReportStatus
	case IntentRequestLogs:
		eff.Report = ReportLogs
	case IntentReboot:
		if st.DetectionEnabled {
			eff.Rejected = "reboot refused while detection is enabled"
			return eff
		}
		st.Mode = ModeTelegram
		eff.Transition = ModeTelegram
		eff.Reply = "rebooting"
	default:
		eff.Rejected = fmt.Sprintf("unknown intent %q", in.Kind)
	}
	return eff
}

// CompleteCapture records a successful PHOTO capture already written to slot.
func CompleteCapture(st *State, slot int) {
	st.FlashRequested = false
	st.PendingPhotoRef = SlotName(slot)
	st.CaptureAttempts = 0
	st.Mode = ModeTelegram
}

// FailCapture records a failed PHOTO attempt and reports whether the retry
// budget is exhausted. When exhausted the request is dropped and the node
// resumes into TELEGRAM; otherwise it re-enters PHOTO.
func FailCapture(st *State, maxAttempts int) (exhausted bool) {
	st.CaptureAttempts++
	if st.CaptureAttempts < maxAttempts {
		st.Mode = ModePhoto
		return false
	}
	DropCapture(st)
	return true
}

// DropCapture abandons the pending capture request.
func DropCapture(st *State) {
	st.CaptureAttempts = 0
	st.FlashRequested = false
	if st.PhotoRequested() {
		st.PendingPhotoRef = ""
	}
	st.Mode = ModeTelegram
}

// ValidThreshold reports whether p is a usable sensitivity percentage.
func ValidThreshold(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 100
}
