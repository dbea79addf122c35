package logic

// DefaultDebounceThreshold is the number of corroborating detections that must
// be exceeded before an alarm fires.
const DefaultDebounceThreshold = 2

// Debouncer counts corroborating motion detections across boot cycles. The
// counter lives in State.MotionEventCount so it survives restarts.
//
// The counter is reset when the alarm fires, whether or not the alarm could be
// delivered: an alarm is sent at most once per crossing.
type Debouncer struct {
	Threshold int
}

// NewDebouncer returns a Debouncer with the given threshold; a negative value
// means the default.
func NewDebouncer(threshold int) Debouncer {
	if threshold < 0 {
		threshold = DefaultDebounceThreshold
	}
	return Debouncer{Threshold: threshold}
}

// Record registers one positive detection.
func (d Debouncer) Record(st *State) {
	st.MotionEventCount++
}

// Due reports whether count has crossed the threshold.
func (d Debouncer) Due(count int) bool {
	return count > d.Threshold
}

// Fire returns true exactly when an alarm is due and resets the counter in the same step.
func (d Debouncer) Fire(st *State) bool {
	if !d.Due(st.MotionEventCount) {
		return false
	}
	st.MotionEventCount = 0
	return true
}
