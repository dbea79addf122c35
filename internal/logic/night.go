package logic

// ApplyNightGate makes detection follow the time of day while night mode is
// on: armed at night, disarmed during the day. It reports whether
// DetectionEnabled changed. Without night mode the record is untouched.
func ApplyNightGate(st *State, isNight bool) bool {
	if !st.NightModeEnabled || st.DetectionEnabled == isNight {
		return false
	}
	st.DetectionEnabled = isNight
	return true
}
