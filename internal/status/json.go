package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Camera        string     `json:"camera"`
	Group         string     `json:"group,omitempty"`
	BootID        string     `json:"boot_id"`
	WakeCause     string     `json:"wake_cause"`
	Mode          string     `json:"mode"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	LastOnline    string     `json:"last_online,omitempty"`
	Version       string     `json:"version"`
	MQTT          MQTTStatus `json:"mqtt"`
	Detection     Detection  `json:"detection"`
	Photos        PhotosJSON `json:"photos"`
	HTTPAddr      string     `json:"http_addr,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// Detection is the JSON representation of the detection-related record fields.
type Detection struct {
	Enabled          bool    `json:"enabled"`
	NightMode        bool    `json:"night_mode"`
	Debug            bool    `json:"debug"`
	ThresholdPercent float64 `json:"threshold_percent"`
	MotionEvents     int     `json:"motion_events"`
	LastCommandID    int64   `json:"last_command_id"`
}

// PhotosJSON is the JSON representation of photo storage.
type PhotosJSON struct {
	Stored    int    `json:"stored"`
	Bytes     int64  `json:"bytes"`
	LastSlot  int    `json:"last_slot"`
	Pending   string `json:"pending,omitempty"`
	FlashNext bool   `json:"flash_next,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	st := snap.State
	var lastOnline string
	if st.TimeOfDayMarker > 0 {
		lastOnline = time.Unix(st.TimeOfDayMarker, 0).UTC().Format(time.RFC3339)
	}

	return StatusInner{
		Camera:        snap.Config.CamID,
		Group:         snap.Config.GroupID,
		BootID:        snap.BootID,
		WakeCause:     string(snap.Cause),
		Mode:          mode,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		LastOnline:    lastOnline,
		Version:       snap.Config.Version,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Detection: Detection{
			Enabled:          st.DetectionEnabled,
			NightMode:        st.NightModeEnabled,
			Debug:            st.DebugEnabled,
			ThresholdPercent: st.MinChangeThresholdPercent,
			MotionEvents:     st.MotionEventCount,
			LastCommandID:    st.LastProcessedCommandID,
		},
		Photos: PhotosJSON{
			Stored:    snap.Photos.Count,
			Bytes:     snap.Photos.Bytes,
			LastSlot:  st.LastPhotoIndex,
			Pending:   st.PendingPhotoRef,
			FlashNext: st.FlashRequested,
		},
		HTTPAddr: snap.Config.HTTPAddr,
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
