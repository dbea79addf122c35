package status

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatReport returns the one-line operator report for /status.
func FormatReport(snap Snapshot) string {
	var b strings.Builder
	if snap.State.DetectionEnabled {
		b.WriteString("Intrusion detection started.")
	} else {
		b.WriteString("Intrusion detection stopped.")
	}
	if snap.State.NightModeEnabled {
		b.WriteString(" Night mode.")
	} else {
		b.WriteString(" Normal mode.")
	}
	fmt.Fprintf(&b, " Sensitivity: %g%%.", snap.State.MinChangeThresholdPercent)
	fmt.Fprintf(&b, " Photos: %d (%s).", snap.Photos.Count, humanize.Bytes(uint64(snap.Photos.Bytes)))
	if snap.State.DebugEnabled {
		b.WriteString(" Debug on.")
	}
	fmt.Fprintf(&b, " SW Ver: %s", snap.Config.Version)
	return b.String()
}
