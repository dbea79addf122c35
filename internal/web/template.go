package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/status"
)

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"since": formatSince,
	"bytes": func(n int64) string { return humanize.Bytes(uint64(n)) },
	"mode": func(m logic.BootMode) string {
		if !m.Valid() {
			return "UNKNOWN"
		}
		return string(m)
	},
	"armed": func(st logic.State) string {
		switch {
		case !st.DetectionEnabled:
			return "disarmed"
		case st.NightModeEnabled:
			return "armed (night)"
		}
		return "armed"
	},
	"slot": logic.SlotName,
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.CamID}} | alarmguard</title>
<style>
body { font: 14px/1.4 system-ui, sans-serif; background: #111; color: #ddd; max-width: 640px; margin: 1.5em auto; padding: 0 1em; }
h1 { font-size: 1.3em; margin-bottom: 0.2em; }
.sub { color: #888; margin-top: 0; }
dl { display: grid; grid-template-columns: 11em 1fr; gap: 0.3em 1em; margin: 1em 0; }
dt { color: #888; }
.armed { color: #f55; font-weight: bold; }
.disarmed { color: #8c8; }
.up { color: #8c8; }
.down { color: #f55; }
img { max-width: 100%; border: 1px solid #333; margin-top: 0.5em; }
a { color: #9cf; }
</style>
</head>
<body>
<h1>{{.Config.CamID}}{{with .Config.GroupID}} <small>({{.}})</small>{{end}}</h1>
<p class="sub">{{mode .Mode}} since {{since .Age}}, woken by {{.Cause}}</p>

<dl>
<dt>Detection</dt><dd class="{{if .State.DetectionEnabled}}armed{{else}}disarmed{{end}}">{{armed .State}}</dd>
<dt>Sensitivity</dt><dd>{{.State.MinChangeThresholdPercent}}%</dd>
<dt>Motion events</dt><dd>{{.State.MotionEventCount}}</dd>
<dt>Debug</dt><dd>{{if .State.DebugEnabled}}on{{else}}off{{end}}</dd>
<dt>Photos</dt><dd>{{.Photos.Count}} stored, {{bytes .Photos.Bytes}}</dd>
{{- with .State.PendingPhotoRef}}
<dt>Pending</dt><dd>{{.}}</dd>
{{- end}}
<dt>Broker</dt><dd class="{{if .MQTTConnected}}up{{else}}down{{end}}">{{.Config.Broker}} ({{if .MQTTConnected}}connected{{else}}disconnected{{end}})</dd>
<dt>Boot</dt><dd>{{.BootID}}</dd>
<dt>Version</dt><dd>{{.Config.Version}}</dd>
</dl>

<p>Latest: <a href="/photos/{{.State.LastPhotoIndex}}">{{slot .State.LastPhotoIndex}}</a></p>
<img src="/photos/{{.State.LastPhotoIndex}}" alt="{{slot .State.LastPhotoIndex}}">

<p><a href="/index.json">index.json</a></p>
</body>
</html>
`

// formatSince renders d as the two most significant units.
func formatSince(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

type pageData struct {
	status.Snapshot
	Age time.Duration
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return pageTmpl.Execute(w, pageData{Snapshot: snap, Age: snap.Uptime()})
}
