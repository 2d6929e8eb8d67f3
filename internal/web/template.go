package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/rotary-phone/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orUnknown": func(s interface{}) string {
		if v := fmt.Sprint(s); v != "" {
			return v
		}
		return "UNKNOWN"
	},
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
	"digit": func(n int) string {
		if n == 10 {
			return "0"
		}
		return fmt.Sprintf("%d", n)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Rotary Phone</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.missing { color: red; }
</style>
</head>
<body>
<h1>Rotary Phone</h1>

<h2>Call</h2>
<table>
<tr><th>State</th><td id="call-state">{{orUnknown .Phone.Call}}</td></tr>
<tr><th>Line</th><td id="line" class="{{if .Phone.Baselined}}{{else}}unknown{{end}}">{{orUnknown .Phone.Line}}</td></tr>
<tr><th>Pulses</th><td>{{.Phone.Pulses}}</td></tr>
<tr><th>Digit</th><td>{{if .Phone.Digit}}{{digit .Phone.Digit}}{{else}}-{{end}}</td></tr>
<tr><th>Track</th><td>{{if .Phone.Track}}{{.Phone.Track}}{{else}}-{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Phone.Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Ringer</h2>
<table>
<tr><th>State</th><td id="ringer-state">{{orUnknown .Phone.Ringer}}</td></tr>
<tr><th>Isolation relay</th><td class="{{if .Phone.Relays.Isolation}}on{{else}}off{{end}}">{{onOff .Phone.Relays.Isolation}}</td></tr>
<tr><th>Ringer relay</th><td class="{{if .Phone.Relays.Ringer}}on{{else}}off{{end}}">{{onOff .Phone.Relays.Ringer}}</td></tr>
</table>

<h2>Media</h2>
<table>
<tr><th>Directory</th><td>{{.Config.MediaDir}}</td></tr>
{{if .MissingTracks}}<tr><th>Missing</th><td class="missing">{{range $i, $t := .MissingTracks}}{{if $i}}, {{end}}{{$t}}{{end}}</td></tr>
{{else}}<tr><th>Missing</th><td>none</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Pickups</th><td>{{.Phone.Counts.Pickups}}</td></tr>
<tr><th>Hang-ups</th><td>{{.Phone.Counts.HangUps}}</td></tr>
<tr><th>Digits</th><td>{{.Phone.Counts.Digits}}</td></tr>
<tr><th>Discarded</th><td>{{.Phone.Counts.Discarded}}</td></tr>
<tr><th>Connects</th><td>{{.Phone.Counts.Connects}}</td></tr>
<tr><th>Rings</th><td>{{.Phone.Counts.Rings}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Dial timeout</th><td>{{.Config.DialTimeoutMs}}ms</td></tr>
<tr><th>Hang-up</th><td>{{.Config.HangUpMs}}ms</td></tr>
<tr><th>Ringer delay</th><td>{{.Config.RingerDelayMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("http: render status page: %v", err)
	}
}
