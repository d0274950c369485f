package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/hydraesp/gotchi/internal/status"
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
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}).Parse(indexHTML))

func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("web: render: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>gotchi</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
.face { font-size: 5em; text-align: center; margin: 0.2em 0; }
.mood { text-align: center; font-size: 1.6em; margin-bottom: 1em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.bar { background: #eee; height: 10px; width: 100%; }
.bar span { display: block; background: #6a5acd; height: 10px; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>gotchi <small id="session">{{.SessionID}}</small></h1>

<div class="face" id="glyph">{{.State.Glyph}}</div>
<div class="mood" id="mood">{{.State}}</div>

<h2>Mind</h2>
<table>
<tr><th>Previous mood</th><td>{{.Previous}}</td></tr>
<tr><th>Excitement</th><td><div class="bar"><span style="width:{{.Excitement}}%"></span></div>{{.Excitement}}/100</td></tr>
<tr><th>Learning</th><td><div class="bar"><span style="width:{{.Learning}}%"></span></div>{{.Learning}}/100</td></tr>
<tr><th>Transitions</th><td>{{.Transitions}} ({{.Dropped}} dropped)</td></tr>
</table>

<h2>Senses</h2>
<table>
<tr><th>WiFi networks</th><td>{{.Sensors.WiFiNetworkCount}} (avg {{.Sensors.WiFiSignalAvgDBm}} dBm)</td></tr>
<tr><th>BLE devices</th><td>{{.Sensors.BLEDeviceCount}} (best {{.Sensors.BLESignalBestDBm}} dBm)</td></tr>
<tr><th>Free memory</th><td>{{.Sensors.FreeMemoryBytes}} bytes</td></tr>
<tr><th>SD card</th><td>{{yesno .Sensors.SDPresent}}</td></tr>
<tr><th>Interaction</th><td>{{yesno .Sensors.UserInteraction}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Scan</th><td>{{.Config.ScanMs}}ms</td></tr>
<tr><th>Health</th><td>{{.Config.HealthMs}}ms</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws;
  function connect() {
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function(ev) {
      var e = JSON.parse(ev.data);
      document.getElementById("glyph").textContent = e.glyph;
      document.getElementById("mood").textContent = e.to;
    };
    ws.onclose = function() { setTimeout(connect, 5000); };
  }
  connect();
})();
</script>
</body>
</html>
`
