package web

import (
	"html/template"
	"io"
	"time"

	"github.com/sweeney/wannalog/internal/alarm"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		return d.Truncate(time.Second).String()
	},
	"ledClass": func(i logic.Indicator) string {
		switch i {
		case logic.IndicatorCold:
			return "cold"
		case logic.IndicatorHot:
			return "hot"
		default:
			return "normal"
		}
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>wannalog</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.cold { color: blue; font-weight: bold; }
.normal { color: green; font-weight: bold; }
.hot { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>wannalog</h1>

<h2>Reading</h2>
<table>
{{with .Reading}}<tr><th>Temperature</th><td>{{printf "%.2f" .Celsius}} &deg;C</td></tr>
<tr><th>LED</th><td id="led" class="{{ledClass .Indicator}}">{{.Indicator.Color}}</td></tr>
<tr><th>Fan</th><td>{{printf "%.2f" .Duty}}%</td></tr>
<tr><th>ADC</th><td>{{.Raw}} ({{printf "%.2f" .Millivolts}} mV, LM35 {{printf "%.2f" .SensorMillivolts}} mV)</td></tr>
<tr><th>Measured</th><td>{{.Time.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{else}}<tr><th>Temperature</th><td id="led" class="unknown">no reading yet</td></tr>
{{end}}<tr><th>Aux LED</th><td>{{onOff .Aux}}</td></tr>
</table>

<h2>Alarm</h2>
<table>
<tr><th>State</th><td>{{.Alarm.State}}</td></tr>
{{if .Alarm.Time}}<tr><th>Time</th><td>{{.Alarm.Time}}</td></tr>{{end}}
<tr><th>Triggered</th><td>{{.Alarm.Triggers}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>State</th><td>{{.RunState}}</td></tr>
<tr><th>Cycles</th><td>{{.Cycles}}{{if gt .Config.RestartAfter 0}} / {{.Config.RestartAfter}}{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Period</th><td>{{.Config.PeriodMs}}ms</td></tr>
<tr><th>Samples</th><td>{{.Config.Samples}}</td></tr>
{{if .Config.Timezone}}<tr><th>Timezone</th><td>{{.Config.Timezone}}</td></tr>{{end}}
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, al alarm.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Alarm  alarm.Snapshot
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Alarm:    al,
	}
	indexTmpl.Execute(w, data)
}
