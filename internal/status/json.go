package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/wannalog/internal/alarm"
	"github.com/sweeney/wannalog/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State         string       `json:"state"`
	Cycles        int          `json:"cycles"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Aux           bool         `json:"aux"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Alarm         AlarmJSON    `json:"alarm"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of the latest reading.
type ReadingJSON struct {
	Raw              int     `json:"raw"`
	Millivolts       float64 `json:"millivolts"`
	SensorMillivolts float64 `json:"sensor_millivolts"`
	Celsius          float64 `json:"celsius"`
	Indicator        string  `json:"indicator"`
	LED              string  `json:"led"`
	Duty             float64 `json:"duty"`
	Running          bool    `json:"running"`
	Timestamp        string  `json:"timestamp"`
}

// AlarmJSON is the JSON representation of the alarm scheduler.
type AlarmJSON struct {
	State       string `json:"state"`
	Time        string `json:"time,omitempty"`
	Triggers    int    `json:"triggers"`
	LastTrigger string `json:"last_trigger,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PeriodMs     int64  `json:"period_ms"`
	RestartAfter int    `json:"restart_after"`
	Samples      int    `json:"samples"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	Timezone     string `json:"timezone,omitempty"`
}

func buildInner(snap Snapshot, al alarm.Snapshot) StatusInner {
	inner := StatusInner{
		State:         string(snap.RunState),
		Cycles:        snap.Cycles,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Aux:           snap.Aux,
		Alarm: AlarmJSON{
			State:    string(al.State),
			Time:     al.Time,
			Triggers: al.Triggers,
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PeriodMs:     snap.Config.PeriodMs,
			RestartAfter: snap.Config.RestartAfter,
			Samples:      snap.Config.Samples,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			Timezone:     snap.Config.Timezone,
		},
	}
	if inner.State == "" {
		inner.State = string(logic.StateRunning)
	}
	if !al.LastTrigger.IsZero() {
		inner.Alarm.LastTrigger = al.LastTrigger.UTC().Format(time.RFC3339)
	}
	if r := snap.Reading; r != nil {
		inner.Reading = &ReadingJSON{
			Raw:              r.Raw,
			Millivolts:       r.Millivolts,
			SensorMillivolts: r.SensorMillivolts,
			Celsius:          r.Celsius,
			Indicator:        r.Indicator.String(),
			LED:              r.Indicator.Color(),
			Duty:             r.Duty,
			Running:          r.Duty > 0,
			Timestamp:        r.Time.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot, al alarm.Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap, al)}, "", "  ")
	return data
}
