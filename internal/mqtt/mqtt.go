// Package mqtt provides MQTT publishing and command subscription with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"math"
)

// Default topics.
const (
	TopicTelemetry    = "/mofuban/wannalog"
	TopicToggle       = "/mofuban/ledtoggle"
	TopicToggleStatus = "/mofuban/ledstat"
	TopicAlarmSet     = "/mofuban/alarmset"
)

// QoSAtLeastOnce is used for every publish and subscription.
const QoSAtLeastOnce byte = 1

// ErrNotConnected is returned by publishes attempted while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt: not connected")

// Topics names the inbound and outbound topics.
type Topics struct {
	Telemetry    string `yaml:"telemetry"`
	Toggle       string `yaml:"toggle"`
	ToggleStatus string `yaml:"toggle_status"`
	AlarmSet     string `yaml:"alarm_set"`
}

// DefaultTopics returns the standard topic set.
func DefaultTopics() Topics {
	return Topics{
		Telemetry:    TopicTelemetry,
		Toggle:       TopicToggle,
		ToggleStatus: TopicToggleStatus,
		AlarmSet:     TopicAlarmSet,
	}
}

// Handler receives inbound messages. It is called from the MQTT client's
// goroutines, concurrently with the control loop.
type Handler func(topic string, payload []byte)

// Publisher publishes telemetry and toggle state.
type Publisher interface {
	// PublishTelemetry sends one telemetry record and returns its message id.
	// Returns error if publishing fails (should not crash the process).
	PublishTelemetry(rec TelemetryRecord) (uint16, error)

	// PublishToggle sends the auxiliary LED state.
	PublishToggle(on bool) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// TelemetryRecord is the status of one control cycle.
type TelemetryRecord struct {
	First            bool    // first cycle since the process started
	Raw              int     // oversampled ADC reading
	Millivolts       float64 // calibrated ADC voltage
	SensorMillivolts float64 // LM35 output voltage
	Celsius          float64
	LED              string // indicator color
	Time             string // formatted local time
	Duty             float64
	Aux              bool
}

// TelemetryPayload is the MQTT message payload structure.
// Field order is part of the wire format.
type TelemetryPayload struct {
	Save  int     `json:"save"`
	ADC   int     `json:"adc"`
	OpAmp float64 `json:"opamp"`
	LM35  float64 `json:"lm35"`
	Temp  float64 `json:"temp"`
	LED   string  `json:"led"`
	Time  string  `json:"time"`
	Speed float64 `json:"speed"`
	LEDBT int     `json:"ledbt"`
}

// FormatTelemetry creates the JSON payload for a telemetry record.
// Voltages, temperature and duty are rounded to two decimals.
func FormatTelemetry(rec TelemetryRecord) ([]byte, error) {
	return json.Marshal(TelemetryPayload{
		Save:  boolToInt(rec.First),
		ADC:   rec.Raw,
		OpAmp: round2(rec.Millivolts),
		LM35:  round2(rec.SensorMillivolts),
		Temp:  round2(rec.Celsius),
		LED:   rec.LED,
		Time:  rec.Time,
		Speed: round2(rec.Duty),
		LEDBT: boolToInt(rec.Aux),
	})
}

// FormatToggle returns the toggle-status payload: "1" for on, "0" for off.
func FormatToggle(on bool) []byte {
	if on {
		return []byte("1")
	}
	return []byte("0")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
