package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord() TelemetryRecord {
	return TelemetryRecord{
		First:            true,
		Raw:              560,
		Millivolts:       560.0,
		SensorMillivolts: 280.0,
		Celsius:          28.0,
		LED:              "GREEN",
		Time:             "Sun Mar  1 07:30:05 2026",
		Duty:             30.0,
		Aux:              false,
	}
}

func TestFormatTelemetryExactJSON(t *testing.T) {
	t.Parallel()

	payload, err := FormatTelemetry(sampleRecord())
	require.NoError(t, err)

	expected := `{"save":1,"adc":560,"opamp":560,"lm35":280,"temp":28,"led":"GREEN","time":"Sun Mar  1 07:30:05 2026","speed":30,"ledbt":0}`
	require.Equal(t, expected, string(payload))
}

func TestFormatTelemetryRoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	rec.First = false
	rec.Millivolts = 561.23456
	rec.SensorMillivolts = 280.617
	rec.Celsius = 28.0617
	rec.Duty = 30.617
	rec.Aux = true

	payload, err := FormatTelemetry(rec)
	require.NoError(t, err)

	var parsed TelemetryPayload
	require.NoError(t, json.Unmarshal(payload, &parsed))
	require.Equal(t, 0, parsed.Save)
	require.Equal(t, 561.23, parsed.OpAmp)
	require.Equal(t, 280.62, parsed.LM35)
	require.Equal(t, 28.06, parsed.Temp)
	require.Equal(t, 30.62, parsed.Speed)
	require.Equal(t, 1, parsed.LEDBT)
}

func TestFormatToggle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1", string(FormatToggle(true)))
	require.Equal(t, "0", string(FormatToggle(false)))
}

func TestDefaultTopics(t *testing.T) {
	t.Parallel()

	topics := DefaultTopics()
	require.Equal(t, "/mofuban/wannalog", topics.Telemetry)
	require.Equal(t, "/mofuban/ledtoggle", topics.Toggle)
	require.Equal(t, "/mofuban/ledstat", topics.ToggleStatus)
	require.Equal(t, "/mofuban/alarmset", topics.AlarmSet)
}

func TestFakePublisher(t *testing.T) {
	t.Parallel()

	f := NewFakePublisher()
	id1, err := f.PublishTelemetry(sampleRecord())
	require.NoError(t, err)
	id2, err := f.PublishTelemetry(sampleRecord())
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	require.Len(t, f.Telemetry(), 2)
	require.Len(t, f.Payloads, 2)

	require.NoError(t, f.PublishToggle(true))
	require.NoError(t, f.PublishToggle(false))
	require.Equal(t, []string{"1", "0"}, f.ToggleStates())
}

func TestFakePublisherError(t *testing.T) {
	t.Parallel()

	f := NewFakePublisher()
	f.SetPublishError(errors.New("simulated error"))
	f.ToggleError = errors.New("simulated error")

	_, err := f.PublishTelemetry(sampleRecord())
	require.Error(t, err)
	require.Error(t, f.PublishToggle(true))
	require.Empty(t, f.Telemetry())
	require.Empty(t, f.ToggleStates())
}

func TestFakePublisherReset(t *testing.T) {
	t.Parallel()

	f := NewFakePublisher()
	_, _ = f.PublishTelemetry(sampleRecord())
	_ = f.PublishToggle(true)
	_ = f.Close()
	f.Connected = true
	f.SetPublishError(errors.New("error"))

	f.Reset()

	require.Empty(t, f.Telemetry())
	require.Empty(t, f.ToggleStates())
	require.False(t, f.Closed)
	require.False(t, f.IsConnected())
	require.NoError(t, f.PublishError)
}
