package internal

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/wannalog/internal/actuator"
	"github.com/sweeney/wannalog/internal/alarm"
	"github.com/sweeney/wannalog/internal/command"
	"github.com/sweeney/wannalog/internal/gpio"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/loop"
	"github.com/sweeney/wannalog/internal/metrics"
	"github.com/sweeney/wannalog/internal/mqtt"
	"github.com/sweeney/wannalog/internal/pwm"
	"github.com/sweeney/wannalog/internal/sensor"
	"github.com/sweeney/wannalog/internal/status"
)

type system struct {
	adc     *sensor.FakeADC
	lines   *gpio.FakeWriter
	a, b    *pwm.FakeChannel
	pins    actuator.Pins
	sched   *alarm.Scheduler
	tracker *status.Tracker
	pub     *mqtt.FakePublisher
	interp  *command.Interpreter
	loop    *loop.Loop
}

// newSystem wires every component the way the daemon does, over fakes.
// The calibration is the real 12-bit 1100 mV one.
func newSystem(t *testing.T, restartAfter int) *system {
	t.Helper()

	s := &system{
		adc:     sensor.NewFakeADC(0),
		lines:   gpio.NewFakeWriter(),
		a:       pwm.NewFakeChannel(),
		b:       pwm.NewFakeChannel(),
		pins:    actuator.DefaultPins(),
		sched:   alarm.NewScheduler(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{}),
		pub:     mqtt.NewFakePublisher(),
	}
	cal := sensor.LinearCalibration{VrefMillivolts: sensor.DefaultVrefMV, Bits: sensor.DefaultADCWidth}
	reader, err := sensor.NewReader(s.adc, cal, sensor.DefaultSamples)
	require.NoError(t, err)
	drv, err := actuator.New(s.lines, s.a, s.b, s.pins)
	require.NoError(t, err)
	m := metrics.New()
	s.interp = command.New(mqtt.DefaultTopics(), s.tracker, drv, s.sched, s.pub, nil)
	s.interp.OnAlarmRejected = m.AlarmRejected

	s.loop, err = loop.New(loop.Deps{
		Sensor:       reader,
		Actuator:     drv,
		Alarm:        s.sched,
		Tracker:      s.tracker,
		Publisher:    s.pub,
		Metrics:      m,
		Location:     time.UTC,
		RestartAfter: restartAfter,
	})
	require.NoError(t, err)
	return s
}

func (s *system) holdCelsius(c float64) {
	cal := sensor.LinearCalibration{VrefMillivolts: sensor.DefaultVrefMV, Bits: sensor.DefaultADCWidth}
	s.adc.Hold(sensor.RawForCelsius(cal, c))
}

// TestIntegrationTemperatureRamp drives the system from cold to hot and back.
func TestIntegrationTemperatureRamp(t *testing.T) {
	s := newSystem(t, 0)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	temps := []float64{20, 24, 26, 28, 31, 34, 40, 22}
	wantLED := []string{"BLUE", "BLUE", "GREEN", "GREEN", "RED", "RED", "RED", "BLUE"}
	for i, c := range temps {
		s.holdCelsius(c)
		require.NoError(t, s.loop.Step(start.Add(time.Duration(i)*time.Second)), "step %d", i)
		require.Len(t, s.lines.High(s.pins.Cold, s.pins.Normal, s.pins.Hot), 1, "step %d: one indicator lit", i)
	}

	recs := s.pub.Telemetry()
	require.Len(t, recs, len(temps))
	for i, rec := range recs {
		require.Equal(t, wantLED[i], rec.LED, "record %d", i)
		require.InDelta(t, temps[i], rec.Celsius, 0.3, "record %d", i)
		require.GreaterOrEqual(t, rec.Duty, 0.0, "record %d", i)
		require.LessOrEqual(t, rec.Duty, 100.0, "record %d", i)
		require.Equal(t, i == 0, rec.First, "record %d", i)
	}
	require.Equal(t, 0.0, recs[0].Duty)
	require.Equal(t, 100.0, recs[6].Duty)
	require.Equal(t, 0.0, recs[7].Duty)
	require.Equal(t, 0.0, s.a.Current(), "fan stopped when cold")
	require.Equal(t, 0.0, s.b.Current(), "fan stopped when cold")
}

// TestIntegrationPayloadFormat checks the wire payload produced by the loop.
func TestIntegrationPayloadFormat(t *testing.T) {
	s := newSystem(t, 0)
	s.holdCelsius(28)
	require.NoError(t, s.loop.Step(time.Date(2026, 3, 1, 7, 30, 5, 0, time.UTC)))

	require.NotEmpty(t, s.pub.Payloads)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(s.pub.Payloads[0], &payload))
	for _, k := range []string{"save", "adc", "opamp", "lm35", "temp", "led", "time", "speed", "ledbt"} {
		require.Contains(t, payload, k)
	}
	require.Equal(t, float64(1), payload["save"])
	require.Equal(t, "GREEN", payload["led"])
	require.Equal(t, "Sun Mar  1 07:30:05 2026", payload["time"])
}

// TestIntegrationCommandsBetweenCycles exercises toggle and alarm commands
// interleaved with control cycles.
func TestIntegrationCommandsBetweenCycles(t *testing.T) {
	s := newSystem(t, 0)
	s.holdCelsius(22)
	at := time.Date(2026, 1, 1, 6, 59, 58, 0, time.UTC)

	s.interp.Handle(mqtt.TopicAlarmSet, []byte("07.00"))
	s.interp.Handle(mqtt.TopicAlarmSet, []byte("7:00")) // dropped
	s.interp.Handle(mqtt.TopicToggle, nil)
	s.interp.Handle("/mofuban/other", []byte("x")) // ignored

	for i := 0; i < 4; i++ {
		require.NoError(t, s.loop.Step(at.Add(time.Duration(i)*time.Second)), "step %d", i)
	}

	snap := s.sched.Snapshot()
	require.Equal(t, "07.00", snap.Time)
	// 06:59:58, 06:59:59, 07:00:00, 07:00:01
	require.Equal(t, 2, snap.Triggers)
	for i, rec := range s.pub.Telemetry() {
		require.True(t, rec.Aux, "record %d: aux on after toggle", i)
	}
	require.Equal(t, []string{"1"}, s.pub.ToggleStates())
	require.True(t, s.lines.Level(s.pins.Aux), "aux LED lit")
}

// TestIntegrationPublishFailureDoesNotCrash keeps cycling while the broker is down.
func TestIntegrationPublishFailureDoesNotCrash(t *testing.T) {
	s := newSystem(t, 0)
	s.holdCelsius(33)
	s.pub.SetPublishError(errors.New("broker down"))

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.loop.Step(start.Add(time.Duration(i)*time.Second)), "step %d", i)
	}
	require.Equal(t, 5, s.loop.Cycles())
	require.NotZero(t, s.a.Current(), "fan runs at 33 C")
	r := s.tracker.Snapshot().Reading
	require.NotNil(t, r)
	require.Equal(t, logic.IndicatorHot, r.Indicator)
}

// TestIntegrationWatchdog restarts exactly once after the default cycle count.
func TestIntegrationWatchdog(t *testing.T) {
	s := newSystem(t, logic.DefaultRestartAfter)
	s.holdCelsius(26)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	restarts := 0
	for i := 0; i < logic.DefaultRestartAfter; i++ {
		err := s.loop.Step(start.Add(time.Duration(i) * time.Second))
		if errors.Is(err, loop.ErrRestart) {
			restarts++
			continue
		}
		require.NoError(t, err, "step %d", i)
	}
	require.Equal(t, 1, restarts)
	require.Equal(t, logic.StateRestarting, s.tracker.Snapshot().RunState)
}

// TestIntegrationConcurrentCommands runs commands on another goroutine while
// the loop cycles, as the MQTT client does. Run with -race.
func TestIntegrationConcurrentCommands(t *testing.T) {
	s := newSystem(t, 0)
	s.holdCelsius(27)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.interp.Handle(mqtt.TopicToggle, nil)
			s.interp.Handle(mqtt.TopicAlarmSet, []byte("12.34"))
		}
	}()

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.loop.Step(start.Add(time.Duration(i)*time.Second)), "step %d", i)
	}
	wg.Wait()

	// 50 flips from off end off.
	require.False(t, s.tracker.Aux(), "aux off after an even number of toggles")
	require.Len(t, s.pub.ToggleStates(), 50)
	require.Len(t, s.pub.Telemetry(), 50)
}
