// Package loop runs the periodic measure-decide-actuate-publish cycle.
package loop

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/wannalog/internal/alarm"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/metrics"
	"github.com/sweeney/wannalog/internal/mqtt"
	"github.com/sweeney/wannalog/internal/sensor"
	"github.com/sweeney/wannalog/internal/status"
)

// ErrRestart is returned by Run when the watchdog asks for a process restart.
var ErrRestart = errors.New("loop: restart requested")

// Sensor produces one temperature sample per call.
type Sensor interface {
	Read() (sensor.Sample, error)
}

// Actuator applies the selected mode to the hardware.
type Actuator interface {
	ApplyIndicator(logic.Indicator) error
	ApplyDuty(duty float64) error
}

// Deps are the collaborators of a Loop.
type Deps struct {
	Sensor    Sensor
	Actuator  Actuator
	Alarm     *alarm.Scheduler
	Tracker   *status.Tracker
	Publisher mqtt.Publisher

	// Connection, if set, is copied into the tracker every cycle.
	Connection mqtt.ConnectionStatus

	// Metrics may be nil.
	Metrics *metrics.Metrics

	Log *zap.SugaredLogger

	// Location is used for the display and alarm clocks. Defaults to time.Local.
	Location *time.Location

	// RestartAfter is the watchdog limit in cycles. 0 disables the restart.
	RestartAfter int
}

// Loop is the control loop. Step must only be called from one goroutine.
type Loop struct {
	d        Deps
	log      *zap.SugaredLogger
	watchdog *logic.Watchdog
	first    bool
}

// New checks the dependencies and creates a Loop in the RUNNING state.
func New(d Deps) (*Loop, error) {
	switch {
	case d.Sensor == nil:
		return nil, errors.New("loop: sensor is nil")
	case d.Actuator == nil:
		return nil, errors.New("loop: actuator is nil")
	case d.Alarm == nil:
		return nil, errors.New("loop: alarm scheduler is nil")
	case d.Tracker == nil:
		return nil, errors.New("loop: status tracker is nil")
	case d.Publisher == nil:
		return nil, errors.New("loop: publisher is nil")
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Loop{
		d:        d,
		log:      log.With("component", "loop"),
		watchdog: logic.NewWatchdog(d.RestartAfter),
		first:    true,
	}, nil
}

// Cycles returns the number of completed cycles.
func (l *Loop) Cycles() int {
	return l.watchdog.Cycles()
}

// State returns the watchdog state.
func (l *Loop) State() logic.RunState {
	return l.watchdog.State()
}

// Step runs one cycle at the given time. It returns ErrRestart from the
// cycle that reaches the watchdog limit. Sensor, actuator and publish
// failures are logged and never returned.
func (l *Loop) Step(now time.Time) error {
	if l.watchdog.State() == logic.StateRestarting {
		return ErrRestart
	}

	local := now.In(l.d.Location)
	display := logic.FormatDisplayTime(local)
	clock := logic.FormatAlarmClock(local)

	if l.d.Alarm.Check(clock, now) {
		l.log.Infow("alarm triggered", "at", clock)
		l.d.Metrics.AlarmTriggered()
	}

	l.cycle(now, display)

	if l.d.Connection != nil {
		l.d.Tracker.SetMQTTConnected(l.d.Connection.IsConnected())
	}

	restart := l.watchdog.Complete()
	l.d.Metrics.Cycle()
	if restart {
		l.log.Infof("watchdog: %d cycles completed, restarting", l.watchdog.Cycles())
	}
	l.updateTracker()
	if restart {
		return ErrRestart
	}
	return nil
}

// cycle measures, actuates and publishes. A sensor failure skips the rest
// of the cycle; the watchdog still counts it.
func (l *Loop) cycle(now time.Time, display string) {
	s, err := l.d.Sensor.Read()
	if err != nil {
		l.log.Errorf("sensor read error: %v", err)
		l.d.Metrics.SensorError()
		return
	}

	ind, duty := logic.Select(s.Celsius)
	if err := l.d.Actuator.ApplyIndicator(ind); err != nil {
		l.log.Errorf("indicator: %v", err)
		l.d.Metrics.ActuatorError()
	}
	if err := l.d.Actuator.ApplyDuty(duty); err != nil {
		l.log.Errorf("fan: %v", err)
		l.d.Metrics.ActuatorError()
	}
	l.log.Debugf("temperature is %.2f, fan speed is %.2f", s.Celsius, duty)

	rec := mqtt.TelemetryRecord{
		First:            l.first,
		Raw:              s.Raw,
		Millivolts:       s.Millivolts,
		SensorMillivolts: s.SensorMillivolts,
		Celsius:          s.Celsius,
		LED:              ind.Color(),
		Time:             display,
		Duty:             duty,
		Aux:              l.d.Tracker.Aux(),
	}
	// The first-record flag is spent by the first attempt, delivered or not.
	l.first = false

	id, err := l.d.Publisher.PublishTelemetry(rec)
	if err != nil {
		l.log.Warnf("publish error: %v", err)
		l.d.Metrics.PublishFailed()
	} else {
		l.log.Debugf("sent publish successful, msg_id=%d", id)
	}

	l.d.Tracker.SetReading(status.Reading{
		Raw:              s.Raw,
		Millivolts:       s.Millivolts,
		SensorMillivolts: s.SensorMillivolts,
		Celsius:          s.Celsius,
		Indicator:        ind,
		Duty:             duty,
		Time:             now,
	})
	l.d.Metrics.ObserveReading(s.Celsius, duty, ind)
}

func (l *Loop) updateTracker() {
	l.d.Tracker.SetProgress(l.watchdog.Cycles(), l.watchdog.State())
}

// Run calls Step on every tick until ctx is cancelled (returns nil) or the
// watchdog fires (returns ErrRestart). The tick value is the cycle time.
func (l *Loop) Run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			l.log.Infof("stopping after %d cycles", l.watchdog.Cycles())
			return nil
		case t := <-tick:
			if err := l.Step(t); err != nil {
				return err
			}
		}
	}
}
