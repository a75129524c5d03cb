// Package metrics exposes controller counters and gauges for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/wannalog/internal/logic"
)

const namespace = "wannalog"

// Metrics holds the controller's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	cycles          prometheus.Counter
	temperature     prometheus.Gauge
	duty            prometheus.Gauge
	indicator       *prometheus.GaugeVec
	sensorErrors    prometheus.Counter
	actuatorErrors  prometheus.Counter
	publishFailures prometheus.Counter
	alarmTriggers   prometheus.Counter
	alarmRejected   *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Control cycles run since start, including skipped ones.",
		}),
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last measured temperature.",
		}),
		duty: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_duty_percent",
			Help:      "Fan duty cycle applied in the last cycle.",
		}),
		indicator: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indicator",
			Help:      "1 for the lit indicator LED, 0 otherwise.",
		}, []string{"state"}),
		sensorErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Cycles skipped because the sensor could not be read.",
		}),
		actuatorErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_errors_total",
			Help:      "Failed LED or fan updates.",
		}),
		publishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Telemetry publishes that failed.",
		}),
		alarmTriggers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_triggers_total",
			Help:      "Cycles in which the alarm time matched.",
		}),
		alarmRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_rejected_total",
			Help:      "Dropped alarm-set commands.",
		}, []string{"verdict"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Cycle counts one control cycle, whether or not it produced a reading.
func (m *Metrics) Cycle() {
	if m != nil {
		m.cycles.Inc()
	}
}

// ObserveReading records the temperature and outputs of a cycle that read
// the sensor.
func (m *Metrics) ObserveReading(celsius, duty float64, ind logic.Indicator) {
	if m == nil {
		return
	}
	m.temperature.Set(celsius)
	m.duty.Set(duty)
	for _, i := range logic.Indicators {
		v := 0.0
		if i == ind {
			v = 1
		}
		m.indicator.WithLabelValues(i.String()).Set(v)
	}
}

// SensorError counts a failed sensor read.
func (m *Metrics) SensorError() {
	if m != nil {
		m.sensorErrors.Inc()
	}
}

// ActuatorError counts a failed output update.
func (m *Metrics) ActuatorError() {
	if m != nil {
		m.actuatorErrors.Inc()
	}
}

// PublishFailed counts a failed telemetry publish.
func (m *Metrics) PublishFailed() {
	if m != nil {
		m.publishFailures.Inc()
	}
}

// AlarmTriggered counts an alarm match.
func (m *Metrics) AlarmTriggered() {
	if m != nil {
		m.alarmTriggers.Inc()
	}
}

// AlarmRejected counts a dropped alarm-set payload.
func (m *Metrics) AlarmRejected(v logic.AlarmVerdict) {
	if m != nil {
		m.alarmRejected.WithLabelValues(string(v)).Inc()
	}
}
