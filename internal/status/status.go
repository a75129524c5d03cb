// Package status provides a thread-safe status tracker for the wannalog daemon.
// It is the shared state between the control loop, the MQTT command handler
// and the HTTP server.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/wannalog/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PeriodMs     int64
	RestartAfter int
	Samples      int
	Broker       string
	HTTPAddr     string
	Timezone     string
}

// Reading is the outcome of the latest control cycle.
type Reading struct {
	Raw              int
	Millivolts       float64
	SensorMillivolts float64
	Celsius          float64
	Indicator        logic.Indicator
	Duty             float64
	Time             time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Aux           bool
	Reading       *Reading
	Cycles        int
	RunState      logic.RunState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
// The auxiliary LED starts off.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			RunState:  logic.StateRunning,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// FlipAux inverts the auxiliary LED state and returns the new value.
func (t *Tracker) FlipAux() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Aux = !t.snap.Aux
	return t.snap.Aux
}

// Aux returns the auxiliary LED state.
func (t *Tracker) Aux() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Aux
}

// Update records the latest reading and loop progress.
// Called from the control loop on every cycle.
func (t *Tracker) Update(r Reading, cycles int, state logic.RunState) {
	t.mu.Lock()
	t.snap.Reading = &r
	t.snap.Cycles = cycles
	t.snap.RunState = state
	t.mu.Unlock()
}

// SetReading records the latest reading. Cycles skipped on a sensor error
// leave the previous reading in place.
func (t *Tracker) SetReading(r Reading) {
	t.mu.Lock()
	t.snap.Reading = &r
	t.mu.Unlock()
}

// SetProgress records the cycle count and run state.
func (t *Tracker) SetProgress(cycles int, state logic.RunState) {
	t.mu.Lock()
	t.snap.Cycles = cycles
	t.snap.RunState = state
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Reading != nil {
		r := *s.Reading
		s.Reading = &r
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
