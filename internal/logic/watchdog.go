package logic

// RunState is the lifecycle state of the control loop.
type RunState string

const (
	StateRunning    RunState = "RUNNING"
	StateRestarting RunState = "RESTARTING"
)

// DefaultRestartAfter is the number of cycles after which the loop restarts.
const DefaultRestartAfter = 300

// Watchdog counts completed cycles and moves to RESTARTING once the limit
// is reached. It never leaves RESTARTING; a fresh Watchdog is created by
// the restarted process.
type Watchdog struct {
	limit  int
	cycles int
	state  RunState
}

// NewWatchdog creates a Watchdog that restarts after limit cycles.
// A limit <= 0 disables the restart.
func NewWatchdog(limit int) *Watchdog {
	return &Watchdog{limit: limit, state: StateRunning}
}

// Complete records one finished cycle and returns true exactly once, on the
// cycle that reaches the limit.
func (w *Watchdog) Complete() bool {
	if w.state == StateRestarting {
		return false
	}
	w.cycles++
	if w.limit > 0 && w.cycles >= w.limit {
		w.state = StateRestarting
		return true
	}
	return false
}

// Cycles returns the number of completed cycles.
func (w *Watchdog) Cycles() int {
	return w.cycles
}

// First reports whether no cycle has completed yet.
func (w *Watchdog) First() bool {
	return w.cycles == 0
}

// State returns the current run state.
func (w *Watchdog) State() RunState {
	return w.state
}
