// Package alarm holds the daily alarm time and detects when the wall clock
// reaches it. It is written by the command handler and read by the control
// loop, so every access goes through a mutex.
package alarm

import (
	"sync"
	"time"
)

// State is the configuration state of the scheduler.
type State string

const (
	StateUnset State = "UNSET"
	StateSet   State = "SET"
)

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	State       State
	Time        string // hour.minute; empty while UNSET
	Triggers    int    // number of cycles that matched
	LastTrigger time.Time
}

// Scheduler stores at most one alarm time-of-day.
type Scheduler struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewScheduler creates an UNSET scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{snap: Snapshot{State: StateUnset}}
}

// Set stores hhmm verbatim and moves to SET. A later Set overwrites.
// Callers validate hhmm first.
func (s *Scheduler) Set(hhmm string) {
	s.mu.Lock()
	s.snap.State = StateSet
	s.snap.Time = hhmm
	s.mu.Unlock()
}

// Get returns the stored alarm time and whether one is set.
func (s *Scheduler) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Time, s.snap.State == StateSet
}

// Check compares the formatted current time against the alarm by exact
// string equality. It reports a match on every call during the matching
// minute; there is no once-per-day guard.
func (s *Scheduler) Check(nowHHMM string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.State != StateSet || s.snap.Time != nowHHMM {
		return false
	}
	s.snap.Triggers++
	s.snap.LastTrigger = now
	return true
}

// Snapshot returns a copy of the scheduler state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
