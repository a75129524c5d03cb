package pwm

import "sync"

// FakeChannel is a test double that records duty cycles.
type FakeChannel struct {
	mu sync.Mutex

	// Duty is the last duty cycle applied; 0 after Low.
	Duty float64

	// History contains every duty applied, with Low recorded as 0.
	History []float64

	// Lows counts Low calls.
	Lows int

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by SetDuty() and Low()
	SetError error
}

// NewFakeChannel creates a FakeChannel that is low.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{}
}

// SetDuty records the duty cycle.
func (f *FakeChannel) SetDuty(percent float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	f.Duty = percent
	f.History = append(f.History, percent)
	return nil
}

// Low records a forced-low output.
func (f *FakeChannel) Low() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	f.Duty = 0
	f.Lows++
	f.History = append(f.History, 0)
	return nil
}

// Current returns the last applied duty.
func (f *FakeChannel) Current() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Duty
}

// Close marks the channel as closed.
func (f *FakeChannel) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
