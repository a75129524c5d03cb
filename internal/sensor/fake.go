package sensor

import (
	"errors"
	"sync"
)

// FakeADC is a test double that returns scripted raw values.
type FakeADC struct {
	mu sync.Mutex

	// Values contains scripted raw conversions.
	// Each call to ReadRaw() consumes the next value.
	Values []int

	// index tracks current position in Values
	index int

	// Reads counts ReadRaw calls.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadRaw()
	ReadError error
}

// NewFakeADC creates a FakeADC with the given values.
func NewFakeADC(values ...int) *FakeADC {
	return &FakeADC{Values: values}
}

// ReadRaw returns the next scripted value.
// If values are exhausted, returns the last value repeatedly.
func (f *FakeADC) ReadRaw() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}

	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Hold replaces the script with a single value returned on every read.
func (f *FakeADC) Hold(v int) {
	f.mu.Lock()
	f.Values = []int{v}
	f.index = 0
	f.mu.Unlock()
}

// Close marks the ADC as closed.
func (f *FakeADC) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
