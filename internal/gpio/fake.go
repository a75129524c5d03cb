package gpio

import (
	"fmt"
	"sync"
)

// Write is one recorded call to FakeWriter.Set.
type Write struct {
	Offset int
	High   bool
}

// FakeWriter is a test double that records output levels.
type FakeWriter struct {
	mu sync.Mutex

	// Levels holds the current level of every line that has been set.
	Levels map[int]bool

	// Writes contains every Set call in order.
	Writes []Write

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeWriter creates a FakeWriter with all lines low.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{Levels: make(map[int]bool)}
}

// Set records the level of a line.
func (f *FakeWriter) Set(offset int, high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	if f.Closed {
		return fmt.Errorf("gpio: line %d set after close", offset)
	}
	f.Levels[offset] = high
	f.Writes = append(f.Writes, Write{Offset: offset, High: high})
	return nil
}

// Level returns the current level of a line.
func (f *FakeWriter) Level(offset int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Levels[offset]
}

// High returns the offsets of all lines that are currently high.
func (f *FakeWriter) High(offsets ...int) []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []int
	for _, o := range offsets {
		if f.Levels[o] {
			out = append(out, o)
		}
	}
	return out
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset clears recorded writes and levels.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	f.Levels = make(map[int]bool)
	f.Writes = nil
	f.Closed = false
	f.SetError = nil
	f.mu.Unlock()
}
