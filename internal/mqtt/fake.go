package mqtt

import "sync"

// FakePublisher records published messages for test assertions.
// It is safe for concurrent use, since the control loop and the command
// handler publish from different goroutines.
type FakePublisher struct {
	mu sync.Mutex

	// Records contains all telemetry records that were published.
	Records []TelemetryRecord

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// Toggles contains every toggle state that was published.
	Toggles []bool

	// TogglePayloads contains the toggle-status payloads.
	TogglePayloads []string

	// PublishError, if set, will be returned by PublishTelemetry.
	PublishError error

	// ToggleError, if set, will be returned by PublishToggle.
	ToggleError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	lastID uint16
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishTelemetry records the telemetry record.
func (f *FakePublisher) PublishTelemetry(rec TelemetryRecord) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return 0, f.PublishError
	}

	payload, err := FormatTelemetry(rec)
	if err != nil {
		return 0, err
	}
	f.Records = append(f.Records, rec)
	f.Payloads = append(f.Payloads, payload)
	f.lastID++
	return f.lastID, nil
}

// PublishToggle records the toggle state.
func (f *FakePublisher) PublishToggle(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ToggleError != nil {
		return f.ToggleError
	}
	f.Toggles = append(f.Toggles, on)
	f.TogglePayloads = append(f.TogglePayloads, string(FormatToggle(on)))
	return nil
}

// Telemetry returns a copy of the published records.
func (f *FakePublisher) Telemetry() []TelemetryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TelemetryRecord(nil), f.Records...)
}

// ToggleStates returns a copy of the published toggle payloads.
func (f *FakePublisher) ToggleStates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.TogglePayloads...)
}

// SetPublishError changes the telemetry publish error under the lock.
func (f *FakePublisher) SetPublishError(err error) {
	f.mu.Lock()
	f.PublishError = err
	f.mu.Unlock()
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = nil
	f.Payloads = nil
	f.Toggles = nil
	f.TogglePayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.ToggleError = nil
	f.Connected = false
	f.lastID = 0
}
