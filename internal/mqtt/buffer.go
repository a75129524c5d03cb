package mqtt

import "go.uber.org/zap"

// bufferedMsg is a formatted publish waiting for the connection to return.
// Every publish is QoS 1 and not retained, so only topic and payload are kept.
type bufferedMsg struct {
	topic   string
	payload []byte
}

// ringBuffer keeps the most recent messages published while offline.
// When full, the oldest message is overwritten. The caller synchronizes.
type ringBuffer struct {
	slots   []bufferedMsg
	next    int // slot written by the next push
	count   int
	dropped int // overwritten since the last drain
	log     *zap.SugaredLogger
}

func newRingBuffer(capacity int, log *zap.SugaredLogger) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ringBuffer{slots: make([]bufferedMsg, capacity), log: log}
}

func (r *ringBuffer) capacity() int {
	return len(r.slots)
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.count == r.capacity() {
		if r.dropped == 0 {
			r.log.Warnf("offline buffer full (%d messages), overwriting oldest", r.capacity())
		}
		r.dropped++
	} else {
		r.count++
	}
	r.slots[r.next] = msg
	r.next = (r.next + 1) % r.capacity()
}

// drain returns the buffered messages oldest first and how many were
// overwritten, then empties the buffer.
func (r *ringBuffer) drain() ([]bufferedMsg, int) {
	dropped := r.dropped
	r.dropped = 0
	if r.count == 0 {
		return nil, dropped
	}

	out := make([]bufferedMsg, 0, r.count)
	oldest := (r.next - r.count + r.capacity()) % r.capacity()
	for i := 0; i < r.count; i++ {
		out = append(out, r.slots[(oldest+i)%r.capacity()])
	}
	for i := range r.slots {
		r.slots[i] = bufferedMsg{}
	}
	r.count, r.next = 0, 0
	return out, dropped
}

func (r *ringBuffer) len() int {
	return r.count
}
