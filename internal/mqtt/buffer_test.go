package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func firstBytes(msgs []bufferedMsg) []byte {
	out := make([]byte, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func fill(rb *ringBuffer, from, to int) {
	for i := from; i < to; i++ {
		rb.push(bufferedMsg{topic: TopicTelemetry, payload: []byte{byte(i)}})
	}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	t.Parallel()

	rb := newRingBuffer(10, nil)
	msgs, dropped := rb.drain()
	require.Nil(t, msgs)
	require.Zero(t, dropped)
	require.Zero(t, rb.len())
}

func TestRingBufferFIFO(t *testing.T) {
	t.Parallel()

	rb := newRingBuffer(10, nil)
	fill(rb, 0, 5)
	require.Equal(t, 5, rb.len())

	msgs, dropped := rb.drain()
	require.Equal(t, []byte{0, 1, 2, 3, 4}, firstBytes(msgs))
	require.Zero(t, dropped)

	msgs, _ = rb.drain()
	require.Nil(t, msgs, "second drain is empty")
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	t.Parallel()

	rb := newRingBuffer(5, nil)
	fill(rb, 0, 8)
	require.Equal(t, 5, rb.len())

	msgs, dropped := rb.drain()
	require.Equal(t, []byte{3, 4, 5, 6, 7}, firstBytes(msgs))
	require.Equal(t, 3, dropped)

	_, dropped = rb.drain()
	require.Zero(t, dropped, "drain resets the dropped count")
}

func TestRingBufferReuseAfterDrain(t *testing.T) {
	t.Parallel()

	rb := newRingBuffer(5, nil)
	fill(rb, 0, 3)
	msgs, _ := rb.drain()
	require.Len(t, msgs, 3)

	fill(rb, 10, 14)
	msgs, _ = rb.drain()
	require.Equal(t, []byte{10, 11, 12, 13}, firstBytes(msgs))
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	t.Parallel()

	rb := newRingBuffer(0, nil)
	require.Equal(t, 1, rb.capacity())

	rb.push(bufferedMsg{topic: TopicTelemetry, payload: []byte("a")})
	rb.push(bufferedMsg{topic: TopicTelemetry, payload: []byte("b")})

	msgs, dropped := rb.drain()
	require.Len(t, msgs, 1)
	require.Equal(t, TopicTelemetry, msgs[0].topic)
	require.Equal(t, "b", string(msgs[0].payload))
	require.Equal(t, 1, dropped)
}
