package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// When full, the oldest QoS 0 message is dropped first so that a burst of
// dial pulses cannot evict lifecycle events; if every message is QoS 1 the
// oldest one goes.
// Not safe for concurrent use; the caller must synchronize.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	dropped  int  // messages dropped since last drain
	overflow bool // true if any message was dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if len(r.buf) == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
			r.overflow = true
		}
		r.dropped++
		r.remove(r.victim())
	}
	r.buf = append(r.buf, msg)
}

// victim returns the index of the message to drop when full.
func (r *ringBuffer) victim() int {
	for i, m := range r.buf {
		if m.qos == 0 {
			return i
		}
	}
	return 0
}

func (r *ringBuffer) remove(i int) {
	copy(r.buf[i:], r.buf[i+1:])
	r.buf = r.buf[:len(r.buf)-1]
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if len(r.buf) == 0 {
		return nil
	}

	result := make([]bufferedMsg, len(r.buf))
	copy(result, r.buf)

	if r.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", r.dropped)
	}
	r.buf = r.buf[:0]
	r.dropped = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return len(r.buf)
}
