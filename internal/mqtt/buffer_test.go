package mqtt

import (
	"testing"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	if got2 := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	size := 5
	rb := newRingBuffer(size)

	// Push size+3 pulses (0..7), buffer should keep the most recent 5 (3..7)
	for i := 0; i < size+3; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}
	if rb.dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", rb.dropped)
	}

	got := rb.drainAll()
	if len(got) != size {
		t.Fatalf("expected %d items, got %d", size, len(got))
	}
	for i := 0; i < size; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
	if rb.dropped != 0 || rb.overflow {
		t.Error("drain should reset the overflow state")
	}
}

func TestRingBufferOverflowKeepsSystemEvents(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("STARTUP"), qos: 1})
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if string(got[0].payload) != "STARTUP" {
		t.Errorf("system event evicted: first item %q", got[0].payload)
	}
	if got[1].payload[0] != 3 || got[2].payload[0] != 4 {
		t.Errorf("expected the newest pulses 3 and 4, got %v %v", got[1].payload, got[2].payload)
	}
}

func TestRingBufferOverflowAllSystemDropsOldest(t *testing.T) {
	rb := newRingBuffer(2)
	for _, e := range []string{"STARTUP", "HEARTBEAT", "SHUTDOWN"} {
		rb.push(bufferedMsg{topic: TopicSystem, payload: []byte(e), qos: 1})
	}

	got := rb.drainAll()
	if len(got) != 2 || string(got[0].payload) != "HEARTBEAT" || string(got[1].payload) != "SHUTDOWN" {
		t.Errorf("unexpected contents: %q", got)
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	// Cycle 1: push 3, drain
	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	// Cycle 2: push 4, drain
	for i := 10; i < 14; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		want := byte(10 + i)
		if msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferDrainIsACopy(t *testing.T) {
	rb := newRingBuffer(4)
	rb.push(bufferedMsg{topic: Topic, payload: []byte{1}})
	got := rb.drainAll()

	rb.push(bufferedMsg{topic: Topic, payload: []byte{2}})
	if got[0].payload[0] != 1 {
		t.Error("drained slice must not alias the buffer")
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(10)
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}

	rb.push(bufferedMsg{topic: Topic})
	rb.push(bufferedMsg{topic: Topic})
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %s, want %s", got[0].topic, TopicSystem)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}
