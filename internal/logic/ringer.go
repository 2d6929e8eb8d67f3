package logic

import "time"

// Ringer sequences the isolation and ringer relays from the ring request.
//
// Isolation is asserted as soon as a ring is requested and the ringer only
// after the settle delay with the request still held. On release the ringer
// drops at once and isolation only after the same delay. The ringer relay is
// therefore never energized without isolation. A toggle inside either delay
// window restarts the delay from the opposite side instead of completing the
// pending step.
type Ringer struct {
	delay  time.Duration
	state  RingerState
	since  time.Time
	relays Relays
}

// NewRinger creates an idle sequencer with both relays released.
func NewRinger(delay time.Duration) *Ringer {
	return &Ringer{delay: delay, state: RingerIdle}
}

// State returns the sequencer state.
func (r *Ringer) State() RingerState {
	return r.state
}

// Relays returns the commanded relay outputs.
func (r *Ringer) Relays() Relays {
	return r.relays
}

// Step advances the sequencer and returns relay change events.
func (r *Ringer) Step(requested bool, now time.Time) []Event {
	var events []Event

	switch r.state {
	case RingerIdle:
		if requested {
			events = r.setIsolation(true, now, events)
			r.enter(RingerIsolating, now)
		}

	case RingerIsolating:
		if !requested {
			// Released before the ringer came on; isolation still settles
			r.enter(RingerDeisolating, now)
			break
		}
		if now.Sub(r.since) >= r.delay {
			events = r.setRinger(true, now, events)
			r.enter(RingerRinging, now)
		}

	case RingerRinging:
		if !requested {
			events = r.setRinger(false, now, events)
			r.enter(RingerDeisolating, now)
		}

	case RingerDeisolating:
		if requested {
			r.enter(RingerIsolating, now)
			break
		}
		if now.Sub(r.since) >= r.delay {
			events = r.setIsolation(false, now, events)
			r.enter(RingerIdle, now)
		}
	}

	// Stamp events with the state after this step
	for i := range events {
		events[i].Ringer = r.state
	}
	return events
}

func (r *Ringer) enter(state RingerState, now time.Time) {
	r.state = state
	r.since = now
}

func (r *Ringer) setIsolation(on bool, now time.Time, events []Event) []Event {
	r.relays.Isolation = on
	t := EventIsolationOff
	if on {
		t = EventIsolationOn
	}
	return append(events, Event{Timestamp: now, Type: t})
}

func (r *Ringer) setRinger(on bool, now time.Time, events []Event) []Event {
	if on && !r.relays.Isolation {
		// Unreachable by construction; never energize without isolation
		return events
	}
	r.relays.Ringer = on
	t := EventRingerOff
	if on {
		t = EventRingerOn
	}
	return append(events, Event{Timestamp: now, Type: t})
}
