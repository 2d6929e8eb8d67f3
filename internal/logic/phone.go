package logic

import "time"

// Phone runs one control cycle: debouncer, call state machine (with its
// pulse decoder) and ringer sequencer, in that order.
type Phone struct {
	debouncer     *Debouncer
	machine       *Machine
	ringer        *Ringer
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewPhone creates a phone that commands player. The startTime is used for
// calculating uptime in heartbeat events.
func NewPhone(cfg Config, player Player, startTime time.Time) *Phone {
	return &Phone{
		debouncer:     NewDebouncer(cfg.Timing.Debounce),
		machine:       NewMachine(cfg, player),
		ringer:        NewRinger(cfg.Timing.RingerDelay),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new input sample and returns the events it caused.
func (p *Phone) Process(input Input) []Event {
	sig, _ := p.debouncer.Process(Sample{Up: input.Line, Time: input.Time})

	events := p.machine.Step(sig, input.Time)
	ringerState := p.ringer.State()
	for i := range events {
		events[i].Ringer = ringerState
	}

	for _, e := range p.ringer.Step(input.RingRequest, input.Time) {
		e.State = p.machine.State()
		events = append(events, e)
	}

	for _, e := range events {
		switch e.Type {
		case EventPickup:
			p.eventCounts.Pickups++
		case EventHangUp:
			p.eventCounts.HangUps++
		case EventDigit:
			p.eventCounts.Digits++
		case EventDigitDiscarded:
			p.eventCounts.Discarded++
		case EventConnected:
			p.eventCounts.Connects++
		case EventRingerOn:
			p.eventCounts.Rings++
		}
	}

	return events
}

// Relays returns the relay outputs commanded by the last Process call.
func (p *Phone) Relays() Relays {
	return p.ringer.Relays()
}

// State returns the call state.
func (p *Phone) State() CallState {
	return p.machine.State()
}

// IsBaselined returns whether the line level has been established.
func (p *Phone) IsBaselined() bool {
	return p.debouncer.IsBaselined()
}

// EventCountsSnapshot returns a copy of the event counts.
func (p *Phone) EventCountsSnapshot() EventCounts {
	return p.eventCounts
}

// View returns a summary of the phone for status consumers.
func (p *Phone) View() View {
	return View{
		Call:      p.machine.State(),
		Ringer:    p.ringer.State(),
		Line:      p.debouncer.Signal().Level,
		Baselined: p.debouncer.IsBaselined(),
		Pulses:    p.machine.Pulses(),
		Digit:     p.machine.Digit(),
		Track:     p.machine.Track(),
		Relays:    p.ringer.Relays(),
		Counts:    p.eventCounts,
	}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (p *Phone) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !p.debouncer.IsBaselined() {
		return nil
	}

	if now.Sub(p.lastHeartbeat) < interval {
		return nil
	}

	p.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(p.startTime),
		Counts:    p.eventCounts,
	}
}
