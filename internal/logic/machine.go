package logic

import (
	"math/rand/v2"
	"time"
)

// Player is the playback gateway driven by the call state machine.
type Player interface {
	// Play starts the named track, preempting whatever is playing.
	Play(track string) error
	// Stop silences playback.
	Stop() error
	// IsPlaying reports whether a track is still playing.
	IsPlaying() bool
}

// Machine is the call state machine. It owns the pulse decoder and issues
// playback commands; it never blocks.
type Machine struct {
	timing    Timing
	tracks    Tracks
	player    Player
	ringCount func() int

	state    CallState
	pickupAt time.Time
	decoder  *PulseDecoder
	digit    int

	// Last track commanded, and the track whose Play last failed.
	current string
	failed  string

	// Ringing sub-state
	ringsWanted  int
	ringsDone    int
	ringSounding bool
}

// NewMachine creates a call state machine in HUNG_UP.
func NewMachine(cfg Config, player Player) *Machine {
	m := &Machine{
		timing:  cfg.Timing,
		tracks:  cfg.Tracks,
		player:  player,
		state:   StateHungUp,
		decoder: NewPulseDecoder(cfg.Timing),
	}
	m.ringCount = ringCounter(cfg)
	return m
}

func ringCounter(cfg Config) func() int {
	intN := cfg.RandIntN
	if intN == nil {
		intN = rand.IntN
	}
	lo, hi := cfg.MinRings, cfg.MaxRings
	return func() int {
		if hi <= lo {
			return lo
		}
		return lo + intN(hi-lo+1)
	}
}

// State returns the current call state.
func (m *Machine) State() CallState {
	return m.state
}

// Digit returns the last finalized digit, or 0.
func (m *Machine) Digit() int {
	return m.digit
}

// Pulses returns the pulses counted for the digit being dialed.
func (m *Machine) Pulses() int {
	return m.decoder.Count()
}

// Track returns the last track commanded.
func (m *Machine) Track() string {
	return m.current
}

// Step advances the machine by one control cycle.
func (m *Machine) Step(sig Signal, now time.Time) []Event {
	var events []Event

	// Hang-up preempts every state
	if m.state != StateHungUp && sig.Level == LevelUp && now.Sub(sig.Rise) >= m.timing.HangUp {
		m.decoder.Reset()
		m.digit = 0
		m.ringSounding = false
		events = append(events, m.enter(StateHungUp, now, EventHangUp))
	}

	switch m.state {
	case StateHungUp:
		events = append(events, m.ensurePlaying(m.tracks.DialTone, now)...)
		if sig.Level == LevelDown {
			m.decoder.Reset()
			m.digit = 0
			m.pickupAt = now
			events = append(events, m.enter(StateDialTone, now, EventPickup))
		}

	case StateDialTone:
		events = append(events, m.ensurePlaying(m.tracks.DialTone, now)...)
		if sig.Level == LevelUp && !sig.Rise.Before(m.pickupAt.Add(m.timing.PickupGrace)) {
			events = append(events, m.stop(now)...)
			m.decoder.Arm()
			events = append(events, m.enter(StateDialing, now, EventDialStart))
		}

	case StateDialing:
		events = append(events, m.dial(sig, now)...)

	case StateRinging:
		events = append(events, m.ring(now)...)

	case StateConnected:
		track, ok := m.tracks.Digits[m.digit]
		if !ok {
			if m.player.IsPlaying() {
				events = append(events, m.stop(now)...)
			}
			break
		}
		events = append(events, m.ensurePlaying(track, now)...)
	}

	return events
}

func (m *Machine) dial(sig Signal, now time.Time) []Event {
	var events []Event

	counted, timedOut := m.decoder.Observe(sig, now)
	if counted {
		events = append(events, m.event(EventPulse, now, m.decoder.Count(), ""))
	}
	if !timedOut {
		return events
	}

	n := m.decoder.Count()
	m.decoder.Reset()
	if n == 0 || n > MaxDigit {
		e := m.enter(StateDialTone, now, EventDigitDiscarded)
		e.Digit = n
		return append(events, e)
	}

	m.digit = n
	m.ringsWanted = m.ringCount()
	m.ringsDone = 0
	m.ringSounding = false
	events = append(events, m.event(EventDigit, now, n, ""))
	return append(events, m.enter(StateRinging, now, EventRinging))
}

// ring alternates between requesting the next ring segment and polling for
// its end. Hang-up is handled by Step before ring is called.
func (m *Machine) ring(now time.Time) []Event {
	if m.ringSounding {
		if m.player.IsPlaying() {
			return nil
		}
		m.ringSounding = false
		m.ringsDone++
	}

	if m.ringsDone >= m.ringsWanted {
		e := m.enter(StateConnected, now, EventConnected)
		e.Track = m.tracks.Digits[m.digit]
		return []Event{e}
	}

	m.ringSounding = true
	// Always restart the ring tone, even if it is the current track
	return m.play(m.tracks.RingTone, now)
}

// ensurePlaying plays track unless it is already the one playing.
func (m *Machine) ensurePlaying(track string, now time.Time) []Event {
	if track == m.current && (m.failed == track || m.player.IsPlaying()) {
		return nil
	}
	return m.play(track, now)
}

func (m *Machine) play(track string, now time.Time) []Event {
	m.current = track
	if err := m.player.Play(track); err != nil {
		m.failed = track
		e := m.event(EventPlaybackError, now, 0, track)
		e.Detail = err.Error()
		return []Event{e}
	}
	m.failed = ""
	return nil
}

func (m *Machine) stop(now time.Time) []Event {
	track := m.current
	m.current = ""
	m.failed = ""
	if err := m.player.Stop(); err != nil {
		e := m.event(EventPlaybackError, now, 0, track)
		e.Detail = err.Error()
		return []Event{e}
	}
	return nil
}

func (m *Machine) enter(state CallState, now time.Time, t EventType) Event {
	m.state = state
	return m.event(t, now, m.digit, "")
}

func (m *Machine) event(t EventType, now time.Time, digit int, track string) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		State:     m.state,
		Digit:     digit,
		Track:     track,
	}
}
