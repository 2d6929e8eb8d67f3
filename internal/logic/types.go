// Package logic contains the pure control logic of the rotary phone: line
// debouncing, pulse decoding, the call state machine and the ringer relay
// sequencer.
// This package has NO external dependencies (no GPIO, MQTT, audio, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Level is the debounced logical level of the phone line.
type Level string

const (
	LevelUnknown Level = ""
	LevelUp      Level = "UP"   // line open: on-hook or a dial pulse
	LevelDown    Level = "DOWN" // line closed: off-hook
)

// CallState is the state of the call state machine.
type CallState string

const (
	StateHungUp    CallState = "HUNG_UP"
	StateDialTone  CallState = "DIAL_TONE" // picked up, waiting for the first pulse
	StateDialing   CallState = "DIALING"
	StateRinging   CallState = "RINGING"
	StateConnected CallState = "CONNECTED"
)

// RingerState is the state of the ringer relay sequencer.
type RingerState string

const (
	RingerIdle        RingerState = "IDLE"
	RingerIsolating   RingerState = "ISOLATING"
	RingerRinging     RingerState = "RINGING"
	RingerDeisolating RingerState = "DEISOLATING"
)

// EventType identifies an event emitted by the control cycle.
type EventType string

const (
	EventPickup         EventType = "PICKUP"
	EventHangUp         EventType = "HANG_UP"
	EventDialStart      EventType = "DIAL_START"
	EventPulse          EventType = "PULSE"
	EventDigit          EventType = "DIGIT"
	EventDigitDiscarded EventType = "DIGIT_DISCARDED"
	EventRinging        EventType = "RINGING"
	EventConnected      EventType = "CONNECTED"
	EventPlaybackError  EventType = "PLAYBACK_ERROR"
	EventIsolationOn    EventType = "ISOLATION_ON"
	EventIsolationOff   EventType = "ISOLATION_OFF"
	EventRingerOn       EventType = "RINGER_ON"
	EventRingerOff      EventType = "RINGER_OFF"
)

// Event represents something worth logging or publishing.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     CallState
	Ringer    RingerState
	Digit     int    // pulse count or dialed digit, when relevant
	Track     string // track involved, when relevant
	Detail    string // free-form detail (e.g. playback error text)
}

// Sample is a single raw reading of the phone line.
type Sample struct {
	Up   bool // true = raw level above the line threshold
	Time time.Time
}

// Signal is the debounced line signal.
type Signal struct {
	// Current stable level; LevelUnknown until a baseline is established.
	Level Level
	// Edge time at which the raw level of the current stable level began.
	Since time.Time
	// Edge times of the most recent committed rise and fall.
	Rise time.Time
	Fall time.Time
}

// Known reports whether a stable level has been established.
func (s Signal) Known() bool {
	return s.Level != LevelUnknown
}

// Relays is the commanded state of the two relay outputs.
type Relays struct {
	Isolation bool
	Ringer    bool
}

// Input is one control-cycle sample of all inputs.
type Input struct {
	Line        bool // true = raw line level Up
	RingRequest bool // true = ring button held
	Time        time.Time
}

// EventCounts tracks the number of notable events since startup.
type EventCounts struct {
	Pickups   int
	HangUps   int
	Digits    int
	Discarded int
	Connects  int
	Rings     int // ringer relay activations
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// View is a point-in-time summary of the phone for status consumers.
type View struct {
	Call      CallState
	Ringer    RingerState
	Line      Level
	Baselined bool
	Pulses    int    // pulses counted for the digit being dialed
	Digit     int    // last finalized digit, 0 if none
	Track     string // last track commanded
	Relays    Relays
	Counts    EventCounts
}
