// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rotary-phone/internal/logic"
)

// Topic is the MQTT topic for phone events.
const Topic = "home/rotary-phone/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/rotary-phone/system"

// eventTimeFormat keeps milliseconds so dial pulses can be told apart.
const eventTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a phone event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Phone PhonePayload `json:"phone"`
}

// PhonePayload contains the phone event details.
type PhonePayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
	Ringer    string `json:"ringer"`
	Digit     int    `json:"digit,omitempty"`
	Track     string `json:"track,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// FormatPayload creates the JSON payload for a phone event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Phone: PhonePayload{
			Timestamp: event.Timestamp.UTC().Format(eventTimeFormat),
			Event:     string(event.Type),
			State:     string(event.State),
			Ringer:    string(event.Ringer),
			Digit:     event.Digit,
			Track:     event.Track,
			Detail:    event.Detail,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillEvent returns the last-will event the broker publishes if the
// connection drops without a clean disconnect.
func WillEvent(now time.Time) SystemEvent {
	return SystemEvent{
		Timestamp: now,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
		Retained:  true,
	}
}
