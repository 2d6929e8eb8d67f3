package status

import (
	"encoding/json"
	"time"
)

const unknown = "UNKNOWN"

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Ringer        string       `json:"ringer"`
	Line          string       `json:"line"`
	Ready         bool         `json:"ready"`
	Pulses        int          `json:"pulses"`
	Digit         int          `json:"digit"`
	Track         string       `json:"track,omitempty"`
	Relays        RelaysJSON   `json:"relays"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	MissingTracks []string     `json:"missing_tracks,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// RelaysJSON reports the commanded relay outputs.
type RelaysJSON struct {
	Isolation bool `json:"isolation"`
	Ringer    bool `json:"ringer"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Pickups   int `json:"pickups"`
	HangUps   int `json:"hang_ups"`
	Digits    int `json:"digits"`
	Discarded int `json:"discarded"`
	Connects  int `json:"connects"`
	Rings     int `json:"rings"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64  `json:"poll_ms"`
	DebounceMs    int64  `json:"debounce_ms"`
	DialTimeoutMs int64  `json:"dial_timeout_ms"`
	HangUpMs      int64  `json:"hang_up_ms"`
	RingerDelayMs int64  `json:"ringer_delay_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Broker        string `json:"broker"`
	HTTPPort      string `json:"http_port"`
	MediaDir      string `json:"media_dir"`
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	p := snap.Phone
	c := snap.Config

	return StatusInner{
		State:         orUnknown(string(p.Call)),
		Ringer:        orUnknown(string(p.Ringer)),
		Line:          orUnknown(string(p.Line)),
		Ready:         p.Baselined,
		Pulses:        p.Pulses,
		Digit:         p.Digit,
		Track:         p.Track,
		Relays:        RelaysJSON{Isolation: p.Relays.Isolation, Ringer: p.Relays.Ringer},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: c.Broker},
		Counts: CountsJSON{
			Pickups:   p.Counts.Pickups,
			HangUps:   p.Counts.HangUps,
			Digits:    p.Counts.Digits,
			Discarded: p.Counts.Discarded,
			Connects:  p.Counts.Connects,
			Rings:     p.Counts.Rings,
		},
		MissingTracks: snap.MissingTracks,
		Config: ConfigJSON{
			PollMs:        c.PollMs,
			DebounceMs:    c.DebounceMs,
			DialTimeoutMs: c.DialTimeoutMs,
			HangUpMs:      c.HangUpMs,
			RingerDelayMs: c.RingerDelayMs,
			HeartbeatMs:   c.HeartbeatMs,
			Broker:        c.Broker,
			HTTPPort:      c.HTTPPort,
			MediaDir:      c.MediaDir,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
