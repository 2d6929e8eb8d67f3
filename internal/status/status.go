// Package status provides a thread-safe status tracker for the rotary-phone daemon.
// It is read by the HTTP handlers and used to build MQTT lifecycle payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/rotary-phone/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs        int64
	DebounceMs    int64
	DialTimeoutMs int64
	HangUpMs      int64
	RingerDelayMs int64
	HeartbeatMs   int64
	Broker        string
	HTTPPort      string
	MediaDir      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Phone         logic.View
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	MissingTracks []string
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the phone view.
// Called from runLoop on every tick.
func (t *Tracker) Update(view logic.View) {
	t.mu.Lock()
	t.snap.Phone = view
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// SetMissingTracks records the tracks not found in the media directory.
func (t *Tracker) SetMissingTracks(tracks []string) {
	t.mu.Lock()
	t.snap.MissingTracks = append([]string(nil), tracks...)
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.MissingTracks = append([]string(nil), t.snap.MissingTracks...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
