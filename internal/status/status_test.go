package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/rotary-phone/internal/logic"
)

func connectedView() logic.View {
	return logic.View{
		Call:      logic.StateConnected,
		Ringer:    logic.RingerIdle,
		Line:      logic.LevelDown,
		Baselined: true,
		Digit:     3,
		Track:     "TRACK3.WAV",
		Counts:    logic.EventCounts{Pickups: 5, HangUps: 4, Digits: 3, Discarded: 1, Connects: 3, Rings: 2},
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 5, DebounceMs: 20, Broker: "tcp://localhost:1883", HTTPPort: ":80", MediaDir: "/media/sd"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 5 {
		t.Errorf("Config.PollMs: got %d, want 5", snap.Config.PollMs)
	}
	if snap.Config.MediaDir != "/media/sd" {
		t.Errorf("Config.MediaDir: got %q, want %q", snap.Config.MediaDir, "/media/sd")
	}
	if snap.Phone.Baselined {
		t.Error("expected Baselined=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(connectedView())

	snap := tr.Snapshot()
	if snap.Phone.Call != logic.StateConnected {
		t.Errorf("Call: got %q, want CONNECTED", snap.Phone.Call)
	}
	if snap.Phone.Track != "TRACK3.WAV" {
		t.Errorf("Track: got %q, want TRACK3.WAV", snap.Phone.Track)
	}
	if !snap.Phone.Baselined {
		t.Error("expected Baselined=true")
	}
	if snap.Phone.Counts.Pickups != 5 {
		t.Errorf("Counts.Pickups: got %d, want 5", snap.Phone.Counts.Pickups)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	net := &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"}
	tr.SetNetwork(net)

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSetMissingTracksIsCopied(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	missing := []string{"TRACK4.WAV"}
	tr.SetMissingTracks(missing)
	missing[0] = "changed"

	snap := tr.Snapshot()
	if len(snap.MissingTracks) != 1 || snap.MissingTracks[0] != "TRACK4.WAV" {
		t.Errorf("MissingTracks: got %v", snap.MissingTracks)
	}

	snap.MissingTracks[0] = "also changed"
	if tr.Snapshot().MissingTracks[0] != "TRACK4.WAV" {
		t.Error("snapshot should not alias tracker state")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.View{Call: logic.StateDialTone})

	snap1 := tr.Snapshot()

	tr.Update(logic.View{Call: logic.StateDialing, Pulses: 2})

	// snap1 should still reflect old state
	if snap1.Phone.Call != logic.StateDialTone {
		t.Error("snapshot should be a copy; Call was modified")
	}
	if snap1.Phone.Pulses != 0 {
		t.Error("snapshot should be a copy; Pulses was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phone:         connectedView(),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 5, DebounceMs: 20, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPPort: ":80"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.State != "CONNECTED" {
		t.Errorf("State: got %q, want CONNECTED", parsed.Status.State)
	}
	if parsed.Status.Ringer != "IDLE" {
		t.Errorf("Ringer: got %q, want IDLE", parsed.Status.Ringer)
	}
	if parsed.Status.Line != "DOWN" {
		t.Errorf("Line: got %q, want DOWN", parsed.Status.Line)
	}
	if parsed.Status.Digit != 3 || parsed.Status.Track != "TRACK3.WAV" {
		t.Errorf("Digit/Track: got %d/%q", parsed.Status.Digit, parsed.Status.Track)
	}
	if !parsed.Status.Ready {
		t.Error("expected Ready=true")
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if parsed.Status.MQTT.Connected != true {
		t.Error("expected MQTT.Connected=true")
	}
	want := CountsJSON{Pickups: 5, HangUps: 4, Digits: 3, Discarded: 1, Connects: 3, Rings: 2}
	if parsed.Status.Counts != want {
		t.Errorf("Counts: got %+v, want %+v", parsed.Status.Counts, want)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.State != "UNKNOWN" {
		t.Errorf("State: got %q, want UNKNOWN", parsed.Status.State)
	}
	if parsed.Status.Line != "UNKNOWN" {
		t.Errorf("Line: got %q, want UNKNOWN", parsed.Status.Line)
	}
	if parsed.Status.Ringer != "UNKNOWN" {
		t.Errorf("Ringer: got %q, want UNKNOWN", parsed.Status.Ringer)
	}
}

func TestFormatJSONRelays(t *testing.T) {
	snap := Snapshot{
		Phone: logic.View{
			Call:   logic.StateHungUp,
			Ringer: logic.RingerRinging,
			Relays: logic.Relays{Isolation: true, Ringer: true},
		},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if !parsed.Status.Relays.Isolation || !parsed.Status.Relays.Ringer {
		t.Errorf("Relays: got %+v, want both on", parsed.Status.Relays)
	}
}

func TestFormatJSONMissingTracks(t *testing.T) {
	snap := Snapshot{MissingTracks: []string{"TRACK9.WAV"}}

	var raw map[string]interface{}
	json.Unmarshal(FormatJSON(snap), &raw)
	status := raw["status"].(map[string]interface{})
	list, ok := status["missing_tracks"].([]interface{})
	if !ok || len(list) != 1 || list[0] != "TRACK9.WAV" {
		t.Errorf("missing_tracks: got %v", status["missing_tracks"])
	}

	var empty map[string]interface{}
	json.Unmarshal(FormatJSON(Snapshot{}), &empty)
	status = empty["status"].(map[string]interface{})
	if _, exists := status["missing_tracks"]; exists {
		t.Error("missing_tracks should be omitted when the library is complete")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phone:         connectedView(),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 5, DebounceMs: 20, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.State != "CONNECTED" {
		t.Errorf("State: got %q, want CONNECTED", parsed.Status.State)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phone:     logic.View{Call: logic.StateHungUp, Baselined: true},
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		Phone:     logic.View{Call: logic.StateHungUp, Baselined: true},
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.View{Call: logic.StateDialing, Pulses: i % 10})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
			tr.SetMissingTracks([]string{"TRACK1.WAV"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
