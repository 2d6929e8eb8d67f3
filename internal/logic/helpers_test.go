package logic

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const cycle = 5 * time.Millisecond

// fakePlayer records playback commands. A track plays for lengths[track]
// IsPlaying polls (missing or negative = forever).
type fakePlayer struct {
	plays   []string
	stops   int
	lengths map[string]int
	playErr error

	playing bool
	track   string
	left    int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{lengths: map[string]int{}}
}

func (f *fakePlayer) Play(track string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.plays = append(f.plays, track)
	f.playing = true
	f.track = track
	f.left = -1
	if n, ok := f.lengths[track]; ok {
		f.left = n
	}
	return nil
}

func (f *fakePlayer) Stop() error {
	f.stops++
	f.playing = false
	return nil
}

func (f *fakePlayer) IsPlaying() bool {
	if !f.playing {
		return false
	}
	if f.left < 0 {
		return true
	}
	if f.left == 0 {
		f.playing = false
		return false
	}
	f.left--
	return true
}

func (f *fakePlayer) lastPlay() string {
	if len(f.plays) == 0 {
		return ""
	}
	return f.plays[len(f.plays)-1]
}

func (f *fakePlayer) countPlays(track string) int {
	n := 0
	for _, p := range f.plays {
		if p == track {
			n++
		}
	}
	return n
}

// testConfig returns the reference config with a single ring segment.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinRings = 1
	cfg.MaxRings = 1
	return cfg
}

// line drives a Phone with one sample per control cycle.
type line struct {
	t      *testing.T
	phone  *Phone
	player *fakePlayer
	now    time.Time
	ring   bool
	events []Event
}

func newLine(t *testing.T, cfg Config) *line {
	t.Helper()
	p := newFakePlayer()
	p.lengths[cfg.Tracks.RingTone] = 3
	return &line{
		t:      t,
		phone:  NewPhone(cfg, p, t0),
		player: p,
		now:    t0,
	}
}

// hold keeps the raw line level for d, sampling every cycle.
func (l *line) hold(up bool, d time.Duration) {
	for end := l.now.Add(d); l.now.Before(end); l.now = l.now.Add(cycle) {
		l.events = append(l.events, l.phone.Process(Input{Line: up, RingRequest: l.ring, Time: l.now})...)
	}
}

// pickUp establishes a hung-up baseline, lifts the handset and waits out
// the pickup grace period.
func (l *line) pickUp() {
	l.hold(true, 50*time.Millisecond)
	l.hold(false, 600*time.Millisecond)
	if got := l.phone.State(); got != StateDialTone {
		l.t.Fatalf("after pickup: expected %s, got %s", StateDialTone, got)
	}
}

// dial sends n pulses of the given Up width separated by 40ms Down.
func (l *line) dial(n int, width time.Duration) {
	for i := 0; i < n; i++ {
		l.hold(true, width)
		l.hold(false, 40*time.Millisecond)
	}
}

func (l *line) count(t EventType) int {
	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (l *line) find(t EventType) (Event, bool) {
	for _, e := range l.events {
		if e.Type == t {
			return e, true
		}
	}
	return Event{}, false
}

var errPlayback = errors.New("simulated playback failure")
