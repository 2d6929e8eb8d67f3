package audio

import (
	"fmt"
	"io/fs"
	"sync"
)

// FakePlayer is a test double that records playback commands.
type FakePlayer struct {
	mu sync.Mutex

	// Plays records every track started, in order.
	Plays []string
	Stops int

	// Lengths sets how many IsPlaying polls a track lasts. Tracks not in
	// the map play until stopped.
	Lengths map[string]int

	// Missing tracks fail to play with fs.ErrNotExist.
	Missing map[string]bool

	Closed bool

	playing bool
	left    int
}

// NewFakePlayer creates a FakePlayer with nothing playing.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{
		Lengths: map[string]int{},
		Missing: map[string]bool{},
	}
}

// Play records track and starts it.
func (f *FakePlayer) Play(track string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Missing[track] {
		return fmt.Errorf("open track %s: %w", track, fs.ErrNotExist)
	}
	f.Plays = append(f.Plays, track)
	f.playing = true
	f.left = -1
	if n, ok := f.Lengths[track]; ok {
		f.left = n
	}
	return nil
}

// Stop records a stop command.
func (f *FakePlayer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Stops++
	f.playing = false
	return nil
}

// IsPlaying reports whether the current track is still playing. Each poll
// consumes one unit of the track's length.
func (f *FakePlayer) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

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

// Close marks the player as closed.
func (f *FakePlayer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.playing = false
	f.Closed = true
	return nil
}

// Last returns the last track started, or "".
func (f *FakePlayer) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Plays) == 0 {
		return ""
	}
	return f.Plays[len(f.Plays)-1]
}

// Count returns how many times track was started.
func (f *FakePlayer) Count(track string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, p := range f.Plays {
		if p == track {
			n++
		}
	}
	return n
}
