package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is the speaker output rate. Tracks at other rates are
// resampled.
const DefaultSampleRate = beep.SampleRate(44100)

const resampleQuality = 4

// RealPlayer plays WAV files from a media directory on the default sound
// device.
type RealPlayer struct {
	dir  string
	rate beep.SampleRate

	mu      sync.Mutex
	gen     uint64
	current beep.StreamSeekCloser

	// Generation of the track still playing, 0 when idle. Cleared from the
	// speaker goroutine when a track runs out.
	active atomic.Uint64
}

// NewRealPlayer opens the sound device.
func NewRealPlayer(dir string, rate beep.SampleRate) (*RealPlayer, error) {
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &RealPlayer{dir: dir, rate: rate}, nil
}

// Play starts track from the beginning, replacing whatever is playing.
func (p *RealPlayer) Play(track string) error {
	stream, closer, err := load(p.dir, track, p.rate)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	speaker.Clear()
	p.closeCurrent()

	p.gen++
	gen := p.gen
	p.current = closer
	p.active.Store(gen)
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		p.active.CompareAndSwap(gen, 0)
	})))
	return nil
}

// Stop silences playback.
func (p *RealPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	speaker.Clear()
	p.active.Store(0)
	return p.closeCurrent()
}

// IsPlaying reports whether the last track is still playing.
func (p *RealPlayer) IsPlaying() bool {
	return p.active.Load() != 0
}

// Close stops playback and releases the sound device.
func (p *RealPlayer) Close() error {
	err := p.Stop()
	speaker.Close()
	return err
}

func (p *RealPlayer) closeCurrent() error {
	if p.current == nil {
		return nil
	}
	err := p.current.Close()
	p.current = nil
	if err != nil {
		return fmt.Errorf("close track: %w", err)
	}
	return nil
}

// load opens and decodes a WAV track, resampled to rate. The closer also
// closes the underlying file.
func load(dir, track string, rate beep.SampleRate) (beep.Streamer, beep.StreamSeekCloser, error) {
	f, err := os.Open(filepath.Join(dir, track))
	if err != nil {
		return nil, nil, fmt.Errorf("open track %s: %w", track, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("decode track %s: %w", track, err)
	}

	if format.SampleRate == rate {
		return streamer, streamer, nil
	}
	return beep.Resample(resampleQuality, format.SampleRate, rate, streamer), streamer, nil
}
