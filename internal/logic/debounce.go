package logic

import "time"

// Debouncer turns raw line samples into a stable Signal.
type Debouncer struct {
	debounceDuration time.Duration
	raw              bool
	rawSince         time.Time
	seen             bool
	signal           Signal
}

// NewDebouncer creates a debouncer that commits a raw level once it has held
// for at least debounceDuration.
func NewDebouncer(debounceDuration time.Duration) *Debouncer {
	return &Debouncer{debounceDuration: debounceDuration}
}

// Process takes a new raw sample and returns the stable signal. The bool is
// true when this sample committed a transition. Establishing the baseline
// (the first stable level) is not a transition.
func (d *Debouncer) Process(s Sample) (Signal, bool) {
	if !d.seen || s.Up != d.raw {
		// New raw edge, restart the debounce window
		d.seen = true
		d.raw = s.Up
		d.rawSince = s.Time
	}

	level := levelFor(d.raw)
	if level == d.signal.Level {
		return d.signal, false
	}

	if s.Time.Sub(d.rawSince) < d.debounceDuration {
		return d.signal, false
	}

	baseline := !d.signal.Known()
	d.signal.Level = level
	d.signal.Since = d.rawSince
	if level == LevelUp {
		d.signal.Rise = d.rawSince
	} else {
		d.signal.Fall = d.rawSince
	}
	return d.signal, !baseline
}

// Signal returns the current stable signal.
func (d *Debouncer) Signal() Signal {
	return d.signal
}

// IsBaselined returns whether a stable level has been established.
func (d *Debouncer) IsBaselined() bool {
	return d.signal.Known()
}

func levelFor(up bool) Level {
	if up {
		return LevelUp
	}
	return LevelDown
}
