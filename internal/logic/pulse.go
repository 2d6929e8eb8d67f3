package logic

import "time"

// PulseDecoder accumulates dial pulses into a digit.
//
// A pulse is a Down→Up→Down cycle of the stable signal whose Up width lies
// within [minPulse, maxPulse]. The latch is cleared while the signal is Up
// and set once the following fall has been evaluated, so a pulse can only be
// counted once however many cycles the signal stays Down.
type PulseDecoder struct {
	minPulse    time.Duration
	maxPulse    time.Duration
	dialTimeout time.Duration
	count       int
	latched     bool
}

// NewPulseDecoder creates a decoder using the pulse window and dial timeout
// from t.
func NewPulseDecoder(t Timing) *PulseDecoder {
	return &PulseDecoder{
		minPulse:    t.MinPulse,
		maxPulse:    t.MaxPulse,
		dialTimeout: t.DialTimeout,
	}
}

// Reset discards any pulses counted so far.
func (p *PulseDecoder) Reset() {
	p.count = 0
	p.latched = false
}

// Arm clears the latch without discarding the count.
func (p *PulseDecoder) Arm() {
	p.latched = false
}

// Count returns the pulses counted since the last Reset.
func (p *PulseDecoder) Count() int {
	return p.count
}

// Observe advances the decoder with the current stable signal. counted is
// true when this call counted a pulse. timedOut is true once the signal has
// stayed Down for the dial timeout since the last fall.
func (p *PulseDecoder) Observe(sig Signal, now time.Time) (counted, timedOut bool) {
	if sig.Level != LevelDown {
		p.latched = false
		return false, false
	}

	if !p.latched {
		p.latched = true
		if p.qualifies(sig.Fall.Sub(sig.Rise)) {
			p.count++
			counted = true
		}
	}

	return counted, now.Sub(sig.Fall) >= p.dialTimeout
}

func (p *PulseDecoder) qualifies(width time.Duration) bool {
	return width >= p.minPulse && width <= p.maxPulse
}
