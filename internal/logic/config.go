package logic

import (
	"errors"
	"fmt"
	"time"
)

// MaxDigit is the largest pulse count that forms a digit. Ten pulses dial "0".
const MaxDigit = 10

// Timing holds every timeout used by the control cycle.
type Timing struct {
	Debounce    time.Duration // raw level must hold this long to be committed
	MinPulse    time.Duration // shortest Up width counted as a pulse
	MaxPulse    time.Duration // longest Up width counted as a pulse
	DialTimeout time.Duration // Down time after the last pulse that ends a digit
	HangUp      time.Duration // Up time that forces HUNG_UP
	PickupGrace time.Duration // rises this soon after pickup are pickup bounce
	RingerDelay time.Duration // relay settle delay
}

// DefaultTiming returns the reference timing.
func DefaultTiming() Timing {
	return Timing{
		Debounce:    20 * time.Millisecond,
		MinPulse:    40 * time.Millisecond,
		MaxPulse:    100 * time.Millisecond,
		DialTimeout: 300 * time.Millisecond,
		HangUp:      300 * time.Millisecond,
		PickupGrace: 500 * time.Millisecond,
		RingerDelay: 500 * time.Millisecond,
	}
}

// Tracks names the audio cues and the digit to track table.
type Tracks struct {
	DialTone string
	RingTone string
	Digits   map[int]string
}

// DefaultTracks returns the fixed track table: digit n plays TRACKn.WAV.
func DefaultTracks() Tracks {
	digits := make(map[int]string, MaxDigit)
	for n := 1; n <= MaxDigit; n++ {
		digits[n] = fmt.Sprintf("TRACK%d.WAV", n)
	}
	return Tracks{
		DialTone: "DIALTONE.WAV",
		RingTone: "RINGING.WAV",
		Digits:   digits,
	}
}

// All returns every track name in the table, cues first, digits in order.
func (t Tracks) All() []string {
	names := []string{t.DialTone, t.RingTone}
	for n := 1; n <= MaxDigit; n++ {
		if name, ok := t.Digits[n]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Config configures a Phone.
type Config struct {
	Timing Timing
	Tracks Tracks

	// Number of ring segments played before connecting, drawn uniformly
	// from [MinRings, MaxRings].
	MinRings int
	MaxRings int

	// RandIntN returns a value in [0, n). Nil uses math/rand.
	RandIntN func(n int) int
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Timing:   DefaultTiming(),
		Tracks:   DefaultTracks(),
		MinRings: 1,
		MaxRings: 3,
	}
}

// Validate reports configuration values the control cycle cannot work with.
func (c Config) Validate() error {
	t := c.Timing
	var errs []error
	if t.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	if t.MinPulse <= 0 || t.MaxPulse < t.MinPulse {
		errs = append(errs, fmt.Errorf("pulse window [%v, %v] is empty", t.MinPulse, t.MaxPulse))
	}
	if t.HangUp <= t.MaxPulse {
		errs = append(errs, fmt.Errorf("hang-up time %v must exceed max pulse %v", t.HangUp, t.MaxPulse))
	}
	if t.DialTimeout <= 0 {
		errs = append(errs, errors.New("dial timeout must be positive"))
	}
	if t.RingerDelay < 0 {
		errs = append(errs, errors.New("ringer delay must not be negative"))
	}
	if c.MinRings < 0 || c.MaxRings < c.MinRings {
		errs = append(errs, fmt.Errorf("ring count range [%d, %d] is invalid", c.MinRings, c.MaxRings))
	}
	if c.Tracks.DialTone == "" || c.Tracks.RingTone == "" {
		errs = append(errs, errors.New("dial tone and ring tone tracks are required"))
	}
	return errors.Join(errs...)
}
