// Package gpio provides the phone's line inputs and relay outputs with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the phone's inputs.
type Reader interface {
	// Read returns the raw hook/dial line and the ring button.
	// lineUp is true while the line is open (on-hook or a dial pulse).
	// ringRequested is true while the ring button is held.
	Read() (lineUp bool, ringRequested bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Relays drives the isolation and ringer relays.
type Relays interface {
	// SetIsolation energizes or releases the isolation relay.
	SetIsolation(on bool) error

	// SetRinger energizes or releases the ringer relay.
	SetRinger(on bool) error

	// Close releases both relays and their GPIO resources.
	Close() error
}

// Pins holds the BCM pin numbers used by the phone.
type Pins struct {
	Line       int
	RingButton int
	Isolation  int
	Ringer     int
}

// Default pin definitions (BCM numbering)
const (
	PinLine       = 17 // Hook switch and dial pulse contacts
	PinRingButton = 27 // Ring request button
	PinIsolation  = 22 // Isolation relay
	PinRinger     = 23 // Ringer relay
)

// DefaultPins returns the default pin assignment.
func DefaultPins() Pins {
	return Pins{
		Line:       PinLine,
		RingButton: PinRingButton,
		Isolation:  PinIsolation,
		Ringer:     PinRinger,
	}
}
