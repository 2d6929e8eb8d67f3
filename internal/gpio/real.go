//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const chipName = "gpiochip0"

// RealReader reads the line and ring button from actual hardware using Linux
// GPIO character device.
type RealReader struct {
	chip    *gpiocdev.Chip
	linePin *gpiocdev.Line
	ringPin *gpiocdev.Line
}

// NewRealReader creates a GPIO reader for actual Raspberry Pi hardware.
func NewRealReader(pinLine, pinRing int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The line loop pulls the input high while open. Pull-down keeps a
	// disconnected loop reading as closed rather than floating.
	line, err := chip.RequestLine(pinLine, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request line pin %d: %w", pinLine, err)
	}

	ring, err := chip.RequestLine(pinRing, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		line.Close()
		chip.Close()
		return nil, fmt.Errorf("request ring button pin %d: %w", pinRing, err)
	}

	return &RealReader{
		chip:    chip,
		linePin: line,
		ringPin: ring,
	}, nil
}

// Read returns the raw line level and ring button state.
// Raw high (1) = line open (Up), button pressed.
func (r *RealReader) Read() (bool, bool, error) {
	lineRaw, err := r.linePin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read line pin: %w", err)
	}

	ringRaw, err := r.ringPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read ring button pin: %w", err)
	}

	return lineRaw == 1, ringRaw == 1, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error
	errs = append(errs, closeLine(r.linePin, "line")...)
	errs = append(errs, closeLine(r.ringPin, "ring button")...)
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return closeErrors(errs)
}

// RealRelays drives the relays on actual hardware. Both outputs start
// released.
type RealRelays struct {
	chip      *gpiocdev.Chip
	isolation *gpiocdev.Line
	ringer    *gpiocdev.Line
}

// NewRealRelays requests the relay pins as outputs, initially low.
func NewRealRelays(pinIsolation, pinRinger int) (*RealRelays, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	iso, err := chip.RequestLine(pinIsolation, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request isolation pin %d: %w", pinIsolation, err)
	}

	ringer, err := chip.RequestLine(pinRinger, gpiocdev.AsOutput(0))
	if err != nil {
		iso.Close()
		chip.Close()
		return nil, fmt.Errorf("request ringer pin %d: %w", pinRinger, err)
	}

	return &RealRelays{
		chip:      chip,
		isolation: iso,
		ringer:    ringer,
	}, nil
}

// SetIsolation energizes or releases the isolation relay.
func (r *RealRelays) SetIsolation(on bool) error {
	if err := r.isolation.SetValue(boolValue(on)); err != nil {
		return fmt.Errorf("set isolation relay: %w", err)
	}
	return nil
}

// SetRinger energizes or releases the ringer relay.
func (r *RealRelays) SetRinger(on bool) error {
	if err := r.ringer.SetValue(boolValue(on)); err != nil {
		return fmt.Errorf("set ringer relay: %w", err)
	}
	return nil
}

// Close drives both relays low, then returns the pins to boot defaults.
// The ringer is released before isolation.
func (r *RealRelays) Close() error {
	var errs []error
	if r.ringer != nil {
		if err := r.ringer.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release ringer relay: %w", err))
		}
	}
	if r.isolation != nil {
		if err := r.isolation.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release isolation relay: %w", err))
		}
	}
	errs = append(errs, closeLine(r.ringer, "ringer")...)
	errs = append(errs, closeLine(r.isolation, "isolation")...)
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return closeErrors(errs)
}

// closeLine reconfigures a line to input with pull-down and closes it.
// This prevents boot issues when external hardware (relay drivers) is
// connected and might hold pins in unexpected states during early boot.
func closeLine(l *gpiocdev.Line, name string) []error {
	if l == nil {
		return nil
	}
	var errs []error
	if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
	}
	if err := l.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
	}
	return errs
}

func closeErrors(errs []error) error {
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

func boolValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
