//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(pinLine, pinRing int) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, bool, error) {
	return false, false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// RealRelays is not available on non-Linux platforms.
type RealRelays struct{}

// NewRealRelays returns an error on non-Linux platforms.
func NewRealRelays(pinIsolation, pinRinger int) (*RealRelays, error) {
	return nil, errUnsupported
}

// SetIsolation is not implemented on non-Linux platforms.
func (r *RealRelays) SetIsolation(on bool) error {
	return errors.New("gpio: not supported")
}

// SetRinger is not implemented on non-Linux platforms.
func (r *RealRelays) SetRinger(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealRelays) Close() error {
	return nil
}
