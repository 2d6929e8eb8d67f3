package gpio

import "errors"

// FakeReader is a test double that returns scripted GPIO values.
type FakeReader struct {
	// Samples contains scripted (line, ring) values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single GPIO reading.
type Sample struct {
	LineUp bool // true = line open
	Ring   bool // true = ring button held
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.LineUp, sample.Ring, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// Repeat returns n copies of s, for building sample scripts.
func Repeat(s Sample, n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// RelayChange records one relay command.
type RelayChange struct {
	Relay string // "isolation" or "ringer"
	On    bool
}

// FakeRelays is a test double that records relay commands.
type FakeRelays struct {
	Isolation bool
	Ringer    bool

	// History holds every command in order.
	History []RelayChange

	// SetError, if set, is returned by SetIsolation and SetRinger and the
	// command is not applied.
	SetError error

	Closed bool
}

// NewFakeRelays creates FakeRelays with both relays released.
func NewFakeRelays() *FakeRelays {
	return &FakeRelays{}
}

// SetIsolation records an isolation relay command.
func (f *FakeRelays) SetIsolation(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Isolation = on
	f.History = append(f.History, RelayChange{Relay: "isolation", On: on})
	return nil
}

// SetRinger records a ringer relay command.
func (f *FakeRelays) SetRinger(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Ringer = on
	f.History = append(f.History, RelayChange{Relay: "ringer", On: on})
	return nil
}

// Close releases both relays, ringer first.
func (f *FakeRelays) Close() error {
	if f.Ringer {
		f.Ringer = false
		f.History = append(f.History, RelayChange{Relay: "ringer", On: false})
	}
	if f.Isolation {
		f.Isolation = false
		f.History = append(f.History, RelayChange{Relay: "isolation", On: false})
	}
	f.Closed = true
	return nil
}
