package touch

// FakeReader is a test double that returns scripted press values.
type FakeReader struct {
	// Samples contains scripted press states. Each call to Pressed
	// consumes the next sample; the last sample repeats when exhausted.
	Samples []bool

	// ReadError, if set, is returned by Pressed.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool

	idx int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Pressed returns the next scripted sample.
func (f *FakeReader) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, nil
	}
	if f.idx >= len(f.Samples) {
		return f.Samples[len(f.Samples)-1], nil
	}
	s := f.Samples[f.idx]
	f.idx++
	return s, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// NoneReader always reports no touch. Used when the daemon runs without a
// touch input configured.
type NoneReader struct{}

// Pressed always returns false.
func (NoneReader) Pressed() (bool, error) { return false, nil }

// Close is a no-op.
func (NoneReader) Close() error { return nil }
