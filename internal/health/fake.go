package health

// FakeMonitor returns scripted stats for tests. Each call consumes the next
// entry; when the script runs out, the last entry repeats.
type FakeMonitor struct {
	// Samples contains scripted stats to return.
	Samples []Stats

	// Err, if set, is returned by Stats.
	Err error

	idx int
}

// NewFakeMonitor creates a FakeMonitor with the given samples.
func NewFakeMonitor(samples ...Stats) *FakeMonitor {
	return &FakeMonitor{Samples: samples}
}

// Stats returns the next scripted reading.
func (f *FakeMonitor) Stats() (Stats, error) {
	if f.Err != nil {
		return Stats{}, f.Err
	}
	if len(f.Samples) == 0 {
		return Stats{}, nil
	}
	if f.idx >= len(f.Samples) {
		return f.Samples[len(f.Samples)-1], nil
	}
	s := f.Samples[f.idx]
	f.idx++
	return s, nil
}
