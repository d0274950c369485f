// Package touch provides the user-interaction input with hardware
// abstraction. The real implementation reads a touch/button line via the
// Linux GPIO character device; the fake allows testing without hardware.
package touch

import "time"

// Reader reads the touch input state.
type Reader interface {
	// Pressed reports whether the touch input is currently active.
	Pressed() (bool, error)

	// Close releases input resources.
	Close() error
}

// DefaultPin is the BCM line number for the touch input.
const DefaultPin = 27

// DefaultHold is how long a press counts as "recent interaction" after the
// finger lifts. The inference rules care about recency, not the raw level.
const DefaultHold = 30 * time.Second

// Latch turns momentary presses into a recent-interaction flag with a hold
// window. Single-owner: only the touch producer calls it.
type Latch struct {
	reader   Reader
	hold     time.Duration
	lastSeen time.Time
	seenAny  bool
}

// NewLatch wraps reader with the given hold window. hold <= 0 selects
// DefaultHold.
func NewLatch(reader Reader, hold time.Duration) *Latch {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Latch{reader: reader, hold: hold}
}

// Sample reads the input and reports whether interaction is recent: pressed
// now, or pressed within the hold window.
func (l *Latch) Sample(now time.Time) (bool, error) {
	pressed, err := l.reader.Pressed()
	if err != nil {
		return false, err
	}
	if pressed {
		l.lastSeen = now
		l.seenAny = true
		return true, nil
	}
	return l.seenAny && now.Sub(l.lastSeen) < l.hold, nil
}
