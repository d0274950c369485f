//go:build linux

package touch

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the touch input from actual hardware using the Linux
// GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader requests the touch line as an input with pull-down, matching
// an externally wired capacitive touch module that drives the line high on
// contact.
func NewRealReader(pin int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request touch pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, line: line}, nil
}

// Pressed reports whether the touch line is high.
func (r *RealReader) Pressed() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read touch line: %w", err)
	}
	return v != 0, nil
}

// Close releases the line and chip.
func (r *RealReader) Close() error {
	r.line.Close()
	return r.chip.Close()
}
