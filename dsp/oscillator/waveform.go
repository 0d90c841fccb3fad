package oscillator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownWaveform is returned by ParseWaveform for unrecognised names.
var ErrUnknownWaveform = errors.New("unknown waveform")

// Waveform selects the oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	Saw
)

// Waveforms lists all supported shapes in declaration order.
var Waveforms = [...]Waveform{Sine, Triangle, Square, Saw}

var waveformNames = [...]string{"sine", "triangle", "square", "saw"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// Valid reports whether w is one of the supported shapes.
func (w Waveform) Valid() bool {
	return w >= Sine && w <= Saw
}

// ParseWaveform resolves a case-insensitive waveform name.
func ParseWaveform(name string) (Waveform, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range waveformNames {
		if s == n {
			return Waveform(i), nil
		}
	}
	return Sine, fmt.Errorf("%w: %q", ErrUnknownWaveform, name)
}
