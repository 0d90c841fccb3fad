package pitch

import (
	"math"
	"strconv"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MIDINote returns the fractional MIDI note number of hz (A4 = 440 Hz = 69).
// It returns 0 for non-positive input.
func MIDINote(hz float32) float64 {
	if !(hz > 0) {
		return 0
	}
	return 69 + 12*math.Log2(float64(hz)/440)
}

// NoteName returns the nearest equal-tempered note, e.g. "A4" or "C#3", or
// "--" when hz is not a pitch.
func NoteName(hz float32) string {
	if !(hz > 0) || math.IsInf(float64(hz), 0) {
		return "--"
	}
	n := int(math.Round(MIDINote(hz)))
	octave := n/12 - 1
	idx := n % 12
	if idx < 0 {
		idx += 12
		octave--
	}
	return noteNames[idx] + strconv.Itoa(octave)
}
