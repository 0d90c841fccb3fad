package oscillator

import (
	"math"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
)

const defaultFrequency = 440.0

// Oscillator is a phase-accumulator synthesizer.
//
// The phase lives in [0, 1) and advances by frequency/sampleRate per sample.
// All methods are allocation-free; an Oscillator is not safe for concurrent
// use.
type Oscillator struct {
	sampleRate float64
	frequency  float32
	waveform   Waveform

	phase    float64
	phaseInc float64
}

// New returns a sine oscillator at 440 Hz, prepared for sampleRate.
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{frequency: defaultFrequency}
	o.Prepare(sampleRate)
	return o
}

// Prepare sets the sample rate, resets the phase to 0 and re-derives the
// phase increment. Non-positive or non-finite rates are clamped to
// core.MinSampleRate.
func (o *Oscillator) Prepare(sampleRate float64) {
	o.sampleRate = core.SanitizeSampleRate(sampleRate)
	o.phase = 0
	o.updatePhaseIncrement()
}

// SetFrequency sets the oscillator frequency in Hz. Negative or non-finite
// values are treated as 0 (silence for the table and triangle shapes, a
// frozen phase for all of them).
func (o *Oscillator) SetFrequency(hz float32) {
	if !core.IsFinite(hz) || hz < 0 {
		hz = 0
	}
	if hz == o.frequency {
		return
	}
	o.frequency = hz
	o.updatePhaseIncrement()
}

// SetWaveform selects the output shape. Unknown values fall back to Sine.
func (o *Oscillator) SetWaveform(w Waveform) {
	if !w.Valid() {
		w = Sine
	}
	o.waveform = w
}

// SetPhase sets the phase, wrapped into [0, 1).
func (o *Oscillator) SetPhase(phase float64) {
	if !core.IsFinite(phase) {
		phase = 0
	}
	o.phase = phase - math.Floor(phase)
}

// NextSample returns one sample and advances the phase.
func (o *Oscillator) NextSample() float32 {
	var out float32
	switch o.waveform {
	case Sine:
		out = tableSine(o.phase)
	case Triangle:
		out = float32(2*math.Abs(2*o.phase-1) - 1)
	case Square:
		out = o.square()
	case Saw:
		out = float32(2*o.phase - 1 - polyBLEP(o.phase, o.phaseInc))
	}

	o.phase += o.phaseInc
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}

	return out
}

// Process fills dst with consecutive samples.
func (o *Oscillator) Process(dst []float32) {
	for i := range dst {
		dst[i] = o.NextSample()
	}
}

// SampleRate returns the prepared sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// Frequency returns the current frequency in Hz.
func (o *Oscillator) Frequency() float32 { return o.frequency }

// Waveform returns the selected shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Phase returns the current phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

func (o *Oscillator) square() float32 {
	naive := 1.0
	if o.phase >= 0.5 {
		naive = -1
	}
	half := o.phase + 0.5
	if half >= 1 {
		half--
	}
	return float32(naive + polyBLEP(o.phase, o.phaseInc) - polyBLEP(half, o.phaseInc))
}

func (o *Oscillator) updatePhaseIncrement() {
	o.phaseInc = float64(o.frequency) / o.sampleRate
}
