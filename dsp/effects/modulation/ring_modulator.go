package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
	"github.com/cwbudde/algo-ringtrack/dsp/oscillator"
)

const (
	defaultRingModCarrierHz = 440.0
	defaultRingModMix       = 1.0
)

// RingModulatorOption mutates ring modulator construction parameters.
type RingModulatorOption func(*ringModConfig) error

type ringModConfig struct {
	carrierHz float64
	mix       float64
	waveform  oscillator.Waveform
}

func defaultRingModConfig() ringModConfig {
	return ringModConfig{
		carrierHz: defaultRingModCarrierHz,
		mix:       defaultRingModMix,
		waveform:  oscillator.Sine,
	}
}

// WithRingModCarrierHz sets the carrier oscillator frequency in Hz.
func WithRingModCarrierHz(carrierHz float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if err := validateCarrierHz(carrierHz); err != nil {
			return err
		}

		cfg.carrierHz = carrierHz

		return nil
	}
}

// WithRingModMix sets the dry/wet mix in [0, 1], where 0 is fully dry and 1 is fully wet.
func WithRingModMix(mix float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if err := validateMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// WithRingModWaveform sets the carrier waveform.
func WithRingModWaveform(w oscillator.Waveform) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if !w.Valid() {
			return fmt.Errorf("%w: %d", oscillator.ErrUnknownWaveform, int(w))
		}

		cfg.waveform = w

		return nil
	}
}

// RingModulator multiplies the input signal by a bipolar carrier oscillator,
// producing sum and difference frequencies of the input and carrier. The
// carrier is band-limited for the Square and Saw shapes.
//
// The output for a single sample is:
//
//	wet = input * carrier(t)
//	output = input * (1 - mix) + wet * mix
//
// Non-finite output samples are replaced by 0.
type RingModulator struct {
	sampleRate float64
	carrierHz  float64
	mix        float32

	carrier *oscillator.Oscillator
}

// NewRingModulator creates a ring modulator with the given sample rate and
// optional configuration overrides.
func NewRingModulator(sampleRate float64, opts ...RingModulatorOption) (*RingModulator, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	cfg := defaultRingModConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	r := &RingModulator{
		sampleRate: sampleRate,
		carrierHz:  cfg.carrierHz,
		mix:        float32(cfg.mix),
		carrier:    oscillator.New(sampleRate),
	}
	r.carrier.SetWaveform(cfg.waveform)
	r.carrier.SetFrequency(float32(cfg.carrierHz))

	return r, nil
}

// SetSampleRate updates the sample rate and restarts the carrier at phase 0.
func (r *RingModulator) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}

	r.prepare(sampleRate)

	return nil
}

// prepare retunes the carrier for a sample rate that is already known to be
// valid.
func (r *RingModulator) prepare(sampleRate float64) {
	r.sampleRate = sampleRate
	r.carrier.Prepare(sampleRate)
}

// SetCarrierHz sets the carrier oscillator frequency in Hz.
func (r *RingModulator) SetCarrierHz(carrierHz float64) error {
	if err := validateCarrierHz(carrierHz); err != nil {
		return err
	}

	r.retune(float32(carrierHz))

	return nil
}

// SetMix sets the dry/wet mix in [0, 1].
func (r *RingModulator) SetMix(mix float64) error {
	if err := validateMix(mix); err != nil {
		return err
	}

	r.mix = float32(mix)

	return nil
}

// SetWaveform selects the carrier shape.
func (r *RingModulator) SetWaveform(w oscillator.Waveform) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %d", oscillator.ErrUnknownWaveform, int(w))
	}

	r.carrier.SetWaveform(w)

	return nil
}

// Reset restarts the carrier at phase 0.
func (r *RingModulator) Reset() {
	r.carrier.SetPhase(0)
}

// Process processes one sample through the ring modulator.
func (r *RingModulator) Process(sample float32) float32 {
	c := r.carrier.NextSample()
	return blend(sample, sample*c, r.mix)
}

// ProcessSample is an alias for Process.
func (r *RingModulator) ProcessSample(sample float32) float32 {
	return r.Process(sample)
}

// ProcessInPlace applies ring modulation to buf in place.
func (r *RingModulator) ProcessInPlace(buf []float32) {
	for i := range buf {
		buf[i] = r.Process(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (r *RingModulator) SampleRate() float64 { return r.sampleRate }

// CarrierHz returns the carrier oscillator frequency in Hz.
func (r *RingModulator) CarrierHz() float64 { return r.carrierHz }

// Mix returns the dry/wet mix in [0, 1].
func (r *RingModulator) Mix() float64 { return float64(r.mix) }

// Waveform returns the carrier shape.
func (r *RingModulator) Waveform() oscillator.Waveform { return r.carrier.Waveform() }

// retune sets the carrier without validation; callers pass positive,
// finite frequencies.
func (r *RingModulator) retune(hz float32) {
	r.carrierHz = float64(hz)
	r.carrier.SetFrequency(hz)
}

// blend mixes dry and wet and flushes non-finite results to 0.
func blend(dry, wet, mix float32) float32 {
	out := dry*(1-mix) + wet*mix
	if !core.IsFinite(out) {
		return 0
	}

	return out
}

func validateSampleRate(sampleRate float64) error {
	if !core.IsFinitePositive(sampleRate) {
		return fmt.Errorf("ring modulator sample rate must be > 0 and finite: %f", sampleRate)
	}

	return nil
}

func validateCarrierHz(carrierHz float64) error {
	if !core.IsFinitePositive(carrierHz) {
		return fmt.Errorf("ring modulator carrier frequency must be > 0 and finite: %f", carrierHz)
	}

	return nil
}

func validateMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("ring modulator mix must be in [0, 1]: %f", mix)
	}

	return nil
}
