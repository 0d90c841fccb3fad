package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
	"github.com/cwbudde/algo-ringtrack/dsp/pitch"
)

const (
	defaultRampSeconds = 0.05
	// wetGainAlpha is the per-sample coefficient of the confidence fade.
	wetGainAlpha = 0.01
)

// TrackerOption mutates tracking ring modulator construction parameters.
type TrackerOption func(*trackerConfig) error

type trackerConfig struct {
	estimator   pitch.Estimator
	rampSeconds float64
}

// WithEstimator replaces the default synchronous pitch.Detector, for
// example with a started pitch.AsyncDetector. The tracker calls its
// Prepare.
func WithEstimator(e pitch.Estimator) TrackerOption {
	return func(cfg *trackerConfig) error {
		if e == nil {
			return fmt.Errorf("tracking ring modulator estimator must not be nil")
		}
		cfg.estimator = e
		return nil
	}
}

// WithRampSeconds sets the linear ramp time for mix and carrier-rate
// parameter changes.
func WithRampSeconds(s float64) TrackerOption {
	return func(cfg *trackerConfig) error {
		if s < 0 || s > 10 || math.IsNaN(s) {
			return fmt.Errorf("tracking ring modulator ramp must be in [0, 10] seconds: %f", s)
		}
		cfg.rampSeconds = s
		return nil
	}
}

// TrackingRingModulator drives a RingModulator carrier from the pitch of its
// own input.
//
// Per sample the input feeds a pitch.Estimator; the estimate passes a
// pitch.Smoother and, in tracking mode, the smoothed pitch times the rate
// multiplier becomes the carrier frequency. In manual mode the manual rate
// is used instead. The wet signal fades in while estimates pass the
// smoother's confidence gate and out while they do not. Parameters are read
// from a shared *Params at the start of every block.
//
// Process methods must be called from a single goroutine. Readout may be
// polled from any goroutine.
type TrackingRingModulator struct {
	params    *Params
	estimator pitch.Estimator
	smoother  *pitch.Smoother
	ring      *RingModulator
	readout   pitch.Readout

	sampleRate  float64
	rampSeconds float64

	mix        linearRamp
	rateMult   linearRamp
	manualRate linearRamp
	mode       Mode
	wetGain    float32

	last      pitch.Result
	carrierHz float32
}

// NewTrackingRingModulator creates a tracker for sampleRate reading params.
// A nil params uses a private default set.
func NewTrackingRingModulator(sampleRate float64, params *Params, opts ...TrackerOption) (*TrackingRingModulator, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	cfg := trackerConfig{rampSeconds: defaultRampSeconds}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.estimator == nil {
		det, err := pitch.NewDetector(sampleRate)
		if err != nil {
			return nil, err
		}
		cfg.estimator = det
	}
	if params == nil {
		params = NewParams()
	}

	ring, err := NewRingModulator(sampleRate, WithRingModWaveform(params.Waveform()))
	if err != nil {
		return nil, err
	}

	t := &TrackingRingModulator{
		params:      params,
		estimator:   cfg.estimator,
		smoother:    pitch.NewSmoother(sampleRate),
		ring:        ring,
		rampSeconds: cfg.rampSeconds,
	}
	t.Prepare(sampleRate)

	return t, nil
}

// Prepare resets all state for sampleRate: the estimator, the smoother, the
// carrier phase, the ramps and the published readout.
func (t *TrackingRingModulator) Prepare(sampleRate float64) {
	sr := core.SanitizeSampleRate(sampleRate)
	t.sampleRate = sr

	t.estimator.Prepare(sr)
	t.smoother.Prepare(sr)
	t.ring.prepare(sr)

	n := int(math.Round(t.rampSeconds * sr))
	t.mix.setLength(n)
	t.rateMult.setLength(n)
	t.manualRate.setLength(n)
	t.mix.reset(t.params.Mix())
	t.rateMult.reset(t.params.RateMultiplier())
	t.manualRate.reset(t.params.ManualRate())

	t.mode = t.params.Mode()
	t.wetGain = 0
	if t.mode == ModeManual {
		t.wetGain = 1
	}

	t.last = pitch.Result{}
	t.carrierHz = 0
	t.readout.Reset()
}

// ProcessInPlace tracks and modulates a mono block.
func (t *TrackingRingModulator) ProcessInPlace(buf []float32) {
	t.pull()
	for i, x := range buf {
		c, g := t.step(x)
		m := t.mix.next()
		buf[i] = blend(x, x*c*g, m)
	}
	t.publish()
}

// ProcessStereoInPlace tracks the mid signal of left and right and
// modulates both channels with the same carrier. Only the common length is
// processed.
func (t *TrackingRingModulator) ProcessStereoInPlace(left, right []float32) {
	t.pull()
	n := min(len(left), len(right))
	for i := range n {
		l, r := left[i], right[i]
		c, g := t.step(0.5 * (l + r))
		m := t.mix.next()
		left[i] = blend(l, l*c*g, m)
		right[i] = blend(r, r*c*g, m)
	}
	t.publish()
}

// Readout exposes the smoothed pitch and the raw confidence of the latest
// block for lock-free polling.
func (t *TrackingRingModulator) Readout() *pitch.Readout {
	return &t.readout
}

// CarrierHz returns the carrier frequency of the last processed sample.
func (t *TrackingRingModulator) CarrierHz() float32 {
	return t.carrierHz
}

// WetGain returns the current confidence fade in [0, 1].
func (t *TrackingRingModulator) WetGain() float32 {
	return t.wetGain
}

// SampleRate returns the prepared sample rate in Hz.
func (t *TrackingRingModulator) SampleRate() float64 {
	return t.sampleRate
}

// Params returns the parameter set the tracker reads.
func (t *TrackingRingModulator) Params() *Params {
	return t.params
}

// pull copies parameters into the per-block state.
func (t *TrackingRingModulator) pull() {
	p := t.params
	t.mix.setTarget(p.Mix())
	t.rateMult.setTarget(p.RateMultiplier())
	t.manualRate.setTarget(p.ManualRate())
	t.mode = p.Mode()
	t.smoother.SetSmoothingAmount(p.Smoothing())
	t.smoother.SetSensitivity(p.Sensitivity())
	t.ring.carrier.SetWaveform(p.Waveform())
}

// step runs detection and smoothing for one mono sample and returns the
// next carrier sample and the wet gain.
func (t *TrackingRingModulator) step(x float32) (carrier, gain float32) {
	t.estimator.FeedSample(core.FiniteOr(x, 0))
	res := t.estimator.Result()
	t.last = res
	smoothed := t.smoother.Process(res.Frequency, res.Confidence)

	rate := t.rateMult.next()
	manual := t.manualRate.next()

	var hz, target float32
	if t.mode == ModeManual {
		hz = manual
		target = 1
	} else {
		hz = smoothed * rate
		if t.smoother.Accepts(res.Frequency, res.Confidence) {
			target = 1
		}
	}

	if hz > 0 && core.IsFinite(hz) {
		t.carrierHz = hz
		t.ring.retune(hz)
	}

	t.wetGain += wetGainAlpha * (target - t.wetGain)
	t.wetGain = core.FlushDenormals(t.wetGain)

	return t.ring.carrier.NextSample(), t.wetGain
}

func (t *TrackingRingModulator) publish() {
	t.readout.Store(pitch.Result{
		Frequency:  t.smoother.Output(),
		Confidence: t.last.Confidence,
	})
}
