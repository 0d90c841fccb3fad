package pitch

import (
	"math"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
)

const (
	// maxSmoothingSeconds is the time constant at smoothing amount 1.
	maxSmoothingSeconds = 0.05
	// snapOctaves is the jump beyond which the smoother follows immediately.
	snapOctaves = 0.08

	defaultSmoothingAmount = 0.5
	defaultSensitivity     = 0.5
)

// Smoother conditions raw pitch estimates into a stable carrier frequency.
//
// Estimates below the confidence threshold (1 - sensitivity) and unvoiced
// frames hold the previous output. Accepted estimates are smoothed with a
// one-pole filter on log2(frequency), so equal musical intervals converge
// equally fast; jumps larger than 0.08 octave are taken immediately.
type Smoother struct {
	sampleRate float64
	amount     float64
	threshold  float64
	alpha      float64

	logFreq  float64
	hasValue bool
}

// NewSmoother returns a smoother with amount 0.5 and sensitivity 0.5,
// prepared for sampleRate.
func NewSmoother(sampleRate float64) *Smoother {
	s := &Smoother{
		amount:    defaultSmoothingAmount,
		threshold: 1 - defaultSensitivity,
	}
	s.Prepare(sampleRate)
	return s
}

// Prepare sets the sample rate at which Process is called and forgets the
// held estimate.
func (s *Smoother) Prepare(sampleRate float64) {
	s.sampleRate = core.SanitizeSampleRate(sampleRate)
	s.logFreq = 0
	s.hasValue = false
	s.updateAlpha()
}

// SetSmoothingAmount sets the amount in [0, 1]; 0 disables smoothing and 1
// gives a 50 ms time constant.
func (s *Smoother) SetSmoothingAmount(amount float32) {
	s.amount = float64(core.Clamp(core.FiniteOr(amount, 0), 0, 1))
	s.updateAlpha()
}

// SetSensitivity sets the sensitivity in [0, 1]; estimates are accepted
// when their confidence is at least 1 - sensitivity.
func (s *Smoother) SetSensitivity(sensitivity float32) {
	s.threshold = 1 - float64(core.Clamp(core.FiniteOr(sensitivity, 0), 0, 1))
}

// Process consumes one estimate and returns the smoothed frequency in Hz,
// or 0 while no estimate has been accepted.
func (s *Smoother) Process(freq, confidence float32) float32 {
	if !s.Accepts(freq, confidence) {
		return s.Output()
	}

	target := math.Log2(float64(freq))
	if !s.hasValue {
		s.logFreq = target
		s.hasValue = true
		return float32(math.Exp2(s.logFreq))
	}

	alpha := s.alpha
	if math.Abs(target-s.logFreq) > snapOctaves {
		alpha = 1
	}
	s.logFreq += alpha * (target - s.logFreq)
	return float32(math.Exp2(s.logFreq))
}

// Accepts reports whether an estimate passes the confidence gate and would
// update the output.
func (s *Smoother) Accepts(freq, confidence float32) bool {
	return float64(confidence) >= s.threshold && freq > 0 && !math.IsInf(float64(freq), 0)
}

// Output returns the held smoothed frequency, 0 before the first accepted
// estimate.
func (s *Smoother) Output() float32 {
	if !s.hasValue {
		return 0
	}
	return float32(math.Exp2(s.logFreq))
}

// HasValue reports whether an estimate has been accepted since Prepare.
func (s *Smoother) HasValue() bool {
	return s.hasValue
}

// Alpha returns the current per-call smoothing coefficient in (0, 1].
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

func (s *Smoother) updateAlpha() {
	tau := s.amount * maxSmoothingSeconds
	if tau < 1e-6 {
		s.alpha = 1
		return
	}
	s.alpha = 1 - math.Exp(-1/(s.sampleRate*tau))
}
