package pitch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ringtrack/dsp/buffer"
	"github.com/cwbudde/algo-ringtrack/dsp/core"
)

const (
	defaultThreshold = 0.15
	defaultMinFreq   = 20.0
	defaultMaxFreq   = 5000.0

	// lowestTrackedHz sets the window: two periods of this frequency.
	lowestTrackedHz = 60.0
	hopSeconds      = 0.003

	// minTau skips the first lags, where the CMNDF of any signal is small.
	minTau = 2
)

// FallbackPolicy decides what happens when no CMNDF value drops below the
// threshold.
type FallbackPolicy int

const (
	// FallbackGlobalMinimum reports the lag of the smallest CMNDF value below
	// 1. Confidence is then low but non-zero and downstream gating decides.
	FallbackGlobalMinimum FallbackPolicy = iota
	// FallbackNone reports no pitch.
	FallbackNone
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackGlobalMinimum:
		return "global-minimum"
	case FallbackNone:
		return "none"
	default:
		return fmt.Sprintf("FallbackPolicy(%d)", int(p))
	}
}

// DetectorOption mutates detector construction parameters.
type DetectorOption func(*detectorConfig) error

type detectorConfig struct {
	threshold float64
	fallback  FallbackPolicy
	method    DifferenceMethod
	minFreq   float64
	maxFreq   float64
}

func defaultDetectorConfig() detectorConfig {
	return detectorConfig{
		threshold: defaultThreshold,
		fallback:  FallbackGlobalMinimum,
		method:    DifferenceFFT,
		minFreq:   defaultMinFreq,
		maxFreq:   defaultMaxFreq,
	}
}

// WithThreshold sets the absolute CMNDF threshold. Lower values demand a
// more periodic signal before a dip is accepted.
func WithThreshold(t float64) DetectorOption {
	return func(cfg *detectorConfig) error {
		if err := validateThreshold(t); err != nil {
			return err
		}
		cfg.threshold = t
		return nil
	}
}

// WithFallback selects the no-dip policy.
func WithFallback(p FallbackPolicy) DetectorOption {
	return func(cfg *detectorConfig) error {
		if p != FallbackGlobalMinimum && p != FallbackNone {
			return fmt.Errorf("pitch: unknown fallback policy: %d", int(p))
		}
		cfg.fallback = p
		return nil
	}
}

// WithDifference selects the difference-function kernel.
func WithDifference(m DifferenceMethod) DetectorOption {
	return func(cfg *detectorConfig) error {
		if m != DifferenceFFT && m != DifferenceDirect {
			return fmt.Errorf("pitch: unknown difference method: %d", int(m))
		}
		cfg.method = m
		return nil
	}
}

// WithFrequencyRange sets the accepted estimate range [lo, hi] in Hz.
// Estimates outside it are reported as no pitch.
func WithFrequencyRange(lo, hi float64) DetectorOption {
	return func(cfg *detectorConfig) error {
		if err := validateRange(lo, hi); err != nil {
			return err
		}
		cfg.minFreq = lo
		cfg.maxFreq = hi
		return nil
	}
}

// Detector is a synchronous YIN pitch detector.
//
// FeedSample appends to a circular window of 2*ceil(sr/60) samples and, once
// the window is full, runs an analysis pass every ceil(sr*0.003) samples on
// the calling goroutine. Buffers are allocated in Prepare; analysis does not
// allocate. A Detector is not safe for concurrent use.
type Detector struct {
	cfg detectorConfig

	sampleRate float64
	halfWindow int
	windowSize int
	hopSize    int
	hopCounter int

	window *buffer.Window
	linear []float64
	diff   []float64
	cmndf  []float64

	kernel differenceKernel
	result Result
}

// NewDetector creates a detector prepared for sampleRate.
func NewDetector(sampleRate float64, opts ...DetectorOption) (*Detector, error) {
	cfg := defaultDetectorConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	d := &Detector{cfg: cfg, window: buffer.NewWindow(0)}
	d.Prepare(sampleRate)
	return d, nil
}

// Prepare sizes the analysis buffers for sampleRate and clears all state,
// including the last result. Rates below core.MinSampleRate, and non-finite
// rates, are clamped to core.MinSampleRate.
func (d *Detector) Prepare(sampleRate float64) {
	sr := core.SanitizeSampleRate(sampleRate)
	d.sampleRate = sr
	d.halfWindow = int(math.Ceil(sr / lowestTrackedHz))
	d.windowSize = 2 * d.halfWindow
	d.hopSize = int(math.Ceil(sr * hopSeconds))

	d.window.Resize(d.windowSize)
	d.linear = core.EnsureLen(d.linear, d.windowSize)
	d.diff = core.EnsureLen(d.diff, d.halfWindow)
	d.cmndf = core.EnsureLen(d.cmndf, d.halfWindow)
	clear(d.linear)
	clear(d.diff)
	clear(d.cmndf)

	d.kernel = directKernel{}
	if d.cfg.method == DifferenceFFT {
		if k, err := newFFTKernel(d.windowSize); err == nil {
			d.kernel = k
		}
	}

	d.hopCounter = 0
	d.result = Result{}
}

// FeedSample appends x to the analysis window and analyses when a hop has
// elapsed on a full window.
func (d *Detector) FeedSample(x float32) {
	d.feed(x)
}

// feed is FeedSample reporting whether an analysis pass ran.
func (d *Detector) feed(x float32) bool {
	d.window.Write(x)
	d.hopCounter++

	if !d.window.Filled() || d.hopCounter < d.hopSize {
		return false
	}
	d.hopCounter = 0
	d.result = d.analyse()
	return true
}

// Result returns the estimate of the most recent analysis pass, or the zero
// Result before the first pass.
func (d *Detector) Result() Result {
	return d.result
}

// SampleRate returns the prepared sample rate in Hz.
func (d *Detector) SampleRate() float64 { return d.sampleRate }

// WindowSize returns the analysis window length in samples.
func (d *Detector) WindowSize() int { return d.windowSize }

// HopSize returns the number of samples between analysis passes.
func (d *Detector) HopSize() int { return d.hopSize }

// Method returns the difference kernel in use. It reports DifferenceDirect
// when FFT planning failed.
func (d *Detector) Method() DifferenceMethod {
	if _, ok := d.kernel.(*fftKernel); ok {
		return DifferenceFFT
	}
	return DifferenceDirect
}

func (d *Detector) analyse() Result {
	d.window.Linearize(d.linear)

	if err := d.kernel.compute(d.linear, d.diff); err != nil {
		if err := (directKernel{}).compute(d.linear, d.diff); err != nil {
			return Result{}
		}
	}

	cumulativeMeanNormalize(d.diff, d.cmndf)

	tau := d.pickTau()
	if tau == 0 {
		return Result{}
	}

	better := parabolicInterpolate(d.cmndf, tau)
	if better < 1 {
		return Result{}
	}

	freq := d.sampleRate / better
	if !(freq >= d.cfg.minFreq && freq <= d.cfg.maxFreq) {
		return Result{}
	}

	conf := core.Clamp(1-d.cmndf[tau], 0, 1)
	return Result{Frequency: float32(freq), Confidence: float32(conf)}
}

// pickTau returns the first lag whose CMNDF drops below the threshold,
// advanced to the bottom of that dip, or the fallback lag. Zero means none.
func (d *Detector) pickTau() int {
	c := d.cmndf
	n := len(c)

	for tau := minTau; tau < n; tau++ {
		if c[tau] < d.cfg.threshold {
			for tau+1 < n && c[tau+1] < c[tau] {
				tau++
			}
			return tau
		}
	}

	if d.cfg.fallback == FallbackNone {
		return 0
	}

	best, minVal := 0, 1.0
	for tau := minTau; tau < n; tau++ {
		if c[tau] < minVal {
			minVal = c[tau]
			best = tau
		}
	}
	return best
}

// cumulativeMeanNormalize writes cmndf[tau] = d(tau)*tau / sum_{j=1..tau} d(j)
// with cmndf[0] = 1. A non-positive running sum (silence) yields 1.
func cumulativeMeanNormalize(diff, cmndf []float64) {
	if len(cmndf) == 0 {
		return
	}
	cmndf[0] = 1
	var sum float64
	for tau := 1; tau < len(diff); tau++ {
		sum += diff[tau]
		if sum > 0 {
			cmndf[tau] = diff[tau] * float64(tau) / sum
		} else {
			cmndf[tau] = 1
		}
	}
}

// parabolicInterpolate refines tau to the vertex of the parabola through
// c[tau-1], c[tau] and c[tau+1]. Edge lags are returned unchanged.
func parabolicInterpolate(c []float64, tau int) float64 {
	better := float64(tau)
	if tau <= 0 || tau >= len(c)-1 {
		return better
	}
	s0, s1, s2 := c[tau-1], c[tau], c[tau+1]
	denom := 2 * (s0 - 2*s1 + s2)
	if math.Abs(denom) > 1e-12 {
		better += (s0 - s2) / denom
	}
	return better
}
