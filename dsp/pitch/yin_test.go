package pitch

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ringtrack/internal/testutil"
)

func feedAll(e Estimator, samples []float32) {
	for _, x := range samples {
		e.FeedSample(x)
	}
}

func mustDetector(t testing.TB, sampleRate float64, opts ...DetectorOption) *Detector {
	t.Helper()
	d, err := NewDetector(sampleRate, opts...)
	if err != nil {
		t.Fatalf("NewDetector(%g): %v", sampleRate, err)
	}
	return d
}

func TestDetectorGeometry(t *testing.T) {
	tests := []struct {
		sr         float64
		windowSize int
		hopSize    int
	}{
		{sr: 44100, windowSize: 1470, hopSize: 133},
		{sr: 48000, windowSize: 1600, hopSize: 144},
		{sr: 22050, windowSize: 736, hopSize: 67},
		{sr: 0, windowSize: 34, hopSize: 3},
		{sr: math.NaN(), windowSize: 34, hopSize: 3},
	}

	for _, tt := range tests {
		d := mustDetector(t, tt.sr)
		if d.WindowSize() != tt.windowSize || d.HopSize() != tt.hopSize {
			t.Fatalf("sr=%g: window=%d hop=%d, want %d/%d",
				tt.sr, d.WindowSize(), d.HopSize(), tt.windowSize, tt.hopSize)
		}
	}
}

func TestDetectorDetectsSine(t *testing.T) {
	tests := []struct {
		name string
		hz   float64
		sr   float64
	}{
		{name: "A4", hz: 440, sr: 44100},
		{name: "A3", hz: 220, sr: 44100},
		{name: "E2", hz: 82.4, sr: 44100},
		{name: "A5@48k", hz: 880, sr: 48000},
		{name: "A4@96k", hz: 440, sr: 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDetector(t, tt.sr)
			feedAll(d, testutil.DeterministicSine32(tt.hz, tt.sr, 0.8, int(tt.sr)))

			res := d.Result()
			testutil.RequireWithinRel(t, "frequency", float64(res.Frequency), tt.hz, 0.01)
			if res.Confidence <= 0.5 {
				t.Fatalf("confidence=%g want > 0.5", res.Confidence)
			}
		})
	}
}

func TestDetectorDirectKernelMatchesFFT(t *testing.T) {
	const sr = 44100.0
	in := testutil.HarmonicComplex32(196, sr, 0.3, 3000)

	fast := mustDetector(t, sr)
	slow := mustDetector(t, sr, WithDifference(DifferenceDirect))
	if fast.Method() != DifferenceFFT || slow.Method() != DifferenceDirect {
		t.Fatalf("methods=%v/%v", fast.Method(), slow.Method())
	}

	for _, x := range in {
		ranFast := fast.feed(x)
		ranSlow := slow.feed(x)
		if ranFast != ranSlow {
			t.Fatal("analysis passes out of step")
		}
		if !ranFast {
			continue
		}
		a, b := fast.Result(), slow.Result()
		if math.Abs(float64(a.Frequency-b.Frequency)) > 1e-3*float64(b.Frequency)+1e-6 {
			t.Fatalf("frequency fft=%g direct=%g", a.Frequency, b.Frequency)
		}
		if math.Abs(float64(a.Confidence-b.Confidence)) > 1e-4 {
			t.Fatalf("confidence fft=%g direct=%g", a.Confidence, b.Confidence)
		}
	}
}

func TestDetectorSilence(t *testing.T) {
	d := mustDetector(t, 44100)
	feedAll(d, testutil.Silence32(44100))

	if got := d.Result(); got != (Result{}) {
		t.Fatalf("silence result=%+v want zero", got)
	}
}

func TestDetectorRejectsSubsonic(t *testing.T) {
	d := mustDetector(t, 44100)
	feedAll(d, testutil.DeterministicSine32(10, 44100, 0.8, 44100))

	if got := d.Result(); got.Frequency != 0 {
		t.Fatalf("10 Hz result=%+v want no pitch", got)
	}
}

func TestDetectorPrepareResets(t *testing.T) {
	d := mustDetector(t, 44100)
	feedAll(d, testutil.DeterministicSine32(440, 44100, 0.8, 4410))
	if d.Result().Frequency == 0 {
		t.Fatal("expected a pitch before Prepare")
	}

	d.Prepare(48000)
	if got := d.Result(); got != (Result{}) {
		t.Fatalf("result after Prepare=%+v want zero", got)
	}
	if d.SampleRate() != 48000 {
		t.Fatalf("sample rate=%g", d.SampleRate())
	}

	// The window must refill before the next estimate.
	feedAll(d, testutil.DeterministicSine32(440, 48000, 0.8, d.WindowSize()-1))
	if got := d.Result(); got != (Result{}) {
		t.Fatalf("result before refill=%+v want zero", got)
	}
}

func TestDetectorResultRanges(t *testing.T) {
	signals := map[string][]float32{
		"noise":    testutil.DeterministicNoise32(7, 0.5, 22050),
		"sine":     testutil.DeterministicSine32(330, 44100, 0.5, 22050),
		"harmonic": testutil.HarmonicComplex32(110, 44100, 0.2, 22050),
		"silence":  testutil.Silence32(4096),
	}

	for name, in := range signals {
		t.Run(name, func(t *testing.T) {
			d := mustDetector(t, 44100)
			for _, x := range in {
				if !d.feed(x) {
					continue
				}
				r := d.Result()
				if r.Confidence < 0 || r.Confidence > 1 {
					t.Fatalf("confidence %g out of [0,1]", r.Confidence)
				}
				if r.Frequency != 0 && (r.Frequency < 20 || r.Frequency > 5000) {
					t.Fatalf("frequency %g out of range", r.Frequency)
				}
				if r.Frequency == 0 && r.Confidence != 0 {
					t.Fatalf("unvoiced result with confidence %g", r.Confidence)
				}
			}
		})
	}
}

func TestDetectorFirstEstimateLatency(t *testing.T) {
	d := mustDetector(t, 44100)
	in := testutil.DeterministicSine32(440, 44100, 0.8, 44100)

	first := -1
	for i, x := range in {
		d.FeedSample(x)
		if d.Result().Frequency > 0 {
			first = i + 1
			break
		}
	}

	if first < 0 {
		t.Fatal("no estimate within one second")
	}
	if limit := d.WindowSize() + d.HopSize(); first > limit {
		t.Fatalf("first estimate after %d samples, want <= %d", first, limit)
	}
}

func TestDetectorTracksSweep(t *testing.T) {
	const (
		sr      = 44100.0
		startHz = 200.0
		endHz   = 800.0
		seconds = 2.0
	)

	n := int(sr * seconds)
	inst := make([]float64, n)
	in := make([]float32, n)
	phase := 0.0
	for i := range in {
		f := startHz + (endHz-startHz)*float64(i)/float64(n)
		inst[i] = f
		in[i] = float32(0.7 * math.Sin(phase))
		phase += 2 * math.Pi * f / sr
	}

	d := mustDetector(t, sr)
	var total, good int
	for i, x := range in {
		if !d.feed(x) {
			continue
		}
		total++
		want := inst[i-d.WindowSize()/2]
		got := float64(d.Result().Frequency)
		if math.Abs(got-want)/want < 0.03 {
			good++
		}
	}

	if total == 0 || float64(good)/float64(total) < 0.9 {
		t.Fatalf("tracked %d of %d passes within 3%%", good, total)
	}
}

func TestDetectorHarmonicComplexLowLevel(t *testing.T) {
	d := mustDetector(t, 44100)
	feedAll(d, testutil.HarmonicComplex32(82.4, 44100, 0.15, 44100))

	res := d.Result()
	if res.Frequency < 40 || res.Frequency > 200 {
		t.Fatalf("frequency=%g want within [40, 200]", res.Frequency)
	}
	if res.Confidence <= 0 {
		t.Fatalf("confidence=%g want > 0", res.Confidence)
	}
}

func TestDetectorFallbackPolicies(t *testing.T) {
	noise := testutil.DeterministicNoise32(42, 0.5, 22050)

	strict := mustDetector(t, 44100, WithFallback(FallbackNone))
	loose := mustDetector(t, 44100)

	for _, x := range noise {
		ranStrict := strict.feed(x)
		ranLoose := loose.feed(x)
		if ranStrict {
			if got := strict.Result(); got != (Result{}) {
				t.Fatalf("FallbackNone on noise reported %+v", got)
			}
		}
		if ranLoose {
			if got := loose.Result(); got.Confidence >= 0.5 {
				t.Fatalf("global-minimum fallback on noise reported confidence %g", got.Confidence)
			}
		}
	}
}

func TestDetectorOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  DetectorOption
		want error
	}{
		{name: "threshold zero", opt: WithThreshold(0), want: ErrInvalidThreshold},
		{name: "threshold one", opt: WithThreshold(1), want: ErrInvalidThreshold},
		{name: "threshold NaN", opt: WithThreshold(math.NaN()), want: ErrInvalidThreshold},
		{name: "inverted range", opt: WithFrequencyRange(500, 50), want: ErrInvalidRange},
		{name: "zero low", opt: WithFrequencyRange(0, 50), want: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDetector(44100, tt.opt)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v want %v", err, tt.want)
			}
		})
	}

	if _, err := NewDetector(44100, WithFallback(FallbackPolicy(7))); err == nil {
		t.Fatal("expected error for unknown fallback policy")
	}
	if _, err := NewDetector(44100, WithDifference(DifferenceMethod(7))); err == nil {
		t.Fatal("expected error for unknown difference method")
	}
	if _, err := NewDetector(44100, nil, WithThreshold(0.2)); err != nil {
		t.Fatalf("nil option: %v", err)
	}
}

func TestDetectorFrequencyRange(t *testing.T) {
	d := mustDetector(t, 44100, WithFrequencyRange(20, 300))
	feedAll(d, testutil.DeterministicSine32(440, 44100, 0.8, 8192))
	if got := d.Result(); got.Frequency != 0 {
		t.Fatalf("440 Hz outside [20, 300] reported %+v", got)
	}

	feedAll(d, testutil.DeterministicSine32(220, 44100, 0.8, 8192))
	testutil.RequireWithinRel(t, "frequency", float64(d.Result().Frequency), 220, 0.01)
}

func TestParabolicInterpolate(t *testing.T) {
	// Parabola (x-10.3)^2 sampled at 9, 10, 11.
	c := make([]float64, 20)
	for i := range c {
		x := float64(i) - 10.3
		c[i] = x * x
	}
	if got := parabolicInterpolate(c, 10); math.Abs(got-10.3) > 1e-9 {
		t.Fatalf("vertex=%g want 10.3", got)
	}
	if got := parabolicInterpolate(c, 0); got != 0 {
		t.Fatalf("edge lag refined to %g", got)
	}
	if got := parabolicInterpolate(c, 19); got != 19 {
		t.Fatalf("edge lag refined to %g", got)
	}

	flat := []float64{1, 1, 1, 1}
	if got := parabolicInterpolate(flat, 2); got != 2 {
		t.Fatalf("flat neighbourhood refined to %g", got)
	}
}

func TestCumulativeMeanNormalize(t *testing.T) {
	diff := []float64{0, 2, 4, 6}
	cmndf := make([]float64, len(diff))
	cumulativeMeanNormalize(diff, cmndf)

	want := []float64{1, 1, 4 * 2 / 6.0, 6 * 3 / 12.0}
	for i := range want {
		if math.Abs(cmndf[i]-want[i]) > 1e-12 {
			t.Fatalf("cmndf[%d]=%g want %g", i, cmndf[i], want[i])
		}
	}

	clear(diff)
	cumulativeMeanNormalize(diff, cmndf)
	for i, v := range cmndf {
		if v != 1 {
			t.Fatalf("silent cmndf[%d]=%g want 1", i, v)
		}
	}
}

func BenchmarkDetectorFeedSample(b *testing.B) {
	for _, m := range []DifferenceMethod{DifferenceFFT, DifferenceDirect} {
		b.Run(m.String(), func(b *testing.B) {
			d := mustDetector(b, 44100, WithDifference(m))
			in := testutil.DeterministicSine32(440, 44100, 0.8, 4096)

			b.ReportAllocs()
			for b.Loop() {
				for _, x := range in {
					d.FeedSample(x)
				}
			}
		})
	}
}
