package fir

// HalfbandCoefficients are the seven symmetric taps of the half-band
// low-pass used ahead of pitch analysis. They sum to 1 (unity DC gain) and
// place a zero at Nyquist; the response is -6 dB at a quarter of the input
// sample rate.
var HalfbandCoefficients = [7]float64{
	-0.03125, 0, 0.28125, 0.5, 0.28125, 0, -0.03125,
}

// HalfbandDecimator low-pass filters and downsamples by two.
//
// Every input sample enters the delay line; the convolution runs only on
// every second call, which is when ProcessSample reports true. It is
// allocation-free after construction and safe for real-time use by a single
// goroutine.
type HalfbandDecimator struct {
	fir   *Filter
	out   float32
	phase int
}

// NewHalfbandDecimator returns a decimator with a cleared delay line.
func NewHalfbandDecimator() *HalfbandDecimator {
	return &HalfbandDecimator{fir: New(HalfbandCoefficients[:])}
}

// ProcessSample pushes x and reports whether a decimated output is ready.
func (d *HalfbandDecimator) ProcessSample(x float32) bool {
	d.fir.Push(x)
	d.phase++
	if d.phase < 2 {
		return false
	}
	d.phase = 0
	d.out = d.fir.Output()
	return true
}

// Output returns the most recent decimated sample.
func (d *HalfbandDecimator) Output() float32 {
	return d.out
}

// Reset zeroes the delay line, the phase and the last output.
func (d *HalfbandDecimator) Reset() {
	d.fir.Reset()
	d.out = 0
	d.phase = 0
}

// Filter exposes the underlying FIR, e.g. to inspect its frequency response.
func (d *HalfbandDecimator) Filter() *Filter {
	return d.fir
}
