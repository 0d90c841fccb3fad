package pitch

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
)

// DifferenceMethod selects how the YIN difference function is computed.
type DifferenceMethod int

const (
	// DifferenceFFT derives d(tau) from an FFT cross-correlation and running
	// power sums in O(N log N).
	DifferenceFFT DifferenceMethod = iota
	// DifferenceDirect sums squared differences for every lag in O(N^2).
	DifferenceDirect
)

func (m DifferenceMethod) String() string {
	switch m {
	case DifferenceFFT:
		return "fft"
	case DifferenceDirect:
		return "direct"
	default:
		return fmt.Sprintf("DifferenceMethod(%d)", int(m))
	}
}

// differenceKernel fills diff with
//
//	d(tau) = sum_{j<n} (x[j] - x[j+tau])^2,  n = len(diff), len(x) = 2n.
type differenceKernel interface {
	compute(x, diff []float64) error
}

type directKernel struct{}

func (directKernel) compute(x, diff []float64) error {
	n := len(diff)
	if len(x) < 2*n {
		return fmt.Errorf("pitch: window %d shorter than 2*%d", len(x), n)
	}
	if n == 0 {
		return nil
	}

	diff[0] = 0
	for tau := 1; tau < n; tau++ {
		d := floats.Distance(x[:n], x[tau:tau+n], 2)
		diff[tau] = d * d
	}
	return nil
}

// fftKernel expands d(tau) as p0 + p(tau) - 2*r(tau), where p are the power
// sums over the two halves being compared and r is the cross-correlation of
// the first half with the whole window.
type fftKernel struct {
	plan *algofft.Plan[complex128]
	a    []complex128
	b    []complex128
	sq   []float64
}

func newFFTKernel(windowSize int) (*fftKernel, error) {
	size := core.NextPowerOf2(2 * windowSize)
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("pitch: failed to create FFT plan of size %d: %w", size, err)
	}
	return &fftKernel{
		plan: plan,
		a:    make([]complex128, size),
		b:    make([]complex128, size),
		sq:   make([]float64, windowSize),
	}, nil
}

func (k *fftKernel) compute(x, diff []float64) error {
	n := len(diff)
	if len(x) < 2*n || 2*n > len(k.sq) {
		return fmt.Errorf("pitch: window %d does not fit kernel of %d", len(x), len(k.sq))
	}
	if n == 0 {
		return nil
	}
	w := x[:2*n]

	clear(k.a)
	clear(k.b)
	for i := range n {
		k.a[i] = complex(w[i], 0)
	}
	for i, v := range w {
		k.b[i] = complex(v, 0)
	}

	if err := k.plan.Forward(k.a, k.a); err != nil {
		return fmt.Errorf("pitch: forward FFT failed: %w", err)
	}
	if err := k.plan.Forward(k.b, k.b); err != nil {
		return fmt.Errorf("pitch: forward FFT failed: %w", err)
	}

	// conj(A)*B is the spectrum of r(tau) = sum_j a[j]*b[j+tau].
	for i, av := range k.a {
		ar, ai := real(av), imag(av)
		br, bi := real(k.b[i]), imag(k.b[i])
		k.a[i] = complex(ar*br+ai*bi, ar*bi-ai*br)
	}

	if err := k.plan.Inverse(k.a, k.a); err != nil {
		return fmt.Errorf("pitch: inverse FFT failed: %w", err)
	}

	sq := k.sq[:2*n]
	vecmath.MulBlock(sq, w, w)

	p0 := floats.Sum(sq[:n])
	pTau := p0

	diff[0] = 0
	for tau := 1; tau < n; tau++ {
		pTau += sq[n+tau-1] - sq[tau-1]
		d := p0 + pTau - 2*real(k.a[tau])
		if d < 0 {
			d = 0
		}
		diff[tau] = d
	}
	return nil
}
