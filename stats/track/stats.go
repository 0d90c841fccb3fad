// Package track summarizes a recorded pitch track.
package track

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-ringtrack/dsp/pitch"
)

// Stats holds summary statistics of a pitch track. Frequency and confidence
// fields cover voiced frames only and are 0 when there are none.
type Stats struct {
	Frames      int
	Voiced      int
	VoicedRatio float64

	MeanHz   float64
	MedianHz float64
	MinHz    float64
	MaxHz    float64

	// SpreadCents is the sample standard deviation of the voiced frames in
	// cents relative to MedianHz.
	SpreadCents float64

	MeanConfidence float64
}

// Cents returns the interval from ref to hz in cents. It returns 0 when
// either frequency is not positive.
func Cents(hz, ref float64) float64 {
	if !(hz > 0) || !(ref > 0) {
		return 0
	}
	return 1200 * math.Log2(hz/ref)
}

// Calculate summarizes results.
func Calculate(results []pitch.Result) Stats {
	s := Stats{Frames: len(results)}

	hz := make([]float64, 0, len(results))
	conf := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Voiced() {
			continue
		}
		hz = append(hz, float64(r.Frequency))
		conf = append(conf, float64(r.Confidence))
	}

	s.Voiced = len(hz)
	if s.Voiced == 0 {
		return s
	}
	s.VoicedRatio = float64(s.Voiced) / float64(s.Frames)

	s.MeanHz = stat.Mean(hz, nil)
	s.MeanConfidence = stat.Mean(conf, nil)
	s.MinHz = floats.Min(hz)
	s.MaxHz = floats.Max(hz)

	sorted := slices.Clone(hz)
	slices.Sort(sorted)
	s.MedianHz = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	if s.Voiced > 1 {
		cents := make([]float64, len(hz))
		for i, f := range hz {
			cents[i] = Cents(f, s.MedianHz)
		}
		s.SpreadCents = stat.StdDev(cents, nil)
	}

	return s
}
