package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine32 generates a float32 sine wave starting at phase 0. The
// phase is accumulated in float64.
func DeterministicSine32(freqHz, sampleRate, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	step := 2 * math.Pi * freqHz / sampleRate
	phase := 0.0
	for i := range out {
		out[i] = float32(amplitude * math.Sin(phase))
		phase += step
	}
	return out
}

// HarmonicComplex32 generates five harmonics of freqHz with decaying
// weights (1, 0.8, 0.6, 0.5, 0.3), scaled by amplitude. Its waveform has
// several deep CMNDF dips, which makes it a good stress signal for YIN.
func HarmonicComplex32(freqHz, sampleRate, amplitude float64, length int) []float32 {
	weights := [...]float64{1, 0.8, 0.6, 0.5, 0.3}
	out := make([]float32, length)
	step := 2 * math.Pi * freqHz / sampleRate
	phase := 0.0
	for i := range out {
		s := 0.0
		for h, w := range weights {
			s += w * math.Sin(float64(h+1)*phase)
		}
		out[i] = float32(s * amplitude)
		phase += step
	}
	return out
}

// DeterministicNoise32 generates white noise with a fixed seed for reproducibility.
func DeterministicNoise32(seed int64, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Silence32 returns length zero samples.
func Silence32(length int) []float32 {
	return make([]float32, length)
}

// ZeroCrossings counts sign changes between consecutive samples, treating 0
// as positive.
func ZeroCrossings(buf []float32) int {
	crossings := 0
	for i := 1; i < len(buf); i++ {
		if (buf[i-1] >= 0) != (buf[i] >= 0) {
			crossings++
		}
	}
	return crossings
}
