package core

import "math"

// MinSampleRate is the smallest sample rate processors accept. Prepare
// methods clamp anything lower (or non-finite) to this value instead of
// failing.
const MinSampleRate = 1000.0

// Float is the set of sample types processors operate on.
type Float interface {
	~float32 | ~float64
}

// Clamp limits value to the inclusive range [min, max].
func Clamp[T Float](value, min, max T) T {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite[T Float](x T) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFinitePositive reports whether x is finite and strictly positive.
func IsFinitePositive[T Float](x T) bool {
	return x > 0 && IsFinite(x)
}

// FiniteOr returns x when it is finite and fallback otherwise.
func FiniteOr[T Float](x, fallback T) T {
	if IsFinite(x) {
		return x
	}

	return fallback
}

// SanitizeSampleRate returns sampleRate, or MinSampleRate when sampleRate is
// non-finite or below MinSampleRate.
func SanitizeSampleRate(sampleRate float64) float64 {
	if !IsFinite(sampleRate) || sampleRate < MinSampleRate {
		return MinSampleRate
	}

	return sampleRate
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// This can reduce denormal-related CPU slowdowns in hot DSP loops.
func FlushDenormals[T Float](x T) T {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// NextPowerOf2 returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
