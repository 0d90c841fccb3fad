// Package oscillator provides a phase-accumulator oscillator with four
// band-limited waveforms for use as a ring-modulation carrier.
//
// Sine is read from a precomputed table with linear interpolation. Triangle
// is computed in closed form. Square and Saw are naive waveforms corrected
// with polyBLEP at their discontinuities; they may overshoot [-1, 1] very
// slightly near a transition.
package oscillator
