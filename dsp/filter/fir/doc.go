// Package fir provides a direct-form FIR filter runtime and the fixed
// half-band decimator that feeds the pitch detector.
//
// A [Filter] applies a set of pre-computed coefficients to an input stream
// using a circular-buffer delay line. It is meant for short filters; the
// decimator uses seven taps.
package fir
