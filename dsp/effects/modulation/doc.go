// Package modulation provides ring modulation driven by a fixed or a
// tracked carrier.
//
// Included processors:
//   - RingModulator: Carrier multiply and dry/wet blend with a selectable
//     band-limited carrier waveform.
//   - TrackingRingModulator: Pitch-following carrier built from a
//     pitch.Estimator, a pitch.Smoother and a RingModulator, configured
//     through a lock-free Params set.
package modulation
