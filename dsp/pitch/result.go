package pitch

import (
	"math"
	"sync/atomic"
)

// Result is one pitch estimate. A zero Frequency means no pitch was found;
// Confidence is then 0 as well.
type Result struct {
	Frequency  float32
	Confidence float32
}

// Voiced reports whether r carries a pitch.
func (r Result) Voiced() bool {
	return r.Frequency > 0
}

// Readout publishes a Result from one goroutine to any number of readers
// without locks. Each field is stored atomically on its own; a reader may
// observe the frequency of one estimate paired with the confidence of the
// next.
type Readout struct {
	freq atomic.Uint32
	conf atomic.Uint32
}

// Store publishes r.
func (o *Readout) Store(r Result) {
	o.freq.Store(math.Float32bits(r.Frequency))
	o.conf.Store(math.Float32bits(r.Confidence))
}

// Load returns the most recently published fields.
func (o *Readout) Load() Result {
	return Result{Frequency: o.Frequency(), Confidence: o.Confidence()}
}

// Frequency returns the published frequency in Hz.
func (o *Readout) Frequency() float32 {
	return math.Float32frombits(o.freq.Load())
}

// Confidence returns the published confidence.
func (o *Readout) Confidence() float32 {
	return math.Float32frombits(o.conf.Load())
}

// Reset publishes the zero Result.
func (o *Readout) Reset() {
	o.Store(Result{})
}
