package buffer

// Window is a fixed-capacity circular buffer of float32 samples.
//
// It always holds the most recent Cap() samples; the write position wraps
// modulo the capacity. Window is not safe for concurrent use.
type Window struct {
	samples []float32
	pos     int
	filled  bool
}

// NewWindow returns a zero-filled Window with the given capacity.
func NewWindow(capacity int) *Window {
	w := &Window{}
	w.Resize(capacity)
	return w
}

// Resize sets the capacity, reusing the backing array when possible, and
// clears the contents.
func (w *Window) Resize(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	if cap(w.samples) >= capacity {
		w.samples = w.samples[:capacity]
	} else {
		w.samples = make([]float32, capacity)
	}
	w.Reset()
}

// Reset zeroes the samples and rewinds the write position.
func (w *Window) Reset() {
	clear(w.samples)
	w.pos = 0
	w.filled = false
}

// Write appends one sample, overwriting the oldest one. It reports whether
// the write completed a full pass over the buffer.
func (w *Window) Write(x float32) bool {
	if len(w.samples) == 0 {
		return false
	}
	w.samples[w.pos] = x
	w.pos++
	if w.pos == len(w.samples) {
		w.pos = 0
		w.filled = true
		return true
	}
	return false
}

// Filled reports whether the window has been completely written at least once.
func (w *Window) Filled() bool {
	return w.filled
}

// Cap returns the window capacity in samples.
func (w *Window) Cap() int {
	return len(w.samples)
}

// Pos returns the next write index.
func (w *Window) Pos() int {
	return w.pos
}

// Linearize copies the window into dst, oldest sample first, and returns the
// number of copied samples (min(len(dst), Cap())). When dst is shorter than
// the window the newest samples are dropped.
func (w *Window) Linearize(dst []float64) int {
	n := min(len(dst), len(w.samples))
	head := w.samples[w.pos:]
	i := 0
	for ; i < n && i < len(head); i++ {
		dst[i] = float64(head[i])
	}
	for j := 0; i < n; i, j = i+1, j+1 {
		dst[i] = float64(w.samples[j])
	}
	return n
}
