package buffer

import (
	"sync/atomic"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
)

// SPSC is a bounded single-producer/single-consumer float32 queue.
//
// Exactly one goroutine may call Push and exactly one (possibly different)
// goroutine may call Pop/PopInto. Push never blocks or allocates: when the
// queue is full the sample is dropped and counted. The cursors are
// monotonically increasing counters; the slot index is cursor & mask.
type SPSC struct {
	buf  []float32
	mask uint64

	// head is written by the consumer only, tail by the producer only.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte

	dropped atomic.Uint64
}

// NewSPSC returns a queue holding at least capacity samples. The capacity is
// rounded up to a power of two.
func NewSPSC(capacity int) *SPSC {
	n := core.NextPowerOf2(max(capacity, 2))
	return &SPSC{
		buf:  make([]float32, n),
		mask: uint64(n - 1),
	}
}

// Push appends x. It reports false, and increments the drop counter, when
// the queue is full.
func (q *SPSC) Push(x float32) bool {
	t := q.tail.Load()
	if t-q.head.Load() > q.mask {
		q.dropped.Add(1)
		return false
	}
	q.buf[t&q.mask] = x
	q.tail.Store(t + 1)
	return true
}

// Pop removes the oldest sample.
func (q *SPSC) Pop() (float32, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return 0, false
	}
	x := q.buf[h&q.mask]
	q.head.Store(h + 1)
	return x, true
}

// PopInto moves up to len(dst) samples into dst, oldest first, and returns
// how many were moved.
func (q *SPSC) PopInto(dst []float32) int {
	h := q.head.Load()
	avail := q.tail.Load() - h
	n := min(avail, uint64(len(dst)))
	for i := range n {
		dst[i] = q.buf[(h+i)&q.mask]
	}
	q.head.Store(h + n)
	return int(n)
}

// Len returns the number of queued samples. The value is a snapshot and may
// be stale by the time it is used.
func (q *SPSC) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *SPSC) Cap() int {
	return len(q.buf)
}

// Dropped returns the number of samples rejected by Push since construction
// or the last Reset.
func (q *SPSC) Dropped() uint64 {
	return q.dropped.Load()
}

// Reset empties the queue and clears the drop counter. It must not run
// concurrently with Push or Pop.
func (q *SPSC) Reset() {
	q.head.Store(0)
	q.tail.Store(0)
	q.dropped.Store(0)
}
