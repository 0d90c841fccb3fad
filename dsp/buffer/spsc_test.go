package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSPSCRoundsCapacity(t *testing.T) {
	assert.Equal(t, 8, NewSPSC(5).Cap())
	assert.Equal(t, 2, NewSPSC(0).Cap())
	assert.Equal(t, 65536, NewSPSC(55125).Cap())
}

func TestSPSCPreservesOrder(t *testing.T) {
	q := NewSPSC(8)
	for i := range 5 {
		require.True(t, q.Push(float32(i)))
	}
	require.Equal(t, 5, q.Len())

	x, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, float32(0), x)

	dst := make([]float32, 8)
	n := q.PopInto(dst)
	require.Equal(t, 4, n)
	assert.Equal(t, []float32{1, 2, 3, 4}, dst[:n])

	_, ok = q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestSPSCDropsWhenFull(t *testing.T) {
	q := NewSPSC(4)
	for i := range 4 {
		require.True(t, q.Push(float32(i)))
	}

	assert.False(t, q.Push(99))
	assert.False(t, q.Push(100))
	assert.Equal(t, uint64(2), q.Dropped())

	// Queued data is untouched by the rejected pushes.
	dst := make([]float32, 4)
	require.Equal(t, 4, q.PopInto(dst))
	assert.Equal(t, []float32{0, 1, 2, 3}, dst)

	require.True(t, q.Push(5))
}

func TestSPSCWrapsAround(t *testing.T) {
	q := NewSPSC(4)
	dst := make([]float32, 3)
	next := float32(0)
	want := float32(0)

	for range 10 {
		for range 3 {
			require.True(t, q.Push(next))
			next++
		}
		n := q.PopInto(dst)
		require.Equal(t, 3, n)
		for _, v := range dst[:n] {
			require.Equal(t, want, v)
			want++
		}
	}
}

func TestSPSCReset(t *testing.T) {
	q := NewSPSC(2)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	require.Equal(t, uint64(1), q.Dropped())

	q.Reset()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint64(0), q.Dropped())
}

func TestSPSCConcurrentProducerConsumer(t *testing.T) {
	total := 20000
	if testing.Short() {
		total = 4000
	}

	// A small queue wraps many times and keeps the producer contending.
	q := NewSPSC(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if q.Push(float32(i)) {
				i++
			}
		}
	}()

	got := make([]float32, 0, total)
	scratch := make([]float32, 256)
	for len(got) < total {
		n := q.PopInto(scratch)
		got = append(got, scratch[:n]...)
	}
	wg.Wait()

	require.Len(t, got, total)
	for i, v := range got {
		if v != float32(i) {
			t.Fatalf("sample %d = %v, out of order", i, v)
		}
	}
}
