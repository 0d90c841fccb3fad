// Package buffer provides the two sample containers the pitch tracker moves
// audio through.
//
// Window is a fixed-capacity circular buffer that always holds the most
// recent samples and can be linearized into chronological order for
// analysis. SPSC is a bounded single-producer/single-consumer queue with
// atomic cursors; the producer side never blocks, locks or allocates, which
// makes it safe to call from a real-time audio callback.
package buffer
