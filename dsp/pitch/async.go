package pitch

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-ringtrack/dsp/buffer"
	"github.com/cwbudde/algo-ringtrack/dsp/core"
	"github.com/cwbudde/algo-ringtrack/dsp/filter/fir"
)

const (
	defaultPollInterval = time.Millisecond
	defaultQueueSeconds = 2.5
	drainChunk          = 256
)

// ErrAlreadyStarted is returned by Start when the worker is running.
var ErrAlreadyStarted = errors.New("pitch: async detector already started")

// AsyncOption mutates async detector construction parameters.
type AsyncOption func(*asyncConfig) error

type asyncConfig struct {
	detectorOpts []DetectorOption
	pollInterval time.Duration
	queueSeconds float64
	logger       logrus.FieldLogger
}

// WithDetectorOptions forwards options to the worker's Detector.
func WithDetectorOptions(opts ...DetectorOption) AsyncOption {
	return func(cfg *asyncConfig) error {
		cfg.detectorOpts = append(cfg.detectorOpts, opts...)
		return nil
	}
}

// WithPollInterval sets how often the idle worker checks the queue.
func WithPollInterval(d time.Duration) AsyncOption {
	return func(cfg *asyncConfig) error {
		if err := validatePollInterval(d); err != nil {
			return err
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithQueueSeconds sets the queue length in seconds of decimated audio.
func WithQueueSeconds(s float64) AsyncOption {
	return func(cfg *asyncConfig) error {
		if err := validateQueueSeconds(s); err != nil {
			return err
		}
		cfg.queueSeconds = s
		return nil
	}
}

// WithLogger sets the logger used by the worker goroutine.
func WithLogger(l logrus.FieldLogger) AsyncOption {
	return func(cfg *asyncConfig) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	}
}

// AsyncDetector runs YIN analysis on a background goroutine.
//
// FeedSample is called from the audio goroutine: it half-band filters the
// input, and every second sample pushes the decimated value into a bounded
// lock-free queue. It never blocks, locks or allocates; when the queue is
// full the sample is dropped and counted. The worker started by Start drains
// the queue into a Detector running at half the input rate and publishes
// each estimate through a Readout that Result reads.
//
// Prepare, Start and Close must not run concurrently with FeedSample.
type AsyncDetector struct {
	cfg asyncConfig
	log logrus.FieldLogger

	sampleRate float64
	dec        *fir.HalfbandDecimator
	det        *Detector
	queue      atomic.Pointer[buffer.SPSC]
	readout    Readout

	mu      sync.Mutex
	parent  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewAsyncDetector creates a detector prepared for sampleRate. The worker
// is not running until Start.
func NewAsyncDetector(sampleRate float64, opts ...AsyncOption) (*AsyncDetector, error) {
	cfg := asyncConfig{
		pollInterval: defaultPollInterval,
		queueSeconds: defaultQueueSeconds,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	det, err := NewDetector(sampleRate/2, cfg.detectorOpts...)
	if err != nil {
		return nil, err
	}

	a := &AsyncDetector{
		cfg: cfg,
		log: cfg.logger.WithField("component", "pitch.AsyncDetector"),
		dec: fir.NewHalfbandDecimator(),
		det: det,
	}
	a.prepare(sampleRate)
	return a, nil
}

// Start launches the worker. It stops when ctx is cancelled or Close is
// called.
func (a *AsyncDetector) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return ErrAlreadyStarted
	}
	a.startLocked(ctx)
	return nil
}

// Close stops the worker and waits for it to exit. It is safe to call more
// than once.
func (a *AsyncDetector) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	return nil
}

// Prepare stops the worker, rebuilds all state for sampleRate, zeroes the
// published result and restarts the worker if it was running.
func (a *AsyncDetector) Prepare(sampleRate float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	wasRunning := a.running
	a.stopLocked()
	a.prepare(sampleRate)
	if wasRunning {
		a.startLocked(a.parent)
	}
}

// FeedSample decimates x and enqueues the result for analysis.
func (a *AsyncDetector) FeedSample(x float32) {
	if !a.dec.ProcessSample(x) {
		return
	}
	a.queue.Load().Push(a.dec.Output())
}

// Result returns the latest published estimate. It is safe to call from
// any goroutine.
func (a *AsyncDetector) Result() Result {
	return a.readout.Load()
}

// Readout exposes the published estimate for lock-free polling.
func (a *AsyncDetector) Readout() *Readout {
	return &a.readout
}

// Dropped returns the number of decimated samples lost to a full queue
// since the last Prepare.
func (a *AsyncDetector) Dropped() uint64 {
	return a.queue.Load().Dropped()
}

// Pending returns the number of decimated samples waiting for the worker.
// Offline drivers use it to pace input to the analysis.
func (a *AsyncDetector) Pending() int {
	return a.queue.Load().Len()
}

// SampleRate returns the input sample rate in Hz.
func (a *AsyncDetector) SampleRate() float64 {
	return a.sampleRate
}

// AnalysisRate returns the rate the worker's Detector runs at.
func (a *AsyncDetector) AnalysisRate() float64 {
	return a.det.SampleRate()
}

func (a *AsyncDetector) prepare(sampleRate float64) {
	a.sampleRate = core.SanitizeSampleRate(sampleRate)
	a.det.Prepare(a.sampleRate / 2)
	a.dec.Reset()

	capacity := core.NextPowerOf2(int(math.Ceil(a.cfg.queueSeconds * a.sampleRate / 2)))
	if q := a.queue.Load(); q != nil && q.Cap() == capacity {
		q.Reset()
	} else {
		a.queue.Store(buffer.NewSPSC(capacity))
	}

	a.readout.Reset()
}

func (a *AsyncDetector) startLocked(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	a.parent = ctx

	wctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true

	a.log.WithFields(logrus.Fields{
		"sample_rate":   a.sampleRate,
		"analysis_rate": a.det.SampleRate(),
		"queue_cap":     a.queue.Load().Cap(),
		"poll_interval": a.cfg.pollInterval,
	}).Debug("starting pitch worker")

	a.wg.Add(1)
	go a.run(wctx, a.det, a.queue.Load())
}

func (a *AsyncDetector) stopLocked() {
	if !a.running {
		return
	}
	a.cancel()
	a.wg.Wait()
	a.cancel = nil
	a.running = false
	a.log.Debug("pitch worker stopped")
}

func (a *AsyncDetector) run(ctx context.Context, det *Detector, q *buffer.SPSC) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.pollInterval)
	defer ticker.Stop()

	scratch := make([]float32, drainChunk)
	var reported uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		a.drain(ctx, det, q, scratch)

		if dropped := q.Dropped(); dropped > reported {
			a.log.WithFields(logrus.Fields{
				"dropped": dropped - reported,
				"total":   dropped,
			}).Warn("pitch queue overflow, samples dropped")
			reported = dropped
		}
	}
}

// drain feeds every queued sample to det, checking for cancellation between
// chunks.
func (a *AsyncDetector) drain(ctx context.Context, det *Detector, q *buffer.SPSC, scratch []float32) {
	for ctx.Err() == nil {
		n := q.PopInto(scratch)
		if n == 0 {
			return
		}
		for _, x := range scratch[:n] {
			if det.feed(x) {
				a.readout.Store(det.Result())
			}
		}
	}
}
