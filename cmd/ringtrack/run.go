package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
	"github.com/cwbudde/algo-ringtrack/dsp/effects/modulation"
	"github.com/cwbudde/algo-ringtrack/dsp/oscillator"
	"github.com/cwbudde/algo-ringtrack/dsp/pitch"
	"github.com/cwbudde/algo-ringtrack/stats/track"
)

// pacePoll is how long the offline driver sleeps while the async worker
// catches up.
const pacePoll = 200 * time.Microsecond

type options struct {
	in  string
	out string

	mode        string
	waveform    string
	mix         float64
	rate        float64
	manual      float64
	smoothing   float64
	sensitivity float64

	async     bool
	method    string
	fallback  string
	threshold float64

	block    int
	interval time.Duration
}

func defaultOptions() options {
	return options{
		mode:        modulation.ModeTracking.String(),
		waveform:    oscillator.Sine.String(),
		mix:         1,
		rate:        1,
		manual:      440,
		smoothing:   0.5,
		sensitivity: 0.5,
		method:      pitch.DifferenceFFT.String(),
		fallback:    pitch.FallbackGlobalMinimum.String(),
		threshold:   0.15,
		block:       512,
		interval:    50 * time.Millisecond,
	}
}

var (
	methods = map[string]pitch.DifferenceMethod{
		pitch.DifferenceFFT.String():    pitch.DifferenceFFT,
		pitch.DifferenceDirect.String(): pitch.DifferenceDirect,
	}
	fallbacks = map[string]pitch.FallbackPolicy{
		pitch.FallbackGlobalMinimum.String(): pitch.FallbackGlobalMinimum,
		pitch.FallbackNone.String():          pitch.FallbackNone,
	}
)

func (o options) detectorOptions() ([]pitch.DetectorOption, error) {
	m, ok := methods[strings.ToLower(o.method)]
	if !ok {
		return nil, fmt.Errorf("unknown difference method %q", o.method)
	}
	f, ok := fallbacks[strings.ToLower(o.fallback)]
	if !ok {
		return nil, fmt.Errorf("unknown fallback policy %q", o.fallback)
	}
	return []pitch.DetectorOption{
		pitch.WithThreshold(o.threshold),
		pitch.WithDifference(m),
		pitch.WithFallback(f),
	}, nil
}

func (o options) params() (*modulation.Params, error) {
	mode, err := modulation.ParseMode(o.mode)
	if err != nil {
		return nil, err
	}
	wf, err := oscillator.ParseWaveform(o.waveform)
	if err != nil {
		return nil, err
	}

	p := modulation.NewParams()
	for _, kv := range []struct {
		id modulation.ParamID
		v  float64
	}{
		{modulation.ParamMode, float64(mode)},
		{modulation.ParamWaveform, float64(wf)},
		{modulation.ParamMix, o.mix},
		{modulation.ParamRateMultiplier, o.rate},
		{modulation.ParamManualRate, o.manual},
		{modulation.ParamSmoothing, o.smoothing},
		{modulation.ParamSensitivity, o.sensitivity},
	} {
		if err := p.Set(kv.id, kv.v); err != nil {
			return nil, fmt.Errorf("%s: %w", kv.id, err)
		}
	}
	return p, nil
}

// run processes opts.in through a tracking ring modulator, writes the pitch
// track to stdout and returns its summary.
func run(ctx context.Context, opts options, stdout io.Writer, log logrus.FieldLogger) (track.Stats, error) {
	if opts.interval <= 0 {
		return track.Stats{}, fmt.Errorf("report interval must be > 0: %s", opts.interval)
	}

	params, err := opts.params()
	if err != nil {
		return track.Stats{}, err
	}
	detOpts, err := opts.detectorOptions()
	if err != nil {
		return track.Stats{}, err
	}

	f, err := os.Open(opts.in)
	if err != nil {
		return track.Stats{}, err
	}
	defer f.Close()

	src, err := openWAV(f)
	if err != nil {
		return track.Stats{}, fmt.Errorf("%s: %w", opts.in, err)
	}
	stream, err := core.NewStreamConfig(
		core.WithSampleRate(src.SampleRate()),
		core.WithChannels(src.Channels()),
		core.WithBlockSize(opts.block),
	)
	if err != nil {
		return track.Stats{}, fmt.Errorf("%s: %w", opts.in, err)
	}
	sr := stream.SampleRate
	channels := stream.Channels

	log.WithFields(logrus.Fields{
		"file":       opts.in,
		"sampleRate": sr,
		"channels":   channels,
		"blockSize":  stream.BlockSize,
		"mode":       params.Mode(),
		"async":      opts.async,
	}).Info("processing")

	var (
		async     *pitch.AsyncDetector
		estimator pitch.Estimator
	)
	if opts.async {
		async, err = pitch.NewAsyncDetector(sr,
			pitch.WithDetectorOptions(detOpts...),
			pitch.WithLogger(log),
		)
		if err != nil {
			return track.Stats{}, err
		}
		if err := async.Start(ctx); err != nil {
			return track.Stats{}, err
		}
		defer async.Close()
		estimator = async
	} else {
		estimator, err = pitch.NewDetector(sr, detOpts...)
		if err != nil {
			return track.Stats{}, err
		}
	}

	trk, err := modulation.NewTrackingRingModulator(sr, params, modulation.WithEstimator(estimator))
	if err != nil {
		return track.Stats{}, err
	}

	var wavOut *wavWriter
	if opts.out != "" {
		wavOut, err = createWAV(opts.out, int(sr), channels)
		if err != nil {
			return track.Stats{}, err
		}
		defer wavOut.Close()
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Time [s]\tPitch [Hz]\tNote\tConfidence\tCarrier [Hz]\n")
	fmt.Fprintf(tw, "--------\t----------\t----\t----------\t------------\n")

	var (
		frames   int
		nextRow  int
		rowEvery = stream.Frames(opts.interval)
		results  []pitch.Result
		left     = make([]float32, stream.BlockSize)
		right    = make([]float32, stream.BlockSize)
	)

	for {
		if err := ctx.Err(); err != nil {
			return track.Stats{}, err
		}

		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return track.Stats{}, err
		}

		for len(chunk) > 0 {
			n := min(stream.BlockSize, len(chunk)/channels)
			block := chunk[:n*channels]
			chunk = chunk[n*channels:]

			if channels == 1 {
				trk.ProcessInPlace(block)
			} else {
				deinterleave(left[:n], right[:n], block)
				trk.ProcessStereoInPlace(left[:n], right[:n])
				interleave(block, left[:n], right[:n])
			}

			if wavOut != nil {
				if err := wavOut.WriteSamples(block); err != nil {
					return track.Stats{}, fmt.Errorf("write %s: %w", opts.out, err)
				}
			}

			if async != nil {
				if err := waitDrained(ctx, async); err != nil {
					return track.Stats{}, err
				}
			}

			frames += n
			for frames >= nextRow {
				r := trk.Readout().Load()
				results = append(results, r)
				fmt.Fprintf(tw, "%.3f\t%.2f\t%s\t%.3f\t%.2f\n",
					stream.Seconds(nextRow),
					r.Frequency,
					pitch.NoteName(r.Frequency),
					r.Confidence,
					trk.CarrierHz(),
				)
				nextRow += rowEvery
			}
		}
	}

	if err := tw.Flush(); err != nil {
		return track.Stats{}, err
	}
	if wavOut != nil {
		if err := wavOut.Close(); err != nil {
			return track.Stats{}, fmt.Errorf("close %s: %w", opts.out, err)
		}
	}

	stats := track.Calculate(results)
	if async != nil && async.Dropped() > 0 {
		log.WithField("dropped", async.Dropped()).Warn("analysis queue overflowed")
	}
	log.WithFields(logrus.Fields{
		"frames": frames,
		"voiced": stats.Voiced,
	}).Debug("done")

	return stats, printSummary(stdout, stats)
}

func printSummary(w io.Writer, s track.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nFrames\t%d\n", s.Frames)
	fmt.Fprintf(tw, "Voiced\t%d (%.1f%%)\n", s.Voiced, 100*s.VoicedRatio)
	if s.Voiced > 0 {
		fmt.Fprintf(tw, "Median\t%.2f Hz (%s)\n", s.MedianHz, pitch.NoteName(float32(s.MedianHz)))
		fmt.Fprintf(tw, "Mean\t%.2f Hz\n", s.MeanHz)
		fmt.Fprintf(tw, "Range\t%.2f - %.2f Hz\n", s.MinHz, s.MaxHz)
		fmt.Fprintf(tw, "Spread\t%.1f cents\n", s.SpreadCents)
		fmt.Fprintf(tw, "Confidence\t%.3f\n", s.MeanConfidence)
	}
	return tw.Flush()
}

// waitDrained blocks until the async worker has consumed everything queued.
func waitDrained(ctx context.Context, a *pitch.AsyncDetector) error {
	for a.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pacePoll):
		}
	}
	return nil
}

func deinterleave(left, right, src []float32) {
	for i := range left {
		left[i] = src[2*i]
		right[i] = src[2*i+1]
	}
}

func interleave(dst, left, right []float32) {
	for i := range left {
		dst[2*i] = left[i]
		dst[2*i+1] = right[i]
	}
}
