package core

import (
	"fmt"
	"math"
	"time"
)

const (
	defaultStreamRate = 44100
	defaultBlockSize  = 512

	// MaxBlockSize bounds the frames a driver may hand over per call.
	MaxBlockSize = 1 << 16
	// MaxChannels is the widest stream the processors accept (stereo).
	MaxChannels = 2
)

// StreamConfig describes the audio stream a driver feeds to the processors.
type StreamConfig struct {
	SampleRate float64
	Channels   int
	BlockSize  int
}

// StreamOption mutates a StreamConfig.
type StreamOption func(*StreamConfig) error

// WithSampleRate sets the stream rate. Finite rates below MinSampleRate are
// raised to it.
func WithSampleRate(sampleRate float64) StreamOption {
	return func(cfg *StreamConfig) error {
		if !IsFinitePositive(sampleRate) {
			return fmt.Errorf("stream sample rate must be > 0 and finite: %f", sampleRate)
		}
		cfg.SampleRate = SanitizeSampleRate(sampleRate)
		return nil
	}
}

// WithChannels sets the interleaved channel count.
func WithChannels(channels int) StreamOption {
	return func(cfg *StreamConfig) error {
		if channels < 1 || channels > MaxChannels {
			return fmt.Errorf("stream channels must be in [1, %d]: %d", MaxChannels, channels)
		}
		cfg.Channels = channels
		return nil
	}
}

// WithBlockSize sets the number of frames handed to a processor per call.
func WithBlockSize(blockSize int) StreamOption {
	return func(cfg *StreamConfig) error {
		if blockSize < 1 || blockSize > MaxBlockSize {
			return fmt.Errorf("stream block size must be in [1, %d]: %d", MaxBlockSize, blockSize)
		}
		cfg.BlockSize = blockSize
		return nil
	}
}

// NewStreamConfig applies opts over a mono 44.1 kHz stream with 512-frame
// blocks.
func NewStreamConfig(opts ...StreamOption) (StreamConfig, error) {
	cfg := StreamConfig{
		SampleRate: defaultStreamRate,
		Channels:   1,
		BlockSize:  defaultBlockSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return StreamConfig{}, err
		}
	}
	return cfg, nil
}

// Frames converts d to a whole number of frames, at least 1.
func (c StreamConfig) Frames(d time.Duration) int {
	return max(1, int(math.Round(d.Seconds()*c.SampleRate)))
}

// Seconds returns the stream time of frame n.
func (c StreamConfig) Seconds(n int) float64 {
	return float64(n) / c.SampleRate
}
