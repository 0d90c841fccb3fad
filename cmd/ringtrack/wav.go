package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mjibson/go-dsp/wav"
)

// ErrUnsupportedWAV is returned for WAV files the tracker cannot process.
var ErrUnsupportedWAV = errors.New("unsupported WAV file")

const wavHeaderSize = 44

// readChunk is the number of interleaved samples read per call.
const readChunk = 8192

// wavSource streams interleaved float32 samples from a WAV file.
type wavSource struct {
	w    *wav.Wav
	done bool
}

func openWAV(r io.Reader) (*wavSource, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedWAV, err)
	}
	if w.NumChannels < 1 || w.NumChannels > 2 {
		return nil, fmt.Errorf("%w: %d channels (mono or stereo only)", ErrUnsupportedWAV, w.NumChannels)
	}
	if w.SampleRate == 0 {
		return nil, fmt.Errorf("%w: zero sample rate", ErrUnsupportedWAV)
	}
	return &wavSource{w: w}, nil
}

func (s *wavSource) SampleRate() float64 { return float64(s.w.SampleRate) }

func (s *wavSource) Channels() int { return int(s.w.NumChannels) }

// Next returns the next interleaved chunk, or io.EOF when the data is
// exhausted. A short final chunk is returned before io.EOF.
func (s *wavSource) Next() ([]float32, error) {
	if s.done {
		return nil, io.EOF
	}
	buf, err := s.w.ReadFloats(readChunk)
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
	case err != nil:
		return nil, fmt.Errorf("read WAV samples: %w", err)
	}

	buf = buf[:len(buf)-len(buf)%s.Channels()]
	if len(buf) == 0 {
		s.done = true
		return nil, io.EOF
	}
	return buf, nil
}

// wavWriter writes 16-bit PCM. The header is written on Close once the data
// size is known.
type wavWriter struct {
	f          *os.File
	buf        []byte
	dataSize   uint32
	sampleRate int
	channels   int
}

func createWAV(path string, sampleRate, channels int) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(make([]byte, wavHeaderSize)); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &wavWriter{f: f, sampleRate: sampleRate, channels: channels}, nil
}

// WriteSamples appends interleaved samples, clipping to [-1, 1).
func (w *wavWriter) WriteSamples(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf) < 2*len(samples) {
		w.buf = make([]byte, 2*len(samples))
	}
	buf := w.buf[:2*len(samples)]
	for i, s := range samples {
		scaled := math.RoundToEven(float64(s) * 32768)
		scaled = math.Max(-32768, math.Min(32767, scaled))
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(scaled)))
	}

	n, err := w.f.Write(buf)
	w.dataSize += uint32(n)
	return err
}

func (w *wavWriter) Close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil

	var header [wavHeaderSize]byte
	putWAVHeader(header[:], w.dataSize, w.sampleRate, w.channels)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(header[:]); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func putWAVHeader(dst []byte, dataSize uint32, sampleRate, channels int) {
	copy(dst[0:4], "RIFF")
	binary.LittleEndian.PutUint32(dst[4:8], 36+dataSize)
	copy(dst[8:12], "WAVE")
	copy(dst[12:16], "fmt ")
	binary.LittleEndian.PutUint32(dst[16:20], 16)
	binary.LittleEndian.PutUint16(dst[20:22], 1)
	binary.LittleEndian.PutUint16(dst[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(dst[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(dst[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(dst[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(dst[34:36], 16)
	copy(dst[36:40], "data")
	binary.LittleEndian.PutUint32(dst[40:44], dataSize)
}
