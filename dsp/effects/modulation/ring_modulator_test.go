package modulation

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ringtrack/dsp/oscillator"
	"github.com/cwbudde/algo-ringtrack/internal/testutil"
)

func TestRingModulatorProcessInPlaceMatchesProcess(t *testing.T) {
	ringMod1, err := NewRingModulator(48000)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	ringMod2, err := NewRingModulator(48000)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	input := make([]float32, 128)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * float64(i) / 31))
	}

	want := make([]float32, len(input))
	copy(want, input)

	for i := range want {
		want[i] = ringMod1.Process(want[i])
	}

	got := make([]float32, len(input))
	copy(got, input)
	ringMod2.ProcessInPlace(got)

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("sample %d mismatch: got=%g want=%g", i, got[i], want[i])
		}
	}
}

func TestRingModulatorResetRestoresState(t *testing.T) {
	ringModulator, err := NewRingModulator(48000,
		WithRingModCarrierHz(300),
	)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	inData := make([]float32, 96)
	inData[0] = 1

	outData1 := make([]float32, len(inData))
	for i := range inData {
		outData1[i] = ringModulator.Process(inData[i])
	}

	ringModulator.Reset()

	outData2 := make([]float32, len(inData))
	for i := range inData {
		outData2[i] = ringModulator.Process(inData[i])
	}

	for i := range outData1 {
		if outData1[i] != outData2[i] {
			t.Fatalf("sample %d mismatch after reset: got=%g want=%g", i, outData2[i], outData1[i])
		}
	}
}

func TestRingModulatorMixZeroIsTransparent(t *testing.T) {
	ringModulator, err := NewRingModulator(48000,
		WithRingModCarrierHz(1000),
		WithRingModMix(0),
	)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	for i, in := range testutil.DeterministicSine32(440, 48000, 0.5, 512) {
		if out := ringModulator.Process(in); out != in {
			t.Fatalf("sample %d: mix=0 should be transparent, got=%g want=%g", i, out, in)
		}
	}
}

func TestRingModulatorDCInputProducesCarrier(t *testing.T) {
	// Ring modulating a DC signal (constant 1.0) with a carrier should
	// produce the carrier itself.
	const (
		sampleRate = 48000.0
		carrierHz  = 100.0
		nSamples   = 480 // one full carrier cycle at 100 Hz / 48000 Hz
	)

	for _, w := range oscillator.Waveforms {
		t.Run(w.String(), func(t *testing.T) {
			ringModulator, err := NewRingModulator(sampleRate,
				WithRingModCarrierHz(carrierHz),
				WithRingModMix(1),
				WithRingModWaveform(w),
			)
			if err != nil {
				t.Fatalf("NewRingModulator() error = %v", err)
			}

			ref := oscillator.New(sampleRate)
			ref.SetWaveform(w)
			ref.SetFrequency(carrierHz)

			for i := 0; i < nSamples; i++ {
				got := ringModulator.Process(1.0)
				want := ref.NextSample()
				if got != want {
					t.Fatalf("sample %d: got=%g want=%g", i, got, want)
				}
			}
		})
	}
}

func TestRingModulatorSineCarrierMatchesMathSin(t *testing.T) {
	ringModulator, err := NewRingModulator(48000, WithRingModCarrierHz(100))
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	for i := 0; i < 480; i++ {
		got := ringModulator.Process(1.0)
		want := math.Sin(2 * math.Pi * 100 * float64(i) / 48000)
		if diff := math.Abs(float64(got) - want); diff > 1e-5 {
			t.Fatalf("sample %d: got=%g want=%g diff=%g", i, got, want, diff)
		}
	}
}

func TestRingModulatorSilenceInputProducesSilence(t *testing.T) {
	ringModulator, err := NewRingModulator(48000,
		WithRingModCarrierHz(1000),
		WithRingModMix(1),
	)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	for i := 0; i < 256; i++ {
		out := ringModulator.Process(0)
		if out != 0 {
			t.Fatalf("sample %d: silent input should produce 0, got=%g", i, out)
		}
	}
}

func TestRingModulatorNonFiniteInputIsFlushed(t *testing.T) {
	ringModulator, err := NewRingModulator(48000, WithRingModMix(0.5))
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	buf := []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), 0.25}
	ringModulator.ProcessInPlace(buf)

	for i, v := range buf[:3] {
		if v != 0 {
			t.Fatalf("sample %d: non-finite input produced %g", i, v)
		}
	}
	testutil.RequireFinite(t, buf)
}

func TestRingModulatorSumDifferenceFrequencies(t *testing.T) {
	// A ring modulator of sin(A) * sin(B) = 0.5*[cos(A-B) - cos(A+B)].
	// With input at 400 Hz and carrier at 100 Hz, we expect energy at
	// 300 Hz (difference) and 500 Hz (sum), but not at 400 Hz or 100 Hz.
	const (
		sampleRate = 48000.0
		inputHz    = 400.0
		carrierHz  = 100.0
		nSamples   = 4800 // 100 ms
	)

	ringModulator, err := NewRingModulator(sampleRate,
		WithRingModCarrierHz(carrierHz),
		WithRingModMix(1),
	)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	output := testutil.DeterministicSine32(inputHz, sampleRate, 1, nSamples)
	ringModulator.ProcessInPlace(output)

	// Goertzel-style magnitude at specific frequencies.
	mag := func(freq float64) float64 {
		var sinSum, cosSum float64

		for i, v := range output {
			angle := 2 * math.Pi * freq * float64(i) / sampleRate
			cosSum += float64(v) * math.Cos(angle)
			sinSum += float64(v) * math.Sin(angle)
		}

		return math.Sqrt(cosSum*cosSum+sinSum*sinSum) / float64(nSamples)
	}

	sumMag := mag(inputHz + carrierHz)  // 500 Hz
	diffMag := mag(inputHz - carrierHz) // 300 Hz
	inputMag := mag(inputHz)            // 400 Hz - should be suppressed
	carrierMag := mag(carrierHz)        // 100 Hz - should be absent

	if sumMag < 0.2 {
		t.Errorf("expected strong sum frequency (500 Hz), got magnitude=%g", sumMag)
	}

	if diffMag < 0.2 {
		t.Errorf("expected strong difference frequency (300 Hz), got magnitude=%g", diffMag)
	}

	if inputMag > 0.01 {
		t.Errorf("expected suppressed input frequency (400 Hz), got magnitude=%g", inputMag)
	}

	if carrierMag > 0.01 {
		t.Errorf("expected absent carrier frequency (100 Hz), got magnitude=%g", carrierMag)
	}
}

func TestRingModulatorValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"zero sample rate", func() error {
			_, err := NewRingModulator(0)
			return err
		}},
		{"negative sample rate", func() error {
			_, err := NewRingModulator(-1)
			return err
		}},
		{"NaN sample rate", func() error {
			_, err := NewRingModulator(math.NaN())
			return err
		}},
		{"Inf sample rate", func() error {
			_, err := NewRingModulator(math.Inf(1))
			return err
		}},
		{"zero carrier Hz", func() error {
			_, err := NewRingModulator(48000, WithRingModCarrierHz(0))
			return err
		}},
		{"negative carrier Hz", func() error {
			_, err := NewRingModulator(48000, WithRingModCarrierHz(-100))
			return err
		}},
		{"NaN carrier Hz", func() error {
			_, err := NewRingModulator(48000, WithRingModCarrierHz(math.NaN()))
			return err
		}},
		{"mix below range", func() error {
			_, err := NewRingModulator(48000, WithRingModMix(-0.1))
			return err
		}},
		{"mix above range", func() error {
			_, err := NewRingModulator(48000, WithRingModMix(1.1))
			return err
		}},
		{"NaN mix", func() error {
			_, err := NewRingModulator(48000, WithRingModMix(math.NaN()))
			return err
		}},
		{"unknown waveform", func() error {
			_, err := NewRingModulator(48000, WithRingModWaveform(oscillator.Waveform(9)))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestRingModulatorSetterValidation(t *testing.T) {
	ringModulator, err := NewRingModulator(48000)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	if err := ringModulator.SetSampleRate(0); err == nil {
		t.Error("SetSampleRate(0) expected error")
	}

	if err := ringModulator.SetSampleRate(math.NaN()); err == nil {
		t.Error("SetSampleRate(NaN) expected error")
	}

	if err := ringModulator.SetCarrierHz(0); err == nil {
		t.Error("SetCarrierHz(0) expected error")
	}

	if err := ringModulator.SetCarrierHz(-1); err == nil {
		t.Error("SetCarrierHz(-1) expected error")
	}

	if err := ringModulator.SetMix(-0.1); err == nil {
		t.Error("SetMix(-0.1) expected error")
	}

	if err := ringModulator.SetMix(1.1); err == nil {
		t.Error("SetMix(1.1) expected error")
	}

	if err := ringModulator.SetWaveform(oscillator.Waveform(-1)); !errors.Is(err, oscillator.ErrUnknownWaveform) {
		t.Errorf("SetWaveform(-1) error = %v, want ErrUnknownWaveform", err)
	}
}

func TestRingModulatorGetters(t *testing.T) {
	ringModulator, err := NewRingModulator(48000,
		WithRingModCarrierHz(300),
		WithRingModMix(0.75),
		WithRingModWaveform(oscillator.Triangle),
	)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	if ringModulator.SampleRate() != 48000 {
		t.Errorf("SampleRate() = %g, want 48000", ringModulator.SampleRate())
	}

	if ringModulator.CarrierHz() != 300 {
		t.Errorf("CarrierHz() = %g, want 300", ringModulator.CarrierHz())
	}

	if ringModulator.Mix() != 0.75 {
		t.Errorf("Mix() = %g, want 0.75", ringModulator.Mix())
	}

	if ringModulator.Waveform() != oscillator.Triangle {
		t.Errorf("Waveform() = %v, want triangle", ringModulator.Waveform())
	}
}

func TestRingModulatorSettersUpdateState(t *testing.T) {
	ringModulator, err := NewRingModulator(48000)
	if err != nil {
		t.Fatalf("NewRingModulator() error = %v", err)
	}

	if err := ringModulator.SetSampleRate(96000); err != nil {
		t.Fatalf("SetSampleRate() error = %v", err)
	}

	if ringModulator.SampleRate() != 96000 {
		t.Errorf("SampleRate() = %g, want 96000", ringModulator.SampleRate())
	}

	if err := ringModulator.SetCarrierHz(1000); err != nil {
		t.Fatalf("SetCarrierHz() error = %v", err)
	}

	if ringModulator.CarrierHz() != 1000 {
		t.Errorf("CarrierHz() = %g, want 1000", ringModulator.CarrierHz())
	}

	if err := ringModulator.SetMix(0.5); err != nil {
		t.Fatalf("SetMix() error = %v", err)
	}

	if ringModulator.Mix() != 0.5 {
		t.Errorf("Mix() = %g, want 0.5", ringModulator.Mix())
	}

	if err := ringModulator.SetWaveform(oscillator.Saw); err != nil {
		t.Fatalf("SetWaveform() error = %v", err)
	}

	if ringModulator.Waveform() != oscillator.Saw {
		t.Errorf("Waveform() = %v, want saw", ringModulator.Waveform())
	}
}

func TestRingModulatorNilOption(t *testing.T) {
	ringModulator, err := NewRingModulator(48000, nil)
	if err != nil {
		t.Fatalf("NewRingModulator() with nil option should not fail: %v", err)
	}

	if ringModulator.CarrierHz() != defaultRingModCarrierHz {
		t.Errorf("CarrierHz() = %g, want default %g", ringModulator.CarrierHz(), defaultRingModCarrierHz)
	}
}

func BenchmarkRingModulatorProcessSample(b *testing.B) {
	ringModulator, err := NewRingModulator(48000,
		WithRingModCarrierHz(440),
		WithRingModMix(1),
	)
	if err != nil {
		b.Fatalf("NewRingModulator() error = %v", err)
	}

	b.ReportAllocs()

	for b.Loop() {
		ringModulator.Process(0.5)
	}
}

func BenchmarkRingModulatorProcessInPlace(b *testing.B) {
	ringModulator, err := NewRingModulator(48000,
		WithRingModCarrierHz(440),
		WithRingModMix(1),
	)
	if err != nil {
		b.Fatalf("NewRingModulator() error = %v", err)
	}

	buf := testutil.DeterministicSine32(1548.4, 48000, 1, 1024)

	b.ReportAllocs()

	for b.Loop() {
		ringModulator.ProcessInPlace(buf)
	}
}
