package modulation_test

import (
	"fmt"

	"github.com/cwbudde/algo-ringtrack/dsp/effects/modulation"
	"github.com/cwbudde/algo-ringtrack/dsp/oscillator"
)

func ExampleRingModulator_ProcessInPlace() {
	rm, err := modulation.NewRingModulator(4000,
		modulation.WithRingModCarrierHz(1000),
		modulation.WithRingModMix(1),
		modulation.WithRingModWaveform(oscillator.Triangle),
	)
	if err != nil {
		fmt.Println("error")
		return
	}

	buf := []float32{0.5, 0.5, 0.5, 0.5}
	rm.ProcessInPlace(buf)

	fmt.Println(buf)
	// Output:
	// [0.5 0 -0.5 0]
}

func ExampleParams_Set() {
	p := modulation.NewParams()
	_ = p.Set(modulation.ParamManualRate, 12000)
	_ = p.Set(modulation.ParamMode, 1)

	fmt.Println(p.ManualRate(), p.Mode())
	// Output: 5000 manual
}
