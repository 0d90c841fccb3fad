package modulation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/algo-ringtrack/dsp/core"
	"github.com/cwbudde/algo-ringtrack/dsp/oscillator"
)

// ErrUnknownParam is returned for parameter IDs outside ParamIDs().
var ErrUnknownParam = errors.New("modulation: unknown parameter")

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("modulation: unknown mode")

// ParamID names a tracking ring modulator parameter.
type ParamID string

const (
	ParamMix            ParamID = "mix"
	ParamRateMultiplier ParamID = "rateMultiplier"
	ParamManualRate     ParamID = "manualRate"
	ParamMode           ParamID = "mode"
	ParamSmoothing      ParamID = "smoothing"
	ParamSensitivity    ParamID = "sensitivity"
	ParamWaveform       ParamID = "waveform"
)

// Mode selects where the carrier frequency comes from.
type Mode int

const (
	// ModeTracking follows the detected pitch times the rate multiplier.
	ModeTracking Mode = iota
	// ModeManual uses the manual rate.
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeTracking:
		return "tracking"
	case ModeManual:
		return "manual"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode resolves a case-insensitive mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tracking":
		return ModeTracking, nil
	case "manual":
		return ModeManual, nil
	default:
		return ModeTracking, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// ParamSpec describes the range of one parameter. Stepped parameters only
// take integer values.
type ParamSpec struct {
	ID      ParamID
	Unit    string
	Min     float64
	Max     float64
	Default float64
	Stepped bool
}

var paramSpecs = [...]ParamSpec{
	{ID: ParamMix, Min: 0, Max: 1, Default: 1},
	{ID: ParamRateMultiplier, Unit: "x", Min: 0.25, Max: 4, Default: 1},
	{ID: ParamManualRate, Unit: "Hz", Min: 20, Max: 5000, Default: 440},
	{ID: ParamMode, Min: 0, Max: 1, Default: float64(ModeTracking), Stepped: true},
	{ID: ParamSmoothing, Min: 0, Max: 1, Default: 0.5},
	{ID: ParamSensitivity, Min: 0, Max: 1, Default: 0.5},
	{ID: ParamWaveform, Min: 0, Max: float64(oscillator.Saw), Default: float64(oscillator.Sine), Stepped: true},
}

const (
	idxMix = iota
	idxRateMultiplier
	idxManualRate
	idxMode
	idxSmoothing
	idxSensitivity
	idxWaveform
	numParams
)

// ParamIDs returns all parameter IDs in a stable order.
func ParamIDs() []ParamID {
	ids := make([]ParamID, len(paramSpecs))
	for i, s := range paramSpecs {
		ids[i] = s.ID
	}
	return ids
}

// Spec returns the range description of id.
func Spec(id ParamID) (ParamSpec, error) {
	i, err := paramIndex(id)
	if err != nil {
		return ParamSpec{}, err
	}
	return paramSpecs[i], nil
}

func paramIndex(id ParamID) (int, error) {
	for i, s := range paramSpecs {
		if s.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownParam, string(id))
}

// Params is a lock-free parameter set. A control goroutine calls Set while
// the audio goroutine reads the typed accessors once per block. Values are
// stored as float64 bits in atomics.
type Params struct {
	values [numParams]atomic.Uint64
}

// NewParams returns a parameter set holding the defaults.
func NewParams() *Params {
	p := &Params{}
	p.Reset()
	return p
}

// Reset restores every parameter to its default.
func (p *Params) Reset() {
	for i, s := range paramSpecs {
		p.values[i].Store(math.Float64bits(s.Default))
	}
}

// Set clamps v to the parameter range, rounds stepped parameters and
// stores it.
func (p *Params) Set(id ParamID, v float64) error {
	i, err := paramIndex(id)
	if err != nil {
		return err
	}
	if !core.IsFinite(v) {
		return fmt.Errorf("modulation: parameter %q must be finite: %f", string(id), v)
	}

	s := paramSpecs[i]
	if s.Stepped {
		v = math.Round(v)
	}
	p.values[i].Store(math.Float64bits(core.Clamp(v, s.Min, s.Max)))
	return nil
}

// Get returns the stored value of id.
func (p *Params) Get(id ParamID) (float64, error) {
	i, err := paramIndex(id)
	if err != nil {
		return 0, err
	}
	return p.load(i), nil
}

// Mix returns the dry/wet mix in [0, 1].
func (p *Params) Mix() float32 { return float32(p.load(idxMix)) }

// RateMultiplier returns the factor applied to the tracked pitch.
func (p *Params) RateMultiplier() float32 { return float32(p.load(idxRateMultiplier)) }

// ManualRate returns the manual carrier frequency in Hz.
func (p *Params) ManualRate() float32 { return float32(p.load(idxManualRate)) }

// Mode returns the carrier source.
func (p *Params) Mode() Mode { return Mode(p.load(idxMode)) }

// Smoothing returns the pitch smoothing amount in [0, 1].
func (p *Params) Smoothing() float32 { return float32(p.load(idxSmoothing)) }

// Sensitivity returns the pitch gate sensitivity in [0, 1].
func (p *Params) Sensitivity() float32 { return float32(p.load(idxSensitivity)) }

// Waveform returns the carrier shape.
func (p *Params) Waveform() oscillator.Waveform { return oscillator.Waveform(p.load(idxWaveform)) }

func (p *Params) load(i int) float64 {
	return math.Float64frombits(p.values[i].Load())
}
