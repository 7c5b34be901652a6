// Package lfo provides a low-frequency modulation source.
//
// The sample-and-hold waveform draws from a per-instance linear-congruential
// generator, so two LFOs constructed with the same seed produce bit-identical
// sequences and no state is shared between instances.
package lfo

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	minRateHz = 0.01
	maxRateHz = 50.0

	defaultRateHz = 1.0
	defaultDepth  = 0.0
	defaultSeed   = 12345

	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
)

// Waveform selects the modulation shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	SampleHold
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	case SampleHold:
		return "sample-hold"
	default:
		return "unknown"
	}
}

// WaveformFromInt maps the host-facing selector 0-3 to a Waveform.
// Out-of-range selectors fall back to Sine.
func WaveformFromInt(v int) Waveform {
	if v < int(Sine) || v > int(SampleHold) {
		return Sine
	}
	return Waveform(v)
}

// Option mutates LFO construction parameters.
type Option func(*config) error

type config struct {
	rateHz   float64
	depth    float64
	waveform Waveform
	seed     uint32
}

func defaultConfig() config {
	return config{
		rateHz:   defaultRateHz,
		depth:    defaultDepth,
		waveform: Sine,
		seed:     defaultSeed,
	}
}

// WithRateHz sets the initial rate in [0.01, 50] Hz.
func WithRateHz(rateHz float64) Option {
	return func(cfg *config) error {
		if rateHz < minRateHz || rateHz > maxRateHz || math.IsNaN(rateHz) {
			return fmt.Errorf("lfo rate must be in [%g, %g] Hz: %f", minRateHz, maxRateHz, rateHz)
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithDepth sets the initial depth in [0, 1].
func WithDepth(depth float64) Option {
	return func(cfg *config) error {
		if depth < 0 || depth > 1 || math.IsNaN(depth) {
			return fmt.Errorf("lfo depth must be in [0, 1]: %f", depth)
		}
		cfg.depth = depth
		return nil
	}
}

// WithWaveform sets the initial waveform.
func WithWaveform(w Waveform) Option {
	return func(cfg *config) error {
		if w < Sine || w > SampleHold {
			return fmt.Errorf("lfo waveform out of range: %d", w)
		}
		cfg.waveform = w
		return nil
	}
}

// WithSeed sets the sample-and-hold generator seed.
func WithSeed(seed uint32) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

// LFO is a low-frequency oscillator with four waveform modes.
type LFO struct {
	sampleRate float64
	rateHz     float64
	depth      float64
	waveform   Waveform

	phase    float64 // [0, 1)
	phaseInc float64

	rngState  uint32
	heldValue float64
	holdCount float64
}

// New creates an LFO at the given sample rate.
func New(sampleRate float64, opts ...Option) (*LFO, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	l := &LFO{
		sampleRate: sampleRate,
		depth:      cfg.depth,
		waveform:   cfg.waveform,
		rngState:   cfg.seed,
	}
	l.SetRateHz(cfg.rateHz)
	return l, nil
}

// SetRateHz sets the rate, clamped to [0.01, 50] Hz.
// Non-finite values are ignored.
func (l *LFO) SetRateHz(rateHz float64) {
	if !core.Finite(rateHz) {
		return
	}
	l.rateHz = core.Clamp(rateHz, minRateHz, maxRateHz)
	l.phaseInc = l.rateHz / l.sampleRate
}

// SetDepth sets the output scale, clamped to [0, 1].
// Non-finite values are ignored.
func (l *LFO) SetDepth(depth float64) {
	if !core.Finite(depth) {
		return
	}
	l.depth = core.Clamp(depth, 0, 1)
}

// SetWaveform selects the modulation shape.
func (l *LFO) SetWaveform(w Waveform) {
	l.waveform = WaveformFromInt(int(w))
}

// RateHz returns the clamped rate in Hz.
func (l *LFO) RateHz() float64 { return l.rateHz }

// Depth returns the clamped depth in [0, 1].
func (l *LFO) Depth() float64 { return l.depth }

// WaveformKind returns the selected waveform.
func (l *LFO) WaveformKind() Waveform { return l.waveform }

// Reset clears phase and sample-and-hold countdown. The generator state is
// left untouched; use WithSeed for reproducible sequences.
func (l *LFO) Reset() {
	l.phase = 0
	l.heldValue = 0
	l.holdCount = 0
}

// Process generates one modulation sample in [-depth, depth].
func (l *LFO) Process() float64 {
	var out float64
	switch l.waveform {
	case Sine:
		out = math.Sin(2 * math.Pi * l.phase)
	case Triangle:
		if l.phase < 0.5 {
			out = 4*l.phase - 1
		} else {
			out = 3 - 4*l.phase
		}
	case Square:
		if l.phase < 0.5 {
			out = 1
		} else {
			out = -1
		}
	case SampleHold:
		if l.holdCount <= 0 {
			l.heldValue = l.nextRandom()
			l.holdCount = l.sampleRate / l.rateHz
		}
		l.holdCount--
		out = l.heldValue
	}

	l.phase += l.phaseInc
	if l.phase >= 1 {
		l.phase -= 1
	}
	return out * l.depth
}

// nextRandom advances the LCG and returns a value in [-1, 1).
func (l *LFO) nextRandom() float64 {
	l.rngState = l.rngState*lcgMultiplier + lcgIncrement
	return float64(l.rngState>>16)/65536*2 - 1
}
