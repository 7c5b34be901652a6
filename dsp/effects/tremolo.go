package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/lfo"
)

const (
	defaultTremoloRateHz = 5.0
	defaultTremoloDepth  = 0.5
)

// TremoloOption mutates tremolo construction parameters.
type TremoloOption func(*tremoloConfig) error

type tremoloConfig struct {
	rateHz float64
	depth  float64
}

func defaultTremoloConfig() tremoloConfig {
	return tremoloConfig{
		rateHz: defaultTremoloRateHz,
		depth:  defaultTremoloDepth,
	}
}

// WithTremoloRateHz sets the initial modulation rate in Hz.
func WithTremoloRateHz(rateHz float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
			return fmt.Errorf("tremolo rate must be > 0 and finite: %f", rateHz)
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithTremoloDepth sets the initial depth in [0, 1].
func WithTremoloDepth(depth float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if depth < 0 || depth > 1 || math.IsNaN(depth) {
			return fmt.Errorf("tremolo depth must be in [0, 1]: %f", depth)
		}
		cfg.depth = depth
		return nil
	}
}

// Tremolo modulates amplitude between 1-depth and 1 with a private sine LFO.
type Tremolo struct {
	mod   *lfo.LFO
	depth float64
}

// NewTremolo creates a tremolo at the given sample rate.
func NewTremolo(sampleRate float64, opts ...TremoloOption) (*Tremolo, error) {
	cfg := defaultTremoloConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	// Full-depth LFO; the tremolo applies its own depth exactly once in
	// the modulation law.
	mod, err := lfo.New(sampleRate, lfo.WithDepth(1))
	if err != nil {
		return nil, fmt.Errorf("tremolo: %w", err)
	}

	t := &Tremolo{
		mod:   mod,
		depth: cfg.depth,
	}
	t.SetRateHz(cfg.rateHz)
	return t, nil
}

// SetRateHz sets the modulation rate; the private LFO clamps it to its
// stable range.
func (t *Tremolo) SetRateHz(rateHz float64) {
	t.mod.SetRateHz(rateHz)
}

// SetDepth sets modulation depth, clamped to [0, 1]. Non-finite values are
// ignored.
func (t *Tremolo) SetDepth(depth float64) {
	if !core.Finite(depth) {
		return
	}
	t.depth = core.Clamp(depth, 0, 1)
}

// Process modulates one sample: output = input * (1 - (lfo*0.5+0.5)*depth),
// sweeping the gain between 1-depth and 1.
func (t *Tremolo) Process(input float64) float64 {
	mod := 1 - (t.mod.Process()*0.5+0.5)*t.depth
	return input * mod
}

// ProcessInPlace applies the tremolo to buf in place.
func (t *Tremolo) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = t.Process(buf[i])
	}
}

// RateHz returns the clamped modulation rate.
func (t *Tremolo) RateHz() float64 { return t.mod.RateHz() }

// Depth returns the clamped depth.
func (t *Tremolo) Depth() float64 { return t.depth }

// Reset clears the modulation phase.
func (t *Tremolo) Reset() {
	t.mod.Reset()
}
