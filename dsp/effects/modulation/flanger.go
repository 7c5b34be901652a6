package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/delay"
	"github.com/cwbudde/algo-synth/dsp/lfo"
)

const (
	// The modulated tap sweeps between minDelayMs and the configured
	// range; the ring buffer is sized once for the maximum.
	flangerMinDelayMs = 0.5
	flangerMaxDelayMs = 10.0

	defaultFlangerRateHz  = 0.25
	defaultFlangerRangeMs = 5.0
	defaultFlangerFB      = 0.3
	defaultFlangerMix     = 0.5

	// Bipolar feedback: negative values invert the comb notches.
	maxFlangerFeedback = 0.99
)

// FlangerOption mutates flanger construction parameters.
type FlangerOption func(*flangerConfig) error

type flangerConfig struct {
	rateHz   float64
	rangeMs  float64
	feedback float64
	mix      float64
}

func defaultFlangerConfig() flangerConfig {
	return flangerConfig{
		rateHz:   defaultFlangerRateHz,
		rangeMs:  defaultFlangerRangeMs,
		feedback: defaultFlangerFB,
		mix:      defaultFlangerMix,
	}
}

// WithFlangerRateHz sets the initial sweep rate in Hz.
func WithFlangerRateHz(rateHz float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
			return fmt.Errorf("flanger rate must be > 0 and finite: %f", rateHz)
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithFlangerRangeMs sets the initial sweep range in [0.5, 10] ms.
func WithFlangerRangeMs(rangeMs float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if rangeMs < flangerMinDelayMs || rangeMs > flangerMaxDelayMs || math.IsNaN(rangeMs) {
			return fmt.Errorf("flanger range must be in [%g, %g] ms: %f",
				flangerMinDelayMs, flangerMaxDelayMs, rangeMs)
		}
		cfg.rangeMs = rangeMs
		return nil
	}
}

// WithFlangerFeedback sets the initial feedback in [-0.99, 0.99].
func WithFlangerFeedback(feedback float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if feedback < -maxFlangerFeedback || feedback > maxFlangerFeedback || math.IsNaN(feedback) {
			return fmt.Errorf("flanger feedback must be in [-%g, %g]: %f",
				maxFlangerFeedback, maxFlangerFeedback, feedback)
		}
		cfg.feedback = feedback
		return nil
	}
}

// WithFlangerMix sets the initial wet amount in [0, 1].
func WithFlangerMix(mix float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) {
			return fmt.Errorf("flanger mix must be in [0, 1]: %f", mix)
		}
		cfg.mix = mix
		return nil
	}
}

// Flanger is a short delay whose tap length is swept by a private LFO.
type Flanger struct {
	sampleRate float64
	rangeMs    float64
	feedback   float64
	mix        float64

	sweep *lfo.LFO
	line  *delay.Line
}

// NewFlanger creates a flanger at the given sample rate.
func NewFlanger(sampleRate float64, opts ...FlangerOption) (*Flanger, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("flanger sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultFlangerConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	// Full-depth sweep LFO; the range parameter scales the excursion.
	sweep, err := lfo.New(sampleRate, lfo.WithDepth(1))
	if err != nil {
		return nil, fmt.Errorf("flanger: %w", err)
	}

	// Sized for the maximum range plus interpolation guard samples.
	size := int(math.Ceil(flangerMaxDelayMs*sampleRate/1000)) + 4
	line, err := delay.New(size)
	if err != nil {
		return nil, fmt.Errorf("flanger: %w", err)
	}

	f := &Flanger{
		sampleRate: sampleRate,
		rangeMs:    cfg.rangeMs,
		feedback:   cfg.feedback,
		mix:        cfg.mix,
		sweep:      sweep,
		line:       line,
	}
	f.SetRateHz(cfg.rateHz)
	return f, nil
}

// SetRateHz sets the sweep rate; the private LFO clamps it to its stable
// range.
func (f *Flanger) SetRateHz(rateHz float64) {
	f.sweep.SetRateHz(rateHz)
}

// SetDelayRangeMs sets the sweep range, clamped to [0.5, 10] ms.
// Non-finite values are ignored.
func (f *Flanger) SetDelayRangeMs(rangeMs float64) {
	if !core.Finite(rangeMs) {
		return
	}
	f.rangeMs = core.Clamp(rangeMs, flangerMinDelayMs, flangerMaxDelayMs)
}

// SetFeedback sets feedback, clamped to [-0.99, 0.99]. Non-finite values
// are ignored.
func (f *Flanger) SetFeedback(feedback float64) {
	if !core.Finite(feedback) {
		return
	}
	f.feedback = core.Clamp(feedback, -maxFlangerFeedback, maxFlangerFeedback)
}

// SetMix sets the wet amount, clamped to [0, 1]. Non-finite values are
// ignored.
func (f *Flanger) SetMix(mix float64) {
	if !core.Finite(mix) {
		return
	}
	f.mix = core.Clamp(mix, 0, 1)
}

// Process runs one sample through the swept delay. The LFO maps into
// [0.5 ms, range] as delayMs = 0.5 + (range-0.5)*(lfo*0.5+0.5); the tap is
// read with cubic interpolation before this call's write lands.
func (f *Flanger) Process(input float64) float64 {
	sweep := f.sweep.Process()
	delayMs := flangerMinDelayMs + (f.rangeMs-flangerMinDelayMs)*(sweep*0.5+0.5)
	delaySamples := delayMs * f.sampleRate / 1000

	delayed := f.line.ReadFractional(delaySamples)
	f.line.Write(input + delayed*f.feedback)
	return input + delayed*f.mix
}

// ProcessInPlace applies the flanger to buf in place.
func (f *Flanger) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.Process(buf[i])
	}
}

// RateHz returns the clamped sweep rate.
func (f *Flanger) RateHz() float64 { return f.sweep.RateHz() }

// DelayRangeMs returns the clamped sweep range.
func (f *Flanger) DelayRangeMs() float64 { return f.rangeMs }

// Feedback returns the clamped feedback amount.
func (f *Flanger) Feedback() float64 { return f.feedback }

// Mix returns the clamped wet amount.
func (f *Flanger) Mix() float64 { return f.mix }

// Reset clears the delay line and sweep phase.
func (f *Flanger) Reset() {
	f.line.Reset()
	f.sweep.Reset()
}
