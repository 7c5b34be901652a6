package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/delay"
)

const (
	defaultMaxDelayMs  = 2000.0
	defaultDelayTimeMs = 250.0
	defaultFeedback    = 0.3
	defaultDelayMix    = 0.3

	// maxFeedback keeps the repeat energy strictly decaying.
	maxFeedback = 0.95
)

// DelayOption mutates delay construction parameters.
type DelayOption func(*delayConfig) error

type delayConfig struct {
	maxDelayMs float64
	timeMs     float64
	feedback   float64
	mix        float64
}

func defaultDelayConfig() delayConfig {
	return delayConfig{
		maxDelayMs: defaultMaxDelayMs,
		timeMs:     defaultDelayTimeMs,
		feedback:   defaultFeedback,
		mix:        defaultDelayMix,
	}
}

// WithMaxDelayMs sets the ring buffer capacity in milliseconds. The buffer
// is sized once at construction and never grows.
func WithMaxDelayMs(maxDelayMs float64) DelayOption {
	return func(cfg *delayConfig) error {
		if maxDelayMs <= 0 || math.IsNaN(maxDelayMs) || math.IsInf(maxDelayMs, 0) {
			return fmt.Errorf("delay capacity must be > 0 and finite: %f", maxDelayMs)
		}
		cfg.maxDelayMs = maxDelayMs
		return nil
	}
}

// WithDelayTimeMs sets the initial delay time in milliseconds.
func WithDelayTimeMs(timeMs float64) DelayOption {
	return func(cfg *delayConfig) error {
		if timeMs < 0 || math.IsNaN(timeMs) || math.IsInf(timeMs, 0) {
			return fmt.Errorf("delay time must be >= 0 and finite: %f", timeMs)
		}
		cfg.timeMs = timeMs
		return nil
	}
}

// WithDelayFeedback sets the initial feedback in [0, 0.95].
func WithDelayFeedback(feedback float64) DelayOption {
	return func(cfg *delayConfig) error {
		if feedback < 0 || feedback > maxFeedback || math.IsNaN(feedback) {
			return fmt.Errorf("delay feedback must be in [0, %g]: %f", maxFeedback, feedback)
		}
		cfg.feedback = feedback
		return nil
	}
}

// WithDelayMix sets the initial wet amount in [0, 1].
func WithDelayMix(mix float64) DelayOption {
	return func(cfg *delayConfig) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) {
			return fmt.Errorf("delay mix must be in [0, 1]: %f", mix)
		}
		cfg.mix = mix
		return nil
	}
}

// Delay is a feedback delay over a fixed-capacity ring buffer.
type Delay struct {
	sampleRate float64
	maxDelayMs float64
	timeMs     float64
	feedback   float64
	mix        float64

	delaySamples int
	line         *delay.Line
}

// NewDelay creates a delay sized for maxDelayMs (default 2000 ms).
func NewDelay(sampleRate float64, opts ...DelayOption) (*Delay, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("delay sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultDelayConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	size := int(math.Ceil(cfg.maxDelayMs * sampleRate / 1000))
	if size < 1 {
		size = 1
	}
	line, err := delay.New(size)
	if err != nil {
		return nil, err
	}

	d := &Delay{
		sampleRate: sampleRate,
		maxDelayMs: cfg.maxDelayMs,
		line:       line,
	}
	d.SetTimeMs(cfg.timeMs)
	d.SetFeedback(cfg.feedback)
	d.SetMix(cfg.mix)
	return d, nil
}

// SetTimeMs sets the delay time, clamped to [0, maxDelayMs].
// Non-finite values are ignored.
func (d *Delay) SetTimeMs(timeMs float64) {
	if !core.Finite(timeMs) {
		return
	}
	d.timeMs = core.Clamp(timeMs, 0, d.maxDelayMs)

	samples := int(d.timeMs * d.sampleRate / 1000)
	if samples > d.line.Len() {
		samples = d.line.Len()
	}
	if samples < 1 {
		samples = 1
	}
	d.delaySamples = samples
}

// SetFeedback sets feedback, clamped to [0, 0.95] so repeat energy always
// decays. Non-finite values are ignored.
func (d *Delay) SetFeedback(feedback float64) {
	if !core.Finite(feedback) {
		return
	}
	d.feedback = core.Clamp(feedback, 0, maxFeedback)
}

// SetMix sets the wet amount, clamped to [0, 1]. Non-finite values are
// ignored.
func (d *Delay) SetMix(mix float64) {
	if !core.Finite(mix) {
		return
	}
	d.mix = core.Clamp(mix, 0, 1)
}

// Process runs one sample through the delay: the dry input plus the delayed
// tap scaled by mix, while input plus scaled feedback is written back.
func (d *Delay) Process(input float64) float64 {
	delayed := d.line.Read(d.delaySamples)
	d.line.Write(input + delayed*d.feedback)
	return input + delayed*d.mix
}

// ProcessInPlace applies the delay to buf in place.
func (d *Delay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.Process(buf[i])
	}
}

// TimeMs returns the clamped delay time in milliseconds.
func (d *Delay) TimeMs() float64 { return d.timeMs }

// DelaySamples returns the active tap length in samples.
func (d *Delay) DelaySamples() int { return d.delaySamples }

// Feedback returns the clamped feedback amount.
func (d *Delay) Feedback() float64 { return d.feedback }

// Mix returns the clamped wet amount.
func (d *Delay) Mix() float64 { return d.mix }

// Reset clears the delay tail.
func (d *Delay) Reset() {
	d.line.Reset()
}
