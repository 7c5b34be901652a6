package svf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	minCutoffHz = 20.0
	maxCutoffHz = 20000.0

	minResonance = 0.0
	maxResonance = 1.0

	defaultCutoffHz  = 20000.0
	defaultResonance = 0.0

	// minDamping keeps the feedback path lossy enough to stay stable at
	// full resonance.
	minDamping = 0.1

	// maxCoefficient caps the integrator coefficient; the Chamberlin
	// topology degrades above roughly sampleRate/6.
	maxCoefficient = 1.0

	// coefficientMargin backs the coefficient off the stability boundary
	// coef^2 + 2*coef*damping = 4, so the pole pair stays strictly inside
	// the unit circle for every admissible damping.
	coefficientMargin = 0.95
)

// Mode selects which tap of the shared integrator state is returned.
type Mode int

const (
	Lowpass Mode = iota
	Highpass
	Bandpass
)

func (m Mode) String() string {
	switch m {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	default:
		return "unknown"
	}
}

// ModeFromInt maps the host-facing selector 0-2 to a Mode.
// Out-of-range selectors fall back to Lowpass.
func ModeFromInt(v int) Mode {
	if v < int(Lowpass) || v > int(Bandpass) {
		return Lowpass
	}
	return Mode(v)
}

// Option mutates filter construction parameters.
type Option func(*config) error

type config struct {
	cutoffHz  float64
	resonance float64
}

func defaultConfig() config {
	return config{
		cutoffHz:  defaultCutoffHz,
		resonance: defaultResonance,
	}
}

// WithCutoff sets the initial cutoff in [20, 20000] Hz.
func WithCutoff(cutoffHz float64) Option {
	return func(cfg *config) error {
		if cutoffHz < minCutoffHz || cutoffHz > maxCutoffHz || math.IsNaN(cutoffHz) {
			return fmt.Errorf("svf cutoff must be in [%g, %g] Hz: %f", minCutoffHz, maxCutoffHz, cutoffHz)
		}
		cfg.cutoffHz = cutoffHz
		return nil
	}
}

// WithResonance sets the initial resonance in [0, 1].
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if resonance < minResonance || resonance > maxResonance || math.IsNaN(resonance) {
			return fmt.Errorf("svf resonance must be in [0, 1]: %f", resonance)
		}
		cfg.resonance = resonance
		return nil
	}
}

// Filter is a two-integrator state-variable filter with simultaneous
// lowpass, highpass, and bandpass responses.
type Filter struct {
	sampleRate float64
	cutoffHz   float64
	resonance  float64

	coef    float64 // integrator coefficient
	damping float64 // feedback damping, lower = more resonant

	low  float64
	band float64
}

// New creates a filter at the given sample rate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("svf sample rate must be > 0 and finite: %f", sampleRate)
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

	f := &Filter{sampleRate: sampleRate}
	f.SetResonance(cfg.resonance)
	f.SetCutoff(cfg.cutoffHz)
	return f, nil
}

// SetCutoff sets the cutoff frequency, clamped to [20, 20000] Hz.
// Coefficients are recomputed without touching filter memory.
// Non-finite values are ignored.
func (f *Filter) SetCutoff(cutoffHz float64) {
	if !core.Finite(cutoffHz) {
		return
	}
	f.cutoffHz = core.Clamp(cutoffHz, minCutoffHz, maxCutoffHz)
	f.updateCoefficient()
}

// SetResonance sets resonance, clamped to [0, 1]. Higher values narrow the
// bandpass and emphasize the cutoff. Non-finite values are ignored.
func (f *Filter) SetResonance(resonance float64) {
	if !core.Finite(resonance) {
		return
	}
	f.resonance = core.Clamp(resonance, minResonance, maxResonance)
	f.damping = math.Max(2*(1-f.resonance), minDamping)

	// The admissible coefficient range depends on damping.
	f.updateCoefficient()
}

// updateCoefficient derives the integrator coefficient from cutoff and
// damping. The loop is stable only while coef^2 + 2*coef*damping < 4, so the
// usable maximum shrinks as damping grows; high cutoffs at low resonance are
// limited to the stable region rather than allowed to diverge.
func (f *Filter) updateCoefficient() {
	coef := 2 * math.Sin(math.Pi*f.cutoffHz/f.sampleRate)

	limit := coefficientMargin * (math.Sqrt(f.damping*f.damping+4) - f.damping)
	if limit > maxCoefficient {
		limit = maxCoefficient
	}
	if coef > limit {
		coef = limit
	}
	f.coef = coef
}

// Process filters one sample and returns the requested tap. All three taps
// are computed from the same integrator update, so the mode may change
// between calls without resetting state.
func (f *Filter) Process(input float64, mode Mode) float64 {
	f.low += f.coef * f.band
	high := input - f.low - f.damping*f.band
	f.band += f.coef * high

	f.low = core.FlushDenormals(f.low)
	f.band = core.FlushDenormals(f.band)

	switch mode {
	case Highpass:
		return high
	case Bandpass:
		return f.band
	default:
		return f.low
	}
}

// ProcessLowpass filters one sample through the lowpass tap.
func (f *Filter) ProcessLowpass(input float64) float64 {
	return f.Process(input, Lowpass)
}

// ProcessHighpass filters one sample through the highpass tap.
func (f *Filter) ProcessHighpass(input float64) float64 {
	return f.Process(input, Highpass)
}

// ProcessBandpass filters one sample through the bandpass tap.
func (f *Filter) ProcessBandpass(input float64) float64 {
	return f.Process(input, Bandpass)
}

// Cutoff returns the clamped cutoff in Hz.
func (f *Filter) Cutoff() float64 { return f.cutoffHz }

// Resonance returns the clamped resonance in [0, 1].
func (f *Filter) Resonance() float64 { return f.resonance }

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Reset clears the integrator state.
func (f *Filter) Reset() {
	f.low = 0
	f.band = 0
}
