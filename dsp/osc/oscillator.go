package osc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultFrequencyHz = 440.0

	centsPerOctave = 1200.0

	// Piano additive partial gains: 1 + 1/2 + 1/4 + 1/8.
	pianoPartialSum = 1.875

	// FM modulator runs at twice the carrier with fixed index 0.3
	// (Wurlitzer-style electric piano tone).
	fmModRatio = 2.0
	fmModIndex = 0.3
)

// Waveform selects the generated wave shape.
type Waveform int

const (
	Sine Waveform = iota
	Sawtooth
	Square
	Triangle
	FM
	Piano
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Sawtooth:
		return "sawtooth"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case FM:
		return "fm"
	case Piano:
		return "piano"
	default:
		return "unknown"
	}
}

// WaveformFromInt maps the host-facing selector 0-5 to a Waveform.
// Out-of-range selectors fall back to Sine.
func WaveformFromInt(v int) Waveform {
	if v < int(Sine) || v > int(Piano) {
		return Sine
	}
	return Waveform(v)
}

// Option mutates oscillator construction parameters.
type Option func(*config) error

type config struct {
	waveform    Waveform
	frequencyHz float64
	detuneCents float64
}

func defaultConfig() config {
	return config{
		waveform:    Sine,
		frequencyHz: defaultFrequencyHz,
	}
}

// WithWaveform sets the initial waveform.
func WithWaveform(w Waveform) Option {
	return func(cfg *config) error {
		if w < Sine || w > Piano {
			return fmt.Errorf("oscillator waveform out of range: %d", w)
		}
		cfg.waveform = w
		return nil
	}
}

// WithFrequency sets the initial frequency in Hz.
func WithFrequency(freqHz float64) Option {
	return func(cfg *config) error {
		if freqHz < 0 || math.IsNaN(freqHz) || math.IsInf(freqHz, 0) {
			return fmt.Errorf("oscillator frequency must be >= 0 and finite: %f", freqHz)
		}
		cfg.frequencyHz = freqHz
		return nil
	}
}

// WithDetuneCents sets the initial detune in cents.
func WithDetuneCents(cents float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(cents) || math.IsInf(cents, 0) {
			return fmt.Errorf("oscillator detune must be finite: %f", cents)
		}
		cfg.detuneCents = cents
		return nil
	}
}

// Oscillator generates one waveform sample per Process call.
type Oscillator struct {
	sampleRate  float64
	frequency   float64
	detuneCents float64
	waveform    Waveform

	phase    float64 // [0, 1)
	phaseInc float64
}

// New creates an oscillator at the given sample rate.
func New(sampleRate float64, opts ...Option) (*Oscillator, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("oscillator sample rate must be > 0 and finite: %f", sampleRate)
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

	o := &Oscillator{
		sampleRate:  sampleRate,
		frequency:   cfg.frequencyHz,
		detuneCents: cfg.detuneCents,
		waveform:    cfg.waveform,
	}
	o.updateIncrement()
	return o, nil
}

// SetFrequency sets the base frequency in Hz. Negative or non-finite values
// are ignored. The phase increment is recomputed so the change takes effect
// on the next sample.
func (o *Oscillator) SetFrequency(freqHz float64) {
	if freqHz < 0 || !core.Finite(freqHz) {
		return
	}
	o.frequency = freqHz
	o.updateIncrement()
}

// SetDetune sets detune in cents, applied multiplicatively as 2^(cents/1200).
// Non-finite values are ignored.
func (o *Oscillator) SetDetune(cents float64) {
	if !core.Finite(cents) {
		return
	}
	o.detuneCents = cents
	o.updateIncrement()
}

// SetWaveform selects the wave shape.
func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform = WaveformFromInt(int(w))
}

// ResetPhase forces phase to 0. Voices call this on (re)trigger so the
// attack transient is deterministic.
func (o *Oscillator) ResetPhase() {
	o.phase = 0
}

// Frequency returns the base frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// DetuneCents returns the detune in cents.
func (o *Oscillator) DetuneCents() float64 { return o.detuneCents }

// WaveformKind returns the selected waveform.
func (o *Oscillator) WaveformKind() Waveform { return o.waveform }

// SampleRate returns the sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// Process generates one sample in [-1, 1] and advances the phase.
func (o *Oscillator) Process() float64 {
	var out float64
	switch o.waveform {
	case Sine:
		out = o.sine()
	case Sawtooth:
		out = o.sawtooth()
	case Square:
		out = o.square()
	case Triangle:
		out = o.triangle()
	case FM:
		out = o.fm()
	case Piano:
		out = o.piano()
	default:
		out = o.sine()
	}

	o.phase += o.phaseInc
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return out
}

func (o *Oscillator) updateIncrement() {
	detuned := o.frequency * math.Exp2(o.detuneCents/centsPerOctave)
	o.phaseInc = detuned / o.sampleRate
}

func (o *Oscillator) sine() float64 {
	return math.Sin(2 * math.Pi * o.phase)
}

func (o *Oscillator) sawtooth() float64 {
	t := o.phase
	return 2*t - 1 - o.polyBLEP(t)
}

func (o *Oscillator) square() float64 {
	t := o.phase
	out := 1.0
	if t >= 0.5 {
		out = -1.0
	}
	out += o.polyBLEP(t)
	out -= o.polyBLEP(math.Mod(t+0.5, 1))
	return out
}

func (o *Oscillator) triangle() float64 {
	t := o.phase
	var out float64
	if t < 0.5 {
		out = 4*t - 1
	} else {
		out = 3 - 4*t
	}

	// Fade the corner samples toward zero near the wrap to soften the
	// slope discontinuity.
	dt := o.phaseInc
	if dt > 0 {
		if t < dt {
			out *= t / dt
		} else if t > 1-dt {
			out *= (1 - t) / dt
		}
	}
	return out
}

func (o *Oscillator) fm() float64 {
	carrier := 2 * math.Pi * o.phase
	return math.Sin(carrier + fmModIndex*math.Sin(carrier*fmModRatio))
}

func (o *Oscillator) piano() float64 {
	fundamental := 2 * math.Pi * o.phase
	out := math.Sin(fundamental)
	out += 0.5 * math.Sin(2*fundamental)
	out += 0.25 * math.Sin(3*fundamental)
	out += 0.125 * math.Sin(4*fundamental)
	return out / pianoPartialSum
}

// polyBLEP returns the polynomial band-limited step correction for a
// discontinuity at phase 0 (or 1), evaluated at phase t.
func (o *Oscillator) polyBLEP(t float64) float64 {
	dt := o.phaseInc
	if dt <= 0 {
		return 0
	}
	switch {
	case t < dt:
		x := t / dt
		return x + x - x*x - 1
	case t > 1-dt:
		x := (t - 1) / dt
		return x*x + x + x + 1
	default:
		return 0
	}
}
