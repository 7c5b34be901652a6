// Package glide provides a linear portamento ramp between pitches.
package glide

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultFrequencyHz = 440.0

	// snapHz is the convergence window: once the ramp is this close to the
	// target it snaps exactly, so floating-point stepping cannot oscillate
	// around the target.
	snapHz = 0.1
)

// Glide ramps the current frequency linearly toward a target.
type Glide struct {
	sampleRate float64
	timeMs     float64

	currentFreq float64
	targetFreq  float64
	increment   float64
}

// New creates a glide at the given sample rate.
func New(sampleRate float64) (*Glide, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("glide sample rate must be > 0 and finite: %f", sampleRate)
	}
	return &Glide{
		sampleRate:  sampleRate,
		currentFreq: defaultFrequencyHz,
		targetFreq:  defaultFrequencyHz,
	}, nil
}

// SetTimeMs sets the glide duration in milliseconds. Negative or non-finite
// values are ignored; zero disables gliding (targets snap instantly).
func (g *Glide) SetTimeMs(timeMs float64) {
	if timeMs < 0 || !core.Finite(timeMs) {
		return
	}
	g.timeMs = timeMs
}

// SetTarget starts a ramp toward freqHz over the configured glide time.
// With a zero glide time the current frequency snaps immediately.
func (g *Glide) SetTarget(freqHz float64) {
	if freqHz < 0 || !core.Finite(freqHz) {
		return
	}

	g.targetFreq = freqHz
	if g.timeMs <= 0 {
		g.currentFreq = freqHz
		g.increment = 0
		return
	}

	samples := max(g.timeMs*g.sampleRate/1000, 1)
	g.increment = (freqHz - g.currentFreq) / samples
}

// Process advances the ramp one sample and returns the current frequency.
func (g *Glide) Process() float64 {
	diff := g.currentFreq - g.targetFreq
	if diff < snapHz && diff > -snapHz {
		g.currentFreq = g.targetFreq
		g.increment = 0
	} else {
		g.currentFreq += g.increment
	}
	return g.currentFreq
}

// Frequency returns the current (possibly mid-ramp) frequency.
func (g *Glide) Frequency() float64 { return g.currentFreq }

// Target returns the ramp target frequency.
func (g *Glide) Target() float64 { return g.targetFreq }

// TimeMs returns the configured glide duration.
func (g *Glide) TimeMs() float64 { return g.timeMs }
