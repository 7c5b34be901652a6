// Package envelope provides a linear ADSR amplitude envelope.
//
// The release segment always lasts the configured release time regardless of
// which stage the gate was opened from: the increment is derived from the
// value captured at gate-off, not from full scale.
package envelope

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	minSegmentSeconds = 0.001 // floors time-derived denominators

	defaultAttackSeconds  = 0.01
	defaultDecaySeconds   = 0.3
	defaultSustainLevel   = 0.7
	defaultReleaseSeconds = 0.5
)

// Stage identifies the active envelope segment. Exactly one is active at a
// time; Idle is both the initial and the terminal stage of a note.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Option mutates envelope construction parameters.
type Option func(*config) error

type config struct {
	attackSeconds  float64
	decaySeconds   float64
	sustainLevel   float64
	releaseSeconds float64
}

func defaultConfig() config {
	return config{
		attackSeconds:  defaultAttackSeconds,
		decaySeconds:   defaultDecaySeconds,
		sustainLevel:   defaultSustainLevel,
		releaseSeconds: defaultReleaseSeconds,
	}
}

// WithADSR sets the initial attack/decay/release times (seconds) and sustain
// level.
func WithADSR(attack, decay, sustain, release float64) Option {
	return func(cfg *config) error {
		for _, seconds := range []float64{attack, decay, release} {
			if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
				return fmt.Errorf("envelope segment time must be > 0 and finite: %f", seconds)
			}
		}
		if sustain < 0 || sustain > 1 || math.IsNaN(sustain) {
			return fmt.Errorf("envelope sustain must be in [0, 1]: %f", sustain)
		}
		cfg.attackSeconds = attack
		cfg.decaySeconds = decay
		cfg.sustainLevel = sustain
		cfg.releaseSeconds = release
		return nil
	}
}

// Envelope is a four-segment linear amplitude envelope.
type Envelope struct {
	sampleRate float64

	stage Stage
	value float64

	attackSeconds  float64
	decaySeconds   float64
	sustainLevel   float64
	releaseSeconds float64

	attackInc  float64
	decayInc   float64
	releaseInc float64

	releaseStartValue float64
}

// New creates an envelope at the given sample rate.
func New(sampleRate float64, opts ...Option) (*Envelope, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("envelope sample rate must be > 0 and finite: %f", sampleRate)
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

	e := &Envelope{sampleRate: sampleRate}
	e.SetADSR(cfg.attackSeconds, cfg.decaySeconds,
		cfg.sustainLevel, cfg.releaseSeconds)
	return e, nil
}

// SetADSR sets segment times in seconds and the sustain level. Times are
// floored at 1 ms, sustain is clamped to [0, 1]. Non-finite values keep the
// previous setting.
func (e *Envelope) SetADSR(attack, decay, sustain, release float64) {
	if core.Finite(attack) {
		e.attackSeconds = max(attack, minSegmentSeconds)
	}
	if core.Finite(decay) {
		e.decaySeconds = max(decay, minSegmentSeconds)
	}
	if core.Finite(sustain) {
		e.sustainLevel = core.Clamp(sustain, 0, 1)
	}
	if core.Finite(release) {
		e.releaseSeconds = max(release, minSegmentSeconds)
	}

	attackSamples := max(e.attackSeconds*e.sampleRate, 1)
	decaySamples := max(e.decaySeconds*e.sampleRate, 1)

	e.attackInc = 1 / attackSamples
	e.decayInc = (1 - e.sustainLevel) / decaySamples
	// The release increment is derived at GateOff from the value reached.
}

// GateOn starts the attack segment. On a sounding voice the attack resumes
// from the current value, so retriggering does not step the output.
func (e *Envelope) GateOn() {
	e.stage = StageAttack
}

// GateOff starts the release segment from the current value. The increment
// is sized so the output reaches zero after the configured release time.
// Calling GateOff on an idle envelope is a no-op.
func (e *Envelope) GateOff() {
	if e.stage == StageIdle {
		return
	}

	e.releaseStartValue = e.value
	releaseSamples := max(e.releaseSeconds*e.sampleRate, 1)
	e.releaseInc = e.releaseStartValue / releaseSamples
	e.stage = StageRelease
}

// Process advances the envelope one sample and returns the value in [0, 1].
func (e *Envelope) Process() float64 {
	switch e.stage {
	case StageIdle:
		e.value = 0
	case StageAttack:
		e.value += e.attackInc
		if e.value >= 1 {
			e.value = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.value -= e.decayInc
		if e.value <= e.sustainLevel {
			e.value = e.sustainLevel
			e.stage = StageSustain
		}
	case StageSustain:
		e.value = e.sustainLevel
	case StageRelease:
		e.value -= e.releaseInc
		if e.value <= 0 {
			e.value = 0
			e.stage = StageIdle
		}
	}
	return e.value
}

// IsActive reports whether the envelope is in any non-idle stage.
func (e *Envelope) IsActive() bool {
	return e.stage != StageIdle
}

// CurrentStage returns the active segment.
func (e *Envelope) CurrentStage() Stage { return e.stage }

// Value returns the last computed envelope value.
func (e *Envelope) Value() float64 { return e.value }

// SustainLevel returns the clamped sustain level.
func (e *Envelope) SustainLevel() float64 { return e.sustainLevel }

// AttackSeconds returns the floored attack time.
func (e *Envelope) AttackSeconds() float64 { return e.attackSeconds }

// DecaySeconds returns the floored decay time.
func (e *Envelope) DecaySeconds() float64 { return e.decaySeconds }

// ReleaseSeconds returns the floored release time.
func (e *Envelope) ReleaseSeconds() float64 { return e.releaseSeconds }

// Reset forces the envelope back to idle with zero output.
func (e *Envelope) Reset() {
	e.stage = StageIdle
	e.value = 0
	e.releaseStartValue = 0
	e.releaseInc = 0
}
