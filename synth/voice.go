package synth

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/envelope"
	"github.com/cwbudde/algo-synth/dsp/glide"
	"github.com/cwbudde/algo-synth/dsp/osc"
)

// Voice is one playable signal path: an oscillator shaped by an ADSR
// envelope, with a portamento ramp on its pitch. A voice is active exactly
// while its envelope is in a non-idle stage; the engine reuses idle voices
// and steals the one with the largest age when the pool is full.
type Voice struct {
	osc *osc.Oscillator
	env *envelope.Envelope
	gl  *glide.Glide

	velocity float64
	age      uint64 // samples rendered since the last note-on

	// lastFreq skips redundant phase-increment updates while the glide
	// ramp is parked on its target.
	lastFreq float64
}

// NewVoice creates a voice at the given sample rate.
func NewVoice(sampleRate float64) (*Voice, error) {
	o, err := osc.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	e, err := envelope.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	g, err := glide.New(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	return &Voice{osc: o, env: e, gl: g}, nil
}

// NoteOn (re)triggers the voice at the given pitch. The oscillator phase is
// reset so the attack transient is deterministic, the pitch path ramps (or
// snaps) toward freqHz, and the age counter restarts. Velocity is clamped to
// [0, 1]; a non-finite velocity mutes the voice.
func (v *Voice) NoteOn(freqHz, velocity float64) {
	if !core.Finite(velocity) {
		velocity = 0
	}
	v.velocity = core.Clamp(velocity, 0, 1)

	v.gl.SetTarget(freqHz)
	v.osc.ResetPhase()
	v.env.GateOn()
	v.age = 0
}

// NoteOff releases the envelope. Idle voices ignore the call.
func (v *Voice) NoteOff() {
	v.env.GateOff()
}

// IsActive reports whether the envelope is in a non-idle stage.
func (v *Voice) IsActive() bool {
	return v.env.IsActive()
}

// Age returns the number of samples rendered since the last note-on.
func (v *Voice) Age() uint64 { return v.age }

// Frequency returns the pitch the voice is sounding at (or gliding toward).
func (v *Voice) Frequency() float64 { return v.gl.Target() }

// Velocity returns the clamped note-on velocity.
func (v *Voice) Velocity() float64 { return v.velocity }

// Stage returns the envelope's active segment.
func (v *Voice) Stage() envelope.Stage { return v.env.CurrentStage() }

// SetWaveform selects the oscillator wave shape.
func (v *Voice) SetWaveform(w osc.Waveform) {
	v.osc.SetWaveform(w)
}

// SetADSR configures the envelope segment times (seconds) and sustain level.
func (v *Voice) SetADSR(attack, decay, sustain, release float64) {
	v.env.SetADSR(attack, decay, sustain, release)
}

// SetDetune sets the oscillator detune in cents.
func (v *Voice) SetDetune(cents float64) {
	v.osc.SetDetune(cents)
}

// SetGlideTimeMs sets the portamento time for subsequent pitch changes.
func (v *Voice) SetGlideTimeMs(timeMs float64) {
	v.gl.SetTimeMs(timeMs)
}

// Process overwrites dst with the voice's next len(dst) samples and advances
// the age counter.
func (v *Voice) Process(dst []float64) {
	for i := range dst {
		freq := v.gl.Process()
		if freq != v.lastFreq {
			v.osc.SetFrequency(freq)
			v.lastFreq = freq
		}
		dst[i] = v.osc.Process() * v.env.Process() * v.velocity
	}
	v.age += uint64(len(dst))
}

// Reset silences the voice immediately: the envelope returns to idle and the
// oscillator phase is cleared.
func (v *Voice) Reset() {
	v.env.Reset()
	v.osc.ResetPhase()
	v.age = 0
}
