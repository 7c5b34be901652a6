package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/effects"
	"github.com/cwbudde/algo-synth/dsp/effects/modulation"
	"github.com/cwbudde/algo-synth/dsp/filter/svf"
	"github.com/cwbudde/algo-synth/dsp/lfo"
	"github.com/cwbudde/algo-synth/dsp/osc"
)

const (
	// MaxVoices is the fixed polyphony of the engine.
	MaxVoices = 10

	// Host master-volume control in [0, 1] maps onto [0, 0.3]; the cap
	// leaves headroom for full polyphony without clipping.
	masterVolumeCap = 0.3

	defaultMasterVolume = 0.21
	defaultBaseCutoffHz = 20000.0

	// Note-off releases every voice sounding within this distance of the
	// requested pitch.
	noteMatchHz = 0.1
)

// NoteToFrequency converts a MIDI-style note number to its equal-tempered
// frequency in Hz, with A4 (note 69) at 440 Hz.
func NoteToFrequency(note int) float64 {
	return 440 * math.Exp2((float64(note)-69)/12)
}

// Engine is the polyphonic synthesizer core. It owns a fixed pool of voices,
// a shared modulation LFO, a state-variable filter, and a serial effects
// chain, and renders into host-supplied buffers one buffer at a time from a
// single thread.
type Engine struct {
	sampleRate float64

	voices       [MaxVoices]*Voice
	masterVolume float64

	mod         *lfo.LFO
	lfoToFilter bool

	filter        *svf.Filter
	filterMode    svf.Mode
	filterEnabled bool
	baseCutoffHz  float64

	flanger *modulation.Flanger
	tremolo *effects.Tremolo
	delay   *effects.Delay
	reverb  *effects.Reverb

	flangerEnabled bool
	tremoloEnabled bool
	delayEnabled   bool
	reverbEnabled  bool

	// Scratch buffers sized once at construction; Process renders longer
	// host buffers in chunks of this size so the audio path never
	// allocates.
	mix      []float64
	voiceBuf []float64
}

// New creates an engine from the processor options (48 kHz, block size 1024
// by default).
func New(opts ...core.ProcessorOption) (*Engine, error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if cfg.SampleRate <= 0 || !core.Finite(cfg.SampleRate) {
		return nil, fmt.Errorf("engine sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}
	if cfg.BlockSize < 1 {
		return nil, fmt.Errorf("engine block size must be >= 1: %d", cfg.BlockSize)
	}

	e := &Engine{
		sampleRate:   cfg.SampleRate,
		masterVolume: defaultMasterVolume,
		baseCutoffHz: defaultBaseCutoffHz,
		mix:          make([]float64, cfg.BlockSize),
		voiceBuf:     make([]float64, cfg.BlockSize),
	}

	for i := range e.voices {
		v, err := NewVoice(cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("engine voice %d: %w", i, err)
		}
		e.voices[i] = v
	}

	var err error
	if e.mod, err = lfo.New(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if e.filter, err = svf.New(cfg.SampleRate, svf.WithCutoff(defaultBaseCutoffHz)); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if e.flanger, err = modulation.NewFlanger(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if e.tremolo, err = effects.NewTremolo(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if e.delay, err = effects.NewDelay(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if e.reverb, err = effects.NewReverb(cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return e, nil
}

// NoteOn allocates a voice for the note and triggers it. A free voice is
// preferred; with all ten busy the voice with the largest age (held the
// longest) is stolen and retriggered. Note numbers are clamped to [0, 127].
func (e *Engine) NoteOn(note int, velocity float64) {
	if note < 0 {
		note = 0
	} else if note > 127 {
		note = 127
	}

	var target *Voice
	for _, v := range e.voices {
		if !v.IsActive() {
			target = v
			break
		}
	}
	if target == nil {
		target = e.voices[0]
		for _, v := range e.voices[1:] {
			if v.Age() > target.Age() {
				target = v
			}
		}
	}
	target.NoteOn(NoteToFrequency(note), velocity)
}

// NoteOff releases every active voice whose pitch matches the note within
// 0.1 Hz. Two voices triggered at the same pitch release together; a note
// with no sounding voice is a no-op.
func (e *Engine) NoteOff(note int) {
	freq := NoteToFrequency(note)
	for _, v := range e.voices {
		if !v.IsActive() {
			continue
		}
		if math.Abs(v.Frequency()-freq) < noteMatchHz {
			v.NoteOff()
		}
	}
}

// ActiveVoices returns the number of voices with a non-idle envelope.
func (e *Engine) ActiveVoices() int {
	n := 0
	for _, v := range e.voices {
		if v.IsActive() {
			n++
		}
	}
	return n
}

// Process fills out with the next len(out) samples, overwriting any prior
// contents. Buffers longer than the configured block size are rendered in
// block-size chunks; nothing on this path allocates.
func (e *Engine) Process(out []float64) {
	for start := 0; start < len(out); start += len(e.mix) {
		end := start + len(e.mix)
		if end > len(out) {
			end = len(out)
		}
		e.processBlock(out[start:end])
	}
}

func (e *Engine) processBlock(out []float64) {
	mix := e.mix[:len(out)]
	voiceBuf := e.voiceBuf[:len(out)]

	core.Zero(mix)
	for _, v := range e.voices {
		if !v.IsActive() {
			continue
		}
		v.Process(voiceBuf)
		vecmath.AddBlockInPlace(mix, voiceBuf)
	}

	for i := range mix {
		mix[i] = e.processChain(mix[i])
	}

	vecmath.ScaleBlock(out, mix, e.masterVolume)
}

// processChain runs one mixed sample through the post-voice chain in fixed
// order: LFO-modulated filter, flanger, tremolo, delay, reverb.
func (e *Engine) processChain(sample float64) float64 {
	if e.lfoToFilter {
		modulated := e.baseCutoffHz * (1 + e.mod.Process())
		e.filter.SetCutoff(core.Clamp(modulated, 20, 20000))
	}
	if e.filterEnabled {
		sample = e.filter.Process(sample, e.filterMode)
	}
	if e.flangerEnabled {
		sample = e.flanger.Process(sample)
	}
	if e.tremoloEnabled {
		sample = e.tremolo.Process(sample)
	}
	if e.delayEnabled {
		sample = e.delay.Process(sample)
	}
	if e.reverbEnabled {
		sample = e.reverb.Process(sample)
	}
	return sample
}

// SetMasterVolume maps the host control in [0, 1] onto an output gain in
// [0, 0.3]. Non-finite values are ignored.
func (e *Engine) SetMasterVolume(volume float64) {
	if !core.Finite(volume) {
		return
	}
	e.masterVolume = core.Clamp(volume*masterVolumeCap, 0, masterVolumeCap)
}

// MasterVolume returns the capped output gain in [0, 0.3].
func (e *Engine) MasterVolume() float64 { return e.masterVolume }

// SetWaveform selects the oscillator wave shape on all voices. Out-of-range
// selectors fall back to sine.
func (e *Engine) SetWaveform(waveform int) {
	w := osc.WaveformFromInt(waveform)
	for _, v := range e.voices {
		v.SetWaveform(w)
	}
}

// SetADSR configures the envelope on all voices. Times are in seconds,
// sustain is a level in [0, 1].
func (e *Engine) SetADSR(attack, decay, sustain, release float64) {
	for _, v := range e.voices {
		v.SetADSR(attack, decay, sustain, release)
	}
}

// SetDetune sets the oscillator detune in cents on all voices.
func (e *Engine) SetDetune(cents float64) {
	for _, v := range e.voices {
		v.SetDetune(cents)
	}
}

// SetGlideTimeMs sets the portamento time on all voices.
func (e *Engine) SetGlideTimeMs(timeMs float64) {
	for _, v := range e.voices {
		v.SetGlideTimeMs(timeMs)
	}
}

// SetFilterCutoff sets the unmodulated cutoff in Hz; with LFO routing
// enabled the modulation is applied on top of this base value.
func (e *Engine) SetFilterCutoff(cutoffHz float64) {
	if !core.Finite(cutoffHz) {
		return
	}
	e.baseCutoffHz = core.Clamp(cutoffHz, 20, 20000)
	e.filter.SetCutoff(e.baseCutoffHz)
}

// SetFilterResonance sets the filter resonance in [0, 1].
func (e *Engine) SetFilterResonance(resonance float64) {
	e.filter.SetResonance(resonance)
}

// SetFilterMode selects the filter tap (0 lowpass, 1 highpass, 2 bandpass).
// Switching modes does not reset filter memory.
func (e *Engine) SetFilterMode(mode int) {
	e.filterMode = svf.ModeFromInt(mode)
}

// SetFilterEnabled switches the filter stage in or out of the chain.
func (e *Engine) SetFilterEnabled(enabled bool) {
	e.filterEnabled = enabled
}

// SetLFORate sets the shared modulation LFO rate in Hz.
func (e *Engine) SetLFORate(rateHz float64) {
	e.mod.SetRateHz(rateHz)
}

// SetLFODepth sets the shared modulation LFO depth in [0, 1].
func (e *Engine) SetLFODepth(depth float64) {
	e.mod.SetDepth(depth)
}

// SetLFOWaveform selects the shared LFO shape (0 sine, 1 triangle, 2 square,
// 3 sample-and-hold).
func (e *Engine) SetLFOWaveform(waveform int) {
	e.mod.SetWaveform(lfo.WaveformFromInt(waveform))
}

// SetLFOToFilter routes the shared LFO onto the filter cutoff. While routed,
// the cutoff tracks baseCutoff*(1+lfo) each sample; the LFO does not advance
// while unrouted.
func (e *Engine) SetLFOToFilter(enabled bool) {
	e.lfoToFilter = enabled
}

// SetDelay switches the delay stage and, when enabling, applies its
// parameter bundle.
func (e *Engine) SetDelay(enabled bool, timeMs, feedback, mix float64) {
	e.delayEnabled = enabled
	if enabled {
		e.delay.SetTimeMs(timeMs)
		e.delay.SetFeedback(feedback)
		e.delay.SetMix(mix)
	}
}

// SetReverb switches the reverb stage and, when enabling, applies its
// parameter bundle.
func (e *Engine) SetReverb(enabled bool, roomSize, damping float64) {
	e.reverbEnabled = enabled
	if enabled {
		e.reverb.SetRoomSize(roomSize)
		e.reverb.SetDamping(damping)
	}
}

// SetTremolo switches the tremolo stage and, when enabling, applies its
// parameter bundle.
func (e *Engine) SetTremolo(enabled bool, rateHz, depth float64) {
	e.tremoloEnabled = enabled
	if enabled {
		e.tremolo.SetRateHz(rateHz)
		e.tremolo.SetDepth(depth)
	}
}

// SetFlanger switches the flanger stage and, when enabling, applies its
// parameter bundle.
func (e *Engine) SetFlanger(enabled bool, rateHz, rangeMs, feedback, mix float64) {
	e.flangerEnabled = enabled
	if enabled {
		e.flanger.SetRateHz(rateHz)
		e.flanger.SetDelayRangeMs(rangeMs)
		e.flanger.SetFeedback(feedback)
		e.flanger.SetMix(mix)
	}
}

// SampleRate returns the sample rate the engine was constructed with.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Reset silences all voices and clears filter, LFO, and effect tails without
// touching parameter settings.
func (e *Engine) Reset() {
	for _, v := range e.voices {
		v.Reset()
	}
	e.mod.Reset()
	e.filter.Reset()
	e.flanger.Reset()
	e.tremolo.Reset()
	e.delay.Reset()
	e.reverb.Reset()
}
