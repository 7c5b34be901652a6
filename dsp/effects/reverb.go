package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/delay"
)

const (
	reverbNumCombs     = 8
	reverbNumAllpasses = 4

	// Comb feedback maps room size [0,1] onto [0.35, 0.5]; the narrow
	// range bounds the energy of eight parallel feedback loops.
	reverbFeedbackFloor = 0.35
	reverbFeedbackSpan  = 0.15

	// Allpass feedback coefficient for both the write and output taps.
	reverbAllpassCoef = 0.15

	// Comb outputs are averaged, then reduced again before diffusion.
	reverbCombGain = 0.4

	// Conservative wet/dry split; the cascaded feedback stages would
	// otherwise dominate the mix.
	reverbWetLevel = 0.06
	reverbDryLevel = 0.94

	// Reference tunings in samples at 44.1 kHz, scaled linearly for other
	// rates to preserve the reverb's coloration.
	reverbTuningRate = 44100.0

	defaultRoomSize = 0.5
	defaultDamping  = 0.5
)

var (
	reverbCombTunings    = [reverbNumCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	reverbAllpassTunings = [reverbNumAllpasses]int{556, 441, 341, 225}
)

// ReverbOption mutates reverb construction parameters.
type ReverbOption func(*reverbConfig) error

type reverbConfig struct {
	roomSize float64
	damping  float64
}

func defaultReverbConfig() reverbConfig {
	return reverbConfig{
		roomSize: defaultRoomSize,
		damping:  defaultDamping,
	}
}

// WithRoomSize sets the initial room size in [0, 1].
func WithRoomSize(roomSize float64) ReverbOption {
	return func(cfg *reverbConfig) error {
		if roomSize < 0 || roomSize > 1 || math.IsNaN(roomSize) {
			return fmt.Errorf("reverb room size must be in [0, 1]: %f", roomSize)
		}
		cfg.roomSize = roomSize
		return nil
	}
}

// WithDamping sets the initial damping in [0, 1].
func WithDamping(damping float64) ReverbOption {
	return func(cfg *reverbConfig) error {
		if damping < 0 || damping > 1 || math.IsNaN(damping) {
			return fmt.Errorf("reverb damping must be in [0, 1]: %f", damping)
		}
		cfg.damping = damping
		return nil
	}
}

// Reverb is a Freeverb-style network: eight parallel damped comb filters
// averaged into four serial allpass diffusers, mixed 6 % wet.
type Reverb struct {
	roomSize float64
	damping  float64

	combs   [reverbNumCombs]reverbComb
	allpass [reverbNumAllpasses]reverbAllpass
}

type reverbComb struct {
	line        *delay.Line
	feedback    float64
	filterStore float64
}

func newReverbComb(size int) (reverbComb, error) {
	line, err := delay.New(size)
	if err != nil {
		return reverbComb{}, err
	}
	return reverbComb{line: line}, nil
}

// process returns the comb's delayed output and feeds back a one-pole
// lowpassed copy, so high frequencies die faster than the overall tail.
func (c *reverbComb) process(input, damping float64) float64 {
	delayed := c.line.Read(c.line.Len())

	c.filterStore = delayed*(1-damping) + c.filterStore*damping
	c.filterStore = core.FlushDenormals(c.filterStore)

	c.line.Write(input + c.filterStore*c.feedback)
	return delayed
}

func (c *reverbComb) reset() {
	c.line.Reset()
	c.filterStore = 0
}

type reverbAllpass struct {
	line *delay.Line
}

func newReverbAllpass(size int) (reverbAllpass, error) {
	line, err := delay.New(size)
	if err != nil {
		return reverbAllpass{}, err
	}
	return reverbAllpass{line: line}, nil
}

func (a *reverbAllpass) process(input float64) float64 {
	delayed := a.line.Read(a.line.Len())
	a.line.Write(input + delayed*reverbAllpassCoef)
	return delayed + input*reverbAllpassCoef
}

func (a *reverbAllpass) reset() {
	a.line.Reset()
}

// NewReverb creates a reverb tuned for the given sample rate.
func NewReverb(sampleRate float64, opts ...ReverbOption) (*Reverb, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("reverb sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultReverbConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	scale := sampleRate / reverbTuningRate

	r := &Reverb{}
	for i, tuning := range reverbCombTunings {
		size := int(math.Round(float64(tuning) * scale))
		if size < 1 {
			size = 1
		}
		comb, err := newReverbComb(size)
		if err != nil {
			return nil, fmt.Errorf("reverb comb %d: %w", i, err)
		}
		r.combs[i] = comb
	}
	for i, tuning := range reverbAllpassTunings {
		size := int(math.Round(float64(tuning) * scale))
		if size < 1 {
			size = 1
		}
		ap, err := newReverbAllpass(size)
		if err != nil {
			return nil, fmt.Errorf("reverb allpass %d: %w", i, err)
		}
		r.allpass[i] = ap
	}

	r.SetRoomSize(cfg.roomSize)
	r.SetDamping(cfg.damping)
	return r, nil
}

// SetRoomSize sets the room size, clamped to [0, 1], and rederives the comb
// feedback as roomSize*0.15 + 0.35. Non-finite values are ignored.
func (r *Reverb) SetRoomSize(roomSize float64) {
	if !core.Finite(roomSize) {
		return
	}
	r.roomSize = core.Clamp(roomSize, 0, 1)

	feedback := r.roomSize*reverbFeedbackSpan + reverbFeedbackFloor
	for i := range r.combs {
		r.combs[i].feedback = feedback
	}
}

// SetDamping sets the in-loop lowpass amount, clamped to [0, 1]. Non-finite
// values are ignored.
func (r *Reverb) SetDamping(damping float64) {
	if !core.Finite(damping) {
		return
	}
	r.damping = core.Clamp(damping, 0, 1)
}

// Process runs one sample through the network.
func (r *Reverb) Process(input float64) float64 {
	wet := 0.0
	for i := range r.combs {
		wet += r.combs[i].process(input, r.damping)
	}
	wet /= reverbNumCombs
	wet *= reverbCombGain

	for i := range r.allpass {
		wet = r.allpass[i].process(wet)
	}

	return input*reverbDryLevel + wet*reverbWetLevel
}

// ProcessInPlace applies the reverb to buf in place.
func (r *Reverb) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = r.Process(buf[i])
	}
}

// RoomSize returns the clamped room size.
func (r *Reverb) RoomSize() float64 { return r.roomSize }

// Damping returns the clamped damping.
func (r *Reverb) Damping() float64 { return r.damping }

// Reset clears all comb and allpass state.
func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}
