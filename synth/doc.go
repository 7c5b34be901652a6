// Package synth assembles the per-voice signal path and the polyphonic
// engine around it.
//
// A Voice is one oscillator shaped by an ADSR envelope, with portamento on
// its pitch path. The Engine owns a fixed pool of ten voices, a shared
// modulation LFO, a state-variable filter, and a serial effects chain
// (flanger, tremolo, delay, reverb). The host calls Process once per output
// buffer from a single thread; after construction no call on the audio path
// allocates.
package synth
