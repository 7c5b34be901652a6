// Package effects provides the feedback-bearing effect stages of the synth
// post-chain: delay, tremolo, and a Freeverb-style reverb.
//
// All stages pre-size their ring buffers at construction and process one
// sample per call without allocating. Runtime parameter setters clamp to
// stable ranges instead of returning errors, so a host automation stream can
// never disrupt the audio path.
package effects
