// Package svf implements a Chamberlin state-variable filter.
//
// One integrator pair feeds the lowpass, highpass, and bandpass taps, so the
// output mode is a per-call choice over shared state: switching taps
// mid-stream keeps the filter memory and introduces no discontinuity beyond
// what the analog topology itself implies.
package svf
