// Package osc provides a band-limited audio-rate oscillator.
//
// Sawtooth and square waveforms apply a PolyBLEP correction at their phase
// discontinuities, and the triangle fades its corner samples, so all
// waveforms stay usable across the audible range without a wavetable.
package osc
