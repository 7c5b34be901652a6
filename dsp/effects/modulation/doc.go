// Package modulation provides modulated-delay effects for the synth
// post-chain.
package modulation
