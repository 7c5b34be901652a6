// Package delay provides a fixed-capacity circular delay line.
//
// The line is sized once at construction; the hot path never grows the
// buffer. Reads are taken relative to the write cursor before the current
// call's write, so a tap of Len() samples observes the oldest stored value.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/interp"
)

// Line is a circular delay line of fixed size.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line holding size samples.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the internal buffer size, which is also the maximum integer tap.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write stores one sample and advances the write cursor.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delaySamples calls ago.
// Taps are clamped to [1, Len()].
func (d *Line) Read(delaySamples int) float64 {
	size := len(d.buffer)
	if delaySamples < 1 {
		delaySamples = 1
	}
	if delaySamples > size {
		delaySamples = size
	}

	readPos := d.writePos - delaySamples
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// ReadFractional returns a fractional tap using cubic Hermite interpolation.
// The tap is clamped so all four interpolation points stay inside the buffer.
func (d *Line) ReadFractional(delaySamples float64) float64 {
	minTap := 2.0
	maxTap := float64(len(d.buffer) - 2)
	if maxTap < minTap {
		return d.Read(int(math.Round(delaySamples)))
	}
	if delaySamples < minTap {
		delaySamples = minTap
	}
	if delaySamples > maxTap {
		delaySamples = maxTap
	}

	p := int(math.Floor(delaySamples))
	t := delaySamples - float64(p)

	// Interpolate from the tap at delay p toward the older tap at p+1;
	// the neighbors at p-1 (newer) and p+2 (older) shape the curve.
	xm1 := d.Read(p - 1)
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)

	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
