// Command synthdemo renders a short phrase through the synthesizer engine
// and plays it on the default audio output device.
//
// Usage:
//
//	synthdemo [flags]
//
// Examples:
//
//	synthdemo
//	synthdemo -wave sawtooth -delay
//	synthdemo -wave piano -reverb -glide 80
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/synth"
)

var waveforms = map[string]int{
	"sine":     0,
	"sawtooth": 1,
	"square":   2,
	"triangle": 3,
	"fm":       4,
	"piano":    5,
}

// noteEvent triggers or releases a note at an absolute sample position.
type noteEvent struct {
	atSample int
	note     int
	velocity float64
	off      bool
}

// phrase builds an arpeggio followed by a held chord, expressed in samples at
// the given rate.
func phrase(sampleRate int) ([]noteEvent, int) {
	quarter := sampleRate / 2

	var events []noteEvent
	pos := 0
	for _, note := range []int{60, 64, 67, 72} {
		events = append(events,
			noteEvent{atSample: pos, note: note, velocity: 0.9},
			noteEvent{atSample: pos + quarter*3/4, note: note, off: true},
		)
		pos += quarter
	}

	for _, note := range []int{60, 64, 67} {
		events = append(events, noteEvent{atSample: pos, note: note, velocity: 0.8})
	}
	chordEnd := pos + 2*quarter
	for _, note := range []int{60, 64, 67} {
		events = append(events, noteEvent{atSample: chordEnd, note: note, off: true})
	}

	// Tail room for release and effect decay.
	return events, chordEnd + 2*sampleRate
}

// engineReader streams the engine's output as little-endian float32 samples,
// dispatching note events at their scheduled positions.
type engineReader struct {
	engine *synth.Engine
	events []noteEvent
	next   int

	pos     int
	total   int
	scratch []float64
}

func newEngineReader(engine *synth.Engine, events []noteEvent, total, blockSize int) *engineReader {
	return &engineReader{
		engine:  engine,
		events:  events,
		total:   total,
		scratch: make([]float64, blockSize),
	}
}

func (r *engineReader) Read(p []byte) (int, error) {
	if r.pos >= r.total {
		return 0, io.EOF
	}

	samples := len(p) / 4
	if samples > len(r.scratch) {
		samples = len(r.scratch)
	}
	if remaining := r.total - r.pos; samples > remaining {
		samples = remaining
	}
	if samples == 0 {
		return 0, nil
	}

	for r.next < len(r.events) && r.events[r.next].atSample <= r.pos {
		ev := r.events[r.next]
		if ev.off {
			r.engine.NoteOff(ev.note)
		} else {
			r.engine.NoteOn(ev.note, ev.velocity)
		}
		r.next++
	}

	block := r.scratch[:samples]
	r.engine.Process(block)
	for i, s := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(float32(s)))
	}

	r.pos += samples
	return samples * 4, nil
}

func main() {
	rate := flag.Int("rate", 48000, "sample rate in Hz")
	wave := flag.String("wave", "sine", "waveform: sine, sawtooth, square, triangle, fm, piano")
	glideMs := flag.Float64("glide", 0, "glide time in milliseconds")
	useDelay := flag.Bool("delay", false, "enable the delay effect")
	useReverb := flag.Bool("reverb", false, "enable the reverb effect")
	useTremolo := flag.Bool("tremolo", false, "enable the tremolo effect")
	useFlanger := flag.Bool("flanger", false, "enable the flanger effect")
	flag.Parse()

	waveform, ok := waveforms[*wave]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown waveform %q\n", *wave)
		flag.Usage()
		os.Exit(2)
	}

	engine, err := synth.New(core.WithSampleRate(float64(*rate)))
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	engine.SetWaveform(waveform)
	engine.SetMasterVolume(0.8)
	engine.SetADSR(0.01, 0.2, 0.7, 0.4)
	engine.SetGlideTimeMs(*glideMs)
	if *useDelay {
		engine.SetDelay(true, 250, 0.35, 0.3)
	}
	if *useReverb {
		engine.SetReverb(true, 0.7, 0.4)
	}
	if *useTremolo {
		engine.SetTremolo(true, 5, 0.5)
	}
	if *useFlanger {
		engine.SetFlanger(true, 0.25, 5, 0.3, 0.5)
	}

	events, total := phrase(*rate)
	reader := newEngineReader(engine, events, total, 1024)

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *rate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		log.Fatalf("audio device: %v", err)
	}
	<-ready

	player := ctx.NewPlayer(reader)
	player.Play()

	log.Printf("playing %s phrase at %d Hz", *wave, *rate)
	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	if err := player.Close(); err != nil {
		log.Fatalf("player: %v", err)
	}
}
