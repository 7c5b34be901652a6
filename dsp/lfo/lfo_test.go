package lfo

import (
	"math"
	"testing"
)

func TestNew_RejectsInvalidSampleRate(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN()} {
		if _, err := New(sr); err == nil {
			t.Errorf("New(%v) expected error", sr)
		}
	}
}

func TestLFO_RateAndDepthClampToStableRange(t *testing.T) {
	l, err := New(48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.SetRateHz(0.001)
	if got := l.RateHz(); got != 0.01 {
		t.Errorf("RateHz() = %v, want clamp to 0.01", got)
	}
	l.SetRateHz(500)
	if got := l.RateHz(); got != 50 {
		t.Errorf("RateHz() = %v, want clamp to 50", got)
	}

	l.SetDepth(-2)
	if got := l.Depth(); got != 0 {
		t.Errorf("Depth() = %v, want clamp to 0", got)
	}
	l.SetDepth(3)
	if got := l.Depth(); got != 1 {
		t.Errorf("Depth() = %v, want clamp to 1", got)
	}

	// Applying the same clamp twice yields the same value.
	l.SetDepth(l.Depth())
	if got := l.Depth(); got != 1 {
		t.Errorf("Depth() = %v after re-set, want 1", got)
	}
}

func TestLFO_OutputScaledByDepth(t *testing.T) {
	l, err := New(48000, WithRateHz(2), WithDepth(0.25))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 48000; i++ {
		v := l.Process()
		if v < -0.25 || v > 0.25 {
			t.Fatalf("sample %d = %v exceeds depth 0.25", i, v)
		}
	}
}

func TestLFO_ZeroDepthSilencesOutput(t *testing.T) {
	l, err := New(48000, WithRateHz(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 1000; i++ {
		if v := l.Process(); v != 0 {
			t.Fatalf("sample %d = %v with default depth 0", i, v)
		}
	}
}

func TestLFO_WaveformShapesAtKnownPhases(t *testing.T) {
	const sampleRate = 4.0 // phase steps of 0.25 at 1 Hz

	cases := []struct {
		w    Waveform
		want []float64 // first four samples at rate 1 Hz, depth 1
	}{
		{Sine, []float64{0, 1, 0, -1}},
		{Triangle, []float64{-1, 0, 1, 0}},
		{Square, []float64{1, 1, -1, -1}},
	}

	for _, tc := range cases {
		l, err := New(sampleRate, WithRateHz(1), WithDepth(1), WithWaveform(tc.w))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for i, want := range tc.want {
			got := l.Process()
			if math.Abs(got-want) > 1e-12 {
				t.Errorf("%s sample %d = %v, want %v", tc.w, i, got, want)
			}
		}
	}
}

func TestLFO_SampleHoldDeterministicForFixedSeed(t *testing.T) {
	newSH := func() *LFO {
		l, err := New(48000,
			WithRateHz(25), WithDepth(1),
			WithWaveform(SampleHold), WithSeed(777))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return l
	}

	a, b := newSH(), newSH()
	for i := 0; i < 20000; i++ {
		va, vb := a.Process(), b.Process()
		if va != vb {
			t.Fatalf("sequences diverge at sample %d: %v != %v", i, va, vb)
		}
		if va < -1 || va >= 1 {
			t.Fatalf("sample %d = %v outside [-1, 1)", i, va)
		}
	}
}

func TestLFO_SampleHoldHoldsBetweenDraws(t *testing.T) {
	const sampleRate = 1000.0
	const rate = 10.0 // new draw every 100 samples

	l, err := New(sampleRate,
		WithRateHz(rate), WithDepth(1), WithWaveform(SampleHold))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := l.Process()
	for i := 1; i < 100; i++ {
		if got := l.Process(); got != first {
			t.Fatalf("value changed at sample %d within hold window", i)
		}
	}
	// The 101st sample starts a new hold window; values may repeat by
	// chance, so draw a few windows and require at least one change.
	changed := false
	prev := first
	for w := 0; w < 5; w++ {
		v := l.Process()
		if v != prev {
			changed = true
		}
		prev = v
		for i := 1; i < 100; i++ {
			l.Process()
		}
	}
	if !changed {
		t.Error("held value never changed across five hold windows")
	}
}

func TestNew_RejectsOutOfRangeOptions(t *testing.T) {
	if _, err := New(48000, WithRateHz(0)); err == nil {
		t.Error("WithRateHz(0) expected error")
	}
	if _, err := New(48000, WithRateHz(500)); err == nil {
		t.Error("WithRateHz(500) expected error")
	}
	if _, err := New(48000, WithDepth(2)); err == nil {
		t.Error("WithDepth(2) expected error")
	}
	if _, err := New(48000, WithWaveform(Waveform(9))); err == nil {
		t.Error("WithWaveform(9) expected error")
	}
}

func TestWaveformFromInt_FallsBackToSine(t *testing.T) {
	if got := WaveformFromInt(9); got != Sine {
		t.Errorf("WaveformFromInt(9) = %v, want Sine", got)
	}
	if got := WaveformFromInt(3); got != SampleHold {
		t.Errorf("WaveformFromInt(3) = %v, want SampleHold", got)
	}
}
