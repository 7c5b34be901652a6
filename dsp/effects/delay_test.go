package effects

import (
	"math"
	"testing"
)

func TestNewDelay_RejectsInvalidSampleRate(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN()} {
		if _, err := NewDelay(sr); err == nil {
			t.Errorf("NewDelay(%v) expected error", sr)
		}
	}
}

func TestNewDelay_RejectsOutOfRangeOptions(t *testing.T) {
	if _, err := NewDelay(48000, WithMaxDelayMs(0)); err == nil {
		t.Error("WithMaxDelayMs(0) expected error")
	}
	if _, err := NewDelay(48000, WithDelayTimeMs(-5)); err == nil {
		t.Error("WithDelayTimeMs(-5) expected error")
	}
	if _, err := NewDelay(48000, WithDelayFeedback(2)); err == nil {
		t.Error("WithDelayFeedback(2) expected error")
	}
	if _, err := NewDelay(48000, WithDelayMix(-1)); err == nil {
		t.Error("WithDelayMix(-1) expected error")
	}
	if _, err := NewDelay(48000, WithDelayMix(math.NaN())); err == nil {
		t.Error("WithDelayMix(NaN) expected error")
	}
}

func TestDelay_ZeroFeedbackEchoesInputOnce(t *testing.T) {
	const sampleRate = 1000.0
	const timeMs = 50.0 // 50 samples
	const mix = 0.8

	d, err := NewDelay(sampleRate,
		WithDelayTimeMs(timeMs), WithDelayFeedback(0), WithDelayMix(mix))
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	// Impulse at k=0: for k >= delaySamples, output must equal
	// input[k] + input[k-delay]*mix with no further repeats.
	const n = 300
	in := make([]float64, n)
	in[0] = 1

	delaySamples := d.DelaySamples()
	if delaySamples != 50 {
		t.Fatalf("DelaySamples() = %d, want 50", delaySamples)
	}

	for k := 0; k < n; k++ {
		got := d.Process(in[k])
		want := in[k]
		if k >= delaySamples {
			want += in[k-delaySamples] * mix
		}
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("output[%d] = %v, want %v", k, got, want)
		}
	}
}

func TestDelay_FeedbackProducesDecayingRepeats(t *testing.T) {
	const sampleRate = 1000.0

	d, err := NewDelay(sampleRate,
		WithDelayTimeMs(10), WithDelayFeedback(0.5), WithDelayMix(1))
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	// Impulse, then silence. Repeats arrive every 10 samples at
	// amplitudes 1, 0.5, 0.25, ...
	d.Process(1)
	wantRepeat := 1.0
	for rep := 0; rep < 5; rep++ {
		var got float64
		for i := 0; i < 10; i++ {
			got = d.Process(0)
		}
		if math.Abs(got-wantRepeat) > 1e-12 {
			t.Fatalf("repeat %d = %v, want %v", rep, got, wantRepeat)
		}
		wantRepeat *= 0.5
	}
}

func TestDelay_ParameterClampRoundTrip(t *testing.T) {
	d, err := NewDelay(48000)
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	d.SetFeedback(2)
	if got := d.Feedback(); got != 0.95 {
		t.Errorf("Feedback() = %v, want clamp to 0.95", got)
	}
	d.SetFeedback(d.Feedback())
	if got := d.Feedback(); got != 0.95 {
		t.Errorf("Feedback() = %v after re-set, want 0.95", got)
	}

	d.SetFeedback(-1)
	if got := d.Feedback(); got != 0 {
		t.Errorf("Feedback() = %v, want clamp to 0", got)
	}

	d.SetMix(5)
	if got := d.Mix(); got != 1 {
		t.Errorf("Mix() = %v, want clamp to 1", got)
	}

	d.SetTimeMs(99999)
	if got := d.TimeMs(); got != 2000 {
		t.Errorf("TimeMs() = %v, want clamp to max 2000", got)
	}

	d.SetTimeMs(math.NaN())
	if got := d.TimeMs(); got != 2000 {
		t.Errorf("TimeMs() = %v after NaN set, want unchanged", got)
	}
}

func TestDelay_BoundedOutputAtMaxFeedback(t *testing.T) {
	d, err := NewDelay(1000,
		WithDelayTimeMs(5), WithDelayFeedback(0.95), WithDelayMix(1))
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	// Sustained unit input: geometric series bounds the tail at
	// 1/(1-0.95) = 20.
	for i := 0; i < 20000; i++ {
		out := d.Process(1)
		if math.Abs(out) > 25 {
			t.Fatalf("output diverged at sample %d: %v", i, out)
		}
	}
}

func TestDelay_ResetClearsTail(t *testing.T) {
	d, err := NewDelay(1000, WithDelayTimeMs(10), WithDelayMix(1))
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	d.Process(1)
	d.Reset()
	for i := 0; i < 50; i++ {
		if got := d.Process(0); got != 0 {
			t.Fatalf("output[%d] = %v after Reset, want 0", i, got)
		}
	}
}
