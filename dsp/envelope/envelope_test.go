package envelope

import (
	"math"
	"testing"
)

func TestNew_RejectsOutOfRangeADSROption(t *testing.T) {
	if _, err := New(48000, WithADSR(-0.1, 0.1, 0.5, 0.1)); err == nil {
		t.Error("negative attack expected error")
	}
	if _, err := New(48000, WithADSR(0.1, 0.1, 1.5, 0.1)); err == nil {
		t.Error("sustain above 1 expected error")
	}
	if _, err := New(48000, WithADSR(0.1, math.NaN(), 0.5, 0.1)); err == nil {
		t.Error("NaN decay expected error")
	}
}

func TestNew_RejectsInvalidSampleRate(t *testing.T) {
	for _, sr := range []float64{0, -48000, math.NaN()} {
		if _, err := New(sr); err == nil {
			t.Errorf("New(%v) expected error", sr)
		}
	}
}

func TestEnvelope_FullCycleReachesSustainThenIdle(t *testing.T) {
	const sampleRate = 1000.0

	e, err := New(sampleRate, WithADSR(0.01, 0.02, 0.5, 0.05))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if e.IsActive() {
		t.Fatal("fresh envelope reports active")
	}

	e.GateOn()

	// Attack: 10 samples to 1.0, decay: 20 samples to 0.5.
	for i := 0; i < 10+20+5; i++ {
		v := e.Process()
		if v < 0 || v > 1 {
			t.Fatalf("sample %d = %v outside [0, 1]", i, v)
		}
	}
	if e.CurrentStage() != StageSustain {
		t.Fatalf("stage = %v after attack+decay, want sustain", e.CurrentStage())
	}
	if e.Value() != 0.5 {
		t.Fatalf("sustain value = %v, want exactly 0.5", e.Value())
	}

	e.GateOff()

	// Release: 50 samples from 0.5 to 0, monotonically.
	prev := e.Value()
	for i := 0; i < 50; i++ {
		v := e.Process()
		if v > prev {
			t.Fatalf("release not monotonic at sample %d: %v > %v", i, v, prev)
		}
		if v < 0 {
			t.Fatalf("release undershot zero at sample %d: %v", i, v)
		}
		prev = v
	}
	if e.IsActive() {
		t.Errorf("stage = %v after full release, want idle", e.CurrentStage())
	}
	if e.Value() != 0 {
		t.Errorf("value = %v after full release, want 0", e.Value())
	}
}

func TestEnvelope_StageOrderIsMonotonic(t *testing.T) {
	e, err := New(1000, WithADSR(0.005, 0.005, 0.6, 0.005))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.GateOn()
	seen := []Stage{e.CurrentStage()}
	for i := 0; i < 100; i++ {
		e.Process()
		if s := e.CurrentStage(); s != seen[len(seen)-1] {
			seen = append(seen, s)
		}
	}
	e.GateOff()
	seen = append(seen, e.CurrentStage())
	for i := 0; i < 100; i++ {
		e.Process()
		if s := e.CurrentStage(); s != seen[len(seen)-1] {
			seen = append(seen, s)
		}
	}

	want := []Stage{StageAttack, StageDecay, StageSustain, StageRelease, StageIdle}
	if len(seen) != len(want) {
		t.Fatalf("stage sequence %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("stage sequence %v, want %v", seen, want)
		}
	}
}

func TestEnvelope_ReleaseDurationConstantFromAnyStage(t *testing.T) {
	const sampleRate = 1000.0
	const releaseSeconds = 0.1 // 100 samples

	samplesToIdle := func(warmup int) int {
		e, err := New(sampleRate, WithADSR(0.05, 0.05, 0.5, releaseSeconds))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		e.GateOn()
		for i := 0; i < warmup; i++ {
			e.Process()
		}
		e.GateOff()

		n := 0
		for e.IsActive() {
			e.Process()
			n++
			if n > 10*int(releaseSeconds*sampleRate) {
				t.Fatal("release never reached idle")
			}
		}
		return n
	}

	// Release from mid-attack, mid-decay, and sustain all take the same
	// number of samples to silence; only the decay slope differs.
	fromAttack := samplesToIdle(20)
	fromDecay := samplesToIdle(70)
	fromSustain := samplesToIdle(200)

	for _, n := range []int{fromAttack, fromDecay, fromSustain} {
		if n < 99 || n > 101 {
			t.Errorf("release took %d samples, want about 100 (attack=%d decay=%d sustain=%d)",
				n, fromAttack, fromDecay, fromSustain)
		}
	}
}

func TestEnvelope_GateOffWhenIdleIsNoOp(t *testing.T) {
	e, err := New(48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.GateOff()
	if e.CurrentStage() != StageIdle {
		t.Errorf("stage = %v after idle GateOff, want idle", e.CurrentStage())
	}
	if v := e.Process(); v != 0 {
		t.Errorf("Process() = %v after idle GateOff, want 0", v)
	}
}

func TestEnvelope_SetADSRClampsInputs(t *testing.T) {
	e, err := New(48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.SetADSR(0, -1, 1.5, 0)
	if e.AttackSeconds() != 0.001 {
		t.Errorf("attack = %v, want floor 0.001", e.AttackSeconds())
	}
	if e.DecaySeconds() != 0.001 {
		t.Errorf("decay = %v, want floor 0.001", e.DecaySeconds())
	}
	if e.SustainLevel() != 1 {
		t.Errorf("sustain = %v, want clamp to 1", e.SustainLevel())
	}
	if e.ReleaseSeconds() != 0.001 {
		t.Errorf("release = %v, want floor 0.001", e.ReleaseSeconds())
	}

	// NaN keeps previous values.
	e.SetADSR(math.NaN(), math.NaN(), math.NaN(), math.NaN())
	if e.SustainLevel() != 1 || e.AttackSeconds() != 0.001 {
		t.Error("NaN inputs mutated ADSR settings")
	}
}

func TestEnvelope_RetriggerResumesFromCurrentValue(t *testing.T) {
	e, err := New(1000, WithADSR(0.1, 0.1, 0.5, 0.1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.GateOn()
	for i := 0; i < 50; i++ {
		e.Process()
	}
	mid := e.Value()
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected mid-attack value, got %v", mid)
	}

	e.GateOn() // retrigger
	v := e.Process()
	if v < mid {
		t.Errorf("retrigger dropped value from %v to %v", mid, v)
	}
}
