package delay

import (
	"math"
	"testing"
)

func TestNew_RejectsInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) expected error", size)
		}
	}
}

func TestLine_ReadReturnsSampleWrittenNCallsAgo(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Write a recognizable ramp, long enough to wrap the buffer twice.
	for i := 0; i < 20; i++ {
		d.Write(float64(i))

		for tap := 1; tap <= 8 && tap <= i+1; tap++ {
			want := float64(i - tap + 1)
			if got := d.Read(tap); got != want {
				t.Fatalf("after write %d, Read(%d) = %v, want %v", i, tap, got, want)
			}
		}
	}
}

func TestLine_ReadClampsTap(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 1; i <= 4; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(0); got != d.Read(1) {
		t.Errorf("Read(0) = %v, want clamp to Read(1) = %v", got, d.Read(1))
	}
	if got := d.Read(99); got != d.Read(4) {
		t.Errorf("Read(99) = %v, want clamp to Read(4) = %v", got, d.Read(4))
	}
}

func TestLine_ReadObservesValueBeforeOverwrite(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Fill the buffer, then verify the full-length tap still sees the
	// oldest value right before the write that would overwrite it.
	for i := 1; i <= 4; i++ {
		d.Write(float64(i))
	}
	if got := d.Read(4); got != 1 {
		t.Fatalf("Read(Len()) = %v, want oldest value 1", got)
	}
	d.Write(5)
	if got := d.Read(4); got != 2 {
		t.Fatalf("after overwrite, Read(Len()) = %v, want 2", got)
	}
}

func TestLine_ReadFractionalMatchesIntegerTapOnWholeDelays(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 16; i++ {
		d.Write(math.Sin(float64(i) * 0.3))
	}

	for tap := 2; tap <= 14; tap++ {
		got := d.ReadFractional(float64(tap))
		want := d.Read(tap)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("ReadFractional(%d) = %v, want Read = %v", tap, got, want)
		}
	}
}

func TestLine_ReadFractionalIsLinearOnRamp(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 16; i++ {
		d.Write(float64(i))
	}

	// On a pure ramp, Hermite interpolation reproduces the ramp exactly.
	got := d.ReadFractional(4.5)
	want := 0.5*float64(15-4) + 0.5*float64(15-5)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ReadFractional(4.5) = %v, want %v", got, want)
	}
}

func TestLine_ResetClearsState(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Write(1)
	d.Write(2)
	d.Reset()

	for tap := 1; tap <= 4; tap++ {
		if got := d.Read(tap); got != 0 {
			t.Fatalf("Read(%d) = %v after Reset, want 0", tap, got)
		}
	}
}
