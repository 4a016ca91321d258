package silence

import (
	"testing"
	"time"
)

func TestLatchesAfterStartDuration(t *testing.T) {
	d := New(1, -40, 2*time.Second, 1*time.Second)
	silent := make([]int16, 20)
	base := time.Unix(0, 0)

	if d.Process(silent, 10, base) {
		t.Fatalf("latched immediately, want not yet (startAfter not elapsed)")
	}
	if d.Process(silent, 10, base.Add(1*time.Second)) {
		t.Fatalf("latched after 1s, want not yet (need 2s)")
	}
	if !d.Process(silent, 10, base.Add(2*time.Second)) {
		t.Fatalf("did not latch after 2s below threshold")
	}
}

func TestClearsImmediatelyOnAboveThresholdBlock(t *testing.T) {
	d := New(1, -40, 0, 2*time.Second)
	silent := make([]int16, 20)
	loud := make([]int16, 20)
	for i := range loud {
		loud[i] = 32767
	}
	base := time.Unix(0, 0)

	if !d.Process(silent, 10, base) {
		t.Fatalf("expected immediate latch with startAfter=0")
	}
	if d.Process(loud, 10, base.Add(1*time.Millisecond)) {
		t.Fatalf("latch should clear on the very first above-threshold block")
	}
}

func TestResetClearsLatch(t *testing.T) {
	d := New(1, -40, 0, 0)
	silent := make([]int16, 20)
	base := time.Unix(0, 0)
	d.Process(silent, 10, base)
	if !d.IsSilent() {
		t.Fatalf("expected latched before Reset")
	}
	d.Reset()
	if d.IsSilent() {
		t.Errorf("expected cleared after Reset")
	}
}
