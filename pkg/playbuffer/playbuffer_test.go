package playbuffer

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(16, false)
	src := []int16{1, 2, 3, 4}
	if n := b.Write(src); n != len(src) {
		t.Fatalf("Write: got %d, want %d", n, len(src))
	}
	dst := make([]int16, 4)
	n, ok := b.Read(dst)
	if !ok || n != 4 {
		t.Fatalf("Read: got (%d, %v), want (4, true)", n, ok)
	}
	for i, v := range src {
		if dst[i] != v {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], v)
		}
	}
}

func TestReadRefusesPartial(t *testing.T) {
	b := New(16, false)
	b.Write([]int16{1, 2})
	dst := make([]int16, 4)
	n, ok := b.Read(dst)
	if ok || n != 0 {
		t.Fatalf("Read with insufficient data: got (%d, %v), want (0, false)", n, ok)
	}
	// the two samples already written must still be there afterwards
	dst2 := make([]int16, 2)
	n, ok = b.Read(dst2)
	if !ok || n != 2 {
		t.Fatalf("Read after refused partial read: got (%d, %v), want (2, true)", n, ok)
	}
}

func TestOverwriteAdvancesReadPos(t *testing.T) {
	b := New(4, true)
	b.Write([]int16{1, 2, 3, 4})
	if n := b.Write([]int16{5, 6}); n != 2 {
		t.Fatalf("Write: got %d, want 2", n)
	}
	if rp := b.ReadPosition(); rp != 2 {
		t.Errorf("ReadPosition after overwrite = %d, want 2", rp)
	}
	dst := make([]int16, 4)
	n, ok := b.Read(dst)
	if !ok || n != 4 {
		t.Fatalf("Read: got (%d, %v)", n, ok)
	}
	want := []int16{3, 4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestWriteLargerThanCapacityNonOverwriteReturnsZero(t *testing.T) {
	b := New(4, false)
	if n := b.Write(make([]int16, 8)); n != 0 {
		t.Fatalf("Write oversized non-overwrite: got %d, want 0", n)
	}
}

func TestClosePreventsDeadlock(t *testing.T) {
	b := New(2, false)
	b.Write([]int16{1, 2}) // buffer now full
	done := make(chan int)
	go func() {
		done <- b.Write([]int16{3, 4})
	}()
	b.Close()
	if n := <-done; n != 0 {
		t.Fatalf("Write after Close: got %d, want 0", n)
	}
}

func TestNextMultiple(t *testing.T) {
	cases := []struct{ n, m, want uint64 }{
		{0, 2048, 0},
		{1, 2048, 2048},
		{2048, 2048, 2048},
		{2049, 2048, 4096},
	}
	for _, c := range cases {
		if got := NextMultiple(c.n, c.m); got != c.want {
			t.Errorf("NextMultiple(%d, %d) = %d, want %d", c.n, c.m, got, c.want)
		}
	}
}

func TestPremixCrossFadeMidpointIsEqualPower(t *testing.T) {
	p := NewPremix(64)
	outgoing := make([]int16, 20)
	for i := range outgoing {
		outgoing[i] = 10000
	}
	p.Write(outgoing) // writePos now at 20

	p.BeginCrossFade(10) // zone [10, 30), rewinds writePos to 10
	incoming := make([]int16, 20)
	for i := range incoming {
		incoming[i] = 10000
	}
	p.Write(incoming)

	// centre frame of the five-entry curves (rel index 4, position 14): both
	// x² curves sit at 0.25 there, so two unit signals blend to half level
	mid := p.peekAt(14)
	if mid < 4500 || mid > 5500 {
		t.Errorf("midpoint blended sample = %d, want close to 5000 (0.25 + 0.25 of two unit signals)", mid)
	}
}

func TestPremixFirstTrackHasNoFadeIn(t *testing.T) {
	p := NewPremix(64)
	p.BeginCrossFade(10) // writePos is 0 < xfadeSamples: no-op
	if p.xfadeEnd != 0 {
		t.Errorf("first track should not arm a cross-fade zone, got end=%d", p.xfadeEnd)
	}
}
