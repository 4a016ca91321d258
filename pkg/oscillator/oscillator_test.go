package oscillator

import "testing"

func TestNextStaysInRange(t *testing.T) {
	o := New(48000)
	for i := 0; i < 48000; i++ {
		l, r := o.Next()
		if l != r {
			t.Fatalf("channels diverged: %d != %d", l, r)
		}
		if l > 1000 || l < -1000 {
			t.Fatalf("sample %d out of expected quiet-tone range: %d", i, l)
		}
	}
}

func TestFillMatchesNext(t *testing.T) {
	o1 := New(48000)
	o2 := New(48000)
	buf := make([]int16, 20)
	o1.Fill(buf, 10)
	for i := 0; i < 10; i++ {
		l, r := o2.Next()
		if buf[i*2] != l || buf[i*2+1] != r {
			t.Fatalf("Fill frame %d = (%d,%d), want (%d,%d)", i, buf[i*2], buf[i*2+1], l, r)
		}
	}
}

func TestResetReturnsToStart(t *testing.T) {
	o := New(48000)
	first, _ := o.Next()
	o.Next()
	o.Next()
	o.Reset()
	again, _ := o.Next()
	if first != again {
		t.Errorf("after Reset, Next() = %d, want %d (same as first call)", again, first)
	}
}
