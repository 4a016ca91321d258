package rms

import (
	"math"
	"testing"
)

func TestProcessSilenceIsNegInf(t *testing.T) {
	w := New(4)
	samples := make([]int16, 20)
	got := w.Process(samples, 10)
	if !math.IsInf(got, -1) {
		t.Errorf("Process(silence) = %v, want -Inf", got)
	}
}

func TestProcessFullScaleIsZeroDB(t *testing.T) {
	w := New(1)
	samples := make([]int16, 20)
	for i := range samples {
		samples[i] = 32767
	}
	got := w.Process(samples, 10)
	if math.Abs(got) > 0.01 {
		t.Errorf("Process(full scale) = %v dB, want ~0", got)
	}
}

func TestWindowRollsOverSize(t *testing.T) {
	w := New(2)
	loud := make([]int16, 4)
	for i := range loud {
		loud[i] = 32767
	}
	quiet := make([]int16, 4)

	w.Process(loud, 2)
	got := w.Process(quiet, 2)
	// average of one loud block and one quiet block should sit between -inf and 0dB
	if math.IsInf(got, -1) || got > -0.01 {
		t.Errorf("Process rolling avg = %v, want a finite value below 0dB", got)
	}
}

func TestDBFSMonotonic(t *testing.T) {
	a := DBFS(100)
	b := DBFS(1000)
	if !(a < b) {
		t.Errorf("DBFS not monotonic: DBFS(100)=%v DBFS(1000)=%v", a, b)
	}
}
