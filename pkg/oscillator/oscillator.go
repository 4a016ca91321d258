// Package oscillator generates the emergency fallback tone played when
// even the last-resort filler directory is unusable: two sine partials in a
// 5:4 ratio, quiet enough (gain 1/128) to read as an alarm rather than a
// program.
package oscillator

import "math"

const (
	freqA = 1000.0
	freqB = 1250.0
	gain  = 1.0 / 128.0
)

// SineOscillator accumulates phase for two fixed partials and sums them.
type SineOscillator struct {
	sampleRate float64
	phaseA     float64
	phaseB     float64
}

// New creates an oscillator for the given sample rate.
func New(sampleRate int) *SineOscillator {
	return &SineOscillator{sampleRate: float64(sampleRate)}
}

// Next returns the next stereo frame (left, right), both channels
// identical, scaled to int16 full-scale range.
func (o *SineOscillator) Next() (int16, int16) {
	a := math.Sin(o.phaseA)
	b := math.Sin(o.phaseB)
	v := (a + b) * gain * 32767.0

	o.phaseA += 2 * math.Pi * freqA / o.sampleRate
	if o.phaseA >= 2*math.Pi {
		o.phaseA -= 2 * math.Pi
	}
	o.phaseB += 2 * math.Pi * freqB / o.sampleRate
	if o.phaseB >= 2*math.Pi {
		o.phaseB -= 2 * math.Pi
	}

	s := int16(v)
	return s, s
}

// Fill writes nframes stereo frames (2*nframes int16 samples) into dst.
func (o *SineOscillator) Fill(dst []int16, nframes int) {
	for i := 0; i < nframes; i++ {
		l, r := o.Next()
		dst[i*2] = l
		dst[i*2+1] = r
	}
}

// Reset zeroes both phase accumulators.
func (o *SineOscillator) Reset() {
	o.phaseA = 0
	o.phaseB = 0
}
