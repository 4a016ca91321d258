package playbuffer

import "sync"

// PremixBuffer extends PlayBuffer with a cross-fade zone: samples landing in
// [xfadeBegin, xfadeEnd) are summed into whatever is already sitting at that
// position using equal-power (x²-taper) curves instead of overwriting it,
// so a track join bakes its cross-fade directly into the buffer and the
// consumer sees one continuous signal.
//
// Grounded on the original PremixPlayer's write(): the incoming track's
// write cursor is rewound by xfadeSamples before the new track starts
// decoding, so its first xfadeSamples of audio physically overlap the
// outgoing track's last xfadeSamples already sitting in the buffer.
type PremixBuffer struct {
	*PlayBuffer

	mu           sync.Mutex
	xfadeBegin   uint64
	xfadeEnd     uint64
	fadeInCurve  []float64
	fadeOutCurve []float64
}

// NewPremix allocates a PremixBuffer. PremixPlayer loads never block on the
// consumer — they fail with a buffer-full sentinel instead — so the
// embedded PlayBuffer is always non-overwrite; PremixBuffer.Write enforces
// the non-blocking, refuse-if-it-doesn't-fit contract itself.
func NewPremix(capacity uint64) *PremixBuffer {
	return &PremixBuffer{PlayBuffer: New(capacity, false)}
}

// SetCrossFadeZone arms [begin, end) as the active cross-fade window and
// sizes the fade curves to half its length, one entry per frame (stereo
// pair) of overlap.
func (p *PremixBuffer) SetCrossFadeZone(begin, end uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.xfadeBegin = begin
	p.xfadeEnd = end

	frames := (end - begin) / 2 / 2 // stereo samples -> frames, overlap split fade-in/fade-out
	if frames < 1 {
		frames = 1
	}
	p.fadeInCurve = make([]float64, frames)
	p.fadeOutCurve = make([]float64, frames)
	for i := uint64(0); i < frames; i++ {
		t := float64(i) / float64(frames-1)
		if frames == 1 {
			t = 1
		}
		p.fadeInCurve[i] = t * t
		p.fadeOutCurve[i] = (1 - t) * (1 - t)
	}
}

// ClearCrossFadeZone disables cross-fading for subsequent writes.
func (p *PremixBuffer) ClearCrossFadeZone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.xfadeBegin = 0
	p.xfadeEnd = 0
}

// BeginCrossFade rewinds the write cursor by xfadeSamples (interleaved
// stereo samples, i.e. 2*frames) and arms the zone
// [writePos-xfadeSamples, writePos+xfadeSamples) so the next Write overlaps
// and blends with the outgoing track's tail. If writePos < xfadeSamples
// (the very first track) it is a no-op: the first track has no fade-in,
// matching the source exactly (see SPEC_FULL.md §9).
func (p *PremixBuffer) BeginCrossFade(xfadeSamples uint64) {
	old := p.WritePosition()
	if old < xfadeSamples {
		return
	}
	p.SetCrossFadeZone(old-xfadeSamples, old+xfadeSamples)
	p.RewindWritePosition(xfadeSamples)
}

// Write blends src into the active cross-fade zone, if any, and otherwise
// behaves like a plain non-blocking append. Returns 0 without writing
// anything if src would overflow the buffer's remaining capacity — the
// caller (PremixPlayer.Load) treats that as the buffer-full sentinel rather
// than a real error.
func (p *PremixBuffer) Write(src []int16) int {
	n := uint64(len(src))
	if n == 0 {
		return 0
	}
	if n > p.availableWrite() {
		return 0
	}

	p.mu.Lock()
	begin, end := p.xfadeBegin, p.xfadeEnd
	fadeIn, fadeOut := p.fadeInCurve, p.fadeOutCurve
	p.mu.Unlock()
	curveLen := uint64(len(fadeIn))

	writePos := p.WritePosition()
	frames := n / 2
	for f := uint64(0); f < frames; f++ {
		pos := writePos + f*2
		l, r := src[f*2], src[f*2+1]
		if end > begin && pos >= begin && pos < end {
			idx := (pos - begin) / 2
			if idx >= curveLen {
				idx = curveLen - 1
			}
			existingL := p.peekAt(pos)
			existingR := p.peekAt(pos + 1)
			l = clampInt16(float64(existingL)*fadeOut[idx] + float64(l)*fadeIn[idx])
			r = clampInt16(float64(existingR)*fadeOut[idx] + float64(r)*fadeIn[idx])
		}
		p.pokeAt(pos, l)
		p.pokeAt(pos+1, r)
	}
	p.setWritePosition(writePos + n)
	return int(n)
}
