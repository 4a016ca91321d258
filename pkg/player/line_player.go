package player

import (
	"strings"
	"time"
)

// LinePlayer passes a hardware input straight through to the mix with no
// buffering and no decode: there is nothing to load, so it is considered
// ready the instant it's scheduled.
type LinePlayer struct {
	base
}

// NewLinePlayer creates a pass-through player for the studio-live source.
func NewLinePlayer(preload time.Duration) *LinePlayer {
	p := &LinePlayer{}
	p.base = newBase("line", nil, preload)
	return p
}

// CanPlay matches line://* URIs.
func (p *LinePlayer) CanPlay(uri string) bool {
	return strings.HasPrefix(uri, "line://")
}

// Load is a no-op: line input has nothing to decode, so it's cued
// immediately.
func (p *LinePlayer) Load(url string, seek time.Duration) error {
	p.markLoaded()
	return nil
}

// Update drives WAIT -> LOAD -> CUED -> PLAY exactly like the other
// variants, but Load always succeeds synchronously.
func (p *LinePlayer) Update(now time.Time) {
	p.updateCommon(now, func() {
		_ = p.Load("", 0)
	})
}

// Process copies the hardware input directly into mix; the Engine still
// applies player volume when compositing into the render output.
func (p *LinePlayer) Process(in, mix []int16, nframes int) {
	n := nframes * 2
	if n > len(in) {
		n = len(in)
	}
	if n > len(mix) {
		n = len(mix)
	}
	copy(mix[:n], in[:n])
	p.processRMS(mix, nframes)
}
