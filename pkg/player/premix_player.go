package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/drgolem/playout/pkg/codecreader"
	"github.com/drgolem/playout/pkg/playbuffer"
	"github.com/drgolem/playout/pkg/playerr"
	"github.com/drgolem/playout/pkg/playitem"
)

// xfadeSeconds is the half-window of the equal-power cross-fade baked into
// the PremixBuffer at every track join.
const xfadeSeconds = 5

// premixMarker tracks where one queued track's audio begins in the buffer,
// so the monitor goroutine can fire its start callback once readPos passes it.
type premixMarker struct {
	pos  uint64
	item playitem.Item
}

// PremixPlayer plays an unbounded queue of tracks as one continuous output,
// cross-fading at every join inside the buffer itself. Its one user is
// Fallback, which embeds it; CanPlay keeps it out of calendar scheduling.
type PremixPlayer struct {
	base
	sampleRate int
	pm         *playbuffer.PremixBuffer

	qmu     sync.Mutex
	queue   []premixMarker
	lastPos uint64

	stopMonitor chan struct{}
	monitorOnce sync.Once
}

// NewPremixPlayer creates a player whose buffer spans preload seconds of
// audio at sampleRate.
func NewPremixPlayer(sampleRate int, preload time.Duration) *PremixPlayer {
	capacity := uint64(float64(sampleRate) * 2 * preload.Seconds())
	capacity = playbuffer.NextMultiple(capacity, framePage)
	pm := playbuffer.NewPremix(capacity)
	p := &PremixPlayer{sampleRate: sampleRate, pm: pm, stopMonitor: make(chan struct{})}
	p.base = newBase("premix", pm, preload)
	go p.monitor()
	return p
}

// CanPlay always returns false: PremixPlayer is driven directly by
// Enqueue, not by the Schedule/Update calendar path used by the other
// variants (it has no single [start,end] window of its own).
func (p *PremixPlayer) CanPlay(uri string) bool { return false }

// Enqueue decodes url and appends it to the buffer, cross-fading against
// whatever track precedes it. Returns playerr.ErrBufferFull if the queue
// has no room (a sentinel, not a fatal error — the caller should retry
// once the buffer drains).
func (p *PremixPlayer) Enqueue(item playitem.Item) error {
	reader, err := codecreader.Open(p.sampleRate, item.URI, 0)
	if err != nil {
		return fmt.Errorf("premixplayer: %w", err)
	}
	defer reader.Close()

	xfadeSamples := uint64(p.sampleRate * 2 * xfadeSeconds)
	p.pm.BeginCrossFade(xfadeSamples)

	markerPos := p.pm.WritePosition()
	p.qmu.Lock()
	p.queue = append(p.queue, premixMarker{pos: markerPos, item: item})
	p.qmu.Unlock()

	if err := reader.Read(p.pm); err != nil {
		return fmt.Errorf("premixplayer: decode: %w", err)
	}
	if p.pm.WritePosition() == markerPos {
		return playerr.ErrBufferFull
	}
	return nil
}

// Update is a no-op for PremixPlayer's own state; CanPlay already excludes
// it from the calendar-driven scheduling path, but the base plumbing
// (Volume, Fade, Events) is still used by Fallback.
func (p *PremixPlayer) Update(now time.Time) {}

// Process drains the buffer (already cross-faded and summed) into mix.
func (p *PremixPlayer) Process(in, mix []int16, nframes int) {
	drainOrZero(p.pm, mix, nframes)
	p.processRMS(mix, nframes)
}

// monitor fires PlayItemDidStartCallback as readPos crosses each queued
// track's marker — PremixPlayer is one continuous output, so this is the
// only way it surfaces program changes.
func (p *PremixPlayer) monitor() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopMonitor:
			return
		case <-ticker.C:
			pos := p.pm.ReadPosition()
			p.qmu.Lock()
			for len(p.queue) > 0 && pos >= p.queue[0].pos {
				item := p.queue[0].item
				p.queue = p.queue[1:]
				p.qmu.Unlock()
				p.fireStarted(item)
				p.qmu.Lock()
			}
			p.qmu.Unlock()
		}
	}
}

// Close stops the monitor goroutine.
func (p *PremixPlayer) Close() {
	p.monitorOnce.Do(func() { close(p.stopMonitor) })
}

// NumTracks returns the number of queued tracks that have not yet started
// playing (i.e. whose marker the read cursor hasn't reached). Fallback uses
// this to skip a reload while the queue is still non-empty.
func (p *PremixPlayer) NumTracks() int {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return len(p.queue)
}
