package player

import (
	"fmt"
	"strings"
	"time"

	"github.com/drgolem/playout/pkg/codecreader"
	"github.com/drgolem/playout/pkg/playbuffer"
)

// streamRingSeconds sizes StreamPlayer's ring to roughly ten minutes of
// audio, enough to absorb network stalls without ever blocking the audio
// thread waiting on the network.
const streamRingSeconds = 10 * 60

// StreamPlayer decodes a network source continuously into an overwrite
// ring buffer; the consumer always sees the freshest audio available.
type StreamPlayer struct {
	base
	sampleRate int
	pb         *playbuffer.PlayBuffer
}

// NewStreamPlayer creates a player at sampleRate with a ten-minute ring.
func NewStreamPlayer(sampleRate int, preload time.Duration) *StreamPlayer {
	capacity := uint64(sampleRate * 2 * streamRingSeconds)
	pb := playbuffer.New(capacity, true)
	p := &StreamPlayer{sampleRate: sampleRate, pb: pb}
	p.base = newBase("stream", pb, preload)
	return p
}

// CanPlay matches http(s) URLs.
func (p *StreamPlayer) CanPlay(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// Load spawns the decode loop on a detached goroutine and returns as soon
// as the source has been opened, matching the non-blocking Load contract
// StreamPlayer needs so a single stalled connection can't hold up the
// worker tick that drives every other player's Update.
func (p *StreamPlayer) Load(url string, seek time.Duration) error {
	reader, err := codecreader.Open(p.sampleRate, url, seek)
	if err != nil {
		p.markFailed()
		return fmt.Errorf("streamplayer: %w", err)
	}
	p.setReader(reader)
	p.markLoaded()

	go func() {
		defer func() {
			reader.Close()
			p.clearReader()
		}()
		if err := reader.Read(p.pb); err != nil {
			p.markFailed()
		}
	}()
	return nil
}

// Update drives the shared transitions; Load itself is fire-and-forget so
// the goroutine updateCommon spawns returns immediately.
func (p *StreamPlayer) Update(now time.Time) {
	p.updateCommon(now, func() {
		item, ok := p.scheduledItem()
		if !ok {
			return
		}
		_ = p.Load(item.URI, 0)
	})
}

// Process drains whatever is currently buffered; an empty ring yields
// silence for this block rather than blocking on the network.
func (p *StreamPlayer) Process(in, mix []int16, nframes int) {
	drainOrZero(p.pb, mix, nframes)
	p.processRMS(mix, nframes)
}

// IsIdle reports whether the player is in IDLE. Neither the ring's fill
// level nor the read position is consulted: a stream source has no
// estimated sample count (its SampleCount is 0).
func (p *StreamPlayer) IsIdle() bool {
	return p.State() == StateIdle
}
