package player

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/drgolem/playout/pkg/codecreader"
	"github.com/drgolem/playout/pkg/playbuffer"
)

const framePage = 2048

// FilePlayer decodes a whole local track into memory before playback
// starts, matching FilePlayer.hpp's "preload the entire file" behavior.
type FilePlayer struct {
	base
	sampleRate int
	pb         *playbuffer.PlayBuffer
}

// NewFilePlayer creates a player at sampleRate. preload defaults to one
// hour if zero, matching the original's generous lookahead.
func NewFilePlayer(sampleRate int, preload time.Duration) *FilePlayer {
	pb := playbuffer.New(framePage, false)
	p := &FilePlayer{sampleRate: sampleRate, pb: pb}
	p.base = newBase("file", pb, preload)
	return p
}

// CanPlay matches local file paths and file:// URIs.
func (p *FilePlayer) CanPlay(uri string) bool {
	return IsFileURI(uri)
}

// IsFileURI reports whether uri names a local file rather than a live
// stream or line-in source — used both by FilePlayer.CanPlay and by
// anything that wants to decide whether a URI's tags can be read from
// disk (tagreader needs a seekable local file).
func IsFileURI(uri string) bool {
	return !strings.HasPrefix(uri, "http://") &&
		!strings.HasPrefix(uri, "https://") &&
		!strings.HasPrefix(uri, "line://")
}

// Load decodes the whole track synchronously into a freshly sized buffer.
// Called from the background goroutine updateCommon spawns on entering the
// preload window.
func (p *FilePlayer) Load(url string, seek time.Duration) error {
	reader, err := codecreader.Open(p.sampleRate, url, seek)
	if err != nil {
		p.markFailed()
		return fmt.Errorf("fileplayer: %w", err)
	}
	p.setReader(reader)
	defer func() {
		reader.Close()
		p.clearReader()
	}()

	if n := reader.SampleCount(); n > 0 {
		p.pb.Resize(playbuffer.NextMultiple(uint64(n), framePage), false)
	}

	loaded := &onceFlag{}
	sink := sinkFunc(func(src []int16) int {
		n := p.pb.Write(src)
		if n > 0 {
			loaded.do(p.markLoaded)
		}
		return n
	})

	if err := reader.Read(sink); err != nil {
		p.markFailed()
		return fmt.Errorf("fileplayer: decode: %w", err)
	}
	loaded.do(p.markLoaded)
	return nil
}

// Update drives the WAIT/CUED/PLAY transitions and kicks off Load once the
// item enters its preload window.
func (p *FilePlayer) Update(now time.Time) {
	p.updateCommon(now, func() {
		item, ok := p.scheduledItem()
		if !ok {
			return
		}
		var seek time.Duration
		if now.After(item.Start) {
			seek = now.Sub(item.Start)
		}
		_ = p.Load(item.URI, seek)
	})
}

// Process drains the preloaded buffer (raw, unscaled) into mix; the Engine
// applies player volume when compositing into the render output.
func (p *FilePlayer) Process(in, mix []int16, nframes int) {
	drainOrZero(p.pb, mix, nframes)
	p.processRMS(mix, nframes)
}

type onceFlag struct {
	mu   sync.Mutex
	done bool
}

func (o *onceFlag) do(f func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return
	}
	o.done = true
	f()
}

type sinkFunc func([]int16) int

func (f sinkFunc) Write(src []int16) int { return f(src) }
