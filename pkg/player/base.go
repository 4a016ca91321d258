package player

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/playout/pkg/codecreader"
	"github.com/drgolem/playout/pkg/playitem"
	"github.com/drgolem/playout/pkg/rms"
)

const (
	defaultPreload   = 3600 * time.Second
	defaultRMSBlocks = 20
	fadeStepsPerSec  = 100
)

// buffer is the subset of PlayBuffer/PremixBuffer that base needs to drain
// on the audio thread and reset/close on Stop. Both concrete buffer types
// satisfy it without adaptation.
type buffer interface {
	Read(dst []int16) (int, bool)
	Reset()
	Close()
}

// Reader is the subset of codecreader.CodecReader a variant's Load() uses.
type Reader interface {
	Read(sink codecreader.Sink) error
	Cancel()
	Close() error
}

// base carries the state machine, fade, RMS and scheduling plumbing common
// to every player variant. Variants embed it and supply Load/Process/CanPlay.
type base struct {
	name string

	state   atomic.Int32
	volBits atomic.Uint64

	mu      sync.Mutex
	item    playitem.Item
	hasItem bool
	preload time.Duration

	buf buffer

	fading   atomic.Bool
	fadeStop chan struct{}
	fadeWG   sync.WaitGroup

	rmsWindow *rms.Window

	events chan playitem.Item

	readerMu sync.Mutex
	reader   Reader
	loadWG   sync.WaitGroup
}

func newBase(name string, buf buffer, preload time.Duration) base {
	if preload <= 0 {
		preload = defaultPreload
	}
	b := base{
		name:      name,
		preload:   preload,
		buf:       buf,
		rmsWindow: rms.New(defaultRMSBlocks),
		events:    make(chan playitem.Item, 4),
	}
	b.volBits.Store(math.Float64bits(1.0))
	return b
}

func (b *base) Name() string { return b.name }

func (b *base) State() State { return State(b.state.Load()) }

func (b *base) setState(s State) { b.state.Store(int32(s)) }

func (b *base) Volume() float64 { return math.Float64frombits(b.volBits.Load()) }

func (b *base) SetVolume(v float64) { b.volBits.Store(math.Float64bits(v)) }

// IsActive reports whether the player should be mixed into the render
// output this block: playing, or fading out of a just-stopped state.
func (b *base) IsActive() bool {
	s := b.State()
	return s == StatePlay || (b.fading.Load() && s != StateIdle)
}

// Schedule latches item and moves IDLE -> WAIT.
func (b *base) Schedule(item playitem.Item) {
	b.mu.Lock()
	b.item = item
	b.hasItem = true
	b.mu.Unlock()
	b.setState(StateWait)
}

func (b *base) scheduledItem() (playitem.Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.item, b.hasItem
}

// Events delivers PlayItemDidStartCallback notifications; the Engine drains
// it on the worker tick rather than holding a back-pointer to the Engine.
func (b *base) Events() <-chan playitem.Item { return b.events }

func (b *base) fireStarted(item playitem.Item) {
	select {
	case b.events <- item:
	default:
	}
}

// markLoaded transitions LOAD -> CUED once the reader has begun returning
// samples (or, for variants with nothing to decode, immediately).
func (b *base) markLoaded() { b.setState(StateCued) }

func (b *base) markFailed() { b.setState(StateFail) }

// updateCommon runs the WAIT/CUED/PLAY transitions shared by every variant.
// startLoad is invoked in its own goroutine exactly once, when the item
// enters its preload window.
func (b *base) updateCommon(now time.Time, startLoad func()) {
	item, ok := b.scheduledItem()
	if !ok {
		return
	}

	switch b.State() {
	case StateWait:
		if !now.Before(item.ScheduleStart(b.preload)) {
			b.setState(StateLoad)
			b.loadWG.Add(1)
			go func() {
				defer b.loadWG.Done()
				startLoad()
			}()
		}
	case StateCued:
		if !now.Before(item.Start) && !now.After(item.End) {
			b.setState(StatePlay)
			b.fireStarted(item)
		}
	case StatePlay:
		if item.FadeOutTime > 0 && !b.fading.Load() && !now.Before(item.End.Add(-item.FadeOutTime)) {
			b.Fade(0, item.FadeOutTime)
		}
		if !now.Before(item.End) {
			b.stopLocked(false)
		}
	}
}

// Fade ramps volume to target over duration along squared curves: a rise
// covers t² of the distance to target, a fall keeps (1-t)² of the distance
// above it; duration<=0 snaps immediately. Only one fade
// runs at a time — calling Fade while one is in flight is a no-op.
func (b *base) Fade(target float64, duration time.Duration) {
	if !b.fading.CompareAndSwap(false, true) {
		return
	}
	start := b.Volume()
	stop := make(chan struct{})
	b.fadeStop = stop

	b.fadeWG.Add(1)
	go func() {
		defer b.fadeWG.Done()
		defer b.fading.Store(false)

		if duration <= 0 {
			b.SetVolume(target)
			return
		}
		steps := int(duration.Seconds() * fadeStepsPerSec)
		if steps < 1 {
			steps = 1
		}
		interval := duration / time.Duration(steps)

		for i := 1; i <= steps; i++ {
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
			t := float64(i) / float64(steps)
			var vol float64
			if target >= start {
				vol = start + (target-start)*t*t
			} else {
				vol = target + (start-target)*(1-t)*(1-t)
			}
			b.SetVolume(vol)
		}
		b.SetVolume(target)
	}()
}

// Stop is idempotent: cancels any in-flight loader, joins the fade
// goroutine, resets the buffer and returns to IDLE.
func (b *base) Stop() {
	b.stopLocked(true)
}

func (b *base) stopLocked(clearItem bool) {
	b.readerMu.Lock()
	if b.reader != nil {
		b.reader.Cancel()
	}
	b.readerMu.Unlock()
	b.loadWG.Wait()

	if b.fading.Load() && b.fadeStop != nil {
		close(b.fadeStop)
	}
	b.fadeWG.Wait()

	if b.buf != nil {
		b.buf.Reset()
	}

	if clearItem {
		b.mu.Lock()
		b.hasItem = false
		b.mu.Unlock()
	}
	b.setState(StateIdle)
	b.SetVolume(1.0)
}

// setReader records the in-flight loader so Stop can cancel it.
func (b *base) setReader(r Reader) {
	b.readerMu.Lock()
	b.reader = r
	b.readerMu.Unlock()
}

func (b *base) clearReader() {
	b.readerMu.Lock()
	b.reader = nil
	b.readerMu.Unlock()
}

// processRMS folds one block of (already-mixed) output samples into the
// rolling RMS window, in dBFS, for status reporting.
func (b *base) processRMS(out []int16, nframes int) float64 {
	return b.rmsWindow.Process(out, nframes)
}

// drainOrZero reads nframes*2 samples from buf into out; on a refused
// partial read (buffer not ready) it zeroes out instead, matching the
// render callback's "silence for this block" contract.
func drainOrZero(buf buffer, out []int16, nframes int) {
	n := nframes * 2
	if n > len(out) {
		n = len(out)
	}
	if _, ok := buf.Read(out[:n]); !ok {
		for i := range out[:n] {
			out[i] = 0
		}
	}
}
