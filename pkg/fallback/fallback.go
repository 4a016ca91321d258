// Package fallback supplies emergency programming — filler tracks from a
// directory, and a last-resort tone — when the main schedule leaves the
// output silent.
//
// Grounded on original_source/src/dsp/FallbackPremix.hpp: the embedded
// PremixPlayer, the directory scan with optional seeded shuffle and m3u
// expansion, the 5 s load-retry interval, and the sine-oscillator
// last-resort path.
package fallback

import (
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/drgolem/playout/pkg/oscillator"
	"github.com/drgolem/playout/pkg/playerr"
	"github.com/drgolem/playout/pkg/player"
	"github.com/drgolem/playout/pkg/playitem"
)

const loadRetryInterval = 5 * time.Second

// maxMixFrames bounds the scratch buffer Process mixes the premix queue
// into; comfortably above any driver block size actually configured
// (typical 512-1024 frames) so Process never allocates on the audio thread.
const maxMixFrames = 4096

// Config controls how Fallback discovers and plays filler content.
type Config struct {
	Dir          string
	BufferTime   time.Duration
	CrossFade    time.Duration
	Shuffle      bool
	SineSynth    bool
	Seed         int64
}

// Fallback is the supervisor goroutine plus the PremixPlayer and oscillator
// pair it drives.
type Fallback struct {
	cfg     Config
	premix *player.PremixPlayer
	osc    *oscillator.SineOscillator

	mu       sync.Mutex
	active   bool
	running  bool
	lastLoad time.Time
	rng      *rand.Rand

	stop chan struct{}
	wg   sync.WaitGroup

	currTrack playitem.Item

	mixBuf []int16
}

// New creates a Fallback for sampleRate audio, not yet started.
func New(sampleRate int, cfg Config) *Fallback {
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &Fallback{
		cfg:    cfg,
		premix: player.NewPremixPlayer(sampleRate, cfg.BufferTime),
		osc:    oscillator.New(sampleRate),
		rng:    rand.New(rand.NewSource(seed)),
		stop:   make(chan struct{}),
		mixBuf: make([]int16, maxMixFrames*2),
	}
}

// Run starts the load-supervisor goroutine. It is a no-op, logged once, if
// the configured directory doesn't exist.
func (f *Fallback) Run() {
	if f.cfg.Dir == "" {
		slog.Error("fallback: directory not set")
		return
	}
	if _, err := os.Stat(f.cfg.Dir); err != nil {
		slog.Error("fallback: directory does not exist", "dir", f.cfg.Dir, "error", err)
		return
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()

	f.wg.Add(1)
	go f.runLoad()
	slog.Debug("fallback running")
}

// Terminate stops the supervisor goroutine and waits for it to exit.
func (f *Fallback) Terminate() {
	f.mu.Lock()
	f.running = false
	f.active = false
	f.mu.Unlock()
	close(f.stop)
	f.wg.Wait()
	f.premix.Close()
}

func (f *Fallback) runLoad() {
	defer f.wg.Done()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.mu.Lock()
			running := f.running
			lastLoad := f.lastLoad
			f.mu.Unlock()
			needsLoad := f.premix.NumTracks() == 0 &&
				(lastLoad.IsZero() || time.Since(lastLoad) >= loadRetryInterval)
			if !running {
				return
			}
			if needsLoad {
				f.load()
				f.mu.Lock()
				f.lastLoad = time.Now()
				f.mu.Unlock()
			}
		}
	}
}

func (f *Fallback) load() {
	slog.Info("fallback: loading queue")

	entries, err := os.ReadDir(f.cfg.Dir)
	if err != nil {
		slog.Error("fallback: read dir failed", "dir", f.cfg.Dir, "error", err)
		return
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(f.cfg.Dir, e.Name()))
	}
	sort.Strings(paths)

	if f.cfg.Shuffle {
		f.rng.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
	}

	queued := 0
	for _, p := range paths {
		select {
		case <-f.stop:
			return
		default:
		}
		if strings.EqualFold(filepath.Ext(p), ".m3u") {
			n := f.loadM3U(p)
			queued += n
			if n == 0 {
				break
			}
			continue
		}
		if !f.enqueue(p) {
			break
		}
		queued++
	}

	if queued > 0 {
		slog.Info("fallback: load done", "tracks", queued)
	} else {
		slog.Warn("fallback: queue empty, reloading later", "retry_interval", loadRetryInterval)
	}
}

func (f *Fallback) loadM3U(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("fallback: failed to open m3u", "path", path, "error", err)
		return 0
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !f.enqueue(line) {
			break
		}
		n++
	}
	return n
}

func (f *Fallback) enqueue(uri string) bool {
	item := playitem.Item{URI: uri}
	if err := f.premix.Enqueue(item); err != nil {
		if err == playerr.ErrBufferFull {
			return false
		}
		slog.Error("fallback: failed to load track", "uri", uri, "error", err)
	}
	return true
}

// IsActive reports whether fallback should currently be mixed into the
// render output.
func (f *Fallback) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Start fades the fallback in. No-op if already active or not running.
func (f *Fallback) Start() {
	f.mu.Lock()
	if f.active || !f.running {
		f.mu.Unlock()
		return
	}
	f.active = true
	f.mu.Unlock()
	slog.Info("fallback start")
	f.premix.Fade(1.0, f.cfg.CrossFade)
}

// Stop fades the fallback out and clears active immediately — the fade
// itself still plays out over CrossFade, matching the original's choice to
// drop mActive right away rather than wait for the fade to finish (see
// SPEC_FULL.md §9).
func (f *Fallback) Stop() {
	f.mu.Lock()
	if !f.active {
		f.mu.Unlock()
		return
	}
	f.active = false
	f.mu.Unlock()
	slog.Info("fallback stop")
	f.premix.Fade(0, f.cfg.CrossFade)
}

// Process mixes the premix queue into out; if it produced nothing and the
// sine synth is enabled, sums the emergency tone in as a last resort.
func (f *Fallback) Process(in, out []int16, nframes int) {
	n := nframes * 2
	if n > len(f.mixBuf) {
		n = len(f.mixBuf)
		nframes = n / 2
	}
	mix := f.mixBuf[:n]
	for i := range mix {
		mix[i] = 0
	}
	f.premix.Process(in, mix, nframes)

	produced := false
	for _, v := range mix {
		if v != 0 {
			produced = true
			break
		}
	}

	vol := f.premix.Volume()
	for i := 0; i < n && i < len(out); i++ {
		v := int32(out[i]) + int32(float64(mix[i])*vol)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}

	if !produced && f.IsActive() && f.cfg.SineSynth {
		for i := 0; i < nframes; i++ {
			l, r := f.osc.Next()
			if i*2 < len(out) {
				out[i*2] += l
			}
			if i*2+1 < len(out) {
				out[i*2+1] += r
			}
		}
	}
}

// Events forwards the embedded PremixPlayer's program-start notifications.
func (f *Fallback) Events() <-chan playitem.Item { return f.premix.Events() }
