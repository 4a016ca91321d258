// Package engine wires a Calendar, the fixed Player set, the Fallback
// supervisor, the Recorder/StreamOutput encode paths, and the SilenceDetector
// into the single coordinator the AudioClient's render callback drives.
//
// Grounded on original_source's Engine/Mixer composite (no single header —
// behavior distilled across CodecReader.hpp/FallbackPremix.hpp/Recorder.hpp)
// and on drgolem-musictools' internal/fileplayer for the worker-goroutine /
// render-callback split.
package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/drgolem/playout/pkg/codecwriter"
	"github.com/drgolem/playout/pkg/fallback"
	"github.com/drgolem/playout/pkg/playitem"
	"github.com/drgolem/playout/pkg/player"
	"github.com/drgolem/playout/pkg/recorder"
	"github.com/drgolem/playout/pkg/silence"
	"github.com/drgolem/playout/pkg/tagreader"
)

const (
	tickInterval = 100 * time.Millisecond

	silenceWindowBlocks = 20
	silenceThresholdDB  = -90.0
	silenceStartAfter   = 10 * time.Second
	silenceStopAfter    = 1 * time.Second
)

// Config parameterizes an Engine.
type Config struct {
	SampleRate  int
	BlockSize   int
	Preload     time.Duration
	RecordDir   string // local directory recordings are written into
	IcecastURL  string // empty disables live relay output
	IcecastMeta string // ICY metadata update URL, empty disables pushes
	Fallback    fallback.Config
}

// Engine binds the calendar schedule to the fixed Player set and drives both
// the worker tick and the hard-real-time render callback.
type Engine struct {
	cfg      Config
	calendar Calendar

	players []player.Player
	set     *playitem.Set

	fb       *fallback.Fallback
	rec      *recorder.Recorder
	stream   *recorder.StreamOutput
	silence  *silence.Detector

	mixBuf []int16

	mu          sync.Mutex
	currProgram playitem.Program

	stop chan struct{}
	wg   sync.WaitGroup
}

// New assembles an Engine over calendar with the default Player set: two
// StreamPlayers and one LinePlayer.
func New(calendar Calendar, cfg Config) *Engine {
	if cfg.BlockSize == 0 {
		cfg.BlockSize = 1024
	}
	e := &Engine{
		cfg:      cfg,
		calendar: calendar,
		set:      playitem.NewSet(),
		fb:       fallback.New(cfg.SampleRate, cfg.Fallback),
		rec:      recorder.New(cfg.SampleRate),
		stream:   recorder.NewStreamOutput(cfg.SampleRate),
		silence:  silence.New(silenceWindowBlocks, silenceThresholdDB, silenceStartAfter, silenceStopAfter),
		mixBuf:   make([]int16, cfg.BlockSize*2),
		stop:     make(chan struct{}),
	}
	e.players = []player.Player{
		player.NewStreamPlayer(cfg.SampleRate, cfg.Preload),
		player.NewStreamPlayer(cfg.SampleRate, cfg.Preload),
		player.NewLinePlayer(cfg.Preload),
	}
	return e
}

// Start launches the fallback supervisor and the worker tick goroutine.
func (e *Engine) Start() error {
	e.fb.Run()
	e.wg.Add(1)
	go e.runWorker()
	slog.Info("engine started", "players", len(e.players))
	return nil
}

// Stop shuts every owned component down in dependency order: worker tick,
// fallback, recorder, stream output, each player.
func (e *Engine) Stop() {
	close(e.stop)
	e.wg.Wait()

	e.fb.Terminate()
	e.rec.Stop()
	e.stream.Stop()
	for _, p := range e.players {
		p.Stop()
	}
	slog.Info("engine stopped")
}

func (e *Engine) runWorker() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: worker tick panic recovered", "panic", r)
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

// tick runs one worker-goroutine pass: silence/fallback interlock, calendar
// scheduling, per-player Update, event drain, program-change reaction.
func (e *Engine) tick(now time.Time) {
	if e.silence.IsSilent() {
		e.fb.Start()
	} else {
		e.fb.Stop()
	}

	for _, item := range e.calendar.Items(now) {
		if !e.calendar.IsInScheduleTime(item, now, e.cfg.Preload) {
			continue
		}
		if e.set.Contains(item) {
			continue
		}
		scheduled := false
		for _, p := range e.players {
			if p.CanPlay(item.URI) && p.State() == player.StateIdle {
				p.Schedule(item)
				scheduled = true
				break
			}
		}
		if !scheduled {
			slog.Warn("engine: no idle player can play item", "uri", item.URI)
		}
		e.set.Add(item)
	}

	for _, p := range e.players {
		p.Update(now)
	}

	for _, p := range e.players {
		e.drainEvents(p.Events())
	}
	e.drainEvents(e.fb.Events())

	for _, item := range e.set.Items() {
		if now.After(item.End) {
			e.set.Remove(item)
		}
	}
}

func (e *Engine) drainEvents(ch <-chan playitem.Item) {
	for {
		select {
		case item := <-ch:
			e.onItemStarted(item)
		default:
			return
		}
	}
}

// onItemStarted reacts to a PlayItemDidStartCallback: on a program change,
// restart the recorder under a new filename and push stream metadata.
func (e *Engine) onItemStarted(item playitem.Item) {
	e.mu.Lock()
	changed := !item.Program.Equal(e.currProgram)
	if changed {
		e.currProgram = item.Program
	}
	e.mu.Unlock()

	if !changed {
		return
	}

	slog.Info("engine: program change", "show", item.Program.ShowName, "episode", item.Program.EpisodeTitle)

	meta := codecwriter.Metadata{
		Title:  item.Program.EpisodeTitle,
		Artist: item.Program.ShowName,
	}
	if player.IsFileURI(item.URI) {
		tags := tagreader.Read(item.URI)
		meta.Album = tags["album"]
		meta.Track = tags["track"]
		meta.Date = tags["date"]
		meta.Genre = tags["genre"]
		meta.Comment = tags["comment"]
		meta.Composer = tags["composer"]
		meta.Performer = tags["performer"]
		meta.Publisher = tags["publisher"]
	}

	if e.cfg.RecordDir != "" {
		e.rec.Stop()
		name := fmt.Sprintf("%s_%s.mp3", time.Now().UTC().Format("20060102T150405Z"), sanitizeName(item.Program.ShowName))
		path := filepath.Join(e.cfg.RecordDir, name)
		if err := e.rec.Start(path, meta); err != nil {
			slog.Error("engine: failed to start recorder", "error", err)
		}
	}

	if e.cfg.IcecastURL != "" && !e.stream.IsRunning() {
		e.stream.Start(e.cfg.IcecastURL, meta, 5*time.Second)
	}
	if e.cfg.IcecastMeta != "" {
		if err := e.stream.UpdateMetadata(e.cfg.IcecastMeta, item.Program.ShowName); err != nil {
			slog.Error("engine: metadata push failed", "error", err)
		}
	}
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "show"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}

// RenderCallback implements audioclient.Renderer: it is invoked from the
// driver's real-time thread once per audio block and must never allocate,
// block, or log.
func (e *Engine) RenderCallback(in, out []int16, nframes int) {
	n := nframes * 2
	if n > len(out) {
		n = len(out)
	}
	if n > len(e.mixBuf) {
		// The driver asked for more frames than the mix buffer was sized for
		// (should not happen when FramesPerBuffer matches engine.Config.BlockSize);
		// clamp rather than allocate on the audio thread.
		n = len(e.mixBuf)
	}
	for i := 0; i < n; i++ {
		out[i] = 0
	}

	mix := e.mixBuf

	for _, p := range e.players {
		if !p.IsActive() {
			continue
		}
		for i := range mix[:n] {
			mix[i] = 0
		}
		p.Process(in, mix[:n], nframes)
		vol := p.Volume()
		for i := 0; i < n; i++ {
			v := int32(out[i]) + int32(float64(mix[i])*vol)
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			out[i] = int16(v)
		}
	}

	e.silence.Process(out[:n], nframes, time.Now())

	if e.fb.IsActive() {
		e.fb.Process(in, out[:n], nframes)
	}

	if e.rec.IsRunning() {
		e.rec.Process(out[:n], nframes)
	}
	if e.stream.IsRunning() {
		e.stream.Process(out[:n], nframes)
	}
}

// Status is a snapshot suitable for the control server's /status endpoint.
type Status struct {
	Players     []PlayerStatus `json:"players"`
	FallbackOn  bool           `json:"fallback_active"`
	Recording   bool           `json:"recording"`
	Streaming   bool           `json:"streaming"`
	SilenceNow  bool           `json:"silence_detected"`
	ShowName    string         `json:"show_name"`
	EpisodeName string         `json:"episode_name"`
}

// PlayerStatus reports one Player's current state for the control surface.
type PlayerStatus struct {
	Name   string  `json:"name"`
	State  string  `json:"state"`
	Volume float64 `json:"volume"`
}

// Status returns a snapshot of every owned component's condition.
func (e *Engine) Status() Status {
	e.mu.Lock()
	prog := e.currProgram
	e.mu.Unlock()

	s := Status{
		FallbackOn:  e.fb.IsActive(),
		Recording:   e.rec.IsRunning(),
		Streaming:   e.stream.IsRunning(),
		SilenceNow:  e.silence.IsSilent(),
		ShowName:    prog.ShowName,
		EpisodeName: prog.EpisodeTitle,
	}
	for _, p := range e.players {
		s.Players = append(s.Players, PlayerStatus{
			Name:   p.Name(),
			State:  p.State().String(),
			Volume: p.Volume(),
		})
	}
	return s
}
