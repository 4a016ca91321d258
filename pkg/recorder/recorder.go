// Package recorder captures the mixed output to an MP3 file or an Icecast
// relay, via a PCM ring buffer the audio thread never blocks on.
//
// Grounded on original_source/src/dsp/Recorder.hpp (ring size, worker
// lifecycle) and src/dsp/StreamOutput.hpp (reconnect loop, ICY metadata
// push).
package recorder

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/playout/pkg/codecwriter"
	"github.com/drgolem/playout/pkg/utilring"
)

const (
	ringSamples  = 65536
	channelCount = 2
)

// Recorder owns a PCM ring and a background worker draining it into a
// CodecWriter. process() (the audio-thread entrypoint) never blocks: a
// worker that falls behind causes samples to be dropped, not the render
// callback to stall.
type Recorder struct {
	sampleRate int

	ring    *utilring.RingBuffer
	running atomic.Bool

	mu     sync.Mutex
	writer *codecwriter.Writer
	closer func() error
	cancel chan struct{}
	wg     sync.WaitGroup
}

// New creates a Recorder at sampleRate, not yet started.
func New(sampleRate int) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		ring:       utilring.New(ringSamples * 2 * 2), // int16 stereo bytes
	}
}

// Start begins recording to url — a local file path or an http(s) stream
// endpoint — tagging the output, file or stream alike, with meta. No-op if
// already running.
func (r *Recorder) Start(url string, meta codecwriter.Metadata) error {
	if r.running.Load() {
		slog.Debug("recorder: already running")
		return nil
	}

	var out *os.File
	var body io.WriteCloser
	var err error

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		body, err = newHTTPBodyWriter(url)
		if err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
	} else {
		out, err = os.OpenFile(url, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("recorder: open %s: %w", url, err)
		}
	}

	var sink io.Writer
	var closer func() error
	if out != nil {
		sink, closer = out, out.Close
	} else {
		sink, closer = body, body.Close
	}

	r.mu.Lock()
	r.writer = codecwriter.New(sink, r.sampleRate, meta)
	r.closer = closer
	r.cancel = make(chan struct{})
	r.mu.Unlock()

	r.ring.Reset()
	r.running.Store(true)
	r.wg.Add(1)
	go r.runWorker()
	slog.Info("recorder start", "url", url)
	return nil
}

func (r *Recorder) runWorker() {
	defer r.wg.Done()
	defer r.running.Store(false)

	r.mu.Lock()
	writer, closer, cancel := r.writer, r.closer, r.cancel
	r.mu.Unlock()

	buf := make([]byte, 4096)
	samples := make([]int16, len(buf)/2)
	for {
		select {
		case <-cancel:
			writer.Close()
			if closer != nil {
				closer()
			}
			return
		default:
		}

		n, err := r.ring.Read(buf)
		if err != nil || n == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		nSamples := n / 2
		for i := 0; i < nSamples; i++ {
			samples[i] = int16(buf[i*2]) | int16(buf[i*2+1])<<8
		}
		if err := writer.Write(samples[:nSamples]); err != nil {
			slog.Error("recorder: write failed", "error", err)
			writer.Close()
			if closer != nil {
				closer()
			}
			return
		}
	}
}

// Stop cancels the worker, joins it, and flushes the ring.
func (r *Recorder) Stop() {
	if !r.running.Load() {
		return
	}
	slog.Debug("recorder: stopping")
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		close(cancel)
	}
	r.wg.Wait()
	r.ring.Reset()
	slog.Info("recorder stopped")
}

// IsRunning reports whether the worker is active.
func (r *Recorder) IsRunning() bool { return r.running.Load() }

// Process writes nframes stereo frames into the ring, dropping overflow
// rather than blocking. Called from the audio thread.
func (r *Recorder) Process(samples []int16, nframes int) {
	if !r.running.Load() {
		return
	}
	n := nframes * channelCount
	if n > len(samples) {
		n = len(samples)
	}
	var buf [4096]byte
	for start := 0; start < n; start += len(buf) / 2 {
		m := n - start
		if m > len(buf)/2 {
			m = len(buf) / 2
		}
		for i := 0; i < m; i++ {
			buf[i*2] = byte(samples[start+i])
			buf[i*2+1] = byte(samples[start+i] >> 8)
		}
		r.ring.WriteDrop(buf[:m*2])
	}
}

// Dropped returns the cumulative number of bytes dropped by Process
// because the worker had fallen behind.
func (r *Recorder) Dropped() uint64 { return r.ring.Dropped() }

// newHTTPBodyWriter posts a chunked-transfer body to url as it's written
// to, used for Icecast/Shoutcast source relays.
func newHTTPBodyWriter(url string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	req, err := http.NewRequest(http.MethodPut, url, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "audio/mpeg")
	client := &http.Client{}
	go func() {
		resp, err := client.Do(req)
		if err != nil {
			slog.Error("recorder: stream request failed", "error", err)
			return
		}
		resp.Body.Close()
	}()
	return pw, nil
}
