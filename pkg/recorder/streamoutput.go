package recorder

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/drgolem/playout/pkg/codecwriter"
)

// StreamOutput wraps a Recorder pointed at an Icecast/Shoutcast relay with
// a fixed-backoff reconnect loop. Grounded on
// original_source/src/dsp/StreamOutput.hpp — the original's sleep-then-
// recursive-call retry becomes a plain for-loop here so a long-lived relay
// doesn't grow the goroutine's stack on every reconnect.
type StreamOutput struct {
	rec     *Recorder
	running atomic.Bool
	stop    chan struct{}
}

// NewStreamOutput creates a StreamOutput at sampleRate.
func NewStreamOutput(sampleRate int) *StreamOutput {
	return &StreamOutput{rec: New(sampleRate)}
}

// IsRunning reports whether the underlying Recorder is actively streaming.
func (s *StreamOutput) IsRunning() bool { return s.rec.IsRunning() }

// Start begins streaming to url, retrying every retryInterval on failure
// until Stop is called. retryInterval<=0 disables retries.
func (s *StreamOutput) Start(url string, meta codecwriter.Metadata, retryInterval time.Duration) {
	s.running.Store(true)
	s.stop = make(chan struct{})

	if err := s.rec.Start(url, meta); err != nil {
		slog.Error("streamoutput: failed to start", "error", err)
		if retryInterval > 0 {
			go s.retryLoop(url, meta, retryInterval)
		}
		return
	}
	slog.Debug("streamoutput start", "url", url)
}

func (s *StreamOutput) retryLoop(url string, meta codecwriter.Metadata, interval time.Duration) {
	for {
		select {
		case <-s.stop:
			return
		case <-time.After(interval):
		}
		if !s.running.Load() {
			return
		}
		slog.Warn("streamoutput: retrying", "interval", interval)
		if err := s.rec.Start(url, meta); err != nil {
			slog.Error("streamoutput: retry failed", "error", err)
			continue
		}
		return
	}
}

// Stop halts streaming and any pending reconnect attempts.
func (s *StreamOutput) Stop() {
	if !s.running.Swap(false) {
		return
	}
	slog.Debug("streamoutput stop")
	close(s.stop)
	s.rec.Stop()
}

// UpdateMetadata pushes the now-playing song title to an ICY metadata
// endpoint and asserts the server's success marker is present in the body.
func (s *StreamOutput) UpdateMetadata(icyURL, song string) error {
	reqURL := icyURL + "&mode=updinfo&song=" + url.QueryEscape(song)
	resp, err := http.Get(reqURL)
	if err != nil {
		return fmt.Errorf("streamoutput: metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("streamoutput: metadata request failed with status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("streamoutput: read metadata response: %w", err)
	}
	if !strings.Contains(string(body), "<message>Metadata update successful</message>") {
		return fmt.Errorf("streamoutput: metadata update failed, response: %s", body)
	}
	return nil
}

// Process writes samples into the underlying Recorder's ring.
func (s *StreamOutput) Process(samples []int16, nframes int) {
	s.rec.Process(samples, nframes)
}
