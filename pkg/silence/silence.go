// Package silence latches a silence condition once the rolling RMS level
// has sat below a threshold for a minimum duration, and clears it
// immediately on the first block seen above threshold.
package silence

import (
	"sync/atomic"
	"time"

	"github.com/drgolem/playout/pkg/rms"
)

// Detector wraps an rms.Window with latch/clear hysteresis.
type Detector struct {
	window       *rms.Window
	thresholdDB  float64
	startAfter   time.Duration
	stopAfter    time.Duration
	belowSince   time.Time
	aboveSince   time.Time
	latched      atomic.Bool
}

// New creates a Detector. thresholdDB is the level (in dBFS, negative)
// below which the signal is considered silent. startAfter is how long the
// level must stay below threshold before silence latches. stopAfter is
// accepted and stored for callers that configure it symmetrically with
// startAfter, but the latch itself clears unconditionally on the first
// above-threshold block, matching the source detector.
func New(windowSize int, thresholdDB float64, startAfter, stopAfter time.Duration) *Detector {
	return &Detector{
		window:      rms.New(windowSize),
		thresholdDB: thresholdDB,
		startAfter:  startAfter,
		stopAfter:   stopAfter,
	}
}

// Process folds in one block at time now and returns whether silence is
// latched after processing this block.
func (d *Detector) Process(samples []int16, nframes int, now time.Time) bool {
	level := d.window.Process(samples, nframes)

	if level < d.thresholdDB {
		if d.belowSince.IsZero() {
			d.belowSince = now
		}
		d.aboveSince = time.Time{}
		if !d.latched.Load() && now.Sub(d.belowSince) >= d.startAfter {
			d.latched.Store(true)
		}
	} else {
		d.aboveSince = now
		d.belowSince = time.Time{}
		d.latched.Store(false)
	}

	return d.latched.Load()
}

// IsSilent reports the latched state without processing a new block.
func (d *Detector) IsSilent() bool {
	return d.latched.Load()
}

// Reset clears the latch and timers.
func (d *Detector) Reset() {
	d.latched.Store(false)
	d.belowSince = time.Time{}
	d.aboveSince = time.Time{}
}
