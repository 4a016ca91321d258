// Package codecreader opens a local file or an http(s) stream, decodes it
// to interleaved stereo int16 PCM, resamples it to the engine's working
// rate, and feeds it into a Sink (either a PlayBuffer or a PremixBuffer).
//
// Grounded on original_source/src/dsp/CodecReader.hpp: the estimated
// sample count formula (duration * rate * channels, rounded up), the
// reconnect-friendly open for http(s) sources, and the cancel semantics
// (a binary semaphore the reader holds while decoding; cancel blocks until
// it's released). Go's buffered-channel-of-one plays the semaphore's role.
package codecreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/drgolem/playout/pkg/decoders"
	"github.com/drgolem/playout/pkg/decoders/stream"
	"github.com/drgolem/playout/pkg/types"
)

const channelCount = 2

// Sink is anything CodecReader can push decoded stereo PCM into.
// *playbuffer.PlayBuffer and *playbuffer.PremixBuffer both satisfy it.
type Sink interface {
	Write(src []int16) int
}

// CodecReader decodes one source URL into a Sink at a fixed sample rate.
type CodecReader struct {
	sampleRate  int
	url         string
	seek        time.Duration
	sampleCount int64
	duration    time.Duration
	readSamples atomic.Int64

	decoder    types.AudioDecoder
	httpStream *stream.HTTPProvider

	cancelled atomic.Bool
	done      chan struct{} // buffered(1); held while read() runs, the Go stand-in for the binary semaphore
}

// Open prepares a reader for url (a local path, or an http:// / https://
// stream) resampled to sampleRate. seek is ignored for streaming sources,
// matching the original's "never seek on http" rule.
func Open(sampleRate int, url string, seek time.Duration) (*CodecReader, error) {
	r := &CodecReader{
		sampleRate: sampleRate,
		url:        url,
		seek:       seek,
		done:       make(chan struct{}, 1),
	}
	r.done <- struct{}{}

	if isRemote(url) {
		p, err := stream.NewHTTPProvider(context.Background(), url)
		if err != nil {
			return nil, fmt.Errorf("codecreader: %w", err)
		}
		r.httpStream = p
		r.decoder = stream.NewStreamDecoder(context.Background(), p, p.Format())
		return r, nil
	}

	dec, err := decoders.NewDecoder(url)
	if err != nil {
		return nil, fmt.Errorf("codecreader: %w", err)
	}
	r.decoder = dec

	if fi, statErr := os.Stat(url); statErr == nil {
		rate, channels, bits := dec.GetFormat()
		if rate > 0 && channels > 0 && bits > 0 {
			bytesPerSample := int64(channels * bits / 8)
			if bytesPerSample > 0 {
				totalSamples := fi.Size() / bytesPerSample
				r.duration = time.Duration(float64(totalSamples) / float64(rate) * float64(time.Second))
			}
		}
	}
	if r.duration > 0 {
		r.sampleCount = int64(math.Ceil(r.duration.Seconds()*float64(sampleRate)*channelCount)) + 1
	}

	return r, nil
}

// discardSeek advances the decoder past r.seek by decoding and throwing
// away frames at the source's native rate, before any resampling or
// sink write happens. Mirrors the original's "seek by decode-and-drop"
// behavior for local files; streaming sources never call this (seek is
// ignored for http(s), per Open's doc comment).
func (r *CodecReader) discardSeek(rawBuf []byte, inRate, channels, blockFrames int) error {
	framesToSkip := int64(r.seek.Seconds() * float64(inRate))
	for framesToSkip > 0 && !r.cancelled.Load() {
		want := blockFrames
		if int64(want) > framesToSkip {
			want = int(framesToSkip)
		}
		n, err := r.decoder.DecodeSamples(want, rawBuf)
		if n > 0 {
			framesToSkip -= int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if n == 0 {
				return fmt.Errorf("codecreader: seek: %w", err)
			}
		}
		if n == 0 && err == nil {
			return nil
		}
	}
	return nil
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// SampleCount returns the estimated total interleaved sample count for the
// source, or 0 if unknown (always true for streams).
func (r *CodecReader) SampleCount() int64 { return r.sampleCount }

// Duration returns the estimated track duration, or 0 if unknown.
func (r *CodecReader) Duration() time.Duration { return r.duration }

// ReadSamples returns how many interleaved samples have been pushed to the
// sink so far.
func (r *CodecReader) ReadSamples() int64 { return r.readSamples.Load() }

// Read decodes the whole source into sink, blocking until EOF, a fatal
// decode error, or Cancel. It is safe to call Cancel concurrently.
func (r *CodecReader) Read(sink Sink) error {
	<-r.done
	defer func() { r.done <- struct{}{} }()

	inRate, channels, bits := r.decoder.GetFormat()
	const blockFrames = 4096
	rawBuf := make([]byte, blockFrames*channels*(bits/8))

	if r.httpStream == nil && r.seek > 0 {
		if err := r.discardSeek(rawBuf, inRate, channels, blockFrames); err != nil {
			return err
		}
	}

	resampler, err := newResampler(inRate, r.sampleRate, channels)
	if err != nil {
		return fmt.Errorf("codecreader: resampler: %w", err)
	}
	defer resampler.Close()

	for !r.cancelled.Load() {
		n, decErr := r.decoder.DecodeSamples(blockFrames, rawBuf)
		if n > 0 {
			pcm, convErr := resampler.Convert(rawBuf[:n*channels*(bits/8)])
			if convErr != nil {
				return fmt.Errorf("codecreader: resample: %w", convErr)
			}
			samples := bytesToInt16(pcm)
			written := sink.Write(samples)
			r.readSamples.Add(int64(written))
			if r.sampleCount > 0 && r.readSamples.Load() >= r.sampleCount {
				return nil
			}
		}
		if decErr != nil {
			if errors.Is(decErr, io.EOF) {
				return nil
			}
			if n == 0 {
				return fmt.Errorf("codecreader: decode: %w", decErr)
			}
		}
		if n == 0 && decErr == nil {
			return nil
		}
	}
	return nil
}

// Cancel stops an in-flight Read as soon as possible and blocks until the
// reader has actually released the source.
func (r *CodecReader) Cancel() {
	if r.cancelled.Swap(true) {
		return
	}
	<-r.done
	r.done <- struct{}{}
}

// Close releases the underlying decoder or stream connection.
func (r *CodecReader) Close() error {
	if r.httpStream != nil {
		return r.httpStream.Close()
	}
	if r.decoder != nil {
		return r.decoder.Close()
	}
	return nil
}

func bytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return out
}

