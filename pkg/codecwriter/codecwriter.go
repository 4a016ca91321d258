// Package codecwriter encodes interleaved stereo int16 PCM to MP3 at a
// fixed bitrate and writes it to a file or an HTTP stream body, ending
// either kind of output with a trailing ID3v1 block.
//
// Grounded on the StreamingEncoder in
// other_examples/60f52195_alkime-memos__internal-audio-encoder.go.go
// (buffer-to-threshold, shine-mp3 encode, stereo-duplication workaround)
// and on original_source/src/dsp/CodecWriter.hpp for the bitrate and
// metadata dictionary this realizes as ID3v1.
package codecwriter

import (
	"fmt"
	"io"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

const (
	bitrateKbps     = 192
	bufferThreshold = 4096 * 2 // samples, stereo interleaved
)

// Metadata is the recording's tag set, populated from the active PlayItem's
// Program plus, for local-file sources, tagreader's output. ID3v1 itself has
// no fields for Composer/Performer/Publisher; encodeID3v1 carries every
// other field into the trailer it writes.
type Metadata struct {
	Title     string
	Artist    string
	Album     string
	Track     string
	Date      string
	Genre     string
	Comment   string
	Composer  string
	Performer string
	Publisher string
}

// Writer batches PCM into an MP3 stream via shine-mp3 and flushes an ID3v1
// trailer tag on Close.
type Writer struct {
	enc    *mp3encoder.Encoder
	out    io.Writer
	buf    []int16
	meta   Metadata
}

// New creates a Writer at the given sample rate, encoding stereo PCM to out
// as it's written.
func New(out io.Writer, sampleRate int, meta Metadata) *Writer {
	return &Writer{
		enc:  mp3encoder.NewEncoder(sampleRate, 2),
		out:  out,
		buf:  make([]int16, 0, bufferThreshold),
		meta: meta,
	}
}

// Write appends interleaved stereo PCM samples, encoding in bufferThreshold
// batches. len(samples) must be a multiple of 2.
func (w *Writer) Write(samples []int16) error {
	w.buf = append(w.buf, samples...)
	for len(w.buf) >= bufferThreshold {
		batch := w.buf[:bufferThreshold]
		if err := w.enc.Write(w.out, batch); err != nil {
			return fmt.Errorf("codecwriter: encode: %w", err)
		}
		w.buf = append(w.buf[:0], w.buf[bufferThreshold:]...)
	}
	return nil
}

// Flush encodes any buffered samples smaller than one batch.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.enc.Write(w.out, w.buf); err != nil {
		return fmt.Errorf("codecwriter: flush: %w", err)
	}
	w.buf = w.buf[:0]
	return nil
}

// Close flushes remaining samples and appends an ID3v1 trailer tag with the
// writer's metadata, whether out is a file or a stream body.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	tag := encodeID3v1(w.meta)
	_, err := w.out.Write(tag)
	return err
}
