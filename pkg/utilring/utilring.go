// Package utilring is the general-purpose single-producer/single-consumer
// byte ring used by the Recorder and StreamOutput pipeline. Unlike
// pkg/playbuffer, Read here allows partial reads — it returns whatever is
// available, up to len(dst) — matching the contract the original
// implementation's utility ring buffer has always had. The two contracts
// are kept as two distinct types per package, each documented at its call
// site, rather than unified behind a shared partial-read flag.
package utilring

import (
	"sync/atomic"

	"github.com/drgolem/playout/pkg/types"
)

// Re-exported for callers that want to errors.Is against the shared
// sentinels without importing pkg/types directly.
var (
	ErrInsufficientSpace = types.ErrInsufficientSpace
	ErrInsufficientData  = types.ErrInsufficientData
)

// RingBuffer is a lock-free SPSC ring buffer of bytes.
type RingBuffer struct {
	buffer   []byte
	size     uint64
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a ring buffer with the given size, rounded up to a power of two.
func New(size uint64) *RingBuffer {
	size = nextPowerOf2(size)
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
		mask:   size - 1,
	}
}

// Write writes all of data or returns ErrInsufficientSpace without writing
// anything. Must only be called by the producer.
func (rb *RingBuffer) Write(data []byte) (int, error) {
	dataLen := uint64(len(data))
	if dataLen == 0 {
		return 0, nil
	}
	if dataLen > rb.AvailableWrite() {
		return 0, ErrInsufficientSpace
	}
	rb.writeAt(rb.writePos.Load(), data)
	rb.writePos.Add(dataLen)
	return int(dataLen), nil
}

// WriteDrop writes as much of data as currently fits and silently discards
// the rest, incrementing the dropped-byte counter. This is the only write
// mode the audio callback is allowed to use: it must never block or fail.
func (rb *RingBuffer) WriteDrop(data []byte) int {
	avail := rb.AvailableWrite()
	n := uint64(len(data))
	if n > avail {
		rb.dropped.Add(n - avail)
		n = avail
	}
	if n == 0 {
		return 0
	}
	rb.writeAt(rb.writePos.Load(), data[:n])
	rb.writePos.Add(n)
	return int(n)
}

// Dropped returns the cumulative number of bytes discarded by WriteDrop.
func (rb *RingBuffer) Dropped() uint64 {
	return rb.dropped.Load()
}

func (rb *RingBuffer) writeAt(writePos uint64, data []byte) {
	dataLen := uint64(len(data))
	start := writePos & rb.mask
	end := (writePos + dataLen) & rb.mask
	if end > start {
		copy(rb.buffer[start:end], data)
	} else {
		firstChunk := rb.size - start
		copy(rb.buffer[start:], data[:firstChunk])
		copy(rb.buffer[:end], data[firstChunk:])
	}
}

// Read reads up to len(data) bytes, returning what's available (which may be
// less than requested, or (0, ErrInsufficientData) if the buffer is empty).
// Must only be called by the consumer.
func (rb *RingBuffer) Read(data []byte) (int, error) {
	dataLen := uint64(len(data))
	if dataLen == 0 {
		return 0, nil
	}
	available := rb.AvailableRead()
	if available == 0 {
		return 0, ErrInsufficientData
	}
	toRead := min(dataLen, available)
	readPos := rb.readPos.Load()
	start := readPos & rb.mask
	end := (readPos + toRead) & rb.mask
	if end > start {
		copy(data[:toRead], rb.buffer[start:end])
	} else {
		firstChunk := rb.size - start
		copy(data[:firstChunk], rb.buffer[start:])
		copy(data[firstChunk:toRead], rb.buffer[:end])
	}
	rb.readPos.Add(toRead)
	return int(toRead), nil
}

// AvailableWrite returns the number of bytes free for writing.
func (rb *RingBuffer) AvailableWrite() uint64 {
	return rb.size - rb.AvailableRead()
}

// AvailableRead returns the number of bytes available for reading.
func (rb *RingBuffer) AvailableRead() uint64 {
	return rb.writePos.Load() - rb.readPos.Load()
}

// Size returns the ring's total capacity in bytes.
func (rb *RingBuffer) Size() uint64 {
	return rb.size
}

// Reset clears the buffer and its dropped-byte counter.
func (rb *RingBuffer) Reset() {
	rb.readPos.Store(0)
	rb.writePos.Store(0)
	rb.dropped.Store(0)
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
