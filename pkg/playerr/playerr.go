// Package playerr defines the sentinel error taxonomy used across the
// playout engine so callers can branch on failure kind with errors.Is
// instead of parsing messages.
package playerr

import "errors"

var (
	// ErrLoadOpen means the codec could not open a URL: missing file, refused
	// connection, unrecognized format. Terminal for the load attempt.
	ErrLoadOpen = errors.New("load: open failed")

	// ErrLoadTransient means a reconnect happened mid-read. Callers absorb it
	// and keep going; it is never surfaced as a Player state change.
	ErrLoadTransient = errors.New("load: transient reconnect")

	// ErrBufferFull means a PremixPlayer load would overflow its buffer. Not a
	// real failure — the queue is simply full for now.
	ErrBufferFull = errors.New("premix buffer full")

	// ErrDeviceFailure means the audio device could not be opened or started.
	ErrDeviceFailure = errors.New("audio device failure")

	// ErrEncoderFailure means a CodecWriter could not start or encode.
	ErrEncoderFailure = errors.New("encoder failure")

	// ErrConfigInvalid means a configuration value failed validation and the
	// default was substituted.
	ErrConfigInvalid = errors.New("invalid configuration")
)
