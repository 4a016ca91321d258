// Package audioclient opens the input and output audio devices and
// dispatches the driver's real-time callback to a Renderer, following the
// OpenCallback pattern in drgolem-musictools' internal/fileplayer — but
// duplex (both directions) and with both sides resolved by device-name
// prefix instead of a fixed index.
package audioclient

import (
	"fmt"
	"strings"

	"github.com/drgolem/go-portaudio/portaudio"
)

const defaultDeviceIndex = -1

// Renderer is driven once per audio block from the PortAudio callback
// thread. No allocation is permitted inside it.
type Renderer interface {
	RenderCallback(in, out []int16, nframes int)
}

// Config selects devices and format for the duplex stream.
type Config struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	InputNamePrefix  string
	OutputNamePrefix string
}

// AudioClient owns the duplex PortAudio stream.
type AudioClient struct {
	cfg      Config
	stream   *portaudio.PaStream
	renderer Renderer

	inBuf, outBuf []int16 // reused by callback; sized in Start
}

// New prepares a client with default channel count and block size; device
// resolution by name prefix (falling back to the system default when no
// match is found) and opening the stream both happen in Start.
func New(cfg Config) (*AudioClient, error) {
	if cfg.Channels == 0 {
		cfg.Channels = 2
	}
	if cfg.FramesPerBuffer == 0 {
		cfg.FramesPerBuffer = 512
	}
	return &AudioClient{cfg: cfg}, nil
}

// SetRenderer installs the callback target. Must be called before Start.
func (c *AudioClient) SetRenderer(r Renderer) { c.renderer = r }

// Start opens and starts the duplex stream.
func (c *AudioClient) Start() error {
	if c.renderer == nil {
		return fmt.Errorf("audioclient: no renderer set")
	}

	inIdx := resolveDevice(c.cfg.InputNamePrefix)
	outIdx := resolveDevice(c.cfg.OutputNamePrefix)
	c.inBuf = make([]int16, c.cfg.FramesPerBuffer*c.cfg.Channels)
	c.outBuf = make([]int16, c.cfg.FramesPerBuffer*c.cfg.Channels)

	c.stream = &portaudio.PaStream{
		InputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  inIdx,
			ChannelCount: c.cfg.Channels,
			SampleFormat: portaudio.SampleFmtInt16,
		},
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  outIdx,
			ChannelCount: c.cfg.Channels,
			SampleFormat: portaudio.SampleFmtInt16,
		},
		SampleRate: float64(c.cfg.SampleRate),
	}

	if err := c.stream.OpenCallback(c.cfg.FramesPerBuffer, c.callback); err != nil {
		return fmt.Errorf("audioclient: open stream: %w", err)
	}
	if err := c.stream.StartStream(); err != nil {
		return fmt.Errorf("audioclient: start stream: %w", err)
	}
	return nil
}

// Stop stops and closes the stream.
func (c *AudioClient) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.StopStream(); err != nil {
		return fmt.Errorf("audioclient: stop stream: %w", err)
	}
	return c.stream.Close()
}

func (c *AudioClient) callback(input, output []byte, frameCount uint, timeInfo *portaudio.StreamCallbackTimeInfo, statusFlags portaudio.StreamCallbackFlags) portaudio.StreamCallbackResult {
	nframes := int(frameCount)
	n := nframes * c.cfg.Channels

	if cap(c.inBuf) < n {
		c.inBuf = make([]int16, n)
		c.outBuf = make([]int16, n)
	}
	in, out := c.inBuf[:n], c.outBuf[:n]
	bytesToInt16(input, in)
	for i := range out {
		out[i] = 0
	}

	c.renderer.RenderCallback(in, out, nframes)

	int16ToBytes(out, output)
	return portaudio.Continue
}

func bytesToInt16(b []byte, out []int16) {
	for i := range out {
		out[i] = 0
		if i*2+1 < len(b) {
			out[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
		}
	}
}

func int16ToBytes(samples []int16, dst []byte) {
	for i, s := range samples {
		if i*2+1 >= len(dst) {
			break
		}
		dst[i*2] = byte(s)
		dst[i*2+1] = byte(s >> 8)
	}
}

// resolveDevice matches namePrefix against the available device names,
// case-insensitively, falling back to the system default device.
func resolveDevice(namePrefix string) int {
	if namePrefix == "" {
		return defaultDeviceIndex
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return defaultDeviceIndex
	}
	for _, d := range devices {
		if strings.HasPrefix(strings.ToLower(d.Name), strings.ToLower(namePrefix)) {
			return d.Index
		}
	}
	return defaultDeviceIndex
}
