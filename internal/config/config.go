// Package config loads playoutd's runtime configuration: built-in defaults,
// optionally overridden by a JSON file, optionally overridden again by
// environment variables — the same three-layer precedence as
// original_source/src/core/Config.hpp's default/map/file constructors,
// collapsed here into a single loader instead of three separate types.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/drgolem/playout/pkg/playerr"
)

const (
	defaultSocketPath    = "/tmp/playoutd.sock"
	defaultDeviceName    = "default"
	defaultSampleRate    = 44100
	defaultFramesPerBuf  = 512
	defaultPreload       = 3600 * time.Second
	defaultFallbackXfade = 5 * time.Second
	defaultSilenceStart  = 10 * time.Second
	defaultSilenceStop   = 1 * time.Second
)

// Fallback controls the emergency-programming directory and mix behavior.
type Fallback struct {
	Dir        string `json:"dir"`
	BufferTime Dur    `json:"buffer_time"`
	CrossFade  Dur    `json:"cross_fade"`
	Shuffle    bool   `json:"shuffle"`
	SineSynth  bool   `json:"sine_synth"`
	Seed       int64  `json:"seed"`
}

// ControlServer addresses for the REST and line-protocol control surfaces.
type ControlServer struct {
	HTTPAddr   string `json:"http_addr"`
	SocketPath string `json:"socket_path"`
}

// Config is the complete set of tunables playoutd needs to start.
type Config struct {
	SampleRate      int           `json:"sample_rate"`
	FramesPerBuffer int           `json:"frames_per_buffer"`
	InputDevice     string        `json:"input_device"`
	OutputDevice    string        `json:"output_device"`
	Preload         Dur           `json:"preload"`
	RecordDir       string        `json:"record_dir"`
	IcecastURL      string        `json:"icecast_url"`
	IcecastMetaURL  string        `json:"icecast_meta_url"`
	Fallback        Fallback      `json:"fallback"`
	ControlServer   ControlServer `json:"control_server"`
	ParamsPath      string        `json:"params_path"`
}

// Dur wraps time.Duration so it can round-trip through JSON as a Go
// duration string ("5s") rather than an opaque integer of nanoseconds.
type Dur time.Duration

// MarshalJSON encodes the duration as its String() form.
func (d Dur) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON parses a duration string.
func (d *Dur) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Dur(parsed)
	return nil
}

// Defaults returns the built-in configuration, matching the original's
// hard-coded fallbacks for device name and socket path.
func Defaults() Config {
	return Config{
		SampleRate:      defaultSampleRate,
		FramesPerBuffer: defaultFramesPerBuf,
		InputDevice:     defaultDeviceName,
		OutputDevice:    defaultDeviceName,
		Preload:         Dur(defaultPreload),
		Fallback: Fallback{
			CrossFade: Dur(defaultFallbackXfade),
		},
		ControlServer: ControlServer{
			HTTPAddr:   ":8090",
			SocketPath: defaultSocketPath,
		},
		ParamsPath: "params.json",
	}
}

// Load builds a Config starting from Defaults(), overlaying path's JSON
// contents if path is non-empty and exists, then overlaying a fixed set of
// environment variables — the same three-layer precedence
// original_source/src/core/Config.hpp implements with three constructors.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLAYOUT_INPUT_DEVICE"); v != "" {
		cfg.InputDevice = v
	}
	if v := os.Getenv("PLAYOUT_OUTPUT_DEVICE"); v != "" {
		cfg.OutputDevice = v
	}
	if v := os.Getenv("PLAYOUT_SOCKET_PATH"); v != "" {
		cfg.ControlServer.SocketPath = v
	}
	if v := os.Getenv("PLAYOUT_HTTP_ADDR"); v != "" {
		cfg.ControlServer.HTTPAddr = v
	}
	if v := os.Getenv("PLAYOUT_RECORD_DIR"); v != "" {
		cfg.RecordDir = v
	}
	if v := os.Getenv("PLAYOUT_ICECAST_URL"); v != "" {
		cfg.IcecastURL = v
	}
	if v := os.Getenv("PLAYOUT_FALLBACK_DIR"); v != "" {
		cfg.Fallback.Dir = v
	}
}

// Validate checks the invariants the engine relies on at startup, returning
// an error that wraps playerr.ErrConfigInvalid, so callers can test it with
// errors.Is.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d: %w", c.SampleRate, playerr.ErrConfigInvalid)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("config: frames_per_buffer must be positive, got %d: %w", c.FramesPerBuffer, playerr.ErrConfigInvalid)
	}
	return nil
}
