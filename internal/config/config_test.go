package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SampleRate != defaultSampleRate {
		t.Errorf("expected default sample rate, got %d", cfg.SampleRate)
	}
	if cfg.InputDevice != defaultDeviceName {
		t.Errorf("expected default input device, got %q", cfg.InputDevice)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"sample_rate":48000,"input_device":"Scarlett"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("expected file override sample rate 48000, got %d", cfg.SampleRate)
	}
	if cfg.InputDevice != "Scarlett" {
		t.Errorf("expected file override input device, got %q", cfg.InputDevice)
	}
	if cfg.OutputDevice != defaultDeviceName {
		t.Errorf("expected untouched field to keep default, got %q", cfg.OutputDevice)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"input_device":"FromFile"}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("PLAYOUT_INPUT_DEVICE", "FromEnv")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InputDevice != "FromEnv" {
		t.Errorf("expected env to win over file, got %q", cfg.InputDevice)
	}
}

func TestValidateRejectsNonPositiveSampleRate(t *testing.T) {
	cfg := Defaults()
	cfg.SampleRate = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for zero sample rate")
	}
}
