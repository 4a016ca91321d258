package params

import (
	"path/filepath"
	"testing"
)

func TestOpenMissingFileReturnsZeroValue(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := s.Get()
	if got.InputGainDB != 0 || got.OutputGainDB != 0 {
		t.Errorf("expected zero-value params, got %+v", got)
	}
}

func TestSetClampsOutOfRangeGains(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "params.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(Params{InputGainDB: 100, OutputGainDB: -100}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := s.Get()
	if got.InputGainDB != maxGainDB {
		t.Errorf("expected input gain clamped to %v, got %v", maxGainDB, got.InputGainDB)
	}
	if got.OutputGainDB != minGainDB {
		t.Errorf("expected output gain clamped to %v, got %v", minGainDB, got.OutputGainDB)
	}
}

func TestSetPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(Params{InputGainDB: 3.5, OutputGainDB: -2.0}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Get()
	if got.InputGainDB != 3.5 || got.OutputGainDB != -2.0 {
		t.Errorf("expected persisted values to round-trip, got %+v", got)
	}
}
