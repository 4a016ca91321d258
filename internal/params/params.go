// Package params persists the two operator-tunable gain controls — input
// and output — to a small JSON file, writing the whole struct back out on
// every change.
package params

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const (
	minGainDB = -24.0
	maxGainDB = 24.0
)

// Params is the persisted operator-tunable state.
type Params struct {
	InputGainDB  float64 `json:"inputGain"`
	OutputGainDB float64 `json:"outputGain"`
}

// Clamp bounds both gains to [-24, 24] dB.
func (p Params) Clamp() Params {
	p.InputGainDB = clamp(p.InputGainDB, minGainDB, maxGainDB)
	p.OutputGainDB = clamp(p.OutputGainDB, minGainDB, maxGainDB)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Store is a file-backed, mutex-guarded holder for Params, read once at
// startup and rewritten wholesale on every Set.
type Store struct {
	path string
	mu   sync.Mutex
	cur  Params
}

// Open loads path if it exists, or starts from zero-valued Params
// (0 dB on both gains) if it doesn't.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("params: read %s: %w", path, err)
	}
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("params: parse %s: %w", path, err)
	}
	s.cur = p.Clamp()
	return s, nil
}

// Get returns the current parameters.
func (s *Store) Get() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Set clamps p to the valid gain range and persists it to disk.
func (s *Store) Set(p Params) error {
	p = p.Clamp()
	s.mu.Lock()
	s.cur = p
	path := s.path
	s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("params: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("params: write %s: %w", path, err)
	}
	return nil
}
