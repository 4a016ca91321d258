package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drgolem/playout/pkg/codecwriter"
)

func TestStartStopProducesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.mp3")

	r := New(8000)
	if err := r.Start(path, codecwriter.Metadata{Title: "test"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.IsRunning() {
		t.Fatalf("expected running after Start")
	}

	samples := make([]int16, 8000*2)
	for i := 0; i < 10; i++ {
		r.Process(samples, 8000)
	}
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	if r.IsRunning() {
		t.Errorf("expected not running after Stop")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("expected non-empty output file")
	}
}

func TestStartTwiceIsNoOp(t *testing.T) {
	dir := t.TempDir()
	r := New(8000)
	path := filepath.Join(dir, "out.mp3")
	if err := r.Start(path, codecwriter.Metadata{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()
	if err := r.Start(path, codecwriter.Metadata{}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
}

func TestProcessBeforeStartIsNoOp(t *testing.T) {
	r := New(8000)
	samples := make([]int16, 100)
	r.Process(samples, 50) // must not panic
}
