package fallback

import (
	"testing"
	"time"
)

func TestRunWithMissingDirLogsAndDoesNotStart(t *testing.T) {
	f := New(48000, Config{Dir: "/nonexistent/path/for/fallback/test"})
	f.Run()
	if f.running {
		t.Errorf("running = true, want false when directory missing")
	}
}

func TestStartStopTogglesActive(t *testing.T) {
	dir := t.TempDir()
	f := New(48000, Config{Dir: dir, CrossFade: 0})
	f.running = true
	if f.IsActive() {
		t.Fatalf("expected inactive before Start")
	}
	f.Start()
	if !f.IsActive() {
		t.Fatalf("expected active after Start")
	}
	f.Stop()
	time.Sleep(5 * time.Millisecond)
	if f.IsActive() {
		t.Errorf("expected inactive after Stop")
	}
}

func TestStartNoOpWhenNotRunning(t *testing.T) {
	f := New(48000, Config{})
	f.Start()
	if f.IsActive() {
		t.Errorf("Start should no-op when fallback isn't running")
	}
}
