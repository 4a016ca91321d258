package engine

import (
	"testing"
	"time"

	"github.com/drgolem/playout/pkg/fallback"
	"github.com/drgolem/playout/pkg/playitem"
	"github.com/drgolem/playout/pkg/player"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		SampleRate: 8000,
		BlockSize:  256,
		Preload:    time.Second,
		Fallback: fallback.Config{
			Dir:       t.TempDir(),
			CrossFade: 10 * time.Millisecond,
		},
	}
}

func TestNewAssemblesDefaultPlayerSet(t *testing.T) {
	cal := NewStaticCalendar(nil)
	e := New(cal, Config{SampleRate: 8000, BlockSize: 256})
	if len(e.players) != 3 {
		t.Fatalf("expected 3 default players, got %d", len(e.players))
	}
}

func TestTickSchedulesIdlePlayerForInWindowItem(t *testing.T) {
	now := time.Now()
	item := playitem.Item{
		Start: now.Add(-time.Second),
		End:   now.Add(time.Hour),
		URI:   "line://studio",
	}
	cal := NewStaticCalendar([]playitem.Item{item})
	e := New(cal, Config{SampleRate: 8000, BlockSize: 256, Preload: time.Minute})

	e.tick(now)

	if e.set.Len() != 1 {
		t.Fatalf("expected item added to EngineSet, len=%d", e.set.Len())
	}
	found := false
	for _, p := range e.players {
		if p.Name() == "line" && p.State() != player.StateIdle {
			found = true
		}
	}
	if !found {
		t.Errorf("expected line player to leave IDLE after scheduling")
	}
}

func TestTickDoesNotDoubleScheduleSameItem(t *testing.T) {
	now := time.Now()
	item := playitem.Item{
		Start: now.Add(-time.Second),
		End:   now.Add(time.Hour),
		URI:   "line://studio",
	}
	cal := NewStaticCalendar([]playitem.Item{item})
	e := New(cal, Config{SampleRate: 8000, BlockSize: 256, Preload: time.Minute})

	e.tick(now)
	e.tick(now)

	if e.set.Len() != 1 {
		t.Errorf("expected dedup to keep EngineSet at 1, got %d", e.set.Len())
	}
}

func TestRenderCallbackProducesSilenceWithNoActivePlayers(t *testing.T) {
	cal := NewStaticCalendar(nil)
	e := New(cal, Config{SampleRate: 8000, BlockSize: 256})

	in := make([]int16, 512)
	out := make([]int16, 512)
	for i := range out {
		out[i] = 123
	}
	e.RenderCallback(in, out, 256)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silent output at %d, got %d", i, v)
		}
	}
}
