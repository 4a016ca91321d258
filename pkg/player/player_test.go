package player

import (
	"testing"
	"time"

	"github.com/drgolem/playout/pkg/playitem"
)

func TestLinePlayerScheduleReachesPlay(t *testing.T) {
	p := NewLinePlayer(time.Second)
	now := time.Now()
	item := playitem.Item{Start: now, End: now.Add(time.Minute), URI: "line://studio"}
	p.Schedule(item)
	if p.State() != StateWait {
		t.Fatalf("after Schedule: state=%v, want WAIT", p.State())
	}
	p.Update(now)
	if p.State() != StateLoad && p.State() != StateCued {
		t.Fatalf("after Update at start: state=%v, want LOAD or CUED", p.State())
	}
	// allow the background Load goroutine to run
	time.Sleep(20 * time.Millisecond)
	p.Update(now)
	if p.State() != StateCued && p.State() != StatePlay {
		t.Fatalf("after settle: state=%v, want CUED or PLAY", p.State())
	}
	p.Update(now)
	if p.State() != StatePlay {
		t.Fatalf("state=%v, want PLAY", p.State())
	}
}

func TestLinePlayerProcessCopiesInput(t *testing.T) {
	p := NewLinePlayer(time.Second)
	in := []int16{1, 2, 3, 4}
	mix := make([]int16, 4)
	p.Process(in, mix, 2)
	for i := range in {
		if mix[i] != in[i] {
			t.Errorf("mix[%d] = %d, want %d", i, mix[i], in[i])
		}
	}
}

func TestStopResetsToIdle(t *testing.T) {
	p := NewLinePlayer(time.Second)
	now := time.Now()
	p.Schedule(playitem.Item{Start: now, End: now.Add(time.Minute), URI: "line://studio"})
	p.Stop()
	if p.State() != StateIdle {
		t.Fatalf("after Stop: state=%v, want IDLE", p.State())
	}
	if p.Volume() != 1.0 {
		t.Errorf("after Stop: volume=%v, want 1.0", p.Volume())
	}
}

func TestFadeReachesTarget(t *testing.T) {
	p := NewLinePlayer(time.Second)
	p.Fade(0, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if v := p.Volume(); v != 0 {
		t.Errorf("Volume after fade = %v, want 0", v)
	}
}

func TestFadeNoOpWhileFading(t *testing.T) {
	p := NewLinePlayer(time.Second)
	p.Fade(0, 200*time.Millisecond)
	p.Fade(1, 200*time.Millisecond) // should be ignored
	time.Sleep(10 * time.Millisecond)
	if !p.fading.Load() {
		t.Fatalf("expected still fading")
	}
}
