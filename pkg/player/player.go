package player

import (
	"time"

	"github.com/drgolem/playout/pkg/playitem"
)

// Player is the common surface the Engine drives every source variant
// through: scheduling, the worker-tick state machine, and the real-time
// render path.
type Player interface {
	Name() string
	CanPlay(uri string) bool
	Schedule(item playitem.Item)
	Load(url string, seek time.Duration) error
	Process(in, mix []int16, nframes int)
	Update(now time.Time)
	Stop()
	State() State
	Volume() float64
	SetVolume(v float64)
	IsActive() bool
	Events() <-chan playitem.Item
	Fade(target float64, duration time.Duration)
}

var (
	_ Player = (*FilePlayer)(nil)
	_ Player = (*StreamPlayer)(nil)
	_ Player = (*LinePlayer)(nil)
)
