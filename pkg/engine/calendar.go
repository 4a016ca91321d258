package engine

import (
	"sync"
	"time"

	"github.com/drgolem/playout/pkg/playitem"
)

// Calendar supplies the schedule the Engine plays out. A real deployment
// backs this with an HTTP service (out of scope here); StaticCalendar
// below is the minimal in-memory implementation used for tests and local
// operation.
type Calendar interface {
	Items(now time.Time) []playitem.Item
	IsInScheduleTime(item playitem.Item, now time.Time, preload time.Duration) bool
}

// StaticCalendar serves a fixed, in-memory list of PlayItems.
type StaticCalendar struct {
	mu    sync.RWMutex
	items []playitem.Item
}

// NewStaticCalendar creates a calendar over items.
func NewStaticCalendar(items []playitem.Item) *StaticCalendar {
	return &StaticCalendar{items: append([]playitem.Item(nil), items...)}
}

// SetItems replaces the calendar's schedule wholesale.
func (c *StaticCalendar) SetItems(items []playitem.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]playitem.Item(nil), items...)
}

// Items returns every item in the schedule, irrespective of now — the
// Engine itself filters by schedule window each tick.
func (c *StaticCalendar) Items(now time.Time) []playitem.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]playitem.Item(nil), c.items...)
}

// IsInScheduleTime reports whether item should already be under the
// Engine's management at now: from the start of its preload window through
// its end.
func (c *StaticCalendar) IsInScheduleTime(item playitem.Item, now time.Time, preload time.Duration) bool {
	return item.IsInScheduleTime(now, preload)
}
