package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called.
// Callbacks run synchronously in the goroutine calling Advance, in due-time
// order. Callbacks may schedule further callbacks; those fire in the same
// Advance call if they fall due before the target time.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	c       *Manual
	id      uint64
	due     time.Time
	f       func()
	stopped bool
	fired   bool
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Manual) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &manualTimer{c: c, id: c.seq, due: c.now.Add(d), f: f}
	c.pending = append(c.pending, t)
	return t
}

// Pending returns the number of callbacks scheduled but not yet fired.
func (c *Manual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every callback that falls
// due on the way. Time is set to each callback's due time before it runs.
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	c.mu.Lock()
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// Step advances the clock in increments of step until total has elapsed.
func (c *Manual) Step(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		c.Advance(min(step, total-elapsed))
	}
}

// nextDue pops the earliest callback due at or before target and moves the
// clock to its due time.
func (c *Manual) nextDue(target time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.pending[:0]
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.pending = live
	if len(c.pending) == 0 {
		return nil
	}

	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].due.Equal(c.pending[j].due) {
			return c.pending[i].id < c.pending[j].id
		}
		return c.pending[i].due.Before(c.pending[j].due)
	})

	t := c.pending[0]
	if t.due.After(target) {
		return nil
	}
	t.fired = true
	if t.due.After(c.now) {
		c.now = t.due
	}
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
