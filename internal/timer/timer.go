// Package timer tracks the remaining time of a practice block.
//
// Elapsed time is measured from wall-clock deltas between polls, so slow or
// irregular callback scheduling never desynchronises the remaining time from
// real elapsed time.
package timer

import (
	"sync"
	"time"

	"github.com/abhisek/etude/internal/clock"
)

const (
	// DefaultTickInterval is the polling interval between ticks.
	DefaultTickInterval = 80 * time.Millisecond

	// MaxTickInterval bounds the polling interval.
	MaxTickInterval = 100 * time.Millisecond

	// ExpiryEpsilon is the remaining time at or below which a run expires.
	ExpiryEpsilon = 10 * time.Millisecond
)

// Tick is delivered on every poll of an active run.
type Tick struct {
	Remaining time.Duration
	Progress  float64 // 1 - remaining/duration, in [0,1]
}

// Config holds timer settings.
type Config struct {
	TickInterval time.Duration
}

// DefaultConfig returns the default timer settings.
func DefaultConfig() Config {
	return Config{TickInterval: DefaultTickInterval}
}

// Timer runs at most one countdown at a time.
type Timer struct {
	clock    clock.Clock
	interval time.Duration

	mu     sync.Mutex
	run    *run
	nextID uint64
}

type run struct {
	id        uint64
	duration  time.Duration
	remaining time.Duration
	last      time.Time
	pending   clock.Timer
	onTick    func(Tick)
	onExpire  func()
}

// Handle identifies one run started by Start.
type Handle struct {
	t  *Timer
	id uint64
}

// New creates a Timer. A zero interval uses DefaultTickInterval; intervals
// above MaxTickInterval are clamped.
func New(c clock.Clock, cfg Config) *Timer {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if interval > MaxTickInterval {
		interval = MaxTickInterval
	}
	return &Timer{clock: c, interval: interval}
}

// Interval returns the effective polling interval.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

// Start begins a countdown of duration d, stopping any previous run first.
// onTick fires every poll; when the remaining time reaches zero a final tick
// with progress 1 is delivered, then onExpire fires once and the run ends.
func (t *Timer) Start(d time.Duration, onTick func(Tick), onExpire func()) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.nextID++
	r := &run{
		id:        t.nextID,
		duration:  d,
		remaining: d,
		last:      t.clock.Now(),
		onTick:    onTick,
		onExpire:  onExpire,
	}
	t.run = r
	r.pending = t.clock.AfterFunc(t.interval, func() { t.poll(r) })
	return Handle{t: t, id: r.id}
}

// Stop cancels the active run, if any. Calling Stop on an idle timer does
// nothing.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Running reports whether a run is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run != nil
}

// Remaining returns the remaining time of the active run, or zero.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.run == nil {
		return 0
	}
	return t.run.remaining
}

func (t *Timer) stopLocked() {
	if t.run == nil {
		return
	}
	if t.run.pending != nil {
		t.run.pending.Stop()
	}
	t.run = nil
}

func (t *Timer) poll(r *run) {
	t.mu.Lock()
	if t.run != r {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	dt := now.Sub(r.last)
	if dt < 0 {
		dt = 0
	}
	r.last = now
	r.remaining -= dt
	if r.remaining < 0 {
		r.remaining = 0
	}

	expired := r.remaining <= ExpiryEpsilon
	if expired {
		r.remaining = 0
		t.run = nil
	} else {
		r.pending = t.clock.AfterFunc(t.interval, func() { t.poll(r) })
	}
	tick := Tick{Remaining: r.remaining, Progress: progress(r.duration, r.remaining)}
	onTick, onExpire := r.onTick, r.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(tick)
	}
	if expired && onExpire != nil {
		onExpire()
	}
}

func progress(duration, remaining time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	p := 1 - float64(remaining)/float64(duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Stop cancels the run this handle refers to. It does nothing if a newer run
// has replaced it or it already ended.
func (h Handle) Stop() {
	if h.t == nil {
		return
	}
	h.t.mu.Lock()
	defer h.t.mu.Unlock()
	if h.t.run != nil && h.t.run.id == h.id {
		h.t.stopLocked()
	}
}

// Active reports whether the run this handle refers to is still running.
func (h Handle) Active() bool {
	if h.t == nil {
		return false
	}
	h.t.mu.Lock()
	defer h.t.mu.Unlock()
	return h.t.run != nil && h.t.run.id == h.id
}
