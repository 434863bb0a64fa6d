// Package metronome emits periodic pulses at a configurable tempo and runs
// fixed-length count-ins.
package metronome

import (
	"sync"
	"time"

	"github.com/abhisek/etude/internal/clock"
)

// Pulse is a single metronome beat.
type Pulse struct {
	Index  int
	Accent bool
	At     time.Time // planned beat time
}

// Metronome runs at most one pulse driver at a time. Starting a new run
// (Start or RunCountIn) stops the previous one first.
type Metronome struct {
	clock clock.Clock

	mu     sync.Mutex
	run    *run
	nextID uint64
}

type run struct {
	id       uint64
	bpm      int
	interval time.Duration
	index    int // index of the next pulse
	limit    int // 0 means unbounded

	// completing is set once a count-in has emitted its last beat.
	completing bool

	lastAt  time.Time
	nextAt  time.Time
	pending clock.Timer

	onPulse    func(Pulse)
	onComplete func()
}

// Handle identifies one run. A handle only ever controls the run it was
// issued for.
type Handle struct {
	m  *Metronome
	id uint64
}

// New creates an idle Metronome.
func New(c clock.Clock) *Metronome {
	return &Metronome{clock: c}
}

// Start emits pulses at bpm until stopped. The first pulse is due
// immediately. An invalid tempo starts nothing and returns an inactive
// handle.
func (m *Metronome) Start(bpm int, onPulse func(Pulse)) Handle {
	return m.begin(bpm, 0, onPulse, nil)
}

// RunCountIn emits exactly beats pulses at bpm, the first accented, then
// calls onComplete once on the following downbeat (one interval after the
// last beat) and stops. beats <= 0 uses DefaultCountInBeats.
func (m *Metronome) RunCountIn(bpm, beats int, onBeat func(index int, accent bool), onComplete func()) Handle {
	if beats <= 0 {
		beats = DefaultCountInBeats
	}
	var onPulse func(Pulse)
	if onBeat != nil {
		onPulse = func(p Pulse) { onBeat(p.Index, p.Accent) }
	}
	return m.begin(bpm, beats, onPulse, onComplete)
}

func (m *Metronome) begin(bpm, limit int, onPulse func(Pulse), onComplete func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if !ValidTempo(bpm) {
		return Handle{}
	}

	m.nextID++
	now := m.clock.Now()
	r := &run{
		id:         m.nextID,
		bpm:        bpm,
		interval:   Interval(bpm),
		limit:      limit,
		nextAt:     now,
		onPulse:    onPulse,
		onComplete: onComplete,
	}
	m.run = r
	r.pending = m.clock.AfterFunc(0, func() { m.fire(r) })
	return Handle{m: m, id: r.id}
}

// SetTempo changes the tempo of the active run. The change applies from the
// next pulse: a pending pulse is re-timed to one new interval after the
// last emitted pulse. Reports false for an invalid tempo or an idle
// metronome.
func (m *Metronome) SetTempo(bpm int) bool {
	if !ValidTempo(bpm) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.run
	if r == nil {
		return false
	}
	r.bpm = bpm
	r.interval = Interval(bpm)
	if r.index == 0 {
		// The first pulse is already due now.
		return true
	}

	now := m.clock.Now()
	next := r.lastAt.Add(r.interval)
	if next.Before(now) {
		next = now
	}
	if r.pending != nil {
		r.pending.Stop()
	}
	r.nextAt = next
	r.pending = m.clock.AfterFunc(next.Sub(now), func() { m.fire(r) })
	return true
}

// Stop halts the active run. Calling Stop on an idle metronome does nothing.
func (m *Metronome) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Running reports whether a run is active.
func (m *Metronome) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run != nil
}

// Tempo returns the tempo of the active run, or zero when idle.
func (m *Metronome) Tempo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run == nil {
		return 0
	}
	return m.run.bpm
}

func (m *Metronome) stopLocked() {
	if m.run == nil {
		return
	}
	if m.run.pending != nil {
		m.run.pending.Stop()
	}
	m.run = nil
}

func (m *Metronome) fire(r *run) {
	m.mu.Lock()
	if m.run != r {
		m.mu.Unlock()
		return
	}

	if r.completing {
		// The downbeat after the last count-in beat.
		m.run = nil
		onComplete := r.onComplete
		m.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return
	}

	now := m.clock.Now()
	at := r.nextAt
	p := Pulse{Index: r.index, Accent: IsAccent(r.index), At: at}
	r.index++
	r.lastAt = at
	r.completing = r.limit > 0 && r.index >= r.limit

	// Schedule against the planned beat grid so callback latency does not
	// accumulate. Missed beats collapse into one immediate pulse.
	next := at.Add(r.interval)
	if next.Before(now) {
		next = now
	}
	r.nextAt = next
	r.pending = m.clock.AfterFunc(next.Sub(now), func() { m.fire(r) })
	onPulse := r.onPulse
	m.mu.Unlock()

	if onPulse != nil {
		onPulse(p)
	}
}

// Stop halts the run this handle refers to, if it is still current.
func (h Handle) Stop() {
	if h.m == nil {
		return
	}
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if h.m.run != nil && h.m.run.id == h.id {
		h.m.stopLocked()
	}
}

// Active reports whether the run this handle refers to is still current.
func (h Handle) Active() bool {
	if h.m == nil {
		return false
	}
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return h.m.run != nil && h.m.run.id == h.id
}
