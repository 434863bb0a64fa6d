// Package session runs a practice session: it walks the catalog block by
// block, drives the block timer and the metronome, and tracks hints, tempo
// and cue fades.
//
// All state lives behind one mutex. Timer and metronome callbacks carry the
// epoch they were started under and are dropped once the machine has moved
// on, so a cancelled run can never act on newer state.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/clock"
	"github.com/abhisek/etude/internal/metronome"
	"github.com/abhisek/etude/internal/store"
	"github.com/abhisek/etude/internal/timer"
)

const (
	// MaxHints is the hint budget of a fresh record.
	MaxHints = store.DefaultHints

	// CountInBeats is the length of the count-in before metronome blocks.
	CountInBeats = metronome.DefaultCountInBeats

	// HintDisplayDuration is how long presentation layers show hint text.
	HintDisplayDuration = 3500 * time.Millisecond

	dateLayout = "2006-01-02"
)

// Persister stores what a session produces. Failures are logged and never
// interrupt the session.
type Persister interface {
	SaveRecord(ctx context.Context, rec store.Record) error
	AppendCheckIn(ctx context.Context, sessionID string, entry store.CheckInEntry) error
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the time source for the timer and metronome.
func WithClock(c clock.Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithPersister sets where records, check-ins and session events go.
func WithPersister(p Persister) Option {
	return func(m *Machine) { m.persister = p }
}

// WithRecord seeds hints and tempo from a stored record. Out-of-range
// values fall back to defaults.
func WithRecord(rec store.Record) Option {
	return func(m *Machine) {
		m.hints = rec.HintsRemaining
		m.tempo = rec.TempoBPM
		m.lastUsed = rec.LastUsedDate
	}
}

// WithTickInterval sets the timer polling interval.
func WithTickInterval(d time.Duration) Option {
	return func(m *Machine) { m.tickInterval = d }
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(m *Machine) { m.sessionID = id }
}

// Machine is the session state machine. It is safe for concurrent use.
type Machine struct {
	cat          *catalog.Catalog
	clock        clock.Clock
	timer        *timer.Timer
	metro        *metronome.Metronome
	persister    Persister
	logger       *slog.Logger
	sessionID    string
	tickInterval time.Duration

	mu             sync.Mutex
	cursor         catalog.Cursor
	lifecycle      Lifecycle
	hints          int
	tempo          int
	lastUsed       string
	diagramFade    float64
	fingeringFade  float64
	remaining      time.Duration
	progress       float64
	metronomeOn    bool
	lastBeat       Beat
	beatCount      uint64
	epoch          uint64
	version        uint64
	closed         bool
	subscribers    map[int]func(Snapshot)
	nextSubscriber int
}

// New creates a machine positioned at the first block in READY and records
// a session start.
func New(cat *catalog.Catalog, opts ...Option) *Machine {
	m := &Machine{
		cat:         cat,
		clock:       clock.Real(),
		logger:      slog.Default(),
		hints:       MaxHints,
		tempo:       metronome.DefaultBPM,
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(m)
	}

	if m.hints < 0 || m.hints > MaxHints {
		m.hints = MaxHints
	}
	if !metronome.ValidTempo(m.tempo) {
		m.tempo = metronome.DefaultBPM
	}
	m.tempo = metronome.ClampTempo(m.tempo)
	if m.sessionID == "" {
		m.sessionID = uuid.NewString()
	}

	m.timer = timer.New(m.clock, timer.Config{TickInterval: m.tickInterval})
	m.metro = metronome.New(m.clock)

	m.cursor = cat.First()
	m.enterReadyLocked()
	m.appendEvent(store.ActionStart)
	return m
}

// SessionID returns the session identifier.
func (m *Machine) SessionID() string {
	return m.sessionID
}

// Catalog returns the catalog the session runs through.
func (m *Machine) Catalog() *catalog.Catalog {
	return m.cat
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. fn is
// called without the machine lock held and may call back into the machine.
// The returned function unsubscribes.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	id := m.nextSubscriber
	m.nextSubscriber++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// BeginBlock starts the current block. Metronome blocks go through a
// count-in first; other blocks become ACTIVE at once. Outside READY it does
// nothing.
func (m *Machine) BeginBlock() {
	m.update(func() bool {
		if m.lifecycle != Ready {
			return false
		}
		m.haltLocked()
		b := m.block()
		if b.UsesMetronome {
			m.lifecycle = CountIn
			m.metronomeOn = true
			epoch := m.epoch
			m.metro.RunCountIn(m.tempo, CountInBeats,
				func(index int, accent bool) { m.onCountInBeat(epoch, index, accent) },
				func() { m.onCountInDone(epoch) })
			return true
		}
		m.startActiveLocked(false)
		return true
	})
}

// Back returns to the previous block, or the last block of the previous
// phase. At the very first block it only resets the block to READY. In DONE
// it does nothing.
func (m *Machine) Back() {
	m.update(func() bool {
		if m.lifecycle == Done {
			return false
		}
		m.haltLocked()
		switch {
		case m.cursor.Block > 0:
			m.cursor.Block--
		case m.cursor.Phase > 0:
			m.cursor.Phase--
			m.cursor.Block = m.cat.BlockCount(m.cursor.Phase) - 1
		}
		m.enterReadyLocked()
		return true
	})
}

// Skip abandons the current block and advances without a check-in.
func (m *Machine) Skip() {
	m.update(func() bool {
		if m.lifecycle == Done {
			return false
		}
		m.haltLocked()
		m.advanceLocked()
		return true
	})
}

// UseHint spends one hint and returns its text. On diagram blocks the fades
// are raised to the hint floors until the next tick recomputes them. It
// reports false when no hint is left or the session is done.
func (m *Machine) UseHint() (string, bool) {
	var text string
	var used bool
	m.update(func() bool {
		if m.lifecycle == Done || m.hints <= 0 {
			return false
		}
		m.hints--
		b := m.block()
		if b.UsesDiagram {
			m.diagramFade = max(m.diagramFade, DiagramHintFloor)
			m.fingeringFade = max(m.fingeringFade, FingeringHintFloor)
		}
		m.saveRecordLocked()
		text = m.cat.HintFor(b)
		used = true
		return true
	})
	return text, used
}

// SubmitCheckIn records value for the current phase and advances. It only
// acts in CHECK_IN and ignores blank values.
func (m *Machine) SubmitCheckIn(value string) bool {
	value = strings.TrimSpace(value)
	var ok bool
	m.update(func() bool {
		if m.lifecycle != CheckIn || value == "" {
			return false
		}
		entry := store.CheckInEntry{
			Date:  m.today(),
			Phase: m.cat.PhaseAt(m.cursor).Name,
			Value: value,
		}
		if m.persister != nil {
			if err := m.persister.AppendCheckIn(context.Background(), m.sessionID, entry); err != nil {
				m.logger.Warn("failed to save check-in", "session_id", m.sessionID, "error", err)
			}
		}
		m.saveRecordLocked()
		m.advanceLocked()
		ok = true
		return true
	})
	return ok
}

// SetTempo changes the tempo. Non-positive values are rejected; others are
// clamped to [metronome.MinBPM, metronome.MaxBPM]. A running metronome picks
// the new tempo up from its next pulse. Not available during a count-in or
// after the session is done.
func (m *Machine) SetTempo(bpm int) bool {
	if !metronome.ValidTempo(bpm) {
		return false
	}
	bpm = metronome.ClampTempo(bpm)
	var ok bool
	m.update(func() bool {
		if m.lifecycle == CountIn || m.lifecycle == Done {
			return false
		}
		ok = true
		if bpm == m.tempo {
			return false
		}
		m.tempo = bpm
		if m.metronomeOn {
			m.metro.SetTempo(bpm)
		}
		m.saveRecordLocked()
		return true
	})
	return ok
}

// AdjustTempo shifts the tempo by delta BPM. The result is clamped like
// SetTempo; delta is bounded first so the sum cannot overflow.
func (m *Machine) AdjustTempo(delta int) bool {
	delta = max(-metronome.MaxBPM, min(delta, metronome.MaxBPM))
	m.mu.Lock()
	bpm := m.tempo + delta
	m.mu.Unlock()
	return m.SetTempo(metronome.ClampTempo(bpm))
}

// ToggleMetronome starts or stops the metronome at the current tempo. Not
// available during a count-in or after the session is done.
func (m *Machine) ToggleMetronome() bool {
	var ok bool
	m.update(func() bool {
		if m.lifecycle == CountIn || m.lifecycle == Done {
			return false
		}
		if m.metronomeOn {
			m.metro.Stop()
			m.metronomeOn = false
		} else {
			m.startMetronomeLocked()
		}
		ok = true
		return true
	})
	return ok
}

// Close stops the timer and metronome and drops all subscribers. Closing an
// unfinished session records it as abandoned. Close is idempotent.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.haltLocked()
	m.subscribers = nil
	if m.lifecycle != Done {
		m.appendEvent(store.ActionAbandon)
	}
}

// update runs fn under the lock and, if fn reports a change, publishes a new
// snapshot to subscribers after the lock is released.
func (m *Machine) update(fn func() bool) {
	m.mu.Lock()
	if m.closed || !fn() {
		m.mu.Unlock()
		return
	}
	m.version++
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, s := range m.subscribers {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (m *Machine) onCountInBeat(epoch uint64, index int, accent bool) {
	m.update(func() bool {
		if epoch != m.epoch || m.lifecycle != CountIn {
			return false
		}
		m.recordBeatLocked(index, accent, true)
		return true
	})
}

func (m *Machine) onCountInDone(epoch uint64) {
	m.update(func() bool {
		if epoch != m.epoch || m.lifecycle != CountIn {
			return false
		}
		m.startActiveLocked(true)
		return true
	})
}

func (m *Machine) onPulse(epoch uint64, p metronome.Pulse) {
	m.update(func() bool {
		if epoch != m.epoch || !m.metronomeOn {
			return false
		}
		m.recordBeatLocked(p.Index, p.Accent, false)
		return true
	})
}

func (m *Machine) onTick(epoch uint64, t timer.Tick) {
	m.update(func() bool {
		if epoch != m.epoch || m.lifecycle != Active {
			return false
		}
		m.remaining = t.Remaining
		m.progress = t.Progress
		if m.block().UsesDiagram {
			m.fingeringFade = FingeringFade(t.Progress)
			m.diagramFade = DiagramFade(t.Progress)
		}
		return true
	})
}

func (m *Machine) onExpire(epoch uint64) {
	m.update(func() bool {
		if epoch != m.epoch || m.lifecycle != Active {
			return false
		}
		m.haltLocked()
		m.remaining = 0
		m.progress = 1
		if m.block().RequiresCheckin {
			m.lifecycle = CheckIn
			return true
		}
		m.advanceLocked()
		return true
	})
}

// startActiveLocked moves to ACTIVE and starts the block clock. withMetronome
// starts the metronome too; otherwise it is explicitly stopped.
func (m *Machine) startActiveLocked(withMetronome bool) {
	m.haltLocked()
	m.lifecycle = Active
	b := m.block()
	m.remaining = b.Duration
	m.progress = 0

	epoch := m.epoch
	m.timer.Start(b.Duration,
		func(t timer.Tick) { m.onTick(epoch, t) },
		func() { m.onExpire(epoch) })
	if withMetronome {
		m.startMetronomeLocked()
	}
}

func (m *Machine) startMetronomeLocked() {
	epoch := m.epoch
	h := m.metro.Start(m.tempo, func(p metronome.Pulse) { m.onPulse(epoch, p) })
	m.metronomeOn = h.Active()
}

func (m *Machine) recordBeatLocked(index int, accent, countIn bool) {
	m.beatCount++
	m.lastBeat = Beat{Index: index, Accent: accent, CountIn: countIn, At: m.clock.Now()}
}

// haltLocked stops the timer and metronome and invalidates their callbacks.
func (m *Machine) haltLocked() {
	m.epoch++
	m.timer.Stop()
	m.metro.Stop()
	m.metronomeOn = false
}

// advanceLocked moves to the next block, or finishes the session.
func (m *Machine) advanceLocked() {
	switch {
	case !m.cat.IsLastBlockInPhase(m.cursor):
		m.cursor.Block++
	case !m.cat.IsLastPhase(m.cursor):
		m.cursor.Phase++
		m.cursor.Block = 0
	default:
		m.lifecycle = Done
		m.remaining = 0
		m.saveRecordLocked()
		m.appendEvent(store.ActionComplete)
		return
	}
	m.enterReadyLocked()
}

func (m *Machine) enterReadyLocked() {
	b := m.block()
	m.lifecycle = Ready
	m.remaining = b.Duration
	m.progress = 0
	m.lastBeat = Beat{}
	if b.UsesDiagram {
		m.diagramFade, m.fingeringFade = 1, 1
	} else {
		m.diagramFade, m.fingeringFade = 0, 0
	}
}

func (m *Machine) block() catalog.Block {
	return m.cat.BlockAt(m.cursor)
}

func (m *Machine) today() string {
	return m.clock.Now().UTC().Format(dateLayout)
}

func (m *Machine) saveRecordLocked() {
	m.lastUsed = m.today()
	if m.persister == nil {
		return
	}
	rec := store.Record{HintsRemaining: m.hints, TempoBPM: m.tempo, LastUsedDate: m.lastUsed}
	if err := m.persister.SaveRecord(context.Background(), rec); err != nil {
		m.logger.Warn("failed to save practice record", "session_id", m.sessionID, "error", err)
	}
}

func (m *Machine) appendEvent(action string) {
	if m.persister == nil {
		return
	}
	data := store.SessionEventData{
		SessionID: m.sessionID,
		Action:    action,
		Phase:     m.cat.PhaseAt(m.cursor).Name,
		Block:     m.cursor.Block,
	}
	if err := m.persister.AppendSessionEvent(context.Background(), data); err != nil {
		m.logger.Warn("failed to save session event", "session_id", m.sessionID, "action", action, "error", err)
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	phase := m.cat.PhaseAt(m.cursor)
	b := m.block()

	s := Snapshot{
		Version:          m.version,
		SessionID:        m.sessionID,
		PhaseName:        phase.Name,
		PhaseTitle:       phase.Title,
		PhaseNumber:      m.cursor.Phase + 1,
		PhaseCount:       m.cat.Len(),
		BlockNumber:      m.cursor.Block + 1,
		BlockCount:       len(phase.Blocks),
		Ordinal:          m.cat.Ordinal(m.cursor),
		TotalBlocks:      m.cat.TotalBlocks(),
		Kind:             b.Kind,
		PrimaryText:      b.Primary,
		SecondaryText:    b.Secondary,
		UsesMetronome:    b.UsesMetronome,
		UsesDiagram:      b.UsesDiagram,
		RequiresCheckin:  b.RequiresCheckin,
		Lifecycle:        m.lifecycle,
		HintsRemaining:   m.hints,
		TempoBPM:         m.tempo,
		DiagramFade:      m.diagramFade,
		FingeringFade:    m.fingeringFade,
		RemainingSeconds: m.remaining.Seconds(),
		Progress:         m.progress,
		MetronomeRunning: m.metronomeOn,
		LastBeat:         m.lastBeat,
		BeatCount:        m.beatCount,
		PrimaryLabel:     LabelBegin,
		StatusLine:       StatusPlay,
	}
	if b.Kind == catalog.KindReflect {
		s.StatusLine = StatusReflect
		if m.lifecycle == Ready {
			s.PrimaryLabel = LabelReflect
		}
	}

	if m.lifecycle == Done {
		s.PhaseTitle = CompleteTitle
		s.PrimaryText = CompletePrimary
		s.SecondaryText = CompleteSecondary
		s.Progress = 1
		return s
	}

	first := m.cursor == m.cat.First()
	s.Controls = Controls{
		CanBegin:           m.lifecycle == Ready,
		CanBack:            !first,
		CanSkip:            true,
		CanHint:            m.hints > 0,
		CanCheckIn:         m.lifecycle == CheckIn,
		CanToggleMetronome: m.lifecycle != CountIn,
		CanChangeTempo:     m.lifecycle != CountIn,
	}
	return s
}
