package practice

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/screen"
	"github.com/abhisek/etude/internal/screens/summary"
	sess "github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/ui/components"
	"github.com/abhisek/etude/internal/ui/layout"
)

// TempoStep is the BPM change per +/- key press.
const TempoStep = 4

// QuickValues are offered in the check-in input.
var QuickValues = []string{"easy", "steady", "tense"}

// PracticeScreen conducts one session. It owns the machine: leaving the
// screen closes it.
type PracticeScreen struct {
	machine  *sess.Machine
	checkins summary.CheckInLister

	feed        chan sess.Snapshot
	done        chan struct{}
	unsubscribe func()

	snap     sess.Snapshot
	input    components.TextInput
	hint     string
	hintSeq  int
	finished bool
	closed   bool
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.StatusProvider = (*PracticeScreen)(nil)
var _ screen.Closer = (*PracticeScreen)(nil)

// New creates a practice screen for m. checkins may be nil.
func New(m *sess.Machine, checkins summary.CheckInLister) *PracticeScreen {
	return &PracticeScreen{
		machine:  m,
		checkins: checkins,
		feed:     make(chan sess.Snapshot, 1),
		done:     make(chan struct{}),
		snap:     m.Snapshot(),
		input:    newCheckInInput(),
	}
}

func newCheckInInput() components.TextInput {
	return components.NewTextInput("How did it feel? (Tab for quick answers)", 120, QuickValues...)
}

func (p *PracticeScreen) Init() tea.Cmd {
	p.unsubscribe = p.machine.Subscribe(p.publish)
	return p.waitForSnapshot()
}

func (p *PracticeScreen) Title() string {
	if p.snap.PhaseTitle == "" {
		return "Practice"
	}
	return p.snap.PhaseTitle
}

// Close stops the session. Leaving before DONE records it as abandoned.
func (p *PracticeScreen) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	close(p.done)
	p.machine.Close()
}

// publish keeps only the newest snapshot in the feed. It runs on timer
// goroutines and never blocks.
func (p *PracticeScreen) publish(s sess.Snapshot) {
	for {
		select {
		case p.feed <- s:
			return
		default:
		}
		select {
		case old := <-p.feed:
			if old.Version > s.Version {
				s = old
			}
		default:
		}
	}
}

func (p *PracticeScreen) waitForSnapshot() tea.Cmd {
	feed, done := p.feed, p.done
	return func() tea.Msg {
		select {
		case s := <-feed:
			return snapshotMsg(s)
		case <-done:
			return nil
		}
	}
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		cmd := p.apply(sess.Snapshot(msg))
		if p.closed || p.finished {
			return p, cmd
		}
		return p, tea.Batch(cmd, p.waitForSnapshot())

	case hintExpiredMsg:
		if msg.seq == p.hintSeq {
			p.hint = ""
		}
		return p, nil

	case tea.KeyPressMsg:
		return p.handleKey(msg)
	}

	if p.snap.Lifecycle == sess.CheckIn {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	return p, nil
}

// apply adopts s unless a newer snapshot was already seen.
func (p *PracticeScreen) apply(s sess.Snapshot) tea.Cmd {
	if s.Version < p.snap.Version {
		return nil
	}
	prev := p.snap.Lifecycle
	p.snap = s

	switch {
	case s.Lifecycle == sess.Done && !p.finished:
		p.finished = true
		next := summary.New(s, p.checkins)
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	case s.Lifecycle == sess.CheckIn && prev != sess.CheckIn:
		p.input = newCheckInInput()
		return p.input.Init()
	}
	return nil
}

// refresh pulls the current snapshot after an operation so the view does not
// wait for the subscription round trip.
func (p *PracticeScreen) refresh() tea.Cmd {
	return p.apply(p.machine.Snapshot())
}

func (p *PracticeScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if p.snap.Lifecycle == sess.CheckIn {
		switch key {
		case "enter":
			if p.input.Value() == "" {
				return p, nil
			}
			p.machine.SubmitCheckIn(p.input.Value())
			return p, p.refresh()
		case "left":
			p.machine.Back()
			return p, p.refresh()
		case "right":
			p.machine.Skip()
			return p, p.refresh()
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}

	switch key {
	case "enter", "space", " ":
		p.machine.BeginBlock()
	case "left", "b":
		p.machine.Back()
	case "right", "s":
		p.machine.Skip()
	case "h":
		text, ok := p.machine.UseHint()
		if !ok {
			return p, nil
		}
		p.hint = text
		p.hintSeq++
		seq := p.hintSeq
		return p, tea.Batch(p.refresh(), tea.Tick(sess.HintDisplayDuration, func(time.Time) tea.Msg {
			return hintExpiredMsg{seq: seq}
		}))
	case "m":
		p.machine.ToggleMetronome()
	case "+", "=":
		p.machine.AdjustTempo(TempoStep)
	case "-", "_":
		p.machine.AdjustTempo(-TempoStep)
	default:
		return p, nil
	}
	return p, p.refresh()
}

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	s := p.snap
	if s.Lifecycle == sess.CheckIn {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Tab", Description: "Quick answer"},
			{Key: "←→", Description: "Back/Skip"},
			{Key: "Esc", Description: "Leave"},
		}
	}

	hints := make([]layout.KeyHint, 0, 6)
	if s.Controls.CanBegin {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: s.PrimaryLabel})
	}
	hints = append(hints, layout.KeyHint{Key: "←→", Description: "Back/Skip"})
	if s.Controls.CanHint {
		hints = append(hints, layout.KeyHint{Key: "H", Description: "Hint"})
	}
	if s.Controls.CanToggleMetronome {
		hints = append(hints, layout.KeyHint{Key: "M", Description: "Metronome"})
	}
	if s.Controls.CanChangeTempo {
		hints = append(hints, layout.KeyHint{Key: "+/-", Description: "Tempo"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
	return hints
}

func (p *PracticeScreen) Status() string {
	return fmt.Sprintf("♩ %d   hints %d", p.snap.TempoBPM, p.snap.HintsRemaining)
}
