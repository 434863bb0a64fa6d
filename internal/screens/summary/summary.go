package summary

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/screen"
	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
	"github.com/abhisek/etude/internal/ui/layout"
	"github.com/abhisek/etude/internal/ui/theme"
)

// CheckInLister reads the check-in log.
type CheckInLister = store.CheckInReader

type checkInsLoadedMsg struct {
	CheckIns []store.CheckIn
	Err      error
}

// SummaryScreen closes a finished session: the completion message and the
// check-ins given during it.
type SummaryScreen struct {
	snap     session.Snapshot
	lister   CheckInLister
	checkIns []store.CheckIn
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a summary for the final snapshot of a session. lister may be
// nil.
func New(snap session.Snapshot, lister CheckInLister) *SummaryScreen {
	return &SummaryScreen{snap: snap, lister: lister}
}

func (s *SummaryScreen) Init() tea.Cmd {
	if s.lister == nil {
		s.loaded = true
		return nil
	}
	lister, id := s.lister, s.snap.SessionID
	return func() tea.Msg {
		rows, err := lister.CheckIns(context.Background(), store.QueryOpts{SessionID: id})
		return checkInsLoadedMsg{CheckIns: rows, Err: err}
	}
}

func (s *SummaryScreen) Title() string {
	return session.CompleteTitle
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Home"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case checkInsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.checkIns = msg.CheckIns
		}
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	center := func(str string) string { return lipgloss.PlaceHorizontal(width, lipgloss.Center, str) }

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(center(theme.Title.Render(s.snap.PrimaryText)))
	b.WriteString("\n")
	b.WriteString(center(theme.Subtitle.Render(s.snap.SecondaryText)))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Blocks: %d        Tempo: %d bpm        Hints left: %d",
		s.snap.TotalBlocks, s.snap.TempoBPM, s.snap.HintsRemaining)
	b.WriteString(center(theme.Body.Render(stats)))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Check-ins")))
	b.WriteString("\n")
	b.WriteString(center(divider))
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Error).Render("Could not load check-ins: " + s.errMsg)))
	case !s.loaded:
		b.WriteString(center(theme.Hint.Render("Loading...")))
	case len(s.checkIns) == 0:
		b.WriteString(center(theme.Hint.Render("No check-ins this time.")))
	default:
		for _, c := range s.checkIns {
			line := fmt.Sprintf("%-12s %s", c.Phase, c.Value)
			b.WriteString(center(theme.Body.Render(line)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
