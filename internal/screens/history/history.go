package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/screen"
	"github.com/abhisek/etude/internal/store"
	"github.com/abhisek/etude/internal/ui/layout"
	"github.com/abhisek/etude/internal/ui/theme"
)

// Limit is the number of recent check-ins loaded.
const Limit = 100

// Day groups the check-ins recorded on one date.
type Day struct {
	Date     string
	CheckIns []store.CheckIn
}

type historyLoadedMsg struct {
	Days []Day
	Err  error
}

// HistoryScreen lists past check-ins grouped by day.
type HistoryScreen struct {
	reader   store.CheckInReader
	days     []Day
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(reader store.CheckInReader) *HistoryScreen {
	return &HistoryScreen{
		reader:   reader,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	reader := s.reader
	return func() tea.Msg {
		rows, err := reader.CheckIns(context.Background(), store.QueryOpts{Limit: Limit})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		return historyLoadedMsg{Days: GroupByDay(rows)}
	}
}

// GroupByDay groups rows by date, newest day first. Rows within a day keep
// their recorded order.
func GroupByDay(rows []store.CheckIn) []Day {
	var days []Day
	index := make(map[string]int)
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		n, ok := index[r.Date]
		if !ok {
			n = len(days)
			index[r.Date] = n
			days = append(days, Day{Date: r.Date})
		}
		days[n].CheckIns = append(days[n].CheckIns, r)
	}
	for i := range days {
		c := days[i].CheckIns
		for l, r := 0, len(c)-1; l < r; l, r = l+1, r-1 {
			c[l], c[r] = c[r], c[l]
		}
	}
	return days
}

func (s *HistoryScreen) Title() string {
	return "Check-in History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.days = msg.Days
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.days)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.days) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No check-ins yet. Finish a session to see it here.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, day := range s.days {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		noun := "check-ins"
		if len(day.CheckIns) == 1 {
			noun = "check-in"
		}
		line := fmt.Sprintf("%s%s  %d %s  %s", prefix, day.Date, len(day.CheckIns), noun, latest(day))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, c := range day.CheckIns {
				detail := fmt.Sprintf("    %s  %-10s %s", c.CreatedAt.Local().Format("15:04"), c.Phase, c.Value)
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(valueColor(c.Value)).Render(detail)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func latest(d Day) string {
	if len(d.CheckIns) == 0 {
		return ""
	}
	return d.CheckIns[len(d.CheckIns)-1].Value
}

func valueColor(v string) color.Color {
	switch strings.ToLower(v) {
	case "easy":
		return theme.Success
	case "steady":
		return theme.Secondary
	case "tense":
		return theme.Accent
	default:
		return theme.Text
	}
}
