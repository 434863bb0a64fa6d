package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/catalog"
	sess "github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/ui/components"
	"github.com/abhisek/etude/internal/ui/layout"
	"github.com/abhisek/etude/internal/ui/theme"
)

const maxContentWidth = 76

func (p *PracticeScreen) View(width, height int) string {
	s := p.snap
	cw := min(maxContentWidth, max(20, width-4))
	center := func(str string) string { return lipgloss.PlaceHorizontal(width, lipgloss.Center, str) }

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center(p.renderInfoLine(cw)))
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))))
	b.WriteString("\n\n")

	text := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center)
	b.WriteString(center(text.Foreground(theme.Text).Bold(true).Render(s.PrimaryText)))
	b.WriteString("\n")
	if s.SecondaryText != "" {
		b.WriteString(center(text.Foreground(theme.TextDim).Render(s.SecondaryText)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if s.Kind == catalog.KindPlay {
		b.WriteString(center(components.NewKeyboard(s.UsesDiagram, s.DiagramFade, s.FingeringFade, cw).View()))
		b.WriteString("\n\n")
	}

	b.WriteString(center(p.renderBeatLine(cw)))
	b.WriteString("\n")
	b.WriteString(center(components.NewProgressBar("", s.Progress, layout.Clock(s.RemainingSeconds), cw).View()))
	b.WriteString("\n\n")

	b.WriteString(center(p.renderAction(cw)))
	b.WriteString("\n\n")

	if p.hint != "" {
		b.WriteString(center(theme.Card.Width(cw).Foreground(theme.Accent).Render(p.hint)))
		b.WriteString("\n")
	} else {
		b.WriteString(center(theme.Hint.Render(s.StatusLine)))
		b.WriteString("\n")
	}

	return b.String()
}

func (p *PracticeScreen) renderInfoLine(cw int) string {
	s := p.snap
	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("Phase %d/%d  %s", s.PhaseNumber, s.PhaseCount, s.PhaseName))
	right := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Block %d/%d  ", s.BlockNumber, s.BlockCount)) +
		theme.Pill.Render(lifecycleLabel(s.Lifecycle))

	gap := max(1, cw-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (p *PracticeScreen) renderBeatLine(cw int) string {
	s := p.snap
	index := -1
	if s.BeatCount > 0 {
		index = s.LastBeat.Index
	}
	dots := components.BeatDots(index, s.MetronomeRunning)

	var label string
	switch {
	case s.Lifecycle == sess.CountIn && s.LastBeat.CountIn && s.BeatCount > 0:
		label = fmt.Sprintf("count-in %d/%d", s.LastBeat.Index+1, sess.CountInBeats)
	case s.Lifecycle == sess.CountIn:
		label = "count-in"
	case s.MetronomeRunning:
		label = "metronome on"
	default:
		label = "metronome off"
	}
	tempo := lipgloss.NewStyle().Foreground(theme.Text).Render(fmt.Sprintf("♩ = %d", s.TempoBPM))
	line := dots + "   " + tempo + "   " + theme.Hint.Render(label)
	return lipgloss.NewStyle().Width(cw).Render(line)
}

func (p *PracticeScreen) renderAction(cw int) string {
	s := p.snap
	if s.Lifecycle == sess.CheckIn {
		prompt := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("Check-in")
		return lipgloss.NewStyle().Width(cw).Render(prompt + "\n" + p.input.View())
	}
	return components.NewButton(s.PrimaryLabel, "Enter", s.Controls.CanBegin).View()
}

func lifecycleLabel(l sess.Lifecycle) string {
	return strings.ReplaceAll(l.String(), "_", " ")
}
