package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar with an optional label on
// each side.
type ProgressBar struct {
	Label   string
	Trailer string
	Percent float64
	Width   int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, trailer string, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Trailer: trailer,
		Percent: percent,
		Width:   width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var left, right string
	if p.Label != "" {
		left = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}
	if p.Trailer != "" {
		right = "  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(p.Trailer)
	}

	barWidth := max(4, p.Width-lipgloss.Width(left)-lipgloss.Width(right))
	filled := min(barWidth, max(0, int(float64(barWidth)*p.Percent)))

	return left +
		theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		right
}
