package home

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/output"
	"github.com/abhisek/etude/internal/store"
	"github.com/abhisek/etude/internal/ui/components"
	"github.com/abhisek/etude/internal/ui/theme"
)

const titleFull = `╔═╗╔╦╗╦ ╦╔╦╗╔═╗
║╣  ║ ║ ║ ║║║╣
╚═╝ ╩ ╚═╝═╩╝╚═╝`

const titleCompact = "E · T · U · D · E"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	// Leave room for frame border (2) + inner padding (4)
	return max(20, min(frameWidth-6, 60))
}

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art))
}

// renderRecordBar shows the carried-over practice state.
func renderRecordBar(rec store.Record, errMsg string, cw int) string {
	hintStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	tempoStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	last := "never practiced"
	if rec.LastUsedDate != "" {
		last = "last practiced " + rec.LastUsedDate
	}
	stats := fmt.Sprintf("%s  %s  %s",
		hintStyle.Render(fmt.Sprintf("✦ %d HINTS", rec.HintsRemaining)),
		tempoStyle.Render(fmt.Sprintf("♩ %d BPM", rec.TempoBPM)),
		dimStyle.Render(last),
	)
	if errMsg != "" {
		stats = lipgloss.NewStyle().Foreground(theme.Error).Render("record unavailable: " + errMsg)
	}

	// Width excludes the border chars.
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Width(cw-2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// renderOutline lists the phases and their lengths.
func renderOutline(cat *catalog.Catalog, cw int) string {
	nameStyle := lipgloss.NewStyle().Foreground(theme.Text)
	durStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var lines []string
	for i, p := range cat.Phases() {
		var total time.Duration
		for _, b := range p.Blocks {
			total += b.Duration
		}
		name := fmt.Sprintf("%d. %-24s", i+1, p.Title)
		lines = append(lines, nameStyle.Render(name)+durStyle.Render(fmt.Sprintf("%6s", output.Duration(total))))
	}
	lines = append(lines, durStyle.Render(fmt.Sprintf("%-27s%6s", "total", output.Duration(cat.TotalDuration()))))

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

// renderMenu renders each menu item as a fixed-width button, or as plain
// lines on small terminals.
func renderMenu(menu components.Menu, cw int, compact bool) string {
	if compact {
		return lipgloss.NewStyle().
			Width(cw).
			Align(lipgloss.Center).
			Render(strings.TrimRight(menu.View(), "\n"))
	}

	base := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	selectedBtn := base.
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Primary).
		BorderForeground(theme.Primary)
	normalBtn := base.
		Foreground(theme.Text).
		BorderForeground(theme.Border)
	disabledBtn := base.
		Foreground(theme.Border).
		BorderForeground(theme.Border)

	var buttons []string
	for i, item := range menu.Items {
		label := item.Label
		if item.Shortcut != "" {
			label = fmt.Sprintf("%s [%s]", label, item.Shortcut)
		}
		switch {
		case item.Disabled:
			buttons = append(buttons, disabledBtn.Render(label))
		case i == menu.Selected:
			buttons = append(buttons, selectedBtn.Render("▸ "+label))
		default:
			buttons = append(buttons, normalBtn.Render(label))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 28

// renderFrame wraps content in a rounded frame, centered vertically and
// horizontally within the given dimensions.
func renderFrame(content string, width, height int) string {
	// Width and height exclude the border chars.
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(width-2).
		Height(height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
