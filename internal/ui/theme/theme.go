package theme

import (
	"fmt"
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette: dark stage, cool blue cues, teal for the beat.
var (
	Primary   = lipgloss.Color("#6F92FF") // Cue Blue
	Secondary = lipgloss.Color("#2BD4C2") // Teal
	Accent    = lipgloss.Color("#F5B04C") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#E8EEFC") // Paper
	TextDim   = lipgloss.Color("#B8C6EA") // Mist
	BgDark    = lipgloss.Color("#0B1326") // Night
	BgCard    = lipgloss.Color("#16213D") // Panel
	Border    = lipgloss.Color("#2A3B61") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Header = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Footer = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Pill = lipgloss.NewStyle().
		Foreground(BgDark).
		Background(Secondary).
		Bold(true).
		Padding(0, 1)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(BgDark).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Foreground(TextDim).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 2)
)

// Blend mixes from toward to by weight w in [0,1].
func Blend(from, to color.Color, w float64) color.Color {
	w = max(0, min(1, w))
	r1, g1, b1, _ := from.RGBA()
	r2, g2, b2, _ := to.RGBA()
	mix := func(a, b uint32) uint8 {
		fa, fb := float64(a>>8), float64(b>>8)
		return uint8(fa + (fb-fa)*w + 0.5)
	}
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", mix(r1, r2), mix(g1, g2), mix(b1, b2)))
}
