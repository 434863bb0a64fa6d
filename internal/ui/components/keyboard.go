package components

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/ui/theme"
)

// KeyboardCaption is shown instead of highlights when a block practises
// without the diagram.
const KeyboardCaption = "Diagram hidden for application / recall."

const (
	whiteKeys      = 14 // two octaves
	fingeredKeys   = 5
	minKeyWidth    = 3
	visibleEpsilon = 0.01
)

// blackAfter reports whether a black key sits to the right of the white key
// at position i within an octave (C D _ F G A _).
var blackAfter = [7]bool{true, true, false, true, true, true, false}

// Keyboard draws a two-octave strip. Highlighted keys and fingering numbers
// are blended toward the background by their fade weights.
type Keyboard struct {
	Visible       bool
	DiagramFade   float64
	FingeringFade float64
	Width         int
}

// NewKeyboard creates a keyboard for the given fade weights.
func NewKeyboard(visible bool, diagramFade, fingeringFade float64, width int) Keyboard {
	return Keyboard{
		Visible:       visible,
		DiagramFade:   diagramFade,
		FingeringFade: fingeringFade,
		Width:         width,
	}
}

// View renders the keyboard.
func (k Keyboard) View() string {
	keyW := max(minKeyWidth, (k.Width-1)/whiteKeys-1)
	showDiagram := k.Visible && k.DiagramFade > visibleEpsilon
	showFingering := showDiagram && k.FingeringFade > 0.02

	white := lipgloss.NewStyle().Background(theme.BgCard)
	if showDiagram {
		white = white.Background(theme.Blend(theme.BgCard, theme.Primary, 0.6*k.DiagramFade))
	}
	black := lipgloss.NewStyle().Foreground(theme.BgDark)
	edge := lipgloss.NewStyle().Foreground(theme.Border)
	finger := white.Foreground(theme.Blend(theme.BgCard, theme.Text, k.FingeringFade)).Bold(true)

	var top, bottom strings.Builder
	top.WriteString(edge.Render("│"))
	bottom.WriteString(edge.Render("│"))
	for i := 0; i < whiteKeys; i++ {
		top.WriteString(white.Render(strings.Repeat(" ", keyW)))
		if i < whiteKeys-1 && blackAfter[i%7] {
			top.WriteString(black.Render("█"))
		} else {
			top.WriteString(edge.Render("│"))
		}

		if showFingering && i < fingeredKeys {
			label := strconv.Itoa(i + 1)
			pad := keyW - len(label)
			bottom.WriteString(white.Render(strings.Repeat(" ", pad/2)))
			bottom.WriteString(finger.Render(label))
			bottom.WriteString(white.Render(strings.Repeat(" ", pad-pad/2)))
		} else {
			bottom.WriteString(white.Render(strings.Repeat(" ", keyW)))
		}
		bottom.WriteString(edge.Render("│"))
	}

	rows := []string{top.String(), top.String(), bottom.String()}
	if !k.Visible {
		rows = append(rows, theme.Hint.Render(KeyboardCaption))
	}
	return strings.Join(rows, "\n")
}

// BeatDots renders one dot per beat of a 4/4 bar with the current beat
// lit. index < 0 shows an empty bar.
func BeatDots(index int, running bool) string {
	dots := make([]string, 4)
	for i := range dots {
		switch {
		case running && index >= 0 && index%4 == i && i == 0:
			dots[i] = lipgloss.NewStyle().Foreground(theme.Accent).Render("●")
		case running && index >= 0 && index%4 == i:
			dots[i] = lipgloss.NewStyle().Foreground(theme.Secondary).Render("●")
		default:
			dots[i] = lipgloss.NewStyle().Foreground(theme.Border).Render("○")
		}
	}
	return strings.Join(dots, " ")
}
