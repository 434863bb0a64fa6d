package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/ui/theme"
)

const bannerArt = `
 ███████╗████████╗██╗   ██╗██████╗ ███████╗
 ██╔════╝╚══██╔══╝██║   ██║██╔══██╗██╔════╝
 █████╗     ██║   ██║   ██║██║  ██║█████╗
 ██╔══╝     ██║   ██║   ██║██║  ██║██╔══╝
 ███████╗   ██║   ╚██████╔╝██████╔╝███████╗
 ╚══════╝   ╚═╝    ╚═════╝ ╚═════╝ ╚══════╝`

const bannerCompact = "E T U D E"

// Tagline is printed under the banner.
const Tagline = "Forty-five minutes. Your piano. The app conducts."

// RenderBanner returns the banner styled in the primary color, with a
// compact fallback below 46 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 46 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
