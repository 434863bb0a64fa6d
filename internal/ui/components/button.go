package components

import (
	"github.com/abhisek/etude/internal/ui/theme"
)

// Button is a labelled action. Enabled buttons are drawn filled; disabled
// ones are outlined and dimmed.
type Button struct {
	Label   string
	Key     string
	Enabled bool
}

// NewButton creates a new button.
func NewButton(label, key string, enabled bool) Button {
	return Button{Label: label, Key: key, Enabled: enabled}
}

// View renders the button.
func (b Button) View() string {
	label := b.Label
	if b.Key != "" {
		label += "  " + b.Key
	}
	if b.Enabled {
		return theme.ButtonActive.Render(label)
	}
	return theme.ButtonInactive.Render(label)
}
