package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with a row of quick values that Tab
// cycles through.
type TextInput struct {
	Model       textinput.Model
	Suggestions []string
	suggestion  int // index into Suggestions, -1 when the user typed freely
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, maxWidth int, suggestions ...string) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}
	return TextInput{
		Model:       ti,
		Suggestions: suggestions,
		suggestion:  -1,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages. Tab and Shift+Tab fill the input with the next or
// previous quick value.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && len(t.Suggestions) > 0 {
		switch kmsg.String() {
		case "tab":
			t.suggestion = (t.suggestion + 1) % len(t.Suggestions)
			t.Model.SetValue(t.Suggestions[t.suggestion])
			t.Model.CursorEnd()
			return t, nil
		case "shift+tab":
			if t.suggestion <= 0 {
				t.suggestion = len(t.Suggestions)
			}
			t.suggestion--
			t.Model.SetValue(t.Suggestions[t.suggestion])
			t.Model.CursorEnd()
			return t, nil
		}
	}

	var cmd tea.Cmd
	before := t.Model.Value()
	t.Model, cmd = t.Model.Update(msg)
	if t.Model.Value() != before {
		t.suggestion = -1
	}
	return t, cmd
}

// View renders the input with the quick values underneath.
func (t TextInput) View() string {
	if len(t.Suggestions) == 0 {
		return t.Model.View()
	}
	chips := make([]string, len(t.Suggestions))
	for i, s := range t.Suggestions {
		if i == t.suggestion {
			chips[i] = theme.Selected.Render("[" + s + "]")
		} else {
			chips[i] = lipgloss.NewStyle().Foreground(theme.TextDim).Render(" " + s + " ")
		}
	}
	return t.Model.View() + "\n" + strings.Join(chips, " ")
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.Reset()
	t.suggestion = -1
}
