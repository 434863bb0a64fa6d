package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/screen"
	"github.com/abhisek/etude/internal/screens/history"
	"github.com/abhisek/etude/internal/screens/practice"
	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
	"github.com/abhisek/etude/internal/ui/components"
	"github.com/abhisek/etude/internal/ui/layout"
)

// Deps are the collaborators the home screen hands to the screens it opens.
type Deps struct {
	Catalog  *catalog.Catalog
	Records  store.RecordRepo
	CheckIns store.CheckInReader

	// NewSession builds a machine for a fresh session.
	NewSession func() *session.Machine
}

type recordLoadedMsg struct {
	Record store.Record
	Err    error
}

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	deps   Deps
	menu   components.Menu
	record store.Record
	loaded bool
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	h := &HomeScreen{deps: deps, record: store.DefaultRecord()}

	items := []components.MenuItem{
		{Label: "Start session", Shortcut: "s", Disabled: deps.NewSession == nil, Action: func() tea.Cmd {
			m := deps.NewSession()
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: practice.New(m, deps.CheckIns)}
			}
		}},
		{Label: "Check-in history", Shortcut: "h", Disabled: deps.CheckIns == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(deps.CheckIns)}
			}
		}},
		{Label: "Quit", Shortcut: "q", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadRecord()
}

func (h *HomeScreen) loadRecord() tea.Cmd {
	repo := h.deps.Records
	if repo == nil {
		h.loaded = true
		return nil
	}
	return func() tea.Msg {
		rec, err := repo.LoadRecord(context.Background())
		return recordLoadedMsg{Record: rec, Err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "s", Description: "Start"},
		{Key: "q", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case recordLoadedMsg:
		h.loaded = true
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.record = msg.Record
		return h, nil

	case screen.ResumedMsg:
		return h, h.loadRecord()
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 24 || width < 90
	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, renderRecordBar(h.record, h.errMsg, cw))
	if !compact {
		sections = append(sections, renderOutline(h.deps.Catalog, cw))
	}
	sections = append(sections, renderMenu(h.menu, cw, compact))

	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}
