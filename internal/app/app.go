package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/screen"
	"github.com/abhisek/etude/internal/screens/home"
	"github.com/abhisek/etude/internal/screens/welcome"
	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
	"github.com/abhisek/etude/internal/ui/layout"
)

// Options configures the TUI.
type Options struct {
	Catalog *catalog.Catalog

	// Store persists records, check-ins and session events. Nil runs
	// without persistence.
	Store *store.Store

	// SessionOptions are applied to every session machine.
	SessionOptions []session.Option

	Logger *slog.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel starting on the welcome screen.
func newAppModel(opts Options) AppModel {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	deps := home.Deps{
		Catalog:    opts.Catalog,
		NewSession: sessionFactory(opts),
	}
	if opts.Store != nil {
		deps.Records = opts.Store
		deps.CheckIns = opts.Store
	}

	start := welcome.New(func() screen.Screen { return home.New(deps) })
	return AppModel{
		router: router.New(start),
	}
}

// sessionFactory returns a constructor for session machines seeded from the
// stored record.
func sessionFactory(opts Options) func() *session.Machine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return func() *session.Machine {
		sessOpts := append([]session.Option{session.WithLogger(opts.Logger)}, opts.SessionOptions...)
		if opts.Store != nil {
			rec, err := opts.Store.LoadRecord(context.Background())
			if err != nil {
				opts.Logger.Warn("failed to load practice record", "error", err)
				rec = store.DefaultRecord()
			}
			sessOpts = append(sessOpts, session.WithRecord(rec), session.WithPersister(opts.Store))
		}
		m := session.New(opts.Catalog, sessOpts...)
		opts.Logger.Info("session created", "session_id", m.SessionID())
		return m
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render composes header, active screen and footer for the current size.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var title, status string
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if kp, ok := active.(screen.KeyHintProvider); ok {
		return kp.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Any key", Description: "Continue"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and closes every open screen when it
// exits, so an interrupted session is recorded as abandoned.
func Run(opts Options) error {
	model := newAppModel(opts)
	defer model.router.CloseAll()

	p := tea.NewProgram(model)
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
