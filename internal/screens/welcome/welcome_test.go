package welcome

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/screen"
)

// stubScreen is a minimal screen implementation for testing.
type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "home" }
func (s *stubScreen) Title() string                           { return "Home" }

func newTestWelcome() (*WelcomeScreen, *int) {
	callCount := 0
	factory := func() screen.Screen {
		callCount++
		return &stubScreen{}
	}
	return New(factory), &callCount
}

func sendTicks(w *WelcomeScreen, n int) tea.Cmd {
	var cmd tea.Cmd
	for i := 0; i < n; i++ {
		_, cmd = w.Update(tickMsg(time.Now()))
	}
	return cmd
}

func TestBannerAppearsAfterDelay(t *testing.T) {
	w, _ := newTestWelcome()

	if strings.Contains(w.View(80, 24), Tagline) {
		t.Error("tagline should not be visible at start")
	}

	sendTicks(w, 6)
	if w.elapsed != bannerAt {
		t.Errorf("elapsed = %v, want %v", w.elapsed, bannerAt)
	}
	if !strings.Contains(w.View(80, 24), Tagline) {
		t.Error("tagline should be visible once the banner is shown")
	}
}

func TestKeypressSkipsToHome(t *testing.T) {
	w, callCount := newTestWelcome()
	sendTicks(w, 2)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("keypress should trigger transition")
	}
	msg := cmd()
	replace, ok := msg.(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", msg)
	}
	if replace.Screen == nil {
		t.Error("replace screen should not be nil")
	}
	if *callCount != 1 {
		t.Errorf("factory called %d times, want 1", *callCount)
	}
}

func TestAutoTransitionAfterSplash(t *testing.T) {
	w, callCount := newTestWelcome()

	cmd := sendTicks(w, int(totalDur/tickInterval))
	if cmd == nil {
		t.Fatal("expected transition command when the splash ends")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if *callCount != 1 {
		t.Errorf("factory called %d times, want 1", *callCount)
	}
}

func TestFactoryCalledOnce(t *testing.T) {
	w, callCount := newTestWelcome()

	w.Update(tea.KeyPressMsg{Code: 'a'})
	_, cmd := w.Update(tea.KeyPressMsg{Code: 'b'})
	if cmd != nil {
		t.Error("second keypress should not produce a command")
	}
	if cmd := sendTicks(w, 30); cmd != nil {
		t.Error("ticks after transition should not produce a command")
	}
	if *callCount != 1 {
		t.Errorf("factory called %d times, want 1", *callCount)
	}
}

func TestTitleEmpty(t *testing.T) {
	w, _ := newTestWelcome()
	if w.Title() != "" {
		t.Errorf("expected empty title, got %q", w.Title())
	}
}
