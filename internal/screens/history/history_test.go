package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/etude/internal/router"
	"github.com/abhisek/etude/internal/store"
)

type mockReader struct {
	rows []store.CheckIn
	err  error
	opts store.QueryOpts
}

func (m *mockReader) CheckIns(_ context.Context, opts store.QueryOpts) ([]store.CheckIn, error) {
	m.opts = opts
	return m.rows, m.err
}

func sampleRows() []store.CheckIn {
	return []store.CheckIn{
		{Sequence: 1, Date: "2026-03-01", Phase: "WARMUP", Value: "easy"},
		{Sequence: 2, Date: "2026-03-01", Phase: "THINKING", Value: "lost the left hand"},
		{Sequence: 3, Date: "2026-03-02", Phase: "WARMUP", Value: "tense"},
	}
}

func loaded(t *testing.T, r *mockReader) *HistoryScreen {
	t.Helper()
	s := New(r)
	s.Update(s.Init()())
	return s
}

func TestGroupByDay(t *testing.T) {
	days := GroupByDay(sampleRows())
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	if days[0].Date != "2026-03-02" || days[1].Date != "2026-03-01" {
		t.Errorf("order = %s, %s", days[0].Date, days[1].Date)
	}
	if got := days[1].CheckIns; len(got) != 2 || got[0].Sequence != 1 || got[1].Sequence != 2 {
		t.Errorf("day rows = %+v", got)
	}
	if GroupByDay(nil) != nil {
		t.Error("expected nil for no rows")
	}
}

func TestHistoryScreen_Load(t *testing.T) {
	r := &mockReader{rows: sampleRows()}
	s := loaded(t, r)
	if r.opts.Limit != Limit {
		t.Errorf("limit = %d, want %d", r.opts.Limit, Limit)
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "2026-03-02") || !strings.Contains(view, "2 check-ins") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := loaded(t, &mockReader{})
	if !strings.Contains(s.View(100, 30), "No check-ins yet") {
		t.Error("expected empty state")
	}
}

func TestHistoryScreen_Error(t *testing.T) {
	s := loaded(t, &mockReader{err: errors.New("locked")})
	if !strings.Contains(s.View(100, 30), "locked") {
		t.Error("expected error in view")
	}
}

func TestHistoryScreen_NavigateAndExpand(t *testing.T) {
	s := loaded(t, &mockReader{rows: sampleRows()})

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 1 {
		t.Fatalf("selected = %d, want 1", s.selected)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 1 {
		t.Errorf("selection moved past the end")
	}
	if strings.Contains(s.View(100, 30), "lost the left hand") {
		t.Error("details shown before expanding")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(s.View(100, 30), "lost the left hand") {
		t.Error("expected expanded details")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.selected != 0 {
		t.Errorf("selected = %d, want 0", s.selected)
	}
}

func TestHistoryScreen_Esc(t *testing.T) {
	s := New(&mockReader{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
