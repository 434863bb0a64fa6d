package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "etude.db"), opts...)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etude.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if n != 1 {
			t.Errorf("open #%d: %d applied migrations, want 1", i, n)
		}
		s.Close()
	}
}

func TestLoadRecord_Missing(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.LoadRecord(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != DefaultRecord() {
		t.Errorf("got %+v, want defaults", rec)
	}
}

func TestLoadRecord_DefaultTempo(t *testing.T) {
	s := openTestStore(t, WithDefaultTempo(72))
	ctx := context.Background()

	rec, err := s.LoadRecord(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.TempoBPM != 72 || rec.HintsRemaining != DefaultHints {
		t.Errorf("got %+v, want tempo 72", rec)
	}

	if _, err := s.DB().Exec("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)", recordKey, `{"tempoBPM":-5}`, "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if rec, _ = s.LoadRecord(ctx); rec.TempoBPM != 72 {
		t.Errorf("invalid stored tempo: got %d, want 72", rec.TempoBPM)
	}

	if rec, _ = openTestStore(t, WithDefaultTempo(0)).LoadRecord(ctx); rec.TempoBPM != DefaultTempo {
		t.Errorf("zero default: got %d, want %d", rec.TempoBPM, DefaultTempo)
	}
}

func TestRecordSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := Record{HintsRemaining: 1, TempoBPM: 92, LastUsedDate: "2026-03-14"}
	if err := s.SaveRecord(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveRecord(ctx, want); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.LoadRecord(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadRecord_CorruptFallsBackPerField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Record
	}{
		{"not json", "{{{", DefaultRecord()},
		{"json array", "[1,2]", DefaultRecord()},
		{"hints too high", `{"hintsRemaining":7,"tempoBPM":80}`, Record{HintsRemaining: 3, TempoBPM: 80}},
		{"hints negative", `{"hintsRemaining":-1,"tempoBPM":80}`, Record{HintsRemaining: 3, TempoBPM: 80}},
		{"hints fractional", `{"hintsRemaining":1.5}`, DefaultRecord()},
		{"tempo zero", `{"hintsRemaining":2,"tempoBPM":0}`, Record{HintsRemaining: 2, TempoBPM: 60}},
		{"tempo string", `{"hintsRemaining":0,"tempoBPM":"fast"}`, Record{HintsRemaining: 0, TempoBPM: 60}},
		{"tempo rounded", `{"tempoBPM":71.6}`, Record{HintsRemaining: 3, TempoBPM: 72}},
		{"date kept", `{"lastUsedDate":"2026-01-02"}`, Record{HintsRemaining: 3, TempoBPM: 60, LastUsedDate: "2026-01-02"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			_, err := s.DB().Exec("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)", recordKey, tt.raw, "x")
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			got, err := s.LoadRecord(context.Background())
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCheckIns(t *testing.T) {
	base := time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)
	tick := 0
	s := openTestStore(t, WithNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()

	entries := []CheckInEntry{
		{Date: "2026-02-01", Phase: "WARMUP", Value: "easy"},
		{Date: "2026-02-01", Phase: "THINKING", Value: "tense"},
		{Date: "2026-02-01", Phase: "APPLICATION", Value: "left hand lagged"},
	}
	for _, e := range entries {
		if err := s.AppendCheckIn(ctx, "sess-1", e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.AppendCheckIn(ctx, "sess-2", CheckInEntry{Date: "2026-02-02", Phase: "WARMUP", Value: "steady"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, err := s.CheckIns(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d check-ins, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Sequence <= all[i-1].Sequence {
			t.Errorf("sequence not increasing at %d", i)
		}
		if all[i].ID == all[i-1].ID {
			t.Errorf("duplicate id at %d", i)
		}
	}
	if all[2].Value != "left hand lagged" || all[2].Phase != "APPLICATION" {
		t.Errorf("unexpected row %+v", all[2])
	}
	if !all[0].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("created_at = %v", all[0].CreatedAt)
	}

	sess1, err := s.CheckIns(ctx, QueryOpts{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("query session: %v", err)
	}
	if len(sess1) != 3 {
		t.Errorf("got %d for sess-1, want 3", len(sess1))
	}

	recent, err := s.CheckIns(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(recent) != 2 || recent[0].Value != "left hand lagged" || recent[1].Value != "steady" {
		t.Errorf("limit should keep newest rows oldest-first, got %+v", recent)
	}

	after, err := s.CheckIns(ctx, QueryOpts{After: all[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("got %d after sequence %d, want 2", len(after), all[1].Sequence)
	}
}

func TestSessionEvents_SharedSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.AppendSessionEvent(ctx, SessionEventData{SessionID: "a", Action: ActionStart, Phase: "ARRIVAL"}); err != nil {
		t.Fatalf("append start: %v", err)
	}
	if err := s.AppendCheckIn(ctx, "a", CheckInEntry{Date: "2026-02-01", Phase: "WARMUP", Value: "easy"}); err != nil {
		t.Fatalf("append check-in: %v", err)
	}
	if err := s.AppendSessionEvent(ctx, SessionEventData{SessionID: "a", Action: ActionComplete, Phase: "REFLECTION", Block: 0}); err != nil {
		t.Fatalf("append complete: %v", err)
	}

	events, err := s.SessionEvents(ctx, QueryOpts{SessionID: "a"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	checkins, err := s.CheckIns(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query check-ins: %v", err)
	}

	if !(events[0].Sequence < checkins[0].Sequence && checkins[0].Sequence < events[1].Sequence) {
		t.Errorf("sequences not interleaved: start=%d checkin=%d complete=%d",
			events[0].Sequence, checkins[0].Sequence, events[1].Sequence)
	}
	if events[1].Action != ActionComplete || events[1].Phase != "REFLECTION" {
		t.Errorf("unexpected event %+v", events[1])
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed := func() {
		t.Helper()
		if err := s.SaveRecord(ctx, Record{HintsRemaining: 0, TempoBPM: 100}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := s.AppendCheckIn(ctx, "x", CheckInEntry{Date: "2026-02-01", Phase: "WARMUP", Value: "easy"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	seed()
	if err := s.Reset(ctx, false); err != nil {
		t.Fatalf("reset: %v", err)
	}
	rec, _ := s.LoadRecord(ctx)
	if rec != DefaultRecord() {
		t.Errorf("record not reset: %+v", rec)
	}
	logs, _ := s.CheckIns(ctx, QueryOpts{})
	if len(logs) != 1 {
		t.Errorf("check-ins should survive a record reset, got %d", len(logs))
	}

	seed()
	if err := s.Reset(ctx, true); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	logs, _ = s.CheckIns(ctx, QueryOpts{})
	if len(logs) != 0 {
		t.Errorf("check-ins remain after full reset: %d", len(logs))
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(dir, "custom", "my.db")
		t.Setenv("ETUDE_DB", want)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("ETUDE_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		want := filepath.Join(dir, "etude", "etude.db")
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
