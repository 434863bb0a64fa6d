package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/clock"
	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	clock *clock.Manual
	st    *store.Store
	m     *session.Machine
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "etude.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.New([]catalog.Phase{
		{Name: "ARRIVAL", Title: "Arrival", Blocks: []catalog.Block{
			{Kind: catalog.KindInfo, Duration: time.Second, Primary: "Sit."},
		}},
		{Name: "WARMUP", Title: "Warm-up", Blocks: []catalog.Block{
			{Kind: catalog.KindPlay, Duration: 2 * time.Second, Primary: "C major.", UsesDiagram: true, RequiresCheckin: true},
		}},
	}, nil, "Slow down.")
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 3, 2, 19, 30, 0, 0, time.UTC))
	m := session.New(cat, session.WithClock(clk), session.WithPersister(st), session.WithSessionID("sess-1"))
	t.Cleanup(m.Close)

	srv := httptest.NewServer(NewRouter(m, st, nil))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, clock: clk, st: st, m: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) session.Snapshot {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return s
}

func TestHealth(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "sess-1", body["sessionId"])
	assert.Equal(t, "READY", body["lifecycle"])
}

func TestSnapshot(t *testing.T) {
	e := setup(t)

	s := decodeSnapshot(t, e.do(t, http.MethodGet, "/api/snapshot", ""))
	assert.Equal(t, "ARRIVAL", s.PhaseName)
	assert.Equal(t, session.Ready, s.Lifecycle)
	assert.Equal(t, 3, s.HintsRemaining)
	assert.Equal(t, 60, s.TempoBPM)
	assert.True(t, s.Controls.CanBegin)
}

func TestBeginSkipBack(t *testing.T) {
	e := setup(t)

	s := decodeSnapshot(t, e.do(t, http.MethodPost, "/api/begin", ""))
	assert.Equal(t, session.Active, s.Lifecycle)

	s = decodeSnapshot(t, e.do(t, http.MethodPost, "/api/skip", ""))
	assert.Equal(t, "WARMUP", s.PhaseName)
	assert.Equal(t, session.Ready, s.Lifecycle)

	s = decodeSnapshot(t, e.do(t, http.MethodPost, "/api/back", ""))
	assert.Equal(t, "ARRIVAL", s.PhaseName)
	assert.Equal(t, session.Ready, s.Lifecycle)
}

func TestNoopStillReturnsSnapshot(t *testing.T) {
	e := setup(t)

	before := decodeSnapshot(t, e.do(t, http.MethodGet, "/api/snapshot", ""))
	s := decodeSnapshot(t, e.do(t, http.MethodPost, "/api/checkin", `{"value":"steady"}`))
	assert.Equal(t, before.Version, s.Version)
	assert.Equal(t, session.Ready, s.Lifecycle)
}

func TestHint(t *testing.T) {
	e := setup(t)

	for want := 2; want >= 0; want-- {
		resp := e.do(t, http.MethodPost, "/api/hint", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var hr HintResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&hr))
		assert.True(t, hr.Used)
		assert.Equal(t, "Slow down.", hr.Hint)
		assert.Equal(t, want, hr.Snapshot.HintsRemaining)
	}

	resp := e.do(t, http.MethodPost, "/api/hint", "")
	var hr HintResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hr))
	assert.False(t, hr.Used)
	assert.Empty(t, hr.Hint)
	assert.Equal(t, 0, hr.Snapshot.HintsRemaining)

	rec, err := e.st.LoadRecord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.HintsRemaining)
}

func TestTempo(t *testing.T) {
	e := setup(t)

	s := decodeSnapshot(t, e.do(t, http.MethodPost, "/api/tempo", `{"bpm":72}`))
	assert.Equal(t, 72, s.TempoBPM)

	s = decodeSnapshot(t, e.do(t, http.MethodPost, "/api/tempo", `{"delta":-4}`))
	assert.Equal(t, 68, s.TempoBPM)

	s = decodeSnapshot(t, e.do(t, http.MethodPost, "/api/tempo", `{"bpm":0}`))
	assert.Equal(t, 68, s.TempoBPM)
}

func TestBadRequests(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"non-numeric bpm", "/api/tempo", `{"bpm":"fast"}`},
		{"missing tempo fields", "/api/tempo", `{}`},
		{"truncated json", "/api/tempo", `{"bpm":`},
		{"empty body", "/api/checkin", ``},
		{"unknown field", "/api/checkin", `{"val":"steady"}`},
		{"trailing data", "/api/checkin", `{"value":"a"}{"value":"b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCheckInFlow(t *testing.T) {
	e := setup(t)

	decodeSnapshot(t, e.do(t, http.MethodPost, "/api/skip", ""))
	s := decodeSnapshot(t, e.do(t, http.MethodPost, "/api/begin", ""))
	require.Equal(t, session.Active, s.Lifecycle)

	e.clock.Advance(2100 * time.Millisecond)

	s = decodeSnapshot(t, e.do(t, http.MethodGet, "/api/snapshot", ""))
	require.Equal(t, session.CheckIn, s.Lifecycle)

	s = decodeSnapshot(t, e.do(t, http.MethodPost, "/api/checkin", `{"value":"steady"}`))
	assert.Equal(t, session.Done, s.Lifecycle)
	assert.Equal(t, session.CompletePrimary, s.PrimaryText)

	resp := e.do(t, http.MethodGet, "/api/checkins?limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views []CheckInView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, "steady", views[0].Value)
	assert.Equal(t, "WARMUP", views[0].Phase)
	assert.Equal(t, "sess-1", views[0].SessionID)
	assert.Equal(t, "2026-03-02", views[0].Date)
}

func TestCheckIns_BadLimit(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodGet, "/api/checkins?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type failingLister struct{}

func (failingLister) CheckIns(context.Context, store.QueryOpts) ([]store.CheckIn, error) {
	return nil, errors.New("disk gone")
}

func TestCheckIns_NilAndFailingLister(t *testing.T) {
	cat := catalog.Default()
	m := session.New(cat, session.WithClock(clock.NewManual(time.Now())))
	t.Cleanup(m.Close)

	rec := httptest.NewRecorder()
	NewRouter(m, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkins", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewRouter(m, failingLister{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkins", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodOptions, "/api/begin", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
