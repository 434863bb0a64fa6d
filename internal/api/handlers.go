package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
)

const maxBodyBytes = 1 << 16

// SessionHandler handles session HTTP requests.
type SessionHandler struct {
	sess     Session
	checkins store.CheckInReader
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sess Session, checkins store.CheckInReader) *SessionHandler {
	return &SessionHandler{sess: sess, checkins: checkins}
}

// TempoRequest sets the tempo (BPM) or nudges it (Delta). BPM wins when both
// are present.
type TempoRequest struct {
	BPM   *int `json:"bpm"`
	Delta *int `json:"delta"`
}

// CheckInRequest carries a check-in answer.
type CheckInRequest struct {
	Value string `json:"value"`
}

// HintResponse is returned by POST /api/hint. Used is false when the hint
// budget was exhausted or the session had finished.
type HintResponse struct {
	Hint     string           `json:"hint"`
	Used     bool             `json:"used"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// CheckInView is the JSON form of a stored check-in.
type CheckInView struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Date      string    `json:"date"`
	Phase     string    `json:"phase"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Health handles GET /healthz
func (h *SessionHandler) Health(w http.ResponseWriter, r *http.Request) {
	s := h.sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessionId": s.SessionID,
		"lifecycle": s.Lifecycle,
	})
}

// Snapshot handles GET /api/snapshot
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// Begin handles POST /api/begin
func (h *SessionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	h.sess.BeginBlock()
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// Back handles POST /api/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.sess.Back()
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// Skip handles POST /api/skip
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.sess.Skip()
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// Metronome handles POST /api/metronome
func (h *SessionHandler) Metronome(w http.ResponseWriter, r *http.Request) {
	h.sess.ToggleMetronome()
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// Hint handles POST /api/hint
func (h *SessionHandler) Hint(w http.ResponseWriter, r *http.Request) {
	text, used := h.sess.UseHint()
	writeJSON(w, http.StatusOK, HintResponse{Hint: text, Used: used, Snapshot: h.sess.Snapshot()})
}

// Tempo handles POST /api/tempo
func (h *SessionHandler) Tempo(w http.ResponseWriter, r *http.Request) {
	var req TempoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	switch {
	case req.BPM != nil:
		h.sess.SetTempo(*req.BPM)
	case req.Delta != nil:
		h.sess.AdjustTempo(*req.Delta)
	default:
		writeError(w, http.StatusBadRequest, "bpm or delta is required")
		return
	}
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// CheckIn handles POST /api/checkin
func (h *SessionHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.sess.SubmitCheckIn(req.Value)
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// CheckIns handles GET /api/checkins?limit=N&session=ID
func (h *SessionHandler) CheckIns(w http.ResponseWriter, r *http.Request) {
	opts := store.QueryOpts{SessionID: r.URL.Query().Get("session")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	views := []CheckInView{}
	if h.checkins != nil {
		rows, err := h.checkins.CheckIns(r.Context(), opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list check-ins: "+err.Error())
			return
		}
		for _, c := range rows {
			views = append(views, CheckInView{
				ID:        c.ID,
				SessionID: c.SessionID,
				Date:      c.Date,
				Phase:     c.Phase,
				Value:     c.Value,
				CreatedAt: c.CreatedAt,
			})
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
