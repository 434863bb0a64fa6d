// Package api exposes a running practice session over local HTTP so a
// browser page or a foot pedal script can conduct it alongside the terminal.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
)

// Session is the subset of the session machine the handlers drive.
type Session interface {
	Snapshot() session.Snapshot
	BeginBlock()
	Back()
	Skip()
	UseHint() (string, bool)
	SubmitCheckIn(value string) bool
	SetTempo(bpm int) bool
	AdjustTempo(delta int) bool
	ToggleMetronome() bool
}

var _ Session = (*session.Machine)(nil)

// NewRouter creates the chi router with all routes and middleware. checkins
// may be nil, in which case the log endpoint returns an empty list.
func NewRouter(sess Session, checkins store.CheckInReader, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewSessionHandler(sess, checkins)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", h.Snapshot)
		r.Post("/begin", h.Begin)
		r.Post("/back", h.Back)
		r.Post("/skip", h.Skip)
		r.Post("/hint", h.Hint)
		r.Post("/metronome", h.Metronome)
		r.Post("/tempo", h.Tempo)
		r.Post("/checkin", h.CheckIn)
		r.Get("/checkins", h.CheckIns)
	})

	return r
}
