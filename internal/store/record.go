package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const recordKey = "practice_state"

// LoadRecord reads the practice record. A missing record, unparsable JSON or
// an out-of-range field falls back to the default for that field (see
// WithDefaultTempo); only database failures are returned as errors.
func (s *Store) LoadRecord(ctx context.Context) (Record, error) {
	rec := s.defaults

	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", recordKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return rec, fmt.Errorf("load record: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		s.logger.Debug("practice record unreadable, using defaults", "error", err)
		return rec, nil
	}

	var hints float64
	if decodeField(fields, "hintsRemaining", &hints) &&
		hints == math.Trunc(hints) && hints >= 0 && hints <= DefaultHints {
		rec.HintsRemaining = int(hints)
	} else if _, ok := fields["hintsRemaining"]; ok {
		s.logger.Debug("practice record hintsRemaining invalid, using default", "raw", string(fields["hintsRemaining"]))
	}

	var tempo float64
	if decodeField(fields, "tempoBPM", &tempo) && tempo > 0 && !math.IsInf(tempo, 0) {
		rec.TempoBPM = int(math.Round(tempo))
		if rec.TempoBPM <= 0 {
			rec.TempoBPM = s.defaults.TempoBPM
		}
	} else if _, ok := fields["tempoBPM"]; ok {
		s.logger.Debug("practice record tempoBPM invalid, using default", "raw", string(fields["tempoBPM"]))
	}

	var date string
	if decodeField(fields, "lastUsedDate", &date) {
		rec.LastUsedDate = date
	}
	return rec, nil
}

// SaveRecord replaces the stored practice record.
func (s *Store) SaveRecord(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		recordKey, string(data), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func decodeField(fields map[string]json.RawMessage, name string, dst any) bool {
	raw, ok := fields[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
