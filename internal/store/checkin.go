package store

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// AppendCheckIn adds entry to the check-in log.
func (s *Store) AppendCheckIn(ctx context.Context, sessionID string, entry CheckInEntry) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	now := s.now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkins (id, sequence, session_id, date, phase, value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, seqNum, sessionID, entry.Date, entry.Phase, entry.Value, formatTime(now))
	if err != nil {
		return fmt.Errorf("save check-in: %w", err)
	}
	return nil
}

// CheckIns returns check-ins matching opts, oldest first.
func (s *Store) CheckIns(ctx context.Context, opts QueryOpts) ([]CheckIn, error) {
	where, args := queryFilter(opts)
	q := "SELECT id, sequence, session_id, date, phase, value, created_at FROM checkins" + where
	q, args = limitRecent(q, args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	defer rows.Close()

	var out []CheckIn
	for rows.Next() {
		var c CheckIn
		var created string
		if err := rows.Scan(&c.ID, &c.Sequence, &c.SessionID, &c.Date, &c.Phase, &c.Value, &created); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// limitRecent wraps q so that only the newest limit rows are returned, still
// in ascending sequence order.
func limitRecent(q string, args []any, limit int) (string, []any) {
	if limit <= 0 {
		return q + " ORDER BY sequence ASC", args
	}
	q = "SELECT * FROM (" + q + " ORDER BY sequence DESC LIMIT ?) ORDER BY sequence ASC"
	return q, append(args, limit)
}
