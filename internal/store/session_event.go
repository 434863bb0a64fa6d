package store

import (
	"context"
	"fmt"
)

// AppendSessionEvent records a session start, completion or abandonment.
func (s *Store) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_events (sequence, session_id, action, phase, block, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		seqNum, data.SessionID, data.Action, data.Phase, data.Block, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// SessionEvents returns session events matching opts, oldest first.
func (s *Store) SessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error) {
	where, args := queryFilter(opts)
	q := "SELECT id, sequence, session_id, action, phase, block, created_at FROM session_events" + where
	q, args = limitRecent(q, args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var created string
		if err := rows.Scan(&e.ID, &e.Sequence, &e.SessionID, &e.Action, &e.Phase, &e.Block, &created); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
