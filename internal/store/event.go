package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// sequenceCounter hands out the global monotonic sequence shared by
// check-ins and session events, so the two tables can be merged into one
// ordered history. The mutex serializes within the process; the RETURNING
// clause makes the increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// queryFilter turns QueryOpts into a WHERE/LIMIT suffix. Results are
// ordered by sequence; Limit keeps the most recent rows.
func queryFilter(opts QueryOpts) (where string, args []any) {
	clauses := []string{}
	if opts.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	if opts.After > 0 {
		clauses = append(clauses, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		clauses = append(clauses, "sequence < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTime(opts.From))
	}
	if !opts.To.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, formatTime(opts.To))
	}

	for i, c := range clauses {
		if i == 0 {
			where += " WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	return where, args
}
