package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // most recent N results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // created_at >= From
	To        time.Time // created_at <= To
	SessionID string
}

// Defaults for a missing or unreadable practice record.
const (
	DefaultHints = 3
	DefaultTempo = 60
)

// Record is the practice state carried between sessions.
type Record struct {
	HintsRemaining int    `json:"hintsRemaining"`
	TempoBPM       int    `json:"tempoBPM"`
	LastUsedDate   string `json:"lastUsedDate,omitempty"`
}

// DefaultRecord returns the record used on first run.
func DefaultRecord() Record {
	return Record{HintsRemaining: DefaultHints, TempoBPM: DefaultTempo}
}

// CheckInEntry is one submitted check-in.
type CheckInEntry struct {
	Date  string // YYYY-MM-DD, UTC
	Phase string
	Value string
}

// CheckIn is a stored check-in row.
type CheckIn struct {
	ID        string
	Sequence  int64
	SessionID string
	Date      string
	Phase     string
	Value     string
	CreatedAt time.Time
}

// Session event actions.
const (
	ActionStart    = "start"
	ActionComplete = "complete"
	ActionAbandon  = "abandon"
)

// SessionEventData captures a session lifecycle event.
type SessionEventData struct {
	SessionID string
	Action    string
	Phase     string
	Block     int
}

// SessionEvent is a stored session event row.
type SessionEvent struct {
	ID        int64
	Sequence  int64
	SessionID string
	Action    string
	Phase     string
	Block     int
	CreatedAt time.Time
}

// RecordRepo loads and saves the practice record.
type RecordRepo interface {
	LoadRecord(ctx context.Context) (Record, error)
	SaveRecord(ctx context.Context, rec Record) error
}

// CheckInReader reads the check-in log.
type CheckInReader interface {
	CheckIns(ctx context.Context, opts QueryOpts) ([]CheckIn, error)
}

// EventRepo provides append and query access to the check-in log and
// session events.
type EventRepo interface {
	AppendCheckIn(ctx context.Context, sessionID string, entry CheckInEntry) error
	CheckIns(ctx context.Context, opts QueryOpts) ([]CheckIn, error)
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	SessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error)
}

var (
	_ RecordRepo = (*Store)(nil)
	_ EventRepo  = (*Store)(nil)

	_ CheckInReader = (*Store)(nil)
)
