package practice

import (
	sess "github.com/abhisek/etude/internal/session"
)

// snapshotMsg carries a snapshot published by the machine.
type snapshotMsg sess.Snapshot

// hintExpiredMsg ends the display of the hint with the same sequence number.
type hintExpiredMsg struct {
	seq int
}
