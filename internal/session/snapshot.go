package session

import (
	"time"

	"github.com/abhisek/etude/internal/catalog"
)

// Display text used by the machine.
const (
	LabelBegin   = "Begin"
	LabelReflect = "Reflect"

	StatusPlay    = "You play on your real piano. The app conducts."
	StatusReflect = "A calm close. One sentence. Tomorrow adapts."

	CompleteTitle     = "Complete"
	CompletePrimary   = "Session complete."
	CompleteSecondary = "Nice. Tomorrow we build fluency again."
)

// Controls says which operations currently do something.
type Controls struct {
	CanBegin           bool `json:"canBegin"`
	CanBack            bool `json:"canBack"`
	CanSkip            bool `json:"canSkip"`
	CanHint            bool `json:"canHint"`
	CanCheckIn         bool `json:"canCheckIn"`
	CanToggleMetronome bool `json:"canToggleMetronome"`
	CanChangeTempo     bool `json:"canChangeTempo"`
}

// Beat describes the most recent metronome pulse.
type Beat struct {
	Index   int       `json:"index"`
	Accent  bool      `json:"accent"`
	CountIn bool      `json:"countIn"`
	At      time.Time `json:"at"`
}

// Snapshot is a read-only view of the machine. Version increases with
// every published change; consumers drop snapshots older than one they have
// already seen.
type Snapshot struct {
	Version   uint64 `json:"version"`
	SessionID string `json:"sessionId"`

	PhaseName   string `json:"phaseName"`
	PhaseTitle  string `json:"phaseTitle"`
	PhaseNumber int    `json:"phaseNumber"` // 1-based
	PhaseCount  int    `json:"phaseCount"`
	BlockNumber int    `json:"blockNumber"` // 1-based within the phase
	BlockCount  int    `json:"blockCount"`
	Ordinal     int    `json:"ordinal"` // 0-based across the session
	TotalBlocks int    `json:"totalBlocks"`

	Kind            catalog.Kind `json:"kind"`
	PrimaryText     string       `json:"primaryText"`
	SecondaryText   string       `json:"secondaryText"`
	UsesMetronome   bool         `json:"usesMetronome"`
	UsesDiagram     bool         `json:"usesDiagram"`
	RequiresCheckin bool         `json:"requiresCheckin"`

	Lifecycle        Lifecycle `json:"lifecycle"`
	HintsRemaining   int       `json:"hintsRemaining"`
	TempoBPM         int       `json:"tempoBPM"`
	DiagramFade      float64   `json:"diagramFade"`
	FingeringFade    float64   `json:"fingeringFade"`
	RemainingSeconds float64   `json:"remainingSeconds"`
	Progress         float64   `json:"progress"`

	MetronomeRunning bool   `json:"metronomeRunning"`
	LastBeat         Beat   `json:"lastBeat"`
	BeatCount        uint64 `json:"beatCount"`

	Controls     Controls `json:"controls"`
	PrimaryLabel string   `json:"primaryLabel"`
	StatusLine   string   `json:"statusLine"`
}

// Remaining returns the remaining block time as a duration.
func (s Snapshot) Remaining() time.Duration {
	return time.Duration(s.RemainingSeconds * float64(time.Second))
}

// Done reports whether the session has finished.
func (s Snapshot) Done() bool {
	return s.Lifecycle == Done
}
