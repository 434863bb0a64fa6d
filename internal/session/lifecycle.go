package session

import "fmt"

// Lifecycle is the state of the current block.
type Lifecycle int

const (
	Ready   Lifecycle = iota // Waiting for BeginBlock
	CountIn                  // Metronome count-in before the block starts
	Active                   // Clock running
	CheckIn                  // Waiting for a check-in value
	Done                     // Session finished
)

var lifecycleNames = [...]string{"READY", "COUNT_IN", "ACTIVE", "CHECK_IN", "DONE"}

func (l Lifecycle) String() string {
	if l < 0 || int(l) >= len(lifecycleNames) {
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
	return lifecycleNames[l]
}

// MarshalText encodes the lifecycle by name.
func (l Lifecycle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a lifecycle name.
func (l *Lifecycle) UnmarshalText(b []byte) error {
	for i, name := range lifecycleNames {
		if name == string(b) {
			*l = Lifecycle(i)
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle %q", string(b))
}
