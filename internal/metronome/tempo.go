package metronome

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	MinBPM     = 30
	MaxBPM     = 240
	DefaultBPM = 60

	// BeatsPerBar sets the accent period: every BeatsPerBar-th pulse,
	// counting from the first, is accented.
	BeatsPerBar = 4

	// DefaultCountInBeats is the length of a count-in (one bar).
	DefaultCountInBeats = 4
)

// ValidTempo reports whether bpm can drive a pulse interval at all.
func ValidTempo(bpm int) bool {
	return bpm > 0
}

// ClampTempo bounds a tempo into [MinBPM, MaxBPM].
func ClampTempo(bpm int) int {
	return max(MinBPM, min(MaxBPM, bpm))
}

// ParseTempo parses user tempo input. Non-numeric and non-positive values
// are rejected; anything else is rounded and clamped.
func ParseTempo(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return ClampTempo(int(math.Round(f))), true
}

// Interval returns the spacing between pulses at bpm, or zero for an
// invalid tempo.
func Interval(bpm int) time.Duration {
	if !ValidTempo(bpm) {
		return 0
	}
	return time.Minute / time.Duration(bpm)
}

// IsAccent reports whether the pulse at index is accented.
func IsAccent(index int) bool {
	return index%BeatsPerBar == 0
}
