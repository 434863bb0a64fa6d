package session

// Fade decay rates per unit of block progress. Fingering fades faster than
// the diagram so hand-position cues disappear before the key map.
const (
	FingeringDecay = 1.15
	DiagramDecay   = 0.95
)

// Floors applied by UseHint on diagram blocks.
const (
	FingeringHintFloor = 0.85
	DiagramHintFloor   = 0.65
)

// FingeringFade returns the fingering weight at progress p.
func FingeringFade(p float64) float64 {
	return decay(p, FingeringDecay)
}

// DiagramFade returns the diagram weight at progress p.
func DiagramFade(p float64) float64 {
	return decay(p, DiagramDecay)
}

func decay(p, rate float64) float64 {
	p = max(0, min(1, p))
	return max(0, 1-p*rate)
}
