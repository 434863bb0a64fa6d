package catalog

import "time"

// DefaultFallbackHint is shown for blocks without a dedicated hint.
const DefaultFallbackHint = "Hint: slow down. Clean > fast. One perfect rep beats five messy ones."

// Hint keys used by the built-in session.
const (
	HintCMajorScale    = "c-major-scale"
	HintDiatonicTriads = "diatonic-triads"
	HintProgression    = "progression-i-v-vi-iv"
)

var defaultHints = map[string]string{
	HintCMajorScale:    "Hint: keep wrists loose. Thumb crosses after 3 (RH) / after 3 (LH) in two-octave shapes.",
	HintDiatonicTriads: "Hint: in major keys the pattern is M–m–m–M–M–m–dim. Say quality as you build.",
	HintProgression:    "Hint: keep the top note smooth; aim for even chord changes more than speed.",
}

// Default returns the built-in 45 minute session.
func Default() *Catalog {
	phases := []Phase{
		{
			Name:  "ARRIVAL",
			Title: "Arrival",
			Blocks: []Block{{
				Kind:      KindInfo,
				Duration:  3 * time.Minute,
				Primary:   "Sit comfortably. Today’s focus: fluency over speed.",
				Secondary: "Tap Begin when your hands are on the keys.",
			}},
		},
		{
			Name:  "WARMUP",
			Title: "Technical Warmup",
			Blocks: []Block{{
				Kind:            KindPlay,
				Duration:        8 * time.Minute,
				Primary:         "C major. Hands separate. Left hand first. 60 BPM.",
				Secondary:       "Clean notes. Even tone. No rushing.",
				UsesMetronome:   true,
				UsesDiagram:     true,
				RequiresCheckin: true,
				HintKey:         HintCMajorScale,
			}},
		},
		{
			Name:  "THINKING",
			Title: "Thinking While Playing",
			Blocks: []Block{{
				Kind:            KindPlay,
				Duration:        10 * time.Minute,
				Primary:         "Build diatonic triads in G major. Root position. Say quality out loud.",
				Secondary:       "Then broken: 1–3–5–3. Stay relaxed.",
				UsesMetronome:   true,
				UsesDiagram:     true,
				RequiresCheckin: true,
				HintKey:         HintDiatonicTriads,
			}},
		},
		{
			Name:  "APPLICATION",
			Title: "Application",
			Blocks: []Block{{
				Kind:            KindPlay,
				Duration:        15 * time.Minute,
				Primary:         "In D major: play I–V–vi–IV. Block → Broken → Improv (2 min).",
				Secondary:       "Musicality first. Metronome optional.",
				RequiresCheckin: true,
				HintKey:         HintProgression,
			}},
		},
		{
			Name:  "REFLECTION",
			Title: "Reflection",
			Blocks: []Block{{
				Kind:      KindReflect,
				Duration:  5 * time.Minute,
				Primary:   "What improved today?",
				Secondary: "Then: what felt tense? what should tomorrow emphasize?",
			}},
		},
	}

	c, err := New(phases, defaultHints, DefaultFallbackHint)
	if err != nil {
		panic("catalog: invalid built-in session: " + err.Error())
	}
	return c
}
