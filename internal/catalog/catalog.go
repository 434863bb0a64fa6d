// Package catalog defines the static content of a practice session: an
// ordered list of phases, each an ordered list of timed blocks.
package catalog

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a block.
type Kind string

const (
	KindInfo    Kind = "info"
	KindPlay    Kind = "play"
	KindReflect Kind = "reflect"
)

// Valid reports whether k is a known block kind.
func (k Kind) Valid() bool {
	switch k {
	case KindInfo, KindPlay, KindReflect:
		return true
	}
	return false
}

var (
	ErrNoPhases           = errors.New("catalog has no phases")
	ErrEmptyPhase         = errors.New("phase has no blocks")
	ErrBadDuration        = errors.New("block duration must be positive")
	ErrUnknownKind        = errors.New("unknown block kind")
	ErrUnknownHint        = errors.New("unknown hint key")
	ErrUnsupportedVersion = errors.New("unsupported catalog version")
)

// ValidationError reports which part of a catalog is invalid.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Block is the smallest timed unit of a session.
type Block struct {
	Kind            Kind
	Duration        time.Duration
	Primary         string
	Secondary       string
	UsesMetronome   bool
	UsesDiagram     bool
	RequiresCheckin bool

	// HintKey selects the block's entry in the catalog hint table.
	HintKey string
}

// Phase is a named group of blocks.
type Phase struct {
	Name   string
	Title  string
	Blocks []Block
}

// Cursor identifies a block by phase and block index.
type Cursor struct {
	Phase int `json:"phase"`
	Block int `json:"block"`
}

// Catalog is an immutable session definition.
type Catalog struct {
	phases   []Phase
	hints    map[string]string
	fallback string
}

// New validates phases and hints and builds a Catalog. The inputs are
// copied; later changes to them do not affect the catalog. An empty
// fallback uses DefaultFallbackHint.
func New(phases []Phase, hints map[string]string, fallback string) (*Catalog, error) {
	if len(phases) == 0 {
		return nil, ErrNoPhases
	}

	c := &Catalog{
		phases:   make([]Phase, len(phases)),
		hints:    make(map[string]string, len(hints)),
		fallback: fallback,
	}
	if c.fallback == "" {
		c.fallback = DefaultFallbackHint
	}
	for k, v := range hints {
		c.hints[k] = v
	}

	for i, p := range phases {
		if len(p.Blocks) == 0 {
			return nil, &ValidationError{Path: fmt.Sprintf("phases[%d]", i), Err: ErrEmptyPhase}
		}
		blocks := make([]Block, len(p.Blocks))
		for j, b := range p.Blocks {
			path := fmt.Sprintf("phases[%d].blocks[%d]", i, j)
			if b.Duration <= 0 {
				return nil, &ValidationError{Path: path, Err: ErrBadDuration}
			}
			if !b.Kind.Valid() {
				return nil, &ValidationError{Path: path, Err: fmt.Errorf("%w %q", ErrUnknownKind, b.Kind)}
			}
			if b.HintKey != "" {
				if _, ok := c.hints[b.HintKey]; !ok {
					return nil, &ValidationError{Path: path, Err: fmt.Errorf("%w %q", ErrUnknownHint, b.HintKey)}
				}
			}
			blocks[j] = b
		}
		c.phases[i] = Phase{Name: p.Name, Title: p.Title, Blocks: blocks}
	}
	return c, nil
}

// Len returns the number of phases.
func (c *Catalog) Len() int {
	return len(c.phases)
}

// Phases returns a copy of the phase list.
func (c *Catalog) Phases() []Phase {
	out := make([]Phase, len(c.phases))
	for i, p := range c.phases {
		out[i] = copyPhase(p)
	}
	return out
}

// First returns the cursor of the first block.
func (c *Catalog) First() Cursor {
	return Cursor{}
}

// Valid reports whether cur points at a block.
func (c *Catalog) Valid(cur Cursor) bool {
	return cur.Phase >= 0 && cur.Phase < len(c.phases) &&
		cur.Block >= 0 && cur.Block < len(c.phases[cur.Phase].Blocks)
}

// PhaseAt returns the phase containing cur, or a zero Phase if cur is out
// of range.
func (c *Catalog) PhaseAt(cur Cursor) Phase {
	if cur.Phase < 0 || cur.Phase >= len(c.phases) {
		return Phase{}
	}
	return copyPhase(c.phases[cur.Phase])
}

// BlockAt returns the block at cur, or a zero Block if cur is out of range.
func (c *Catalog) BlockAt(cur Cursor) Block {
	if !c.Valid(cur) {
		return Block{}
	}
	return c.phases[cur.Phase].Blocks[cur.Block]
}

// IsLastBlockInPhase reports whether cur is the final block of its phase.
func (c *Catalog) IsLastBlockInPhase(cur Cursor) bool {
	if !c.Valid(cur) {
		return false
	}
	return cur.Block == len(c.phases[cur.Phase].Blocks)-1
}

// IsLastPhase reports whether cur lies in the final phase.
func (c *Catalog) IsLastPhase(cur Cursor) bool {
	return cur.Phase == len(c.phases)-1
}

// BlockCount returns the number of blocks in phase i.
func (c *Catalog) BlockCount(phase int) int {
	if phase < 0 || phase >= len(c.phases) {
		return 0
	}
	return len(c.phases[phase].Blocks)
}

// TotalBlocks returns the number of blocks across all phases.
func (c *Catalog) TotalBlocks() int {
	n := 0
	for _, p := range c.phases {
		n += len(p.Blocks)
	}
	return n
}

// Ordinal returns the 0-based position of cur across the whole session,
// or -1 if cur is out of range.
func (c *Catalog) Ordinal(cur Cursor) int {
	if !c.Valid(cur) {
		return -1
	}
	n := 0
	for i := 0; i < cur.Phase; i++ {
		n += len(c.phases[i].Blocks)
	}
	return n + cur.Block
}

// TotalDuration sums the durations of every block.
func (c *Catalog) TotalDuration() time.Duration {
	var d time.Duration
	for _, p := range c.phases {
		for _, b := range p.Blocks {
			d += b.Duration
		}
	}
	return d
}

// HintFor returns the hint text for b, or the fallback hint.
func (c *Catalog) HintFor(b Block) string {
	if text, ok := c.hints[b.HintKey]; ok && b.HintKey != "" {
		return text
	}
	return c.fallback
}

func copyPhase(p Phase) Phase {
	blocks := make([]Block, len(p.Blocks))
	copy(blocks, p.Blocks)
	return Phase{Name: p.Name, Title: p.Title, Blocks: blocks}
}
