package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// FileVersion is written by Encode. Load accepts any v1 version.
const FileVersion = "v1.0.0"

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type fileCatalog struct {
	Version      string            `yaml:"version"`
	FallbackHint string            `yaml:"fallback_hint,omitempty"`
	Hints        map[string]string `yaml:"hints,omitempty"`
	Phases       []filePhase       `yaml:"phases"`
}

type filePhase struct {
	Name   string      `yaml:"name"`
	Title  string      `yaml:"title"`
	Blocks []fileBlock `yaml:"blocks"`
}

type fileBlock struct {
	Kind      Kind    `yaml:"kind"`
	Seconds   float64 `yaml:"seconds"`
	Text      string  `yaml:"text"`
	Sub       string  `yaml:"sub,omitempty"`
	Metronome bool    `yaml:"metronome,omitempty"`
	Diagram   bool    `yaml:"diagram,omitempty"`
	Checkin   bool    `yaml:"checkin,omitempty"`
	Hint      string  `yaml:"hint,omitempty"`
}

// Load reads a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var f fileCatalog
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if !semver.IsValid(f.Version) || semver.Major(f.Version) != "v1" {
		return nil, &ValidationError{Path: "version", Err: fmt.Errorf("%w %q", ErrUnsupportedVersion, f.Version)}
	}

	phases := make([]Phase, len(f.Phases))
	for i, fp := range f.Phases {
		blocks := make([]Block, len(fp.Blocks))
		for j, fb := range fp.Blocks {
			blocks[j] = Block{
				Kind:            fb.Kind,
				Duration:        time.Duration(math.Round(fb.Seconds * float64(time.Second))),
				Primary:         fb.Text,
				Secondary:       fb.Sub,
				UsesMetronome:   fb.Metronome,
				UsesDiagram:     fb.Diagram,
				RequiresCheckin: fb.Checkin,
				HintKey:         fb.Hint,
			}
		}
		phases[i] = Phase{Name: fp.Name, Title: fp.Title, Blocks: blocks}
	}
	return New(phases, f.Hints, f.FallbackHint)
}

// Encode writes c as a YAML catalog document that Parse accepts.
func (c *Catalog) Encode(w io.Writer) error {
	f := fileCatalog{
		Version:      FileVersion,
		FallbackHint: c.fallback,
		Hints:        make(map[string]string, len(c.hints)),
		Phases:       make([]filePhase, len(c.phases)),
	}
	for k, v := range c.hints {
		f.Hints[k] = v
	}
	for i, p := range c.phases {
		fp := filePhase{Name: p.Name, Title: p.Title, Blocks: make([]fileBlock, len(p.Blocks))}
		for j, b := range p.Blocks {
			fp.Blocks[j] = fileBlock{
				Kind:      b.Kind,
				Seconds:   b.Duration.Seconds(),
				Text:      b.Primary,
				Sub:       b.Secondary,
				Metronome: b.UsesMetronome,
				Diagram:   b.UsesDiagram,
				Checkin:   b.RequiresCheckin,
				Hint:      b.HintKey,
			}
		}
		f.Phases[i] = fp
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

// HintKeys returns the hint table keys in sorted order.
func (c *Catalog) HintKeys() []string {
	keys := make([]string, 0, len(c.hints))
	for k := range c.hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validateDocument checks the raw document against the embedded schema.
func validateDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	if doc == nil {
		return ErrNoPhases
	}

	// The schema library wants JSON-shaped values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("convert document: %w", err)
	}

	schema, err := catalogSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(schemaJSON, &def); err != nil {
			schemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://catalog.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}
