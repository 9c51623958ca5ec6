// Package catalogue loads the static stage, pathway and transition
// configuration from YAML.
package catalogue

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/clarence/internal/core/alignment"
	"github.com/example/clarence/internal/core/pathway"
)

//go:embed default.yaml
var defaultYAML []byte

// ClauseTemplate is a clause seeded into every new session.
type ClauseTemplate struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Priority    int    `yaml:"priority,omitempty"`
}

// Catalogue is the parsed configuration file.
type Catalogue struct {
	pathway.Catalogue `yaml:",inline"`

	DefaultPathway  string           `yaml:"default_pathway,omitempty"`
	ClauseTemplates []ClauseTemplate `yaml:"clause_templates,omitempty"`
}

// Default returns the catalogue embedded in the binary.
func Default() (Catalogue, error) {
	cat, err := ParseYAML(defaultYAML)
	if err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: embedded default: %w", err)
	}
	return cat, nil
}

// DefaultYAML returns the raw embedded catalogue.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}

// ParseYAML decodes and validates a catalogue.
func ParseYAML(data []byte) (Catalogue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Catalogue{}, fmt.Errorf("catalogue: payload is empty")
	}
	var cat Catalogue
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: decode: %w", err)
	}
	return cat.Normalized()
}

// LoadReader reads catalogue data from r.
func LoadReader(r io.Reader) (Catalogue, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: read: %w", err)
	}
	return ParseYAML(content)
}

// LoadFile loads a catalogue from path.
func LoadFile(path string) (Catalogue, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: read %s: %w", path, err)
	}
	cat, err := ParseYAML(content)
	if err != nil {
		return Catalogue{}, fmt.Errorf("catalogue: %s: %w", path, err)
	}
	return cat, nil
}

// Load returns the catalogue at path, or the embedded default when path is empty.
func Load(path string) (Catalogue, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// Normalized trims identifiers, fills the default pathway and validates the
// result.
func (c Catalogue) Normalized() (Catalogue, error) {
	out := c
	out.Stages = make([]pathway.StageDefinition, len(c.Stages))
	for i, s := range c.Stages {
		s.ID = strings.TrimSpace(s.ID)
		if s.Name == "" {
			s.Name = s.ID
		}
		out.Stages[i] = s
	}
	out.Pathways = make([]pathway.Definition, len(c.Pathways))
	for i, p := range c.Pathways {
		p.ID = strings.TrimSpace(p.ID)
		p.Stages = trimAll(p.Stages)
		p.Skip = trimAll(p.Skip)
		if p.Name == "" {
			p.Name = p.ID
		}
		out.Pathways[i] = p
	}
	out.Transitions = make([]pathway.TransitionDefinition, len(c.Transitions))
	for i, t := range c.Transitions {
		t.ID = strings.TrimSpace(t.ID)
		t.From = strings.TrimSpace(t.From)
		t.To = strings.TrimSpace(t.To)
		t.Pathways = trimAll(t.Pathways)
		out.Transitions[i] = t
	}
	out.ClauseTemplates = append([]ClauseTemplate(nil), c.ClauseTemplates...)

	if out.DefaultPathway == "" && len(out.Pathways) > 0 {
		out.DefaultPathway = out.Pathways[0].ID
	}
	if err := out.Validate(); err != nil {
		return Catalogue{}, err
	}
	return out, nil
}

// Validate checks the pathway tables plus the default pathway and templates.
func (c Catalogue) Validate() error {
	if err := c.Catalogue.Validate(); err != nil {
		return err
	}
	if _, err := c.Pathway(c.DefaultPathway); err != nil {
		return fmt.Errorf("default_pathway: %w", err)
	}
	for i, t := range c.ClauseTemplates {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("clause_templates[%d]: title is required", i)
		}
		if t.Priority != 0 && (t.Priority < alignment.MinPriority || t.Priority > alignment.MaxPriority) {
			return fmt.Errorf("clause_templates[%d]: priority %d must be between %d and %d",
				i, t.Priority, alignment.MinPriority, alignment.MaxPriority)
		}
	}
	return nil
}

// Marshal encodes the catalogue back to YAML.
func (c Catalogue) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("catalogue: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("catalogue: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
