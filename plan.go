package runrun

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-runrun/registry"
)

// Plan selects registered suites for a run and overrides their modifiers.
//
//	title: nightly
//	grep: "Math/**"
//	defaultTimeout: 2s
//	suites:
//	  - name: Math
//	    sequence: true
//	  - name: Square Class
//	    timeout: 500ms
type Plan struct {
	Title          string        `yaml:"title" toml:"title"`
	Grep           string        `yaml:"grep" toml:"grep"`
	DefaultTimeout time.Duration `yaml:"defaultTimeout" toml:"default_timeout"`
	MaxConcurrency int           `yaml:"maxConcurrency" toml:"max_concurrency"`
	Suites         []PlanSuite   `yaml:"suites" toml:"suites"`
}

// PlanSuite is one entry of a plan
type PlanSuite struct {
	Name     string        `yaml:"name" toml:"name"`
	Skip     bool          `yaml:"skip" toml:"skip"`
	Sequence bool          `yaml:"sequence" toml:"sequence"`
	Story    bool          `yaml:"story" toml:"story"`
	Timeout  time.Duration `yaml:"timeout" toml:"timeout"`
}

// LoadPlan reads a plan from a YAML or TOML file, chosen by extension
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file at path %s: %w", path, err)
	}

	var plan Plan
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&plan); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse plan file: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &plan)
		if err != nil {
			return nil, fmt.Errorf("failed to parse plan file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse plan file: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported plan format %q, expected .yaml, .yml or .toml", ext)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}
	return &plan, nil
}

// Validate checks that suite entries are named, unique and not negative
func (p *Plan) Validate() error {
	if p.MaxConcurrency < 0 {
		return fmt.Errorf("maxConcurrency must be zero or positive, got %d", p.MaxConcurrency)
	}
	seen := make(map[string]struct{}, len(p.Suites))
	for i, s := range p.Suites {
		if s.Name == "" {
			return fmt.Errorf("suite %d has no name", i)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("suite %q listed twice", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Timeout < 0 {
			return fmt.Errorf("suite %q: timeout must be positive, got %v", s.Name, s.Timeout)
		}
	}
	return nil
}

// Selections converts the plan's suite entries for the registry
func (p *Plan) Selections() []registry.Selection {
	sels := make([]registry.Selection, 0, len(p.Suites))
	for _, s := range p.Suites {
		sels = append(sels, registry.Selection{
			Name:     s.Name,
			Skip:     s.Skip,
			Sequence: s.Sequence,
			Story:    s.Story,
			Timeout:  s.Timeout,
		})
	}
	return sels
}
