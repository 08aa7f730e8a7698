// Package domainfile loads agent definitions from YAML or JSON documents.
package domainfile

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/Harshitk-cp/bdicore/internal/domain"
	"github.com/Harshitk-cp/bdicore/internal/service"
	"gopkg.in/yaml.v3"
)

// Format selects the decoder for Parse.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// BeliefEntry is a belief in a document. A missing certainty means 1.0.
type BeliefEntry struct {
	Key       string   `json:"key" yaml:"key"`
	Value     string   `json:"value" yaml:"value"`
	Certainty *float64 `json:"certainty,omitempty" yaml:"certainty,omitempty"`
}

// Document describes one agent: its initial beliefs, rules, actions and desires.
//
//	name: courier
//	facts:
//	  location: warehouse
//	rules:
//	  - name: battery_ok
//	    conditions: ["battery_level=80"]
//	    conclusions: ["battery_ok=true"]
type Document struct {
	Name string `json:"name" yaml:"name"`
	// Facts is shorthand for beliefs held with full certainty.
	Facts   map[string]string     `json:"facts,omitempty" yaml:"facts,omitempty"`
	Beliefs []BeliefEntry         `json:"beliefs,omitempty" yaml:"beliefs,omitempty"`
	Rules   []domain.RuleRecord   `json:"rules,omitempty" yaml:"rules,omitempty"`
	Actions []domain.ActionRecord `json:"actions,omitempty" yaml:"actions,omitempty"`
	Desires []domain.DesireRecord `json:"desires,omitempty" yaml:"desires,omitempty"`
}

// Load reads a document from path. The format is chosen by file extension (.json,
// .yaml, .yml).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain file: %w", err)
	}

	var format Format
	switch filepath.Ext(path) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("unsupported domain file format: %s (supported: .json, .yaml, .yml)", filepath.Ext(path))
	}
	return Parse(data, format)
}

// Parse decodes and validates a document.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON domain: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML domain: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported domain format %q", format)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("domain validation failed: %w", err)
	}
	return &doc, nil
}

// Validate checks every entry parses, names are unique and utility expressions
// compile.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("missing required field 'name'")
	}

	for i, b := range d.Beliefs {
		u := domain.BeliefUpdate{Key: b.Key, Value: b.Value, Certainty: certainty(b.Certainty)}
		if err := u.Validate(); err != nil {
			return fmt.Errorf("belief at index %d: %w", i, err)
		}
	}

	rules := make(map[string]bool)
	for i, r := range d.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule at index %d is missing required field 'name'", i)
		}
		if rules[r.Name] {
			return fmt.Errorf("duplicate rule name: %s", r.Name)
		}
		rules[r.Name] = true
		if _, err := domain.RuleFromRecord(r); err != nil {
			return err
		}
	}

	actions := make(map[string]bool)
	for _, a := range d.Actions {
		if actions[a.Name] {
			return fmt.Errorf("duplicate action name: %s", a.Name)
		}
		actions[a.Name] = true
		if _, err := domain.ActionFromRecord(a); err != nil {
			return err
		}
	}

	for i, rec := range d.Desires {
		goal, err := domain.GoalFromRecord(rec.Goal)
		if err != nil {
			return fmt.Errorf("desire at index %d: %w", i, err)
		}
		if rec.Utility != "" {
			if _, err := service.NewCELScorer(goal.Name(), rec.Utility, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Snapshot converts the document into the snapshot an agent is restored from. Facts
// come first in key order, followed by the explicit beliefs.
func (d *Document) Snapshot() *domain.AgentSnapshot {
	s := &domain.AgentSnapshot{
		Name:    d.Name,
		Rules:   slices.Clone(d.Rules),
		Actions: slices.Clone(d.Actions),
		Desires: slices.Clone(d.Desires),
	}
	for _, k := range slices.Sorted(maps.Keys(d.Facts)) {
		s.Beliefs = append(s.Beliefs, domain.BeliefRecord{Key: k, Value: d.Facts[k], Certainty: 1})
	}
	for _, b := range d.Beliefs {
		s.Beliefs = append(s.Beliefs, domain.BeliefRecord{Key: b.Key, Value: b.Value, Certainty: certainty(b.Certainty)})
	}
	return s
}

func certainty(c *float64) float64 {
	if c == nil {
		return 1
	}
	return *c
}
