// Package hanging defines the hanging-protocol data model: protocols,
// stages, viewport specifications, matching rules and their persisted form.
package hanging

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ConstraintOptions holds the parameters of a single constraint. Which fields
// are meaningful depends on the validator kind: value for the equality and
// string validators, min/max for range.
type ConstraintOptions struct {
	Value any      `json:"value,omitempty" yaml:"value,omitempty"`
	Min   *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Constraint is one validator invocation: a kind naming the validator and its
// options. It persists as a single-key object keyed by the validator kind,
// e.g. {"equals": {"value": "CT"}}.
type Constraint struct {
	Kind    string
	Options ConstraintOptions
}

// NewConstraint builds a constraint for the given validator kind and value.
func NewConstraint(kind string, value any) Constraint {
	return Constraint{Kind: kind, Options: ConstraintOptions{Value: value}}
}

// RangeConstraint builds a range constraint with inclusive bounds.
func RangeConstraint(min, max float64) Constraint {
	return Constraint{Kind: "range", Options: ConstraintOptions{Min: &min, Max: &max}}
}

// MarshalJSON encodes the constraint in its persisted single-key form.
func (c Constraint) MarshalJSON() ([]byte, error) {
	if c.Kind == "" {
		return nil, fmt.Errorf("constraint has no validator kind")
	}
	return json.Marshal(map[string]ConstraintOptions{c.Kind: c.Options})
}

// UnmarshalJSON decodes the persisted single-key form.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var raw map[string]ConstraintOptions
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.fromMap(raw)
}

// MarshalYAML encodes the constraint in the same single-key form as JSON.
func (c Constraint) MarshalYAML() (any, error) {
	if c.Kind == "" {
		return nil, fmt.Errorf("constraint has no validator kind")
	}
	return map[string]ConstraintOptions{c.Kind: c.Options}, nil
}

// UnmarshalYAML decodes the single-key form from YAML.
func (c *Constraint) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]ConstraintOptions
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return c.fromMap(raw)
}

func (c *Constraint) fromMap(raw map[string]ConstraintOptions) error {
	if len(raw) != 1 {
		return fmt.Errorf("constraint must have exactly one validator kind, got %d", len(raw))
	}
	for kind, opts := range raw {
		c.Kind = kind
		c.Options = opts
	}
	return nil
}

// Rule is one attribute constraint with required/weight semantics.
//
// A required rule that fails excludes the candidate from consideration
// entirely; a non-required rule only affects the score. Weight defaults to 1.
type Rule struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Attribute  string     `json:"attribute" yaml:"attribute"`
	Constraint Constraint `json:"constraint" yaml:"constraint"`
	Required   bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Weight     float64    `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// NewRule creates a rule with a fresh id and the default weight.
func NewRule(attribute string, constraint Constraint, required bool) Rule {
	return Rule{
		ID:         uuid.NewString(),
		Attribute:  attribute,
		Constraint: constraint,
		Required:   required,
		Weight:     1,
	}
}

// EffectiveWeight returns the rule weight, applying the default of 1 when the
// weight is unset or non-positive.
func (r Rule) EffectiveWeight() float64 {
	if r.Weight <= 0 {
		return 1
	}
	return r.Weight
}

// normalize fills generated fields on a decoded rule.
func (r *Rule) normalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Weight <= 0 {
		r.Weight = 1
	}
}
