package hanging

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mrsinham/hangforge/internal/hanging/attribute"
)

// Viewport is the specification of one slot within a stage: the matching
// rules grouped by target level plus opaque per-slot settings that are
// carried through to the rendering collaborator untouched.
type Viewport struct {
	StudyRules    []Rule         `json:"studyMatchingRules,omitempty" yaml:"studyMatchingRules,omitempty"`
	SeriesRules   []Rule         `json:"seriesMatchingRules,omitempty" yaml:"seriesMatchingRules,omitempty"`
	InstanceRules []Rule         `json:"imageMatchingRules,omitempty" yaml:"imageMatchingRules,omitempty"`
	Settings      map[string]any `json:"viewportSettings,omitempty" yaml:"viewportSettings,omitempty"`
}

// Rules returns all matching rules of the viewport with their target level.
func (v Viewport) Rules() []LeveledRule {
	out := make([]LeveledRule, 0, len(v.StudyRules)+len(v.SeriesRules)+len(v.InstanceRules))
	for _, r := range v.StudyRules {
		out = append(out, LeveledRule{Level: attribute.LevelStudy, Rule: r})
	}
	for _, r := range v.SeriesRules {
		out = append(out, LeveledRule{Level: attribute.LevelSeries, Rule: r})
	}
	for _, r := range v.InstanceRules {
		out = append(out, LeveledRule{Level: attribute.LevelInstance, Rule: r})
	}
	return out
}

// LeveledRule pairs a rule with the matching level it targets.
type LeveledRule struct {
	Level attribute.Level
	Rule  Rule
}

// Stage is one screen configuration within a protocol: a viewport structure
// and one viewport specification per slot.
type Stage struct {
	ID        string
	Name      string
	Structure ViewportStructure
	Viewports []Viewport
}

// NewStage creates a stage with a fresh id.
func NewStage(name string, structure ViewportStructure) *Stage {
	return &Stage{
		ID:        uuid.NewString(),
		Name:      name,
		Structure: structure,
	}
}

// Validate checks the stage-level invariants: a structure must be present
// and the viewport count must match the slot count it implies.
func (s *Stage) Validate() error {
	if s.Structure == nil {
		return fmt.Errorf("stage %q has no viewport structure", s.Name)
	}
	want := s.Structure.NumViewports()
	if len(s.Viewports) != want {
		return fmt.Errorf("stage %q has %d viewports but its %s layout requires %d",
			s.Name, len(s.Viewports), s.Structure.Type(), want)
	}
	return nil
}

// Protocol is a named, versioned hanging configuration: protocol-level
// matching rules used for best-match selection plus an ordered, non-empty
// list of stages.
type Protocol struct {
	ID            string
	Name          string
	Description   string
	Locked        bool
	Priority      int
	CreatedDate   time.Time
	ModifiedDate  time.Time
	MatchingRules []Rule
	Stages        []*Stage
}

// NewProtocol creates an empty unlocked protocol with a fresh id.
func NewProtocol(name string) *Protocol {
	now := time.Now().UTC()
	return &Protocol{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedDate:  now,
		ModifiedDate: now,
	}
}

// AddStage appends a stage and updates the modification date.
func (p *Protocol) AddStage(stage *Stage) {
	p.Stages = append(p.Stages, stage)
	p.ModifiedDate = time.Now().UTC()
}

// AddMatchingRule appends a protocol-level matching rule.
func (p *Protocol) AddMatchingRule(rule Rule) {
	p.MatchingRules = append(p.MatchingRules, rule)
	p.ModifiedDate = time.Now().UTC()
}

// Clone returns a deep copy of the protocol with fresh ids, a new name and
// the locked flag cleared.
func (p *Protocol) Clone(name string) *Protocol {
	out := NewProtocol(name)
	if name == "" {
		out.Name = p.Name
	}
	out.Description = p.Description
	out.Priority = p.Priority

	out.MatchingRules = cloneRules(p.MatchingRules)
	for _, stage := range p.Stages {
		cloned := NewStage(stage.Name, stage.Structure)
		cloned.Viewports = make([]Viewport, len(stage.Viewports))
		for i, vp := range stage.Viewports {
			cloned.Viewports[i] = Viewport{
				StudyRules:    cloneRules(vp.StudyRules),
				SeriesRules:   cloneRules(vp.SeriesRules),
				InstanceRules: cloneRules(vp.InstanceRules),
				Settings:      cloneSettings(vp.Settings),
			}
		}
		out.Stages = append(out.Stages, cloned)
	}
	return out
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].ID = uuid.NewString()
	}
	return out
}

func cloneSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	return out
}

// ValidatorChecker reports whether a validator kind is known to the matching
// engine. The model package stays independent of the validator registry by
// taking this capability as an argument.
type ValidatorChecker interface {
	Has(kind string) bool
}

// Validate checks the protocol invariants: at least one stage, every stage
// structurally sound, and every rule referencing a known validator kind.
func (p *Protocol) Validate(validators ValidatorChecker) error {
	if p.Name == "" {
		return fmt.Errorf("protocol has no name")
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("protocol %q has no stages", p.Name)
	}
	if err := validateRules(p.Name, "protocol", p.MatchingRules, validators); err != nil {
		return err
	}
	for i, stage := range p.Stages {
		if err := stage.Validate(); err != nil {
			return fmt.Errorf("protocol %q stage %d: %w", p.Name, i, err)
		}
		for slot, vp := range stage.Viewports {
			where := fmt.Sprintf("stage %d viewport %d", i, slot)
			for _, lr := range vp.Rules() {
				if err := validateRule(p.Name, where, lr.Rule, validators); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateRules(protocolName, where string, rules []Rule, validators ValidatorChecker) error {
	for _, r := range rules {
		if err := validateRule(protocolName, where, r, validators); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(protocolName, where string, r Rule, validators ValidatorChecker) error {
	if r.Attribute == "" {
		return fmt.Errorf("protocol %q %s: rule has no attribute", protocolName, where)
	}
	if r.Constraint.Kind == "" {
		return fmt.Errorf("protocol %q %s: rule on %q has no constraint", protocolName, where, r.Attribute)
	}
	if validators != nil && !validators.Has(r.Constraint.Kind) {
		return fmt.Errorf("protocol %q %s: rule on %q uses unknown validator %q",
			protocolName, where, r.Attribute, r.Constraint.Kind)
	}
	return nil
}
