package match

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/mrsinham/hangforge/internal/displayset"
	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/attribute"
)

// Detail is the computed result of matching one display set against one
// viewport specification.
type Detail struct {
	DisplaySet *displayset.DisplaySet
	Score      float64
	// Eligible is true when every required rule passed. Ineligible
	// candidates never receive a slot.
	Eligible bool
	Outcomes []Outcome
}

// SlotResult holds the assignment for one viewport slot: the chosen display
// set (nil when no eligible candidate exists) and the ranked candidate list
// for diagnostics.
type SlotResult struct {
	Slot       int
	DisplaySet *displayset.DisplaySet
	Detail     *Detail
	Candidates []Detail
	Settings   map[string]any
}

// Matcher scores display sets against viewport specifications. It is pure
// apart from diagnostic logging: the same inputs always produce the same
// assignment.
type Matcher struct {
	validators *Validators
	registry   *attribute.Registry
	logger     *log.Logger
}

// NewMatcher creates a matcher using the given validator set and custom
// attribute registry.
func NewMatcher(validators *Validators, registry *attribute.Registry, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Matcher{validators: validators, registry: registry, logger: logger}
}

// Validators exposes the matcher's validator registry.
func (m *Matcher) Validators() *Validators { return m.validators }

// resolvedBags carries the merged attribute bags for one display set. Series
// rules see study attributes and instance rules see both, so a custom study
// attribute is visible to a series-level rule.
type resolvedBags struct {
	study    attribute.Bag
	series   attribute.Bag
	instance attribute.Bag
}

func (b resolvedBags) at(level attribute.Level) attribute.Bag {
	switch level {
	case attribute.LevelStudy:
		return b.study
	case attribute.LevelSeries:
		return b.series
	default:
		return b.instance
	}
}

// resolveBags resolves the merged per-level attribute bags for a display
// set, overlaying registered custom attributes at each level.
func (m *Matcher) resolveBags(ds *displayset.DisplaySet) resolvedBags {
	study := m.registry.Resolve(attribute.LevelStudy, ds.Study)
	series := m.registry.Resolve(attribute.LevelSeries, study.Merge(ds.Series))
	instance := m.registry.Resolve(attribute.LevelInstance, series.Merge(ds.Instance))
	return resolvedBags{study: study, series: series, instance: instance}
}

// StudyBag resolves the study-level attribute bag for a display set,
// including study-level custom attributes. Used for protocol best-match
// selection.
func (m *Matcher) StudyBag(ds *displayset.DisplaySet) attribute.Bag {
	return m.registry.Resolve(attribute.LevelStudy, ds.Study)
}

// Score evaluates a flat rule list against an already-resolved bag and
// returns the summed score and whether all required rules passed.
func (m *Matcher) Score(rules []hanging.Rule, level attribute.Level, bag attribute.Bag) (float64, bool, []Outcome) {
	var score float64
	eligible := true
	outcomes := make([]Outcome, 0, len(rules))
	for _, rule := range rules {
		o := m.validators.Evaluate(rule, level, bag)
		outcomes = append(outcomes, o)
		if o.Passed {
			score += o.Contribution
		} else if rule.Required {
			eligible = false
		}
	}
	return score, eligible, outcomes
}

// MatchViewport scores every candidate display set against a viewport
// specification. The result contains one Detail per candidate, sorted by
// score descending; equal scores keep collection order (first-seen wins).
// Candidates failing a required rule are marked ineligible but kept in the
// list for diagnostics.
func (m *Matcher) MatchViewport(vp hanging.Viewport, candidates []*displayset.DisplaySet) []Detail {
	details := make([]Detail, 0, len(candidates))

	for _, ds := range candidates {
		bags := m.resolveBags(ds)
		detail := Detail{DisplaySet: ds, Eligible: true}

		for _, lr := range vp.Rules() {
			o := m.validators.Evaluate(lr.Rule, lr.Level, bags.at(lr.Level))
			detail.Outcomes = append(detail.Outcomes, o)
			if o.Passed {
				detail.Score += o.Contribution
			} else if lr.Rule.Required {
				detail.Eligible = false
			}
		}

		details = append(details, detail)
	}

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Score > details[j].Score
	})
	return details
}

// MatchStage computes the assignment for every slot of a stage. Assignment
// proceeds slot-by-slot in declaration order; a display set assigned to an
// earlier slot is removed from the candidate pool of later slots. A slot
// with no eligible candidate stays empty, which is not an error.
func (m *Matcher) MatchStage(stage *hanging.Stage, candidates []*displayset.DisplaySet) []SlotResult {
	results := make([]SlotResult, 0, len(stage.Viewports))
	assigned := make(map[*displayset.DisplaySet]bool)

	for slot, vp := range stage.Viewports {
		pool := make([]*displayset.DisplaySet, 0, len(candidates))
		for _, ds := range candidates {
			if !assigned[ds] {
				pool = append(pool, ds)
			}
		}

		details := m.MatchViewport(vp, pool)
		result := SlotResult{Slot: slot, Candidates: details, Settings: vp.Settings}

		for i := range details {
			if details[i].Eligible {
				result.DisplaySet = details[i].DisplaySet
				result.Detail = &details[i]
				assigned[details[i].DisplaySet] = true
				break
			}
		}

		if result.DisplaySet == nil {
			m.logger.Debugf("stage %q slot %d: no eligible display set", stage.Name, slot)
		}
		results = append(results, result)
	}

	return results
}
