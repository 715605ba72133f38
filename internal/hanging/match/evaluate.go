package match

import (
	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/attribute"
)

// Outcome is the result of evaluating one rule against an attribute bag.
type Outcome struct {
	Rule         hanging.Rule
	Level        attribute.Level
	Passed       bool
	Contribution float64
	Reason       string
}

// Evaluate applies a rule to the attribute bag at its level.
//
// A missing attribute fails a required rule and passes an optional one, in
// both cases contributing zero. Otherwise the rule's validator decides:
// passing contributes the rule weight.
func (v *Validators) Evaluate(rule hanging.Rule, level attribute.Level, bag attribute.Bag) Outcome {
	out := Outcome{Rule: rule, Level: level}

	value, present := bag.Get(rule.Attribute)
	if !present {
		if rule.Required {
			out.Reason = "required attribute is absent"
			return out
		}
		out.Passed = true
		out.Reason = "attribute absent, optional rule skipped"
		return out
	}

	fn, known := v.get(rule.Constraint.Kind)
	if !known {
		// Protocol validation rejects unknown kinds up front; an unknown
		// kind here means the rule was injected after validation.
		out.Reason = "unknown validator " + rule.Constraint.Kind
		return out
	}

	if fn(value, rule.Constraint.Options) {
		out.Passed = true
		out.Contribution = rule.EffectiveWeight()
	} else {
		out.Reason = "constraint not satisfied"
	}
	return out
}
