package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/attribute"
)

// ToProtocol converts a finished draft into a protocol model.
func ToProtocol(d *Draft) (*hanging.Protocol, error) {
	p := hanging.NewProtocol(strings.TrimSpace(d.Name))
	p.Description = strings.TrimSpace(d.Description)
	if d.Priority != "" {
		priority, err := strconv.Atoi(strings.TrimSpace(d.Priority))
		if err != nil {
			return nil, fmt.Errorf("priority %q is not an integer", d.Priority)
		}
		p.Priority = priority
	}

	for i, sd := range d.Stages {
		rows, err := parsePositiveInt(sd.Rows)
		if err != nil {
			return nil, fmt.Errorf("stage %d rows: %w", i, err)
		}
		columns, err := parsePositiveInt(sd.Columns)
		if err != nil {
			return nil, fmt.Errorf("stage %d columns: %w", i, err)
		}

		stage := hanging.NewStage(strings.TrimSpace(sd.Name), hanging.Grid{Rows: rows, Columns: columns})
		for j, vd := range sd.Viewports {
			vp := hanging.Viewport{}
			for _, rd := range vd.Rules {
				rule, err := toRule(rd)
				if err != nil {
					return nil, fmt.Errorf("stage %d viewport %d: %w", i, j, err)
				}
				switch attribute.Level(rd.Level) {
				case attribute.LevelStudy:
					vp.StudyRules = append(vp.StudyRules, rule)
				case attribute.LevelInstance:
					vp.InstanceRules = append(vp.InstanceRules, rule)
				default:
					vp.SeriesRules = append(vp.SeriesRules, rule)
				}
			}
			stage.Viewports = append(stage.Viewports, vp)
		}
		p.AddStage(stage)
	}
	return p, nil
}

// toRule converts one rule draft, parsing the value and weight fields.
func toRule(rd RuleDraft) (hanging.Rule, error) {
	var constraint hanging.Constraint
	if rd.Validator == "range" {
		min, max, err := parseRange(rd.Value)
		if err != nil {
			return hanging.Rule{}, fmt.Errorf("rule on %q: %w", rd.Attribute, err)
		}
		constraint = hanging.RangeConstraint(min, max)
	} else {
		constraint = hanging.NewConstraint(rd.Validator, parseValue(rd.Value))
	}

	rule := hanging.NewRule(strings.TrimSpace(rd.Attribute), constraint, rd.Required)
	if rd.Weight != "" {
		weight, err := strconv.ParseFloat(strings.TrimSpace(rd.Weight), 64)
		if err != nil {
			return hanging.Rule{}, fmt.Errorf("rule on %q: weight %q is not a number", rd.Attribute, rd.Weight)
		}
		rule.Weight = weight
	}
	return rule, nil
}

// FromProtocol converts an existing protocol into a draft for editing.
func FromProtocol(p *hanging.Protocol, output string) *Draft {
	d := &Draft{
		Name:        p.Name,
		Description: p.Description,
		Priority:    strconv.Itoa(p.Priority),
		Output:      output,
	}
	if d.Output == "" {
		d.Output = "protocol.yaml"
	}

	for _, stage := range p.Stages {
		sd := StageDraft{Name: stage.Name, Rows: "1", Columns: "1"}
		if grid, ok := stage.Structure.(hanging.Grid); ok {
			sd.Rows = strconv.Itoa(grid.Rows)
			sd.Columns = strconv.Itoa(grid.Columns)
		}
		for _, vp := range stage.Viewports {
			vd := ViewportDraft{}
			for _, lr := range vp.Rules() {
				vd.Rules = append(vd.Rules, fromRule(lr))
			}
			sd.Viewports = append(sd.Viewports, vd)
		}
		d.Stages = append(d.Stages, sd)
	}
	return d
}

func fromRule(lr hanging.LeveledRule) RuleDraft {
	rd := RuleDraft{
		Level:     string(lr.Level),
		Attribute: lr.Rule.Attribute,
		Validator: lr.Rule.Constraint.Kind,
		Required:  lr.Rule.Required,
		Weight:    strconv.FormatFloat(lr.Rule.EffectiveWeight(), 'f', -1, 64),
	}
	opts := lr.Rule.Constraint.Options
	if lr.Rule.Constraint.Kind == "range" && opts.Min != nil && opts.Max != nil {
		rd.Value = fmt.Sprintf("%s-%s",
			strconv.FormatFloat(*opts.Min, 'f', -1, 64),
			strconv.FormatFloat(*opts.Max, 'f', -1, 64))
	} else {
		rd.Value = formatValue(opts.Value)
	}
	return rd
}

// parseValue interprets a form value: integers and floats become numbers,
// everything else stays a string.
func parseValue(s string) any {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// parseRange reads a "min-max" bounds pair.
func parseRange(s string) (float64, float64, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range value %q must be of the form min-max", s)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range minimum %q is not a number", parts[0])
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range maximum %q is not a number", parts[1])
	}
	return min, max, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d must be positive", n)
	}
	return n, nil
}
