package wizard

import (
	"testing"

	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/match"
)

func TestToProtocol(t *testing.T) {
	draft := &Draft{
		Name:        "chest ct",
		Description: "axial plus scout",
		Priority:    "5",
		Stages: []StageDraft{
			{
				Name:    "overview",
				Rows:    "1",
				Columns: "2",
				Viewports: []ViewportDraft{
					{Rules: []RuleDraft{
						{Level: "series", Attribute: "modality", Validator: "equals", Value: "CT", Required: true, Weight: "1"},
						{Level: "instance", Attribute: "rows", Validator: "range", Value: "256-1024", Weight: "2"},
					}},
					{Rules: []RuleDraft{
						{Level: "study", Attribute: "studyDescription", Validator: "contains", Value: "CHEST", Weight: "3"},
					}},
				},
			},
		},
	}

	p, err := ToProtocol(draft)
	if err != nil {
		t.Fatalf("ToProtocol() error: %v", err)
	}
	if err := p.Validate(match.NewValidators()); err != nil {
		t.Fatalf("converted protocol is invalid: %v", err)
	}

	if p.Name != "chest ct" || p.Priority != 5 {
		t.Errorf("metadata: name %q priority %d", p.Name, p.Priority)
	}
	if len(p.Stages) != 1 {
		t.Fatalf("got %d stages, expected 1", len(p.Stages))
	}

	stage := p.Stages[0]
	if stage.Structure.NumViewports() != 2 {
		t.Errorf("NumViewports() = %d, want 2", stage.Structure.NumViewports())
	}

	vp := stage.Viewports[0]
	if len(vp.SeriesRules) != 1 || len(vp.InstanceRules) != 1 {
		t.Fatalf("viewport 0 rules: %d series, %d instance", len(vp.SeriesRules), len(vp.InstanceRules))
	}
	if vp.SeriesRules[0].Constraint.Options.Value != "CT" || !vp.SeriesRules[0].Required {
		t.Errorf("series rule = %+v", vp.SeriesRules[0])
	}
	rangeRule := vp.InstanceRules[0]
	if rangeRule.Constraint.Kind != "range" ||
		rangeRule.Constraint.Options.Min == nil || *rangeRule.Constraint.Options.Min != 256 ||
		rangeRule.Constraint.Options.Max == nil || *rangeRule.Constraint.Options.Max != 1024 {
		t.Errorf("range rule = %+v", rangeRule.Constraint)
	}
	if len(stage.Viewports[1].StudyRules) != 1 {
		t.Errorf("viewport 1 should have one study rule")
	}
}

func TestToProtocol_Errors(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
	}{
		{
			"bad priority",
			Draft{Name: "p", Priority: "high"},
		},
		{
			"bad rows",
			Draft{Name: "p", Stages: []StageDraft{{Rows: "zero", Columns: "1"}}},
		},
		{
			"bad weight",
			Draft{Name: "p", Stages: []StageDraft{{
				Rows: "1", Columns: "1",
				Viewports: []ViewportDraft{{Rules: []RuleDraft{
					{Level: "series", Attribute: "modality", Validator: "equals", Value: "CT", Weight: "heavy"},
				}}},
			}}},
		},
		{
			"bad range",
			Draft{Name: "p", Stages: []StageDraft{{
				Rows: "1", Columns: "1",
				Viewports: []ViewportDraft{{Rules: []RuleDraft{
					{Level: "instance", Attribute: "rows", Validator: "range", Value: "lots"},
				}}},
			}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ToProtocol(&tc.draft); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFromProtocolRoundTrip(t *testing.T) {
	p := hanging.NewProtocol("round trip")
	p.Priority = 3
	stage := hanging.NewStage("main", hanging.Grid{Rows: 2, Columns: 2})
	stage.Viewports = []hanging.Viewport{
		{SeriesRules: []hanging.Rule{hanging.NewRule("modality", hanging.NewConstraint("equals", "MR"), true)}},
		{InstanceRules: []hanging.Rule{hanging.NewRule("rows", hanging.RangeConstraint(128, 512), false)}},
		{},
		{StudyRules: []hanging.Rule{hanging.NewRule("patientSex", hanging.NewConstraint("equals", "F"), false)}},
	}
	p.AddStage(stage)

	draft := FromProtocol(p, "out.yaml")
	back, err := ToProtocol(draft)
	if err != nil {
		t.Fatalf("ToProtocol() error: %v", err)
	}

	if back.Name != p.Name || back.Priority != p.Priority {
		t.Errorf("metadata lost: %q %d", back.Name, back.Priority)
	}
	if len(back.Stages) != 1 || len(back.Stages[0].Viewports) != 4 {
		t.Fatalf("structure lost: %+v", back.Stages)
	}
	if got := back.Stages[0].Structure.NumViewports(); got != 4 {
		t.Errorf("NumViewports() = %d, want 4", got)
	}
	if len(back.Stages[0].Viewports[0].SeriesRules) != 1 {
		t.Error("viewport 0 series rule lost")
	}
	rr := back.Stages[0].Viewports[1].InstanceRules[0]
	if rr.Constraint.Kind != "range" || *rr.Constraint.Options.Min != 128 || *rr.Constraint.Options.Max != 512 {
		t.Errorf("range rule lost: %+v", rr.Constraint)
	}
	if len(back.Stages[0].Viewports[3].StudyRules) != 1 {
		t.Error("viewport 3 study rule lost")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"CT", "CT"},
		{"12", 12},
		{"2.5", 2.5},
		{" 7 ", 7},
		{"", ""},
	}

	for _, tc := range tests {
		if got := parseValue(tc.input); got != tc.expected {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tc.input, got, got, tc.expected, tc.expected)
		}
	}
}

func TestParseRange(t *testing.T) {
	min, max, err := parseRange("1-20")
	if err != nil || min != 1 || max != 20 {
		t.Errorf("parseRange(1-20) = %v, %v, %v", min, max, err)
	}
	if _, _, err := parseRange("20"); err == nil {
		t.Error("parseRange without a separator should error")
	}
	if _, _, err := parseRange("a-b"); err == nil {
		t.Error("parseRange with non-numeric bounds should error")
	}
}
