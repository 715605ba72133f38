// Package wizard provides an interactive TUI for authoring protocol files.
package wizard

// Draft holds the editable form of a protocol while the wizard runs. Numeric
// fields are kept as strings for form binding and parsed at conversion time.
type Draft struct {
	Name        string
	Description string
	Priority    string
	Output      string
	Stages      []StageDraft
}

// StageDraft holds one stage under edit: a grid layout plus one viewport
// draft per slot.
type StageDraft struct {
	Name      string
	Rows      string
	Columns   string
	Viewports []ViewportDraft
}

// ViewportDraft holds the rules of one viewport slot.
type ViewportDraft struct {
	Rules []RuleDraft
}

// RuleDraft holds one matching rule under edit.
type RuleDraft struct {
	Level     string
	Attribute string
	Validator string
	Value     string
	Required  bool
	Weight    string
}

// NewDraft creates a draft with the wizard defaults.
func NewDraft() *Draft {
	return &Draft{
		Priority: "0",
		Output:   "protocol.yaml",
	}
}
