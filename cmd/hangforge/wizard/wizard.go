package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/mrsinham/hangforge/internal/hanging"
	"github.com/mrsinham/hangforge/internal/hanging/attribute"
	"github.com/mrsinham/hangforge/internal/hanging/match"
)

// Run starts the interactive protocol authoring wizard. If fromFile is given
// the wizard is prefilled from that protocol file (.json, .yaml or .yml).
func Run(fromFile string) error {
	draft := NewDraft()
	if fromFile != "" {
		p, err := hanging.LoadFile(fromFile)
		if err != nil {
			return fmt.Errorf("loading protocol: %w", err)
		}
		draft = FromProtocol(p, fromFile)
	}

	validators := match.NewValidators()

	fmt.Println(titleStyle.Render("hangforge wizard"))
	fmt.Println(subtitleStyle.Render("Author a hanging protocol file step by step."))

	if err := runProtocolForm(draft); err != nil {
		return finish(err)
	}

	if len(draft.Stages) == 0 {
		draft.Stages = append(draft.Stages, StageDraft{Rows: "1", Columns: "1"})
	}
	for i := 0; ; i++ {
		if i == len(draft.Stages) {
			draft.Stages = append(draft.Stages, StageDraft{Rows: "1", Columns: "1"})
		}
		if err := runStageForm(&draft.Stages[i], i, validators); err != nil {
			return finish(err)
		}

		more := false
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Add another stage?").
				Value(&more),
		))
		if err := confirm.Run(); err != nil {
			return finish(err)
		}
		if !more && i+1 >= len(draft.Stages) {
			break
		}
	}

	protocol, err := ToProtocol(draft)
	if err != nil {
		return err
	}
	if err := protocol.Validate(validators); err != nil {
		return err
	}

	fmt.Println(summaryStyle.Render(summarize(protocol)))

	save := true
	confirm := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Save protocol to").
			Value(&draft.Output).
			Validate(required("path")),
		huh.NewConfirm().
			Title("Write the file?").
			Value(&save),
	))
	if err := confirm.Run(); err != nil {
		return finish(err)
	}
	if !save {
		return nil
	}

	if err := hanging.SaveFile(protocol, draft.Output); err != nil {
		return err
	}
	fmt.Printf("Protocol %q saved to %s\n", protocol.Name, draft.Output)
	return nil
}

// runProtocolForm collects the protocol metadata.
func runProtocolForm(d *Draft) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Protocol name").
			Value(&d.Name).
			Validate(required("name")),
		huh.NewInput().
			Title("Description").
			Value(&d.Description),
		huh.NewInput().
			Title("Priority").
			Description("Higher priority wins best-match ties").
			Value(&d.Priority).
			Validate(validateInt),
	))
	return form.Run()
}

// runStageForm collects one stage: grid dimensions, then the rules of each
// viewport slot.
func runStageForm(sd *StageDraft, index int, validators *match.Validators) error {
	fmt.Println(subtitleStyle.Render(fmt.Sprintf("Stage %d", index+1)))

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Stage name").
			Placeholder("optional").
			Value(&sd.Name),
		huh.NewInput().
			Title("Grid rows").
			Value(&sd.Rows).
			Validate(validatePositive),
		huh.NewInput().
			Title("Grid columns").
			Value(&sd.Columns).
			Validate(validatePositive),
	))
	if err := form.Run(); err != nil {
		return err
	}

	rows, _ := parsePositiveInt(sd.Rows)
	columns, _ := parsePositiveInt(sd.Columns)
	slots := rows * columns

	// Grow or shrink the viewport drafts to the grid size, keeping any rules
	// already present (e.g. from --from).
	for len(sd.Viewports) < slots {
		sd.Viewports = append(sd.Viewports, ViewportDraft{})
	}
	sd.Viewports = sd.Viewports[:slots]

	for slot := range sd.Viewports {
		if err := runViewportRules(&sd.Viewports[slot], slot, validators); err != nil {
			return err
		}
	}
	return nil
}

// runViewportRules loops a rule form until the user stops adding rules.
func runViewportRules(vd *ViewportDraft, slot int, validators *match.Validators) error {
	for {
		add := len(vd.Rules) == 0
		prompt := fmt.Sprintf("Add a matching rule to viewport %d?", slot)
		if len(vd.Rules) > 0 {
			prompt = fmt.Sprintf("Viewport %d has %d rule(s). Add another?", slot, len(vd.Rules))
			add = false
		}
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Value(&add),
		))
		if err := confirm.Run(); err != nil {
			return err
		}
		if !add {
			return nil
		}

		rd := RuleDraft{Level: string(attribute.LevelSeries), Validator: "equals", Weight: "1"}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Level").
					Options(
						huh.NewOption("study", string(attribute.LevelStudy)),
						huh.NewOption("series", string(attribute.LevelSeries)),
						huh.NewOption("instance", string(attribute.LevelInstance)),
					).
					Value(&rd.Level),
				huh.NewInput().
					Title("Attribute").
					Placeholder("e.g. modality").
					Value(&rd.Attribute).
					Validate(required("attribute")),
				huh.NewSelect[string]().
					Title("Validator").
					Options(huh.NewOptions(validators.Names()...)...).
					Value(&rd.Validator),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Value").
					Description("For range use min-max, e.g. 1-20").
					Value(&rd.Value).
					Validate(required("value")),
				huh.NewConfirm().
					Title("Required?").
					Description("A failed required rule excludes the candidate").
					Value(&rd.Required),
				huh.NewInput().
					Title("Weight").
					Value(&rd.Weight).
					Validate(validateFloat),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		// Unknown attribute names are legal but usually typos.
		if _, err := attribute.LookupBuiltin(rd.Attribute); err != nil {
			fmt.Println(subtitleStyle.Render(fmt.Sprintf("note: %v", err)))
		}
		vd.Rules = append(vd.Rules, rd)
	}
}

// summarize renders the protocol overview shown before saving.
func summarize(p *hanging.Protocol) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	for i, stage := range p.Stages {
		name := stage.Name
		if name == "" {
			name = fmt.Sprintf("stage %d", i)
		}
		fmt.Fprintf(&b, "\n%s (%s, %d viewports)\n", name, stage.Structure.Type(), len(stage.Viewports))
		for slot, vp := range stage.Viewports {
			rules := vp.Rules()
			if len(rules) == 0 {
				fmt.Fprintf(&b, "  viewport %d: no rules\n", slot)
				continue
			}
			fmt.Fprintf(&b, "  viewport %d:\n", slot)
			for _, lr := range rules {
				marker := ""
				if lr.Rule.Required {
					marker = " (required)"
				}
				fmt.Fprintf(&b, "    %s.%s %s%s\n", lr.Level, lr.Rule.Attribute, lr.Rule.Constraint.Kind, marker)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// finish maps a user abort to a clean exit.
func finish(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return nil
	}
	return err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	return nil
}

func validatePositive(s string) error {
	_, err := parsePositiveInt(s)
	return err
}

func validateFloat(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}
