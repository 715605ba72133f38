package hanging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// protocolDoc is the persisted form of a Protocol. The field names mirror the
// stable JSON schema; YAML files carry the same shape.
type protocolDoc struct {
	ID            string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Locked        bool       `json:"locked,omitempty" yaml:"locked,omitempty"`
	Priority      int        `json:"priority,omitempty" yaml:"priority,omitempty"`
	CreatedDate   string     `json:"createdDate,omitempty" yaml:"createdDate,omitempty"`
	ModifiedDate  string     `json:"modifiedDate,omitempty" yaml:"modifiedDate,omitempty"`
	MatchingRules []Rule     `json:"protocolMatchingRules,omitempty" yaml:"protocolMatchingRules,omitempty"`
	Stages        []stageDoc `json:"stages" yaml:"stages"`
}

type stageDoc struct {
	ID        string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string       `json:"name,omitempty" yaml:"name,omitempty"`
	Structure structureDoc `json:"viewportStructure" yaml:"viewportStructure"`
	Viewports []Viewport   `json:"viewports" yaml:"viewports"`
}

type structureDoc struct {
	Type       string         `json:"type" yaml:"type"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// MarshalJSON encodes the protocol in its persisted schema.
func (p *Protocol) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toDoc())
}

// UnmarshalJSON decodes a protocol from its persisted schema.
func (p *Protocol) UnmarshalJSON(data []byte) error {
	var doc protocolDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return p.fromDoc(doc)
}

// MarshalYAML encodes the protocol in the same shape as the JSON schema.
func (p *Protocol) MarshalYAML() (any, error) {
	return p.toDoc(), nil
}

// UnmarshalYAML decodes a protocol from YAML.
func (p *Protocol) UnmarshalYAML(value *yaml.Node) error {
	var doc protocolDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return p.fromDoc(doc)
}

func (p *Protocol) toDoc() protocolDoc {
	doc := protocolDoc{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Locked:        p.Locked,
		Priority:      p.Priority,
		MatchingRules: p.MatchingRules,
	}
	if !p.CreatedDate.IsZero() {
		doc.CreatedDate = p.CreatedDate.UTC().Format(time.RFC3339)
	}
	if !p.ModifiedDate.IsZero() {
		doc.ModifiedDate = p.ModifiedDate.UTC().Format(time.RFC3339)
	}
	for _, stage := range p.Stages {
		doc.Stages = append(doc.Stages, stageDoc{
			ID:   stage.ID,
			Name: stage.Name,
			Structure: structureDoc{
				Type:       stage.Structure.Type(),
				Properties: stage.Structure.Properties(),
			},
			Viewports: stage.Viewports,
		})
	}
	return doc
}

func (p *Protocol) fromDoc(doc protocolDoc) error {
	fresh := NewProtocol(doc.Name)
	if doc.ID != "" {
		fresh.ID = doc.ID
	}
	fresh.Description = doc.Description
	fresh.Locked = doc.Locked
	fresh.Priority = doc.Priority

	if doc.CreatedDate != "" {
		t, err := time.Parse(time.RFC3339, doc.CreatedDate)
		if err != nil {
			return fmt.Errorf("protocol %q has invalid createdDate: %w", doc.Name, err)
		}
		fresh.CreatedDate = t
	}
	if doc.ModifiedDate != "" {
		t, err := time.Parse(time.RFC3339, doc.ModifiedDate)
		if err != nil {
			return fmt.Errorf("protocol %q has invalid modifiedDate: %w", doc.Name, err)
		}
		fresh.ModifiedDate = t
	}

	fresh.MatchingRules = doc.MatchingRules
	for i := range fresh.MatchingRules {
		fresh.MatchingRules[i].normalize()
	}

	for i, sd := range doc.Stages {
		structure, err := ParseStructure(sd.Structure.Type, sd.Structure.Properties)
		if err != nil {
			return fmt.Errorf("protocol %q stage %d: %w", doc.Name, i, err)
		}
		stage := NewStage(sd.Name, structure)
		if sd.ID != "" {
			stage.ID = sd.ID
		}
		stage.Viewports = sd.Viewports
		for v := range stage.Viewports {
			vp := &stage.Viewports[v]
			for r := range vp.StudyRules {
				vp.StudyRules[r].normalize()
			}
			for r := range vp.SeriesRules {
				vp.SeriesRules[r].normalize()
			}
			for r := range vp.InstanceRules {
				vp.InstanceRules[r].normalize()
			}
		}
		fresh.Stages = append(fresh.Stages, stage)
	}

	*p = *fresh
	return nil
}

// LoadFile reads a protocol from a JSON or YAML file, chosen by extension.
func LoadFile(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol file: %w", err)
	}

	var p Protocol
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse protocol %q: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse protocol %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported protocol file extension %q (use .json, .yaml or .yml)", ext)
	}
	return &p, nil
}

// SaveFile writes a protocol to a JSON or YAML file, chosen by extension.
func SaveFile(p *Protocol, path string) error {
	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(p, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(p)
	default:
		return fmt.Errorf("unsupported protocol file extension %q (use .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return fmt.Errorf("encode protocol %q: %w", p.Name, err)
	}
	return os.WriteFile(path, data, 0o644)
}
