package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// WorkflowProfile describes how a team's labels map onto workflow stages.
type WorkflowProfile struct {
	// Stages is the default stage vocabulary, in column order.
	Stages []string `yaml:"stages" toml:"stages"`
	// WIPLabel marks the start of cycle time.
	WIPLabel string `yaml:"wip_label" toml:"wip_label"`
	// LabelScope is the scoped label prefix of workflow labels.
	LabelScope string `yaml:"label_scope" toml:"label_scope"`
	// TypeScope is the scoped label prefix of the issue type label.
	TypeScope string `yaml:"type_scope" toml:"type_scope"`
}

// DefaultProfile returns the profile used when none is configured.
func DefaultProfile() WorkflowProfile {
	return WorkflowProfile{
		Stages:     []string{"opened", "In Progress", "Code Review", "closed"},
		WIPLabel:   "In Progress",
		LabelScope: "workflow::",
		TypeScope:  "type::",
	}
}

// LoadProfile reads a YAML or TOML profile. Fields left out keep their defaults.
func LoadProfile(path string) (WorkflowProfile, error) {
	p := DefaultProfile()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("failed to read profile: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &p); err != nil {
			return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	default:
		return p, fmt.Errorf("unsupported profile format %q, expected .yaml, .yml or .toml", filepath.Ext(path))
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that the stages are usable as a report vocabulary.
func (p WorkflowProfile) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("stages must not be empty")
	}
	for i, s := range p.Stages {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("stage %d is empty", i)
		}
		if slices.Index(p.Stages, s) != i {
			return fmt.Errorf("duplicate stage %q", s)
		}
	}
	if p.WIPLabel == "" {
		return fmt.Errorf("wip_label must not be empty")
	}
	return nil
}
