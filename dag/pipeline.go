package dag

import (
	"fmt"
	"time"

	"github.com/kbukum/rulekit/validation"
)

// Pipeline modes.
const (
	ModeBatch       = "batch"
	ModeIncremental = "incremental"
)

// Pipeline is a composable, YAML-defined graph definition.
type Pipeline struct {
	// Name is the pipeline identifier.
	Name string `yaml:"name" json:"name" validate:"required"`
	// Mode is "batch" (run every node) or "incremental" (run nodes whose
	// schedule and condition allow it, inside a Session).
	Mode string `yaml:"mode" json:"mode" validate:"omitempty,oneof=batch incremental"`
	// Includes lists sub-pipeline names to compose (recursive).
	Includes []string `yaml:"includes,omitempty" json:"includes,omitempty"`
	// Nodes defines the pipeline's node specifications.
	Nodes []NodeDef `yaml:"nodes" json:"nodes" validate:"dive"`
}

// NodeDef defines a node within a pipeline.
type NodeDef struct {
	// Component is the registry lookup key for this node.
	Component string `yaml:"component" json:"component" validate:"required"`
	// DependsOn lists node names this node depends on.
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	// Schedule throttles the node in incremental mode.
	Schedule *ScheduleConfig `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	// Condition is a named condition function key.
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// ScheduleConfig defines schedule-based execution parameters.
type ScheduleConfig struct {
	// Interval is the minimum time between runs.
	Interval time.Duration `yaml:"interval" json:"interval"`
	// MinBuffer delays the first run after the node is first seen.
	MinBuffer time.Duration `yaml:"min_buffer" json:"min_buffer"`
}

// Validate checks struct constraints and that no component is declared twice.
func (p *Pipeline) Validate() error {
	if err := validation.Validate(p); err != nil {
		return err
	}
	v := validation.New()
	seen := make(map[string]bool, len(p.Nodes))
	for i, def := range p.Nodes {
		v.Custom(!seen[def.Component], fmt.Sprintf("nodes[%d].component", i),
			fmt.Sprintf("duplicates component %q", def.Component))
		seen[def.Component] = true
		for _, dep := range def.DependsOn {
			v.Custom(dep != def.Component, fmt.Sprintf("nodes[%d].depends_on", i), "must not contain the node itself")
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
