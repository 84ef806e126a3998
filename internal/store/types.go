// Package store owns the on-disk layout of spec §6: the filesystem
// repository of agent/skill/mode/rule definitions, their active/inactive
// placement, and atomic activation moves. It is component A of the
// core (spec §2).
package store

import "time"

// Kind is one of the four component kinds the catalog holds.
type Kind string

const (
	KindAgent Kind = "agent"
	KindSkill Kind = "skill"
	KindMode  Kind = "mode"
	KindRule  Kind = "rule"
)

// Status reflects where a component currently lives, or whether its
// definition failed to parse (spec invariant 1: a broken component
// never activates).
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBroken   Status = "broken"
)

// ComponentInfo is the lightweight listing record returned by List,
// cheap enough to produce for every component without parsing bodies.
type ComponentInfo struct {
	Kind         Kind
	Name         string
	Status       Status
	Path         string
	ModifiedAt   time.Time
	BrokenReason string         // set iff Status == StatusBroken
	Frontmatter  map[string]any // raw parsed frontmatter, nil if broken
}

// Tier describes an agent's activation tier.
type Tier struct {
	ID                 string   `yaml:"id"`
	ActivationStrategy string   `yaml:"activation_strategy"`
	Conditions         []string `yaml:"conditions"`
}

// ModelPref describes an agent's model preference chain.
type ModelPref struct {
	Preference string   `yaml:"preference"`
	Fallbacks  []string `yaml:"fallbacks"`
	Reasoning  string   `yaml:"reasoning"`
	Escalation string   `yaml:"escalation,omitempty"`
}

// ToolTiers partitions an agent's tool catalog into usage tiers.
type ToolTiers struct {
	Core       []string `yaml:"core"`
	Enhanced   []string `yaml:"enhanced"`
	Specialist []string `yaml:"specialist"`
}

// Tools is an agent's full tool configuration.
type Tools struct {
	Catalog []string  `yaml:"catalog"`
	Tiers   ToolTiers `yaml:"tiers"`
}

// Activation is an agent's auto-activation configuration.
type Activation struct {
	Keywords []string `yaml:"keywords"`
	Auto     bool     `yaml:"auto"`
	Priority int      `yaml:"priority"`
}

// Dependencies is an agent's dependency declaration (spec §3, §4.B).
type Dependencies struct {
	Requires   []string `yaml:"requires"`
	Recommends []string `yaml:"recommends"`
}

// WorkflowPhase is one phase of an agent's default workflow.
type WorkflowPhase struct {
	Name             string   `yaml:"name"`
	Responsibilities []string `yaml:"responsibilities"`
}

// Workflows is an agent's default workflow declaration. The core only
// inventories these; it never interprets workflow steps (spec §1
// non-goal).
type Workflows struct {
	Default string          `yaml:"default"`
	Phases  []WorkflowPhase `yaml:"phases"`
}

// Metrics lists the metric names an agent reports.
type Metrics struct {
	Tracked []string `yaml:"tracked"`
}

// Agent is the fully parsed Agent component (spec §3).
type Agent struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Summary      string        `yaml:"summary"`
	Category     string        `yaml:"category"`
	Tier         Tier          `yaml:"tier"`
	Model        ModelPref     `yaml:"model"`
	Tools        Tools         `yaml:"tools"`
	Activation   Activation    `yaml:"activation"`
	Dependencies Dependencies  `yaml:"dependencies"`
	Skills       []string      `yaml:"skills"`
	Workflows    Workflows     `yaml:"workflows"`
	Metrics      Metrics       `yaml:"metrics"`
	Extra        map[string]any `yaml:"-"` // unknown keys, preserved for round-trip
	Body         string         `yaml:"-"`
}

// Skill is the fully parsed Skill component (spec §3). DependsOn refers
// to other skills by name with a version-spec string (resolved by the
// Dependency Resolver per the grammar in spec §4.B).
type Skill struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Version     string            `yaml:"version,omitempty"`
	DependsOn   map[string]string `yaml:"depends_on,omitempty"`
	Extra       map[string]any    `yaml:"-"`
	Body        string            `yaml:"-"`
}

// Mode is the fully parsed Mode component.
type Mode struct {
	Name  string         `yaml:"name"`
	Extra map[string]any `yaml:"-"`
	Body  string         `yaml:"-"`
}

// RuleCategory classifies a Rule by filename (spec §3).
type RuleCategory string

const (
	RuleWorkflow  RuleCategory = "workflow"
	RuleQuality   RuleCategory = "quality"
	RuleExecution RuleCategory = "execution"
	RuleEfficiency RuleCategory = "efficiency"
	RuleGeneral   RuleCategory = "general"
)

// Rule is the fully parsed Rule component.
type Rule struct {
	Name        string         `yaml:"name"`
	Category    RuleCategory   `yaml:"-"` // derived from filename, not stored
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Extra       map[string]any `yaml:"-"`
	Body        string         `yaml:"-"`
}

// ActiveSet is, per kind, the ordered set of names currently active.
type ActiveSet struct {
	Agents []string
	Modes  []string
	Rules  []string
	Skills []string
}

// Profile is a named snapshot of the active set across agents/modes/rules
// (spec §3; skills are intentionally excluded per spec's Profile tuple).
type Profile struct {
	Name   string
	Agents []string
	Modes  []string
	Rules  []string
}

// Action describes one step of a profile diff/apply.
type Action string

const (
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
)

// ProfileStep is one (kind, name, action) entry of a profile diff.
type ProfileStep struct {
	Kind   Kind
	Name   string
	Action Action
}
