package models

import (
	"fmt"
	"time"
)

// CriteriaKind discriminates the completion criteria variant.
type CriteriaKind string

const (
	// CriteriaTargetStatus completes the task when its status equals a target.
	CriteriaTargetStatus CriteriaKind = "target_status"
	// CriteriaRequiredSteps completes the task when every listed step is done.
	CriteriaRequiredSteps CriteriaKind = "required_steps"
)

// CompletionCriteria is a tagged variant describing when a template
// considers a task complete. Exactly one branch is populated per Kind.
type CompletionCriteria struct {
	// Kind selects the criteria variant.
	Kind CriteriaKind `json:"kind" yaml:"kind"`
	// TargetStatus is the status that signals completion (target_status only).
	TargetStatus TaskStatus `json:"target_status,omitempty" yaml:"target_status,omitempty"`
	// RequiredSteps lists step IDs that must all be complete (required_steps only).
	RequiredSteps []string `json:"required_steps,omitempty" yaml:"required_steps,omitempty"`
}

// Validate checks that the populated branch matches the declared kind.
func (c *CompletionCriteria) Validate() error {
	switch c.Kind {
	case CriteriaTargetStatus:
		if !c.TargetStatus.Valid() {
			return fmt.Errorf("completion criteria: invalid target status %q", c.TargetStatus)
		}
		if len(c.RequiredSteps) > 0 {
			return fmt.Errorf("completion criteria: required_steps set on target_status variant")
		}
	case CriteriaRequiredSteps:
		if len(c.RequiredSteps) == 0 {
			return fmt.Errorf("completion criteria: required_steps variant lists no steps")
		}
		if c.TargetStatus != "" {
			return fmt.Errorf("completion criteria: target_status set on required_steps variant")
		}
	default:
		return fmt.Errorf("completion criteria: unknown kind %q", c.Kind)
	}
	return nil
}

// Met reports whether the task satisfies the criteria.
func (c *CompletionCriteria) Met(task *Task) bool {
	switch c.Kind {
	case CriteriaTargetStatus:
		return task.Status == c.TargetStatus
	case CriteriaRequiredSteps:
		for _, step := range c.RequiredSteps {
			if !task.Payload.StepDone(step) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TemplateStep is a single ordered step in a task template.
type TemplateStep struct {
	// ID is the step identifier referenced by completion criteria.
	ID string `json:"id" yaml:"id"`
	// Title is the human-readable step name.
	Title string `json:"title" yaml:"title"`
	// Optional steps do not gate automatic advancement.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// AgentConfig configures the autonomous agent executing a template's tasks.
type AgentConfig struct {
	// Directive is the system directive given to the agent.
	Directive string `json:"directive" yaml:"directive"`
	// AllowedActions restricts which actions the agent may choose.
	// Empty means all actions are permitted.
	AllowedActions []ActionType `json:"allowed_actions,omitempty" yaml:"allowed_actions,omitempty"`
	// Completion defines when a task auto-completes. Nil means the template
	// never auto-completes a task; it can only be closed manually.
	Completion *CompletionCriteria `json:"completion,omitempty" yaml:"completion,omitempty"`
}

// Allows reports whether the agent may choose the given action.
func (a *AgentConfig) Allows(action ActionType) bool {
	if len(a.AllowedActions) == 0 {
		return true
	}
	for _, allowed := range a.AllowedActions {
		if allowed == action {
			return true
		}
	}
	return false
}

// RoutingHints are a template's default routing preferences for new tasks.
type RoutingHints struct {
	// PipelineKey is the preferred pipeline for tasks of this template.
	PipelineKey string `json:"pipeline_key,omitempty" yaml:"pipeline_key,omitempty"`
	// StageKey is the default starting stage.
	StageKey string `json:"stage_key,omitempty" yaml:"stage_key,omitempty"`
}

// SLAHints carry expected-duration and priority defaults for a template.
type SLAHints struct {
	// TypicalDuration is the expected wall-clock time for tasks of this template.
	TypicalDuration time.Duration `json:"typical_duration,omitempty" yaml:"typical_duration,omitempty"`
	// DefaultPriority seeds the priority of new tasks (higher is more urgent).
	DefaultPriority int `json:"default_priority,omitempty" yaml:"default_priority,omitempty"`
}

// TaskTemplate is an immutable-per-version definition of how a category of
// task is executed. A task's behavioral contract is the template content
// active at evaluation time.
type TaskTemplate struct {
	// ID is the unique identifier for this template.
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable template name.
	Name string `json:"name" yaml:"name"`
	// Version distinguishes template revisions.
	Version int `json:"version" yaml:"version"`
	// Steps is the ordered list of steps tasks move through.
	Steps []TemplateStep `json:"steps" yaml:"steps"`
	// Agent configures the autonomous agent for this template.
	Agent AgentConfig `json:"agent" yaml:"agent"`
	// Routing holds default routing hints for new tasks.
	Routing RoutingHints `json:"routing,omitempty" yaml:"routing,omitempty"`
	// SLA holds duration and priority defaults.
	SLA SLAHints `json:"sla,omitempty" yaml:"sla,omitempty"`
}

// Validate checks template internal consistency, including that completion
// criteria only reference declared steps.
func (t *TaskTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template: missing id")
	}
	stepIDs := make(map[string]bool, len(t.Steps))
	for _, s := range t.Steps {
		if s.ID == "" {
			return fmt.Errorf("template %s: step with empty id", t.ID)
		}
		if stepIDs[s.ID] {
			return fmt.Errorf("template %s: duplicate step id %q", t.ID, s.ID)
		}
		stepIDs[s.ID] = true
	}
	if t.Agent.Completion != nil {
		if err := t.Agent.Completion.Validate(); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
		for _, step := range t.Agent.Completion.RequiredSteps {
			if !stepIDs[step] {
				return fmt.Errorf("template %s: completion references unknown step %q", t.ID, step)
			}
		}
	}
	return nil
}

// NextStep returns the first non-optional step not yet completed by the task,
// or nil if all required steps are done.
func (t *TaskTemplate) NextStep(task *Task) *TemplateStep {
	for i := range t.Steps {
		if t.Steps[i].Optional {
			continue
		}
		if !task.Payload.StepDone(t.Steps[i].ID) {
			return &t.Steps[i]
		}
	}
	return nil
}
