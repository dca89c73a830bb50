package models

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusNotStarted indicates the task has not started.
	TaskStatusNotStarted TaskStatus = "not_started"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusBlocked indicates the task cannot proceed.
	TaskStatusBlocked TaskStatus = "blocked"
	// TaskStatusCompleted indicates the task met its completion criteria.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusClosed indicates the task was closed manually.
	TaskStatusClosed TaskStatus = "closed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusBlocked,
		TaskStatusCompleted, TaskStatusClosed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further automatic transitions are permitted.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusClosed
}

// CanTransitionTo reports whether the state machine permits moving from s to next.
// Terminal states never transition. BLOCKED and IN_PROGRESS may cycle.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case TaskStatusNotStarted:
		return next == TaskStatusInProgress
	case TaskStatusInProgress:
		return next == TaskStatusBlocked || next == TaskStatusCompleted || next == TaskStatusClosed
	case TaskStatusBlocked:
		return next == TaskStatusInProgress || next == TaskStatusClosed
	default:
		return false
	}
}

// HistoryEntry is a single append-only record in a task's payload history.
type HistoryEntry struct {
	// Field names the history stream this entry belongs to (e.g., "reprocess_requests").
	Field string `json:"field"`
	// At is when the entry was appended.
	At time.Time `json:"at"`
	// Entry holds the record payload.
	Entry map[string]any `json:"entry"`
}

// TaskPayload is the free-form data carried by a task.
type TaskPayload struct {
	// Data holds arbitrary key/value fields set during evaluation.
	Data map[string]any `json:"data,omitempty"`
	// StepsCompleted records which template step IDs are done.
	StepsCompleted map[string]bool `json:"steps_completed,omitempty"`
	// History is the append-only record of payload events (reprocess requests, corrections).
	History []HistoryEntry `json:"history,omitempty"`
}

// StepDone reports whether the given template step ID is marked complete.
func (p *TaskPayload) StepDone(stepID string) bool {
	if p == nil || p.StepsCompleted == nil {
		return false
	}
	return p.StepsCompleted[stepID]
}

// MarkStepDone records completion of a template step.
func (p *TaskPayload) MarkStepDone(stepID string) {
	if p.StepsCompleted == nil {
		p.StepsCompleted = make(map[string]bool)
	}
	p.StepsCompleted[stepID] = true
}

// AppendHistory appends an entry to the named history stream.
// Entries are never deduplicated or merged.
func (p *TaskPayload) AppendHistory(field string, at time.Time, entry map[string]any) {
	p.History = append(p.History, HistoryEntry{Field: field, At: at, Entry: entry})
}

// Task represents a unit of work bound to one template and one pipeline stage.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// OrgID scopes the task to an organization.
	OrgID string `json:"org_id"`
	// TemplateID references the template governing this task.
	TemplateID string `json:"template_id"`
	// PipelineKey identifies the pipeline this task moves through.
	PipelineKey string `json:"pipeline_key"`
	// StageKey identifies the current pipeline stage.
	StageKey string `json:"stage_key"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Overridden suppresses autonomous evaluation while true.
	Overridden bool `json:"overridden"`
	// OverrideReason explains the override, if set.
	OverrideReason string `json:"override_reason,omitempty"`
	// OverrideActorID is the user who set the override, if set.
	OverrideActorID string `json:"override_actor_id,omitempty"`
	// OverrideAt is when the override was set, if set.
	OverrideAt *time.Time `json:"override_at,omitempty"`
	// Payload is the free-form data carried by the task.
	Payload TaskPayload `json:"payload"`
	// Priority is the SLA priority inherited from the template's routing hints.
	Priority int `json:"priority,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the task was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// SetOverride sets all four override fields as a single unit.
func (t *Task) SetOverride(reason, actorID string, at time.Time) {
	t.Overridden = true
	t.OverrideReason = reason
	t.OverrideActorID = actorID
	t.OverrideAt = &at
}

// ClearOverride clears all four override fields together so nothing
// stale survives a previous override episode.
func (t *Task) ClearOverride() {
	t.Overridden = false
	t.OverrideReason = ""
	t.OverrideActorID = ""
	t.OverrideAt = nil
}

// ValidateOverride checks the override field invariant:
// overridden implies a timestamp, not overridden implies all fields cleared.
func (t *Task) ValidateOverride() error {
	if t.Overridden {
		if t.OverrideAt == nil {
			return fmt.Errorf("task %s: overridden without override timestamp", t.ID)
		}
		return nil
	}
	if t.OverrideReason != "" || t.OverrideActorID != "" || t.OverrideAt != nil {
		return fmt.Errorf("task %s: stale override fields on non-overridden task", t.ID)
	}
	return nil
}
