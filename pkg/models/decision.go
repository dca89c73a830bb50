package models

import "time"

// ActionType is the kind of action the agent chose for a task.
type ActionType string

const (
	// ActionAdvance moves the task to its next status.
	ActionAdvance ActionType = "advance"
	// ActionUpdate keeps the current status but updates the payload.
	ActionUpdate ActionType = "update"
	// ActionBlock signals the task cannot proceed, with a reason.
	ActionBlock ActionType = "block"
	// ActionNoop records that the event was seen and intentionally ignored.
	ActionNoop ActionType = "noop"
)

// Valid returns true if the action is a known value.
func (a ActionType) Valid() bool {
	switch a {
	case ActionAdvance, ActionUpdate, ActionBlock, ActionNoop:
		return true
	default:
		return false
	}
}

// Decision is the outcome of one state machine evaluation.
// It is deterministic given (task snapshot, template snapshot, event).
type Decision struct {
	// Action is what the agent chose to do.
	Action ActionType `json:"action"`
	// NextStatus is the status to transition to (advance only).
	NextStatus TaskStatus `json:"next_status,omitempty"`
	// Reason explains the decision in human-readable form.
	Reason string `json:"reason"`
	// Suppressed marks decisions short-circuited by an active override.
	Suppressed bool `json:"suppressed,omitempty"`
	// StepsMarked lists step IDs newly marked complete by this decision.
	StepsMarked []string `json:"steps_marked,omitempty"`
	// PayloadData holds payload fields set by this decision.
	PayloadData map[string]any `json:"payload_data,omitempty"`
}

// DecisionLogEntry is an immutable audit record of one evaluation.
// Entries are created only by the state machine at the moment of a
// decision and are never updated or deleted.
type DecisionLogEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`
	// TaskID references the evaluated task.
	TaskID string `json:"task_id"`
	// TemplateID references the template in force at evaluation time.
	TemplateID string `json:"template_id"`
	// At is when the decision was made.
	At time.Time `json:"at"`
	// EventName is the triggering event.
	EventName string `json:"event_name"`
	// CorrelationID ties the entry back to the triggering event instance.
	CorrelationID string `json:"correlation_id,omitempty"`
	// Action is the action chosen, including no-operation.
	Action ActionType `json:"action"`
	// Suppressed marks entries recorded while an override held.
	Suppressed bool `json:"suppressed,omitempty"`
	// Rationale explains the decision.
	Rationale string `json:"rationale"`
	// Metadata holds inputs considered and other context.
	Metadata map[string]any `json:"metadata,omitempty"`
}
