package orchestrator

import (
	"time"
)

// EventName identifies an orchestration event on the bus.
// Consumers subscribe by name.
type EventName string

const (
	// EventOverrideSet is emitted on every override change, idempotent
	// re-sets included. Downstream consumers rely on this event rather
	// than polling task state.
	EventOverrideSet EventName = "task:override_set"
	// EventReprocessRequested asks for a fresh evaluation of a task.
	EventReprocessRequested EventName = "task:reprocess_requested"
	// EventIntakeAssigned is emitted when an intake request becomes a task.
	EventIntakeAssigned EventName = "task:intake_assigned"
	// EventEvaluationCompleted reports the outcome of an evaluation cycle.
	EventEvaluationCompleted EventName = "task:evaluation_completed"
	// EventEvaluationFailed reports an evaluation that errored or timed out.
	EventEvaluationFailed EventName = "task:evaluation_failed"
)

// Event is the message published on the orchestration bus. Fields beyond
// Name, TaskID, CorrelationID, and At are populated per event name.
type Event struct {
	// Name is the event name consumers subscribe by.
	Name EventName
	// TaskID is the task this event concerns.
	TaskID string
	// CorrelationID ties the event to decision log entries and history
	// records produced while handling it.
	CorrelationID string
	// At is when the event was published.
	At time.Time

	// Overridden is the new override flag (override_set only).
	Overridden *bool
	// Reason carries the override or reprocess reason, if any.
	Reason string
	// ActorID is the user who triggered the event, if any.
	ActorID string
	// OverrideAt is the override timestamp (override_set only).
	OverrideAt *time.Time

	// RequestedBy is the requesting user (reprocess_requested only).
	RequestedBy string

	// Action is the decided action (evaluation_completed only).
	Action string
	// Suppressed marks evaluations short-circuited by an override.
	Suppressed bool
	// Error holds failure details (evaluation_failed only).
	Error string

	// Metadata carries additional event-specific context.
	Metadata map[string]any
}
