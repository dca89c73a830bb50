package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// StateMachine owns a task's lifecycle states and valid transitions.
// Evaluate is deterministic given (task snapshot, template snapshot, event):
// there is no hidden global state. Every evaluation appends exactly one
// decision log entry, no-operation evaluations included.
type StateMachine struct {
	decisions state.DecisionStore
	logger    *DebugLogger
}

// NewStateMachine creates a StateMachine appending to the given decision store.
func NewStateMachine(decisions state.DecisionStore, logger *DebugLogger) *StateMachine {
	if logger == nil {
		logger = NopLogger()
	}
	return &StateMachine{decisions: decisions, logger: logger}
}

// Evaluate reads the task's current status and payload, applies the
// template's step and completion rules, and returns the decision. The
// decision is also appended to the decision log; a failure to append is a
// DependencyError and the evaluation must not be assumed recorded.
func (m *StateMachine) Evaluate(task *models.Task, template *models.TaskTemplate, event Event) (models.Decision, error) {
	decision := decide(task, template, event)

	entry := &models.DecisionLogEntry{
		ID:            uuid.New().String(),
		TaskID:        task.ID,
		TemplateID:    template.ID,
		At:            time.Now().UTC(),
		EventName:     string(event.Name),
		CorrelationID: event.CorrelationID,
		Action:        decision.Action,
		Suppressed:    decision.Suppressed,
		Rationale:     decision.Reason,
		Metadata: map[string]any{
			"status":           string(task.Status),
			"overridden":       task.Overridden,
			"template_version": template.Version,
		},
	}
	if len(decision.StepsMarked) > 0 {
		entry.Metadata["steps_marked"] = decision.StepsMarked
	}
	if decision.NextStatus != "" {
		entry.Metadata["next_status"] = string(decision.NextStatus)
	}

	if err := m.decisions.AppendDecision(entry); err != nil {
		return models.Decision{}, &models.DependencyError{Op: "append decision log entry", Err: err}
	}

	m.logger.Log("[statemachine] task=%s event=%s action=%s suppressed=%v reason=%q",
		task.ID, event.Name, decision.Action, decision.Suppressed, decision.Reason)
	return decision, nil
}

// decide computes the decision for one evaluation. It is a pure function of
// its inputs.
func decide(task *models.Task, template *models.TaskTemplate, event Event) models.Decision {
	// Human override gives the operator exclusive control; the event is
	// still recorded so nothing is lost from the audit trail.
	if task.Overridden {
		return models.Decision{
			Action:     models.ActionNoop,
			Suppressed: true,
			Reason:     overrideReason(task),
		}
	}

	// Terminal states never transition, regardless of triggering event.
	if task.Status.Terminal() {
		return models.Decision{
			Action:     models.ActionNoop,
			Suppressed: true,
			Reason:     fmt.Sprintf("task is %s; terminal states do not transition", task.Status),
		}
	}

	d := decideActive(task, template, event)

	// The template may restrict which actions the agent can take.
	if d.Action != models.ActionNoop && !template.Agent.Allows(d.Action) {
		return models.Decision{
			Action: models.ActionNoop,
			Reason: fmt.Sprintf("action %s not permitted by template %s", d.Action, template.ID),
		}
	}
	return d
}

// decideActive handles the non-suppressed paths.
func decideActive(task *models.Task, template *models.TaskTemplate, event Event) models.Decision {
	steps := eventSteps(event)
	blockReason := eventString(event, "block_reason")

	switch task.Status {
	case models.TaskStatusNotStarted:
		return models.Decision{
			Action:     models.ActionAdvance,
			NextStatus: models.TaskStatusInProgress,
			Reason:     "work begins on first evaluation",
		}

	case models.TaskStatusBlocked:
		if eventBool(event, "unblock") || len(steps) > 0 {
			return models.Decision{
				Action:      models.ActionAdvance,
				NextStatus:  models.TaskStatusInProgress,
				Reason:      "blocking condition cleared",
				StepsMarked: steps,
			}
		}
		return models.Decision{
			Action: models.ActionNoop,
			Reason: fmt.Sprintf("still blocked: %s", blockedReason(task)),
		}

	case models.TaskStatusInProgress:
		if blockReason != "" {
			return models.Decision{
				Action: models.ActionBlock,
				Reason: blockReason,
			}
		}

		// Project the event's step completions onto a snapshot copy so the
		// completion check sees the post-update state without mutating the
		// caller's task.
		projected := *task
		projected.Payload.StepsCompleted = copyStepSet(task.Payload.StepsCompleted)
		for _, s := range steps {
			projected.Payload.MarkStepDone(s)
		}

		if c := template.Agent.Completion; c != nil && c.Met(&projected) {
			return models.Decision{
				Action:      models.ActionAdvance,
				NextStatus:  models.TaskStatusCompleted,
				Reason:      "completion criteria met",
				StepsMarked: steps,
			}
		}

		if len(steps) > 0 {
			return models.Decision{
				Action:      models.ActionUpdate,
				Reason:      fmt.Sprintf("recorded %d completed step(s)", len(steps)),
				StepsMarked: steps,
			}
		}

		if template.Agent.Completion == nil {
			// Absent criteria the template never auto-completes; the task
			// can only be closed manually.
			return models.Decision{
				Action: models.ActionNoop,
				Reason: "no completion criteria; awaiting manual close",
			}
		}
		if next := template.NextStep(&projected); next != nil {
			return models.Decision{
				Action: models.ActionNoop,
				Reason: fmt.Sprintf("waiting on step %q", next.ID),
			}
		}
		return models.Decision{
			Action: models.ActionNoop,
			Reason: "completion criteria not met",
		}

	default:
		return models.Decision{
			Action: models.ActionNoop,
			Reason: fmt.Sprintf("unknown status %q", task.Status),
		}
	}
}

// Apply mutates the task per the decision. It does not persist; the
// Evaluator owns persistence under the per-task lock. Returns a
// ConflictStateError if the decision targets an invalid transition.
func Apply(task *models.Task, decision models.Decision) error {
	for _, s := range decision.StepsMarked {
		task.Payload.MarkStepDone(s)
	}
	for k, v := range decision.PayloadData {
		if task.Payload.Data == nil {
			task.Payload.Data = make(map[string]any)
		}
		task.Payload.Data[k] = v
	}

	switch decision.Action {
	case models.ActionAdvance:
		if !task.Status.CanTransitionTo(decision.NextStatus) {
			return &models.ConflictStateError{TaskID: task.ID, From: task.Status, To: decision.NextStatus}
		}
		if task.Status == models.TaskStatusBlocked || decision.NextStatus != models.TaskStatusBlocked {
			delete(task.Payload.Data, "blocked_reason")
		}
		task.Status = decision.NextStatus
	case models.ActionBlock:
		if !task.Status.CanTransitionTo(models.TaskStatusBlocked) {
			return &models.ConflictStateError{TaskID: task.ID, From: task.Status, To: models.TaskStatusBlocked}
		}
		task.Status = models.TaskStatusBlocked
		if task.Payload.Data == nil {
			task.Payload.Data = make(map[string]any)
		}
		task.Payload.Data["blocked_reason"] = decision.Reason
	case models.ActionUpdate, models.ActionNoop:
		// No status change.
	}
	return nil
}

func overrideReason(task *models.Task) string {
	if task.OverrideReason != "" {
		return fmt.Sprintf("override active: %s", task.OverrideReason)
	}
	return "override active"
}

func blockedReason(task *models.Task) string {
	if task.Payload.Data != nil {
		if r, ok := task.Payload.Data["blocked_reason"].(string); ok && r != "" {
			return r
		}
	}
	return "no reason recorded"
}

// eventSteps extracts the completed-step IDs carried by a data-correction
// or reprocess event.
func eventSteps(event Event) []string {
	if event.Metadata == nil {
		return nil
	}
	switch v := event.Metadata["completed_steps"].(type) {
	case []string:
		return v
	case []any:
		steps := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				steps = append(steps, str)
			}
		}
		return steps
	default:
		return nil
	}
}

func eventString(event Event, key string) string {
	if event.Metadata == nil {
		return ""
	}
	s, _ := event.Metadata[key].(string)
	return s
}

func eventBool(event Event, key string) bool {
	if event.Metadata == nil {
		return false
	}
	b, _ := event.Metadata[key].(bool)
	return b
}

func copyStepSet(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
