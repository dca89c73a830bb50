package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// OverrideController gates whether the state machine may advance
// autonomously. While a task is overridden every evaluation short-circuits
// to a suppressed no-op, so human operators hold exclusive control without
// losing observability of missed events.
type OverrideController struct {
	tasks  state.TaskStore
	bus    EventBus
	logger *DebugLogger
}

// NewOverrideController creates an OverrideController.
func NewOverrideController(tasks state.TaskStore, bus EventBus, logger *DebugLogger) *OverrideController {
	if logger == nil {
		logger = NopLogger()
	}
	return &OverrideController{tasks: tasks, bus: bus, logger: logger}
}

// OverrideResult is returned from SetOverride: the updated task snapshot
// plus a human-readable status message.
type OverrideResult struct {
	// Task is the task snapshot after the update.
	Task *models.Task `json:"task"`
	// Message distinguishes "agent suppressed" from "agent resumed".
	Message string `json:"message"`
	// CorrelationID ties the result to the emitted override_set event.
	CorrelationID string `json:"correlation_id"`
}

// SetOverride atomically sets or clears the four override attributes as a
// single unit, never partially. It emits a task:override_set event on every
// call, idempotent re-sets included. Returns NotFoundError if the task does
// not exist.
func (c *OverrideController) SetOverride(taskID string, overridden bool, reason, actorID string) (*OverrideResult, error) {
	if taskID == "" {
		return nil, &models.ValidationError{Field: "taskId", Message: "must not be empty"}
	}

	var at *time.Time
	if overridden {
		now := time.Now().UTC()
		at = &now
	} else {
		// Clearing wipes reason and actor too, so nothing stale survives
		// from a previous override episode.
		reason = ""
		actorID = ""
	}

	task, err := c.tasks.SetTaskOverride(taskID, overridden, reason, actorID, at)
	if err != nil {
		return nil, &models.DependencyError{Op: "set task override", Err: err}
	}
	if task == nil {
		return nil, &models.NotFoundError{Kind: "task", ID: taskID}
	}

	correlationID := uuid.New().String()
	c.bus.Publish(Event{
		Name:          EventOverrideSet,
		TaskID:        taskID,
		CorrelationID: correlationID,
		Overridden:    &overridden,
		Reason:        reason,
		ActorID:       actorID,
		OverrideAt:    at,
	})

	msg := "override cleared; autonomous evaluation resumed"
	if overridden {
		msg = "override set; autonomous evaluation suppressed"
	}
	c.logger.Log("[override] task=%s overridden=%v actor=%s reason=%q", taskID, overridden, actorID, reason)

	return &OverrideResult{Task: task, Message: msg, CorrelationID: correlationID}, nil
}
