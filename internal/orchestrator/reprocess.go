package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// ReprocessCoordinator triggers a fresh evaluation cycle on demand. The
// request is validated and recorded synchronously; the evaluation itself
// happens asynchronously when the emitted event is consumed. Reprocess
// requests never bypass the override gate: an overridden task's evaluation
// is a suppressed no-op until the override is cleared, which lets operators
// queue "please look at this" without surrendering control.
type ReprocessCoordinator struct {
	tasks  state.TaskStore
	users  state.UserStore
	bus    EventBus
	logger *DebugLogger
}

// NewReprocessCoordinator creates a ReprocessCoordinator.
func NewReprocessCoordinator(tasks state.TaskStore, users state.UserStore, bus EventBus, logger *DebugLogger) *ReprocessCoordinator {
	if logger == nil {
		logger = NopLogger()
	}
	return &ReprocessCoordinator{tasks: tasks, users: users, bus: bus, logger: logger}
}

// ReprocessAck acknowledges an accepted reprocess request. The evaluation
// has not run yet when the ack is returned.
type ReprocessAck struct {
	// TaskID is the task queued for re-evaluation.
	TaskID string `json:"task_id"`
	// CorrelationID identifies the emitted reprocess_requested event.
	CorrelationID string `json:"correlation_id"`
	// Suppressed is true when the task is currently overridden: the request
	// was accepted and logged, but evaluation will be a no-op until the
	// override is cleared.
	Suppressed bool `json:"suppressed"`
	// Message is the human-readable status.
	Message string `json:"message"`
}

// RequestReprocess validates the task and requester, appends a
// reprocess-request record to the task's payload history, emits a
// task:reprocess_requested event, and returns immediately. Multiple
// requests before any evaluation runs are all preserved in history, never
// deduplicated: operators may need to know how many times reprocessing was
// asked for.
func (c *ReprocessCoordinator) RequestReprocess(taskID, requestedBy, reason string) (*ReprocessAck, error) {
	if taskID == "" {
		return nil, &models.ValidationError{Field: "taskId", Message: "must not be empty"}
	}
	if requestedBy == "" {
		return nil, &models.ValidationError{Field: "requestedByUserId", Message: "must not be empty"}
	}

	task, err := c.tasks.GetTask(taskID)
	if err != nil {
		return nil, &models.DependencyError{Op: "get task", Err: err}
	}
	if task == nil {
		return nil, &models.NotFoundError{Kind: "task", ID: taskID}
	}

	user, err := c.users.GetUser(requestedBy)
	if err != nil {
		return nil, &models.DependencyError{Op: "get user", Err: err}
	}
	if user == nil {
		return nil, &models.NotFoundError{Kind: "user", ID: requestedBy}
	}

	correlationID := uuid.New().String()
	record := map[string]any{
		"requested_by":   requestedBy,
		"correlation_id": correlationID,
	}
	if reason != "" {
		record["reason"] = reason
	}
	if err := c.tasks.AppendTaskHistory(taskID, "reprocess_requests", record); err != nil {
		return nil, &models.DependencyError{Op: "append reprocess history", Err: err}
	}

	c.bus.Publish(Event{
		Name:          EventReprocessRequested,
		TaskID:        taskID,
		CorrelationID: correlationID,
		RequestedBy:   requestedBy,
		At:            time.Now(),
		Metadata:      map[string]any{"reason": reason},
	})

	ack := &ReprocessAck{
		TaskID:        taskID,
		CorrelationID: correlationID,
		Suppressed:    task.Overridden,
		Message:       "reprocess queued; evaluation will run shortly",
	}
	if task.Overridden {
		ack.Message = "reprocess accepted but suppressed: task is overridden"
	}
	c.logger.Log("[reprocess] task=%s requested_by=%s suppressed=%v", taskID, requestedBy, ack.Suppressed)
	return ack, nil
}

// newCorrelationID mints a correlation ID for callers that publish events
// directly (e.g., intake assignment).
func newCorrelationID() string {
	return uuid.New().String()
}
