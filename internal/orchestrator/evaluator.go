package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// EvaluatorStore is the slice of persistence the evaluator needs.
type EvaluatorStore interface {
	state.TaskStore
	state.TemplateStore
	state.DecisionStore
}

// Evaluator consumes evaluation-triggering events and runs the state
// machine for each, one evaluation in flight per task ID at a time.
type Evaluator struct {
	store   EvaluatorStore
	machine *StateMachine
	bus     EventBus
	locks   *taskLocks
	timeout time.Duration
	logger  *DebugLogger

	wg sync.WaitGroup
}

// NewEvaluator creates an Evaluator. timeout bounds each evaluation cycle;
// zero means no bound.
func NewEvaluator(store EvaluatorStore, machine *StateMachine, bus EventBus, timeout time.Duration, logger *DebugLogger) *Evaluator {
	if logger == nil {
		logger = NopLogger()
	}
	return &Evaluator{
		store:   store,
		machine: machine,
		bus:     bus,
		locks:   newTaskLocks(),
		timeout: timeout,
		logger:  logger,
	}
}

// Run subscribes to evaluation-triggering events and processes them until
// the context is cancelled. Events for different tasks are handled in
// parallel; the per-task lock serializes same-task events.
func (e *Evaluator) Run(ctx context.Context) {
	reprocess, cancelReprocess := e.bus.Subscribe(EventReprocessRequested)
	intake, cancelIntake := e.bus.Subscribe(EventIntakeAssigned)
	defer cancelReprocess()
	defer cancelIntake()

	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			return
		case evt, ok := <-reprocess:
			if !ok {
				e.wg.Wait()
				return
			}
			e.dispatch(ctx, evt)
		case evt, ok := <-intake:
			if !ok {
				e.wg.Wait()
				return
			}
			e.dispatch(ctx, evt)
		}
	}
}

// dispatch runs one event's evaluation on its own goroutine.
func (e *Evaluator) dispatch(ctx context.Context, evt Event) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.ProcessEvent(ctx, evt); err != nil {
			e.logger.Log("[evaluator] event %s for task %s failed: %v", evt.Name, evt.TaskID, err)
		}
	}()
}

// ProcessEvent runs one evaluation cycle for the event's task: acquire the
// per-task lock, load the task and template snapshots, evaluate, apply and
// persist the decision, and emit an outcome event. The cycle is bounded by
// the evaluator's timeout; on expiry a timeout entry is appended to the
// decision log and the event is considered failed and eligible for
// bus-level redelivery. The abandoned cycle keeps the lock until it
// observes cancellation, so it can never write concurrently with a
// later evaluation.
func (e *Evaluator) ProcessEvent(ctx context.Context, evt Event) (models.Decision, error) {
	release := e.locks.Acquire(evt.TaskID)

	if e.timeout <= 0 {
		defer release()
		return e.evaluateLocked(ctx, evt)
	}

	cycleCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		decision models.Decision
		err      error
	}
	done := make(chan outcome, 1)

	// The lock is released by the evaluation goroutine, not here: a cycle
	// abandoned at its deadline must not let a new evaluation start while
	// the old one could still be reading the task. evaluateLocked checks
	// cycleCtx before any write, so an abandoned cycle never takes effect.
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer release()
		d, err := e.evaluateLocked(cycleCtx, evt)
		done <- outcome{decision: d, err: err}
	}()

	select {
	case out := <-done:
		return out.decision, out.err
	case <-cycleCtx.Done():
		if ctx.Err() != nil {
			return models.Decision{}, ctx.Err()
		}
		err := &models.EvaluationTimeoutError{TaskID: evt.TaskID, Timeout: e.timeout}
		e.recordTimeout(evt, err)
		return models.Decision{}, err
	}
}

// evaluateLocked performs the evaluation cycle. Caller holds the per-task
// lock. ctx expiry between steps aborts the cycle before it writes.
func (e *Evaluator) evaluateLocked(ctx context.Context, evt Event) (models.Decision, error) {
	task, err := e.store.GetTask(evt.TaskID)
	if err != nil {
		return models.Decision{}, &models.DependencyError{Op: "get task", Err: err}
	}
	if task == nil {
		return models.Decision{}, &models.NotFoundError{Kind: "task", ID: evt.TaskID}
	}

	template, err := e.store.GetTemplate(task.TemplateID)
	if err != nil {
		return models.Decision{}, &models.DependencyError{Op: "get template", Err: err}
	}
	if template == nil {
		return models.Decision{}, &models.NotFoundError{Kind: "template", ID: task.TemplateID}
	}
	if err := ctx.Err(); err != nil {
		return models.Decision{}, err
	}

	// At-least-once delivery means the same event instance may arrive
	// again. Evaluation is deterministic against the current snapshot, so
	// redelivery costs one extra log entry and nothing else; the count is
	// surfaced for observability.
	if evt.CorrelationID != "" {
		if n, err := e.store.CountDecisionsByCorrelation(evt.TaskID, evt.CorrelationID); err == nil && n > 0 {
			e.logger.Log("[evaluator] redelivery of %s for task %s (seen %d time(s))", evt.CorrelationID, evt.TaskID, n)
		}
	}

	decision, err := e.machine.Evaluate(task, template, evt)
	if err != nil {
		return models.Decision{}, err
	}

	// A cycle whose deadline fired while evaluating has already been
	// reported as failed; it must not mutate the task or publish success.
	if err := ctx.Err(); err != nil {
		return models.Decision{}, err
	}

	if decision.Action != models.ActionNoop {
		if err := Apply(task, decision); err != nil {
			// An invalid transition at apply time means the snapshot raced
			// something it should not have; surface it rather than persist.
			e.publishFailed(evt, err)
			return models.Decision{}, err
		}
		if err := e.store.UpdateTaskState(task); err != nil {
			e.publishFailed(evt, err)
			return models.Decision{}, &models.DependencyError{Op: "update task state", Err: err}
		}
	}

	e.bus.Publish(Event{
		Name:          EventEvaluationCompleted,
		TaskID:        task.ID,
		CorrelationID: evt.CorrelationID,
		Action:        string(decision.Action),
		Suppressed:    decision.Suppressed,
		Reason:        decision.Reason,
	})
	return decision, nil
}

// recordTimeout appends the decision log entry for a timed-out cycle and
// publishes the failure event.
func (e *Evaluator) recordTimeout(evt Event, terr *models.EvaluationTimeoutError) {
	entry := &models.DecisionLogEntry{
		ID:            uuid.New().String(),
		TaskID:        evt.TaskID,
		TemplateID:    "",
		At:            time.Now().UTC(),
		EventName:     string(evt.Name),
		CorrelationID: evt.CorrelationID,
		Action:        models.ActionNoop,
		Rationale:     fmt.Sprintf("evaluation timed out after %s", terr.Timeout),
		Metadata:      map[string]any{"timeout": terr.Timeout.String()},
	}
	if err := e.store.AppendDecision(entry); err != nil {
		e.logger.Log("[evaluator] failed to record timeout for task %s: %v", evt.TaskID, err)
	}
	e.publishFailed(evt, terr)
}

func (e *Evaluator) publishFailed(evt Event, cause error) {
	e.bus.Publish(Event{
		Name:          EventEvaluationFailed,
		TaskID:        evt.TaskID,
		CorrelationID: evt.CorrelationID,
		Error:         cause.Error(),
	})
}
