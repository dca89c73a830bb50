package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// setupTestDB creates a migrated temp database for orchestrator tests.
func setupTestDB(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func testTemplate() *models.TaskTemplate {
	return &models.TaskTemplate{
		ID:      "tmpl-1",
		Name:    "Test Template",
		Version: 1,
		Steps: []models.TemplateStep{
			{ID: "extract", Title: "Extract"},
			{ID: "review", Title: "Review"},
		},
		Agent: models.AgentConfig{
			Directive: "test",
			Completion: &models.CompletionCriteria{
				Kind:          models.CriteriaRequiredSteps,
				RequiredSteps: []string{"extract", "review"},
			},
		},
	}
}

func testTask(id string, status models.TaskStatus) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		ID:          id,
		TemplateID:  "tmpl-1",
		PipelineKey: "default",
		StageKey:    "intake",
		Title:       "test task",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func reprocessEvent(taskID string) Event {
	return Event{
		Name:          EventReprocessRequested,
		TaskID:        taskID,
		CorrelationID: "corr-1",
		At:            time.Now().UTC(),
	}
}

func TestEvaluateNotStartedAdvances(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusNotStarted)
	d, err := m.Evaluate(task, testTemplate(), reprocessEvent("t1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionAdvance || d.NextStatus != models.TaskStatusInProgress {
		t.Errorf("expected advance to in_progress, got %+v", d)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusInProgress)
	evt := reprocessEvent("t1")
	evt.Metadata = map[string]any{"completed_steps": []string{"extract"}}

	first, err := m.Evaluate(task, testTemplate(), evt)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	second, err := m.Evaluate(task, testTemplate(), evt)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if first.Action != second.Action || first.NextStatus != second.NextStatus || first.Reason != second.Reason {
		t.Errorf("same inputs produced different decisions: %+v vs %+v", first, second)
	}
}

func TestEvaluateOverriddenSuppresses(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusInProgress)
	at := time.Now().UTC()
	task.SetOverride("manual hold", "ops-1", at)

	d, err := m.Evaluate(task, testTemplate(), reprocessEvent("t1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionNoop || !d.Suppressed {
		t.Errorf("expected suppressed noop, got %+v", d)
	}

	// the suppressed evaluation is still logged
	entries, err := db.ListDecisionsByTask("t1")
	if err != nil {
		t.Fatalf("ListDecisionsByTask failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Suppressed {
		t.Errorf("expected one suppressed log entry, got %+v", entries)
	}
}

func TestEvaluateTerminalSuppresses(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	for _, status := range []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusClosed} {
		task := testTask("t-"+string(status), status)
		d, err := m.Evaluate(task, testTemplate(), reprocessEvent(task.ID))
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if d.Action != models.ActionNoop || !d.Suppressed {
			t.Errorf("%s: expected suppressed noop, got %+v", status, d)
		}
	}
}

func TestEvaluateStepsCompleteTask(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusInProgress)
	task.Payload.MarkStepDone("extract")

	evt := reprocessEvent("t1")
	evt.Metadata = map[string]any{"completed_steps": []string{"review"}}

	d, err := m.Evaluate(task, testTemplate(), evt)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionAdvance || d.NextStatus != models.TaskStatusCompleted {
		t.Errorf("expected advance to completed, got %+v", d)
	}

	// Evaluate itself must not mutate the caller's snapshot
	if task.Payload.StepDone("review") {
		t.Error("Evaluate mutated the task snapshot")
	}
}

func TestEvaluatePartialStepsUpdate(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusInProgress)
	evt := reprocessEvent("t1")
	evt.Metadata = map[string]any{"completed_steps": []any{"extract"}}

	d, err := m.Evaluate(task, testTemplate(), evt)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionUpdate || len(d.StepsMarked) != 1 {
		t.Errorf("expected update with one marked step, got %+v", d)
	}
}

func TestEvaluateBlockAndUnblock(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusInProgress)
	evt := reprocessEvent("t1")
	evt.Metadata = map[string]any{"block_reason": "waiting on vendor"}

	d, err := m.Evaluate(task, testTemplate(), evt)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionBlock {
		t.Fatalf("expected block, got %+v", d)
	}
	if err := Apply(task, d); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if task.Status != models.TaskStatusBlocked {
		t.Fatalf("expected blocked status, got %s", task.Status)
	}

	// blocked with no signal stays put
	d, err = m.Evaluate(task, testTemplate(), reprocessEvent("t1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionNoop {
		t.Errorf("expected noop while blocked, got %+v", d)
	}

	// unblock signal returns to in_progress
	evt = reprocessEvent("t1")
	evt.Metadata = map[string]any{"unblock": true}
	d, err = m.Evaluate(task, testTemplate(), evt)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionAdvance || d.NextStatus != models.TaskStatusInProgress {
		t.Errorf("expected advance to in_progress, got %+v", d)
	}
}

func TestEvaluateNilCompletionNeverAutoCompletes(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	tmpl := testTemplate()
	tmpl.Agent.Completion = nil

	task := testTask("t1", models.TaskStatusInProgress)
	d, err := m.Evaluate(task, tmpl, reprocessEvent("t1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionNoop {
		t.Errorf("expected noop without completion criteria, got %+v", d)
	}
}

func TestEvaluateRespectsAllowedActions(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	tmpl := testTemplate()
	tmpl.Agent.AllowedActions = []models.ActionType{models.ActionNoop, models.ActionUpdate}

	task := testTask("t1", models.TaskStatusNotStarted)
	d, err := m.Evaluate(task, tmpl, reprocessEvent("t1"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Action != models.ActionNoop {
		t.Errorf("disallowed advance should degrade to noop, got %+v", d)
	}
}

func TestEveryEvaluationLogsExactlyOneEntry(t *testing.T) {
	db := setupTestDB(t)
	m := NewStateMachine(db, nil)

	task := testTask("t1", models.TaskStatusInProgress)
	for i := 0; i < 3; i++ {
		if _, err := m.Evaluate(task, testTemplate(), reprocessEvent("t1")); err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
	}

	entries, err := db.ListDecisionsByTask("t1")
	if err != nil {
		t.Fatalf("ListDecisionsByTask failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 log entries for 3 evaluations, got %d", len(entries))
	}
}

func TestApplyRejectsInvalidTransition(t *testing.T) {
	task := testTask("t1", models.TaskStatusCompleted)
	err := Apply(task, models.Decision{Action: models.ActionAdvance, NextStatus: models.TaskStatusInProgress})
	if err == nil {
		t.Fatal("expected ConflictStateError for terminal transition")
	}
	var cse *models.ConflictStateError
	if !errors.As(err, &cse) {
		t.Errorf("expected ConflictStateError, got %T", err)
	}
}
