package state

import (
	"testing"
	"time"

	"github.com/astralisone/astralis-core/pkg/models"
)

func TestCreateAndGetTask(t *testing.T) {
	db := setupTestDB(t)

	task := newTestTask("task-1")
	task.Payload.Data = map[string]any{"vendor": "acme"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetTask returned nil for existing task")
	}
	if got.Title != task.Title || got.Status != models.TaskStatusNotStarted {
		t.Errorf("task fields not persisted: %+v", got)
	}
	if got.Payload.Data["vendor"] != "acme" {
		t.Errorf("payload not persisted: %+v", got.Payload)
	}
}

func TestGetTaskMissing(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetTask("nope")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}

func TestUpdateTaskState(t *testing.T) {
	db := setupTestDB(t)

	task := newTestTask("task-1")
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	task.Status = models.TaskStatusInProgress
	task.Payload.MarkStepDone("extract")
	task.UpdatedAt = time.Now().UTC()
	if err := db.UpdateTaskState(task); err != nil {
		t.Fatalf("UpdateTaskState failed: %v", err)
	}

	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != models.TaskStatusInProgress {
		t.Errorf("status not updated: %s", got.Status)
	}
	if !got.Payload.StepDone("extract") {
		t.Error("step completion not persisted")
	}
}

func TestSetTaskOverrideAtomic(t *testing.T) {
	db := setupTestDB(t)

	task := newTestTask("task-1")
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	at := time.Now().UTC()
	got, err := db.SetTaskOverride("task-1", true, "vendor dispute", "ops-1", &at)
	if err != nil {
		t.Fatalf("SetTaskOverride failed: %v", err)
	}
	if got == nil {
		t.Fatal("SetTaskOverride returned nil for existing task")
	}
	if err := got.ValidateOverride(); err != nil {
		t.Errorf("override invariant violated: %v", err)
	}
	if !got.Overridden || got.OverrideReason != "vendor dispute" || got.OverrideActorID != "ops-1" {
		t.Errorf("override fields wrong: %+v", got)
	}

	// clearing wipes all four fields together
	got, err = db.SetTaskOverride("task-1", false, "", "", nil)
	if err != nil {
		t.Fatalf("clear SetTaskOverride failed: %v", err)
	}
	if err := got.ValidateOverride(); err != nil {
		t.Errorf("override invariant violated after clear: %v", err)
	}
	if got.Overridden || got.OverrideReason != "" || got.OverrideActorID != "" || got.OverrideAt != nil {
		t.Errorf("override fields not cleared: %+v", got)
	}
}

func TestSetTaskOverrideMissingTask(t *testing.T) {
	db := setupTestDB(t)

	at := time.Now().UTC()
	got, err := db.SetTaskOverride("nope", true, "r", "a", &at)
	if err != nil {
		t.Fatalf("SetTaskOverride failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}

func TestAppendTaskHistoryKeepsDuplicates(t *testing.T) {
	db := setupTestDB(t)

	task := newTestTask("task-1")
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	entry := map[string]any{"requested_by": "user-1", "reason": "retry"}
	for i := 0; i < 2; i++ {
		if err := db.AppendTaskHistory("task-1", "reprocess_requests", entry); err != nil {
			t.Fatalf("AppendTaskHistory failed: %v", err)
		}
	}

	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	count := 0
	for _, h := range got.Payload.History {
		if h.Field == "reprocess_requests" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 identical history entries, got %d", count)
	}
}

func TestListTasksByStatus(t *testing.T) {
	db := setupTestDB(t)

	for _, id := range []string{"a", "b"} {
		if err := db.CreateTask(newTestTask(id)); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}
	done := newTestTask("c")
	done.Status = models.TaskStatusCompleted
	if err := db.CreateTask(done); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	notStarted, err := db.ListTasksByStatus(models.TaskStatusNotStarted)
	if err != nil {
		t.Fatalf("ListTasksByStatus failed: %v", err)
	}
	if len(notStarted) != 2 {
		t.Errorf("expected 2 not_started tasks, got %d", len(notStarted))
	}

	completed, err := db.ListTasksByStatus(models.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("ListTasksByStatus failed: %v", err)
	}
	if len(completed) != 1 {
		t.Errorf("expected 1 completed task, got %d", len(completed))
	}
}
