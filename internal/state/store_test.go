package state

import (
	"testing"
	"time"

	"github.com/astralisone/astralis-core/pkg/models"
)

func TestPutAndGetTemplate(t *testing.T) {
	db := setupTestDB(t)

	tmpl := &models.TaskTemplate{
		ID:      "invoice",
		Name:    "Invoice Processing",
		Version: 1,
		Steps: []models.TemplateStep{
			{ID: "extract", Title: "Extract"},
			{ID: "review", Title: "Review"},
		},
		Agent: models.AgentConfig{
			Directive: "process invoices",
			Completion: &models.CompletionCriteria{
				Kind:          models.CriteriaRequiredSteps,
				RequiredSteps: []string{"extract", "review"},
			},
		},
	}
	if err := db.PutTemplate(tmpl); err != nil {
		t.Fatalf("PutTemplate failed: %v", err)
	}

	got, err := db.GetTemplate("invoice")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetTemplate returned nil for existing template")
	}
	if got.Name != "Invoice Processing" || len(got.Steps) != 2 {
		t.Errorf("template not persisted: %+v", got)
	}
	if got.Agent.Completion == nil || got.Agent.Completion.Kind != models.CriteriaRequiredSteps {
		t.Errorf("completion criteria not persisted: %+v", got.Agent.Completion)
	}
}

func TestPutTemplateUpsertsNewVersion(t *testing.T) {
	db := setupTestDB(t)

	tmpl := &models.TaskTemplate{ID: "t", Name: "v1", Version: 1, Agent: models.AgentConfig{Directive: "x"}}
	if err := db.PutTemplate(tmpl); err != nil {
		t.Fatalf("PutTemplate failed: %v", err)
	}

	tmpl.Name = "v2"
	tmpl.Version = 2
	if err := db.PutTemplate(tmpl); err != nil {
		t.Fatalf("upsert PutTemplate failed: %v", err)
	}

	got, err := db.GetTemplate("t")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Version != 2 || got.Name != "v2" {
		t.Errorf("template not replaced: %+v", got)
	}

	all, err := db.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 template after upsert, got %d", len(all))
	}
}

func TestPutTemplateRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)

	bad := &models.TaskTemplate{Name: "no id"}
	if err := db.PutTemplate(bad); err == nil {
		t.Error("expected invalid template to be rejected")
	}
}

func TestAppendAndListDecisions(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now().UTC()
	for i, action := range []models.ActionType{models.ActionAdvance, models.ActionNoop} {
		entry := &models.DecisionLogEntry{
			ID:            "d" + string(rune('1'+i)),
			TaskID:        "task-1",
			TemplateID:    "tmpl-1",
			At:            base.Add(time.Duration(i) * time.Second),
			EventName:     "task:reprocess_requested",
			CorrelationID: "corr-1",
			Action:        action,
			Rationale:     "test",
		}
		if err := db.AppendDecision(entry); err != nil {
			t.Fatalf("AppendDecision failed: %v", err)
		}
	}

	entries, err := db.ListDecisionsByTask("task-1")
	if err != nil {
		t.Fatalf("ListDecisionsByTask failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != models.ActionAdvance || entries[1].Action != models.ActionNoop {
		t.Errorf("entries out of order: %+v", entries)
	}

	n, err := db.CountDecisionsByCorrelation("task-1", "corr-1")
	if err != nil {
		t.Fatalf("CountDecisionsByCorrelation failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected correlation count 2, got %d", n)
	}
}

func TestCommitmentWindowQuery(t *testing.T) {
	db := setupTestDB(t)

	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	events := []struct {
		id         string
		start, end time.Time
	}{
		{"morning", day.Add(9 * time.Hour), day.Add(10 * time.Hour)},
		{"lunch", day.Add(12 * time.Hour), day.Add(13 * time.Hour)},
		{"next-week", day.Add(7 * 24 * time.Hour), day.Add(7*24*time.Hour + time.Hour)},
	}
	for _, e := range events {
		iv := &models.Interval{EventID: e.id, OwnerID: "user-1", Title: e.id, Start: e.start, End: e.end}
		if err := db.CreateCommitment(iv); err != nil {
			t.Fatalf("CreateCommitment failed: %v", err)
		}
	}

	got, err := db.ListCommitmentsForOwner("user-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListCommitmentsForOwner failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 commitments in window, got %d", len(got))
	}

	// another owner sees nothing
	other, err := db.ListCommitmentsForOwner("user-2", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListCommitmentsForOwner failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no commitments for other owner, got %d", len(other))
	}
}

func TestDeleteCommitment(t *testing.T) {
	db := setupTestDB(t)

	day := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	iv := &models.Interval{EventID: "e1", OwnerID: "user-1", Start: day, End: day.Add(time.Hour)}
	if err := db.CreateCommitment(iv); err != nil {
		t.Fatalf("CreateCommitment failed: %v", err)
	}
	if err := db.DeleteCommitment("e1"); err != nil {
		t.Fatalf("DeleteCommitment failed: %v", err)
	}

	got, err := db.ListCommitmentsForOwner("user-1", day.Add(-time.Hour), day.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListCommitmentsForOwner failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected commitment gone, got %d", len(got))
	}
}

func TestUserLookup(t *testing.T) {
	db := setupTestDB(t)

	u := &User{ID: "user-1", Email: "alice@example.com", Name: "Alice", OrgID: "org-1", CreatedAt: time.Now().UTC()}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byID, err := db.GetUser("user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", byID)
	}

	byEmail, err := db.GetUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != "user-1" {
		t.Errorf("unexpected user: %+v", byEmail)
	}

	id, ok := db.ResolveAddress("alice@example.com")
	if !ok || id != "user-1" {
		t.Errorf("ResolveAddress = %q, %v", id, ok)
	}
	if _, ok := db.ResolveAddress("bob@example.com"); ok {
		t.Error("ResolveAddress resolved unknown address")
	}
}
