package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// IntakeRequest is an incoming business request before it is assigned to a
// pipeline and task.
type IntakeRequest struct {
	// Title is the short description of the request.
	Title string `json:"title"`
	// OrgID scopes the resulting task.
	OrgID string `json:"org_id,omitempty"`
	// TemplateID selects the template governing execution.
	TemplateID string `json:"template_id"`
	// PipelineKey overrides the template's preferred pipeline, if set.
	PipelineKey string `json:"pipeline_key,omitempty"`
	// StageKey overrides the template's default stage, if set.
	StageKey string `json:"stage_key,omitempty"`
	// Data seeds the task payload.
	Data map[string]any `json:"data,omitempty"`
}

// IntakeRouter assigns intake requests to templates and pipelines,
// creating the task that the rest of the orchestration core operates on.
type IntakeRouter struct {
	tasks     state.TaskStore
	templates state.TemplateStore
	bus       EventBus
	logger    *DebugLogger
}

// NewIntakeRouter creates an IntakeRouter.
func NewIntakeRouter(tasks state.TaskStore, templates state.TemplateStore, bus EventBus, logger *DebugLogger) *IntakeRouter {
	if logger == nil {
		logger = NopLogger()
	}
	return &IntakeRouter{tasks: tasks, templates: templates, bus: bus, logger: logger}
}

// Assign creates a task for the intake request, applying the template's
// routing and SLA hints where the request leaves them unset, and emits a
// task:intake_assigned event so the evaluator picks the task up.
func (r *IntakeRouter) Assign(req IntakeRequest) (*models.Task, error) {
	if req.TemplateID == "" {
		return nil, &models.ValidationError{Field: "templateId", Message: "must not be empty"}
	}
	if req.Title == "" {
		return nil, &models.ValidationError{Field: "title", Message: "must not be empty"}
	}

	template, err := r.templates.GetTemplate(req.TemplateID)
	if err != nil {
		return nil, &models.DependencyError{Op: "get template", Err: err}
	}
	if template == nil {
		return nil, &models.NotFoundError{Kind: "template", ID: req.TemplateID}
	}

	pipeline := req.PipelineKey
	if pipeline == "" {
		pipeline = template.Routing.PipelineKey
	}
	stage := req.StageKey
	if stage == "" {
		stage = template.Routing.StageKey
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		OrgID:       req.OrgID,
		TemplateID:  template.ID,
		PipelineKey: pipeline,
		StageKey:    stage,
		Title:       req.Title,
		Status:      models.TaskStatusNotStarted,
		Priority:    template.SLA.DefaultPriority,
		Payload:     models.TaskPayload{Data: req.Data},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.tasks.CreateTask(task); err != nil {
		return nil, &models.DependencyError{Op: "create task", Err: err}
	}

	r.bus.Publish(Event{
		Name:          EventIntakeAssigned,
		TaskID:        task.ID,
		CorrelationID: newCorrelationID(),
		Metadata: map[string]any{
			"pipeline_key": pipeline,
			"stage_key":    stage,
		},
	})

	r.logger.Log("[intake] assigned %q to template %s pipeline=%s", req.Title, template.ID, pipeline)
	return task, nil
}
