// Package state provides SQLite-based persistence for the orchestration core.
package state

import (
	"io"
	"time"

	"github.com/astralisone/astralis-core/pkg/models"
)

// TaskStore handles task-related persistence operations.
type TaskStore interface {
	CreateTask(t *models.Task) error
	GetTask(id string) (*models.Task, error)
	UpdateTaskState(t *models.Task) error
	SetTaskOverride(taskID string, overridden bool, reason, actorID string, at *time.Time) (*models.Task, error)
	AppendTaskHistory(taskID, field string, entry map[string]any) error
	ListTasksByStatus(status models.TaskStatus) ([]models.Task, error)
}

// TemplateStore handles template persistence operations.
type TemplateStore interface {
	PutTemplate(t *models.TaskTemplate) error
	GetTemplate(id string) (*models.TaskTemplate, error)
	ListTemplates() ([]models.TaskTemplate, error)
}

// DecisionStore handles the append-only decision log.
type DecisionStore interface {
	AppendDecision(e *models.DecisionLogEntry) error
	ListDecisionsByTask(taskID string) ([]models.DecisionLogEntry, error)
	CountDecisionsByCorrelation(taskID, correlationID string) (int, error)
}

// CommitmentStore handles calendar commitment persistence.
type CommitmentStore interface {
	CreateCommitment(iv *models.Interval) error
	ListCommitmentsForOwner(ownerID string, from, to time.Time) ([]models.Interval, error)
	DeleteCommitment(eventID string) error
}

// UserStore handles user persistence operations.
type UserStore interface {
	CreateUser(u *User) error
	GetUser(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore defines the interface for state persistence.
// This interface allows the orchestration core to work with any backend
// without depending on the concrete SQLite implementation.
// It composes focused sub-interfaces for better modularity.
type StateStore interface {
	io.Closer
	Migrator
	TaskStore
	TemplateStore
	DecisionStore
	CommitmentStore
	UserStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore      = (*DB)(nil)
	_ Migrator        = (*DB)(nil)
	_ TaskStore       = (*DB)(nil)
	_ TemplateStore   = (*DB)(nil)
	_ DecisionStore   = (*DB)(nil)
	_ CommitmentStore = (*DB)(nil)
	_ UserStore       = (*DB)(nil)
)
