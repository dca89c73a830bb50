package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/astralisone/astralis-core/pkg/models"
)

// Task CRUD operations

// CreateTask persists a new task.
func (db *DB) CreateTask(t *models.Task) error {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	var overrideAt string
	if t.OverrideAt != nil {
		overrideAt = formatTime(*t.OverrideAt)
	}

	_, err = db.Exec(`
		INSERT INTO tasks (id, org_id, template_id, pipeline_key, stage_key, title, status,
			overridden, override_reason, override_actor_id, override_at,
			payload, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrgID, t.TemplateID, t.PipelineKey, t.StageKey, t.Title, string(t.Status),
		boolToInt(t.Overridden), t.OverrideReason, t.OverrideActorID, overrideAt,
		string(payload), t.Priority, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns (nil, nil) if not found.
func (db *DB) GetTask(id string) (*models.Task, error) {
	row := db.QueryRow(`
		SELECT id, org_id, template_id, pipeline_key, stage_key, title, status,
			overridden, override_reason, override_actor_id, override_at,
			payload, priority, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

// scanTask reads one task row from a row scanner.
func scanTask(row *sql.Row) (*models.Task, error) {
	var t models.Task
	var status, overrideAt, payload, createdAt, updatedAt string
	var overridden int

	err := row.Scan(&t.ID, &t.OrgID, &t.TemplateID, &t.PipelineKey, &t.StageKey, &t.Title, &status,
		&overridden, &t.OverrideReason, &t.OverrideActorID, &overrideAt,
		&payload, &t.Priority, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	t.Status = models.TaskStatus(status)
	t.Overridden = overridden != 0
	if overrideAt != "" {
		at, err := parseTime(overrideAt)
		if err != nil {
			return nil, fmt.Errorf("parse override_at: %w", err)
		}
		t.OverrideAt = &at
	}
	if err := json.Unmarshal([]byte(payload), &t.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal task payload: %w", err)
	}
	t.CreatedAt, _ = parseTime(createdAt)
	t.UpdatedAt, _ = parseTime(updatedAt)
	return &t, nil
}

// UpdateTaskState writes the task's status, stage, payload, and priority in
// one statement. Override fields are untouched; use SetTaskOverride for those.
func (db *DB) UpdateTaskState(t *models.Task) error {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	res, err := db.Exec(`
		UPDATE tasks SET status = ?, stage_key = ?, payload = ?, priority = ?, updated_at = ?
		WHERE id = ?
	`, string(t.Status), t.StageKey, string(payload), t.Priority, formatTime(time.Now()), t.ID)
	if err != nil {
		return fmt.Errorf("update task state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update task state: task %s not found", t.ID)
	}
	return nil
}

// SetTaskOverride atomically sets or clears all four override attributes as a
// single unit and returns the updated task. Returns (nil, nil) if the task
// does not exist.
func (db *DB) SetTaskOverride(taskID string, overridden bool, reason, actorID string, at *time.Time) (*models.Task, error) {
	var overrideAt string
	if at != nil {
		overrideAt = formatTime(*at)
	}

	err := db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE tasks SET overridden = ?, override_reason = ?, override_actor_id = ?,
				override_at = ?, updated_at = ?
			WHERE id = ?
		`, boolToInt(overridden), reason, actorID, overrideAt, formatTime(time.Now()), taskID)
		if err != nil {
			return fmt.Errorf("set task override: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.GetTask(taskID)
}

// AppendTaskHistory appends an entry to the task's payload history inside a
// transaction so concurrent appends never lose writes. Returns sql.ErrNoRows
// wrapped if the task does not exist.
func (db *DB) AppendTaskHistory(taskID, field string, entry map[string]any) error {
	return db.withTx(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRow(`SELECT payload FROM tasks WHERE id = ?`, taskID).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("append task history: task %s not found", taskID)
		}
		if err != nil {
			return fmt.Errorf("append task history: %w", err)
		}

		var payload models.TaskPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return fmt.Errorf("unmarshal task payload: %w", err)
		}
		payload.AppendHistory(field, time.Now().UTC(), entry)

		updated, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal task payload: %w", err)
		}
		if _, err := tx.Exec(`UPDATE tasks SET payload = ?, updated_at = ? WHERE id = ?`,
			string(updated), formatTime(time.Now()), taskID); err != nil {
			return fmt.Errorf("append task history: %w", err)
		}
		return nil
	})
}

// ListTasksByStatus returns all tasks with the given status, oldest first.
func (db *DB) ListTasksByStatus(status models.TaskStatus) ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT id, org_id, template_id, pipeline_key, stage_key, title, status,
			overridden, override_reason, override_actor_id, override_at,
			payload, priority, created_at, updated_at
		FROM tasks WHERE status = ? ORDER BY created_at
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var st, overrideAt, payload, createdAt, updatedAt string
		var overridden int
		if err := rows.Scan(&t.ID, &t.OrgID, &t.TemplateID, &t.PipelineKey, &t.StageKey, &t.Title, &st,
			&overridden, &t.OverrideReason, &t.OverrideActorID, &overrideAt,
			&payload, &t.Priority, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = models.TaskStatus(st)
		t.Overridden = overridden != 0
		if overrideAt != "" {
			at, err := parseTime(overrideAt)
			if err == nil {
				t.OverrideAt = &at
			}
		}
		if err := json.Unmarshal([]byte(payload), &t.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal task payload: %w", err)
		}
		t.CreatedAt, _ = parseTime(createdAt)
		t.UpdatedAt, _ = parseTime(updatedAt)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
