package state

import (
	"encoding/json"
	"fmt"

	"github.com/astralisone/astralis-core/pkg/models"
)

// Decision log storage. Entries are append-only: there is no update or
// delete path, by audit requirement.

// AppendDecision persists a new decision log entry.
func (db *DB) AppendDecision(e *models.DecisionLogEntry) error {
	metadata := "{}"
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal decision metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := db.Exec(`
		INSERT INTO decision_log (id, task_id, template_id, at, event_name, correlation_id,
			action, suppressed, rationale, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.TaskID, e.TemplateID, formatTime(e.At), e.EventName, e.CorrelationID,
		string(e.Action), boolToInt(e.Suppressed), e.Rationale, metadata)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// ListDecisionsByTask returns all decision log entries for a task in
// chronological order.
func (db *DB) ListDecisionsByTask(taskID string) ([]models.DecisionLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, task_id, template_id, at, event_name, correlation_id,
			action, suppressed, rationale, metadata
		FROM decision_log WHERE task_id = ? ORDER BY at, id
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []models.DecisionLogEntry
	for rows.Next() {
		var e models.DecisionLogEntry
		var at, action, metadata string
		var suppressed int
		if err := rows.Scan(&e.ID, &e.TaskID, &e.TemplateID, &at, &e.EventName, &e.CorrelationID,
			&action, &suppressed, &e.Rationale, &metadata); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.At, _ = parseTime(at)
		e.Action = models.ActionType(action)
		e.Suppressed = suppressed != 0
		if metadata != "" && metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal decision metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountDecisionsByCorrelation returns how many entries reference a
// correlation ID. Consumers use this to deduplicate redelivered events.
func (db *DB) CountDecisionsByCorrelation(taskID, correlationID string) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM decision_log WHERE task_id = ? AND correlation_id = ?
	`, taskID, correlationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}
