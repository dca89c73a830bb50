package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/astralisone/astralis-core/pkg/models"
)

// Commitment storage backing conflict detection and slot suggestion.

// CreateCommitment persists a commitment interval for an owner.
func (db *DB) CreateCommitment(iv *models.Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	participants, err := json.Marshal(iv.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO commitments (id, owner_id, title, start_at, end_at, all_day, participants)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, iv.EventID, iv.OwnerID, iv.Title, formatTime(iv.Start), formatTime(iv.End),
		boolToInt(iv.AllDay), string(participants))
	if err != nil {
		return fmt.Errorf("create commitment: %w", err)
	}
	return nil
}

// ListCommitmentsForOwner returns all commitments for an owner overlapping
// the half-open range [from, to), ordered by start time. Multi-day
// commitments starting before the range are included.
func (db *DB) ListCommitmentsForOwner(ownerID string, from, to time.Time) ([]models.Interval, error) {
	rows, err := db.Query(`
		SELECT id, owner_id, title, start_at, end_at, all_day, participants
		FROM commitments
		WHERE owner_id = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at
	`, ownerID, formatTime(to), formatTime(from))
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()

	var intervals []models.Interval
	for rows.Next() {
		var iv models.Interval
		var start, end, participants string
		var allDay int
		if err := rows.Scan(&iv.EventID, &iv.OwnerID, &iv.Title, &start, &end, &allDay, &participants); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		iv.Start, _ = parseTime(start)
		iv.End, _ = parseTime(end)
		iv.AllDay = allDay != 0
		if err := json.Unmarshal([]byte(participants), &iv.Participants); err != nil {
			return nil, fmt.Errorf("unmarshal participants: %w", err)
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// DeleteCommitment removes a commitment by event ID.
func (db *DB) DeleteCommitment(eventID string) error {
	_, err := db.Exec(`DELETE FROM commitments WHERE id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("delete commitment: %w", err)
	}
	return nil
}
