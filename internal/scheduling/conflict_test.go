package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/astralisone/astralis-core/pkg/models"
)

// memCommitments is an in-memory CommitmentStore keyed by owner.
type memCommitments struct {
	byOwner map[string][]models.Interval
}

func newMemCommitments() *memCommitments {
	return &memCommitments{byOwner: make(map[string][]models.Interval)}
}

func (m *memCommitments) CreateCommitment(iv *models.Interval) error {
	m.byOwner[iv.OwnerID] = append(m.byOwner[iv.OwnerID], *iv)
	return nil
}

func (m *memCommitments) ListCommitmentsForOwner(ownerID string, from, to time.Time) ([]models.Interval, error) {
	var out []models.Interval
	for _, iv := range m.byOwner[ownerID] {
		if iv.Start.Before(to) && iv.End.After(from) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *memCommitments) DeleteCommitment(eventID string) error {
	for owner, ivs := range m.byOwner {
		for i, iv := range ivs {
			if iv.EventID == eventID {
				m.byOwner[owner] = append(ivs[:i], ivs[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// mapResolver resolves addresses from a fixed map.
type mapResolver map[string]string

func (r mapResolver) ResolveAddress(address string) (string, bool) {
	id, ok := r[address]
	return id, ok
}

func dayAt(hour, min int) time.Time {
	return time.Date(2026, 9, 2, hour, min, 0, 0, time.UTC)
}

func commitment(eventID, ownerID string, start, end time.Time) *models.Interval {
	return &models.Interval{
		EventID: eventID,
		OwnerID: ownerID,
		Title:   "busy",
		Start:   start,
		End:     end,
	}
}

func TestDetectConflictsOverlap(t *testing.T) {
	store := newMemCommitments()
	store.CreateCommitment(commitment("e1", "u1", dayAt(10, 0), dayAt(11, 0)))

	d := NewDetector(store, nil)
	result, err := d.DetectConflicts("u1", ConflictRequest{
		StartTime: dayAt(10, 30),
		EndTime:   dayAt(11, 30),
	})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if !result.HasConflicts || result.TotalConflicts != 1 {
		t.Errorf("expected 1 conflict, got %+v", result)
	}
	if len(result.UserConflicts) != 1 || result.UserConflicts[0].EventID != "e1" {
		t.Errorf("unexpected user conflicts: %+v", result.UserConflicts)
	}
}

func TestDetectConflictsBackToBackClear(t *testing.T) {
	store := newMemCommitments()
	store.CreateCommitment(commitment("e1", "u1", dayAt(9, 0), dayAt(10, 0)))
	store.CreateCommitment(commitment("e2", "u1", dayAt(11, 0), dayAt(12, 0)))

	d := NewDetector(store, nil)
	result, err := d.DetectConflicts("u1", ConflictRequest{
		StartTime: dayAt(10, 0),
		EndTime:   dayAt(11, 0),
	})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if result.HasConflicts {
		t.Errorf("back-to-back intervals must not conflict: %+v", result)
	}
}

func TestDetectConflictsOrderedByStart(t *testing.T) {
	store := newMemCommitments()
	store.CreateCommitment(commitment("late", "u1", dayAt(11, 0), dayAt(12, 0)))
	store.CreateCommitment(commitment("early", "u1", dayAt(9, 0), dayAt(10, 0)))

	d := NewDetector(store, nil)
	result, err := d.DetectConflicts("u1", ConflictRequest{
		StartTime: dayAt(9, 30),
		EndTime:   dayAt(11, 30),
	})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if len(result.UserConflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(result.UserConflicts))
	}
	if result.UserConflicts[0].EventID != "early" || result.UserConflicts[1].EventID != "late" {
		t.Errorf("conflicts not ordered by start: %+v", result.UserConflicts)
	}
}

func TestDetectConflictsExcludeEvent(t *testing.T) {
	store := newMemCommitments()
	store.CreateCommitment(commitment("e1", "u1", dayAt(10, 0), dayAt(11, 0)))

	d := NewDetector(store, nil)
	result, err := d.DetectConflicts("u1", ConflictRequest{
		StartTime:      dayAt(10, 0),
		EndTime:        dayAt(11, 0),
		ExcludeEventID: "e1",
	})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if result.HasConflicts {
		t.Errorf("excluded event must not count as a conflict: %+v", result)
	}
}

func TestDetectConflictsParticipants(t *testing.T) {
	store := newMemCommitments()
	store.CreateCommitment(commitment("e1", "u2", dayAt(10, 0), dayAt(11, 0)))

	resolver := mapResolver{"colleague@example.com": "u2"}
	d := NewDetector(store, resolver)
	result, err := d.DetectConflicts("u1", ConflictRequest{
		StartTime:            dayAt(10, 30),
		EndTime:              dayAt(11, 30),
		ParticipantAddresses: []string{"colleague@example.com", "outside@elsewhere.com"},
	})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if len(result.ParticipantConflicts) != 2 {
		t.Fatalf("expected 2 participant entries, got %d", len(result.ParticipantConflicts))
	}

	internal := result.ParticipantConflicts[0]
	if !internal.Evaluated || len(internal.Conflicts) != 1 {
		t.Errorf("expected evaluated participant with 1 conflict, got %+v", internal)
	}
	external := result.ParticipantConflicts[1]
	if external.Evaluated {
		t.Errorf("external participant must not be marked evaluated: %+v", external)
	}
	if result.TotalConflicts != 1 {
		t.Errorf("expected total of 1, got %d", result.TotalConflicts)
	}
}

func TestDetectConflictsAllDayNormalized(t *testing.T) {
	store := newMemCommitments()
	allDay := commitment("e1", "u1",
		time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC))
	allDay.AllDay = true
	store.CreateCommitment(allDay)

	d := NewDetector(store, nil)
	result, err := d.DetectConflicts("u1", ConflictRequest{
		StartTime: dayAt(14, 0),
		EndTime:   dayAt(15, 0),
	})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if !result.HasConflicts {
		t.Error("all-day commitment should conflict with a same-day slot")
	}
}

func TestDetectConflictsValidation(t *testing.T) {
	d := NewDetector(newMemCommitments(), nil)

	_, err := d.DetectConflicts("", ConflictRequest{StartTime: dayAt(10, 0), EndTime: dayAt(11, 0)})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("empty owner: expected ValidationError, got %v", err)
	}

	_, err = d.DetectConflicts("u1", ConflictRequest{StartTime: dayAt(11, 0), EndTime: dayAt(11, 0)})
	if !errors.As(err, &ve) {
		t.Errorf("zero-length interval: expected ValidationError, got %v", err)
	}
}
