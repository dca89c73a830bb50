// Package scheduling implements conflict detection and time-slot
// suggestion. Everything here is read-only and side-effect free, so
// requests parallelize freely and never touch the per-task evaluation
// lock in the orchestrator.
package scheduling

import (
	"sort"
	"time"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// AddressResolver maps a participant contact address to an internal user
// ID. Addresses that do not resolve belong to external participants whose
// commitments are unknown to us.
type AddressResolver interface {
	ResolveAddress(address string) (userID string, ok bool)
}

// ConflictRequest is the conflict-check request contract.
type ConflictRequest struct {
	// StartTime is the inclusive candidate start.
	StartTime time.Time `json:"startTime"`
	// EndTime is the exclusive candidate end. Must be strictly after StartTime.
	EndTime time.Time `json:"endTime"`
	// ParticipantAddresses optionally lists participant contact addresses.
	ParticipantAddresses []string `json:"participantAddresses,omitempty"`
	// ExcludeEventID optionally excludes one commitment (e.g., the event
	// being rescheduled) from consideration.
	ExcludeEventID string `json:"excludeEventId,omitempty"`
}

// ParticipantConflicts reports the check outcome for one participant
// address. Evaluated distinguishes "no conflict" from "not checked":
// external participants with no stored commitments are never silently
// assumed conflict-free.
type ParticipantConflicts struct {
	// Address is the participant's contact address.
	Address string `json:"address"`
	// Evaluated is false for external participants whose commitments are
	// unknown.
	Evaluated bool `json:"evaluated"`
	// Conflicts lists overlapping commitments, ordered by start time.
	Conflicts []models.Interval `json:"conflicts"`
}

// ConflictResult is derived, never stored.
type ConflictResult struct {
	// HasConflicts is true if any evaluated calendar overlaps the candidate.
	HasConflicts bool `json:"hasConflicts"`
	// TotalConflicts counts every overlapping commitment found.
	TotalConflicts int `json:"totalConflicts"`
	// Query echoes the candidate interval.
	Query models.Interval `json:"query"`
	// UserConflicts lists the requesting user's overlapping commitments,
	// ordered by start time.
	UserConflicts []models.Interval `json:"userConflicts"`
	// ParticipantConflicts holds per-participant outcomes.
	ParticipantConflicts []ParticipantConflicts `json:"participantConflicts,omitempty"`
}

// Detector decides interval overlap against stored commitments.
type Detector struct {
	commitments state.CommitmentStore
	resolver    AddressResolver
}

// NewDetector creates a Detector. resolver may be nil, in which case every
// participant address is treated as external.
func NewDetector(commitments state.CommitmentStore, resolver AddressResolver) *Detector {
	return &Detector{commitments: commitments, resolver: resolver}
}

// DetectConflicts checks the candidate interval against the owner's
// commitments and, where participant addresses resolve to internal users,
// against theirs too. Two half-open intervals [a0,a1) and [b0,b1) conflict
// iff a0 < b1 && b0 < a1; zero-length and back-to-back intervals never
// conflict. An empty result is a successful outcome, not an error.
func (d *Detector) DetectConflicts(ownerID string, req ConflictRequest) (*ConflictResult, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Field: "ownerId", Message: "must not be empty"}
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, &models.ValidationError{Field: "endTime", Message: "must be strictly after startTime"}
	}

	candidate := models.Interval{Start: req.StartTime, End: req.EndTime}
	result := &ConflictResult{Query: candidate}

	userConflicts, err := d.conflictsForOwner(ownerID, candidate, req.ExcludeEventID)
	if err != nil {
		return nil, &models.DependencyError{Op: "list commitments", Err: err}
	}
	result.UserConflicts = userConflicts
	result.TotalConflicts += len(userConflicts)

	for _, address := range req.ParticipantAddresses {
		pc := ParticipantConflicts{Address: address}
		if d.resolver != nil {
			if userID, ok := d.resolver.ResolveAddress(address); ok {
				conflicts, err := d.conflictsForOwner(userID, candidate, req.ExcludeEventID)
				if err != nil {
					return nil, &models.DependencyError{Op: "list participant commitments", Err: err}
				}
				pc.Evaluated = true
				pc.Conflicts = conflicts
				result.TotalConflicts += len(conflicts)
			}
		}
		result.ParticipantConflicts = append(result.ParticipantConflicts, pc)
	}

	result.HasConflicts = result.TotalConflicts > 0
	return result, nil
}

// conflictsForOwner returns the owner's commitments overlapping the
// candidate, ordered by start time. The query window is padded a day on
// each side so multi-day and all-day commitments are not missed before
// normalization.
func (d *Detector) conflictsForOwner(ownerID string, candidate models.Interval, excludeEventID string) ([]models.Interval, error) {
	from := candidate.Start.Add(-24 * time.Hour)
	to := candidate.End.Add(24 * time.Hour)
	commitments, err := d.commitments.ListCommitmentsForOwner(ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return ConflictsAgainst(commitments, candidate, excludeEventID), nil
}

// ConflictsAgainst applies the overlap rule to an already-loaded commitment
// set and returns the overlapping ones ordered by start time. The
// suggestion engine uses this to filter candidates without re-querying the
// store per slot.
func ConflictsAgainst(commitments []models.Interval, candidate models.Interval, excludeEventID string) []models.Interval {
	var conflicts []models.Interval
	for _, c := range commitments {
		if excludeEventID != "" && c.EventID == excludeEventID {
			continue
		}
		if candidate.Overlaps(c) {
			conflicts = append(conflicts, c.Normalized())
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Start.Before(conflicts[j].Start)
	})
	return conflicts
}

// Overlaps is the bare overlap predicate for callers that already hold
// both intervals.
func Overlaps(a, b models.Interval) bool {
	return a.Overlaps(b)
}
