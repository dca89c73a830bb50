package models

import (
	"fmt"
	"time"
)

// Interval is a half-open time interval [Start, End) owned by a user.
type Interval struct {
	// EventID identifies the underlying commitment, if persisted.
	EventID string `json:"event_id,omitempty"`
	// OwnerID is the user this commitment belongs to.
	OwnerID string `json:"owner_id,omitempty"`
	// Title describes the commitment.
	Title string `json:"title,omitempty"`
	// Start is the inclusive start of the interval.
	Start time.Time `json:"start"`
	// End is the exclusive end of the interval. Must be strictly after Start.
	End time.Time `json:"end"`
	// AllDay marks a commitment covering a whole day.
	AllDay bool `json:"all_day,omitempty"`
	// Participants lists participant contact addresses, if any.
	Participants []string `json:"participants,omitempty"`
}

// Validate checks the end-after-start invariant.
func (iv Interval) Validate() error {
	if !iv.End.After(iv.Start) {
		return fmt.Errorf("interval: end %s not after start %s", iv.End.Format(time.RFC3339), iv.Start.Format(time.RFC3339))
	}
	return nil
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Normalized returns the interval with all-day commitments expanded to
// [dayStart, dayStart+24h) in the interval's own location.
func (iv Interval) Normalized() Interval {
	if !iv.AllDay {
		return iv
	}
	out := iv
	y, m, d := iv.Start.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, iv.Start.Location())
	out.Start = dayStart
	out.End = dayStart.Add(24 * time.Hour)
	return out
}

// Overlaps reports whether two half-open intervals conflict:
// [a0,a1) and [b0,b1) overlap iff a0 < b1 && b0 < a1.
// Zero-length and back-to-back intervals never overlap.
func (iv Interval) Overlaps(other Interval) bool {
	a := iv.Normalized()
	b := other.Normalized()
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
