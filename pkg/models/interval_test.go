package models

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 9, 2, hour, min, 0, 0, time.UTC)
}

func TestOverlapsBackToBack(t *testing.T) {
	// 09:00-10:00 vs 10:00-11:00: boundary touch is not a conflict
	a := Interval{Start: at(9, 0), End: at(10, 0)}
	b := Interval{Start: at(10, 0), End: at(11, 0)}
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Error("back-to-back intervals must not overlap")
	}
}

func TestOverlapsPartial(t *testing.T) {
	// 09:00-10:30 vs 10:00-11:00 overlap by 30 minutes
	a := Interval{Start: at(9, 0), End: at(10, 30)}
	b := Interval{Start: at(10, 0), End: at(11, 0)}
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("partially overlapping intervals must overlap")
	}
}

func TestOverlapsContainment(t *testing.T) {
	outer := Interval{Start: at(9, 0), End: at(17, 0)}
	inner := Interval{Start: at(12, 0), End: at(13, 0)}
	if !outer.Overlaps(inner) || !inner.Overlaps(outer) {
		t.Error("contained interval must overlap its container")
	}
}

func TestOverlapsDisjoint(t *testing.T) {
	a := Interval{Start: at(9, 0), End: at(10, 0)}
	b := Interval{Start: at(14, 0), End: at(15, 0)}
	if a.Overlaps(b) {
		t.Error("disjoint intervals must not overlap")
	}
}

func TestAllDayNormalization(t *testing.T) {
	allDay := Interval{
		Start:  time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC),
		End:    time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC),
		AllDay: true,
	}
	morning := Interval{Start: at(8, 0), End: at(9, 0)}
	if !allDay.Overlaps(morning) {
		t.Error("all-day event must overlap any slot that day")
	}

	nextDay := Interval{
		Start: time.Date(2026, 9, 3, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC),
	}
	if allDay.Overlaps(nextDay) {
		t.Error("all-day event must not bleed into the next day")
	}
}

func TestIntervalValidate(t *testing.T) {
	bad := Interval{Start: at(10, 0), End: at(10, 0)}
	if err := bad.Validate(); err == nil {
		t.Error("zero-length interval should fail validation")
	}

	inverted := Interval{Start: at(11, 0), End: at(10, 0)}
	if err := inverted.Validate(); err == nil {
		t.Error("inverted interval should fail validation")
	}

	good := Interval{Start: at(10, 0), End: at(11, 0)}
	if err := good.Validate(); err != nil {
		t.Errorf("valid interval failed validation: %v", err)
	}
}
