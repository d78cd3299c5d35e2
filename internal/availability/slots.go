package availability

import (
	"time"

	"github.com/TaherAlradaei/studio-sub000/internal/model"
)

// Interval is a half-open [Start,End) window in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals intersect.
// Touching endpoints (one ends exactly when the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return max(i.Start, o.Start) < min(i.End, o.End)
}

// Schedule holds the pitch's daily operating bounds. The break window is
// closed for play every day regardless of existing reservations.
type Schedule struct {
	OpenMinutes  int
	CloseMinutes int
	BreakStart   int
	BreakEnd     int
}

func DefaultSchedule() Schedule {
	return Schedule{
		OpenMinutes:  8 * 60,
		CloseMinutes: model.MinutesPerDay,
		BreakStart:   12 * 60,
		BreakEnd:     14 * 60,
	}
}

func (s Schedule) breakWindow() Interval {
	return Interval{Start: s.BreakStart, End: s.BreakEnd}
}

// IsSlotAvailable decides whether the candidate slot can still be booked.
//
// A zero now skips the past-slot check, for historical/administrative queries.
// Only confirmed reservations and admin blocks count against availability;
// pending and quoted requests do not hold the slot (contention is resolved at
// acceptance time).
func IsSlotAvailable(sched Schedule, slot model.Slot, now time.Time, existing []model.Reservation) bool {
	cand := Interval{Start: slot.StartMinutes, End: slot.StartMinutes + slot.DurationMinutes}

	if !now.IsZero() && slot.Date.Add(time.Duration(slot.StartMinutes)*time.Minute).Before(now) {
		return false
	}
	if cand.Start < sched.OpenMinutes || cand.End > sched.CloseMinutes || cand.End > model.MinutesPerDay {
		return false
	}
	if cand.Overlaps(sched.breakWindow()) {
		return false
	}
	return !overlapsAny(cand, slot.Date, existing)
}

// DaySlots returns the grid start times (minutes since midnight) on date where
// a booking of durationMinutes would be accepted. This feeds the public
// time-slot picker.
func DaySlots(sched Schedule, date time.Time, durationMinutes int, now time.Time, existing []model.Reservation) []int {
	if durationMinutes <= 0 {
		return nil
	}
	var starts []int
	for t := sched.OpenMinutes; t+durationMinutes <= sched.CloseMinutes; t += model.GridMinutes {
		slot := model.Slot{Date: date, StartMinutes: t, DurationMinutes: durationMinutes}
		if IsSlotAvailable(sched, slot, now, existing) {
			starts = append(starts, t)
		}
	}
	return starts
}

func overlapsAny(cand Interval, date time.Time, existing []model.Reservation) bool {
	for _, r := range existing {
		if r.Status != model.StatusConfirmed && r.Status != model.StatusBlocked {
			continue
		}
		if !sameDay(r.Date, date) {
			continue
		}
		if cand.Overlaps(Interval{Start: r.StartMinutes, End: r.EndMinutes()}) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
