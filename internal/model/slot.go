package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Slot is a (date, start, duration) triple on the booking grid.
// Start and duration are integer minutes; all interval arithmetic stays in
// minutes so fractional-hour inputs like 1.5 cannot drift on boundaries.
type Slot struct {
	Date            time.Time
	StartMinutes    int
	DurationMinutes int
}

const (
	// GridMinutes is the booking grid step: starts and durations snap to it.
	GridMinutes = 30

	// MinutesPerDay bounds slot ends; no slot may cross midnight.
	MinutesPerDay = 24 * 60
)

// ValidationError reports malformed user input for a slot or reservation field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// ParseSlot validates and normalizes raw caller input into a Slot.
func ParseSlot(dateStr, startClock string, durationHours float64) (Slot, error) {
	day, err := ParseDate(dateStr)
	if err != nil {
		return Slot{}, err
	}
	start, err := ParseClock(startClock)
	if err != nil {
		return Slot{}, err
	}
	if start%GridMinutes != 0 {
		return Slot{}, &ValidationError{Field: "start_time", Msg: fmt.Sprintf("must fall on the %d-minute grid", GridMinutes)}
	}
	duration, err := DurationToMinutes(durationHours)
	if err != nil {
		return Slot{}, err
	}
	if start+duration > MinutesPerDay {
		return Slot{}, &ValidationError{Field: "duration_hours", Msg: "slot must not cross midnight"}
	}
	return Slot{Date: day, StartMinutes: start, DurationMinutes: duration}, nil
}

// ParseDate parses "YYYY-MM-DD" into a UTC midnight calendar day.
func ParseDate(raw string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Msg: "expected YYYY-MM-DD"}
	}
	return day, nil
}

// ParseClock parses "HH:MM" (24-hour) into minutes since midnight.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, &ValidationError{Field: "start_time", Msg: "expected HH:MM"}
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, &ValidationError{Field: "start_time", Msg: "hour out of range"}
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, &ValidationError{Field: "start_time", Msg: "minute out of range"}
	}
	return hh*60 + mm, nil
}

// DurationToMinutes converts fractional hours to exact integer minutes,
// rejecting values off the booking grid.
func DurationToMinutes(hours float64) (int, error) {
	if hours <= 0 {
		return 0, &ValidationError{Field: "duration_hours", Msg: "must be positive"}
	}
	exact := hours * 60
	minutes := int(math.Round(exact))
	if math.Abs(exact-float64(minutes)) > 1e-6 {
		return 0, &ValidationError{Field: "duration_hours", Msg: "must be a whole number of minutes"}
	}
	if minutes%GridMinutes != 0 {
		return 0, &ValidationError{Field: "duration_hours", Msg: fmt.Sprintf("must be a multiple of %d minutes", GridMinutes)}
	}
	return minutes, nil
}
